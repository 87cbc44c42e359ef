// Package decline moves a suggested word into the declined archive under one
// multi-document transaction: back-reference cleanup, archive insert, and
// source delete happen together or not at all.
package decline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"burlang_bot/internal/domain"
	"burlang_bot/internal/logging"
)

type txnRunner interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type userResolver interface {
	ResolveID(ctx context.Context, telegramID int64) (primitive.ObjectID, error)
}

type archiveStore interface {
	Insert(ctx context.Context, record domain.DeclinedRecord) (domain.DeclinedRecord, error)
}

// Handler declines suggested words.
type Handler struct {
	txn      txnRunner
	stores   *domain.WordStoreSet
	declined archiveStore
	users    userResolver
	logger   *logrus.Entry
}

// NewHandler constructs a decline Handler.
func NewHandler(txn txnRunner, stores *domain.WordStoreSet, declined archiveStore, users userResolver, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Handler{
		txn:      txn,
		stores:   stores,
		declined: declined,
		users:    users,
		logger:   logger,
	}
}

// Decline archives the suggested word and removes it from its collection and
// from the translations_u back-references of the opposite language's accepted
// words, all inside one transaction. Any failure aborts every step.
func (h *Handler) Decline(ctx context.Context, suggestedWordID primitive.ObjectID, language domain.Language, moderatorTelegramID int64, reason string) error {
	if h == nil || h.txn == nil || h.stores == nil || h.declined == nil || h.users == nil {
		return errors.New("decline handler is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if suggestedWordID.IsZero() {
		return fmt.Errorf("%w: suggested word id is required", domain.ErrValidation)
	}
	if moderatorTelegramID == 0 {
		return fmt.Errorf("%w: moderator id is required", domain.ErrValidation)
	}

	opposite, err := language.Opposite()
	if err != nil {
		return err
	}

	suggested, err := h.stores.Store(language, domain.StatusSuggested)
	if err != nil {
		return err
	}
	oppositeAccepted, err := h.stores.Store(opposite, domain.StatusAccepted)
	if err != nil {
		return err
	}

	err = h.txn.RunTransaction(ctx, func(txCtx context.Context) error {
		word, err := suggested.GetByID(txCtx, suggestedWordID)
		if err != nil {
			return fmt.Errorf("load suggested word: %w", err)
		}

		moderatorID, err := h.users.ResolveID(txCtx, moderatorTelegramID)
		if err != nil {
			return fmt.Errorf("resolve moderator: %w", err)
		}

		if word.Author.IsZero() {
			return fmt.Errorf("%w: suggested word %s has no author", domain.ErrDatabase, word.ID.Hex())
		}

		if err := oppositeAccepted.PullSuggestionLink(txCtx, word.PreTranslations, word.ID); err != nil {
			return fmt.Errorf("prune pre-translation links: %w", err)
		}

		if _, err := h.declined.Insert(txCtx, domain.DeclinedRecord{
			Text:                    word.Text,
			NormalizedText:          word.NormalizedText,
			Language:                word.Language,
			Author:                  word.Author,
			Contributors:            word.Contributors,
			DialectID:               word.DialectID,
			Themes:                  word.Themes,
			PreTranslations:         word.PreTranslations,
			OriginalSuggestedWordID: word.ID,
			DeclinedBy:              moderatorID,
			Reason:                  strings.TrimSpace(reason),
			DeclinedAt:              time.Now().UTC().Truncate(time.Millisecond),
			OriginalCreatedAt:       word.CreatedAt,
		}); err != nil {
			return fmt.Errorf("archive declined word: %w", err)
		}

		if err := suggested.DeleteByID(txCtx, word.ID); err != nil {
			return fmt.Errorf("delete suggested word: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	h.logger.WithFields(logging.Fields{
		"event":    "word_declined",
		"language": language,
		"word_id":  suggestedWordID.Hex(),
	}).Info("declined suggested word")

	return nil
}
