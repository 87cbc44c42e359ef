// Package submission orchestrates the lifecycle of incoming word suggestions:
// batch splitting, deduplication against the accepted and suggested
// collections, contributor credit, and rating awards.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"burlang_bot/internal/domain"
	"burlang_bot/internal/feature/rating"
	"burlang_bot/internal/logging"
	"burlang_bot/internal/textnorm"
)

// ResultStatus classifies the outcome for one submitted word.
type ResultStatus string

const (
	// StatusNewlySuggested means the word was created in the suggested collection.
	StatusNewlySuggested ResultStatus = "newly_suggested"
	// StatusAcceptedExists means the word already exists as accepted; the user
	// may have been credited as a contributor.
	StatusAcceptedExists ResultStatus = "accepted_exists"
	// StatusSuggestedExists means the word is already pending moderation.
	StatusSuggestedExists ResultStatus = "suggested_exists"
	// StatusError means this word failed; other words in the batch are unaffected.
	StatusError ResultStatus = "error"
)

// Result reports the outcome for one word of a batch. Word is nil on error.
type Result struct {
	Input   string
	Status  ResultStatus
	Message string
	Word    *domain.WordRecord
}

type userResolver interface {
	ResolveID(ctx context.Context, telegramID int64) (primitive.ObjectID, error)
}

type dialectLookup interface {
	FindIDByName(ctx context.Context, name string) (primitive.ObjectID, bool, error)
}

type ratingService interface {
	Award(ctx context.Context, userID primitive.ObjectID, delta int64) (domain.User, error)
}

// Handler processes word submission batches.
type Handler struct {
	stores   *domain.WordStoreSet
	users    userResolver
	dialects dialectLookup
	rating   ratingService
	logger   *logrus.Entry
}

// NewHandler constructs a submission Handler.
func NewHandler(stores *domain.WordStoreSet, users userResolver, dialects dialectLookup, ratingSvc ratingService, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Handler{
		stores:   stores,
		users:    users,
		dialects: dialects,
		rating:   ratingSvc,
		logger:   logger,
	}
}

// Submit splits rawText on commas and processes each word independently: a
// failure for one word never aborts the rest. The submitting user is resolved
// once up front; an unknown user fails the whole batch with ErrNotFound.
// Words found in the accepted collection win over suggested; words found in
// neither are created as new suggestions. Rating awards are side-effects:
// their failures are logged and swallowed.
func (h *Handler) Submit(ctx context.Context, rawText string, language domain.Language, telegramUserID int64, dialectName string) ([]Result, error) {
	if h == nil || h.stores == nil || h.users == nil {
		return nil, errors.New("submission handler is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !language.Valid() {
		return nil, fmt.Errorf("%w: unknown language %q", domain.ErrValidation, string(language))
	}

	words := SplitWords(rawText)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no words in submission", domain.ErrValidation)
	}

	userID, err := h.users.ResolveID(ctx, telegramUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve submitting user: %w", err)
	}

	dialectID := h.resolveDialect(ctx, language, dialectName)

	results := make([]Result, 0, len(words))
	for _, word := range words {
		results = append(results, h.submitOne(ctx, word, language, userID, dialectID))
	}

	return results, nil
}

// SplitWords splits a raw submission on commas, trims each segment, and drops
// empties.
func SplitWords(rawText string) []string {
	segments := strings.Split(rawText, ",")
	words := make([]string, 0, len(segments))
	for _, segment := range segments {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			words = append(words, trimmed)
		}
	}

	return words
}

// resolveDialect maps a dialect name to its id for buryat submissions. Any
// failure, including an unknown name, degrades to "no dialect".
func (h *Handler) resolveDialect(ctx context.Context, language domain.Language, dialectName string) *primitive.ObjectID {
	if !language.SupportsDialect() || strings.TrimSpace(dialectName) == "" || h.dialects == nil {
		return nil
	}

	id, found, err := h.dialects.FindIDByName(ctx, dialectName)
	if err != nil {
		h.logger.WithFields(logging.Fields{
			"event":   "dialect_lookup_failed",
			"dialect": dialectName,
		}).WithError(err).Warn("continuing submission without dialect")
		return nil
	}
	if !found {
		return nil
	}

	return &id
}

func (h *Handler) submitOne(ctx context.Context, word string, language domain.Language, userID primitive.ObjectID, dialectID *primitive.ObjectID) Result {
	normalized := textnorm.Key(word)

	accepted, err := h.stores.Store(language, domain.StatusAccepted)
	if err != nil {
		return h.errorResult(word, err)
	}
	suggested, err := h.stores.Store(language, domain.StatusSuggested)
	if err != nil {
		return h.errorResult(word, err)
	}

	// Accepted wins over suggested; the lookup order is part of the contract.
	record, err := accepted.FindByNormalizedText(ctx, normalized)
	switch {
	case err == nil:
		return h.contribute(ctx, accepted, record, userID, word, StatusAcceptedExists, rating.DeltaContributeAccepted)
	case !errors.Is(err, domain.ErrNotFound):
		return h.errorResult(word, err)
	}

	record, err = suggested.FindByNormalizedText(ctx, normalized)
	switch {
	case err == nil:
		return h.contribute(ctx, suggested, record, userID, word, StatusSuggestedExists, rating.DeltaContributeSuggested)
	case !errors.Is(err, domain.ErrNotFound):
		return h.errorResult(word, err)
	}

	created, err := suggested.Create(ctx, domain.WordRecord{
		Text:           word,
		NormalizedText: normalized,
		Author:         userID,
		Contributors:   []primitive.ObjectID{userID},
		DialectID:      dialectID,
	})
	if err != nil {
		return h.errorResult(word, err)
	}

	h.award(ctx, userID, rating.DeltaNewSuggestion, "new_suggestion")

	h.logger.WithFields(logging.Fields{
		"event":    "word_suggested",
		"language": language,
		"word":     normalized,
	}).Info("created new suggestion")

	return Result{
		Input:   word,
		Status:  StatusNewlySuggested,
		Message: fmt.Sprintf("%q submitted for moderation", word),
		Word:    &created,
	}
}

func (h *Handler) contribute(ctx context.Context, store *domain.WordStore, record domain.WordRecord, userID primitive.ObjectID, word string, status ResultStatus, delta int64) Result {
	if record.HasContributor(userID) {
		return Result{
			Input:   word,
			Status:  status,
			Message: fmt.Sprintf("%q already exists; you are already credited", word),
			Word:    &record,
		}
	}

	updated, err := store.AddContributor(ctx, record.ID, userID)
	if err != nil {
		return h.errorResult(word, err)
	}

	h.award(ctx, userID, delta, "contribution")

	return Result{
		Input:   word,
		Status:  status,
		Message: fmt.Sprintf("%q already exists; you are now credited as a contributor", word),
		Word:    &updated,
	}
}

// award requests a rating change and logs failures without propagating them:
// the contribution itself has already succeeded.
func (h *Handler) award(ctx context.Context, userID primitive.ObjectID, delta int64, cause string) {
	if h.rating == nil {
		return
	}

	if _, err := h.rating.Award(ctx, userID, delta); err != nil {
		h.logger.WithFields(logging.Fields{
			"event": "rating_award_failed",
			"cause": cause,
			"delta": delta,
		}).WithError(err).Error("rating award failed; contribution kept")
	}
}

func (h *Handler) errorResult(word string, err error) Result {
	h.logger.WithFields(logging.Fields{
		"event": "word_submission_failed",
		"word":  word,
	}).WithError(err).Error("word submission failed")

	return Result{
		Input:   word,
		Status:  StatusError,
		Message: fmt.Sprintf("%q could not be processed: %v", word, err),
	}
}
