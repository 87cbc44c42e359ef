// Package users provides registration and lookup of Telegram users.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"burlang_bot/internal/domain"
	"burlang_bot/internal/logging"
)

type upsertCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar ensures users are present in the database and keeps their
// last-seen timestamp updated on every interaction.
type Registrar struct {
	users  upsertCollection
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided users collection.
func NewRegistrar(users upsertCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
	}
}

// EnsureUser upserts the user record with zeroed rating and the default role
// if missing and updates last_seen_at/updated_at on every call. The username
// is refreshed when provided.
func (r *Registrar) EnsureUser(ctx context.Context, telegramID int64, username string) (bool, error) {
	if r == nil || r.users == nil {
		return false, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if telegramID == 0 {
		return false, errors.New("telegram id is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	setFields := bson.M{
		"updated_at":   now,
		"last_seen_at": now,
	}
	if trimmed := strings.TrimSpace(username); trimmed != "" {
		setFields["username"] = trimmed
	}

	update := bson.M{
		"$set": setFields,
		"$setOnInsert": bson.M{
			"telegram_id": telegramID,
			"role":        domain.RoleUser,
			"rating":      int64(0),
			"level":       0,
			"created_at":  now,
		},
	}

	result, err := r.users.UpdateOne(ctx,
		bson.M{"telegram_id": telegramID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	created := result != nil && result.UpsertedCount > 0
	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "user_registered",
			"user_id": telegramID,
		}).Info("registered new user")
		return true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_seen",
		"user_id": telegramID,
	}).Debug("updated user last seen")

	return false, nil
}
