// Package moderator provides startup helpers for ensuring the configured
// moderator account exists in the database with the correct role.
package moderator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"burlang_bot/internal/domain"
	"burlang_bot/internal/logging"
)

type userCollection interface {
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar bootstraps the configured moderator record.
type Registrar struct {
	users  userCollection
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided users collection.
func NewRegistrar(users userCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
	}
}

// EnsureModerator upserts the configured telegram id with role=moderator and
// demotes any previous moderators to plain users.
func (r *Registrar) EnsureModerator(ctx context.Context, telegramID int64) error {
	if r == nil || r.users == nil {
		return errors.New("moderator registrar is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if telegramID == 0 {
		return errors.New("moderator id is required")
	}

	now := time.Now().UTC()

	demoteResult, err := r.users.UpdateMany(ctx,
		bson.M{"role": domain.RoleModerator, "telegram_id": bson.M{"$ne": telegramID}},
		bson.M{"$set": bson.M{
			"role":       domain.RoleUser,
			"updated_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("demote previous moderators: %w", err)
	}

	upsertResult, err := r.users.UpdateOne(ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{
			"$set": bson.M{
				"telegram_id": telegramID,
				"role":        domain.RoleModerator,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"rating":     int64(0),
				"level":      0,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure moderator: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":              "moderator_bootstrap",
		"moderator_id":       telegramID,
		"demoted_moderators": modifiedCount(demoteResult),
		"matched_moderator":  matchedCount(upsertResult),
		"upserted_moderator": upsertedCount(upsertResult),
	}).Info("ensured bot moderator")

	return nil
}

func modifiedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.ModifiedCount
}

func matchedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.MatchedCount
}

func upsertedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.UpsertedCount
}
