// Package rating awards contribution points to user profiles and keeps the
// derived level in sync.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"burlang_bot/internal/domain"
	"burlang_bot/internal/logging"
)

// Award deltas per contribution kind.
const (
	DeltaNewSuggestion       int64 = 10
	DeltaContributeAccepted  int64 = 5
	DeltaContributeSuggested int64 = 3
)

// levelThresholds maps cumulative rating to levels: level n is reached at
// thresholds[n]. Ratings below zero clamp to level 0.
var levelThresholds = []int64{0, 50, 150, 400, 1000, 2500, 6000}

// LevelFor computes the level a rating total corresponds to.
func LevelFor(rating int64) int {
	level := 0
	for i, threshold := range levelThresholds {
		if rating >= threshold {
			level = i
		}
	}

	return level
}

type userCollection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Service applies signed rating deltas and recomputes levels.
type Service struct {
	users  userCollection
	logger *logrus.Entry
}

// NewService constructs a rating Service over the users collection.
func NewService(users userCollection, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Service{
		users:  users,
		logger: logger,
	}
}

// Award atomically adds delta to the user's rating, recomputes the derived
// level, and returns the updated profile. A missing user is ErrNotFound; a
// failed level write is ErrDatabase.
func (s *Service) Award(ctx context.Context, userID primitive.ObjectID, delta int64) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, errors.New("rating service is not initialized")
	}
	if ctx == nil {
		return domain.User{}, errors.New("context is required")
	}
	if userID.IsZero() {
		return domain.User{}, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	result := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{"rating": delta},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result == nil {
		return domain.User{}, fmt.Errorf("%w: award rating returned no result", domain.ErrDatabase)
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID.Hex())
		}
		return domain.User{}, fmt.Errorf("%w: award rating: %v", domain.ErrDatabase, err)
	}

	var user domain.User
	if err := result.Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("%w: decode user: %v", domain.ErrDatabase, err)
	}

	level := LevelFor(user.Rating)
	if level != user.Level {
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"level": level, "updated_at": now}},
		); err != nil {
			return domain.User{}, fmt.Errorf("%w: update level: %v", domain.ErrDatabase, err)
		}

		s.logger.WithFields(logging.Fields{
			"event":  "level_changed",
			"rating": user.Rating,
			"level":  level,
		}).Info("user reached a new level")

		user.Level = level
	}

	return user, nil
}
