package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"burlang_bot/internal/domain"
)

type findCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// Resolver maps external Telegram user ids to internal document ids.
type Resolver struct {
	users findCollection
}

// NewResolver constructs a Resolver over the users collection.
func NewResolver(users findCollection) *Resolver {
	return &Resolver{users: users}
}

// ResolveID returns the internal id for a Telegram user. An unknown user is
// reported as ErrNotFound.
func (r *Resolver) ResolveID(ctx context.Context, telegramID int64) (primitive.ObjectID, error) {
	user, err := r.Resolve(ctx, telegramID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return user.ID, nil
}

// Resolve fetches the full user profile for a Telegram user.
func (r *Resolver) Resolve(ctx context.Context, telegramID int64) (domain.User, error) {
	if r == nil || r.users == nil {
		return domain.User{}, errors.New("user resolver is not initialized")
	}
	if ctx == nil {
		return domain.User{}, errors.New("context is required")
	}
	if telegramID == 0 {
		return domain.User{}, fmt.Errorf("%w: telegram id is required", domain.ErrValidation)
	}

	result := r.users.FindOne(ctx, bson.M{"telegram_id": telegramID})
	if result == nil {
		return domain.User{}, fmt.Errorf("%w: find user returned no result", domain.ErrDatabase)
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("%w: user with telegram id %d", domain.ErrNotFound, telegramID)
		}
		return domain.User{}, fmt.Errorf("%w: find user: %v", domain.ErrDatabase, err)
	}

	var user domain.User
	if err := result.Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("%w: decode user: %v", domain.ErrDatabase, err)
	}

	return user, nil
}
