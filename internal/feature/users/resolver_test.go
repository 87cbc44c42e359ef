package users

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"burlang_bot/internal/domain"
)

type fakeFindCollection struct {
	users map[int64]domain.User
}

func (f *fakeFindCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	filterDoc, ok := filter.(bson.M)
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, errors.New("unexpected filter"), nil)
	}

	telegramID, ok := filterDoc["telegram_id"].(int64)
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, errors.New("missing telegram_id filter"), nil)
	}

	user, found := f.users[telegramID]
	if !found {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}

	return mongo.NewSingleResultFromDocument(user, nil, nil)
}

func TestResolveReturnsProfile(t *testing.T) {
	userID := primitive.NewObjectID()
	resolver := NewResolver(&fakeFindCollection{users: map[int64]domain.User{
		1001: {ID: userID, TelegramID: 1001, Role: domain.RoleModerator, Rating: 42, Level: 0},
	}})

	user, err := resolver.Resolve(context.Background(), 1001)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if user.ID != userID {
		t.Fatalf("expected id %s, got %s", userID.Hex(), user.ID.Hex())
	}
	if user.Role != domain.RoleModerator {
		t.Fatalf("expected role %s, got %s", domain.RoleModerator, user.Role)
	}
	if user.Rating != 42 {
		t.Fatalf("expected rating 42, got %d", user.Rating)
	}
}

func TestResolveIDUnknownUser(t *testing.T) {
	resolver := NewResolver(&fakeFindCollection{users: map[int64]domain.User{}})

	_, err := resolver.ResolveID(context.Background(), 1001)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveIDValidation(t *testing.T) {
	resolver := NewResolver(&fakeFindCollection{users: map[int64]domain.User{}})

	_, err := resolver.ResolveID(context.Background(), 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
