package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type insertCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// DeclinedStore appends to the declined-words archive. Records are never
// mutated or deleted after insertion.
type DeclinedStore struct {
	collection insertCollection
}

// NewDeclinedStore constructs a DeclinedStore.
func NewDeclinedStore(collection insertCollection) *DeclinedStore {
	return &DeclinedStore{collection: collection}
}

// Insert archives a declined suggestion, stamping the decline time when unset.
func (s *DeclinedStore) Insert(ctx context.Context, record DeclinedRecord) (DeclinedRecord, error) {
	if s == nil || s.collection == nil {
		return DeclinedRecord{}, errors.New("declined store is not initialized")
	}
	if ctx == nil {
		return DeclinedRecord{}, errors.New("context is required")
	}
	if record.OriginalSuggestedWordID.IsZero() {
		return DeclinedRecord{}, fmt.Errorf("%w: original suggested word id is required", ErrValidation)
	}
	if record.DeclinedBy.IsZero() {
		return DeclinedRecord{}, fmt.Errorf("%w: moderator id is required", ErrValidation)
	}
	if record.Author.IsZero() {
		return DeclinedRecord{}, fmt.Errorf("%w: declined record is missing its author", ErrDatabase)
	}

	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.DeclinedAt.IsZero() {
		record.DeclinedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return DeclinedRecord{}, fmt.Errorf("%w: insert declined word: %v", ErrDatabase, err)
	}

	return record, nil
}
