// Package dialect resolves buryat dialect names to document ids.
package dialect

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

// Lookup resolves dialect names against the dialects collection.
type Lookup struct {
	dialects findCollection
}

// NewLookup constructs a Lookup over the dialects collection.
func NewLookup(dialects findCollection) *Lookup {
	return &Lookup{dialects: dialects}
}

// FindIDByName resolves a dialect by case-sensitive exact name. A missing
// dialect is not an error: it returns found=false and submissions proceed
// without a dialect.
func (l *Lookup) FindIDByName(ctx context.Context, name string) (primitive.ObjectID, bool, error) {
	if l == nil || l.dialects == nil {
		return primitive.NilObjectID, false, errors.New("dialect lookup is not initialized")
	}
	if ctx == nil {
		return primitive.NilObjectID, false, errors.New("context is required")
	}
	if name == "" {
		return primitive.NilObjectID, false, nil
	}

	result := l.dialects.FindOne(ctx, bson.M{"name": name})
	if result == nil {
		return primitive.NilObjectID, false, fmt.Errorf("%w: find dialect returned no result", domain.ErrDatabase)
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, false, nil
		}
		return primitive.NilObjectID, false, fmt.Errorf("%w: find dialect: %v", domain.ErrDatabase, err)
	}

	var dialect domain.Dialect
	if err := result.Decode(&dialect); err != nil {
		return primitive.NilObjectID, false, fmt.Errorf("%w: decode dialect: %v", domain.ErrDatabase, err)
	}

	return dialect.ID, true, nil
}
