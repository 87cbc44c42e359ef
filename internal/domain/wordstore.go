package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type wordCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// WordStore persists and retrieves word records for one (language, status)
// collection. The same implementation serves all four collections; callers
// select the right store through a WordStoreSet instead of branching on
// language.
type WordStore struct {
	collection wordCollection
	language   Language
	status     Status
}

// NewWordStore constructs a WordStore bound to one collection.
func NewWordStore(collection wordCollection, language Language, status Status) *WordStore {
	return &WordStore{
		collection: collection,
		language:   language,
		status:     status,
	}
}

// Language returns the language this store serves.
func (s *WordStore) Language() Language {
	return s.language
}

// Status returns the lifecycle stage this store serves.
func (s *WordStore) Status() Status {
	return s.status
}

// FindByNormalizedText fetches the record keyed by the normalized dedup text.
// A missing record is reported as ErrNotFound.
func (s *WordStore) FindByNormalizedText(ctx context.Context, normalized string) (WordRecord, error) {
	if s == nil || s.collection == nil {
		return WordRecord{}, errors.New("word store is not initialized")
	}
	if ctx == nil {
		return WordRecord{}, errors.New("context is required")
	}
	if normalized == "" {
		return WordRecord{}, fmt.Errorf("%w: normalized text is required", ErrValidation)
	}

	return s.decodeOne(s.collection.FindOne(ctx, bson.M{"normalized_text": normalized}))
}

// GetByID fetches a record by its object id.
func (s *WordStore) GetByID(ctx context.Context, id primitive.ObjectID) (WordRecord, error) {
	if s == nil || s.collection == nil {
		return WordRecord{}, errors.New("word store is not initialized")
	}
	if ctx == nil {
		return WordRecord{}, errors.New("context is required")
	}
	if id.IsZero() {
		return WordRecord{}, fmt.Errorf("%w: word id is required", ErrValidation)
	}

	return s.decodeOne(s.collection.FindOne(ctx, bson.M{"_id": id}))
}

// Create inserts a new word record, stamping language, creation time, and the
// author-is-contributor invariant. A duplicate normalized_text is reported as
// ErrConflict.
func (s *WordStore) Create(ctx context.Context, record WordRecord) (WordRecord, error) {
	if s == nil || s.collection == nil {
		return WordRecord{}, errors.New("word store is not initialized")
	}
	if ctx == nil {
		return WordRecord{}, errors.New("context is required")
	}
	if record.NormalizedText == "" {
		return WordRecord{}, fmt.Errorf("%w: normalized text is required", ErrValidation)
	}
	if record.Author.IsZero() {
		return WordRecord{}, fmt.Errorf("%w: author is required", ErrValidation)
	}

	record.Language = s.language
	if !record.HasContributor(record.Author) {
		record.Contributors = append([]primitive.ObjectID{record.Author}, record.Contributors...)
	}
	if record.Themes == nil {
		record.Themes = []primitive.ObjectID{}
	}
	if record.PreTranslations == nil {
		record.PreTranslations = []primitive.ObjectID{}
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return WordRecord{}, fmt.Errorf("%w: word %q already exists in %s/%s: %v",
				ErrConflict, record.NormalizedText, s.language, s.status, err)
		}
		return WordRecord{}, fmt.Errorf("%w: insert word: %v", ErrDatabase, err)
	}

	return record, nil
}

// AddContributor atomically adds userID to the record's contributor set and
// returns the updated record. Adding an existing member is a no-op at the
// storage layer, which is what keeps the set duplicate-free under races.
func (s *WordStore) AddContributor(ctx context.Context, wordID, userID primitive.ObjectID) (WordRecord, error) {
	if s == nil || s.collection == nil {
		return WordRecord{}, errors.New("word store is not initialized")
	}
	if ctx == nil {
		return WordRecord{}, errors.New("context is required")
	}
	if wordID.IsZero() || userID.IsZero() {
		return WordRecord{}, fmt.Errorf("%w: word id and user id are required", ErrValidation)
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": wordID},
		bson.M{"$addToSet": bson.M{"contributors": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return s.decodeOne(result)
}

// DeleteByID removes the record and verifies exactly one document was
// affected. Zero deletions are an integrity failure, not a no-op.
func (s *WordStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	if s == nil || s.collection == nil {
		return errors.New("word store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if id.IsZero() {
		return fmt.Errorf("%w: word id is required", ErrValidation)
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: delete word %s: %v", ErrDatabase, id.Hex(), err)
	}
	if result == nil || result.DeletedCount != 1 {
		return fmt.Errorf("%w: delete word %s affected %d documents, expected 1",
			ErrDatabase, id.Hex(), deletedCount(result))
	}

	return nil
}

// PullSuggestionLink removes suggestedID from the translations_u arrays of all
// listed accepted records in one bulk update. An empty id list is a no-op.
func (s *WordStore) PullSuggestionLink(ctx context.Context, acceptedIDs []primitive.ObjectID, suggestedID primitive.ObjectID) error {
	if s == nil || s.collection == nil {
		return errors.New("word store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if suggestedID.IsZero() {
		return fmt.Errorf("%w: suggested word id is required", ErrValidation)
	}
	if len(acceptedIDs) == 0 {
		return nil
	}

	_, err := s.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": acceptedIDs}},
		bson.M{"$pull": bson.M{"translations_u": suggestedID}},
	)
	if err != nil {
		return fmt.Errorf("%w: pull suggestion link %s: %v", ErrDatabase, suggestedID.Hex(), err)
	}

	return nil
}

func (s *WordStore) decodeOne(result *mongo.SingleResult) (WordRecord, error) {
	if result == nil {
		return WordRecord{}, fmt.Errorf("%w: find word returned no result", ErrDatabase)
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return WordRecord{}, fmt.Errorf("%w: word in %s/%s", ErrNotFound, s.language, s.status)
		}
		return WordRecord{}, fmt.Errorf("%w: find word: %v", ErrDatabase, err)
	}

	var record WordRecord
	if err := result.Decode(&record); err != nil {
		return WordRecord{}, fmt.Errorf("%w: decode word: %v", ErrDatabase, err)
	}

	return record, nil
}

func deletedCount(result *mongo.DeleteResult) int64 {
	if result == nil {
		return 0
	}
	return result.DeletedCount
}

type storeKey struct {
	language Language
	status   Status
}

// WordStoreSet selects the WordStore for a (language, status) pair via a
// lookup table.
type WordStoreSet struct {
	stores map[storeKey]*WordStore
}

// NewWordStoreSet builds the lookup table from the provided stores. Each store
// registers under its own language and status; duplicates overwrite.
func NewWordStoreSet(stores ...*WordStore) *WordStoreSet {
	table := make(map[storeKey]*WordStore, len(stores))
	for _, s := range stores {
		if s == nil {
			continue
		}
		table[storeKey{language: s.Language(), status: s.Status()}] = s
	}

	return &WordStoreSet{stores: table}
}

// Store returns the WordStore serving the given language and status.
func (s *WordStoreSet) Store(language Language, status Status) (*WordStore, error) {
	if s == nil {
		return nil, errors.New("word store set is not initialized")
	}

	store, ok := s.stores[storeKey{language: language, status: status}]
	if !ok {
		return nil, fmt.Errorf("%w: no word store for %s/%s", ErrValidation, language, status)
	}

	return store, nil
}
