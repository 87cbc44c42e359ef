package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestWordStoreCreateStampsRecord(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageBuryat, StatusSuggested)

	author := primitive.NewObjectID()
	created, err := store.Create(context.Background(), WordRecord{
		Text:           "Сайн",
		NormalizedText: "сайн",
		Author:         author,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.Language != LanguageBuryat {
		t.Fatalf("expected language %s, got %s", LanguageBuryat, created.Language)
	}
	if created.ID.IsZero() {
		t.Fatal("expected id to be stamped")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
	if !created.HasContributor(author) {
		t.Fatal("expected author to be credited as contributor")
	}
	if created.Themes == nil || created.PreTranslations == nil {
		t.Fatal("expected themes and pre_translations to be non-nil")
	}

	if _, ok := coll.byID[created.ID]; !ok {
		t.Fatal("expected record to be stored")
	}
}

func TestWordStoreCreateKeepsExistingContributors(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusSuggested)

	author := primitive.NewObjectID()
	other := primitive.NewObjectID()
	created, err := store.Create(context.Background(), WordRecord{
		Text:           "привет",
		NormalizedText: "привет",
		Author:         author,
		Contributors:   []primitive.ObjectID{other},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(created.Contributors) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(created.Contributors))
	}
	if created.Contributors[0] != author {
		t.Fatal("expected author to be prepended to contributors")
	}
	if !created.HasContributor(other) {
		t.Fatal("expected existing contributor to be kept")
	}
}

func TestWordStoreCreateDuplicateIsConflict(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusSuggested)

	record := WordRecord{
		Text:           "мир",
		NormalizedText: "мир",
		Author:         primitive.NewObjectID(),
	}

	if _, err := store.Create(context.Background(), record); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	_, err := store.Create(context.Background(), record)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestWordStoreCreateValidation(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusSuggested)

	_, err := store.Create(context.Background(), WordRecord{Author: primitive.NewObjectID()})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing normalized text, got %v", err)
	}

	_, err = store.Create(context.Background(), WordRecord{NormalizedText: "мир"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing author, got %v", err)
	}
}

func TestWordStoreFindByNormalizedText(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusAccepted)

	created, err := store.Create(context.Background(), WordRecord{
		Text:           "Вода",
		NormalizedText: "вода",
		Author:         primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	found, err := store.FindByNormalizedText(context.Background(), "вода")
	if err != nil {
		t.Fatalf("FindByNormalizedText returned error: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID.Hex(), found.ID.Hex())
	}

	_, err = store.FindByNormalizedText(context.Background(), "огонь")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWordStoreGetByID(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageBuryat, StatusSuggested)

	created, err := store.Create(context.Background(), WordRecord{
		Text:           "уһан",
		NormalizedText: "уһан",
		Author:         primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	found, err := store.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if found.Text != created.Text {
		t.Fatalf("expected text %q, got %q", created.Text, found.Text)
	}

	_, err = store.GetByID(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWordStoreAddContributorIsSetSemantics(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusAccepted)

	created, err := store.Create(context.Background(), WordRecord{
		Text:           "дом",
		NormalizedText: "дом",
		Author:         primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	contributor := primitive.NewObjectID()
	updated, err := store.AddContributor(context.Background(), created.ID, contributor)
	if err != nil {
		t.Fatalf("AddContributor returned error: %v", err)
	}
	if !updated.HasContributor(contributor) {
		t.Fatal("expected contributor to be added")
	}
	if len(updated.Contributors) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(updated.Contributors))
	}

	again, err := store.AddContributor(context.Background(), created.ID, contributor)
	if err != nil {
		t.Fatalf("second AddContributor returned error: %v", err)
	}
	if len(again.Contributors) != 2 {
		t.Fatalf("expected repeated add to be a no-op, got %d contributors", len(again.Contributors))
	}
}

func TestWordStoreAddContributorMissingWord(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusAccepted)

	_, err := store.AddContributor(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWordStoreDeleteByID(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageBuryat, StatusSuggested)

	created, err := store.Create(context.Background(), WordRecord{
		Text:           "гал",
		NormalizedText: "гал",
		Author:         primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := store.DeleteByID(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteByID returned error: %v", err)
	}
	if _, ok := coll.byID[created.ID]; ok {
		t.Fatal("expected record to be removed")
	}

	err = store.DeleteByID(context.Background(), created.ID)
	if !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected ErrDatabase for a missing record, got %v", err)
	}
}

func TestWordStorePullSuggestionLink(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusAccepted)

	suggestedID := primitive.NewObjectID()
	keepID := primitive.NewObjectID()

	first, err := store.Create(context.Background(), WordRecord{
		Text:                  "небо",
		NormalizedText:        "небо",
		Author:                primitive.NewObjectID(),
		SuggestedTranslations: []primitive.ObjectID{suggestedID, keepID},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := store.Create(context.Background(), WordRecord{
		Text:                  "земля",
		NormalizedText:        "земля",
		Author:                primitive.NewObjectID(),
		SuggestedTranslations: []primitive.ObjectID{suggestedID},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err = store.PullSuggestionLink(context.Background(),
		[]primitive.ObjectID{first.ID, second.ID}, suggestedID)
	if err != nil {
		t.Fatalf("PullSuggestionLink returned error: %v", err)
	}

	got := coll.byID[first.ID]
	if len(got.SuggestedTranslations) != 1 || got.SuggestedTranslations[0] != keepID {
		t.Fatalf("expected only the unrelated link to survive, got %v", got.SuggestedTranslations)
	}
	if got := coll.byID[second.ID]; len(got.SuggestedTranslations) != 0 {
		t.Fatalf("expected all links removed, got %v", got.SuggestedTranslations)
	}
}

func TestWordStorePullSuggestionLinkEmptyIDs(t *testing.T) {
	coll := newFakeWordCollection(t)
	store := NewWordStore(coll, LanguageRussian, StatusAccepted)

	if err := store.PullSuggestionLink(context.Background(), nil, primitive.NewObjectID()); err != nil {
		t.Fatalf("expected empty id list to be a no-op, got %v", err)
	}
	if coll.updateManyCalls != 0 {
		t.Fatalf("expected no update calls, got %d", coll.updateManyCalls)
	}
}

func TestWordStoreSetLookup(t *testing.T) {
	stores := NewWordStoreSet(
		NewWordStore(newFakeWordCollection(t), LanguageRussian, StatusAccepted),
		NewWordStore(newFakeWordCollection(t), LanguageBuryat, StatusAccepted),
		NewWordStore(newFakeWordCollection(t), LanguageRussian, StatusSuggested),
		NewWordStore(newFakeWordCollection(t), LanguageBuryat, StatusSuggested),
	)

	for _, language := range []Language{LanguageRussian, LanguageBuryat} {
		for _, status := range []Status{StatusAccepted, StatusSuggested} {
			store, err := stores.Store(language, status)
			if err != nil {
				t.Fatalf("Store(%s, %s) returned error: %v", language, status, err)
			}
			if store.Language() != language || store.Status() != status {
				t.Fatalf("Store(%s, %s) returned store for %s/%s",
					language, status, store.Language(), store.Status())
			}
		}
	}

	if _, err := stores.Store(Language("mongolian"), StatusAccepted); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown pair, got %v", err)
	}
}

// fakeWordCollection is an in-memory stand-in for one word collection. It
// understands only the filters and update operators the WordStore issues.
type fakeWordCollection struct {
	t               *testing.T
	byID            map[primitive.ObjectID]WordRecord
	byNormalized    map[string]primitive.ObjectID
	updateManyCalls int
}

func newFakeWordCollection(t *testing.T) *fakeWordCollection {
	t.Helper()
	return &fakeWordCollection{
		t:            t,
		byID:         make(map[primitive.ObjectID]WordRecord),
		byNormalized: make(map[string]primitive.ObjectID),
	}
}

func (f *fakeWordCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	record, ok := f.lookup(filter)
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}

	return mongo.NewSingleResultFromDocument(record, nil, nil)
}

func (f *fakeWordCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	record, ok := f.lookup(filter)
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}

	updateDoc, ok := update.(bson.M)
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, fmt.Errorf("unexpected update type %T", update), nil)
	}

	if addToSet, ok := updateDoc["$addToSet"].(bson.M); ok {
		if userID, ok := addToSet["contributors"].(primitive.ObjectID); ok {
			if !record.HasContributor(userID) {
				record.Contributors = append(record.Contributors, userID)
			}
		}
	}

	f.byID[record.ID] = record
	return mongo.NewSingleResultFromDocument(record, nil, nil)
}

func (f *fakeWordCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	record, ok := document.(WordRecord)
	if !ok {
		return nil, fmt.Errorf("unexpected document type %T", document)
	}

	if _, exists := f.byNormalized[record.NormalizedText]; exists {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}

	f.byID[record.ID] = record
	f.byNormalized[record.NormalizedText] = record.ID
	return &mongo.InsertOneResult{InsertedID: record.ID}, nil
}

func (f *fakeWordCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.updateManyCalls++

	filterDoc, ok := filter.(bson.M)
	if !ok {
		return nil, fmt.Errorf("unexpected filter type %T", filter)
	}
	idFilter, ok := filterDoc["_id"].(bson.M)
	if !ok {
		return nil, fmt.Errorf("expected _id filter, got %v", filterDoc)
	}
	ids, ok := idFilter["$in"].([]primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("expected $in id list, got %v", idFilter)
	}

	updateDoc, ok := update.(bson.M)
	if !ok {
		return nil, fmt.Errorf("unexpected update type %T", update)
	}
	pull, ok := updateDoc["$pull"].(bson.M)
	if !ok {
		return nil, fmt.Errorf("expected $pull update, got %v", updateDoc)
	}
	suggestedID, ok := pull["translations_u"].(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("expected translations_u pull, got %v", pull)
	}

	var modified int64
	for _, id := range ids {
		record, ok := f.byID[id]
		if !ok {
			continue
		}

		kept := record.SuggestedTranslations[:0]
		for _, link := range record.SuggestedTranslations {
			if link != suggestedID {
				kept = append(kept, link)
			}
		}
		if len(kept) != len(record.SuggestedTranslations) {
			modified++
		}
		record.SuggestedTranslations = kept
		f.byID[id] = record
	}

	return &mongo.UpdateResult{MatchedCount: int64(len(ids)), ModifiedCount: modified}, nil
}

func (f *fakeWordCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	record, ok := f.lookup(filter)
	if !ok {
		return &mongo.DeleteResult{DeletedCount: 0}, nil
	}

	delete(f.byID, record.ID)
	delete(f.byNormalized, record.NormalizedText)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeWordCollection) lookup(filter interface{}) (WordRecord, bool) {
	filterDoc, ok := filter.(bson.M)
	if !ok {
		return WordRecord{}, false
	}

	if id, ok := filterDoc["_id"].(primitive.ObjectID); ok {
		record, found := f.byID[id]
		return record, found
	}
	if normalized, ok := filterDoc["normalized_text"].(string); ok {
		id, found := f.byNormalized[normalized]
		if !found {
			return WordRecord{}, false
		}
		record, found := f.byID[id]
		return record, found
	}

	return WordRecord{}, false
}
