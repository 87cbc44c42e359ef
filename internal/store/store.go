// Package store encapsulates MongoDB client management, collection helpers,
// and multi-document transactions.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"burlang_bot/internal/config"
	"burlang_bot/internal/domain"
	"burlang_bot/internal/logging"
)

// Collection names used across the bot. Accepted and suggested words live in
// separate per-language collections; declined suggestions are archived in one.
const (
	CollectionRussianWords          = "russian_words"
	CollectionBuryatWords           = "buryat_words"
	CollectionSuggestedRussianWords = "suggested_russian_words"
	CollectionSuggestedBuryatWords  = "suggested_buryat_words"
	CollectionDeclinedWords         = "declined_words"
	CollectionUsers                 = "users"
	CollectionDialects              = "dialects"
)

type wordCollectionKey struct {
	language domain.Language
	status   domain.Status
}

var wordCollectionNames = map[wordCollectionKey]string{
	{domain.LanguageRussian, domain.StatusAccepted}:  CollectionRussianWords,
	{domain.LanguageBuryat, domain.StatusAccepted}:   CollectionBuryatWords,
	{domain.LanguageRussian, domain.StatusSuggested}: CollectionSuggestedRussianWords,
	{domain.LanguageBuryat, domain.StatusSuggested}:  CollectionSuggestedBuryatWords,
}

// wordCollectionOrder fixes the index-creation order for deterministic setup.
var wordCollectionOrder = []string{
	CollectionRussianWords,
	CollectionBuryatWords,
	CollectionSuggestedRussianWords,
	CollectionSuggestedBuryatWords,
}

// WordCollectionName resolves the collection backing a (language, status) pair.
func WordCollectionName(language domain.Language, status domain.Status) (string, error) {
	name, ok := wordCollectionNames[wordCollectionKey{language: language, status: status}]
	if !ok {
		return "", fmt.Errorf("%w: no word collection for %s/%s", domain.ErrValidation, language, status)
	}

	return name, nil
}

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// txnSession is the slice of mongo.Session the transaction runner needs.
type txnSession interface {
	StartTransaction(...*options.TransactionOptions) error
	AbortTransaction(context.Context) error
	CommitTransaction(context.Context) error
	EndSession(context.Context)
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// startSession is overridable for tests; the default requires a real client.
var startSession = func(client mongoClient) (txnSession, error) {
	real, ok := client.(*mongo.Client)
	if !ok {
		return nil, errors.New("client does not support sessions")
	}

	return real.StartSession()
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Ping verifies connectivity to the primary; used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Ping(ctx, readpref.Primary())
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Words returns the collection for a (language, status) pair.
func (m *Manager) Words(language domain.Language, status domain.Status) (*mongo.Collection, error) {
	name, err := WordCollectionName(language, status)
	if err != nil {
		return nil, err
	}

	return m.Collection(name), nil
}

// Declined returns the declined-words archive collection handle.
func (m *Manager) Declined() *mongo.Collection {
	return m.Collection(CollectionDeclinedWords)
}

// Users returns the users collection handle.
func (m *Manager) Users() *mongo.Collection {
	return m.Collection(CollectionUsers)
}

// Dialects returns the dialects collection handle.
func (m *Manager) Dialects() *mongo.Collection {
	return m.Collection(CollectionDialects)
}

// WordStores builds the lookup table of word stores for all four
// language/status collections.
func (m *Manager) WordStores() *domain.WordStoreSet {
	stores := make([]*domain.WordStore, 0, len(wordCollectionNames))
	for key, name := range wordCollectionNames {
		stores = append(stores, domain.NewWordStore(m.Collection(name), key.language, key.status))
	}

	return domain.NewWordStoreSet(stores...)
}

// DeclinedStore returns the append-only archive store.
func (m *Manager) DeclinedStore() *domain.DeclinedStore {
	return domain.NewDeclinedStore(m.Declined())
}

// EnsureBaseIndexes creates the foundational indexes: the unique
// normalized_text dedup key on every word collection, unique telegram ids on
// users, and unique dialect names. Collections are created implicitly if they
// do not already exist.
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	wordIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "normalized_text", Value: 1}},
			Options: options.Index().
				SetName("normalized_text_unique").
				SetUnique(true),
		},
	}

	for _, name := range wordCollectionOrder {
		if _, err := createIndexes(ctx, m.Collection(name), wordIndexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "telegram_id", Value: 1}},
			Options: options.Index().
				SetName("telegram_id_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.Users(), userIndexes); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	dialectIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetName("name_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.Dialects(), dialectIndexes); err != nil {
		return fmt.Errorf("create dialects indexes: %w", err)
	}

	return nil
}

// RunTransaction executes fn inside one multi-document transaction. Any error
// from fn aborts the transaction and is returned unchanged; a failure of the
// abort itself is logged, never allowed to mask the original error. The
// session is always ended.
func (m *Manager) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if fn == nil {
		return errors.New("transaction function is required")
	}

	sess, err := startSession(m.client)
	if err != nil {
		return fmt.Errorf("%w: start session: %v", domain.ErrDatabase, err)
	}
	defer sess.EndSession(ctx)

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("%w: start transaction: %v", domain.ErrDatabase, err)
	}

	txCtx := ctx
	if real, ok := sess.(mongo.Session); ok {
		txCtx = mongo.NewSessionContext(ctx, real)
	}

	if err := fn(txCtx); err != nil {
		if abortErr := sess.AbortTransaction(ctx); abortErr != nil {
			logging.Error("abort transaction failed", logging.Fields{
				"event": "txn_abort_error",
				"error": abortErr,
			})
		}
		return err
	}

	if err := sess.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", domain.ErrDatabase, err)
	}

	return nil
}

// Client returns the underlying mongo.Client when available. Tests using fakes
// may receive nil here.
func (m *Manager) Client() *mongo.Client {
	client, ok := m.client.(*mongo.Client)
	if !ok {
		return nil
	}
	return client
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
