// Package store encapsulates MongoDB client management, collection helpers,
// and multi-document transactions.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"burlang_bot/internal/domain"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider exposes helper methods to retrieve collection counts for basic
// diagnostics without leaking MongoDB internals to callers.
type StatsProvider struct {
	accepted  map[domain.Language]countCollection
	suggested map[domain.Language]countCollection
	declined  countCollection
	users     countCollection
}

// Summary aggregates the counts surfaced by the /stats command.
type Summary struct {
	Accepted  map[domain.Language]int64
	Suggested map[domain.Language]int64
	Declined  int64
	Users     int64
}

// NewStatsProvider constructs a StatsProvider backed by the provided
// per-language word collections, the declined archive, and the users
// collection.
func NewStatsProvider(accepted, suggested map[domain.Language]countCollection, declined, users countCollection) *StatsProvider {
	return &StatsProvider{
		accepted:  accepted,
		suggested: suggested,
		declined:  declined,
		users:     users,
	}
}

// Stats builds a StatsProvider over the manager's collections.
func (m *Manager) Stats() *StatsProvider {
	accepted := map[domain.Language]countCollection{
		domain.LanguageRussian: m.Collection(CollectionRussianWords),
		domain.LanguageBuryat:  m.Collection(CollectionBuryatWords),
	}
	suggested := map[domain.Language]countCollection{
		domain.LanguageRussian: m.Collection(CollectionSuggestedRussianWords),
		domain.LanguageBuryat:  m.Collection(CollectionSuggestedBuryatWords),
	}

	return NewStatsProvider(accepted, suggested, m.Declined(), m.Users())
}

// CountAccepted returns the number of accepted words for a language.
func (p *StatsProvider) CountAccepted(ctx context.Context, language domain.Language) (int64, error) {
	if p == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	return countAll(ctx, p.accepted[language], "accepted "+string(language))
}

// CountSuggested returns the number of pending suggestions for a language.
func (p *StatsProvider) CountSuggested(ctx context.Context, language domain.Language) (int64, error) {
	if p == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	return countAll(ctx, p.suggested[language], "suggested "+string(language))
}

// CountDeclined returns the size of the declined archive.
func (p *StatsProvider) CountDeclined(ctx context.Context) (int64, error) {
	if p == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	return countAll(ctx, p.declined, "declined words")
}

// CountUsers returns the number of registered users.
func (p *StatsProvider) CountUsers(ctx context.Context) (int64, error) {
	if p == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	return countAll(ctx, p.users, "users")
}

// Summarize gathers all counts in one call for reporting.
func (p *StatsProvider) Summarize(ctx context.Context) (Summary, error) {
	if p == nil {
		return Summary{}, errors.New("stats provider is not initialized")
	}

	summary := Summary{
		Accepted:  make(map[domain.Language]int64, len(p.accepted)),
		Suggested: make(map[domain.Language]int64, len(p.suggested)),
	}

	for _, language := range []domain.Language{domain.LanguageRussian, domain.LanguageBuryat} {
		accepted, err := p.CountAccepted(ctx, language)
		if err != nil {
			return Summary{}, err
		}
		summary.Accepted[language] = accepted

		suggested, err := p.CountSuggested(ctx, language)
		if err != nil {
			return Summary{}, err
		}
		summary.Suggested[language] = suggested
	}

	declined, err := p.CountDeclined(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.Declined = declined

	users, err := p.CountUsers(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.Users = users

	return summary, nil
}

func countAll(ctx context.Context, coll countCollection, what string) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if coll == nil {
		return 0, fmt.Errorf("no collection configured for %s", what)
	}

	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", what, err)
	}

	return count, nil
}
