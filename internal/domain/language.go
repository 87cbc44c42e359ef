// Package domain defines shared domain types for the dictionary:
// languages, word lifecycle stages, word and user records, and error kinds.
package domain

import "fmt"

// Language identifies one side of the translation pair.
type Language string

const (
	// LanguageRussian is the source language of most lookups.
	LanguageRussian Language = "russian"
	// LanguageBuryat is the crowdsourced target language; only buryat words
	// may carry a dialect reference.
	LanguageBuryat Language = "buryat"
)

// Status is a word's lifecycle stage prior to archival.
type Status string

const (
	// StatusAccepted marks words approved by moderation.
	StatusAccepted Status = "accepted"
	// StatusSuggested marks user submissions awaiting moderation.
	StatusSuggested Status = "suggested"
)

// Valid reports whether l is one of the two supported languages.
func (l Language) Valid() bool {
	return l == LanguageRussian || l == LanguageBuryat
}

// Opposite returns the other language of the pair. Suggested words link back
// to accepted words of the opposite language via pre-translations.
func (l Language) Opposite() (Language, error) {
	switch l {
	case LanguageRussian:
		return LanguageBuryat, nil
	case LanguageBuryat:
		return LanguageRussian, nil
	default:
		return "", fmt.Errorf("%w: unknown language %q", ErrValidation, string(l))
	}
}

// SupportsDialect reports whether words of this language may reference a dialect.
func (l Language) SupportsDialect() bool {
	return l == LanguageBuryat
}
