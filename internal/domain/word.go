package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WordRecord is a word or phrase in one of the two lifecycle stages. The same
// shape backs both the accepted and the suggested collections; suggested
// records use PreTranslations to point at the accepted words of the opposite
// language they were proposed as translations for.
type WordRecord struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Text            string               `bson:"text" json:"text"`
	NormalizedText  string               `bson:"normalized_text" json:"normalized_text"`
	Language        Language             `bson:"language" json:"language"`
	Author          primitive.ObjectID   `bson:"author" json:"author"`
	Contributors    []primitive.ObjectID `bson:"contributors" json:"contributors"`
	DialectID       *primitive.ObjectID  `bson:"dialect,omitempty" json:"dialect,omitempty"`
	Themes          []primitive.ObjectID `bson:"themes" json:"themes"`
	PreTranslations []primitive.ObjectID `bson:"pre_translations" json:"pre_translations"`
	// Accepted records track confirmed translations and, in translations_u,
	// back-references to suggested translation candidates.
	Translations          []primitive.ObjectID `bson:"translations,omitempty" json:"translations,omitempty"`
	SuggestedTranslations []primitive.ObjectID `bson:"translations_u,omitempty" json:"translations_u,omitempty"`
	CreatedAt             time.Time            `bson:"created_at" json:"created_at"`
}

// HasContributor reports whether userID is already credited on the record.
func (w WordRecord) HasContributor(userID primitive.ObjectID) bool {
	for _, id := range w.Contributors {
		if id == userID {
			return true
		}
	}
	return false
}

// DeclinedRecord is the append-only archive copy of a declined suggestion.
// It preserves the original record's content and creation timestamp for audit
// and keeps the (now dangling) original id.
type DeclinedRecord struct {
	ID                      primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Text                    string               `bson:"text" json:"text"`
	NormalizedText          string               `bson:"normalized_text" json:"normalized_text"`
	Language                Language             `bson:"language" json:"language"`
	Author                  primitive.ObjectID   `bson:"author" json:"author"`
	Contributors            []primitive.ObjectID `bson:"contributors" json:"contributors"`
	DialectID               *primitive.ObjectID  `bson:"dialect,omitempty" json:"dialect,omitempty"`
	Themes                  []primitive.ObjectID `bson:"themes" json:"themes"`
	PreTranslations         []primitive.ObjectID `bson:"pre_translations" json:"pre_translations"`
	OriginalSuggestedWordID primitive.ObjectID   `bson:"original_suggested_word_id" json:"original_suggested_word_id"`
	DeclinedBy              primitive.ObjectID   `bson:"declined_by" json:"declined_by"`
	Reason                  string               `bson:"reason,omitempty" json:"reason,omitempty"`
	DeclinedAt              time.Time            `bson:"declined_at" json:"declined_at"`
	OriginalCreatedAt       time.Time            `bson:"original_created_at" json:"original_created_at"`
}
