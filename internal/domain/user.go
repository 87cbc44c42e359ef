package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// RoleModerator may decline suggestions.
	RoleModerator = "moderator"
	// RoleUser is a standard contributor with no elevated privileges.
	RoleUser = "user"
)

// User is a registered Telegram user. Rating accumulates from contribution
// awards; Level is derived from Rating and recomputed on every award.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TelegramID int64              `bson:"telegram_id" json:"telegram_id"`
	Username   string             `bson:"username,omitempty" json:"username,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Rating     int64              `bson:"rating" json:"rating"`
	Level      int                `bson:"level" json:"level"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// Dialect is a named buryat dialect referenced by buryat words.
type Dialect struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
