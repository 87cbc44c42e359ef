package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"burlang_bot/internal/domain"
	"burlang_bot/internal/feature/submission"
	"burlang_bot/internal/logging"
	"burlang_bot/internal/store"
)

const helpText = `Commands:
/suggest_ru word1, word2 — suggest russian words
/suggest_bur word1, word2 | dialect — suggest buryat words, dialect optional
/decline ru|bur <word id> [reason] — decline a suggestion (moderators)
/stats — dictionary statistics
/me — your profile
/help — this message`

var languageCodes = map[string]domain.Language{
	"ru":  domain.LanguageRussian,
	"bur": domain.LanguageBuryat,
}

func (c *Client) route(ctx context.Context, sender messageSender, meta updateMeta) {
	if !strings.HasPrefix(meta.text, "/") {
		return
	}

	command, args := splitCommand(meta.text)

	switch command {
	case "/start", "/help":
		c.reply(ctx, sender, meta.chatID, helpText)
	case "/suggest_ru":
		c.handleSuggest(ctx, sender, meta, domain.LanguageRussian, args)
	case "/suggest_bur":
		c.handleSuggest(ctx, sender, meta, domain.LanguageBuryat, args)
	case "/decline":
		c.handleDecline(ctx, sender, meta, args)
	case "/stats":
		c.handleStats(ctx, sender, meta)
	case "/me":
		c.handleMe(ctx, sender, meta)
	default:
		c.reply(ctx, sender, meta.chatID, "Unknown command. Try /help.")
	}
}

// splitCommand separates the command token (with any @botname suffix removed)
// from its arguments.
func splitCommand(text string) (string, string) {
	parts := strings.SplitN(text, " ", 2)

	command := parts[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}

	return command, args
}

func (c *Client) handleSuggest(ctx context.Context, sender messageSender, meta updateMeta, language domain.Language, args string) {
	if c.submissions == nil {
		c.reply(ctx, sender, meta.chatID, "Submissions are not available right now.")
		return
	}

	rawText, dialectName := splitSuggestArgs(args)
	if rawText == "" {
		c.reply(ctx, sender, meta.chatID, "Send words after the command, separated by commas.")
		return
	}

	results, err := c.submissions.Submit(ctx, rawText, language, meta.userID, dialectName)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "suggest_failed",
			"user_id": meta.userID,
		}).WithError(err).Error("submission batch failed")

		if errors.Is(err, domain.ErrNotFound) {
			c.reply(ctx, sender, meta.chatID, "You are not registered yet. Send /start first.")
			return
		}
		c.reply(ctx, sender, meta.chatID, "Could not process your submission.")
		return
	}

	c.reply(ctx, sender, meta.chatID, formatResults(results))
}

// splitSuggestArgs separates the word list from an optional dialect after "|".
func splitSuggestArgs(args string) (string, string) {
	parts := strings.SplitN(args, "|", 2)
	rawText := strings.TrimSpace(parts[0])

	dialect := ""
	if len(parts) == 2 {
		dialect = strings.TrimSpace(parts[1])
	}

	return rawText, dialect
}

func (c *Client) handleDecline(ctx context.Context, sender messageSender, meta updateMeta, args string) {
	if c.declines == nil {
		c.reply(ctx, sender, meta.chatID, "Moderation is not available right now.")
		return
	}

	if !c.isModerator(ctx, meta.userID) {
		c.reply(ctx, sender, meta.chatID, "Only moderators can decline suggestions.")
		return
	}

	fields := strings.Fields(args)
	if len(fields) < 2 {
		c.reply(ctx, sender, meta.chatID, "Usage: /decline ru|bur <word id> [reason]")
		return
	}

	language, ok := languageCodes[fields[0]]
	if !ok {
		c.reply(ctx, sender, meta.chatID, "Unknown language. Use ru or bur.")
		return
	}

	wordID, err := primitive.ObjectIDFromHex(fields[1])
	if err != nil {
		c.reply(ctx, sender, meta.chatID, "Invalid word id.")
		return
	}

	reason := strings.Join(fields[2:], " ")

	if err := c.declines.Decline(ctx, wordID, language, meta.userID, reason); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "decline_failed",
			"user_id": meta.userID,
			"word_id": wordID.Hex(),
		}).WithError(err).Error("decline failed")

		if errors.Is(err, domain.ErrNotFound) {
			c.reply(ctx, sender, meta.chatID, "Suggestion not found.")
			return
		}
		c.reply(ctx, sender, meta.chatID, "Could not decline the suggestion.")
		return
	}

	c.reply(ctx, sender, meta.chatID, fmt.Sprintf("Declined %s.", wordID.Hex()))
}

func (c *Client) isModerator(ctx context.Context, telegramID int64) bool {
	if c.profiles == nil {
		return false
	}

	user, err := c.profiles.Resolve(ctx, telegramID)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "role_check_failed",
			"user_id": telegramID,
		}).WithError(err).Warn("could not resolve user role")
		return false
	}

	return user.Role == domain.RoleModerator
}

func (c *Client) handleStats(ctx context.Context, sender messageSender, meta updateMeta) {
	if c.stats == nil {
		c.reply(ctx, sender, meta.chatID, "Stats are not available right now.")
		return
	}

	summary, err := c.stats.Summarize(ctx)
	if err != nil {
		c.logger.WithField("event", "stats_failed").WithError(err).Error("stats lookup failed")
		c.reply(ctx, sender, meta.chatID, "Could not load statistics.")
		return
	}

	c.reply(ctx, sender, meta.chatID, formatSummary(summary, time.Since(c.processStart)))
}

func (c *Client) handleMe(ctx context.Context, sender messageSender, meta updateMeta) {
	if c.profiles == nil {
		c.reply(ctx, sender, meta.chatID, "Profiles are not available right now.")
		return
	}

	user, err := c.profiles.Resolve(ctx, meta.userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.reply(ctx, sender, meta.chatID, "You are not registered yet. Send /start first.")
			return
		}
		c.logger.WithField("event", "profile_failed").WithError(err).Error("profile lookup failed")
		c.reply(ctx, sender, meta.chatID, "Could not load your profile.")
		return
	}

	c.reply(ctx, sender, meta.chatID, fmt.Sprintf("Rating: %d\nLevel: %d", user.Rating, user.Level))
}

func (c *Client) reply(ctx context.Context, sender messageSender, chatID int64, text string) {
	if sender == nil || chatID == 0 {
		return
	}

	if _, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_send_failed",
			"chat_id": chatID,
		}).WithError(err).Error("failed to send message")
	}
}

func formatResults(results []submission.Result) string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		switch result.Status {
		case submission.StatusNewlySuggested:
			lines = append(lines, fmt.Sprintf("✅ %s — submitted for moderation", result.Input))
		case submission.StatusAcceptedExists:
			lines = append(lines, fmt.Sprintf("ℹ️ %s — already in the dictionary", result.Input))
		case submission.StatusSuggestedExists:
			lines = append(lines, fmt.Sprintf("ℹ️ %s — already suggested", result.Input))
		default:
			lines = append(lines, fmt.Sprintf("⚠️ %s — failed", result.Input))
		}
	}

	return strings.Join(lines, "\n")
}

func formatSummary(summary store.Summary, uptime time.Duration) string {
	return fmt.Sprintf(
		"Accepted: ru=%d bur=%d\nSuggested: ru=%d bur=%d\nDeclined: %d\nUsers: %d\nUptime: %s",
		summary.Accepted[domain.LanguageRussian],
		summary.Accepted[domain.LanguageBuryat],
		summary.Suggested[domain.LanguageRussian],
		summary.Suggested[domain.LanguageBuryat],
		summary.Declined,
		summary.Users,
		uptime.Truncate(time.Second),
	)
}
