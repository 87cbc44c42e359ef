// Package telegram hosts the Telegram client, routing, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"burlang_bot/internal/config"
	"burlang_bot/internal/domain"
	"burlang_bot/internal/feature/submission"
	"burlang_bot/internal/logging"
	"burlang_bot/internal/store"
)

type botRunner interface {
	Start(ctx context.Context)
}

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type submitter interface {
	Submit(ctx context.Context, rawText string, language domain.Language, telegramUserID int64, dialectName string) ([]submission.Result, error)
}

type decliner interface {
	Decline(ctx context.Context, suggestedWordID primitive.ObjectID, language domain.Language, moderatorTelegramID int64, reason string) error
}

type statsProvider interface {
	Summarize(ctx context.Context) (store.Summary, error)
}

type userRegistrar interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (bool, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, telegramID int64) (domain.User, error)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"edited_message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botRunner, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and the feature handlers it routes to.
type Client struct {
	bot          botRunner
	logger       *logrus.Entry
	submissions  submitter
	declines     decliner
	stats        statsProvider
	registrar    userRegistrar
	profiles     profileResolver
	processStart time.Time
}

// Option customizes the Client.
type Option func(*Client)

// WithSubmissionHandler wires the word submission handler.
func WithSubmissionHandler(s submitter) Option {
	return func(c *Client) { c.submissions = s }
}

// WithDeclineHandler wires the moderation decline handler.
func WithDeclineHandler(d decliner) Option {
	return func(c *Client) { c.declines = d }
}

// WithStatsProvider wires the collection stats provider for /stats.
func WithStatsProvider(p statsProvider) Option {
	return func(c *Client) { c.stats = p }
}

// WithUserRegistrar wires the registrar that upserts users on contact.
func WithUserRegistrar(r userRegistrar) Option {
	return func(c *Client) { c.registrar = r }
}

// WithProfileResolver wires profile lookups used for role checks and /me.
func WithProfileResolver(r profileResolver) Option {
	return func(c *Client) { c.profiles = r }
}

// WithProcessStart records the process start time reported by /stats.
func WithProcessStart(t time.Time) Option {
	return func(c *Client) { c.processStart = t }
}

// NewClient initializes the Telegram bot with long polling and the command router.
func NewClient(cfg config.Config, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	client := &Client{
		logger:       logger,
		processStart: time.Now(),
	}
	for _, opt := range opts {
		opt(client)
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(client.defaultHandler()),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	client.bot = tgBot
	return client, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

type updateMeta struct {
	userID     int64
	chatID     int64
	username   string
	text       string
	updateType string
}

func (c *Client) defaultHandler() bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update == nil {
			return
		}

		meta := extractUpdateMeta(update)

		fields := logging.Fields{
			"event":       "telegram_update",
			"update_type": meta.updateType,
		}
		if meta.userID != 0 {
			fields["user_id"] = meta.userID
		}
		if meta.chatID != 0 {
			fields["chat_id"] = meta.chatID
		}
		c.logger.WithFields(fields).Debug("telegram update received")

		if meta.updateType != "message" || meta.userID == 0 {
			return
		}

		c.ensureUser(ctx, meta)
		c.route(ctx, b, meta)
	}
}

func (c *Client) ensureUser(ctx context.Context, meta updateMeta) {
	if c.registrar == nil {
		return
	}

	if _, err := c.registrar.EnsureUser(ctx, meta.userID, meta.username); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "user_registration_failed",
			"user_id": meta.userID,
		}).WithError(err).Error("failed to register user")
	}
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     chatID(&update.Message.Chat),
			username:   username(update.Message.From),
			text:       strings.TrimSpace(update.Message.Text),
			updateType: "message",
		}
	case update.EditedMessage != nil:
		return updateMeta{
			userID:     userID(update.EditedMessage.From),
			chatID:     chatID(&update.EditedMessage.Chat),
			username:   username(update.EditedMessage.From),
			text:       strings.TrimSpace(update.EditedMessage.Text),
			updateType: "edited_message",
		}
	case update.CallbackQuery != nil:
		return updateMeta{
			userID:     userID(&update.CallbackQuery.From),
			username:   username(&update.CallbackQuery.From),
			text:       strings.TrimSpace(update.CallbackQuery.Data),
			updateType: "callback_query",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func username(user *models.User) string {
	if user == nil {
		return ""
	}

	return user.Username
}

func chatID(chat *models.Chat) int64 {
	if chat == nil {
		return 0
	}

	return chat.ID
}
