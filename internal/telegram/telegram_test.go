package telegram

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"burlang_bot/internal/config"
)

type fakeBot struct {
	startedWith context.Context
}

func (f *fakeBot) Start(ctx context.Context) {
	f.startedWith = ctx
}

func TestNewClientCreatesBot(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	var gotToken string
	var gotOptions []bot.Option
	b := &fakeBot{}

	createBot = func(token string, options ...bot.Option) (botRunner, error) {
		gotToken = token
		gotOptions = options
		return b, nil
	}

	cfg := config.Config{TelegramToken: "token-123"}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewClient(cfg, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if client == nil || client.bot == nil {
		t.Fatalf("expected client and bot to be initialized")
	}

	if gotToken != cfg.TelegramToken {
		t.Fatalf("expected token %q, got %q", cfg.TelegramToken, gotToken)
	}

	if len(gotOptions) != 3 {
		t.Fatalf("expected 3 bot options (allowed updates, default handler, error handler), got %d", len(gotOptions))
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(config.Config{}, nil); err == nil {
		t.Fatal("expected error for a missing token")
	}
}

func TestNewClientPropagatesBotError(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	expected := errors.New("boom")
	createBot = func(string, ...bot.Option) (botRunner, error) {
		return nil, expected
	}

	_, err := NewClient(config.Config{TelegramToken: "token"}, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestNewClientAppliesOptions(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	createBot = func(string, ...bot.Option) (botRunner, error) {
		return &fakeBot{}, nil
	}

	submissions := &fakeSubmitter{}
	declines := &fakeDecliner{}

	client, err := NewClient(config.Config{TelegramToken: "token"}, nil,
		WithSubmissionHandler(submissions),
		WithDeclineHandler(declines),
	)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if client.submissions != submitter(submissions) {
		t.Fatal("expected submission handler to be wired")
	}
	if client.declines != decliner(declines) {
		t.Fatal("expected decline handler to be wired")
	}
}

func TestClientStartLogsAndUsesContext(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	client := &Client{
		bot:    &fakeBot{},
		logger: logrus.NewEntry(hookLogger),
	}

	ctx := context.Background()
	client.Start(ctx)

	if fb, ok := client.bot.(*fakeBot); ok {
		if fb.startedWith != ctx {
			t.Fatalf("expected bot to start with provided context")
		}
	}

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries (start/stop), got %d", len(entries))
	}

	if entries[0].Data["event"] != "telegram_listen" {
		t.Fatalf("expected start log event, got %v", entries[0].Data["event"])
	}
	if entries[1].Data["event"] != "telegram_stopped" {
		t.Fatalf("expected stop log event, got %v", entries[1].Data["event"])
	}
}

func TestExtractUpdateMeta(t *testing.T) {
	tests := []struct {
		name   string
		update *models.Update
		want   updateMeta
	}{
		{
			name: "message",
			update: &models.Update{
				Message: &models.Message{
					From: &models.User{ID: 10, Username: "arya"},
					Chat: models.Chat{ID: 20},
					Text: " /help ",
				},
			},
			want: updateMeta{userID: 10, chatID: 20, username: "arya", text: "/help", updateType: "message"},
		},
		{
			name: "edited message",
			update: &models.Update{
				EditedMessage: &models.Message{
					From: &models.User{ID: 11},
					Chat: models.Chat{ID: 21},
					Text: "updated",
				},
			},
			want: updateMeta{userID: 11, chatID: 21, text: "updated", updateType: "edited_message"},
		},
		{
			name: "callback query",
			update: &models.Update{
				CallbackQuery: &models.CallbackQuery{
					From: models.User{ID: 12},
					Data: "choice",
				},
			},
			want: updateMeta{userID: 12, text: "choice", updateType: "callback_query"},
		},
		{
			name:   "unknown",
			update: &models.Update{},
			want:   updateMeta{updateType: "unknown"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := extractUpdateMeta(tt.update)
			if got != tt.want {
				t.Fatalf("extractUpdateMeta() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDefaultHandlerRegistersUser(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	hookLogger.SetLevel(logrus.DebugLevel)

	registrar := &fakeRegistrar{}
	client := &Client{
		logger:    logrus.NewEntry(hookLogger),
		registrar: registrar,
	}

	handler := client.defaultHandler()
	handler(context.Background(), nil, &models.Update{
		Message: &models.Message{
			From: &models.User{ID: 99, Username: "arya"},
			Chat: models.Chat{ID: 199},
			Text: "ping",
		},
	})

	if registrar.calls != 1 {
		t.Fatalf("expected 1 registration call, got %d", registrar.calls)
	}
	if registrar.lastID != 99 || registrar.lastUsername != "arya" {
		t.Fatalf("expected registration of 99/arya, got %d/%s", registrar.lastID, registrar.lastUsername)
	}

	entry := hook.AllEntries()[0]
	if entry.Data["event"] != "telegram_update" {
		t.Fatalf("expected event=telegram_update, got %v", entry.Data["event"])
	}
	if entry.Data["update_type"] != "message" {
		t.Fatalf("expected update_type=message, got %v", entry.Data["update_type"])
	}
}

func TestDefaultHandlerSkipsNonMessageUpdates(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	registrar := &fakeRegistrar{}
	client := &Client{
		logger:    logrus.NewEntry(hookLogger),
		registrar: registrar,
	}

	handler := client.defaultHandler()
	handler(context.Background(), nil, &models.Update{
		CallbackQuery: &models.CallbackQuery{
			From: models.User{ID: 12},
			Data: "choice",
		},
	})

	if registrar.calls != 0 {
		t.Fatalf("expected no registration for a callback query, got %d", registrar.calls)
	}
}

type fakeRegistrar struct {
	calls        int
	lastID       int64
	lastUsername string
	err          error
}

func (f *fakeRegistrar) EnsureUser(ctx context.Context, telegramID int64, username string) (bool, error) {
	f.calls++
	f.lastID = telegramID
	f.lastUsername = username
	return f.err == nil, f.err
}
