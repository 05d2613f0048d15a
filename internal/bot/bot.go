package bot

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"newsbrief/internal/domain"
)

const updateProcessingTimeout = 10 * time.Minute

// Summarizer is the service the bot hands article links to.
type Summarizer interface {
	Summarize(ctx context.Context, rawURL string) (domain.Result, error)
}

// sender is the part of the Telegram API the bot uses.
type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
	SendDocument(ctx context.Context, params *tgbot.SendDocumentParams) (*models.Message, error)
}

type Bot struct {
	client       *tgbot.Bot
	api          sender
	svc          Summarizer
	allowedUsers []int64
	log          *slog.Logger
}

func New(
	token string,
	svc Summarizer,
	allowedUsers []int64,
	log *slog.Logger,
	opts ...tgbot.Option,
) (*Bot, error) {
	b := &Bot{
		svc:          svc,
		allowedUsers: allowedUsers,
		log:          log,
	}

	opts = append([]tgbot.Option{
		tgbot.WithDefaultHandler(b.handleUpdate),
	}, opts...)

	client, err := tgbot.New(strings.TrimSpace(token), opts...)
	if err != nil {
		return nil, err
	}

	b.client = client
	b.api = newThrottle(client, log)

	return b, nil
}

// Start long-polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is starting")
	b.client.Start(ctx)
	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	b.handleMessageUpdate(updateCtx, update.Message)
}

func (b *Bot) handleMessageUpdate(ctx context.Context, message *models.Message) {
	chatID := message.Chat.ID
	chatType := string(message.Chat.Type)

	var (
		userID   int64
		username string
	)
	if message.From != nil {
		userID = message.From.ID
		username = message.From.Username
	}

	if !b.userAllowed(userID) {
		b.log.DebugContext(ctx, "User is not allowed",
			"userID", userID,
			"chatID", chatID,
			"username", username,
			"chatType", chatType)

		return
	}

	if err := b.handleMessage(ctx, message); err != nil {
		b.log.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"chatID", chatID,
			"userID", userID,
			"chatType", chatType,
			"messageID", message.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	if len(b.allowedUsers) == 0 {
		return true
	}

	return slices.Contains(b.allowedUsers, userID)
}
