package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	privateChatRate = time.Second
	groupChatRate   = 3 * time.Second
)

// throttle spaces Bot API calls per chat and retries once after a 429.
type throttle struct {
	api sender
	log *slog.Logger

	privateRate time.Duration
	groupRate   time.Duration

	mu       sync.Mutex
	nextSend map[any]time.Time
}

func newThrottle(api sender, log *slog.Logger) *throttle {
	return &throttle{
		api:         api,
		log:         log,
		privateRate: privateChatRate,
		groupRate:   groupChatRate,
		nextSend:    make(map[any]time.Time),
	}
}

func (t *throttle) SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error) {
	var msg *models.Message

	err := t.do(ctx, params.ChatID, func(ctx context.Context) error {
		var err error
		msg, err = t.api.SendMessage(ctx, params)
		return err
	})

	return msg, err
}

func (t *throttle) SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error) {
	var ok bool

	err := t.do(ctx, params.ChatID, func(ctx context.Context) error {
		var err error
		ok, err = t.api.SendChatAction(ctx, params)
		return err
	})

	return ok, err
}

func (t *throttle) SendDocument(ctx context.Context, params *tgbot.SendDocumentParams) (*models.Message, error) {
	var msg *models.Message

	err := t.do(ctx, params.ChatID, func(ctx context.Context) error {
		// A retried upload has to start from the first byte again.
		if upload, ok := params.Document.(*models.InputFileUpload); ok {
			if seeker, ok := upload.Data.(io.Seeker); ok {
				if _, err := seeker.Seek(0, io.SeekStart); err != nil {
					return err
				}
			}
		}

		var err error
		msg, err = t.api.SendDocument(ctx, params)
		return err
	})

	return msg, err
}

func (t *throttle) do(ctx context.Context, chatID any, call func(context.Context) error) error {
	if err := t.wait(ctx, chatID); err != nil {
		return err
	}

	err := call(ctx)

	var tooMany *tgbot.TooManyRequestsError
	if !errors.As(err, &tooMany) {
		return err
	}

	retryAfter := time.Duration(tooMany.RetryAfter) * time.Second
	t.log.WarnContext(ctx, "Telegram asked to slow down",
		"chatID", chatID,
		"retryAfter", retryAfter)

	t.mu.Lock()
	t.nextSend[chatID] = maxTime(t.nextSend[chatID], time.Now().Add(retryAfter))
	t.mu.Unlock()

	if err = t.wait(ctx, chatID); err != nil {
		return err
	}

	return call(ctx)
}

// wait reserves the next send slot for chatID and sleeps until it comes.
func (t *throttle) wait(ctx context.Context, chatID any) error {
	now := time.Now()

	t.mu.Lock()
	slot := maxTime(now, t.nextSend[chatID])
	t.nextSend[chatID] = slot.Add(t.rate(chatID))
	t.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return nil
	}

	t.log.DebugContext(ctx, "Rate limiting message",
		"chatID", chatID,
		"delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *throttle) rate(chatID any) time.Duration {
	if id, ok := chatID.(int64); ok && id < 0 {
		return t.groupRate
	}

	return t.privateRate
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}
