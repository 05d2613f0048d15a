package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"newsbrief/internal/domain"
	"newsbrief/internal/markdown"
)

const (
	summaryFileName = "summary.txt"

	welcomeText = `🤖 *Welcome to newsbrief\!*

Send me a link to a news article and I will reply with a short summary of it\.

– The first http\(s\) link in your message is used
– Long articles are split into parts and summarized part by part
– You also get the summary as a text file`

	noURLText     = "✖️ Send me a link to a news article\\."
	emptyBodyText = "🤷 The article has no text to summarize\\."
)

//nolint:gochecknoglobals // Compiled once, read-only.
var httpURLRe = xurls.Strict()

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}

	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		return b.sendMessage(ctx, chatID, welcomeText, nil)
	}

	articleURL := findArticleURL(text)
	if articleURL == "" {
		return b.sendMessage(ctx, chatID, noURLText, nil)
	}

	return b.withSpinner(ctx, chatID, func() error {
		return b.handleArticleURL(ctx, chatID, message.ID, articleURL)
	})
}

func (b *Bot) handleArticleURL(
	ctx context.Context,
	chatID int64,
	messageID int,
	articleURL string,
) error {
	result, err := b.svc.Summarize(ctx, articleURL)
	if err != nil {
		errs := []error{fmt.Errorf("summarize: %w", err)}

		reply := "❌ " + markdown.EscapeV2(domain.UserMessage(err))
		if domain.IsKind(err, domain.KindValidation) {
			reply = "⚠️ " + markdown.EscapeV2(domain.UserMessage(err))
		}

		if sendErr := b.sendMessage(ctx, chatID, reply, nil); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if result.Summary == "" {
		return b.sendMessage(ctx, chatID, emptyBodyText, articleKeyboard(result.Article.URL))
	}

	var errs []error

	parts := formatResult(result)
	for i, part := range parts {
		var keyboard models.ReplyMarkup
		if i == len(parts)-1 {
			keyboard = articleKeyboard(result.Article.URL)
		}

		if err = b.sendMessage(ctx, chatID, part, keyboard); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}
	}

	if err = b.sendSummaryFile(ctx, chatID, messageID, result.Summary); err != nil {
		errs = append(errs, fmt.Errorf("send summary file: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) sendSummaryFile(ctx context.Context, chatID int64, messageID int, summary string) error {
	params := &tgbot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: summaryFileName,
			Data:     bytes.NewReader([]byte(summary)),
		},
	}
	if messageID != 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: messageID}
	}

	_, err := b.api.SendDocument(ctx, params)
	return err
}

// findArticleURL returns the first http(s) link in text.
func findArticleURL(text string) string {
	for _, candidate := range httpURLRe.FindAllString(text, -1) {
		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return candidate
		}
	}

	return ""
}

// formatResult renders the title and summary as MarkdownV2 messages that fit
// the Telegram length limit.
func formatResult(result domain.Result) []string {
	title := strings.TrimSpace(result.Article.Title)
	if title == "" {
		title = result.Article.URL
	}

	var b strings.Builder
	b.WriteString("📰 *")
	b.WriteString(markdown.EscapeV2(title))
	b.WriteString("*\n\n")
	b.WriteString(markdown.EscapeV2(result.Summary))

	if result.Chunks > 1 {
		b.WriteString("\n\n_")
		b.WriteString(markdown.EscapeV2(fmt.Sprintf("Summarized from %d parts.", result.Chunks)))
		b.WriteString("_")
	}

	return markdown.Split(b.String(), markdown.MaxMessageLength)
}
