// Package notify pushes fired alerts to Telegram.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wonny/pesowatch/internal/alert"
	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/logger"
)

const (
	maxRetries     = 3
	retryDelayBase = time.Second
)

// Telegram sends alert batches to one chat via the Bot API. It
// satisfies the monitor's Notifier interface.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *logger.Logger
}

// NewTelegram validates the token against the Bot API. Callers gate
// construction on TelegramConfig.Enabled; a disabled config never
// reaches here.
func NewTelegram(cfg config.TelegramConfig, log *logger.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: log.WithField("module", "notify"),
	}, nil
}

// Notify sends the whole batch as one MarkdownV2 message with
// linear-backoff retry. One evaluation produces one push.
func (t *Telegram) Notify(ctx context.Context, records []alert.Record) error {
	if len(records) == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, formatMessage(records))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if _, err := t.bot.Send(msg); err == nil {
			t.logger.WithField("alerts", len(records)).Info("Telegram notification sent")
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelayBase * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("telegram send failed after %d attempts: %w", maxRetries, lastErr)
}

// formatMessage renders records into a single MarkdownV2 message:
// numbered entries, each with the signal line and the two action
// lines the record already carries.
func formatMessage(records []alert.Record) string {
	var b strings.Builder
	b.WriteString("💱 *USD/PHP risk alerts*\n")
	b.WriteString(fmt.Sprintf("📅 %s\n\n",
		escapeMarkdownV2(records[0].Timestamp.Format("2006-01-02 15:04 UTC"))))

	for i, rec := range records {
		b.WriteString(fmt.Sprintf("%d\\. %s *%s*\n",
			i+1, severityEmoji(rec.Severity), escapeMarkdownV2(rec.Title)))
		b.WriteString(fmt.Sprintf("   %s\n", escapeMarkdownV2(rec.Signal)))
		b.WriteString(fmt.Sprintf("   Why it matters: %s\n", escapeMarkdownV2(rec.WhyCare)))
		b.WriteString(fmt.Sprintf("   Next: %s\n\n", escapeMarkdownV2(rec.NextStep)))
	}

	return b.String()
}

func severityEmoji(sev alert.Severity) string {
	switch sev {
	case alert.SeverityCritical:
		return "🚨"
	case alert.SeverityAlert:
		return "⚠️"
	case alert.SeverityWatch:
		return "👀"
	default:
		return "ℹ️"
	}
}

// escapeMarkdownV2 escapes the characters Telegram's MarkdownV2
// parser treats as syntax.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
