package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
	"status-dashboard/internal/utils"
)

// TelegramNotifier mirrors backup alert summaries into an ops chat.
type TelegramNotifier struct {
	token   string
	chatID  int64
	limiter *rate.Limiter
	logger  *logging.Logger
	options []bot.Option
	delay   time.Duration
}

// NewTelegramNotifier returns a notifier sending at most ratePerSecond messages per second.
func NewTelegramNotifier(token string, chatID int64, ratePerSecond int, logger *logging.Logger, options ...bot.Option) *TelegramNotifier {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		logger:  logger,
		options: options,
		delay:   time.Second,
	}
}

// SendBackupAlert posts a short summary. recipients is ignored; the chat is fixed.
func (t *TelegramNotifier) SendBackupAlert(ctx context.Context, recipients []string, alerted []models.AlertedServer, thresholdHours int, dueForReview []models.ServerDueForReview) error {
	if t.token == "" {
		return fmt.Errorf("missing telegram bot token")
	}
	if t.chatID == 0 {
		return fmt.Errorf("missing telegram chat id")
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	text := TelegramSummary(alerted, thresholdHours, dueForReview)
	return utils.Retry(ctx, t.logger, 3, t.delay, func() error {
		b, err := bot.New(t.token, t.options...)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: t.chatID, Text: text}); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", t.chatID, err)
		}
		return nil
	})
}

// TelegramSummary renders the chat message for one backup check.
func TelegramSummary(alerted []models.AlertedServer, thresholdHours int, due []models.ServerDueForReview) string {
	var b strings.Builder
	b.WriteString("Backup check\n")
	for _, s := range alerted {
		switch {
		case s.Reason == models.AlertReasonSmallFile:
			size := "unknown size"
			if s.FileSizeMB != nil {
				size = fmt.Sprintf("%.2f MB", *s.FileSizeMB)
			}
			fmt.Fprintf(&b, "SMALL %s: latest backup is %s\n", s.ServerName, size)
		case s.NeverBackedUp():
			fmt.Fprintf(&b, "OVERDUE %s: never backed up\n", s.ServerName)
		default:
			fmt.Fprintf(&b, "OVERDUE %s: %d h since last backup (threshold %d h)\n", s.ServerName, *s.HoursSinceBackup, thresholdHours)
		}
	}
	for _, r := range due {
		fmt.Fprintf(&b, "REVIEW %s: %s\n", r.ServerName, ReviewStatus(r.DaysUntilReview))
	}
	return strings.TrimRight(b.String(), "\n")
}
