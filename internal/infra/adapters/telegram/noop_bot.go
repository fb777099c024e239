package telegram

import (
	"context"
	"log"
	"time"

	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/adapter"
)

var (
	_ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)
	_ adapter.MembershipOracle   = (*NoopBotAdapter)(nil)
)

// NoopBotAdapter implements the bot and oracle ports for local/dev runs.
// It logs messages instead of sending real Telegram messages and reports
// every user as a member of every channel.
type NoopBotAdapter struct{}

func NewNoopBotAdapter() *NoopBotAdapter {
	return &NoopBotAdapter{}
}

// SendMessage logs the message and simulates a small delay.
func (b *NoopBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("[noop-telegram] To user %d: %s\n", tgID, text)
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("[noop-telegram] To user %d: %s [buttons: %v]\n", tgID, text, rows)
	return nil
}

func (b *NoopBotAdapter) ChatMemberStatus(ctx context.Context, channelID string, telegramID int64) (model.MembershipStatus, error) {
	log.Printf("[noop-telegram] ChatMemberStatus %s for user %d: member", channelID, telegramID)
	return model.StatusMember, nil
}
