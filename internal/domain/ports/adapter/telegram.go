// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-gate-bot/internal/domain/model"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
}

// MembershipOracle is the external system of record for channel membership.
// ChatMemberStatus performs a single best-effort lookup; any error return is
// treated by callers as "not joined" (fail-closed), never surfaced to users.
type MembershipOracle interface {
	ChatMemberStatus(ctx context.Context, channelID string, telegramID int64) (model.MembershipStatus, error)
}
