//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain/model"
)

type recordingOracle struct {
	mu     sync.Mutex
	status model.MembershipStatus
	err    error
	probes []string
}

func (o *recordingOracle) ChatMemberStatus(ctx context.Context, channelID string, telegramID int64) (model.MembershipStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.probes = append(o.probes, channelID)
	return o.status, o.err
}

func auditChannels() []model.ChannelRequirement {
	return []model.ChannelRequirement{
		{ID: "@alpha", URL: "https://t.me/alpha"},
		{ID: "@beta", URL: "https://t.me/beta"},
	}
}

func TestChannelAuditWorker(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("should probe every channel once at startup and stop on cancel", func(t *testing.T) {
		oracle := &recordingOracle{status: model.StatusAdministrator}
		w := NewChannelAuditWorker(oracle, auditChannels(), 999, time.Hour, &logger)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			w.Start(ctx)
			close(done)
		}()

		// The first audit runs before the first tick.
		deadline := time.After(2 * time.Second)
		for {
			oracle.mu.Lock()
			n := len(oracle.probes)
			oracle.mu.Unlock()
			if n >= 2 {
				break
			}
			select {
			case <-deadline:
				t.Fatal("initial audit did not run")
			case <-time.After(10 * time.Millisecond):
			}
		}

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop on cancel")
		}

		oracle.mu.Lock()
		defer oracle.mu.Unlock()
		if oracle.probes[0] != "@alpha" || oracle.probes[1] != "@beta" {
			t.Errorf("expected probes in configured order, got %v", oracle.probes)
		}
	})

	t.Run("should keep auditing remaining channels after an error", func(t *testing.T) {
		oracle := &recordingOracle{err: errors.New("chat not found")}
		w := NewChannelAuditWorker(oracle, auditChannels(), 999, time.Hour, &logger)

		w.runOnce(context.Background())

		if len(oracle.probes) != 2 {
			t.Fatalf("expected both channels probed despite errors, got %v", oracle.probes)
		}
	})
}
