package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/adapter"
	"telegram-gate-bot/internal/infra/metrics"
)

// ChannelAuditWorker periodically probes the bot's own membership in every
// required channel. If the bot was kicked or the channel went private, every
// gate check against that channel fails closed; the audit surfaces that on
// the gate_channel_reachable gauge before users start complaining.
type ChannelAuditWorker struct {
	oracle   adapter.MembershipOracle
	channels []model.ChannelRequirement
	selfID   int64
	interval time.Duration
	log      *zerolog.Logger
}

func NewChannelAuditWorker(
	oracle adapter.MembershipOracle,
	channels []model.ChannelRequirement,
	selfID int64,
	interval time.Duration,
	logger *zerolog.Logger,
) *ChannelAuditWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	workerLog := logger.With().Str("component", "ChannelAudit").Logger()
	return &ChannelAuditWorker{
		oracle:   oracle,
		channels: channels,
		selfID:   selfID,
		interval: interval,
		log:      &workerLog,
	}
}

// Start runs the audit loop until ctx is canceled. The first audit runs
// immediately so the gauge is populated at startup.
func (w *ChannelAuditWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("channel audit started")
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("channel audit stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ChannelAuditWorker) runOnce(ctx context.Context) {
	for _, ch := range w.channels {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		status, err := w.oracle.ChatMemberStatus(probeCtx, ch.ID, w.selfID)
		cancel()

		if err != nil {
			metrics.SetChannelReachable(ch.ID, false)
			w.log.Warn().Err(err).Str("channel", ch.ID).Msg("channel unreachable")
			continue
		}
		reachable := status.Satisfies()
		metrics.SetChannelReachable(ch.ID, reachable)
		if !reachable {
			w.log.Warn().Str("channel", ch.ID).Str("status", string(status)).
				Msg("bot is no longer a member of required channel")
		}
	}
}
