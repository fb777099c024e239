package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/adapter"
	"telegram-gate-bot/internal/infra/logging"
	"telegram-gate-bot/internal/infra/metrics"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase verifies channel membership for the gate.
//
// Verify never returns an error: every lookup failure — oracle down, bot
// lacking rights on a channel, user unknown to Telegram — is folded into
// "not joined". The gate fails closed by rule, not by accident.
type AccessUseCase interface {
	Verify(ctx context.Context, tgID int64) model.VerificationResult
	Channels() []model.ChannelRequirement
}

type accessUC struct {
	channels []model.ChannelRequirement
	oracle   adapter.MembershipOracle
	log      *zerolog.Logger
}

func NewAccessUseCase(channels []model.ChannelRequirement, oracle adapter.MembershipOracle, logger *zerolog.Logger) *accessUC {
	return &accessUC{
		channels: channels,
		oracle:   oracle,
		log:      logger,
	}
}

// Channels returns the configured requirement list in order.
func (a *accessUC) Channels() []model.ChannelRequirement {
	out := make([]model.ChannelRequirement, len(a.channels))
	copy(out, a.channels)
	return out
}

// Verify checks every required channel with a single best-effort lookup
// each. The missing list keeps configured order; checks are not cached, so a
// retry always sees live membership.
func (a *accessUC) Verify(ctx context.Context, tgID int64) model.VerificationResult {
	defer logging.TraceDuration(a.log, "AccessUC.Verify")()

	var missing []model.ChannelRequirement
	for _, ch := range a.channels {
		status, err := a.oracle.ChatMemberStatus(ctx, ch.ID, tgID)
		if err != nil {
			a.log.Warn().Err(err).Str("channel", ch.ID).Int64("tg_id", tgID).
				Msg("membership lookup failed; counting as not joined")
			metrics.IncMembershipCheck(ch.ID, "error")
			missing = append(missing, ch)
			continue
		}
		if !status.Satisfies() {
			metrics.IncMembershipCheck(ch.ID, "missing")
			missing = append(missing, ch)
			continue
		}
		metrics.IncMembershipCheck(ch.ID, "joined")
	}

	res := model.VerificationResult{AllJoined: len(missing) == 0, Missing: missing}
	metrics.IncVerification(res.AllJoined)
	return res
}
