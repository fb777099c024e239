package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/usecase"
)

// GateResult is the outcome of one pass through the gate flow. The Telegram
// adapter renders it; the facade never formats chat text for the gate so the
// verification/issuance logic stays independent of message cosmetics.
type GateResult struct {
	Granted bool
	Token   model.AccessToken
	Missing []model.ChannelRequirement
}

// BotFacade composes use cases into high-level bot commands.
type BotFacade struct {
	UserUC   usecase.UserUseCase
	AccessUC usecase.AccessUseCase
	Issuer   usecase.TokenIssuer
	CourseUC usecase.CourseUseCase
	FormUC   usecase.CourseFormUseCase
	StatsUC  usecase.StatsUseCase
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	accessUC usecase.AccessUseCase,
	issuer usecase.TokenIssuer,
	courseUC usecase.CourseUseCase,
	formUC usecase.CourseFormUseCase,
	statsUC usecase.StatsUseCase,
) *BotFacade {
	return &BotFacade{
		UserUC:   userUC,
		AccessUC: accessUC,
		Issuer:   issuer,
		CourseUC: courseUC,
		FormUC:   formUC,
		StatsUC:  statsUC,
	}
}

// HandleStart registers (or refreshes) the user and runs the gate once.
// A user already in every channel gets a token straight away.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username string) (GateResult, error) {
	if b.UserUC == nil || b.AccessUC == nil || b.Issuer == nil {
		return GateResult{}, fmt.Errorf("gate usecases not available")
	}
	if _, err := b.UserUC.RegisterOrFetch(ctx, tgID, username); err != nil {
		return GateResult{}, fmt.Errorf("register/fetch user: %w", err)
	}
	return b.runGate(ctx, tgID)
}

// HandleJoinCheck is the explicit user-initiated retry. It re-checks live
// membership; a still-failing result loops the flow back to the join prompt
// and must not issue a token.
func (b *BotFacade) HandleJoinCheck(ctx context.Context, tgID int64) (GateResult, error) {
	if b.AccessUC == nil || b.Issuer == nil {
		return GateResult{}, fmt.Errorf("gate usecases not available")
	}
	return b.runGate(ctx, tgID)
}

func (b *BotFacade) runGate(ctx context.Context, tgID int64) (GateResult, error) {
	res := b.AccessUC.Verify(ctx, tgID)
	if !res.AllJoined {
		return GateResult{Granted: false, Missing: res.Missing}, nil
	}
	tok, err := b.Issuer.Issue(time.Now())
	if err != nil {
		return GateResult{}, fmt.Errorf("issue token: %w", err)
	}
	return GateResult{Granted: true, Token: tok}, nil
}

// HandleStats builds the admin-facing formatted stats string.
func (b *BotFacade) HandleStats(ctx context.Context) (string, error) {
	if b.StatsUC == nil {
		return "", fmt.Errorf("stats usecase not available")
	}
	st, err := b.StatsUC.Snapshot(ctx, 30*24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("stats snapshot: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("📊 System Statistics:\n\n")
	sb.WriteString(fmt.Sprintf("👥 Users: %d\n", st.TotalUsers))
	sb.WriteString(fmt.Sprintf("💤 Inactive (30d): %d\n", st.InactiveUsers))
	sb.WriteString(fmt.Sprintf("📚 Courses: %d\n", st.TotalCourses))
	return sb.String(), nil
}
