package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain"
	"telegram-gate-bot/internal/domain/ports/repository"
	"telegram-gate-bot/internal/infra/logging"
)

// Compile-time check
var _ CourseFormUseCase = (*courseFormUC)(nil)

// CourseFormUseCase drives the admin course-entry conversation as an
// explicit state machine keyed by Telegram ID. Each step accepts only input
// matching its expected shape; anything else re-prompts without advancing.
type CourseFormUseCase interface {
	Start(ctx context.Context, tgID int64) (string, error)
	// Handle consumes one admin message. done reports that the draft was
	// committed as a course; ErrNoDraft means no form is in progress.
	Handle(ctx context.Context, tgID int64, input string) (reply string, done bool, err error)
	Cancel(ctx context.Context, tgID int64) error
	InProgress(ctx context.Context, tgID int64) (bool, error)
}

const (
	promptTitle    = "📝 Send the course title."
	promptLink     = "🔗 Now send the course link (must start with http:// or https://)."
	promptCategory = "🏷 Finally, send a category, or \"-\" to skip."
	rejectTitle    = "That doesn't look like a title. Send a short text line."
	rejectLink     = "That doesn't look like a link. Send a URL starting with http:// or https://."
)

type courseFormUC struct {
	drafts  repository.CourseDraftStateRepository
	courses CourseUseCase
	log     *zerolog.Logger
}

func NewCourseFormUseCase(drafts repository.CourseDraftStateRepository, courses CourseUseCase, logger *zerolog.Logger) *courseFormUC {
	return &courseFormUC{drafts: drafts, courses: courses, log: logger}
}

func (f *courseFormUC) Start(ctx context.Context, tgID int64) (string, error) {
	defer logging.TraceDuration(f.log, "CourseFormUC.Start")()
	state := &repository.CourseDraftState{Step: repository.StepAwaitTitle}
	if err := f.drafts.SetState(ctx, tgID, state); err != nil {
		return "", err
	}
	return promptTitle, nil
}

func (f *courseFormUC) Handle(ctx context.Context, tgID int64, input string) (string, bool, error) {
	defer logging.TraceDuration(f.log, "CourseFormUC.Handle")()

	state, err := f.drafts.GetState(ctx, tgID)
	if err != nil {
		return "", false, err
	}
	if state == nil {
		return "", false, domain.ErrNoDraft
	}

	input = strings.TrimSpace(input)

	switch state.Step {
	case repository.StepAwaitTitle:
		if input == "" || strings.ContainsRune(input, '\n') || len(input) > 200 {
			return rejectTitle, false, nil
		}
		state.Title = input
		state.Step = repository.StepAwaitLink
		if err := f.drafts.SetState(ctx, tgID, state); err != nil {
			return "", false, err
		}
		return promptLink, false, nil

	case repository.StepAwaitLink:
		if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
			return rejectLink, false, nil
		}
		state.Link = input
		state.Step = repository.StepAwaitCategory
		if err := f.drafts.SetState(ctx, tgID, state); err != nil {
			return "", false, err
		}
		return promptCategory, false, nil

	case repository.StepAwaitCategory:
		if input == "-" {
			input = ""
		}
		state.Category = input
		course, err := f.courses.Add(ctx, state.Title, state.Link, state.Category, tgID)
		if err != nil {
			// Leave the draft in place so the admin can resend the category
			// after fixing the conflict (e.g. delete the duplicate first).
			if errors.Is(err, domain.ErrAlreadyExists) {
				return "A course with that link already exists. /cancel to discard the draft.", false, nil
			}
			return "", false, err
		}
		if err := f.drafts.ClearState(ctx, tgID); err != nil {
			f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear course draft state")
		}
		return "✅ Course saved: " + course.Title + " (id " + course.ID + ")", true, nil

	default:
		// Unknown step in stored state: drop it rather than crash the flow.
		_ = f.drafts.ClearState(ctx, tgID)
		return "", false, domain.ErrNoDraft
	}
}

func (f *courseFormUC) Cancel(ctx context.Context, tgID int64) error {
	defer logging.TraceDuration(f.log, "CourseFormUC.Cancel")()
	return f.drafts.ClearState(ctx, tgID)
}

func (f *courseFormUC) InProgress(ctx context.Context, tgID int64) (bool, error) {
	state, err := f.drafts.GetState(ctx, tgID)
	if err != nil {
		return false, err
	}
	return state != nil, nil
}
