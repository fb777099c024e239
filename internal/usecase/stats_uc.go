package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain/ports/repository"
	"telegram-gate-bot/internal/infra/logging"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the admin-facing snapshot shown by /stats and the admin API.
type Stats struct {
	TotalUsers    int `json:"total_users"`
	InactiveUsers int `json:"inactive_users"`
	TotalCourses  int `json:"total_courses"`
}

type StatsUseCase interface {
	Snapshot(ctx context.Context, inactiveWindow time.Duration) (Stats, error)
}

type statsUC struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	log     *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, courses repository.CourseRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, courses: courses, log: logger}
}

func (s *statsUC) Snapshot(ctx context.Context, inactiveWindow time.Duration) (Stats, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Snapshot")()

	var st Stats
	var err error
	if st.TotalUsers, err = s.users.CountUsers(ctx, repository.NoTX); err != nil {
		return Stats{}, err
	}
	since := time.Now().Add(-inactiveWindow)
	if st.InactiveUsers, err = s.users.CountInactiveUsers(ctx, repository.NoTX, since); err != nil {
		return Stats{}, err
	}
	if st.TotalCourses, err = s.courses.Count(ctx, repository.NoTX); err != nil {
		return Stats{}, err
	}
	return st, nil
}
