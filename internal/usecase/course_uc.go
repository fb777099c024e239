package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/repository"
	"telegram-gate-bot/internal/infra/logging"
	"telegram-gate-bot/internal/infra/metrics"
)

// Compile-time check
var _ CourseUseCase = (*courseUC)(nil)

// CourseUseCase maintains the gated-content catalog.
type CourseUseCase interface {
	Add(ctx context.Context, title, link, category string, addedBy int64) (*model.Course, error)
	Get(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context, offset, limit int) ([]*model.Course, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type courseUC struct {
	courses repository.CourseRepository
	log     *zerolog.Logger
}

func NewCourseUseCase(courses repository.CourseRepository, logger *zerolog.Logger) *courseUC {
	return &courseUC{courses: courses, log: logger}
}

func (c *courseUC) Add(ctx context.Context, title, link, category string, addedBy int64) (*model.Course, error) {
	defer logging.TraceDuration(c.log, "CourseUC.Add")()

	course, err := model.NewCourse("", title, link, category, addedBy)
	if err != nil {
		return nil, err
	}
	if err := c.courses.Save(ctx, repository.NoTX, course); err != nil {
		return nil, err
	}
	c.refreshGauge(ctx)
	c.log.Info().Str("course_id", course.ID).Str("title", course.Title).Msg("course added")
	return course, nil
}

func (c *courseUC) Get(ctx context.Context, id string) (*model.Course, error) {
	defer logging.TraceDuration(c.log, "CourseUC.Get")()
	return c.courses.FindByID(ctx, repository.NoTX, id)
}

func (c *courseUC) List(ctx context.Context, offset, limit int) ([]*model.Course, error) {
	defer logging.TraceDuration(c.log, "CourseUC.List")()
	if limit <= 0 {
		limit = 20
	}
	return c.courses.List(ctx, repository.NoTX, offset, limit)
}

func (c *courseUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(c.log, "CourseUC.Delete")()
	if err := c.courses.Delete(ctx, repository.NoTX, id); err != nil {
		return err
	}
	c.refreshGauge(ctx)
	c.log.Info().Str("course_id", id).Msg("course deleted")
	return nil
}

func (c *courseUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(c.log, "CourseUC.Count")()
	return c.courses.Count(ctx, repository.NoTX)
}

func (c *courseUC) refreshGauge(ctx context.Context) {
	if n, err := c.courses.Count(ctx, repository.NoTX); err == nil {
		metrics.SetCoursesTotal(n)
	}
}
