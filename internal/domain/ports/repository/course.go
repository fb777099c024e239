package repository

import (
	"context"

	"telegram-gate-bot/internal/domain/model"
)

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
	// List returns courses newest first.
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Course, error)
	Delete(ctx context.Context, tx Tx, id string) error
	Count(ctx context.Context, tx Tx) (int, error)
}
