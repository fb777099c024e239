package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-gate-bot/internal/domain"
	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/repository"
)

var _ repository.CourseRepository = (*PostgresCourseRepo)(nil)

type PostgresCourseRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCourseRepo(pool *pgxpool.Pool) *PostgresCourseRepo {
	return &PostgresCourseRepo{pool: pool}
}

// uniqueViolation is the Postgres SQLSTATE for duplicate keys; the courses
// table carries a unique index on link.
const uniqueViolation = "23505"

func (r *PostgresCourseRepo) Save(ctx context.Context, qx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, link, category, added_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET title=$2, link=$3, category=$4;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	if _, err = ex.Exec(ctx, q, c.ID, c.Title, c.Link, c.Category, c.AddedBy, c.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresCourseRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Course, error) {
	const q = `
SELECT id, title, link, category, added_by, created_at
  FROM courses WHERE id=$1;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	var c model.Course
	if err := ex.QueryRow(ctx, q, id).Scan(&c.ID, &c.Title, &c.Link, &c.Category, &c.AddedBy, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCourseRepo) List(ctx context.Context, qx repository.Tx, offset, limit int) ([]*model.Course, error) {
	const q = `
SELECT id, title, link, category, added_by, created_at
  FROM courses ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []*model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Link, &c.Category, &c.AddedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *PostgresCourseRepo) Delete(ctx context.Context, qx repository.Tx, id string) error {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM courses WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresCourseRepo) Count(ctx context.Context, qx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM courses;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}
