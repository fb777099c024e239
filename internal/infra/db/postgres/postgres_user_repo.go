package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-gate-bot/internal/domain"
	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, qx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, telegram_id, username, registered_at, last_active_at, is_admin)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, username=$3, last_active_at=$5, is_admin=$6;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, u.ID, u.TelegramID, u.Username, u.RegisteredAt, u.LastActiveAt, u.IsAdmin)
	return err
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, qx repository.Tx, tgID int64) (*model.User, error) {
	const q = `
SELECT id, telegram_id, username, registered_at, last_active_at, is_admin
  FROM users WHERE telegram_id=$1;
`
	return r.scanOne(ctx, qx, q, tgID)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, telegram_id, username, registered_at, last_active_at, is_admin
  FROM users WHERE id=$1;
`
	return r.scanOne(ctx, qx, q, id)
}

func (r *PostgresUserRepo) scanOne(ctx context.Context, qx repository.Tx, q string, arg interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := ex.QueryRow(ctx, q, arg).Scan(&u.ID, &u.TelegramID, &u.Username, &u.RegisteredAt, &u.LastActiveAt, &u.IsAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, qx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) CountInactiveUsers(ctx context.Context, qx repository.Tx, since time.Time) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_active_at < $1;`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count inactive: %w", err)
	}
	return n, nil
}
