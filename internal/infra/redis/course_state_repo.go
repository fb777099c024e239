package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-gate-bot/internal/domain/ports/repository"
)

// Ensure the adapter implements the port interface.
var _ repository.CourseDraftStateRepository = (*CourseDraftStateRepo)(nil)

// CourseDraftStateRepo keeps admin course-entry drafts in Redis so an
// interrupted form survives a bot restart but expires on its own.
type CourseDraftStateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewCourseDraftStateRepo(client RedisClient, ttl time.Duration) *CourseDraftStateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CourseDraftStateRepo{client: client, ttl: ttl}
}

func (s *CourseDraftStateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("course_draft:%d", tgID)
}

func (s *CourseDraftStateRepo) SetState(ctx context.Context, tgID int64, state *repository.CourseDraftState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

func (s *CourseDraftStateRepo) GetState(ctx context.Context, tgID int64) (*repository.CourseDraftState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		if errors.Is(err, ErrNil) {
			return nil, nil
		}
		return nil, err
	}

	var state repository.CourseDraftState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *CourseDraftStateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
