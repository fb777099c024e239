//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain"
	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/adapter"
	"telegram-gate-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Transaction manager
// =============================

// MockTxManager runs the callback directly; unit tests don't need a real
// transaction boundary.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, opts, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Repositories
// =============================

// MockUserRepo is an in-memory UserRepository keyed by Telegram ID.
type MockUserRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.User

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[int64]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.TelegramID] = &cp
	return nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if m.FindByTelegramIDFunc != nil {
		return m.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *MockUserRepo) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.store {
		if u.LastActiveAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// MockCourseRepo is an in-memory CourseRepository enforcing the unique-link
// rule the real table carries.
type MockCourseRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Course

	SaveFunc func(ctx context.Context, tx repository.Tx, c *model.Course) error
}

var _ repository.CourseRepository = (*MockCourseRepo)(nil)

func NewMockCourseRepo() *MockCourseRepo {
	return &MockCourseRepo{store: make(map[string]*model.Course)}
}

func (m *MockCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.store {
		if existing.Link == c.Link && id != c.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *MockCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCourseRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*model.Course, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockCourseRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockCourseRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// MockDraftRepo is an in-memory CourseDraftStateRepository.
type MockDraftRepo struct {
	mu    sync.RWMutex
	store map[int64]*repository.CourseDraftState

	SetStateFunc func(ctx context.Context, tgID int64, state *repository.CourseDraftState) error
	GetStateFunc func(ctx context.Context, tgID int64) (*repository.CourseDraftState, error)
}

var _ repository.CourseDraftStateRepository = (*MockDraftRepo)(nil)

func NewMockDraftRepo() *MockDraftRepo {
	return &MockDraftRepo{store: make(map[int64]*repository.CourseDraftState)}
}

func (m *MockDraftRepo) SetState(ctx context.Context, tgID int64, state *repository.CourseDraftState) error {
	if m.SetStateFunc != nil {
		return m.SetStateFunc(ctx, tgID, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.store[tgID] = &cp
	return nil
}

func (m *MockDraftRepo) GetState(ctx context.Context, tgID int64) (*repository.CourseDraftState, error) {
	if m.GetStateFunc != nil {
		return m.GetStateFunc(ctx, tgID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[tgID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockDraftRepo) ClearState(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, tgID)
	return nil
}

// =============================
// Membership oracle
// =============================

// MockOracle reports a fixed status per channel; unknown channels default to
// member. Channels listed in Errs fail the lookup instead.
type MockOracle struct {
	mu       sync.Mutex
	Statuses map[string]model.MembershipStatus
	Errs     map[string]error
	Calls    []string // channel IDs in the order they were probed
}

var _ adapter.MembershipOracle = (*MockOracle)(nil)

func NewMockOracle() *MockOracle {
	return &MockOracle{
		Statuses: make(map[string]model.MembershipStatus),
		Errs:     make(map[string]error),
	}
}

func (m *MockOracle) ChatMemberStatus(ctx context.Context, channelID string, telegramID int64) (model.MembershipStatus, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, channelID)
	m.mu.Unlock()
	if err, ok := m.Errs[channelID]; ok {
		return "", err
	}
	if st, ok := m.Statuses[channelID]; ok {
		return st, nil
	}
	return model.StatusMember, nil
}
