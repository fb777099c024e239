//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain"
	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/repository"
	"telegram-gate-bot/internal/usecase"
)

// --- Mock Repositories (Ports) ---

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*model.Course
}

var _ repository.CourseRepository = (*mockCourseRepo)(nil)

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.courses {
		if existing.Link == c.Link && id != c.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *c
	m.courses[c.ID] = &cp
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCourseRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Course, 0, len(m.courses))
	for _, c := range m.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.courses), nil
}

type mockUserRepo struct {
	repository.UserRepository
	total    int
	inactive int
}

func (m *mockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return m.total, nil
}

func (m *mockUserRepo) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	return m.inactive, nil
}

// --- Fixture ---

const testAPIKey = "test-api-key"

func newTestServer(t *testing.T) (*Server, *mockCourseRepo) {
	t.Helper()
	logger := zerolog.Nop()
	courses := newMockCourseRepo()
	courseUC := usecase.NewCourseUseCase(courses, &logger)
	statsUC := usecase.NewStatsUseCase(&mockUserRepo{total: 7, inactive: 2}, courses, &logger)
	auth := NewAuthManager("test-jwt-secret", 30*time.Minute)
	return NewServer(courseUC, statsUC, auth, testAPIKey, &logger), courses
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"api_key": testAPIKey})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login returned no token: %v (%s)", err, rec.Body.String())
	}
	return resp.Token
}

func doJSON(handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestServer_Login(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	t.Run("should exchange the api key for a JWT", func(t *testing.T) {
		tok := login(t, handler)
		if tok == "" {
			t.Fatal("expected a token")
		}
	})

	t.Run("should reject a wrong api key", func(t *testing.T) {
		rec := doJSON(handler, http.MethodPost, "/api/v1/login", "", map[string]string{"api_key": "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestServer_AuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	t.Run("should reject requests without a token", func(t *testing.T) {
		rec := doJSON(handler, http.MethodGet, "/api/v1/stats", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should reject a garbage token", func(t *testing.T) {
		rec := doJSON(handler, http.MethodGet, "/api/v1/stats", "not-a-jwt", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should reject a token signed with a different secret", func(t *testing.T) {
		other := NewAuthManager("other-secret", time.Minute)
		tok, err := other.Mint()
		if err != nil {
			t.Fatalf("mint failed: %v", err)
		}
		rec := doJSON(handler, http.MethodGet, "/api/v1/stats", tok, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should pass a minted token through", func(t *testing.T) {
		tok := login(t, handler)
		rec := doJSON(handler, http.MethodGet, "/api/v1/stats", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var st usecase.Stats
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			t.Fatalf("bad stats payload: %v", err)
		}
		if st.TotalUsers != 7 || st.InactiveUsers != 2 {
			t.Errorf("unexpected stats: %+v", st)
		}
	})
}

func TestServer_CourseCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()
	tok := login(t, handler)

	t.Run("should create, fetch, list and delete a course", func(t *testing.T) {
		// Create
		rec := doJSON(handler, http.MethodPost, "/api/v1/courses/", tok, map[string]string{
			"title": "Go Fundamentals", "link": "https://example.com/go", "category": "Programming",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
			t.Fatalf("create returned no id: %v (%s)", err, rec.Body.String())
		}

		// Fetch
		rec = doJSON(handler, http.MethodGet, "/api/v1/courses/"+created.ID, tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get: expected 200, got %d", rec.Code)
		}

		// List
		rec = doJSON(handler, http.MethodGet, "/api/v1/courses/", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list: expected 200, got %d", rec.Code)
		}
		var list []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
			t.Fatalf("list: expected one course, got %s", rec.Body.String())
		}

		// Delete
		rec = doJSON(handler, http.MethodDelete, "/api/v1/courses/"+created.ID, tok, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete: expected 204, got %d", rec.Code)
		}
		rec = doJSON(handler, http.MethodGet, "/api/v1/courses/"+created.ID, tok, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("get after delete: expected 404, got %d", rec.Code)
		}
	})

	t.Run("should map validation and conflict errors to 400 and 409", func(t *testing.T) {
		rec := doJSON(handler, http.MethodPost, "/api/v1/courses/", tok, map[string]string{
			"title": "", "link": "https://example.com/x",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("blank title: expected 400, got %d", rec.Code)
		}

		payload := map[string]string{"title": "Dup", "link": "https://example.com/dup"}
		if rec = doJSON(handler, http.MethodPost, "/api/v1/courses/", tok, payload); rec.Code != http.StatusCreated {
			t.Fatalf("first create: expected 201, got %d", rec.Code)
		}
		if rec = doJSON(handler, http.MethodPost, "/api/v1/courses/", tok, payload); rec.Code != http.StatusConflict {
			t.Fatalf("duplicate link: expected 409, got %d", rec.Code)
		}
	})

	t.Run("should return 404 when deleting an unknown course", func(t *testing.T) {
		rec := doJSON(handler, http.MethodDelete, "/api/v1/courses/does-not-exist", tok, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	rec := doJSON(handler, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
