package handler_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/config"
	"github.com/iliyamo/graph-user-auth/internal/handler"
	"github.com/iliyamo/graph-user-auth/internal/model"
	"github.com/iliyamo/graph-user-auth/internal/router"
	"github.com/iliyamo/graph-user-auth/internal/utils"
)

// memStore is an in-memory stand-in for both repository interfaces, faithful
// to the graph store's semantics: hashed session ids, lazy expiry sweep on
// read, cascade delete of sessions with their user.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User    // by id
	sessions map[string]*model.Session // by session id
	seq      int
	now      func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
		now:      time.Now,
	}
}

// ----- UserStore -----

func (m *memStore) Create(_ context.Context, u model.User, password string, cost int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, apperr.ErrUnprocessable
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, apperr.Storage(apperr.OpCreateUser, err)
	}
	m.seq++
	u.ID = fmt.Sprintf("user-%d", m.seq)
	u.PasswordHash = hash
	m.users[u.ID] = &u
	cp := u
	return &cp, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memStore) Update(_ context.Context, id string, updates model.UserUpdates, cost int) (*model.User, error) {
	if updates.Empty() {
		return nil, apperr.ErrUnprocessable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrUnprocessable
	}
	if updates.Email != nil {
		u.Email = *updates.Email
	}
	if updates.Auth != nil {
		u.Auth = *updates.Auth
	}
	if updates.FirstName != nil {
		u.FirstName = *updates.FirstName
	}
	if updates.SecondName != nil {
		u.SecondName = *updates.SecondName
	}
	if updates.LastName != nil {
		u.LastName = *updates.LastName
	}
	if updates.Password != nil {
		hash, err := utils.HashPassword(*updates.Password, cost)
		if err != nil {
			return nil, apperr.Storage(apperr.OpUpdateUser, err)
		}
		u.PasswordHash = hash
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrUnprocessable
	}
	delete(m.users, id)
	for sid, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, sid)
		}
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

// ----- SessionStore -----

func (m *memStore) CreateSession(ctx context.Context, token, email, host, userAgent string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owner *model.User
	for _, u := range m.users {
		if u.Email == email {
			owner = u
			break
		}
	}
	if owner == nil {
		return nil, apperr.ErrNotFound
	}
	s := &model.Session{
		ID:        auth.HashToken(token),
		UserID:    owner.ID,
		ExpiresAt: m.now().UTC().AddDate(0, 0, 1),
		Host:      host,
		UserAgent: userAgent,
	}
	m.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *memStore) FindByToken(_ context.Context, token string) (*model.Session, *model.User, error) {
	if token == "" {
		return nil, nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[auth.HashToken(token)]
	if !ok {
		return nil, nil, nil
	}
	if s.Expired(m.now().UTC()) {
		delete(m.sessions, s.ID)
		return nil, nil, nil
	}
	u, ok := m.users[s.UserID]
	if !ok {
		return nil, nil, nil
	}
	sc, uc := *s, *u
	return &sc, &uc, nil
}

func (m *memStore) Invalidate(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *memStore) InvalidateAll(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, s := range m.sessions {
		if u, ok := m.users[s.UserID]; ok && u.Email == email {
			delete(m.sessions, sid)
		}
	}
	return nil
}

func (m *memStore) FindActiveSessionID(_ context.Context, email, host, userAgent string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, s := range m.sessions {
		u, ok := m.users[s.UserID]
		if ok && u.Email == email && s.Host == host && s.UserAgent == userAgent {
			return sid, nil
		}
	}
	return "", nil
}

// sessionStore adapts memStore's CreateSession name to the interface.
type sessionStore struct{ *memStore }

func (s sessionStore) Create(ctx context.Context, token, email, host, userAgent string) (*model.Session, error) {
	return s.memStore.CreateSession(ctx, token, email, host, userAgent)
}

// ----- test server -----

func testConfig() config.Config {
	return config.Config{
		Env:         "dev",
		AuthRealm:   "user-directory",
		LoginURI:    "/login",
		LogoutURI:   "/logout",
		UserURI:     "/users",
		SessionDays: 1,
		CookieMaxMS: 3600000,
		BcryptCost:  4,
	}
}

type testServer struct {
	e     *echo.Echo
	store *memStore
	cfg   config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig()
	store := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	authHandler := handler.NewAuthHandler(cfg, store, sessionStore{store}, logger)
	userHandler := handler.NewUserHandler(cfg, store, logger)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, config.RateLimitConfig{}, nil)
	router.RegisterUsers(e, userHandler, sessionStore{store}, logger)

	return &testServer{e: e, store: store, cfg: cfg}
}

// seedUser creates a user directly in the store and returns it.
func (ts *testServer) seedUser(t *testing.T, email, role, password string) *model.User {
	t.Helper()
	u, err := ts.store.Create(context.Background(), model.User{Email: email, Auth: role}, password, 4)
	require.NoError(t, err)
	return u
}

// loginAs performs the login flow and returns the token cookie.
func (ts *testServer) loginAs(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := ts.do(http.MethodPost, "/login",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("login response carried no token cookie")
	return nil
}

// do runs one request through the router and returns the recorder.
func (ts *testServer) do(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set("User-Agent", "go-test-agent")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}
