package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memoryRepo struct {
	mu         sync.Mutex
	users      map[string]*User
	workspaces map[string]*Workspace
	sessions   map[string]*Session
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:      make(map[string]*User),
		workspaces: make(map[string]*Workspace),
		sessions:   make(map[string]*Session),
	}
}

func (r *memoryRepo) CreateUser(_ context.Context, entity *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	stored := *entity
	r.users[entity.ID] = &stored
	return nil
}

func (r *memoryRepo) FindUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entity := range r.users {
		if entity.Email == email {
			found := *entity
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRepo) CreateWorkspace(_ context.Context, entity *Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	stored := *entity
	r.workspaces[entity.ID] = &stored
	return nil
}

func (r *memoryRepo) FindWorkspaceByOwner(_ context.Context, ownerID string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entity := range r.workspaces {
		if entity.OwnerID == ownerID {
			found := *entity
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRepo) CreateSession(_ context.Context, entity *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.Token == "" {
		entity.Token = uuid.NewString()
	}
	stored := *entity
	r.sessions[entity.Token] = &stored
	return nil
}

func (r *memoryRepo) FindSession(_ context.Context, token string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity, ok := r.sessions[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *entity
	return &found, nil
}

type testEnvelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
	Details []string       `json:"details"`
}

func newAuthRouter(repo Repository) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(repo, false, zap.NewNop()).Mount(router, "/auth")
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func TestSignup(t *testing.T) {
	repo := newMemoryRepo()
	router := newAuthRouter(repo)

	rec, env := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "correct horse",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	user := env.Data["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")

	workspace := env.Data["workspace"].(map[string]any)
	assert.Equal(t, "Alice's Workspace", workspace["name"])

	token := cookieValue(rec, "auth-token")
	require.NotEmpty(t, token)
	session, err := repo.FindSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, cookieValue(rec, "user-id"), session.UserID)
	assert.Equal(t, cookieValue(rec, "workspace-id"), session.WorkspaceID)
}

func TestSignupCollectsViolations(t *testing.T) {
	router := newAuthRouter(newMemoryRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"name":     "",
		"email":    "not-an-email",
		"password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Details, "name is required")
	assert.Contains(t, env.Details, "email is invalid")
	assert.Contains(t, env.Details, "password must be at least 8 characters")
}

func TestSignupDuplicateEmail(t *testing.T) {
	router := newAuthRouter(newMemoryRepo())

	payload := map[string]any{"name": "Alice", "email": "a@example.com", "password": "long enough"}
	doJSON(t, router, http.MethodPost, "/auth/signup", payload)
	rec, env := doJSON(t, router, http.MethodPost, "/auth/signup", payload)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "already registered")
}

func TestLogin(t *testing.T) {
	router := newAuthRouter(newMemoryRepo())

	doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"name": "Alice", "email": "a@example.com", "password": "long enough",
	})

	rec, env := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email": "A@Example.com", "password": "long enough",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, cookieValue(rec, "auth-token"))
}

func TestLoginWrongPassword(t *testing.T) {
	router := newAuthRouter(newMemoryRepo())

	doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"name": "Alice", "email": "a@example.com", "password": "long enough",
	})

	rec, env := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email": "a@example.com", "password": "wrong password",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, env.Error, "invalid email or password")
}

func TestLoginUnknownEmail(t *testing.T) {
	router := newAuthRouter(newMemoryRepo())

	rec, _ := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email": "nobody@example.com", "password": "whatever!",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func protectedRouter(repo Repository) (*chi.Mux, *Principal) {
	var seen Principal
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(Require(repo))
		r.Get("/private", func(w http.ResponseWriter, req *http.Request) {
			seen, _ = PrincipalFrom(req.Context())
			w.WriteHeader(http.StatusOK)
		})
	})
	return router, &seen
}

func TestRequireMissingCookie(t *testing.T) {
	router, _ := protectedRouter(newMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireValidSession(t *testing.T) {
	repo := newMemoryRepo()
	session := &Session{UserID: "user-1", WorkspaceID: "ws-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateSession(context.Background(), session))

	router, seen := protectedRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: session.Token})
	req.AddCookie(&http.Cookie{Name: "user-id", Value: "user-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, "ws-1", seen.WorkspaceID)
}

func TestRequireExpiredSession(t *testing.T) {
	repo := newMemoryRepo()
	session := &Session{UserID: "user-1", WorkspaceID: "ws-1", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, repo.CreateSession(context.Background(), session))

	router, _ := protectedRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: session.Token})
	req.AddCookie(&http.Cookie{Name: "user-id", Value: "user-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserCookieMismatch(t *testing.T) {
	repo := newMemoryRepo()
	session := &Session{UserID: "user-1", WorkspaceID: "ws-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateSession(context.Background(), session))

	router, _ := protectedRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: session.Token})
	req.AddCookie(&http.Cookie{Name: "user-id", Value: "someone-else"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorize(t *testing.T) {
	assert.True(t, Authorize("ws-1", "ws-1"))
	assert.False(t, Authorize("ws-1", "ws-2"))
	assert.False(t, Authorize("", ""))
}
