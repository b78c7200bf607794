package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/httpx"
)

const sessionTTL = 7 * 24 * time.Hour

const (
	cookieAuthToken   = "auth-token"
	cookieUserID      = "user-id"
	cookieWorkspaceID = "workspace-id"
)

// Handler exposes the signup and login endpoints.
type Handler struct {
	repo         Repository
	secureCookie bool
	log          *zap.Logger
}

// NewHandler creates an auth Handler. secureCookie marks session cookies
// Secure, which production deployments should enable.
func NewHandler(repo Repository, secureCookie bool, log *zap.Logger) *Handler {
	return &Handler{repo: repo, secureCookie: secureCookie, log: log}
}

// Mount registers the auth routes under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/auth"
	}

	router.Route(path, func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
	})
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload signupRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.Error(w, apperr.Validation(err.Error()))
		return
	}

	name := strings.TrimSpace(payload.Name)
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	var violations []string
	if name == "" {
		violations = append(violations, "name is required")
	}
	if email == "" {
		violations = append(violations, "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		violations = append(violations, "email is invalid")
	}
	if len(payload.Password) < 8 {
		violations = append(violations, "password must be at least 8 characters")
	}
	if len(violations) > 0 {
		httpx.Error(w, apperr.Validation("invalid signup payload", violations...))
		return
	}

	if _, err := h.repo.FindUserByEmail(r.Context(), email); err == nil {
		httpx.Error(w, apperr.Validation("email is already registered"))
		return
	} else if !IsNotFound(err) {
		httpx.Error(w, apperr.Internal("lookup account", err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.Error(w, apperr.Internal("hash password", err))
		return
	}

	account := &User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := h.repo.CreateUser(r.Context(), account); err != nil {
		httpx.Error(w, apperr.Internal("create account", err))
		return
	}

	workspace := &Workspace{Name: name + "'s Workspace", OwnerID: account.ID}
	if err := h.repo.CreateWorkspace(r.Context(), workspace); err != nil {
		httpx.Error(w, apperr.Internal("create workspace", err))
		return
	}

	session, err := h.openSession(r, account.ID, workspace.ID)
	if err != nil {
		httpx.Error(w, apperr.Internal("create session", err))
		return
	}
	h.setSessionCookies(w, session)

	h.log.Info("account created", zap.String("userId", account.ID), zap.String("workspaceId", workspace.ID))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user":      account.ToDTO(),
		"workspace": workspace,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.Error(w, apperr.Validation(err.Error()))
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || payload.Password == "" {
		httpx.Error(w, apperr.Validation("email and password are required"))
		return
	}

	account, err := h.repo.FindUserByEmail(r.Context(), email)
	if err != nil {
		if IsNotFound(err) {
			httpx.Error(w, apperr.Authentication("invalid email or password"))
			return
		}
		httpx.Error(w, apperr.Internal("lookup account", err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(payload.Password)) != nil {
		httpx.Error(w, apperr.Authentication("invalid email or password"))
		return
	}

	workspace, err := h.repo.FindWorkspaceByOwner(r.Context(), account.ID)
	if err != nil {
		httpx.Error(w, apperr.Internal("lookup workspace", err))
		return
	}

	session, err := h.openSession(r, account.ID, workspace.ID)
	if err != nil {
		httpx.Error(w, apperr.Internal("create session", err))
		return
	}
	h.setSessionCookies(w, session)

	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":      account.ToDTO(),
		"workspace": workspace,
	})
}

func (h *Handler) openSession(r *http.Request, userID, workspaceID string) (*Session, error) {
	session := &Session{
		UserID:      userID,
		WorkspaceID: workspaceID,
		ExpiresAt:   time.Now().Add(sessionTTL),
	}
	if err := h.repo.CreateSession(r.Context(), session); err != nil {
		return nil, err
	}
	return session, nil
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, session *Session) {
	for name, value := range map[string]string{
		cookieAuthToken:   session.Token,
		cookieUserID:      session.UserID,
		cookieWorkspaceID: session.WorkspaceID,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
