package auth

import (
	"net/http"
	"time"

	"github.com/formloom/formloom/internal/apperr"
	"github.com/formloom/formloom/internal/httpx"
)

// Require validates the session cookies and binds the workspace principal
// into the request context. Requests without a valid session are rejected
// with 401 before reaching any private handler.
func Require(repo Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := r.Cookie(cookieAuthToken)
			if err != nil || token.Value == "" {
				httpx.Error(w, apperr.Authentication("missing session"))
				return
			}

			session, err := repo.FindSession(r.Context(), token.Value)
			if err != nil {
				if IsNotFound(err) {
					httpx.Error(w, apperr.Authentication("invalid session"))
					return
				}
				httpx.Error(w, apperr.Internal("lookup session", err))
				return
			}
			if time.Now().After(session.ExpiresAt) {
				httpx.Error(w, apperr.Authentication("session expired"))
				return
			}

			// The user-id cookie must agree with the session record;
			// a mismatch means tampered cookies.
			if userID, err := r.Cookie(cookieUserID); err != nil || userID.Value != session.UserID {
				httpx.Error(w, apperr.Authentication("invalid session"))
				return
			}

			principal := Principal{UserID: session.UserID, WorkspaceID: session.WorkspaceID}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
