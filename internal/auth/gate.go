package auth

import "context"

type contextKey string

const principalKey contextKey = "auth.principal"

// Principal identifies the authenticated caller for the current request.
type Principal struct {
	UserID      string
	WorkspaceID string
}

// WithPrincipal binds the principal into the request context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the principal set by the session middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Authorize is the access gate: a pure equality check binding the caller's
// workspace to the resource's owning workspace. Public operations never
// call it.
func Authorize(principalWorkspaceID, resourceWorkspaceID string) bool {
	return principalWorkspaceID != "" && principalWorkspaceID == resourceWorkspaceID
}
