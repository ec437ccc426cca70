// Package guard redirects clients that lack a session or the right role.
package guard

import (
	"log/slog"
	"slices"

	"BizDesk/internal/route"
	"BizDesk/internal/session"
)

// SessionReader is the part of the session a guard inspects
type SessionReader interface {
	GetToken() (string, error)
	GetUser() (*session.User, error)
}

// Guard checks the session before protected actions run
type Guard struct {
	store            SessionReader
	nav              route.Navigator
	loginPath        string
	unauthorizedPath string
	logger           *slog.Logger
}

// New creates a guard. Empty paths fall back to the fixed entry points.
func New(store SessionReader, nav route.Navigator, loginPath, unauthorizedPath string, logger *slog.Logger) *Guard {
	if loginPath == "" {
		loginPath = route.Login
	}
	if unauthorizedPath == "" {
		unauthorizedPath = route.Unauthorized
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		store:            store,
		nav:              nav,
		loginPath:        loginPath,
		unauthorizedPath: unauthorizedPath,
		logger:           logger,
	}
}

// CheckAuth reports whether a token is present. Without one, and unless the
// client is already at the login entry point, it navigates there.
func (g *Guard) CheckAuth(current string) bool {
	token, err := g.store.GetToken()
	if err != nil {
		g.logger.Error("failed to read token", "error", err)
	}
	if token != "" {
		return true
	}
	if current == g.loginPath {
		return true
	}
	g.nav.Navigate(g.loginPath)
	return false
}

// CheckRole reports whether the cached profile has one of the allowed roles.
// A missing or malformed profile counts as not allowed.
func (g *Guard) CheckRole(allowed ...string) bool {
	user, err := g.store.GetUser()
	if err != nil {
		g.logger.Warn("unreadable user profile", "error", err)
	}
	if user == nil || !slices.Contains(allowed, user.Role) {
		g.nav.Navigate(g.unauthorizedPath)
		return false
	}
	return true
}
