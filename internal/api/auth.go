package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

// Request headers carrying the caller.
const (
	HeaderUser     = "X-User"
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-Username"
)

var ErrAdminRequired = errors.New("permission denied: role management requires the C-level role")

// caller is the authenticated identity of one request.
type caller struct {
	table.StaticAuth
	Username string
}

// authenticate builds the caller from the request headers. A stored user
// object in X-User wins over a bare X-User-ID. Role lookup failures leave the
// caller without roles.
func (s *Server) authenticate(r *http.Request) caller {
	c := caller{Username: strings.TrimSpace(r.Header.Get(HeaderUsername))}

	if raw := r.Header.Get(HeaderUser); raw != "" {
		c.StaticAuth = table.ParseUser(raw)
		if c.UserID == "" {
			c.UserID = strings.TrimSpace(r.Header.Get(HeaderUserID))
		}
		return c
	}

	c.UserID = strings.TrimSpace(r.Header.Get(HeaderUserID))
	c.Roles = table.RoleSet{}
	if c.UserID == "" || s.roles == nil {
		return c
	}
	set, err := s.roles.RolesForUser(r.Context(), c.UserID)
	if err != nil {
		logger.Log.Warnf("[Auth] Failed to resolve roles for user %s: %v", c.UserID, err)
		return c
	}
	c.Roles = set
	return c
}

// sessionAuth is the AuthContext a page session hands to its table view.
// Every request refreshes it so role changes apply to open sessions.
type sessionAuth struct {
	mu   sync.RWMutex
	auth table.StaticAuth
}

func (a *sessionAuth) set(auth table.StaticAuth) {
	a.mu.Lock()
	a.auth = auth
	a.mu.Unlock()
}

func (a *sessionAuth) CurrentUserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.auth.CurrentUserID()
}

func (a *sessionAuth) CurrentUserRoles() table.RoleSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.auth.CurrentUserRoles()
}
