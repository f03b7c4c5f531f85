package table

import (
	"encoding/json"
	"sort"
	"strings"
)

// Role names that gate row actions.
const (
	RoleSalesRep = "Sales Representative"
	RoleCLevel   = "C-level"
)

// RoleSet is a normalized set of role names. Membership is case-insensitive.
type RoleSet map[string]struct{}

// NewRoleSet builds a set, trimming names and dropping blanks.
func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[strings.ToLower(n)] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (s RoleSet) Has(name string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names returns the sorted, lower-cased role names.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AuthContext supplies the current user to the action router.
type AuthContext interface {
	CurrentUserID() string
	CurrentUserRoles() RoleSet
}

// StaticAuth is a fixed AuthContext.
type StaticAuth struct {
	UserID string
	Roles  RoleSet
}

func (a StaticAuth) CurrentUserID() string { return a.UserID }

func (a StaticAuth) CurrentUserRoles() RoleSet {
	if a.Roles == nil {
		return RoleSet{}
	}
	return a.Roles
}

type storedUser struct {
	UserID    json.RawMessage `json:"UserID"`
	ID        json.RawMessage `json:"id"`
	Roles     []string        `json:"roles"`
	RoleNames string          `json:"RoleNames"`
}

// ParseUser normalizes the JSON user object kept by the browser. Both the
// "roles" array and the comma separated "RoleNames" string are accepted and
// merged. Corrupt input yields an empty role set, hiding privileged actions.
func ParseUser(raw string) StaticAuth {
	var u storedUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return StaticAuth{Roles: RoleSet{}}
	}

	names := append([]string{}, u.Roles...)
	if u.RoleNames != "" {
		names = append(names, strings.Split(u.RoleNames, ",")...)
	}

	id := rawID(u.UserID)
	if id == "" {
		id = rawID(u.ID)
	}
	return StaticAuth{UserID: id, Roles: NewRoleSet(names...)}
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
