package access

import (
	"context"
	"strings"
)

// Role is the caller's organisational role as asserted by the upstream gateway.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleExecutive   Role = "executive"
	RoleManager     Role = "manager"
	RoleUnderwriter Role = "underwriter"
	RoleEmployee    Role = "employee"
)

// ParseRole normalizes a role string. Unknown roles are kept verbatim and carry no privilege.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// User is the requesting user's access context. A nil *User is an anonymous caller.
type User struct {
	ID          string
	Role        Role
	Department  string
	AccessLevel int
}

// IsAdmin reports whether the user has unconditional access.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsManagerOrHigher reports whether the user holds a management role or access level 2+.
func (u *User) IsManagerOrHigher() bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case RoleAdmin, RoleExecutive, RoleManager:
		return true
	}
	return u.AccessLevel >= 2
}

// InDepartment compares the user's department case-insensitively.
func (u *User) InDepartment(dept string) bool {
	if u == nil {
		return false
	}
	ud := strings.TrimSpace(u.Department)
	return ud != "" && strings.EqualFold(ud, strings.TrimSpace(dept))
}

type userKey struct{}

// WithUser stores the caller in ctx. A nil user marks the request anonymous.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the caller stored by WithUser, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}
