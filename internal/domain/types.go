package domain

import "strings"

// Role of an authenticated staff member.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RolePlant      Role = "plant"
	RoleRA         Role = "ra"
	RoleUser       Role = "user"
)

// NormalizeRole lowercases and trims a raw role string.
func NormalizeRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// IsAdmin reports whether r may manage masters (cities, locations, vendors, transports).
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
