package models

import "strings"

// Group names as returned by the API in the user's group list.
const (
	GroupStudent     = "ALUNO"
	GroupProfessor   = "PROFESSOR"
	GroupCoordinator = "CCA"
)

// User is the authenticated account returned by GET /me/.
type User struct {
	ID              int      `json:"id"`
	Email           string   `json:"email"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Groups          []string `json:"groups"`
	ProfileComplete bool     `json:"perfilCompleto"`
}

// FullName joins first and last names.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasGroup reports membership in group, ignoring case.
func (u *User) HasGroup(group string) bool {
	if u == nil {
		return false
	}
	for _, g := range u.Groups {
		if strings.EqualFold(g, group) {
			return true
		}
	}
	return false
}

// HasAnyGroup reports whether the user belongs to at least one of groups.
func (u *User) HasAnyGroup(groups ...string) bool {
	for _, g := range groups {
		if u.HasGroup(g) {
			return true
		}
	}
	return false
}

// IsStudent reports membership in the student group.
func (u *User) IsStudent() bool { return u.HasGroup(GroupStudent) }

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
