package service

import "strings"

// Roles recognised by the gradebook.
const (
	RoleAdmin      = "admin"
	RoleTeacher    = "teacher"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// ActivityActor is the authenticated caller performing an operation.
type ActivityActor struct {
	ID   uint
	Role string
}

func (a ActivityActor) role() string {
	return strings.ToLower(strings.TrimSpace(a.Role))
}

// IsAdmin reports whether the caller has administrative rights.
func (a ActivityActor) IsAdmin() bool {
	return a.role() == RoleAdmin
}

// IsInstructor reports whether the caller teaches courses.
func (a ActivityActor) IsInstructor() bool {
	role := a.role()
	return role == RoleTeacher || role == RoleInstructor
}

// IsStudent reports whether the caller is a student.
func (a ActivityActor) IsStudent() bool {
	return a.role() == RoleStudent
}

// Owns reports whether the caller is the given owner or an admin.
func (a ActivityActor) Owns(ownerID uint) bool {
	return a.IsAdmin() || (a.ID != 0 && a.ID == ownerID)
}
