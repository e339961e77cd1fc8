package roles

import "time"

// Role is a named permission group. Its name gates admin views.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleForm carries validated role input.
type RoleForm struct {
	Name        string `form:"name" validate:"required,max=80"`
	Description string `form:"description" validate:"max=255"`
}
