package users

import "time"

// User represents a back-office account.
type User struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	Active      bool
	ConfirmedAt *time.Time
	RoleIDs     []int64
	RoleNames   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the full name, falling back to the email.
func (u User) DisplayName() string {
	if name := joinName(u.FirstName, u.LastName); name != "" {
		return name
	}
	return u.Email
}

// UserForm carries validated user input. An empty Password keeps the
// stored hash on update.
type UserForm struct {
	FirstName   string     `form:"first_name" validate:"max=255"`
	LastName    string     `form:"last_name" validate:"max=255"`
	Email       string     `form:"email" validate:"required,email,max=255"`
	Password    string     `form:"password" validate:"omitempty,min=8,max=72"`
	Active      bool       `form:"active"`
	ConfirmedAt *time.Time `form:"confirmed_at"`
	RoleIDs     []int64    `form:"roles"`
}

// record is the persisted shape of a user write.
type record struct {
	User
	PasswordHash string
}
