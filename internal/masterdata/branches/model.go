package branches

import (
	"time"
)

// Branch is a showroom location. Cars and orders belong to a branch.
type Branch struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Label is the human name of the branch.
func (b Branch) Label() string {
	if b.Description != "" {
		return b.Description
	}
	return b.Code
}
