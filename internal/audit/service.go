// Package audit exposes the admin change log.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// ErrReadOnly is returned by every write on the audit log.
var ErrReadOnly = errors.New("audit log is read-only")

const maxPageSize = 200

// RepositoryPort reads stored entries.
type RepositoryPort interface {
	List(ctx context.Context, q shared.ListQuery) ([]Entry, int, error)
	Get(ctx context.Context, id int64) (Entry, error)
}

// Service reads the audit log.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns one page of entries. Pages are capped at 200 rows.
func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]Entry, int, error) {
	if s.repo == nil {
		return nil, 0, fmt.Errorf("audit: repository not configured")
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	return s.repo.List(ctx, q)
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	if s.repo == nil {
		return Entry{}, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.Get(ctx, id)
}
