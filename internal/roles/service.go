package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, q shared.ListQuery) ([]Role, int, error)
	Get(ctx context.Context, id int64) (Role, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, role Role) (int64, error)
	Update(ctx context.Context, role Role) error
	Delete(ctx context.Context, id int64) error
	// HolderIDs lists the users assigned the role.
	HolderIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// Invalidator drops cached authorization data of a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Service handles role business logic.
type Service struct {
	repo       RepositoryPort
	principals Invalidator
	logger     *slog.Logger
	validate   *validator.Validate
}

// NewService builds Service instance. principals may be nil.
func NewService(repo RepositoryPort, principals Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, principals: principals, logger: logger, validate: shared.NewValidator()}
}

// List returns one page of roles.
func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]Role, int, error) {
	return s.repo.List(ctx, q)
}

// Get returns a role.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new role.
func (s *Service) Create(ctx context.Context, form RoleForm) (int64, error) {
	role, err := s.check(ctx, 0, form)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, role)
	if err != nil {
		return 0, duplicateName(err)
	}
	return id, nil
}

// Update validates and replaces a role. Holders of the role have their
// cached principals dropped so a rename applies on their next request.
func (s *Service) Update(ctx context.Context, id int64, form RoleForm) error {
	role, err := s.check(ctx, id, form)
	if err != nil {
		return err
	}
	role.ID = id
	if err := s.repo.Update(ctx, role); err != nil {
		return duplicateName(err)
	}
	holders, err := s.repo.HolderIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("roles: load holders: %w", err)
	}
	s.invalidate(ctx, holders)
	return nil
}

// Delete removes a role and drops the cached principals of its holders.
func (s *Service) Delete(ctx context.Context, id int64) error {
	// Assignments cascade with the role, so holders are read first.
	holders, err := s.repo.HolderIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("roles: load holders: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, holders)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userIDs []int64) {
	if s.principals == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.principals.Invalidate(ctx, id); err != nil {
			s.logger.Warn("invalidate principal", slog.Int64("user_id", id), slog.Any("error", err))
		}
	}
}

func (s *Service) check(ctx context.Context, id int64, form RoleForm) (Role, error) {
	form.Name = strings.ToLower(strings.TrimSpace(form.Name))
	form.Description = strings.TrimSpace(form.Description)
	if err := shared.ValidateStruct(s.validate, form); err != nil {
		return Role{}, err
	}
	taken, err := s.repo.NameTaken(ctx, form.Name, id)
	if err != nil {
		return Role{}, fmt.Errorf("roles: check name: %w", err)
	}
	if taken {
		return Role{}, shared.NewValidationError("name", "Role name already exists")
	}
	return Role{Name: form.Name, Description: form.Description}, nil
}

func duplicateName(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return shared.NewValidationError("name", "Role name already exists")
	}
	return err
}
