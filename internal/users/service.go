package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, q shared.ListQuery) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, rec record) (int64, error)
	Update(ctx context.Context, rec record) error
	Delete(ctx context.Context, id int64) error
}

// Invalidator drops cached authorization data of a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

const (
	duplicateEmail   = "Email address is already registered"
	maxPasswordBytes = 72
	passwordTooLong  = "Must be at most 72 bytes"
)

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	principals Invalidator
	logger     *slog.Logger
	validate   *validator.Validate
	cost       int
}

// NewService builds Service instance. principals may be nil.
func NewService(repo RepositoryPort, principals Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		principals: principals,
		logger:     logger,
		validate:   shared.NewValidator(),
		cost:       bcrypt.DefaultCost,
	}
}

// List returns one page of users.
func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]User, int, error) {
	return s.repo.List(ctx, q)
}

// Get returns a user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the form, hashes the password and stores the user.
func (s *Service) Create(ctx context.Context, form UserForm) (int64, error) {
	err := s.check(ctx, 0, &form)
	if form.Password == "" {
		verr := &shared.ValidationError{}
		if err != nil && !errors.As(err, &verr) {
			return 0, err
		}
		verr.Add("password", "This field is required")
		return 0, verr
	}
	if err != nil {
		return 0, err
	}
	rec, err := s.record(form)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	return id, nil
}

// Update validates the form and replaces the user. Cached principals are
// invalidated so role changes apply on the next request.
func (s *Service) Update(ctx context.Context, id int64, form UserForm) error {
	if err := s.check(ctx, id, &form); err != nil {
		return err
	}
	rec, err := s.record(form)
	if err != nil {
		return err
	}
	rec.ID = id
	if err := s.repo.Update(ctx, rec); err != nil {
		return mapDuplicate(err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) check(ctx context.Context, id int64, form *UserForm) error {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	slices.Sort(form.RoleIDs)
	form.RoleIDs = slices.Compact(form.RoleIDs)
	if err := shared.ValidateStruct(s.validate, form); err != nil {
		return err
	}
	// bcrypt limits bytes while the validator counts runes.
	if len(form.Password) > maxPasswordBytes {
		return shared.NewValidationError("password", passwordTooLong)
	}
	taken, err := s.repo.EmailTaken(ctx, form.Email, id)
	if err != nil {
		return fmt.Errorf("users: check email: %w", err)
	}
	if taken {
		return shared.NewValidationError("email", duplicateEmail)
	}
	return nil
}

func (s *Service) record(form UserForm) (record, error) {
	rec := record{User: User{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Email:       form.Email,
		Active:      form.Active,
		ConfirmedAt: form.ConfirmedAt,
		RoleIDs:     form.RoleIDs,
	}}
	if form.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return record{}, shared.NewValidationError("password", passwordTooLong)
		}
		if err != nil {
			return record{}, fmt.Errorf("users: hash password: %w", err)
		}
		rec.PasswordHash = string(hash)
	}
	return rec, nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.principals == nil {
		return
	}
	if err := s.principals.Invalidate(ctx, id); err != nil {
		s.logger.Warn("invalidate principal", slog.Int64("user_id", id), slog.Any("error", err))
	}
}

func mapDuplicate(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return shared.NewValidationError("email", duplicateEmail)
	}
	return err
}
