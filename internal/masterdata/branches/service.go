package branches

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/showroom-admin/backoffice/internal/shared"
)

type Service struct {
	repo      Repository
	validator *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validator: shared.NewValidator()}
}

func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]Branch, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (Branch, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form BranchForm) (Branch, error) {
	if err := s.validate(ctx, 0, &form); err != nil {
		return Branch{}, err
	}
	branch, err := s.repo.Create(ctx, Branch{Code: form.Code, Description: form.Description})
	return branch, mapDuplicate(err)
}

func (s *Service) Update(ctx context.Context, id int64, form BranchForm) error {
	if err := s.validate(ctx, id, &form); err != nil {
		return err
	}
	return mapDuplicate(s.repo.Update(ctx, id, Branch{Code: form.Code, Description: form.Description}))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func mapDuplicate(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return shared.NewValidationError("code", duplicateCode)
	}
	return err
}
