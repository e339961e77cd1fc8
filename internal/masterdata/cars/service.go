package cars

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

func (s *Service) List(ctx context.Context, q shared.ListQuery) ([]Car, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (Car, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form CarForm) (int64, error) {
	car, err := s.validate(ctx, form)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, car)
	return id, mapReference(err)
}

func (s *Service) Update(ctx context.Context, id int64, form CarForm) error {
	car, err := s.validate(ctx, form)
	if err != nil {
		return err
	}
	car.ID = id
	return mapReference(s.repo.Update(ctx, car))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, form CarForm) (Car, error) {
	car := Car{
		Brand:        strings.TrimSpace(form.Brand),
		Model:        strings.TrimSpace(form.Model),
		Variant:      strings.TrimSpace(form.Variant),
		Fuel:         strings.TrimSpace(form.Fuel),
		Transmission: strings.TrimSpace(form.Transmission),
		PlateNo:      strings.ToUpper(strings.TrimSpace(form.PlateNo)),
		BranchID:     form.BranchID,
	}
	form.PlateNo = car.PlateNo
	if err := shared.ValidateStruct(s.validator, form); err != nil {
		return Car{}, err
	}
	ok, err := s.repo.BranchExists(ctx, car.BranchID)
	if err != nil {
		return Car{}, fmt.Errorf("cars: check branch: %w", err)
	}
	if !ok {
		return Car{}, shared.NewValidationError("branch", "Not a valid choice")
	}
	return car, nil
}

// mapReference turns a branch foreign key failure raced past validation
// into a field error.
func mapReference(err error) error {
	if errors.Is(err, shared.ErrReferenced) {
		return shared.NewValidationError("branch", "Not a valid choice")
	}
	return err
}
