package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// ErrUnknownKind is returned for kinds outside the orders table.
var ErrUnknownKind = errors.New("unknown order kind")

const invalidChoice = "Not a valid choice"

type Service struct {
	repo      Repository
	validator *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validator: shared.NewValidator()}
}

// List returns orders of kind; an empty kind lists every order.
func (s *Service) List(ctx context.Context, kind Kind, q shared.ListQuery) ([]OrderWithDetails, int, error) {
	return s.repo.List(ctx, kind, q)
}

// Get returns an order of kind; an empty kind matches any order.
func (s *Service) Get(ctx context.Context, kind Kind, id int64) (OrderWithDetails, error) {
	return s.repo.Get(ctx, kind, id)
}

// Create validates and stores a new order of kind.
func (s *Service) Create(ctx context.Context, kind Kind, form OrderForm) (int64, error) {
	order, err := s.validate(ctx, kind, 0, form)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return 0, mapReference(err)
	}
	return id, nil
}

// Update validates and replaces an order. kind must be the stored kind.
func (s *Service) Update(ctx context.Context, kind Kind, id int64, form OrderForm) error {
	order, err := s.validate(ctx, kind, id, form)
	if err != nil {
		return err
	}
	order.ID = id
	return mapReference(s.repo.Update(ctx, order))
}

// Delete removes an order of kind; an empty kind matches any order.
func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	return s.repo.Delete(ctx, kind, id)
}

func (s *Service) validate(ctx context.Context, kind Kind, id int64, form OrderForm) (Order, error) {
	if !kind.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	order := Order{
		Kind:            kind,
		OrderDate:       form.OrderDate,
		Source:          strings.TrimSpace(form.Source),
		CustomerName:    strings.TrimSpace(form.CustomerName),
		CustomerAddress: strings.TrimSpace(form.CustomerAddress),
		CustomerPhone:   strings.TrimSpace(form.CustomerPhone),
		UserID:          form.UserID,
		CarID:           form.CarID,
		QualifiedID:     form.QualifiedID,
		BranchID:        form.BranchID,
		ChannelOrderID:  strings.TrimSpace(form.ChannelOrderID),
		Event:           strings.TrimSpace(form.Event),
		VoucherCode:     strings.TrimSpace(form.VoucherCode),
		Bundling:        strings.TrimSpace(form.Bundling),
		AppointmentAt:   form.AppointmentAt,
		ReceivedAt:      form.ReceivedAt,
		UpdatedStageAt:  form.UpdatedStageAt,
		WalkinAt:        form.WalkinAt,
	}
	order.clearForeign()

	verr := &shared.ValidationError{}
	if err := shared.ValidateStruct(s.validator, form); err != nil {
		var fieldErrs *shared.ValidationError
		if !errors.As(err, &fieldErrs) {
			return Order{}, err
		}
		verr = fieldErrs
	}

	if pinned := kind.ChannelSource(); pinned != "" {
		switch {
		case order.Source == "":
			order.Source = pinned
		case !strings.EqualFold(order.Source, pinned):
			verr.Add("source", "Must be "+pinned)
		default:
			order.Source = pinned
		}
	}

	if order.QualifiedID != nil && *order.QualifiedID == id && id != 0 {
		verr.Add("qualified", "An order cannot be grouped under itself")
	}

	checks := []struct {
		ref Ref
		id  *int64
	}{
		{RefCar, &order.CarID},
		{RefUser, order.UserID},
		{RefBranch, order.BranchID},
		{RefQualified, order.QualifiedID},
	}
	for _, c := range checks {
		if c.id == nil || *c.id <= 0 {
			continue
		}
		if _, failed := verr.Fields[string(c.ref)]; failed {
			continue
		}
		ok, err := s.repo.Exists(ctx, c.ref, *c.id)
		if err != nil {
			return Order{}, fmt.Errorf("orders: check %s: %w", c.ref, err)
		}
		if !ok {
			verr.Add(string(c.ref), invalidChoice)
		}
	}

	if err := verr.OrNil(); err != nil {
		return Order{}, err
	}
	return order, nil
}

// mapReference turns a foreign key failure raced past validation into a
// field error.
func mapReference(err error) error {
	if !errors.Is(err, shared.ErrReferenced) {
		return err
	}
	constraint := db.ConstraintName(err)
	for _, ref := range []Ref{RefQualified, RefBranch, RefUser, RefCar} {
		if strings.Contains(constraint, string(ref)) {
			return shared.NewValidationError(string(ref), invalidChoice)
		}
	}
	return err
}
