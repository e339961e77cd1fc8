package branches

import (
	"context"
	"fmt"
	"strings"

	"github.com/showroom-admin/backoffice/internal/shared"
)

const duplicateCode = "Branch code already exists"

func (s *Service) validate(ctx context.Context, id int64, form *BranchForm) error {
	form.Code = strings.ToUpper(strings.TrimSpace(form.Code))
	form.Description = strings.TrimSpace(form.Description)
	if err := shared.ValidateStruct(s.validator, form); err != nil {
		return err
	}
	taken, err := s.repo.CodeTaken(ctx, form.Code, id)
	if err != nil {
		return fmt.Errorf("branches: check code: %w", err)
	}
	if taken {
		return shared.NewValidationError("code", duplicateCode)
	}
	return nil
}
