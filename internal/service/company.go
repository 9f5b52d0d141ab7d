package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/model"
)

// CreateCompanyInput is the payload for registering a company.
type CreateCompanyInput struct {
	Name          string           `json:"name" validate:"required,min=2,max=100"`
	Sector        string           `json:"sector" validate:"required,min=3,max=100"`
	Email         string           `json:"email" validate:"required,email"`
	Phone         string           `json:"phone,omitempty" validate:"omitempty,max=30"`
	EmployeeCount *int             `json:"employee_count,omitempty" validate:"omitempty,min=0"`
	Indicators    model.Indicators `json:"indicators"`
}

// CreateCompany validates and stores a company.
func (s *Service) CreateCompany(ctx context.Context, in CreateCompanyInput) (*model.Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Sector = strings.TrimSpace(in.Sector)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, validationError(err)
	}

	c := &model.Company{
		Name:          in.Name,
		Sector:        in.Sector,
		Email:         in.Email,
		Phone:         in.Phone,
		EmployeeCount: in.EmployeeCount,
		Indicators:    in.Indicators,
	}
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return nil, err
	}

	zap.L().Info("service: company created",
		zap.String("company_id", c.ID),
		zap.String("sector", c.Sector),
	)
	return c, nil
}

// GetCompany returns a company by id.
func (s *Service) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	return s.store.GetCompany(ctx, id)
}

// ListCompanies lists companies, newest first.
func (s *Service) ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.Company, error) {
	return s.store.ListCompanies(ctx, filter)
}
