package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/adapter"
	"lms-personalization/internal/domain/ports/repository"
)

// Compile-time check
var _ ProfileResolver = (*profileUC)(nil)

// ProfileResolver maps an authenticated identity (or a known employee id) to
// the profile fed into content generation.
type ProfileResolver interface {
	// Resolve tries, in order: the explicit user↔employee mapping, a direct
	// employee record keyed by user id, and finally a bare-identity fallback
	// with placeholder department/position. It fails only on a blank user id.
	Resolve(ctx context.Context, identity adapter.Identity) (*model.EmployeeProfile, error)

	// ResolveEmployee builds a profile for a known employee id; used by the
	// job processor, which holds an employee id rather than a credential.
	ResolveEmployee(ctx context.Context, employeeID string) (*model.EmployeeProfile, error)
}

const (
	fallbackDepartment = "General"
	fallbackPosition   = "Learner"
)

type profileUC struct {
	mappings  repository.EmployeeUserMappingRepository
	employees repository.EmployeeRepository
	extractor adapter.DocumentExtractor // optional, may be nil
	log       *zerolog.Logger
}

func NewProfileResolver(
	mappings repository.EmployeeUserMappingRepository,
	employees repository.EmployeeRepository,
	extractor adapter.DocumentExtractor,
	log *zerolog.Logger,
) *profileUC {
	return &profileUC{mappings: mappings, employees: employees, extractor: extractor, log: log}
}

func (p *profileUC) Resolve(ctx context.Context, identity adapter.Identity) (*model.EmployeeProfile, error) {
	if identity.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// 1. Explicit mapping record wins even when a direct record also exists.
	if m, err := p.mappings.FindByUserID(ctx, nil, identity.UserID); err == nil && m != nil {
		emp, err := p.employees.FindByID(ctx, nil, m.EmployeeID)
		if err == nil && emp != nil {
			return p.fromEmployee(ctx, emp, "mapping"), nil
		}
		p.log.Warn().Str("user_id", identity.UserID).Str("employee_id", m.EmployeeID).
			Msg("mapping points at a missing employee record, falling through")
	}

	// 2. Employee record keyed directly by user id.
	if emp, err := p.employees.FindByUserID(ctx, nil, identity.UserID); err == nil && emp != nil {
		return p.fromEmployee(ctx, emp, "direct"), nil
	}

	// 3. Bare authenticated identity. Employees can exist in the identity
	// provider before their HR record is provisioned; generation still works
	// with placeholder role data.
	p.log.Debug().Str("user_id", identity.UserID).Msg("no HR record, using identity fallback profile")
	return &model.EmployeeProfile{
		EmployeeID: identity.UserID,
		UserID:     identity.UserID,
		Name:       identity.Name,
		Email:      identity.Email,
		Department: fallbackDepartment,
		Position:   fallbackPosition,
		Source:     "identity",
	}, nil
}

func (p *profileUC) ResolveEmployee(ctx context.Context, employeeID string) (*model.EmployeeProfile, error) {
	if employeeID == "" {
		return nil, domain.ErrInvalidArgument
	}
	emp, err := p.employees.FindByID(ctx, nil, employeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The job was created against this id; degrade the same way the
			// identity fallback does instead of blocking generation.
			return &model.EmployeeProfile{
				EmployeeID: employeeID,
				Department: fallbackDepartment,
				Position:   fallbackPosition,
				Source:     "identity",
			}, nil
		}
		return nil, err
	}
	return p.fromEmployee(ctx, emp, "direct"), nil
}

func (p *profileUC) fromEmployee(ctx context.Context, emp *model.Employee, source string) *model.EmployeeProfile {
	prof := &model.EmployeeProfile{
		EmployeeID:   emp.ID,
		UserID:       emp.UserID,
		Name:         emp.Name,
		Email:        emp.Email,
		Department:   emp.Department,
		Position:     emp.Position,
		CVData:       emp.CVData,
		LearningPref: emp.LearningPref,
		Source:       source,
	}
	if prof.Department == "" {
		prof.Department = fallbackDepartment
	}
	if prof.Position == "" {
		prof.Position = fallbackPosition
	}

	// Best-effort CV text extraction when only a document URL is on file.
	if p.extractor != nil && emp.CVURL != "" && (prof.CVData == nil || prof.CVData.RawText == "") {
		if text, err := p.extractor.Extract(ctx, emp.CVURL); err == nil && text != "" {
			if prof.CVData == nil {
				prof.CVData = &model.CVExtraction{}
			}
			prof.CVData.RawText = text
		} else if err != nil {
			p.log.Warn().Err(err).Str("employee_id", emp.ID).Msg("cv extraction failed, continuing without document text")
		}
	}
	return prof
}
