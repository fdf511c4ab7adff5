package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VisitPurger removes all visits owned by a patient. Implemented by the visit
// repository; taken as an interface to keep the dependency one-directional.
type VisitPurger interface {
	DeleteForPatient(ctx context.Context, patientID string) (int, error)
}

type Service struct {
	repo   Repository
	visits VisitPurger
	logger zerolog.Logger
}

func NewService(repo Repository, visits VisitPurger, logger zerolog.Logger) *Service {
	return &Service{repo: repo, visits: visits, logger: logger}
}

func (s *Service) Create(ctx context.Context, p *Patient, createdBy string) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.CreatedBy = createdBy
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]*Patient, error) {
	return s.repo.List(ctx, limit)
}

// Update overwrites the record, keeping the original creation metadata.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	p.CreatedBy = existing.CreatedBy
	return s.repo.Update(ctx, p)
}

// Delete removes the patient and cascades to its visits so no orphaned
// clinical notes remain.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	removed, err := s.visits.DeleteForPatient(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", id).Msg("visit cascade failed")
		return fmt.Errorf("delete patient visits: %w", err)
	}
	if removed > 0 {
		s.logger.Info().Str("patient_id", id).Int("visits", removed).Msg("cascaded visit delete")
	}
	return nil
}
