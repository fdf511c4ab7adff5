package visit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, v *Visit, author string) error {
	if strings.TrimSpace(v.PatientID) == "" {
		return fmt.Errorf("patient_id is required")
	}
	v.ID = uuid.NewString()
	v.CreatedAt = time.Now().UTC()
	if v.Author == "" {
		v.Author = author
	}
	if v.Date == "" {
		v.Date = v.CreatedAt.Format("2006-01-02")
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id string) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit int) ([]*Visit, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	return s.repo.ListByPatient(ctx, patientID, limit)
}

// Update overwrites the visit. The owning patient cannot change; the stored
// patient id and creation metadata win over whatever the caller sent.
func (s *Service) Update(ctx context.Context, v *Visit) error {
	existing, err := s.repo.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	v.PatientID = existing.PatientID
	v.CreatedAt = existing.CreatedAt
	if v.Author == "" {
		v.Author = existing.Author
	}
	return s.repo.Update(ctx, v)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
