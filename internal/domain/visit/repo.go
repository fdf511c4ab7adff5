package visit

import "context"

// Repository persists visits, partitioned by owning patient.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id string) (*Visit, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*Visit, error)
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id string) error
	// DeleteForPatient removes every visit of a patient, returning the count.
	DeleteForPatient(ctx context.Context, patientID string) (int, error)
}
