package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/domain/visit"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

func newTestService() (*Service, *visit.Service, *tablestore.Memory) {
	store := tablestore.NewMemory()
	visitRepo := visit.NewRepo(store)
	svc := NewService(NewRepo(store), visitRepo, zerolog.Nop())
	return svc, visit.NewService(visitRepo), store
}

func TestCreateRequiresName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.Create(ctx, &Patient{FirstName: "  ", LastName: "Rivera"}, "drchen"); err == nil {
		t.Error("expected error for blank first name")
	}
	if err := svc.Create(ctx, &Patient{FirstName: "Ana"}, "drchen"); err == nil {
		t.Error("expected error for missing last name")
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FirstName: "Ana", LastName: "Rivera", DOB: "1984-03-12"}
	if err := svc.Create(ctx, p, "drchen"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatal("create did not stamp id and timestamp")
	}
	if p.CreatedBy != "drchen" {
		t.Errorf("created_by = %q", p.CreatedBy)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FullName() != "Ana Rivera" {
		t.Errorf("full name = %q", got.FullName())
	}
}

func TestUpdateKeepsCreationMetadata(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FirstName: "Ana", LastName: "Rivera"}
	if err := svc.Create(ctx, p, "drchen"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	upd := &Patient{ID: p.ID, FirstName: "Ana", LastName: "Rivera-Soto", CreatedBy: "intruder"}
	if err := svc.Update(ctx, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.CreatedBy != "drchen" || !upd.CreatedAt.Equal(p.CreatedAt) {
		t.Error("update did not preserve creation metadata")
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.LastName != "Rivera-Soto" {
		t.Errorf("last name = %q after update", got.LastName)
	}
}

func TestUpdateMissingPatient(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Update(context.Background(), &Patient{ID: "ghost", FirstName: "A", LastName: "B"})
	if !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCascadesVisits(t *testing.T) {
	svc, visits, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FirstName: "Ana", LastName: "Rivera"}
	if err := svc.Create(ctx, p, "drchen"); err != nil {
		t.Fatalf("Create patient: %v", err)
	}
	for i := 0; i < 3; i++ {
		v := &visit.Visit{PatientID: p.ID, Transcript: "dictation"}
		if err := visits.Create(ctx, v, "Dr. Chen"); err != nil {
			t.Fatalf("Create visit: %v", err)
		}
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("patient still readable after delete: %v", err)
	}
	remaining, err := visits.ListByPatient(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("%d visits survived the cascade", len(remaining))
	}
}
