package training

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

func newTestService() (*Service, *tablestore.Memory) {
	store := tablestore.NewMemory()
	return NewService(NewRepo(store), zerolog.Nop()), store
}

func TestLoadDefaults(t *testing.T) {
	svc, _ := newTestService()

	cfg, err := svc.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Specialty != DefaultSpecialty {
		t.Errorf("specialty = %q, want %q", cfg.Specialty, DefaultSpecialty)
	}
	if cfg.NoteType != "progress_note" {
		t.Errorf("note type = %q, want progress_note", cfg.NoteType)
	}
	if len(cfg.BaselineNotes) != 0 {
		t.Errorf("expected no baseline notes, got %d", len(cfg.BaselineNotes))
	}
}

func TestSaveRepairsInvalidPair(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cfg := &Config{Specialty: "astrology", NoteType: "horoscope"}
	if err := svc.Save(ctx, "u1", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Specialty != DefaultSpecialty {
		t.Errorf("specialty = %q, want %q", loaded.Specialty, DefaultSpecialty)
	}
	if !ValidNoteType(loaded.Specialty, loaded.NoteType) {
		t.Errorf("note type %q invalid for %q", loaded.NoteType, loaded.Specialty)
	}
}

func TestSaveRepairsNoteTypeForValidSpecialty(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// operative_note belongs to orthopedics, not cardiology.
	cfg := &Config{Specialty: "cardiology", NoteType: "operative_note"}
	if err := svc.Save(ctx, "u1", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := svc.Load(ctx, "u1")
	if loaded.Specialty != "cardiology" {
		t.Errorf("specialty = %q, want cardiology", loaded.Specialty)
	}
	if loaded.NoteType != "progress_note" {
		t.Errorf("note type = %q, want progress_note", loaded.NoteType)
	}
}

func TestSavePreservesBaselineNotes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, text := range []string{"first example", "second example"} {
		if _, err := svc.AddBaselineNote(ctx, "u1", "Dr. Chen", text); err != nil {
			t.Fatalf("AddBaselineNote: %v", err)
		}
	}

	// A selection save without a baseline list must not wipe stored notes.
	if err := svc.Save(ctx, "u1", &Config{Specialty: "cardiology", NoteType: "progress_note"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Specialty != "cardiology" {
		t.Errorf("specialty = %q, want cardiology", loaded.Specialty)
	}
	if len(loaded.BaselineNotes) != 2 {
		t.Fatalf("got %d baseline notes after save, want 2", len(loaded.BaselineNotes))
	}
	if loaded.BaselineNotes[0].Text != "first example" {
		t.Errorf("note order changed: %q", loaded.BaselineNotes[0].Text)
	}
}

func TestAddBaselineNoteEvictsOldest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 1; i <= MaxBaselineNotes+1; i++ {
		if _, err := svc.AddBaselineNote(ctx, "u1", "Dr. Chen", fmt.Sprintf("example %d", i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	cfg, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.BaselineNotes) != MaxBaselineNotes {
		t.Fatalf("got %d notes, want %d", len(cfg.BaselineNotes), MaxBaselineNotes)
	}
	if cfg.BaselineNotes[0].Text != "example 2" {
		t.Errorf("oldest note = %q, want %q", cfg.BaselineNotes[0].Text, "example 2")
	}
	if cfg.BaselineNotes[MaxBaselineNotes-1].Text != fmt.Sprintf("example %d", MaxBaselineNotes+1) {
		t.Errorf("newest note = %q", cfg.BaselineNotes[MaxBaselineNotes-1].Text)
	}
}

func TestAddBaselineNoteStripsMarkdown(t *testing.T) {
	svc, _ := newTestService()

	note, err := svc.AddBaselineNote(context.Background(), "u1", "Dr. Chen", "## Assessment\n**Stable** condition")
	if err != nil {
		t.Fatalf("AddBaselineNote: %v", err)
	}
	if strings.ContainsAny(note.Text, "#*") {
		t.Errorf("markdown not stripped: %q", note.Text)
	}
	if note.ID == "" || note.CreatedAt.IsZero() {
		t.Error("note missing id or timestamp")
	}
	if note.Specialty != DefaultSpecialty {
		t.Errorf("note specialty = %q, want %q", note.Specialty, DefaultSpecialty)
	}
}

func TestAddBaselineNoteValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddBaselineNote(ctx, "u1", "Dr. Chen", "   \n\t"); err == nil {
		t.Error("expected error for blank text")
	}
	if _, err := svc.AddBaselineNote(ctx, "u1", "", "some text"); err == nil {
		t.Error("expected error for missing author")
	}
}

func TestRemoveBaselineNote(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	note, err := svc.AddBaselineNote(ctx, "u1", "Dr. Chen", "keep or drop")
	if err != nil {
		t.Fatalf("AddBaselineNote: %v", err)
	}

	if err := svc.RemoveBaselineNote(ctx, "u1", note.ID); err != nil {
		t.Fatalf("RemoveBaselineNote: %v", err)
	}
	cfg, _ := svc.Load(ctx, "u1")
	if len(cfg.BaselineNotes) != 0 {
		t.Errorf("note not removed, %d remain", len(cfg.BaselineNotes))
	}

	// Removing an unknown id is a no-op.
	if err := svc.RemoveBaselineNote(ctx, "u1", "no-such-id"); err != nil {
		t.Errorf("remove unknown id: %v", err)
	}
}

func TestLoadCorruptConfigResetsAndBacksUp(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	// Valid JSON, wrong shape: Decode into Config fails on the array.
	if err := store.Upsert(ctx, &tablestore.Entity{
		PartitionKey: "training",
		RowKey:       "u1",
		Data:         []byte(`{"specialty": ["not", "a", "string"]}`),
	}); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}

	cfg, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Specialty != DefaultSpecialty {
		t.Errorf("specialty = %q, want default after reset", cfg.Specialty)
	}

	entities, err := store.List(ctx, "training", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var backedUp bool
	for _, e := range entities {
		if strings.HasPrefix(e.RowKey, "u1.corrupt.") {
			backedUp = true
		}
	}
	if !backedUp {
		t.Error("corrupt blob was not backed up")
	}

	// A subsequent load must see the repaired config.
	again, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again.Specialty != DefaultSpecialty || !ValidNoteType(again.Specialty, again.NoteType) {
		t.Errorf("repaired config not persisted: %+v", again)
	}
}

func TestCatalogDefaults(t *testing.T) {
	for _, s := range Specialties() {
		if len(s.NoteTypes) == 0 {
			t.Errorf("specialty %q has no note types", s.Key)
			continue
		}
		def := DefaultNoteType(s.Key)
		if !ValidNoteType(s.Key, def) {
			t.Errorf("default note type %q invalid for %q", def, s.Key)
		}
		if Instruction(s.Key) == "" {
			t.Errorf("specialty %q has empty instruction", s.Key)
		}
	}
	if Instruction("nonexistent") != genericInstruction {
		t.Error("unknown specialty should use generic instruction")
	}
	if ValidSpecialty("nonexistent") {
		t.Error("nonexistent specialty reported valid")
	}
}
