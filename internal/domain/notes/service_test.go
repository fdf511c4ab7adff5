package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/domain/patient"
	"github.com/medscribe/medscribe/internal/domain/training"
	"github.com/medscribe/medscribe/internal/domain/visit"
	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/completion"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

type fakeCompleter struct {
	configured bool
	reply      string
	err        error
	calls      int
	got        []completion.Message
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) Complete(_ context.Context, messages []completion.Message) (string, error) {
	f.calls++
	f.got = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fixture struct {
	svc      *Service
	client   *fakeCompleter
	training *training.Service
	patients *patient.Service
	visits   *visit.Service
}

func newFixture() *fixture {
	store := tablestore.NewMemory()
	client := &fakeCompleter{configured: true, reply: "CHIEF COMPLAINT:\nChest pain"}
	trainingSvc := training.NewService(training.NewRepo(store), zerolog.Nop())
	visitRepo := visit.NewRepo(store)
	visitSvc := visit.NewService(visitRepo)
	patientSvc := patient.NewService(patient.NewRepo(store), visitRepo, zerolog.Nop())
	return &fixture{
		svc:      NewService(client, trainingSvc, patientSvc, visitSvc, zerolog.Nop()),
		client:   client,
		training: trainingSvc,
		patients: patientSvc,
		visits:   visitSvc,
	}
}

func TestGeneratePreconditions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := Request{Transcript: "patient reports chest pain"}

	if _, err := f.svc.Generate(ctx, "u1", auth.RoleNurse, req); !errors.Is(err, ErrPermission) {
		t.Errorf("nurse: err = %v, want ErrPermission", err)
	}
	if _, err := f.svc.Generate(ctx, "u1", auth.RoleDoctor, Request{Transcript: "   \n"}); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("blank transcript: err = %v, want ErrEmptyTranscript", err)
	}

	f.client.configured = false
	if _, err := f.svc.Generate(ctx, "u1", auth.RoleDoctor, req); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("unconfigured: err = %v, want ErrNotConfigured", err)
	}

	if f.client.calls != 0 {
		t.Errorf("%d completion calls made despite failing preconditions", f.client.calls)
	}
}

func TestGenerateWithoutPatient(t *testing.T) {
	f := newFixture()

	note, err := f.svc.Generate(context.Background(), "u1", auth.RoleDoctor, Request{Transcript: "patient reports chest pain"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if note == "" {
		t.Fatal("empty note")
	}
	if len(f.client.got) != 2 {
		t.Fatalf("got %d messages, want system+user", len(f.client.got))
	}

	system := f.client.got[0]
	if system.Role != "system" {
		t.Errorf("first message role = %q", system.Role)
	}
	for _, section := range []string{"CHIEF COMPLAINT", "HISTORY OF PRESENT ILLNESS", "REVIEW OF SYSTEMS", "PHYSICAL EXAMINATION", "ASSESSMENT AND PLAN"} {
		if !strings.Contains(system.Content, section+":") {
			t.Errorf("system prompt missing section %q", section)
		}
	}
	if strings.Contains(system.Content, "PROVIDER STYLE EXAMPLES") {
		t.Error("examples block present without baseline notes")
	}

	user := f.client.got[1]
	if !strings.Contains(user.Content, "No patient is selected") {
		t.Error("user prompt missing general-note notice")
	}
	if !strings.Contains(user.Content, "patient reports chest pain") {
		t.Error("user prompt missing transcript")
	}
	if !strings.Contains(user.Content, "Progress Note") {
		t.Error("closing instruction does not name the note type")
	}
}

func TestGenerateIncludesMatchingExamplesOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Two notes under the default config, then one authored under cardiology.
	if _, err := f.training.AddBaselineNote(ctx, "u1", "Dr. Chen", "first internal medicine example"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.training.AddBaselineNote(ctx, "u1", "Dr. Chen", "second internal medicine example"); err != nil {
		t.Fatal(err)
	}
	if err := f.training.Save(ctx, "u1", &training.Config{Specialty: "cardiology", NoteType: "progress_note"}); err != nil {
		t.Fatal(err)
	}

	// The internal-medicine notes must still be stored; the prompt filter,
	// not the save, is what keeps them out.
	cfg, err := f.training.Load(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.BaselineNotes) != 2 {
		t.Fatalf("got %d stored baseline notes, want 2", len(cfg.BaselineNotes))
	}

	if _, err := f.svc.Generate(ctx, "u1", auth.RoleDoctor, Request{Transcript: "t"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	system := f.client.got[0].Content
	if strings.Contains(system, "internal medicine example") {
		t.Error("out-of-scope baseline notes leaked into the prompt")
	}
	if strings.Contains(system, "PROVIDER STYLE EXAMPLES") {
		t.Error("examples block present though no note matches cardiology")
	}
	if !strings.Contains(system, "Cardiology") {
		t.Error("system prompt does not name the active specialty")
	}
}

func TestGenerateNumbersExamples(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, text := range []string{"example alpha", "example beta", "example gamma", "example delta"} {
		if _, err := f.training.AddBaselineNote(ctx, "u1", "Dr. Chen", text); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.svc.Generate(ctx, "u1", auth.RoleDoctor, Request{Transcript: "t"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	system := f.client.got[0].Content
	if !strings.Contains(system, "PROVIDER STYLE EXAMPLES") {
		t.Fatal("examples block missing")
	}
	for _, want := range []string{"Example 1:", "Example 2:", "Example 3:"} {
		if !strings.Contains(system, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(system, "Example 4:") {
		t.Error("more than three examples included")
	}
	if strings.Contains(system, "example alpha") {
		t.Error("oldest example included instead of the most recent three")
	}
}

func TestGenerateWithPatientContext(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := &patient.Patient{FirstName: "Ana", LastName: "Rivera", DOB: "1984-03-12", Medications: "lisinopril 10mg"}
	if err := f.patients.Create(ctx, p, "drchen"); err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("x", 450)
	if err := f.visits.Create(ctx, &visit.Visit{PatientID: p.ID, Note: long, Date: "2026-08-20"}, "Dr. Chen"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Generate(ctx, "u1", auth.RoleDoctor, Request{Transcript: "follow up", PatientID: p.ID}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	user := f.client.got[1].Content
	if !strings.Contains(user, "Ana Rivera") || !strings.Contains(user, "1984-03-12") {
		t.Error("patient identity missing from context")
	}
	if !strings.Contains(user, "No significant medical history") {
		t.Error("empty history fallback missing")
	}
	if !strings.Contains(user, "lisinopril 10mg") {
		t.Error("medications missing")
	}
	if strings.Contains(user, long) {
		t.Error("visit excerpt not truncated")
	}
	if !strings.Contains(user, long[:200]) {
		t.Error("visit excerpt missing")
	}
}

func TestGenerateExcerptKeepsValidUTF8(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := &patient.Patient{FirstName: "Søren", LastName: "Åberg"}
	if err := f.patients.Create(ctx, p, "drchen"); err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("å", 250)
	if err := f.visits.Create(ctx, &visit.Visit{PatientID: p.ID, Note: long, Date: "2026-08-20"}, "Dr. Chen"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Generate(ctx, "u1", auth.RoleDoctor, Request{Transcript: "follow up", PatientID: p.ID}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	user := f.client.got[1].Content
	if !utf8.ValidString(user) {
		t.Fatal("prompt contains invalid UTF-8 after excerpt truncation")
	}
	if !strings.Contains(user, strings.Repeat("å", 200)) {
		t.Error("excerpt shorter than 200 characters")
	}
	if strings.Contains(user, strings.Repeat("å", 201)) {
		t.Error("excerpt longer than 200 characters")
	}
}

func TestGenerateUnknownPatient(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Generate(context.Background(), "u1", auth.RoleDoctor, Request{Transcript: "t", PatientID: "ghost"})
	if !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if f.client.calls != 0 {
		t.Error("completion called for unknown patient")
	}
}

func TestGenerateSanitizesResponse(t *testing.T) {
	f := newFixture()
	f.client.reply = "## ASSESSMENT\n**Stable** angina\n- continue meds"

	note, err := f.svc.Generate(context.Background(), "u1", auth.RoleDoctor, Request{Transcript: "t"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.ContainsAny(note, "#*") {
		t.Errorf("markdown survived sanitization: %q", note)
	}
	if !strings.Contains(note, "• continue meds") {
		t.Errorf("bullet not normalized: %q", note)
	}
}

func TestGenerateSurfacesUpstreamFailure(t *testing.T) {
	f := newFixture()
	f.client.err = &completion.Error{Kind: completion.KindTimeout, Message: "note generation timed out"}

	_, err := f.svc.Generate(context.Background(), "u1", auth.RoleDoctor, Request{Transcript: "preserved transcript"})
	if completion.KindOf(err) != completion.KindTimeout {
		t.Errorf("kind = %q, want timeout", completion.KindOf(err))
	}
	if f.client.calls != 1 {
		t.Errorf("calls = %d, upstream failures must not be retried", f.client.calls)
	}
}
