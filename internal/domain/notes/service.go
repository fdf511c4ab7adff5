package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/domain/patient"
	"github.com/medscribe/medscribe/internal/domain/training"
	"github.com/medscribe/medscribe/internal/domain/visit"
	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/completion"
	"github.com/medscribe/medscribe/pkg/markdownx"
)

var (
	// ErrNotConfigured means the completion service credentials are missing.
	ErrNotConfigured = errors.New("notes: completion service not configured")
	// ErrEmptyTranscript rejects generation without dictated content.
	ErrEmptyTranscript = errors.New("notes: transcript is empty")
	// ErrPermission means the caller's role lacks the scribe capability.
	ErrPermission = errors.New("notes: scribe permission required")
)

// Completer is the slice of the completion client the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, messages []completion.Message) (string, error)
	Configured() bool
}

// PatientReader loads the selected patient for prompt context.
type PatientReader interface {
	Get(ctx context.Context, id string) (*patient.Patient, error)
}

// VisitReader loads a patient's recent visits for prompt context.
type VisitReader interface {
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*visit.Visit, error)
}

// ConfigLoader supplies the caller's training configuration.
type ConfigLoader interface {
	Load(ctx context.Context, userID string) (*training.Config, error)
}

// Request carries the generation inputs. PatientID is optional; without it
// the note is generated with a general-context notice.
type Request struct {
	Transcript string `json:"transcript"`
	PatientID  string `json:"patient_id,omitempty"`
}

// Service is the note-generation pipeline: preconditions, prompt assembly,
// one completion call, sanitization. It never persists anything; saving the
// note to a visit is the caller's explicit follow-up.
type Service struct {
	client   Completer
	config   ConfigLoader
	patients PatientReader
	visits   VisitReader
	logger   zerolog.Logger
}

func NewService(client Completer, config ConfigLoader, patients PatientReader, visits VisitReader, logger zerolog.Logger) *Service {
	return &Service{client: client, config: config, patients: patients, visits: visits, logger: logger}
}

// Generate produces a sanitized clinical note from a transcript. Preconditions
// are checked in order before any network call; every upstream failure is
// terminal for this invocation and surfaced unretried.
func (s *Service) Generate(ctx context.Context, userID string, role auth.Role, req Request) (string, error) {
	if !auth.HasPermission(role, auth.ActionScribe) {
		return "", ErrPermission
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return "", ErrEmptyTranscript
	}
	if !s.client.Configured() {
		return "", ErrNotConfigured
	}

	cfg, err := s.config.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load training config: %w", err)
	}

	systemPrompt, err := buildSystemPrompt(cfg)
	if err != nil {
		return "", err
	}
	noteTypeName, _ := training.NoteTypeDisplay(cfg.Specialty, cfg.NoteType)

	var p *patient.Patient
	var recent []*visit.Visit
	if req.PatientID != "" {
		p, err = s.patients.Get(ctx, req.PatientID)
		if err != nil {
			return "", fmt.Errorf("load patient: %w", err)
		}
		recent, err = s.visits.ListByPatient(ctx, req.PatientID, maxContextVisits)
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", req.PatientID).Msg("could not load visit context")
			recent = nil
		}
	}

	messages := []completion.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(p, recent, req.Transcript, noteTypeName)},
	}

	raw, err := s.client.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return markdownx.Strip(raw), nil
}
