package notes

import (
	"fmt"
	"strings"

	"github.com/medscribe/medscribe/internal/domain/patient"
	"github.com/medscribe/medscribe/internal/domain/training"
	"github.com/medscribe/medscribe/internal/domain/visit"
)

const (
	maxExampleNotes  = 3
	maxContextVisits = 3
	visitExcerptLen  = 200
)

// sectionSkeleton is the required note structure, in order.
var sectionSkeleton = []string{
	"CHIEF COMPLAINT",
	"HISTORY OF PRESENT ILLNESS",
	"REVIEW OF SYSTEMS",
	"PHYSICAL EXAMINATION",
	"ASSESSMENT AND PLAN",
}

// buildSystemPrompt assembles the instruction block. Catalog resolution is
// strict here: an unknown specialty or note type is an input error, unlike the
// lenient defaulting the training store applies at load time.
func buildSystemPrompt(cfg *training.Config) (string, error) {
	specialtyName, ok := training.SpecialtyDisplay(cfg.Specialty)
	if !ok {
		return "", fmt.Errorf("unknown specialty %q", cfg.Specialty)
	}
	noteTypeName, ok := training.NoteTypeDisplay(cfg.Specialty, cfg.NoteType)
	if !ok {
		return "", fmt.Errorf("unknown note type %q for specialty %q", cfg.NoteType, cfg.Specialty)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced %s clinician writing a %s from a dictated encounter transcript.\n\n", specialtyName, noteTypeName)

	b.WriteString("FORMATTING REQUIREMENTS:\n")
	b.WriteString("- Plain text only, no markdown syntax of any kind\n")
	b.WriteString("- Section headers in ALL CAPS followed by a colon\n")
	b.WriteString("- Use hyphens for bullet points\n")
	b.WriteString("- Do not force content into numbered lists\n\n")

	b.WriteString("SPECIALTY GUIDANCE:\n")
	b.WriteString(training.Instruction(cfg.Specialty))
	b.WriteString("\n\n")

	b.WriteString("REQUIRED SECTIONS (in this order):\n")
	for _, s := range sectionSkeleton {
		fmt.Fprintf(&b, "%s:\n", s)
	}

	if examples := matchingExamples(cfg); len(examples) > 0 {
		b.WriteString("\nPROVIDER STYLE EXAMPLES:\n")
		b.WriteString("Match the style, tone, and level of detail of these notes written by this provider.\n")
		for i, ex := range examples {
			fmt.Fprintf(&b, "\nExample %d:\n%s\n", i+1, ex.Text)
		}
	}

	return b.String(), nil
}

// matchingExamples returns up to 3 of the most recent baseline notes whose
// specialty AND note type both match the current configuration. Notes outside
// that scope are excluded even if stored.
func matchingExamples(cfg *training.Config) []training.BaselineNote {
	var selected []training.BaselineNote
	for i := len(cfg.BaselineNotes) - 1; i >= 0 && len(selected) < maxExampleNotes; i-- {
		n := cfg.BaselineNotes[i]
		if n.Specialty == cfg.Specialty && n.NoteType == cfg.NoteType {
			selected = append(selected, n)
		}
	}
	return selected
}

// buildUserPrompt assembles the user turn: patient context (or a general-note
// notice), the literal transcript, and a closing instruction naming the
// target note type.
func buildUserPrompt(p *patient.Patient, visits []*visit.Visit, transcript, noteTypeName string) string {
	var b strings.Builder

	if p != nil {
		b.WriteString("PATIENT CONTEXT:\n")
		fmt.Fprintf(&b, "Name: %s\n", p.FullName())
		if p.DOB != "" {
			fmt.Fprintf(&b, "Date of birth: %s\n", p.DOB)
		}
		history := p.MedicalHistory
		if strings.TrimSpace(history) == "" {
			history = "No significant medical history"
		}
		fmt.Fprintf(&b, "Medical history: %s\n", history)
		meds := p.Medications
		if strings.TrimSpace(meds) == "" {
			meds = "No current medications on record"
		}
		fmt.Fprintf(&b, "Current medications: %s\n", meds)

		if len(visits) > 0 {
			b.WriteString("Recent visits:\n")
			for i, v := range visits {
				if i == maxContextVisits {
					break
				}
				fmt.Fprintf(&b, "- %s: %s\n", v.Date, visitExcerpt(v))
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No patient is selected; write a general note without patient-specific context.\n\n")
	}

	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(transcript)
	fmt.Fprintf(&b, "\n\nGenerate the %s from the transcript above.", noteTypeName)

	return b.String()
}

// visitExcerpt prefers the finished note over the raw transcript, truncated
// on a rune boundary so multi-byte text stays valid UTF-8.
func visitExcerpt(v *visit.Visit) string {
	text := v.Note
	if strings.TrimSpace(text) == "" {
		text = v.Transcript
	}
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > visitExcerptLen {
		return string(runes[:visitExcerptLen])
	}
	return text
}
