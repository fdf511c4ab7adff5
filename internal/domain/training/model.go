package training

import "time"

// MaxBaselineNotes caps the stored example notes; the oldest is evicted first.
const MaxBaselineNotes = 5

// BaselineNote is a stored example of a clinician's preferred note style. It
// is only ever appended or removed, never edited.
type BaselineNote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Specialty string    `json:"specialty"`
	NoteType  string    `json:"note_type"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Config is a user's training configuration: the active specialty/note type
// pair plus the baseline notes steering generation. CustomTemplates is
// persisted for forward compatibility but not consumed by generation.
type Config struct {
	Specialty       string            `json:"specialty"`
	NoteType        string            `json:"note_type"`
	BaselineNotes   []BaselineNote    `json:"baseline_notes"`
	CustomTemplates map[string]string `json:"custom_templates,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is stored.
func DefaultConfig() *Config {
	return &Config{
		Specialty: DefaultSpecialty,
		NoteType:  DefaultNoteType(DefaultSpecialty),
	}
}

// normalize repairs the config in place so that (specialty, noteType) is
// always a valid catalog pair and the baseline list stays within the cap,
// keeping the most recent entries.
func (c *Config) normalize() {
	if !ValidSpecialty(c.Specialty) {
		c.Specialty = DefaultSpecialty
	}
	if !ValidNoteType(c.Specialty, c.NoteType) {
		c.NoteType = DefaultNoteType(c.Specialty)
	}
	if len(c.BaselineNotes) > MaxBaselineNotes {
		c.BaselineNotes = c.BaselineNotes[len(c.BaselineNotes)-MaxBaselineNotes:]
	}
}
