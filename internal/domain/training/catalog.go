package training

// The specialty catalog is static: each specialty names its note types (the
// first entry is the default) and an instruction string used to steer note
// generation.

// NoteType is a clinical document template scoped to a specialty.
type NoteType struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

// SpecialtySpec describes one catalog entry.
type SpecialtySpec struct {
	Key         string     `json:"key"`
	Display     string     `json:"display"`
	NoteTypes   []NoteType `json:"note_types"`
	Instruction string     `json:"-"`
}

// DefaultSpecialty is the fallback when a stored specialty key is invalid.
const DefaultSpecialty = "internal_medicine"

var catalog = map[string]SpecialtySpec{
	"internal_medicine": {
		Key:     "internal_medicine",
		Display: "Internal Medicine",
		NoteTypes: []NoteType{
			{Key: "progress_note", Display: "Progress Note"},
			{Key: "h_and_p", Display: "History and Physical"},
			{Key: "discharge_summary", Display: "Discharge Summary"},
		},
		Instruction: "Focus on chronic disease management, medication reconciliation, and preventive care. Document pertinent positives and negatives for each active problem.",
	},
	"cardiology": {
		Key:     "cardiology",
		Display: "Cardiology",
		NoteTypes: []NoteType{
			{Key: "progress_note", Display: "Progress Note"},
			{Key: "consult_note", Display: "Consultation Note"},
		},
		Instruction: "Emphasize cardiovascular history, functional status, and hemodynamics. Include relevant EKG, echo, and catheterization findings when dictated.",
	},
	"orthopedics": {
		Key:     "orthopedics",
		Display: "Orthopedics",
		NoteTypes: []NoteType{
			{Key: "progress_note", Display: "Progress Note"},
			{Key: "operative_note", Display: "Operative Note"},
		},
		Instruction: "Document mechanism of injury, range of motion, neurovascular status, and imaging findings. Describe laterality explicitly.",
	},
	"pediatrics": {
		Key:     "pediatrics",
		Display: "Pediatrics",
		NoteTypes: []NoteType{
			{Key: "progress_note", Display: "Progress Note"},
			{Key: "well_child_visit", Display: "Well Child Visit"},
		},
		Instruction: "Include growth parameters, developmental milestones, and immunization status. Note guardian concerns verbatim where dictated.",
	},
	"psychiatry": {
		Key:     "psychiatry",
		Display: "Psychiatry",
		NoteTypes: []NoteType{
			{Key: "progress_note", Display: "Progress Note"},
			{Key: "psychiatric_evaluation", Display: "Psychiatric Evaluation"},
		},
		Instruction: "Document mental status examination, risk assessment, and medication response. Use the patient's own words for chief complaint when available.",
	},
}

// genericInstruction is used when a specialty has no instruction entry.
const genericInstruction = "Produce a clear, clinically accurate note reflecting only what was dictated. Do not invent findings."

// Specialties returns the full catalog.
func Specialties() []SpecialtySpec {
	result := make([]SpecialtySpec, 0, len(catalog))
	for _, s := range catalog {
		result = append(result, s)
	}
	return result
}

// ValidSpecialty reports whether key names a catalog specialty.
func ValidSpecialty(key string) bool {
	_, ok := catalog[key]
	return ok
}

// SpecialtyDisplay resolves the display name for a specialty key.
func SpecialtyDisplay(key string) (string, bool) {
	s, ok := catalog[key]
	if !ok {
		return "", false
	}
	return s.Display, true
}

// ValidNoteType reports whether noteType belongs to the specialty's set.
func ValidNoteType(specialty, noteType string) bool {
	s, ok := catalog[specialty]
	if !ok {
		return false
	}
	for _, nt := range s.NoteTypes {
		if nt.Key == noteType {
			return true
		}
	}
	return false
}

// NoteTypeDisplay resolves the display name of a note type under a specialty.
func NoteTypeDisplay(specialty, noteType string) (string, bool) {
	s, ok := catalog[specialty]
	if !ok {
		return "", false
	}
	for _, nt := range s.NoteTypes {
		if nt.Key == noteType {
			return nt.Display, true
		}
	}
	return "", false
}

// DefaultNoteType returns the specialty's default note type key.
func DefaultNoteType(specialty string) string {
	s, ok := catalog[specialty]
	if !ok || len(s.NoteTypes) == 0 {
		return ""
	}
	return s.NoteTypes[0].Key
}

// Instruction returns the specialty guidance string, falling back to the
// generic instruction for specialties without an entry.
func Instruction(specialty string) string {
	s, ok := catalog[specialty]
	if !ok || s.Instruction == "" {
		return genericInstruction
	}
	return s.Instruction
}
