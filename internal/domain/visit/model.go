package visit

import "time"

// Visit is one documented encounter: the dictated transcript and the note
// generated from it, tagged with the configuration it was produced under.
type Visit struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Date       string    `json:"date,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Note       string    `json:"note,omitempty"`
	Specialty  string    `json:"specialty,omitempty"`
	NoteType   string    `json:"note_type,omitempty"`
	Author     string    `json:"author,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
