package patient

import "time"

// Patient is a demographic record. Clinical content lives on visits.
type Patient struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DOB            string    `json:"dob,omitempty"`
	MedicalHistory string    `json:"medical_history,omitempty"`
	Medications    string    `json:"medications,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by,omitempty"`
}

// FullName joins the name fields for display and prompt context.
func (p *Patient) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
