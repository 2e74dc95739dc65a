package prescription

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("prescription not found")
	ErrValidation = errors.New("invalid prescription")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// MedicineLine is one row of the Rx table. It only exists inside a
// Prescription.
type MedicineLine struct {
	Name      string  `json:"name" bson:"name"`
	Dosage    *string `json:"dosage" bson:"dosage"`
	Frequency string  `json:"frequency" bson:"frequency"`
}

// HasDosage reports whether the line carries a non-blank dosage.
func (m MedicineLine) HasDosage() bool {
	return m.Dosage != nil && strings.TrimSpace(*m.Dosage) != ""
}

// Prescription is immutable once stored; only delete removes it.
type Prescription struct {
	ID             string         `json:"id" bson:"id"`
	PatientName    string         `json:"patient_name" bson:"patient_name"`
	PatientAge     *int           `json:"patient_age" bson:"patient_age"`
	Date           string         `json:"date" bson:"date"`
	Diagnosis      *string        `json:"diagnosis" bson:"diagnosis"`
	Investigations *string        `json:"investigations" bson:"investigations"`
	Medicines      []MedicineLine `json:"medicines" bson:"medicines"`
	DoctorNotes    *string        `json:"doctor_notes" bson:"doctor_notes"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
}

// Text returns the trimmed value of an optional field, "" when absent.
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// CreateRequest is the body accepted by POST /prescriptions.
type CreateRequest struct {
	PatientName    string         `json:"patient_name"`
	PatientAge     *int           `json:"patient_age"`
	Date           string         `json:"date"`
	Diagnosis      *string        `json:"diagnosis"`
	Investigations *string        `json:"investigations"`
	Medicines      []MedicineLine `json:"medicines"`
	DoctorNotes    *string        `json:"doctor_notes"`
}

// Validate checks the request before anything is written. The date is
// passed through verbatim and is only required to be present.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return validationError("patient_name is required")
	}
	if strings.TrimSpace(r.Date) == "" {
		return validationError("date is required")
	}
	if r.PatientAge != nil && *r.PatientAge < 0 {
		return validationError("patient_age must not be negative")
	}
	for i, m := range r.Medicines {
		if strings.TrimSpace(m.Name) == "" {
			return validationError("medicines[%d].name is required", i)
		}
	}
	return nil
}

// ListFilter narrows GET /prescriptions.
type ListFilter struct {
	PatientName string
	Limit       int
}
