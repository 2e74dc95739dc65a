package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("catalog entry not found")
	ErrValidation = errors.New("invalid catalog entry")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Medicine is a previously prescribed (name, dosage, frequency) combination.
// Dosage is stored as "" when the originating line had none.
type Medicine struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	Dosage    string `json:"dosage" bson:"dosage"`
	Frequency string `json:"frequency" bson:"frequency"`
	UniqueKey string `json:"unique_key" bson:"unique_key"`
}

// DiagnosisInvestigation pairs a diagnosis with the investigations that were
// advised for it.
type DiagnosisInvestigation struct {
	ID             string `json:"id" bson:"id"`
	Diagnosis      string `json:"diagnosis" bson:"diagnosis"`
	Investigations string `json:"investigations" bson:"investigations"`
	UniqueKey      string `json:"unique_key" bson:"unique_key"`
}

type Investigation struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	UniqueKey string `json:"unique_key" bson:"unique_key"`
}

// Patient is keyed by name and age; a nil Age is its own key value.
type Patient struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	Age       *int   `json:"age" bson:"age"`
	UniqueKey string `json:"unique_key" bson:"unique_key"`
}

// MedicineInput is the shape of a medicine for explicit saves and sync.
type MedicineInput struct {
	Name      string  `json:"name"`
	Dosage    *string `json:"dosage"`
	Frequency string  `json:"frequency"`
}

func (m MedicineInput) dosage() string {
	if m.Dosage == nil {
		return ""
	}
	return *m.Dosage
}

func (m MedicineInput) Validate() error {
	if isBlank(m.Name) {
		return validationError("medicine name is required")
	}
	return nil
}

type InvestigationInput struct {
	Name string `json:"name"`
}

func (i InvestigationInput) Validate() error {
	if isBlank(i.Name) {
		return validationError("investigation name is required")
	}
	return nil
}

type DiagnosisInvestigationInput struct {
	Diagnosis      string `json:"diagnosis"`
	Investigations string `json:"investigations"`
}

func (d DiagnosisInvestigationInput) Validate() error {
	if isBlank(d.Diagnosis) || isBlank(d.Investigations) {
		return validationError("diagnosis and investigations are required")
	}
	return nil
}

// SaveResult reports the outcome of an upsert-if-absent.
type SaveResult struct {
	ID     string `json:"id"`
	Exists bool   `json:"exists"`
}
