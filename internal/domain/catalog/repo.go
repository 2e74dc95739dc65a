package catalog

import (
	"context"
)

// Field names a searchable text attribute of a catalog entry.
type Field string

const (
	FieldName           Field = "name"
	FieldDosage         Field = "dosage"
	FieldFrequency      Field = "frequency"
	FieldDiagnosis      Field = "diagnosis"
	FieldInvestigations Field = "investigations"
)

// SearchFilter is handed to the store as-is: an empty Query matches every
// entry, otherwise entries whose Fields contain Query case-insensitively
// (OR across fields). Query is matched literally, never as a pattern.
type SearchFilter struct {
	Query  string
	Fields []Field
	Limit  int
}

// Store is the find-by-key / insert / substring-search surface every catalog
// collection exposes. FindByKey returns ErrNotFound when no entry carries key.
type Store[T any] interface {
	FindByKey(ctx context.Context, key string) (*T, error)
	Create(ctx context.Context, entry *T) error
	Search(ctx context.Context, f SearchFilter) ([]*T, error)
}

type MedicineRepository interface {
	Store[Medicine]
	ListByName(ctx context.Context, limit int) ([]*Medicine, error)
	Delete(ctx context.Context, id string) error
}

type PatientRepository interface {
	Store[Patient]
}

type InvestigationRepository interface {
	Store[Investigation]
}

type DiagnosisInvestigationRepository interface {
	Store[DiagnosisInvestigation]
}

// Repositories groups the four catalog collections.
type Repositories struct {
	Medicines               MedicineRepository
	Patients                PatientRepository
	Investigations          InvestigationRepository
	DiagnosisInvestigations DiagnosisInvestigationRepository
}
