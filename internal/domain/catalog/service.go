package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/platform/metrics"
)

const (
	// DefaultSearchLimit bounds autocomplete searches.
	DefaultSearchLimit = 50
	// MaxListLimit bounds the full medicine listing.
	MaxListLimit = 1000
)

// Catalog labels used for metrics and log events.
const (
	catalogMedicines               = "medicines"
	catalogPatients                = "patients"
	catalogInvestigations          = "investigations"
	catalogDiagnosisInvestigations = "diagnosis_investigations"
)

type Service struct {
	repos  Repositories
	logger zerolog.Logger
	newID  func() string
}

func NewService(repos Repositories, logger zerolog.Logger) *Service {
	return &Service{
		repos:  repos,
		logger: logger.With().Str("component", "catalog").Logger(),
		newID:  uuid.NewString,
	}
}

// upsertIfAbsent looks up key and, only when nothing carries it, inserts the
// entry produced by build. An existing entry is never modified.
func upsertIfAbsent[T any](ctx context.Context, store Store[T], catalog, key string,
	idOf func(*T) string, build func() *T) (*SaveResult, error) {
	existing, err := store.FindByKey(ctx, key)
	if err == nil {
		metrics.CatalogUpserts.WithLabelValues(catalog, metrics.OutcomeExisting).Inc()
		return &SaveResult{ID: idOf(existing), Exists: true}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		metrics.CatalogUpserts.WithLabelValues(catalog, metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("lookup %s: %w", catalog, err)
	}

	entry := build()
	if err := store.Create(ctx, entry); err != nil {
		metrics.CatalogUpserts.WithLabelValues(catalog, metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("create %s: %w", catalog, err)
	}
	metrics.CatalogUpserts.WithLabelValues(catalog, metrics.OutcomeCreated).Inc()
	return &SaveResult{ID: idOf(entry)}, nil
}

func (s *Service) upsertMedicine(ctx context.Context, in MedicineInput) (*SaveResult, error) {
	return upsertIfAbsent(ctx, Store[Medicine](s.repos.Medicines), catalogMedicines,
		MedicineKey(in.Name, in.dosage(), in.Frequency),
		func(m *Medicine) string { return m.ID },
		func() *Medicine {
			return &Medicine{
				ID:        s.newID(),
				Name:      in.Name,
				Dosage:    in.dosage(),
				Frequency: in.Frequency,
				UniqueKey: MedicineKey(in.Name, in.dosage(), in.Frequency),
			}
		})
}

func (s *Service) upsertInvestigation(ctx context.Context, name string) (*SaveResult, error) {
	key := InvestigationKey(name)
	return upsertIfAbsent(ctx, Store[Investigation](s.repos.Investigations), catalogInvestigations, key,
		func(i *Investigation) string { return i.ID },
		func() *Investigation {
			return &Investigation{ID: s.newID(), Name: strings.TrimSpace(name), UniqueKey: key}
		})
}

func (s *Service) upsertDiagnosisInvestigation(ctx context.Context, diagnosis, investigations string) (*SaveResult, error) {
	key := DiagnosisInvestigationKey(diagnosis, investigations)
	return upsertIfAbsent(ctx, Store[DiagnosisInvestigation](s.repos.DiagnosisInvestigations), catalogDiagnosisInvestigations, key,
		func(d *DiagnosisInvestigation) string { return d.ID },
		func() *DiagnosisInvestigation {
			return &DiagnosisInvestigation{
				ID:             s.newID(),
				Diagnosis:      diagnosis,
				Investigations: investigations,
				UniqueKey:      key,
			}
		})
}

func (s *Service) upsertPatient(ctx context.Context, name string, age *int) (*SaveResult, error) {
	key := PatientKey(name, age)
	return upsertIfAbsent(ctx, Store[Patient](s.repos.Patients), catalogPatients, key,
		func(p *Patient) string { return p.ID },
		func() *Patient {
			return &Patient{ID: s.newID(), Name: name, Age: age, UniqueKey: key}
		})
}

// SaveMedicine stores a medicine combination unless an equivalent one exists.
func (s *Service) SaveMedicine(ctx context.Context, in MedicineInput) (*SaveResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.upsertMedicine(ctx, in)
}

func (s *Service) SaveInvestigation(ctx context.Context, in InvestigationInput) (*SaveResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.upsertInvestigation(ctx, in.Name)
}

func (s *Service) SaveDiagnosisInvestigation(ctx context.Context, in DiagnosisInvestigationInput) (*SaveResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.upsertDiagnosisInvestigation(ctx, in.Diagnosis, in.Investigations)
}

// search builds the declarative filter for store; matching happens in the
// store, never here.
func search[T any](ctx context.Context, store Store[T], query string, fields []Field, limit int) ([]*T, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return store.Search(ctx, SearchFilter{
		Query:  strings.TrimSpace(query),
		Fields: fields,
		Limit:  limit,
	})
}

func (s *Service) SearchMedicines(ctx context.Context, query string, limit int) ([]*Medicine, error) {
	return search(ctx, Store[Medicine](s.repos.Medicines), query,
		[]Field{FieldName, FieldDosage, FieldFrequency}, limit)
}

func (s *Service) SearchPatients(ctx context.Context, query string, limit int) ([]*Patient, error) {
	return search(ctx, Store[Patient](s.repos.Patients), query, []Field{FieldName}, limit)
}

func (s *Service) SearchInvestigations(ctx context.Context, query string, limit int) ([]*Investigation, error) {
	return search(ctx, Store[Investigation](s.repos.Investigations), query, []Field{FieldName}, limit)
}

func (s *Service) SearchDiagnosisInvestigations(ctx context.Context, query string, limit int) ([]*DiagnosisInvestigation, error) {
	return search(ctx, Store[DiagnosisInvestigation](s.repos.DiagnosisInvestigations), query,
		[]Field{FieldDiagnosis, FieldInvestigations}, limit)
}

// ListMedicines returns the medicine catalog ordered by name.
func (s *Service) ListMedicines(ctx context.Context) ([]*Medicine, error) {
	return s.repos.Medicines.ListByName(ctx, MaxListLimit)
}

// DeleteMedicine removes one medicine entry; ErrNotFound if id is unknown
// or not a UUID.
func (s *Service) DeleteMedicine(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.repos.Medicines.Delete(ctx, id)
}
