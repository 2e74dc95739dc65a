package prescription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/domain/catalog"
	"github.com/rxpad/rxpad/internal/platform/auth"
)

// MaxListLimit caps GET /prescriptions.
const MaxListLimit = 1000

// CatalogSyncer derives catalog entries from a stored prescription.
type CatalogSyncer interface {
	Sync(ctx context.Context, v catalog.Visit) catalog.SyncReport
}

type Service struct {
	repo   Repository
	syncer CatalogSyncer
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, syncer CatalogSyncer, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		syncer: syncer,
		logger: logger.With().Str("component", "prescription").Logger(),
		now:    time.Now,
	}
}

// Create validates req, stores the prescription and then runs catalog sync.
// Sync failures never fail the call: the prescription is already stored.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Prescription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	medicines := req.Medicines
	if medicines == nil {
		medicines = []MedicineLine{}
	}
	p := &Prescription{
		ID:             uuid.NewString(),
		PatientName:    req.PatientName,
		PatientAge:     req.PatientAge,
		Date:           req.Date,
		Diagnosis:      req.Diagnosis,
		Investigations: req.Investigations,
		Medicines:      medicines,
		DoctorNotes:    req.DoctorNotes,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	// The client may hang up once the write is acknowledged; sync still runs.
	report := s.syncer.Sync(context.WithoutCancel(ctx), visitOf(p))
	if report.Failures > 0 {
		s.logger.Warn().
			Str("prescription_id", p.ID).
			Int("failures", report.Failures).
			Msg("prescription stored with incomplete catalog sync")
	}
	s.logger.Info().
		Str("prescription_id", p.ID).
		Str("username", auth.UsernameFromContext(ctx)).
		Int("medicines", len(p.Medicines)).
		Msg("prescription created")
	return p, nil
}

func visitOf(p *Prescription) catalog.Visit {
	v := catalog.Visit{
		PrescriptionID: p.ID,
		PatientName:    p.PatientName,
		PatientAge:     p.PatientAge,
		Diagnosis:      raw(p.Diagnosis),
		Investigations: raw(p.Investigations),
		Medicines:      make([]catalog.MedicineInput, 0, len(p.Medicines)),
	}
	for _, m := range p.Medicines {
		in := catalog.MedicineInput{Name: m.Name, Frequency: m.Frequency}
		if m.HasDosage() {
			in.Dosage = m.Dosage
		}
		v.Medicines = append(v.Medicines, in)
	}
	return v
}

// raw keeps the text as entered; catalog keys normalise it themselves.
func raw(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Get returns ErrNotFound for ids that are not UUIDs, since no record can
// carry one.
func (s *Service) Get(ctx context.Context, id string) (*Prescription, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List returns prescriptions newest first, optionally filtered by a
// case-insensitive patient name substring.
func (s *Service) List(ctx context.Context, patientName string, limit int) ([]*Prescription, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, err := s.repo.List(ctx, ListFilter{PatientName: strings.TrimSpace(patientName), Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
