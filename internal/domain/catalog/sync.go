package catalog

import (
	"context"
)

// Visit carries the fields of a persisted prescription that feed the catalogs.
// Empty Diagnosis/Investigations mean "not recorded".
type Visit struct {
	PrescriptionID string
	PatientName    string
	PatientAge     *int
	Diagnosis      string
	Investigations string
	Medicines      []MedicineInput
}

// SyncReport counts what a Sync call did, per catalog.
type SyncReport struct {
	PatientsCreated                int
	DiagnosisInvestigationsCreated int
	InvestigationsCreated          int
	MedicinesCreated               int
	Failures                       int
}

// Sync upserts every catalog entry implied by v. It runs after the
// prescription is stored and is best-effort: a failed upsert is logged and
// counted, the remaining upserts still run, and nothing is returned to fail
// the caller.
func (s *Service) Sync(ctx context.Context, v Visit) SyncReport {
	var report SyncReport
	log := s.logger.With().Str("prescription_id", v.PrescriptionID).Logger()

	record := func(catalog string, res *SaveResult, err error, created *int) {
		if err != nil {
			report.Failures++
			log.Warn().Err(err).Str("catalog", catalog).Msg("catalog sync failed")
			return
		}
		if !res.Exists {
			*created++
		}
	}

	res, err := s.upsertPatient(ctx, v.PatientName, v.PatientAge)
	record(catalogPatients, res, err, &report.PatientsCreated)

	if !isBlank(v.Diagnosis) && !isBlank(v.Investigations) {
		res, err = s.upsertDiagnosisInvestigation(ctx, v.Diagnosis, v.Investigations)
		record(catalogDiagnosisInvestigations, res, err, &report.DiagnosisInvestigationsCreated)
	}

	// Independent of the pair above: one field can feed both catalogs.
	if !isBlank(v.Investigations) {
		res, err = s.upsertInvestigation(ctx, v.Investigations)
		record(catalogInvestigations, res, err, &report.InvestigationsCreated)
	}

	for _, med := range v.Medicines {
		res, err = s.upsertMedicine(ctx, med)
		record(catalogMedicines, res, err, &report.MedicinesCreated)
	}

	log.Debug().
		Int("patients_created", report.PatientsCreated).
		Int("medicines_created", report.MedicinesCreated).
		Int("investigations_created", report.InvestigationsCreated).
		Int("diagnosis_investigations_created", report.DiagnosisInvestigationsCreated).
		Int("failures", report.Failures).
		Msg("catalog sync finished")

	return report
}
