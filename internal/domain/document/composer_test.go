package document

import (
	"reflect"
	"testing"
	"time"

	"github.com/rxpad/rxpad/internal/domain/prescription"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }

func testLetterhead() Letterhead {
	return Letterhead{
		Left:        NameBlock{Name: "Dr. Sanjiv Maheshwari", Credentials: "M.B.B.S., M.D."},
		Right:       NameBlock{Name: "डॉ. संजीव माहेश्वरी", Credentials: "एम.बी.बी.एस."},
		Institution: "Consultant Physician",
		Footer:      "Not valid for medico-legal purposes",
	}
}

func fullPrescription() *prescription.Prescription {
	return &prescription.Prescription{
		ID:             "2b0e8f61-6a63-4d4b-9a55-0d6f1e7f1c11",
		PatientName:    "John Doe",
		PatientAge:     intPtr(35),
		Date:           "01/05/2024",
		Diagnosis:      strPtr("Viral fever"),
		Investigations: strPtr("CBC, Widal"),
		Medicines: []prescription.MedicineLine{
			{Name: "Paracetamol", Dosage: strPtr("500mg"), Frequency: "Twice daily"},
			{Name: "ORS", Frequency: "After each loose stool"},
		},
		DoctorNotes: strPtr("Plenty of fluids"),
		CreatedAt:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestComposer_PreprintedOrder(t *testing.T) {
	doc := NewComposer(VariantPreprinted, testLetterhead()).Compose(fullPrescription())

	want := []BlockKind{BlockPatient, BlockDiagnosis, BlockInvestigations, BlockMedicines, BlockNotes}
	if got := doc.Kinds(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestComposer_LetterheadOrder(t *testing.T) {
	doc := NewComposer(VariantLetterhead, testLetterhead()).Compose(fullPrescription())

	want := []BlockKind{BlockHeader, BlockPatient, BlockDiagnosis, BlockInvestigations,
		BlockMedicines, BlockNotes, BlockSignature}
	if got := doc.Kinds(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	sig := doc.Blocks[len(doc.Blocks)-1]
	if sig.Label != "Dr. Sanjiv Maheshwari" || sig.Text != "M.B.B.S., M.D." {
		t.Errorf("unexpected signature block %+v", sig)
	}
}

func TestComposer_OmitsEmptyOptionalBlocks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *prescription.Prescription)
		absent []BlockKind
	}{
		{"nothing optional", func(p *prescription.Prescription) {
			p.Diagnosis, p.Investigations, p.DoctorNotes = nil, nil, nil
		}, []BlockKind{BlockDiagnosis, BlockInvestigations, BlockNotes}},
		{"blank strings", func(p *prescription.Prescription) {
			p.Diagnosis, p.Investigations, p.DoctorNotes = strPtr(""), strPtr("  "), strPtr("\n")
		}, []BlockKind{BlockDiagnosis, BlockInvestigations, BlockNotes}},
		{"no diagnosis", func(p *prescription.Prescription) { p.Diagnosis = nil }, []BlockKind{BlockDiagnosis}},
		{"no notes", func(p *prescription.Prescription) { p.DoctorNotes = nil }, []BlockKind{BlockNotes}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullPrescription()
			tt.mutate(p)
			doc := NewComposer(VariantPreprinted, Letterhead{}).Compose(p)
			for _, k := range tt.absent {
				if doc.Has(k) {
					t.Errorf("expected %s block to be omitted, got %v", k, doc.Kinds())
				}
			}
			if !doc.Has(BlockPatient) || !doc.Has(BlockMedicines) {
				t.Errorf("patient and medicines blocks are always present, got %v", doc.Kinds())
			}
		})
	}
}

func TestComposer_MedicineTable(t *testing.T) {
	p := fullPrescription()
	p.Medicines = append(p.Medicines, prescription.MedicineLine{Name: "Zinc", Dosage: strPtr("  "), Frequency: "OD"})
	doc := NewComposer(VariantPreprinted, Letterhead{}).Compose(p)

	var table Block
	for _, b := range doc.Blocks {
		if b.Kind == BlockMedicines {
			table = b
		}
	}
	want := [][]string{
		{"Paracetamol", "500mg", "Twice daily"},
		{"ORS", MissingDosage, "After each loose stool"},
		{"Zinc", MissingDosage, "OD"},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("expected rows %v, got %v", want, table.Rows)
	}
	if table.Title != "Rx" {
		t.Errorf("expected Rx title, got %q", table.Title)
	}
}

func TestComposer_EmptyMedicinesStillHasTable(t *testing.T) {
	p := fullPrescription()
	p.Medicines = []prescription.MedicineLine{}
	doc := NewComposer(VariantPreprinted, Letterhead{}).Compose(p)

	if !doc.Has(BlockMedicines) {
		t.Error("expected medicine table even with no lines")
	}
}

func TestPatientLine(t *testing.T) {
	p := fullPrescription()
	if got := PatientLine(p); got != "Patient Name: John Doe | Age: 35 | Date: 01/05/2024" {
		t.Errorf("unexpected line %q", got)
	}
	p.PatientAge = nil
	if got := PatientLine(p); got != "Patient Name: John Doe | Date: 01/05/2024" {
		t.Errorf("unexpected line without age %q", got)
	}
	p.PatientAge = intPtr(0)
	if got := PatientLine(p); got != "Patient Name: John Doe | Age: 0 | Date: 01/05/2024" {
		t.Errorf("expected recorded age 0 to be shown, got %q", got)
	}
}

func TestParseVariant(t *testing.T) {
	for _, s := range []string{"preprinted", "letterhead"} {
		if v, err := ParseVariant(s); err != nil || string(v) != s {
			t.Errorf("ParseVariant(%q) = %q, %v", s, v, err)
		}
	}
	if _, err := ParseVariant("fancy"); err == nil {
		t.Error("expected error for unknown variant")
	}
}
