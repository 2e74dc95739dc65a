package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// -- Mock Repositories --

type mockStore[T any] struct {
	mu        sync.Mutex
	items     []*T
	keyOf     func(*T) string
	fieldOf   func(*T, Field) string
	findErr   error
	createErr error
	searches  []SearchFilter
}

func (m *mockStore[T]) FindByKey(_ context.Context, key string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, it := range m.items {
		if m.keyOf(it) == key {
			return it, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStore[T]) Create(_ context.Context, entry *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items = append(m.items, entry)
	return nil
}

func (m *mockStore[T]) Search(_ context.Context, f SearchFilter) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, f)
	result := []*T{}
	q := strings.ToLower(f.Query)
	for _, it := range m.items {
		if len(result) >= f.Limit {
			break
		}
		if q == "" {
			result = append(result, it)
			continue
		}
		for _, field := range f.Fields {
			if strings.Contains(strings.ToLower(m.fieldOf(it, field)), q) {
				result = append(result, it)
				break
			}
		}
	}
	return result, nil
}

func (m *mockStore[T]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type mockMedicineRepo struct {
	*mockStore[Medicine]
}

func (m *mockMedicineRepo) ListByName(_ context.Context, limit int) ([]*Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*Medicine(nil), m.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockMedicineRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type mockRepos struct {
	medicines *mockMedicineRepo
	patients  *mockStore[Patient]
	invs      *mockStore[Investigation]
	dis       *mockStore[DiagnosisInvestigation]
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		medicines: &mockMedicineRepo{&mockStore[Medicine]{
			keyOf: func(m *Medicine) string { return m.UniqueKey },
			fieldOf: func(m *Medicine, f Field) string {
				switch f {
				case FieldName:
					return m.Name
				case FieldDosage:
					return m.Dosage
				case FieldFrequency:
					return m.Frequency
				}
				return ""
			},
		}},
		patients: &mockStore[Patient]{
			keyOf:   func(p *Patient) string { return p.UniqueKey },
			fieldOf: func(p *Patient, _ Field) string { return p.Name },
		},
		invs: &mockStore[Investigation]{
			keyOf:   func(i *Investigation) string { return i.UniqueKey },
			fieldOf: func(i *Investigation, _ Field) string { return i.Name },
		},
		dis: &mockStore[DiagnosisInvestigation]{
			keyOf: func(d *DiagnosisInvestigation) string { return d.UniqueKey },
			fieldOf: func(d *DiagnosisInvestigation, f Field) string {
				if f == FieldDiagnosis {
					return d.Diagnosis
				}
				return d.Investigations
			},
		},
	}
}

func (m *mockRepos) repositories() Repositories {
	return Repositories{
		Medicines:               m.medicines,
		Patients:                m.patients,
		Investigations:          m.invs,
		DiagnosisInvestigations: m.dis,
	}
}

func newTestService() (*Service, *mockRepos) {
	repos := newMockRepos()
	return NewService(repos.repositories(), zerolog.New(io.Discard)), repos
}

func strPtr(s string) *string { return &s }

// -- Explicit save --

func TestService_SaveMedicine_Idempotent(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	first, err := svc.SaveMedicine(ctx, MedicineInput{Name: "Aspirin ", Dosage: strPtr(" 75mg"), Frequency: "Daily "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Exists {
		t.Error("expected first save to create an entry")
	}

	second, err := svc.SaveMedicine(ctx, MedicineInput{Name: "aspirin", Dosage: strPtr("75MG"), Frequency: "daily"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Exists {
		t.Error("expected second save to report an existing entry")
	}
	if second.ID != first.ID {
		t.Errorf("expected id %s, got %s", first.ID, second.ID)
	}
	if repos.medicines.count() != 1 {
		t.Errorf("expected 1 medicine entry, got %d", repos.medicines.count())
	}
	if got := repos.medicines.items[0].Name; got != "Aspirin " {
		t.Errorf("expected original casing to be stored, got %q", got)
	}
}

func TestService_SaveMedicine_NoDosage(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	a, _ := svc.SaveMedicine(ctx, MedicineInput{Name: "Cetirizine", Frequency: "At night"})
	b, _ := svc.SaveMedicine(ctx, MedicineInput{Name: "Cetirizine", Dosage: strPtr(""), Frequency: "At night"})
	c, _ := svc.SaveMedicine(ctx, MedicineInput{Name: "Cetirizine", Dosage: strPtr("10mg"), Frequency: "At night"})

	if !b.Exists || b.ID != a.ID {
		t.Error("expected nil and empty dosage to share one entry")
	}
	if c.Exists {
		t.Error("expected explicit dosage to create a distinct entry")
	}
	if repos.medicines.count() != 2 {
		t.Errorf("expected 2 entries, got %d", repos.medicines.count())
	}
	if repos.medicines.items[0].Dosage != "" {
		t.Errorf("expected empty stored dosage, got %q", repos.medicines.items[0].Dosage)
	}
}

func TestService_SaveValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SaveMedicine(ctx, MedicineInput{Name: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for blank medicine, got %v", err)
	}
	if _, err := svc.SaveInvestigation(ctx, InvestigationInput{}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for blank investigation, got %v", err)
	}
	if _, err := svc.SaveDiagnosisInvestigation(ctx, DiagnosisInvestigationInput{Diagnosis: "Fever"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for missing investigations, got %v", err)
	}
}

func TestService_SaveInvestigation_TrimsName(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	first, err := svc.SaveInvestigation(ctx, InvestigationInput{Name: "  CBC  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := svc.SaveInvestigation(ctx, InvestigationInput{Name: "cbc"})
	if !second.Exists || second.ID != first.ID {
		t.Error("expected second save to match the first")
	}
	if repos.invs.items[0].Name != "CBC" {
		t.Errorf("expected trimmed name, got %q", repos.invs.items[0].Name)
	}
}

func TestService_SaveDiagnosisInvestigation(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	first, _ := svc.SaveDiagnosisInvestigation(ctx, DiagnosisInvestigationInput{Diagnosis: "Fever", Investigations: "CBC"})
	second, _ := svc.SaveDiagnosisInvestigation(ctx, DiagnosisInvestigationInput{Diagnosis: "FEVER ", Investigations: " cbc"})
	if first.Exists || !second.Exists || first.ID != second.ID {
		t.Errorf("unexpected results: %+v %+v", first, second)
	}
	if repos.dis.count() != 1 {
		t.Errorf("expected 1 entry, got %d", repos.dis.count())
	}
}

func TestService_SaveLookupFailure(t *testing.T) {
	svc, repos := newTestService()
	repos.medicines.findErr = fmt.Errorf("connection reset")

	if _, err := svc.SaveMedicine(context.Background(), MedicineInput{Name: "Aspirin"}); err == nil {
		t.Fatal("expected lookup error to surface from explicit save")
	}
	if repos.medicines.count() != 0 {
		t.Error("expected nothing to be inserted after a failed lookup")
	}
}

// -- Search --

func TestService_SearchMedicines(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		svc.SaveMedicine(ctx, MedicineInput{Name: fmt.Sprintf("Med%02d", i), Frequency: "daily"})
	}
	svc.SaveMedicine(ctx, MedicineInput{Name: "Paracetamol", Dosage: strPtr("500mg"), Frequency: "Twice daily"})

	all, err := svc.SearchMedicines(ctx, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != DefaultSearchLimit {
		t.Errorf("expected %d results, got %d", DefaultSearchLimit, len(all))
	}

	hits, _ := svc.SearchMedicines(ctx, "PARA", 0)
	if len(hits) != 1 || hits[0].Name != "Paracetamol" {
		t.Errorf("expected Paracetamol, got %v", hits)
	}

	byDosage, _ := svc.SearchMedicines(ctx, "500M", 0)
	if len(byDosage) != 1 {
		t.Errorf("expected match on dosage, got %d", len(byDosage))
	}

	none, err := svc.SearchMedicines(ctx, "zzz-nothing", 0)
	if err != nil {
		t.Fatalf("expected no error for empty result, got %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestService_SearchPassesDeclarativeFilter(t *testing.T) {
	svc, repos := newTestService()

	svc.SearchDiagnosisInvestigations(context.Background(), "  fever ", 10)

	if len(repos.dis.searches) != 1 {
		t.Fatalf("expected 1 store search, got %d", len(repos.dis.searches))
	}
	f := repos.dis.searches[0]
	if f.Query != "fever" {
		t.Errorf("expected trimmed query, got %q", f.Query)
	}
	if f.Limit != 10 {
		t.Errorf("expected limit 10, got %d", f.Limit)
	}
	if len(f.Fields) != 2 || f.Fields[0] != FieldDiagnosis || f.Fields[1] != FieldInvestigations {
		t.Errorf("unexpected fields %v", f.Fields)
	}
}

// -- Medicine management --

func TestService_ListAndDeleteMedicines(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.SaveMedicine(ctx, MedicineInput{Name: "Zinc", Frequency: "daily"})
	res, _ := svc.SaveMedicine(ctx, MedicineInput{Name: "Amoxicillin", Frequency: "thrice"})

	list, err := svc.ListMedicines(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Amoxicillin" {
		t.Errorf("expected name ordering, got %v", list)
	}

	if err := svc.DeleteMedicine(ctx, res.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteMedicine(ctx, res.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeat delete, got %v", err)
	}
}
