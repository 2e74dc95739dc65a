package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rxpad/rxpad/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// pgTable implements Store[T] over one catalog table.
type pgTable[T any] struct {
	db      queryable
	table   string
	cols    []string
	columns map[Field]string
	scan    func(row pgx.Row) (*T, error)
	values  func(entry *T) []interface{}
}

func (t *pgTable[T]) selectCols() string {
	return strings.Join(t.cols, ", ")
}

func (t *pgTable[T]) FindByKey(ctx context.Context, key string) (*T, error) {
	entry, err := t.scan(t.db.QueryRow(ctx,
		`SELECT `+t.selectCols()+` FROM `+t.table+` WHERE unique_key = $1 LIMIT 1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s by key: %w", t.table, err)
	}
	return entry, nil
}

func (t *pgTable[T]) Create(ctx context.Context, entry *T) error {
	placeholders := make([]string, len(t.cols))
	for i := range t.cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	_, err := t.db.Exec(ctx,
		`INSERT INTO `+t.table+` (`+t.selectCols()+`) VALUES (`+strings.Join(placeholders, ",")+`)`,
		t.values(entry)...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.table, err)
	}
	return nil
}

func (t *pgTable[T]) Search(ctx context.Context, f SearchFilter) ([]*T, error) {
	query := `SELECT ` + t.selectCols() + ` FROM ` + t.table
	var args []interface{}

	if f.Query != "" {
		var conds []string
		for _, field := range f.Fields {
			col, ok := t.columns[field]
			if !ok {
				return nil, validationError(fmt.Sprintf("field %q is not searchable in %s", field, t.table))
			}
			conds = append(conds, col+` ILIKE $1`)
		}
		if len(conds) == 0 {
			return nil, validationError("at least one search field is required")
		}
		query += ` WHERE ` + strings.Join(conds, " OR ")
		args = append(args, db.ContainsPattern(f.Query))
	}

	query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
	args = append(args, f.Limit)

	return t.queryAll(ctx, query, args...)
}

func (t *pgTable[T]) queryAll(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.table, err)
	}
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		entry, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.table, err)
		}
		items = append(items, entry)
	}
	return items, rows.Err()
}

// -- Medicines --

type medicineRepoPG struct {
	*pgTable[Medicine]
}

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository {
	return &medicineRepoPG{&pgTable[Medicine]{
		db:    pool,
		table: "medicines",
		cols:  []string{"id", "name", "dosage", "frequency", "unique_key"},
		columns: map[Field]string{
			FieldName: "name", FieldDosage: "dosage", FieldFrequency: "frequency",
		},
		scan: func(row pgx.Row) (*Medicine, error) {
			var m Medicine
			err := row.Scan(&m.ID, &m.Name, &m.Dosage, &m.Frequency, &m.UniqueKey)
			return &m, err
		},
		values: func(m *Medicine) []interface{} {
			return []interface{}{m.ID, m.Name, m.Dosage, m.Frequency, m.UniqueKey}
		},
	}}
}

func (r *medicineRepoPG) ListByName(ctx context.Context, limit int) ([]*Medicine, error) {
	return r.queryAll(ctx, `SELECT `+r.selectCols()+` FROM medicines ORDER BY name ASC LIMIT $1`, limit)
}

func (r *medicineRepoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// -- Patients --

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &pgTable[Patient]{
		db:      pool,
		table:   "patients",
		cols:    []string{"id", "name", "age", "unique_key"},
		columns: map[Field]string{FieldName: "name"},
		scan: func(row pgx.Row) (*Patient, error) {
			var p Patient
			err := row.Scan(&p.ID, &p.Name, &p.Age, &p.UniqueKey)
			return &p, err
		},
		values: func(p *Patient) []interface{} {
			return []interface{}{p.ID, p.Name, p.Age, p.UniqueKey}
		},
	}
}

// -- Investigations --

func NewInvestigationRepoPG(pool *pgxpool.Pool) InvestigationRepository {
	return &pgTable[Investigation]{
		db:      pool,
		table:   "investigations",
		cols:    []string{"id", "name", "unique_key"},
		columns: map[Field]string{FieldName: "name"},
		scan: func(row pgx.Row) (*Investigation, error) {
			var i Investigation
			err := row.Scan(&i.ID, &i.Name, &i.UniqueKey)
			return &i, err
		},
		values: func(i *Investigation) []interface{} {
			return []interface{}{i.ID, i.Name, i.UniqueKey}
		},
	}
}

// -- Diagnosis / investigation pairs --

func NewDiagnosisInvestigationRepoPG(pool *pgxpool.Pool) DiagnosisInvestigationRepository {
	return &pgTable[DiagnosisInvestigation]{
		db:    pool,
		table: "diagnosis_investigations",
		cols:  []string{"id", "diagnosis", "investigations", "unique_key"},
		columns: map[Field]string{
			FieldDiagnosis: "diagnosis", FieldInvestigations: "investigations",
		},
		scan: func(row pgx.Row) (*DiagnosisInvestigation, error) {
			var d DiagnosisInvestigation
			err := row.Scan(&d.ID, &d.Diagnosis, &d.Investigations, &d.UniqueKey)
			return &d, err
		},
		values: func(d *DiagnosisInvestigation) []interface{} {
			return []interface{}{d.ID, d.Diagnosis, d.Investigations, d.UniqueKey}
		},
	}
}

// NewRepositoriesPG wires all catalog collections to Postgres.
func NewRepositoriesPG(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Medicines:               NewMedicineRepoPG(pool),
		Patients:                NewPatientRepoPG(pool),
		Investigations:          NewInvestigationRepoPG(pool),
		DiagnosisInvestigations: NewDiagnosisInvestigationRepoPG(pool),
	}
}
