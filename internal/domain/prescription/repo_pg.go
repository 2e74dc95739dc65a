package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

type repoPG struct {
	db queryable
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{db: pool}
}

const prescriptionCols = `id, patient_name, patient_age, date, diagnosis, investigations,
	medicines, doctor_notes, created_at`

func (r *repoPG) scanRow(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var medicines []byte
	err := row.Scan(&p.ID, &p.PatientName, &p.PatientAge, &p.Date, &p.Diagnosis, &p.Investigations,
		&medicines, &p.DoctorNotes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Medicines = []MedicineLine{}
	if len(medicines) > 0 {
		if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
			return nil, fmt.Errorf("decode medicines: %w", err)
		}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return fmt.Errorf("encode medicines: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO prescriptions (`+prescriptionCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.PatientName, p.PatientAge, p.Date, p.Diagnosis, p.Investigations,
		medicines, p.DoctorNotes, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Prescription, error) {
	p, err := r.scanRow(r.db.QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select prescription: %w", err)
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter) ([]*Prescription, error) {
	query := `SELECT ` + prescriptionCols + ` FROM prescriptions`
	var args []interface{}
	if f.PatientName != "" {
		args = append(args, db.ContainsPattern(f.PatientName))
		query += ` WHERE patient_name ILIKE $1`
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	items := []*Prescription{}
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
