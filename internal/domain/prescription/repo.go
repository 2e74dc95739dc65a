package prescription

import "context"

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id string) (*Prescription, error)
	// List returns matches newest first.
	List(ctx context.Context, f ListFilter) ([]*Prescription, error)
	Delete(ctx context.Context, id string) error
}
