package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("patient not found")
	ErrDuplicateID = errors.New("patient id already taken")
)

type ListFilter struct {
	Query      string // matches public ID, names or phone
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository contains all DB interactions needed by the patient service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)

	// Create inserts a new patient. A taken public ID surfaces as
	// ErrDuplicateID so the caller can regenerate and retry.
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, f ListFilter) ([]Patient, error)
	Search(ctx context.Context, query string, limit int) ([]Patient, error)

	// MaxSequence returns the highest numeric suffix among existing public
	// patient IDs, 0 when none exist.
	MaxSequence(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}
