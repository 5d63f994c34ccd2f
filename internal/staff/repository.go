package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("user not found")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDuplicateEmployeeID = errors.New("employee id already taken")
)

type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// CreateUserWithProfile inserts the user and the staff profile in one
	// transaction, so a half-registered account can never be observed.
	CreateUserWithProfile(ctx context.Context, u *User, p *StaffProfile) error
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*StaffProfile, error)
	// MaxEmployeeSeq returns the highest numeric suffix of any employee id,
	// or 0 when no profiles exist.
	MaxEmployeeSeq(ctx context.Context) (int, error)
}
