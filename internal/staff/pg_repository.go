package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/frontdesk/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const userColumns = `
	id, username, first_name, last_name, email, phone_number, password_hash,
	role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *PgRepository) CreateUserWithProfile(ctx context.Context, u *User, p *StaffProfile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name, email, phone_number, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PhoneNumber,
		u.PasswordHash, u.Role, u.IsActive,
	)
	if db.IsUniqueViolation(err, "uq_users_username") {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO staff_profiles (id, user_id, employee_id, shift, department)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.EmployeeID, p.Shift, p.Department,
	)
	if db.IsUniqueViolation(err, "uq_staff_employee_id") {
		return ErrDuplicateEmployeeID
	}
	if err != nil {
		return fmt.Errorf("insert staff profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PgRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*StaffProfile, error) {
	query := `
		SELECT id, user_id, employee_id, shift, department, date_joined
		FROM staff_profiles
		WHERE user_id = $1`

	var p StaffProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.EmployeeID, &p.Shift, &p.Department, &p.DateJoined,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan staff profile: %w", err)
	}
	return &p, nil
}

func (r *PgRepository) MaxEmployeeSeq(ctx context.Context) (int, error) {
	// Employee ids are fixed width, so the lexicographic max is the numeric max.
	query := `SELECT COALESCE(MAX(employee_id), '') FROM staff_profiles`

	var maxID string
	if err := r.pool.QueryRow(ctx, query).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("query max employee id: %w", err)
	}
	if maxID == "" {
		return 0, nil
	}

	var seq int
	if _, err := fmt.Sscanf(maxID, "EMP%d", &seq); err != nil {
		return 0, fmt.Errorf("parse employee id %q: %w", maxID, err)
	}
	return seq, nil
}
