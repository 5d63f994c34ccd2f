package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/frontdesk/internal/db"
)

const patientColumns = `
	id, patient_id, first_name, last_name, date_of_birth, gender, blood_group,
	phone_number, email, address_line1, address_line2, city, state, pincode,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
	allergies, chronic_conditions, current_medications,
	registered_by, is_active, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.Gender,
		&p.BloodGroup,
		&p.PhoneNumber,
		&p.Email,
		&p.AddressLine1,
		&p.AddressLine2,
		&p.City,
		&p.State,
		&p.Pincode,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.EmergencyContactRelation,
		&p.Allergies,
		&p.ChronicConditions,
		&p.CurrentMedications,
		&p.RegisteredBy,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]Patient, error) {
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE patient_id = $1
	`, patientID)
	return scanPatient(row)
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (
			id, patient_id, first_name, last_name, date_of_birth, gender, blood_group,
			phone_number, email, address_line1, address_line2, city, state, pincode,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
			allergies, chronic_conditions, current_medications,
			registered_by, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20,
			$21, $22, now(), now()
		)
	`,
		p.ID, p.PatientID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.PhoneNumber, p.Email, p.AddressLine1, p.AddressLine2, p.City, p.State, p.Pincode,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelation,
		p.Allergies, p.ChronicConditions, p.CurrentMedications,
		p.RegisteredBy, p.IsActive,
	)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_patients_public_id") {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients SET
			first_name = $2,
			last_name = $3,
			date_of_birth = $4,
			gender = $5,
			blood_group = $6,
			phone_number = $7,
			email = $8,
			address_line1 = $9,
			address_line2 = $10,
			city = $11,
			state = $12,
			pincode = $13,
			emergency_contact_name = $14,
			emergency_contact_phone = $15,
			emergency_contact_relation = $16,
			allergies = $17,
			chronic_conditions = $18,
			current_medications = $19,
			updated_at = now()
		WHERE id = $1
	`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.PhoneNumber, p.Email, p.AddressLine1, p.AddressLine2, p.City, p.State, p.Pincode,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelation,
		p.Allergies, p.ChronicConditions, p.CurrentMedications,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET is_active = FALSE,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Patient, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE ($1 = '' OR
		       patient_id ILIKE '%' || $1 || '%' OR
		       first_name ILIKE '%' || $1 || '%' OR
		       last_name ILIKE '%' || $1 || '%' OR
		       phone_number ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR is_active)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, f.Query, f.ActiveOnly, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return collectPatients(rows)
}

func (r *PgRepository) Search(ctx context.Context, query string, limit int) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE is_active
		  AND (patient_id ILIKE '%' || $1 || '%' OR
		       first_name ILIKE '%' || $1 || '%' OR
		       last_name ILIKE '%' || $1 || '%' OR
		       phone_number ILIKE '%' || $1 || '%')
		ORDER BY last_name, first_name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return collectPatients(rows)
}

func (r *PgRepository) MaxSequence(ctx context.Context) (int, error) {
	// Public IDs are fixed width, so the lexicographic max carries the
	// numeric max.
	var maxID *string
	err := r.pool.QueryRow(ctx, `
		SELECT MAX(patient_id) FROM patients
	`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("max patient sequence: %w", err)
	}
	if maxID == nil {
		return 0, nil
	}
	seq, ok := ParsePatientSeq(*maxID)
	if !ok {
		return 0, fmt.Errorf("malformed patient id %q", *maxID)
	}
	return seq, nil
}

func (r *PgRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM patients WHERE is_active
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active patients: %w", err)
	}
	return n, nil
}
