package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/frontdesk/internal/db"
)

const doctorColumns = `
	id, doctor_id, user_id, full_name, specialization, gender, phone_number,
	email, clinic_location, consultation_fee, status, accepts_walkins,
	license_number, years_of_experience, qualifications, bio, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.DoctorID,
		&d.UserID,
		&d.FullName,
		&d.Specialization,
		&d.Gender,
		&d.PhoneNumber,
		&d.Email,
		&d.ClinicLocation,
		&d.ConsultationFee,
		&d.Status,
		&d.AcceptsWalkins,
		&d.LicenseNumber,
		&d.YearsOfExperience,
		&d.Qualifications,
		&d.Bio,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &d, nil
}

func collectDoctors(rows pgx.Rows) ([]Doctor, error) {
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func scanSchedule(row pgx.Row) (*WeeklySchedule, error) {
	var s WeeklySchedule

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.DayOfWeek,
		&s.StartTime,
		&s.EndTime,
		&s.SlotMins,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow

	err := row.Scan(
		&w.ID,
		&w.DoctorID,
		&w.Date,
		&w.StartTime,
		&w.EndTime,
		&w.MaxAppointments,
		&w.IsAvailable,
		&w.UnavailabilityReason,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	return &w, nil
}

func collectWindows(rows pgx.Rows) ([]AvailabilityWindow, error) {
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Doctors

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (
			id, doctor_id, user_id, full_name, specialization, gender, phone_number,
			email, clinic_location, consultation_fee, status, accepts_walkins,
			license_number, years_of_experience, qualifications, bio, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, now(), now()
		)
	`,
		d.ID, d.DoctorID, d.UserID, d.FullName, d.Specialization, d.Gender, d.PhoneNumber,
		d.Email, d.ClinicLocation, d.ConsultationFee, d.Status, d.AcceptsWalkins,
		d.LicenseNumber, d.YearsOfExperience, d.Qualifications, d.Bio,
	)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateDoctor
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET
			full_name = $2,
			specialization = $3,
			gender = $4,
			phone_number = $5,
			email = $6,
			clinic_location = $7,
			consultation_fee = $8,
			accepts_walkins = $9,
			license_number = $10,
			years_of_experience = $11,
			qualifications = $12,
			bio = $13,
			updated_at = now()
		WHERE id = $1
	`,
		d.ID, d.FullName, d.Specialization, d.Gender, d.PhoneNumber, d.Email,
		d.ClinicLocation, d.ConsultationFee, d.AcceptsWalkins, d.LicenseNumber,
		d.YearsOfExperience, d.Qualifications, d.Bio,
	)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_doctors_license") {
			return ErrDuplicateDoctor
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Doctor, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE ($1 = '' OR specialization ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR status = 'available')
		  AND (NOT $3 OR accepts_walkins)
		ORDER BY full_name
		LIMIT $4 OFFSET $5
	`, f.Specialization, f.AvailableOnly, f.WalkinsOnly, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return collectDoctors(rows)
}

func (r *PgRepository) Search(ctx context.Context, query string, limit int) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE doctor_id ILIKE '%' || $1 || '%'
		   OR full_name ILIKE '%' || $1 || '%'
		   OR specialization ILIKE '%' || $1 || '%'
		ORDER BY full_name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return collectDoctors(rows)
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, to Status, from ...Status) (bool, error) {
	var tag pgconn.CommandTag
	var err error

	if len(from) == 0 {
		tag, err = r.pool.Exec(ctx, `
			UPDATE doctors
			SET status = $2,
			    updated_at = now()
			WHERE id = $1
		`, id, to)
	} else {
		states := make([]string, len(from))
		for i, s := range from {
			states[i] = string(s)
		}
		tag, err = r.pool.Exec(ctx, `
			UPDATE doctors
			SET status = $2,
			    updated_at = now()
			WHERE id = $1
			  AND status = ANY($3)
		`, id, to, states)
	}
	if err != nil {
		return false, fmt.Errorf("set doctor status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) CountByStatus(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'busy'),
			COUNT(*) FILTER (WHERE status = 'off_duty'),
			COUNT(*)
		FROM doctors
	`).Scan(&c.Available, &c.Busy, &c.OffDuty, &c.Total)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count doctors by status: %w", err)
	}
	return c, nil
}

// Weekly schedules

func (r *PgRepository) CreateSchedule(ctx context.Context, s *WeeklySchedule) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO weekly_schedules (
			id, doctor_id, day_of_week, start_time, end_time, slot_duration,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`, s.ID, s.DoctorID, s.DayOfWeek, s.StartTime, s.EndTime, s.SlotMins, s.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_weekly_schedule_slot") {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("insert weekly schedule: %w", err)
	}
	return nil
}

func (r *PgRepository) UpdateSchedule(ctx context.Context, s *WeeklySchedule) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE weekly_schedules SET
			day_of_week = $2,
			start_time = $3,
			end_time = $4,
			slot_duration = $5,
			is_active = $6,
			updated_at = now()
		WHERE id = $1
	`, s.ID, s.DayOfWeek, s.StartTime, s.EndTime, s.SlotMins, s.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_weekly_schedule_slot") {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("update weekly schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *PgRepository) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM weekly_schedules WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete weekly schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *PgRepository) ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]WeeklySchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, slot_duration,
		       is_active, created_at, updated_at
		FROM weekly_schedules
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_time
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list weekly schedules: %w", err)
	}
	defer rows.Close()

	var result []WeeklySchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Availability windows

func (r *PgRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_windows (
			id, doctor_id, window_date, start_time, end_time, max_appointments,
			is_available, unavailability_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	`, w.ID, w.DoctorID, w.Date, w.StartTime, w.EndTime, w.MaxAppointments,
		w.IsAvailable, w.UnavailabilityReason)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_availability_window") {
			return ErrDuplicateWindow
		}
		return fmt.Errorf("insert availability window: %w", err)
	}
	return nil
}

func (r *PgRepository) UpdateWindow(ctx context.Context, w *AvailabilityWindow) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_windows SET
			start_time = $2,
			end_time = $3,
			max_appointments = $4,
			is_available = $5,
			unavailability_reason = $6,
			updated_at = now()
		WHERE id = $1
	`, w.ID, w.StartTime, w.EndTime, w.MaxAppointments, w.IsAvailable, w.UnavailabilityReason)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_availability_window") {
			return ErrDuplicateWindow
		}
		return fmt.Errorf("update availability window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_windows WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, window_date, start_time, end_time, max_appointments,
		       is_available, unavailability_reason, created_at, updated_at
		FROM availability_windows
		WHERE id = $1
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) ListWindows(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, window_date, start_time, end_time, max_appointments,
		       is_available, unavailability_reason, created_at, updated_at
		FROM availability_windows
		WHERE doctor_id = $1
		  AND window_date >= $2
		ORDER BY window_date, start_time
	`, doctorID, from)
	if err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return collectWindows(rows)
}

func (r *PgRepository) OpenWindows(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, window_date, start_time, end_time, max_appointments,
		       is_available, unavailability_reason, created_at, updated_at
		FROM availability_windows
		WHERE doctor_id = $1
		  AND window_date = $2
		  AND is_available
		ORDER BY start_time
	`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("open availability windows: %w", err)
	}
	return collectWindows(rows)
}
