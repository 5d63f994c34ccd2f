package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const appointmentColumns = `
	id, appointment_id, patient_id, doctor_id, appointment_date, appointment_time,
	duration_minutes, status, appointment_type, reason_for_visit, symptoms,
	special_instructions, scheduled_by, scheduled_at, confirmed_at, checked_in_at,
	consult_started_at, consult_ended_at, cancellation_reason, cancelled_at,
	cancelled_by, rescheduled_from, notes, reminder_sent, reminder_sent_at,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.AppointmentID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.DurationMins, &a.Status, &a.Type, &a.ReasonForVisit, &a.Symptoms,
		&a.SpecialInstructions, &a.ScheduledBy, &a.ScheduledAt, &a.ConfirmedAt, &a.CheckedInAt,
		&a.ConsultStartedAt, &a.ConsultEndedAt, &a.CancellationReason, &a.CancelledAt,
		&a.CancelledBy, &a.RescheduledFrom, &a.Notes, &a.ReminderSent, &a.ReminderSentAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return scanAppointment(r.pool.QueryRow(ctx, query, id))
}

func (r *PgRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_id = $1`
	return scanAppointment(r.pool.QueryRow(ctx, query, appointmentID))
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, appointment_id, patient_id, doctor_id, appointment_date, appointment_time,
			duration_minutes, status, appointment_type, reason_for_visit, symptoms,
			special_instructions, scheduled_by, scheduled_at, rescheduled_from, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.AppointmentID, a.PatientID, a.DoctorID, a.Date, a.Time,
		a.DurationMins, a.Status, a.Type, a.ReasonForVisit, a.Symptoms,
		a.SpecialInstructions, a.ScheduledBy, a.ScheduledAt, a.RescheduledFrom, a.Notes,
	)
	if db.IsUniqueViolation(err, "uq_appointments_active_slot") {
		return ErrSlotConflict
	}
	if db.IsUniqueViolation(err, "uq_appointments_public_id") {
		return ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
			  AND status IN ('scheduled', 'confirmed', 'checked_in')
		)`

	var taken bool
	if err := r.pool.QueryRow(ctx, query, doctorID, date, hhmm).Scan(&taken); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (r *PgRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	query := `
		SELECT appointment_time FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2
		  AND status IN ('scheduled', 'confirmed', 'checked_in')
		ORDER BY appointment_time`

	rows, err := r.pool.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("query booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan booked time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booked times: %w", err)
	}
	return times, nil
}

func (r *PgRepository) CountBookedInWindow(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end string) (int, error) {
	query := `
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2
		  AND appointment_time >= $3 AND appointment_time < $4
		  AND status IN ('scheduled', 'confirmed', 'checked_in')`

	var n int
	if err := r.pool.QueryRow(ctx, query, doctorID, date, start, end).Scan(&n); err != nil {
		return 0, fmt.Errorf("count booked in window: %w", err)
	}
	return n, nil
}

func (r *PgRepository) transition(ctx context.Context, query string, args ...any) (bool, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'confirmed', confirmed_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'scheduled'`,
		id, at)
}

func (r *PgRepository) MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'checked_in', checked_in_at = $2, updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')`,
		id, at)
}

func (r *PgRepository) MarkInProgress(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'in_progress', consult_started_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'checked_in'`,
		id, at)
}

func (r *PgRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'completed', consult_ended_at = $2, updated_at = now()
		WHERE id = $1 AND status IN ('checked_in', 'in_progress')`,
		id, at)
}

func (r *PgRepository) MarkNoShow(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'no_show', updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')`,
		id)
}

func (r *PgRepository) MarkCancelled(ctx context.Context, id uuid.UUID, reason string, by *uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'cancelled', cancellation_reason = $2, cancelled_by = $3, cancelled_at = $4, updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')`,
		id, reason, by, at)
}

func (r *PgRepository) MarkRescheduled(ctx context.Context, id uuid.UUID, note string) (bool, error) {
	return r.transition(ctx, `
		UPDATE appointments
		SET status = 'rescheduled', notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END, updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')`,
		id, note)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []any{}
	n := 0

	next := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.DoctorID != nil {
		query += ` AND doctor_id = ` + next(*f.DoctorID)
	}
	if f.PatientID != nil {
		query += ` AND patient_id = ` + next(*f.PatientID)
	}
	if f.Date != nil {
		query += ` AND appointment_date = ` + next(*f.Date)
	}
	if f.From != nil {
		query += ` AND appointment_date >= ` + next(*f.From)
	}
	if f.To != nil {
		query += ` AND appointment_date <= ` + next(*f.To)
	}
	if f.Status != "" {
		query += ` AND status = ` + next(f.Status)
	}

	query += ` ORDER BY appointment_date, appointment_time`
	if f.Limit > 0 {
		query += ` LIMIT ` + next(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + next(f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CountByStatusOnDate(ctx context.Context, date time.Time) (StatusCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'checked_in'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'no_show')
		FROM appointments
		WHERE appointment_date = $1`

	var c StatusCounts
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&c.Total, &c.Scheduled, &c.Confirmed, &c.CheckedIn,
		&c.Completed, &c.Cancelled, &c.NoShow,
	)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count appointments by status: %w", err)
	}
	return c, nil
}

func (r *PgRepository) CountWithPrefix(ctx context.Context, prefix string) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE appointment_id LIKE $1 || '%'`

	var n int
	if err := r.pool.QueryRow(ctx, query, prefix).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointment ids: %w", err)
	}
	return n, nil
}

func (r *PgRepository) UpcomingForReminders(ctx context.Context, date time.Time, limit int) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date = $1
		  AND status IN ('scheduled', 'confirmed')
		  AND NOT reminder_sent
		ORDER BY appointment_time
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, date, limit)
	if err != nil {
		return nil, fmt.Errorf("query reminder candidates: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent = TRUE, reminder_sent_at = now(), updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
