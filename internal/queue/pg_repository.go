package queue

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

const entryColumns = `
	id, queue_number, patient_id, doctor_id, status, priority, arrival_time,
	called_at, consult_started_at, consult_ended_at, estimated_wait_min,
	reason_for_visit, notes, added_by, queue_date, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.QueueNumber, &e.PatientID, &e.DoctorID, &e.Status,
		&e.Priority, &e.ArrivedAt, &e.CalledAt, &e.ConsultStartedAt,
		&e.ConsultEndedAt, &e.EstimatedWaitMin, &e.ReasonForVisit,
		&e.Notes, &e.AddedBy, &e.QueueDate, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan queue entry: %w", err)
	}
	return &e, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE id = $1`
	return scanEntry(r.pool.QueryRow(ctx, query, id))
}

func (r *PgRepository) GetByQueueNumber(ctx context.Context, number string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE queue_number = $1`
	return scanEntry(r.pool.QueryRow(ctx, query, number))
}

func (r *PgRepository) Create(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO queue_entries (
			id, queue_number, patient_id, doctor_id, status, priority, arrival_time,
			estimated_wait_min, reason_for_visit, notes, added_by, queue_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.QueueNumber, e.PatientID, e.DoctorID, e.Status, e.Priority,
		e.ArrivedAt, e.EstimatedWaitMin, e.ReasonForVisit, e.Notes, e.AddedBy,
		e.QueueDate,
	)
	if db.IsUniqueViolation(err, "uq_queue_number") {
		return ErrDuplicateNumber
	}
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

func (r *PgRepository) ListForDate(ctx context.Context, f ListFilter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM queue_entries WHERE queue_date = $1`
	args := []any{f.Date}

	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		query += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	query += `
		ORDER BY CASE priority
			WHEN 'emergency' THEN 0
			WHEN 'urgent' THEN 1
			ELSE 2
		END, arrival_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query queue entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue entries: %w", err)
	}
	return out, nil
}

func (r *PgRepository) CountWaiting(ctx context.Context, date time.Time, doctorID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM queue_entries
		WHERE queue_date = $1 AND doctor_id = $2 AND status = 'waiting'`

	var n int
	if err := r.pool.QueryRow(ctx, query, date, doctorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count waiting entries: %w", err)
	}
	return n, nil
}

func (r *PgRepository) transition(ctx context.Context, query string, args ...any) (bool, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update queue entry status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) MarkWithDoctor(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE queue_entries
		SET status = 'with_doctor', called_at = $2, consult_started_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'waiting'`,
		id, at)
}

func (r *PgRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE queue_entries
		SET status = 'completed', consult_ended_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'with_doctor'`,
		id, at)
}

func (r *PgRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, `
		UPDATE queue_entries
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'waiting'`,
		id)
}

func (r *PgRepository) MarkNoShow(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, `
		UPDATE queue_entries
		SET status = 'no_show', updated_at = now()
		WHERE id = $1 AND status = 'waiting'`,
		id)
}

func (r *PgRepository) StatsForDate(ctx context.Context, date time.Time) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'waiting'),
			COUNT(*) FILTER (WHERE status = 'with_doctor'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'no_show'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (consult_started_at - arrival_time)) / 60)
				FILTER (WHERE status = 'completed' AND consult_started_at IS NOT NULL), 0)
		FROM queue_entries
		WHERE queue_date = $1`

	s := Stats{Date: date}
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&s.Total, &s.Waiting, &s.WithDoctor, &s.Completed,
		&s.Cancelled, &s.NoShow, &s.AvgWaitMins,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("query queue stats: %w", err)
	}
	return s, nil
}
