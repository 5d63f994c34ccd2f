package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/clock"
	"github.com/clinicops/frontdesk/internal/logger"
	redisclient "github.com/clinicops/frontdesk/internal/redis"
)

var (
	ErrValidation   = errors.New("invalid queue data")
	ErrInvalidState = errors.New("queue entry is not in a valid state for this transition")
)

const (
	// avgConsultMins feeds the wait estimate shown at check-in: position in
	// line times an assumed consultation length.
	avgConsultMins = 15
	maxNumAttempts = 5
	counterScope   = "queue"
)

// DoctorDirectory is the slice of the doctor component the queue needs to
// flip duty status around consultations.
type DoctorDirectory interface {
	MarkBusy(ctx context.Context, id uuid.UUID) error
	MarkAvailable(ctx context.Context, id uuid.UUID) error
}

// EnqueueRequest captures a walk-in at the front desk. DoctorID is optional:
// patients without a preference wait for whichever doctor frees up first.
type EnqueueRequest struct {
	PatientID      uuid.UUID `validate:"required"`
	DoctorID       *uuid.UUID
	Priority       string `validate:"required,oneof=normal urgent emergency"`
	ReasonForVisit string `validate:"required"`
	Notes          string
	AddedBy        *uuid.UUID
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	counter  redisclient.Counter
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
	loc      *time.Location
}

func NewService(repo Repository, doctors DoctorDirectory, counter redisclient.Counter, log *logger.Logger, loc *time.Location) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		counter:  counter,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
		loc:      loc,
	}
}

// Enqueue adds a walk-in to today's queue. The queue number comes from a
// per-day redis counter; the unique constraint on queue_number is the
// backstop if the counter ever drifts behind the table.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*Entry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.now().In(s.loc)
	today := clock.DateOnly(now, s.loc)

	// Without a chosen doctor there is no line to measure against, so the
	// estimate stays zero.
	var estimate int
	if req.DoctorID != nil {
		waiting, err := s.repo.CountWaiting(ctx, today, *req.DoctorID)
		if err != nil {
			return nil, err
		}
		estimate = waiting * avgConsultMins
	}

	e := &Entry{
		ID:               uuid.New(),
		PatientID:        req.PatientID,
		DoctorID:         req.DoctorID,
		Status:           StatusWaiting,
		Priority:         Priority(req.Priority),
		ArrivedAt:        now,
		EstimatedWaitMin: estimate,
		ReasonForVisit:   req.ReasonForVisit,
		Notes:            req.Notes,
		AddedBy:          req.AddedBy,
		QueueDate:        today,
	}

	for attempt := 0; attempt < maxNumAttempts; attempt++ {
		seq, err := s.counter.Next(ctx, counterScope, today)
		if err != nil {
			return nil, err
		}

		e.QueueNumber = FormatQueueNumber(today, int(seq))
		err = s.repo.Create(ctx, e)
		if errors.Is(err, ErrDuplicateNumber) {
			s.log.Warn("queue number collision, advancing counter", "queue_number", e.QueueNumber)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("patient queued",
			"queue_number", e.QueueNumber,
			"priority", e.Priority,
			"estimated_wait_min", e.EstimatedWaitMin,
		)
		return e, nil
	}

	return nil, fmt.Errorf("assign queue number: exhausted %d attempts", maxNumAttempts)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByQueueNumber(ctx context.Context, number string) (*Entry, error) {
	return s.repo.GetByQueueNumber(ctx, number)
}

// ListToday returns today's queue in calling order.
func (s *Service) ListToday(ctx context.Context, doctorID *uuid.UUID, status Status) ([]Entry, error) {
	return s.repo.ListForDate(ctx, ListFilter{
		Date:     clock.DateOnly(s.now(), s.loc),
		DoctorID: doctorID,
		Status:   status,
	})
}

// CallIn moves the entry to the doctor and, when the entry names one, marks
// that doctor busy.
func (s *Service) CallIn(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if e.DoctorID != nil {
		if err := s.doctors.MarkBusy(ctx, *e.DoctorID); err != nil {
			return err
		}
	}

	ok, err := s.repo.MarkWithDoctor(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		// Undo the status flip so the doctor is not stuck busy.
		if e.DoctorID != nil {
			if relErr := s.doctors.MarkAvailable(ctx, *e.DoctorID); relErr != nil {
				s.log.Error("failed to release doctor after aborted call-in", "doctor_id", *e.DoctorID, "error", relErr)
			}
		}
		return ErrInvalidState
	}

	s.log.Info("patient called in", "queue_number", e.QueueNumber)
	return nil
}

// Complete ends the consultation and frees the doctor.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.repo.MarkCompleted(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}

	if e.DoctorID != nil {
		if err := s.doctors.MarkAvailable(ctx, *e.DoctorID); err != nil {
			s.log.Error("failed to release doctor after consultation", "doctor_id", *e.DoctorID, "error", err)
		}
	}

	s.log.Info("consultation completed", "queue_number", e.QueueNumber)
	return nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.MarkCancelled(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

func (s *Service) NoShow(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.MarkNoShow(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// WaitTime reports how long the entry has waited so far.
func (s *Service) WaitTime(ctx context.Context, id uuid.UUID) (time.Duration, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return e.WaitTime(s.now()), nil
}

func (s *Service) StatsToday(ctx context.Context) (Stats, error) {
	return s.repo.StatsForDate(ctx, clock.DateOnly(s.now(), s.loc))
}
