package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/clock"
	"github.com/clinicops/frontdesk/internal/logger"
)

var (
	ErrValidation = errors.New("invalid doctor data")
	ErrOffDuty    = errors.New("doctor is off duty")
)

type CreateRequest struct {
	DoctorID          string `validate:"required,max=20"`
	FullName          string `validate:"required,max=200"`
	Specialization    string `validate:"required,max=100"`
	Gender            string `validate:"required,oneof=M F O"`
	PhoneNumber       string `validate:"required"`
	Email             string `validate:"required,email"`
	ClinicLocation    string `validate:"max=200"`
	ConsultationFee   int64  `validate:"min=0"`
	AcceptsWalkins    bool
	LicenseNumber     string `validate:"required,max=50"`
	YearsOfExperience int    `validate:"min=0"`
	Qualifications    string
	Bio               string
	UserID            *uuid.UUID
}

type ScheduleRequest struct {
	DoctorID  uuid.UUID `validate:"required"`
	DayOfWeek int       `validate:"min=0,max=6"`
	StartTime string    `validate:"required"`
	EndTime   string    `validate:"required"`
	SlotMins  int       `validate:"min=1,max=240"`
	IsActive  bool
}

type WindowRequest struct {
	DoctorID             uuid.UUID `validate:"required"`
	Date                 time.Time `validate:"required"`
	StartTime            string    `validate:"required"`
	EndTime              string    `validate:"required"`
	MaxAppointments      int       `validate:"min=1"`
	IsAvailable          bool
	UnavailabilityReason string
}

// Service owns the doctor directory, the weekly templates, the availability
// ledger, and — exclusively — the doctor duty status. Other components mutate
// status only through MarkBusy/MarkAvailable/SetOffDuty/SetOnDuty and observe
// it read-only.
type Service struct {
	repo     Repository
	log      *logger.Logger
	validate *validator.Validate
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Doctor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	d := &Doctor{
		ID:                uuid.New(),
		DoctorID:          req.DoctorID,
		UserID:            req.UserID,
		FullName:          req.FullName,
		Specialization:    req.Specialization,
		Gender:            req.Gender,
		PhoneNumber:       req.PhoneNumber,
		Email:             req.Email,
		ClinicLocation:    req.ClinicLocation,
		ConsultationFee:   req.ConsultationFee,
		Status:            StatusAvailable,
		AcceptsWalkins:    req.AcceptsWalkins,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		Qualifications:    req.Qualifications,
		Bio:               req.Bio,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req CreateRequest) (*Doctor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d.FullName = req.FullName
	d.Specialization = req.Specialization
	d.Gender = req.Gender
	d.PhoneNumber = req.PhoneNumber
	d.Email = req.Email
	d.ClinicLocation = req.ClinicLocation
	d.ConsultationFee = req.ConsultationFee
	d.AcceptsWalkins = req.AcceptsWalkins
	d.LicenseNumber = req.LicenseNumber
	d.YearsOfExperience = req.YearsOfExperience
	d.Qualifications = req.Qualifications
	d.Bio = req.Bio

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Doctor, error) {
	return s.repo.List(ctx, f)
}

// Search backs the quick-search endpoint: at least two characters, top ten.
func (s *Service) Search(ctx context.Context, query string) ([]Doctor, error) {
	if utf8.RuneCountInString(query) < 2 {
		return []Doctor{}, nil
	}
	return s.repo.Search(ctx, query, 10)
}

// BySpecialization lists doctors currently available in a specialization.
func (s *Service) BySpecialization(ctx context.Context, specialization string) ([]Doctor, error) {
	return s.repo.List(ctx, ListFilter{
		Specialization: specialization,
		AvailableOnly:  true,
	})
}

func (s *Service) CountByStatus(ctx context.Context) (StatusCounts, error) {
	return s.repo.CountByStatus(ctx)
}

// Duty status transitions. The queue engine calls MarkBusy when a
// consultation starts and MarkAvailable when it ends.

// MarkBusy pins the doctor to one in-progress consultation. Off-duty doctors
// cannot be pulled into a consultation.
func (s *Service) MarkBusy(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.SetStatus(ctx, id, StatusBusy, StatusAvailable, StatusBusy)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOffDuty
	}
	return nil
}

// MarkAvailable releases a doctor after a consultation. It only applies to
// busy doctors, so completing a consult never puts an off-duty doctor back on
// shift.
func (s *Service) MarkAvailable(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.SetStatus(ctx, id, StatusAvailable, StatusBusy)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("doctor not busy, leaving status unchanged", "doctor_id", id)
	}
	return nil
}

// SetOffDuty / SetOnDuty back the manual toggle used by front-desk staff.

func (s *Service) SetOffDuty(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.SetStatus(ctx, id, StatusOffDuty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) SetOnDuty(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.SetStatus(ctx, id, StatusAvailable)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Weekly schedule templates

func (s *Service) AddSchedule(ctx context.Context, req ScheduleRequest) (*WeeklySchedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	start, end, err := clockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	sched := &WeeklySchedule{
		ID:        uuid.New(),
		DoctorID:  req.DoctorID,
		DayOfWeek: req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		SlotMins:  req.SlotMins,
		IsActive:  req.IsActive,
	}

	if err := s.repo.CreateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*WeeklySchedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	start, end, err := clockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	sched := &WeeklySchedule{
		ID:        id,
		DoctorID:  req.DoctorID,
		DayOfWeek: req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		SlotMins:  req.SlotMins,
		IsActive:  req.IsActive,
	}

	if err := s.repo.UpdateSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSchedule(ctx, id)
}

func (s *Service) Schedules(ctx context.Context, doctorID uuid.UUID) ([]WeeklySchedule, error) {
	return s.repo.ListSchedules(ctx, doctorID)
}

// Availability windows

func (s *Service) AddWindow(ctx context.Context, req WindowRequest) (*AvailabilityWindow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	start, end, err := clockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	w := &AvailabilityWindow{
		ID:                   uuid.New(),
		DoctorID:             req.DoctorID,
		Date:                 req.Date,
		StartTime:            start,
		EndTime:              end,
		MaxAppointments:      req.MaxAppointments,
		IsAvailable:          req.IsAvailable,
		UnavailabilityReason: req.UnavailabilityReason,
	}

	if err := s.repo.CreateWindow(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) UpdateWindow(ctx context.Context, id uuid.UUID, req WindowRequest) (*AvailabilityWindow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	start, end, err := clockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	w, err := s.repo.GetWindow(ctx, id)
	if err != nil {
		return nil, err
	}

	w.StartTime = start
	w.EndTime = end
	w.MaxAppointments = req.MaxAppointments
	w.IsAvailable = req.IsAvailable
	w.UnavailabilityReason = req.UnavailabilityReason

	if err := s.repo.UpdateWindow(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteWindow(ctx, id)
}

func (s *Service) Windows(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]AvailabilityWindow, error) {
	return s.repo.ListWindows(ctx, doctorID, from)
}

func (s *Service) OpenWindows(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AvailabilityWindow, error) {
	return s.repo.OpenWindows(ctx, doctorID, date)
}

// MaterializeWindows projects a doctor's active weekly template onto concrete
// dates in [from, to], skipping dates that already carry a window at the same
// start time. Returns the number of windows created.
func (s *Service) MaterializeWindows(ctx context.Context, doctorID uuid.UUID, from, to time.Time, maxAppointments int) (int, error) {
	if to.Before(from) {
		return 0, fmt.Errorf("%w: range end before start", ErrValidation)
	}
	if maxAppointments <= 0 {
		maxAppointments = 10
	}

	schedules, err := s.repo.ListSchedules(ctx, doctorID)
	if err != nil {
		return 0, err
	}

	byDay := make(map[int][]WeeklySchedule)
	for _, sched := range schedules {
		if sched.IsActive {
			byDay[sched.DayOfWeek] = append(byDay[sched.DayOfWeek], sched)
		}
	}

	created := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, sched := range byDay[weekday(day)] {
			w := &AvailabilityWindow{
				ID:              uuid.New(),
				DoctorID:        doctorID,
				Date:            day,
				StartTime:       sched.StartTime,
				EndTime:         sched.EndTime,
				MaxAppointments: maxAppointments,
				IsAvailable:     true,
			}
			err := s.repo.CreateWindow(ctx, w)
			if errors.Is(err, ErrDuplicateWindow) {
				continue
			}
			if err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

func clockRange(startRaw, endRaw string) (start, end string, err error) {
	start, err = clock.Parse(startRaw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err = clock.Parse(endRaw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if start >= end {
		return "", "", fmt.Errorf("%w: start time must be before end time", ErrValidation)
	}
	return start, end, nil
}
