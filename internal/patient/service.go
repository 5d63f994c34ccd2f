package patient

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicops/frontdesk/internal/logger"
)

var ErrValidation = errors.New("invalid patient data")

// Bounded retries for public ID generation when two registrations race.
const maxIDAttempts = 5

const searchMinQueryLen = 2

type RegisterRequest struct {
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"required,max=100"`
	DateOfBirth time.Time
	Gender      string  `validate:"required,oneof=M F O"`
	BloodGroup  *string `validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	PhoneNumber string  `validate:"required,e164|numeric"`
	Email       *string `validate:"omitempty,email"`

	AddressLine1 string `validate:"required,max=255"`
	AddressLine2 string `validate:"max=255"`
	City         string `validate:"required,max=100"`
	State        string `validate:"required,max=100"`
	Pincode      string `validate:"required,max=10"`

	EmergencyContactName     string
	EmergencyContactPhone    string
	EmergencyContactRelation string

	Allergies          string
	ChronicConditions  string
	CurrentMedications string

	RegisteredBy *uuid.UUID
}

type UpdateRequest = RegisterRequest

type Service struct {
	repo     Repository
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Register creates a patient record and assigns the next public ID. Two
// near-simultaneous registrations may both read the same max sequence; the
// unique constraint on patient_id catches the loser, which retries with a
// fresh sequence.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Patient, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.DateOfBirth.IsZero() || req.DateOfBirth.After(s.now()) {
		return nil, fmt.Errorf("%w: date of birth must be in the past", ErrValidation)
	}

	p := &Patient{
		ID:                       uuid.New(),
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		DateOfBirth:              req.DateOfBirth,
		Gender:                   req.Gender,
		BloodGroup:               req.BloodGroup,
		PhoneNumber:              req.PhoneNumber,
		Email:                    req.Email,
		AddressLine1:             req.AddressLine1,
		AddressLine2:             req.AddressLine2,
		City:                     req.City,
		State:                    req.State,
		Pincode:                  req.Pincode,
		EmergencyContactName:     req.EmergencyContactName,
		EmergencyContactPhone:    req.EmergencyContactPhone,
		EmergencyContactRelation: req.EmergencyContactRelation,
		Allergies:                req.Allergies,
		ChronicConditions:        req.ChronicConditions,
		CurrentMedications:       req.CurrentMedications,
		RegisteredBy:             req.RegisteredBy,
		IsActive:                 true,
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		seq, err := s.repo.MaxSequence(ctx)
		if err != nil {
			return nil, fmt.Errorf("next patient id: %w", err)
		}

		p.PatientID = FormatPatientID(seq + 1)

		err = s.repo.Create(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrDuplicateID) {
			return nil, err
		}

		s.log.Warn("patient id collision, retrying",
			"patient_id", p.PatientID, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("register patient: %w after %d attempts", ErrDuplicateID, maxIDAttempts)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return s.repo.GetByPatientID(ctx, patientID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.FirstName = req.FirstName
	p.LastName = req.LastName
	p.DateOfBirth = req.DateOfBirth
	p.Gender = req.Gender
	p.BloodGroup = req.BloodGroup
	p.PhoneNumber = req.PhoneNumber
	p.Email = req.Email
	p.AddressLine1 = req.AddressLine1
	p.AddressLine2 = req.AddressLine2
	p.City = req.City
	p.State = req.State
	p.Pincode = req.Pincode
	p.EmergencyContactName = req.EmergencyContactName
	p.EmergencyContactPhone = req.EmergencyContactPhone
	p.EmergencyContactRelation = req.EmergencyContactRelation
	p.Allergies = req.Allergies
	p.ChronicConditions = req.ChronicConditions
	p.CurrentMedications = req.CurrentMedications

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate soft-deletes the record. History stays intact.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Patient, error) {
	return s.repo.List(ctx, f)
}

// Search backs the quick-search endpoint: at least two characters, top ten
// matches across public ID, names and phone number.
func (s *Service) Search(ctx context.Context, query string) ([]Patient, error) {
	if utf8.RuneCountInString(query) < searchMinQueryLen {
		return []Patient{}, nil
	}
	return s.repo.Search(ctx, query, 10)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}
