package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicops/frontdesk/internal/logger"
)

var (
	ErrValidation         = errors.New("invalid staff data")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveAccount    = errors.New("account is deactivated")
)

const maxIDAttempts = 5

type RegisterRequest struct {
	Username    string `validate:"required,min=3,max=150"`
	Password    string `validate:"required,min=8"`
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"required,max=100"`
	Email       string `validate:"required,email"`
	Role        string `validate:"required,oneof=staff doctor"`
	PhoneNumber string `validate:"required"`
	Department  string `validate:"max=100"`
	Shift       string `validate:"required,oneof=morning afternoon night"`
}

type LoginResult struct {
	Token   string
	User    *User
	Profile *StaffProfile
}

type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, tokens *TokenIssuer, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Register creates the user account and its staff profile together. Employee
// ids are assigned sequentially; on a collision with a concurrent
// registration the sequence is re-read and the insert retried.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *StaffProfile, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		seq, err := s.repo.MaxEmployeeSeq(ctx)
		if err != nil {
			return nil, nil, err
		}

		p := &StaffProfile{
			ID:         uuid.New(),
			UserID:     u.ID,
			EmployeeID: FormatEmployeeID(seq + 1),
			Shift:      req.Shift,
			Department: req.Department,
		}

		err = s.repo.CreateUserWithProfile(ctx, u, p)
		if errors.Is(err, ErrDuplicateEmployeeID) {
			s.log.Warn("employee id collision, retrying", "employee_id", p.EmployeeID)
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		s.log.Info("staff registered", "username", u.Username, "employee_id", p.EmployeeID, "role", u.Role)
		return u, p, nil
	}

	return nil, nil, fmt.Errorf("assign employee id: exhausted %d attempts", maxIDAttempts)
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}

	token, err := s.tokens.Issue(u, s.now())
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfileByUserID(ctx, u.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s.log.Info("staff logged in", "username", u.Username)
	return &LoginResult{Token: token, User: u, Profile: profile}, nil
}

// Authenticate verifies a session token and confirms the account is still
// active. Used by the API middleware on every authenticated request.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}
	return claims, nil
}
