package patient

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/frontdesk/internal/logger"
)

type mockRepo struct {
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*Patient, error)
	createFunc      func(ctx context.Context, p *Patient) error
	updateFunc      func(ctx context.Context, p *Patient) error
	searchFunc      func(ctx context.Context, query string, limit int) ([]Patient, error)
	maxSequenceFunc func(ctx context.Context) (int, error)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) Create(ctx context.Context, p *Patient) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, p *Patient) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, p)
	}
	return nil
}

func (m *mockRepo) Deactivate(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockRepo) List(ctx context.Context, f ListFilter) ([]Patient, error) { return nil, nil }

func (m *mockRepo) Search(ctx context.Context, query string, limit int) ([]Patient, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockRepo) MaxSequence(ctx context.Context) (int, error) {
	if m.maxSequenceFunc != nil {
		return m.maxSequenceFunc(ctx)
	}
	return 0, nil
}

func (m *mockRepo) CountActive(ctx context.Context) (int, error) { return 0, nil }

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	log := logger.New(logger.Config{Output: io.Discard})
	svc := NewService(repo, log)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		FirstName:    "Asha",
		LastName:     "Verma",
		DateOfBirth:  time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:       "F",
		PhoneNumber:  "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Pune",
		State:        "Maharashtra",
		Pincode:      "411001",
	}
}

func TestRegisterAssignsFirstID(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, "PAT00001", p.PatientID)
	assert.True(t, p.IsActive)
}

func TestRegisterUsesNextSequence(t *testing.T) {
	repo := &mockRepo{
		maxSequenceFunc: func(ctx context.Context) (int, error) {
			return 41, nil
		},
	}
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, "PAT00042", p.PatientID)
}

func TestRegisterRetriesOnIDCollision(t *testing.T) {
	seq := 10
	creates := 0
	repo := &mockRepo{
		maxSequenceFunc: func(ctx context.Context) (int, error) {
			return seq, nil
		},
		createFunc: func(ctx context.Context, p *Patient) error {
			creates++
			if creates == 1 {
				seq++ // the racing registration landed
				return ErrDuplicateID
			}
			return nil
		},
	}
	svc := newTestService(repo)

	p, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, 2, creates)
	assert.Equal(t, "PAT00012", p.PatientID)
}

func TestRegisterGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := &mockRepo{
		createFunc: func(ctx context.Context, p *Patient) error {
			return ErrDuplicateID
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), validRegister())
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(&mockRepo{})

	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
	}{
		{"missing first name", func(r *RegisterRequest) { r.FirstName = "" }},
		{"bad gender", func(r *RegisterRequest) { r.Gender = "X" }},
		{"bad blood group", func(r *RegisterRequest) { bg := "C+"; r.BloodGroup = &bg }},
		{"bad email", func(r *RegisterRequest) { e := "not-an-email"; r.Email = &e }},
		{"future date of birth", func(r *RegisterRequest) { r.DateOfBirth = testNow.AddDate(1, 0, 0) }},
		{"zero date of birth", func(r *RegisterRequest) { r.DateOfBirth = time.Time{} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegister()
			tc.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	called := false
	repo := &mockRepo{
		searchFunc: func(ctx context.Context, query string, limit int) ([]Patient, error) {
			called = true
			return nil, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, called)

	// One Devanagari letter is three bytes but still a single character.
	got, err = svc.Search(context.Background(), "र")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, called)
}

func TestSearchPassesLimit(t *testing.T) {
	repo := &mockRepo{
		searchFunc: func(ctx context.Context, query string, limit int) ([]Patient, error) {
			assert.Equal(t, "asha", query)
			assert.Equal(t, 10, limit)
			return []Patient{{PatientID: "PAT00001"}}, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.Search(context.Background(), "asha")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestUpdateOverwritesContactFields(t *testing.T) {
	existing := &Patient{
		ID:          uuid.New(),
		PatientID:   "PAT00007",
		FirstName:   "Asha",
		LastName:    "Verma",
		PhoneNumber: "9876543210",
		IsActive:    true,
	}
	var updated *Patient
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Patient, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, p *Patient) error {
			updated = p
			return nil
		},
	}
	svc := newTestService(repo)

	req := validRegister()
	req.PhoneNumber = "9123456780"
	req.City = "Mumbai"

	p, err := svc.Update(context.Background(), existing.ID, req)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "9123456780", p.PhoneNumber)
	assert.Equal(t, "Mumbai", p.City)
	assert.Equal(t, "PAT00007", p.PatientID, "public id never changes on update")
}

func TestFormatPatientID(t *testing.T) {
	assert.Equal(t, "PAT00001", FormatPatientID(1))
	assert.Equal(t, "PAT12345", FormatPatientID(12345))
}
