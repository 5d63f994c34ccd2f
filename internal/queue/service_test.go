package queue

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
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*Entry, error)
	createFunc         func(ctx context.Context, e *Entry) error
	listForDateFunc    func(ctx context.Context, f ListFilter) ([]Entry, error)
	countWaitingFunc   func(ctx context.Context, date time.Time, doctorID uuid.UUID) (int, error)
	markWithDoctorFunc func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markCompletedFunc  func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markCancelledFunc  func(ctx context.Context, id uuid.UUID) (bool, error)
	markNoShowFunc     func(ctx context.Context, id uuid.UUID) (bool, error)
	statsForDateFunc   func(ctx context.Context, date time.Time) (Stats, error)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByQueueNumber(ctx context.Context, number string) (*Entry, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) Create(ctx context.Context, e *Entry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	return nil
}

func (m *mockRepo) ListForDate(ctx context.Context, f ListFilter) ([]Entry, error) {
	if m.listForDateFunc != nil {
		return m.listForDateFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockRepo) CountWaiting(ctx context.Context, date time.Time, doctorID uuid.UUID) (int, error) {
	if m.countWaitingFunc != nil {
		return m.countWaitingFunc(ctx, date, doctorID)
	}
	return 0, nil
}

func (m *mockRepo) MarkWithDoctor(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if m.markWithDoctorFunc != nil {
		return m.markWithDoctorFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockRepo) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if m.markCompletedFunc != nil {
		return m.markCompletedFunc(ctx, id, at)
	}
	return true, nil
}

func (m *mockRepo) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.markCancelledFunc != nil {
		return m.markCancelledFunc(ctx, id)
	}
	return true, nil
}

func (m *mockRepo) MarkNoShow(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.markNoShowFunc != nil {
		return m.markNoShowFunc(ctx, id)
	}
	return true, nil
}

func (m *mockRepo) StatsForDate(ctx context.Context, date time.Time) (Stats, error) {
	if m.statsForDateFunc != nil {
		return m.statsForDateFunc(ctx, date)
	}
	return Stats{Date: date}, nil
}

type mockDirectory struct {
	busyCalls      []uuid.UUID
	availableCalls []uuid.UUID
	markBusyFunc   func(ctx context.Context, id uuid.UUID) error
}

func (m *mockDirectory) MarkBusy(ctx context.Context, id uuid.UUID) error {
	m.busyCalls = append(m.busyCalls, id)
	if m.markBusyFunc != nil {
		return m.markBusyFunc(ctx, id)
	}
	return nil
}

func (m *mockDirectory) MarkAvailable(ctx context.Context, id uuid.UUID) error {
	m.availableCalls = append(m.availableCalls, id)
	return nil
}

// fakeCounter hands out sequence numbers without redis.
type fakeCounter struct {
	n int64
}

func (c *fakeCounter) Next(ctx context.Context, scope string, day time.Time) (int64, error) {
	c.n++
	return c.n, nil
}

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository, docs DoctorDirectory, counter *fakeCounter) *Service {
	log := logger.New(logger.Config{Output: io.Discard})
	svc := NewService(repo, docs, counter, log, time.UTC)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validEnqueue() EnqueueRequest {
	doctorID := uuid.New()
	return EnqueueRequest{
		PatientID:      uuid.New(),
		DoctorID:       &doctorID,
		Priority:       "normal",
		ReasonForVisit: "cough",
	}
}

func TestEnqueueAssignsNumberAndEstimate(t *testing.T) {
	repo := &mockRepo{
		countWaitingFunc: func(ctx context.Context, date time.Time, doctorID uuid.UUID) (int, error) {
			return 3, nil
		},
	}
	counter := &fakeCounter{n: 6} // next is 7
	svc := newTestService(repo, &mockDirectory{}, counter)

	e, err := svc.Enqueue(context.Background(), validEnqueue())
	require.NoError(t, err)
	assert.Equal(t, "Q20260901007", e.QueueNumber)
	assert.Equal(t, 45, e.EstimatedWaitMin) // 3 ahead, 15 minutes each
	assert.Equal(t, StatusWaiting, e.Status)
	assert.Equal(t, testNow, e.ArrivedAt)
}

func TestEnqueueWithoutDoctor(t *testing.T) {
	repo := &mockRepo{
		countWaitingFunc: func(ctx context.Context, date time.Time, doctorID uuid.UUID) (int, error) {
			t.Fatal("no line to count without a doctor")
			return 0, nil
		},
	}
	svc := newTestService(repo, &mockDirectory{}, &fakeCounter{})

	req := validEnqueue()
	req.DoctorID = nil
	e, err := svc.Enqueue(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, e.DoctorID)
	assert.Zero(t, e.EstimatedWaitMin)
}

func TestEnqueueRetriesOnNumberCollision(t *testing.T) {
	creates := 0
	repo := &mockRepo{
		createFunc: func(ctx context.Context, e *Entry) error {
			creates++
			if creates == 1 {
				return ErrDuplicateNumber
			}
			return nil
		},
	}
	counter := &fakeCounter{}
	svc := newTestService(repo, &mockDirectory{}, counter)

	e, err := svc.Enqueue(context.Background(), validEnqueue())
	require.NoError(t, err)
	assert.Equal(t, 2, creates)
	assert.Equal(t, "Q20260901002", e.QueueNumber)
}

func TestEnqueueRejectsUnknownPriority(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockDirectory{}, &fakeCounter{})

	req := validEnqueue()
	req.Priority = "vip"
	_, err := svc.Enqueue(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCallInMarksDoctorBusy(t *testing.T) {
	doctorID := uuid.New()
	entry := &Entry{ID: uuid.New(), DoctorID: &doctorID, Status: StatusWaiting, QueueNumber: "Q20260901001"}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
			return entry, nil
		},
	}
	docs := &mockDirectory{}
	svc := newTestService(repo, docs, &fakeCounter{})

	err := svc.CallIn(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Len(t, docs.busyCalls, 1)
	assert.Equal(t, doctorID, docs.busyCalls[0])
	assert.Empty(t, docs.availableCalls)
}

func TestCallInReleasesDoctorWhenEntryMoved(t *testing.T) {
	doctorID := uuid.New()
	entry := &Entry{ID: uuid.New(), DoctorID: &doctorID, Status: StatusCancelled}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
			return entry, nil
		},
		markWithDoctorFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
			return false, nil
		},
	}
	docs := &mockDirectory{}
	svc := newTestService(repo, docs, &fakeCounter{})

	err := svc.CallIn(context.Background(), entry.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	require.Len(t, docs.availableCalls, 1)
	assert.Equal(t, doctorID, docs.availableCalls[0])
}

func TestCallInWithoutDoctorSkipsStatusFlip(t *testing.T) {
	entry := &Entry{ID: uuid.New(), Status: StatusWaiting, QueueNumber: "Q20260901003"}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
			return entry, nil
		},
	}
	docs := &mockDirectory{}
	svc := newTestService(repo, docs, &fakeCounter{})

	err := svc.CallIn(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Empty(t, docs.busyCalls)
	assert.Empty(t, docs.availableCalls)
}

func TestCompleteFreesDoctor(t *testing.T) {
	doctorID := uuid.New()
	entry := &Entry{ID: uuid.New(), DoctorID: &doctorID, Status: StatusWithDoctor}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
			return entry, nil
		},
	}
	docs := &mockDirectory{}
	svc := newTestService(repo, docs, &fakeCounter{})

	err := svc.Complete(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Len(t, docs.availableCalls, 1)
	assert.Equal(t, doctorID, docs.availableCalls[0])
}

func TestCompleteWithoutDoctor(t *testing.T) {
	entry := &Entry{ID: uuid.New(), Status: StatusWithDoctor}
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
			return entry, nil
		},
	}
	docs := &mockDirectory{}
	svc := newTestService(repo, docs, &fakeCounter{})

	err := svc.Complete(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Empty(t, docs.availableCalls)
}

func TestCompleteInvalidState(t *testing.T) {
	repo := &mockRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
			return &Entry{ID: id, Status: StatusWaiting}, nil
		},
		markCompletedFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
			return false, nil
		},
	}
	docs := &mockDirectory{}
	svc := newTestService(repo, docs, &fakeCounter{})

	err := svc.Complete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, docs.availableCalls, "doctor stays as-is when nothing completed")
}

func TestWaitTime(t *testing.T) {
	arrived := testNow.Add(-40 * time.Minute)
	called := testNow.Add(-10 * time.Minute)

	tests := []struct {
		name  string
		entry Entry
		want  time.Duration
	}{
		{
			name:  "still waiting",
			entry: Entry{Status: StatusWaiting, ArrivedAt: arrived},
			want:  40 * time.Minute,
		},
		{
			name:  "consultation started",
			entry: Entry{Status: StatusWithDoctor, ArrivedAt: arrived, ConsultStartedAt: &called},
			want:  30 * time.Minute,
		},
		{
			name:  "cancelled",
			entry: Entry{Status: StatusCancelled, ArrivedAt: arrived},
			want:  0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*Entry, error) {
					e := tc.entry
					return &e, nil
				},
			}
			svc := newTestService(repo, &mockDirectory{}, &fakeCounter{})

			got, err := svc.WaitTime(context.Background(), uuid.New())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPriorityRank(t *testing.T) {
	// Lower rank is called first.
	assert.Less(t, PriorityEmergency.Rank(), PriorityUrgent.Rank())
	assert.Less(t, PriorityUrgent.Rank(), PriorityNormal.Rank())
}

func TestFormatQueueNumber(t *testing.T) {
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Q20260307042", FormatQueueNumber(day, 42))
}
