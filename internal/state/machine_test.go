package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/plantshop-bot/internal/lock"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetState(ctx context.Context, userID int64) (*UserState, error) {
	args := m.Called(ctx, userID)
	state, _ := args.Get(0).(*UserState)
	return state, args.Error(1)
}

func (m *mockStorage) SetState(ctx context.Context, userID int64, state *UserState) error {
	args := m.Called(ctx, userID, state)
	return args.Error(0)
}

func (m *mockStorage) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) GetAllStates(ctx context.Context) ([]*UserState, error) {
	args := m.Called(ctx)
	states, _ := args.Get(0).([]*UserState)
	return states, args.Error(1)
}

func TestStateMachine_Advance(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)
	log := testLogger()

	bookingName := func() *UserState {
		return &UserState{
			UserID:       userID,
			Dialog:       DialogBooking,
			CurrentState: StateBookingName,
			Context:      map[string]string{KeyPlantID: "3"},
		}
	}

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		next        State
		expectedErr error
	}{
		{
			name: "successful transition stores the field",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).Return(bookingName(), nil).Once()
				ms.On("SetState", mock.Anything, userID, mock.MatchedBy(func(state *UserState) bool {
					return state.CurrentState == StateBookingPhone &&
						state.Context[KeyName] == "Анна" &&
						state.Context[KeyPlantID] == "3"
				})).Return(nil).Once()
			},
			next: StateBookingPhone,
		},
		{
			name: "invalid transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).Return(bookingName(), nil).Once()
			},
			next:        StateAddPlantPrice,
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "no dialog in progress",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).Return((*UserState)(nil), ErrStateNotFound).Once()
			},
			next:        StateBookingPhone,
			expectedErr: ErrStateNotFound,
		},
		{
			name: "storage failure",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).Return(bookingName(), nil).Once()
				ms.On("SetState", mock.Anything, userID, mock.Anything).Return(errStorageFailure).Once()
			},
			next:        StateBookingPhone,
			expectedErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			fsm := NewStateMachine(ms, log, nil)
			updated, err := fsm.Advance(ctx, userID, tc.next, KeyName, "Анна")

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, updated)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.next, updated.CurrentState)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestStateMachine_Begin(t *testing.T) {
	ctx := context.Background()
	userID := int64(11)
	log := testLogger()

	t.Run("replaces previous dialog", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetState", mock.Anything, userID).
			Return(&UserState{UserID: userID, Dialog: DialogAddPlant, CurrentState: StateAddPlantPrice}, nil).Once()
		ms.On("SetState", mock.Anything, userID, mock.MatchedBy(func(state *UserState) bool {
			return state.Dialog == DialogBooking &&
				state.CurrentState == StateBookingName &&
				state.Context[KeyPlantID] == "5"
		})).Return(nil).Once()

		fsm := NewStateMachine(ms, log, nil)
		started, err := fsm.Begin(ctx, userID, DialogBooking, map[string]string{KeyPlantID: "5"})
		require.NoError(t, err)
		assert.Equal(t, StateBookingName, started.CurrentState)

		ms.AssertExpectations(t)
	})

	t.Run("unknown dialog", func(t *testing.T) {
		ms := &mockStorage{}
		fsm := NewStateMachine(ms, log, nil)

		_, err := fsm.Begin(ctx, userID, Dialog("survey"), nil)
		assert.ErrorIs(t, err, ErrUnknownDialog)
		ms.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetState", mock.Anything, userID).Return((*UserState)(nil), ErrStateNotFound).Once()
		ms.On("SetState", mock.Anything, userID, mock.Anything).Return(errStorageFailure).Once()

		fsm := NewStateMachine(ms, log, nil)
		_, err := fsm.Begin(ctx, userID, DialogAddPlant, nil)
		assert.ErrorIs(t, err, errStorageFailure)
		ms.AssertExpectations(t)
	})
}

func TestStateMachine_GetState(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)

	ms := &mockStorage{}
	ms.On("GetState", mock.Anything, userID).Return((*UserState)(nil), ErrStateNotFound).Once()

	fsm := NewStateMachine(ms, testLogger(), nil)
	st, err := fsm.GetState(ctx, userID)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrStateNotFound)
	ms.AssertExpectations(t)
}

func TestStateMachine_ClearState(t *testing.T) {
	ctx := context.Background()
	userID := int64(13)
	log := testLogger()

	testCases := []struct {
		name       string
		setupMocks func(ms *mockStorage)
		expectErr  error
	}{
		{
			name: "clear state success",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).
					Return(&UserState{UserID: userID, CurrentState: StateBookingPhone}, nil).Once()
				ms.On("ClearState", mock.Anything, userID).Return(nil).Once()
			},
		},
		{
			name: "nothing to clear",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).Return((*UserState)(nil), ErrStateNotFound).Once()
			},
		},
		{
			name: "clear state error",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetState", mock.Anything, userID).
					Return(&UserState{UserID: userID, CurrentState: StateBookingPhone}, nil).Once()
				ms.On("ClearState", mock.Anything, userID).Return(errStorageFailure).Once()
			},
			expectErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			fsm := NewStateMachine(ms, log, nil)
			err := fsm.ClearState(ctx, userID)

			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
			} else {
				assert.NoError(t, err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestStateMachine_RecordsTransitions(t *testing.T) {
	var (
		mu       sync.Mutex
		recorded [][2]string
	)
	RegisterTransitionRecorder(func(from, to string) {
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, [2]string{from, to})
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	ctx := context.Background()
	fsm := NewStateMachine(NewMemoryStorage(), testLogger(), nil)

	_, err := fsm.Begin(ctx, 1, DialogBooking, nil)
	require.NoError(t, err)
	_, err = fsm.Advance(ctx, 1, StateBookingPhone, KeyName, "Анна")
	require.NoError(t, err)
	require.NoError(t, fsm.ClearState(ctx, 1))

	assert.Equal(t, [][2]string{
		{"idle", "booking_name"},
		{"booking_name", "booking_phone"},
		{"booking_phone", "idle"},
	}, recorded)
}

func TestStateMachine_LockSerializesAdvance(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	lockers := map[string]lock.Locker{
		"memory": lock.NewMemoryLocker(),
		"redis":  lock.NewRedisLocker(client, time.Second, testLogger()),
	}

	for name, locker := range lockers {
		locker := locker
		t.Run(name, func(t *testing.T) {
			storage := newSlowStorage(50 * time.Millisecond)
			fsm := NewStateMachine(storage, testLogger(), locker)

			ctx := context.Background()
			userID := int64(77)
			_, err := fsm.Begin(ctx, userID, DialogBooking, nil)
			require.NoError(t, err)

			var wg sync.WaitGroup
			errCh := make(chan error, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := fsm.Advance(ctx, userID, StateBookingPhone, KeyName, "Анна")
					errCh <- err
				}()
			}
			wg.Wait()
			close(errCh)

			var success, invalid int
			for err := range errCh {
				switch {
				case err == nil:
					success++
				case errors.Is(err, ErrInvalidTransition):
					invalid++
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}

			assert.Equal(t, 1, success)
			assert.Equal(t, 1, invalid)
		})
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// slowStorage delays writes to widen the window for races.
type slowStorage struct {
	*MemoryStorage
	delay time.Duration
}

func newSlowStorage(delay time.Duration) *slowStorage {
	return &slowStorage{MemoryStorage: NewMemoryStorage(), delay: delay}
}

func (s *slowStorage) SetState(ctx context.Context, userID int64, state *UserState) error {
	time.Sleep(s.delay)
	return s.MemoryStorage.SetState(ctx, userID, state)
}
