package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetSession(ctx context.Context, userID int64) (*Session, error) {
	args := m.Called(ctx, userID)
	session, _ := args.Get(0).(*Session)
	return session, args.Error(1)
}

func (m *mockStorage) SetSession(ctx context.Context, userID int64, session *Session) error {
	args := m.Called(ctx, userID, session)
	return args.Error(0)
}

func (m *mockStorage) ClearSession(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestMachine_Begin(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)

	t.Run("starts withdraw at destination step", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("SetSession", mock.Anything, userID, mock.MatchedBy(func(s *Session) bool {
			return s.Kind == KindWithdraw && s.Step == StepAwaitingDestination
		})).Return(nil).Once()

		m := NewMachine(ms, testLogger(), nil)
		session, err := m.Begin(ctx, userID, KindWithdraw)
		require.NoError(t, err)
		require.Equal(t, StepAwaitingDestination, session.Step)
		ms.AssertExpectations(t)
	})

	t.Run("refined kinds cannot begin directly", func(t *testing.T) {
		ms := &mockStorage{}
		m := NewMachine(ms, testLogger(), nil)

		_, err := m.Begin(ctx, userID, KindSellAll)
		require.ErrorIs(t, err, ErrInvalidTransition)
		ms.AssertExpectations(t)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("SetSession", mock.Anything, userID, mock.Anything).Return(errStorageFailure).Once()

		m := NewMachine(ms, testLogger(), nil)
		_, err := m.Begin(ctx, userID, KindBuy)
		require.ErrorIs(t, err, errStorageFailure)
		ms.AssertExpectations(t)
	})
}

func TestMachine_Advance(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		next        Step
		fields      map[string]string
		expectedErr error
	}{
		{
			name: "valid advance merges fields",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, Kind: KindWithdraw, Step: StepAwaitingDestination,
						Fields: map[string]string{}}, nil).Once()
				ms.On("SetSession", mock.Anything, userID, mock.MatchedBy(func(s *Session) bool {
					return s.Step == StepAwaitingAmount && s.Fields[FieldDestination] == "0.0.1234"
				})).Return(nil).Once()
			},
			next:   StepAwaitingAmount,
			fields: map[string]string{FieldDestination: "0.0.1234"},
		},
		{
			name: "invalid transition rejected",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, Kind: KindWithdraw, Step: StepAwaitingDestination}, nil).Once()
			},
			next:        StepAwaitingConfirmation,
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "no active session",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return((*Session)(nil), ErrSessionNotFound).Once()
			},
			next:        StepAwaitingAmount,
			expectedErr: ErrSessionNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			m := NewMachine(ms, testLogger(), nil)
			_, err := m.Advance(ctx, userID, tc.next, tc.fields)

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_Refine(t *testing.T) {
	ctx := context.Background()
	userID := int64(11)

	t.Run("sell refines into manual mode keeping fields", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetSession", mock.Anything, userID).
			Return(&Session{UserID: userID, Kind: KindSell, Step: StepAwaitingMode,
				Fields: map[string]string{FieldToken: "0.0.5555"}}, nil).Once()
		ms.On("SetSession", mock.Anything, userID, mock.MatchedBy(func(s *Session) bool {
			return s.Kind == KindSellManual && s.Step == StepAwaitingAmount && s.Fields[FieldToken] == "0.0.5555"
		})).Return(nil).Once()

		m := NewMachine(ms, testLogger(), nil)
		session, err := m.Refine(ctx, userID, KindSellManual, StepAwaitingAmount)
		require.NoError(t, err)
		require.Equal(t, KindSellManual, session.Kind)
		ms.AssertExpectations(t)
	})

	t.Run("buy cannot refine", func(t *testing.T) {
		ms := &mockStorage{}
		ms.On("GetSession", mock.Anything, userID).
			Return(&Session{UserID: userID, Kind: KindBuy, Step: StepAwaitingToken}, nil).Once()

		m := NewMachine(ms, testLogger(), nil)
		_, err := m.Refine(ctx, userID, KindSellAll, StepAwaitingMode)
		require.ErrorIs(t, err, ErrInvalidTransition)
		ms.AssertExpectations(t)
	})
}

func TestMachine_LockContention(t *testing.T) {
	ctx := context.Background()
	userID := int64(99)

	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	// Simulate a concurrent holder of the per-user lock.
	require.NoError(t, client.SetNX(ctx, "flow:lock:99", 1, lockTTL).Err())

	ms := &mockStorage{}
	m := NewMachine(ms, testLogger(), client)

	_, err := m.Begin(ctx, userID, KindBuy)
	require.ErrorIs(t, err, ErrSessionLocked)
	ms.AssertExpectations(t)
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
