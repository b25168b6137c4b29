package wallet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stratuswap/stratus-bot/internal/domain"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Find(ctx context.Context, userID int64) (*domain.UserWallet, error) {
	args := m.Called(ctx, userID)
	wallet, _ := args.Get(0).(*domain.UserWallet)
	return wallet, args.Error(1)
}

func (m *mockRepository) Save(ctx context.Context, wallet *domain.UserWallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testKeySuffix = "a3f1b2c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2"

func TestService_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)

	t.Run("returns existing wallet", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("Find", mock.Anything, userID).
			Return(&domain.UserWallet{UserID: userID, AccountID: "0.0.1234"}, nil).Once()

		svc := NewService(repo, testLogger())
		wallet, err := svc.GetOrCreate(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "0.0.1234", wallet.AccountID)
		repo.AssertExpectations(t)
	})

	t.Run("creates empty record on first access", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("Find", mock.Anything, userID).Return((*domain.UserWallet)(nil), ErrNotFound).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(w *domain.UserWallet) bool {
			return w.UserID == userID && w.AccountID == "" && w.KeySuffix == ""
		})).Return(nil).Once()

		svc := NewService(repo, testLogger())
		wallet, err := svc.GetOrCreate(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, wallet)
		require.False(t, wallet.Activated())
		repo.AssertExpectations(t)
	})

	t.Run("storage failure wraps to app error", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("Find", mock.Anything, userID).
			Return((*domain.UserWallet)(nil), errors.New("connection refused")).Once()

		svc := NewService(repo, testLogger())
		_, err := svc.GetOrCreate(ctx, userID)
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, "E200", appErr.Code)
		repo.AssertExpectations(t)
	})
}

func TestService_Activate(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)

	t.Run("populates credentials once", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("Find", mock.Anything, userID).
			Return(&domain.UserWallet{UserID: userID}, nil).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(w *domain.UserWallet) bool {
			return w.AccountID == "0.0.9876" && w.KeySuffix == testKeySuffix
		})).Return(nil).Once()

		svc := NewService(repo, testLogger())
		wallet, err := svc.Activate(ctx, userID, "0.0.9876", testKeySuffix)
		require.NoError(t, err)
		require.True(t, wallet.Activated())
		repo.AssertExpectations(t)
	})

	t.Run("refuses to overwrite an activated wallet", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("Find", mock.Anything, userID).
			Return(&domain.UserWallet{UserID: userID, AccountID: "0.0.1111", KeySuffix: testKeySuffix}, nil).Once()

		svc := NewService(repo, testLogger())
		_, err := svc.Activate(ctx, userID, "0.0.2222", testKeySuffix)
		require.Error(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects malformed key suffix", func(t *testing.T) {
		repo := &mockRepository{}

		svc := NewService(repo, testLogger())
		_, err := svc.Activate(ctx, userID, "0.0.9876", "deadbeef")
		require.Error(t, err)

		_, err = svc.Activate(ctx, userID, "0.0.9876", strings.ToUpper(testKeySuffix))
		require.Error(t, err)
		repo.AssertExpectations(t)
	})
}
