package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stratuswap/stratus-bot/internal/domain"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
)

// Service provides business operations over user wallets.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService constructs a new Service instance.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetOrCreate fetches the wallet record for the user or persists an empty one
// when missing. It never returns a nil wallet on success.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (*domain.UserWallet, error) {
	wallet, err := s.repo.Find(ctx, userID)
	if err == nil {
		return wallet, nil
	}

	if !errors.Is(err, ErrNotFound) {
		s.logError("get_or_create.find", userID, err)
		return nil, apperrors.NewStorageError(err)
	}

	now := time.Now().UTC()
	wallet = &domain.UserWallet{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Save(ctx, wallet); err != nil {
		s.logError("get_or_create.save", userID, err)
		return nil, apperrors.NewStorageError(err)
	}

	return wallet, nil
}

// Activate attaches ledger credentials to the user's wallet. It runs exactly
// once per user: a wallet that already has an account keeps it.
func (s *Service) Activate(ctx context.Context, userID int64, accountID, keySuffix string) (*domain.UserWallet, error) {
	if !domain.ValidKeySuffix(keySuffix) {
		return nil, fmt.Errorf("key suffix must be 64 hex characters")
	}

	wallet, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if wallet.Activated() {
		return nil, fmt.Errorf("wallet for user %d already has account %s", userID, wallet.AccountID)
	}

	wallet.AccountID = accountID
	wallet.KeySuffix = keySuffix
	wallet.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, wallet); err != nil {
		s.logError("activate.save", userID, err)
		return nil, apperrors.NewStorageError(err)
	}

	return wallet, nil
}

func (s *Service) logError(operation string, userID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("wallet service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}
