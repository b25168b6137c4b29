// Package wallet stores and serves custodial wallet credentials per user.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stratuswap/stratus-bot/internal/domain"
)

// ErrNotFound indicates that no wallet record exists for the user.
var ErrNotFound = errors.New("wallet not found")

// Repository defines persistence operations for user wallets.
type Repository interface {
	Find(ctx context.Context, userID int64) (*domain.UserWallet, error)
	Save(ctx context.Context, wallet *domain.UserWallet) error
}

type postgresRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository creates a SQL-backed wallet repository.
func NewRepository(db *sql.DB, log *slog.Logger) Repository {
	return &postgresRepository{
		db:  db,
		log: log,
	}
}

// Find retrieves a wallet record by Telegram user identifier.
func (r *postgresRepository) Find(ctx context.Context, userID int64) (*domain.UserWallet, error) {
	const query = `
		SELECT user_id, account_id, key_suffix, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, userID)

	var wallet domain.UserWallet
	if err := row.Scan(
		&wallet.UserID,
		&wallet.AccountID,
		&wallet.KeySuffix,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch wallet", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select wallet: %w", err)
	}

	return &wallet, nil
}

// Save upserts the full wallet record; there are no partial writes.
func (r *postgresRepository) Save(ctx context.Context, wallet *domain.UserWallet) error {
	const query = `
		INSERT INTO wallets (user_id, account_id, key_suffix, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET account_id = EXCLUDED.account_id,
		    key_suffix = EXCLUDED.key_suffix,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		wallet.UserID,
		wallet.AccountID,
		wallet.KeySuffix,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to save wallet", slog.Int64("user_id", wallet.UserID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert wallet: %w", err)
	}

	return nil
}
