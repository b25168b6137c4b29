package domain

import (
	"regexp"
	"time"
)

var keySuffixPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// UserWallet holds the custodial ledger credentials for one Telegram user.
// AccountID stays empty until account creation on the ledger succeeds; once
// populated it is never cleared by the application.
type UserWallet struct {
	UserID    int64
	AccountID string
	// KeySuffix is the trailing 64 hex characters of the signing key.
	KeySuffix string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Activated reports whether the wallet has a ledger account attached.
func (w *UserWallet) Activated() bool {
	return w != nil && w.AccountID != ""
}

// ValidKeySuffix reports whether s is exactly 64 lowercase hex characters.
func ValidKeySuffix(s string) bool {
	return keySuffixPattern.MatchString(s)
}
