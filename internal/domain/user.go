package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrEmptyUserID = errors.New("user ID cannot be empty")
)

// User is a wallet-backed account. Accounts are created by the external
// wallet-login service; this service only reads them and increments
// their aggregate counters. WalletAddress may be empty for users who
// have not linked a receiving wallet, in which case minting is skipped.
type User struct {
	ID                uuid.UUID  `json:"id"`
	WalletAddress     string     `json:"wallet_address,omitempty"`
	Nickname          string     `json:"nickname,omitempty"`
	TotalFlowers      int        `json:"total_flowers"`
	TotalFocusMinutes int        `json:"total_focus_minutes"`
	LastFocusDate     *time.Time `json:"last_focus_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	return nil
}

// HasWallet reports whether the user has a receiving wallet on file.
func (u *User) HasWallet() bool {
	return u.WalletAddress != ""
}
