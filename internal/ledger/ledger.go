package ledger

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrAccountNotFound indicates no account is stored under the requested mobile.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned by Create together with the stored record when the
	// mobile is already registered. The stored record is never overwritten.
	ErrAccountExists = errors.New("account already exists")

	// ErrCapacityExceeded occurs when the store already holds the maximum number of accounts.
	ErrCapacityExceeded = errors.New("account capacity reached")

	// ErrStorageUnavailable wraps any failure of the underlying key-value backend.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNegativeBalance rejects an update that would leave ecoCoins below zero.
	ErrNegativeBalance = errors.New("eco coin balance cannot be negative")

	// ErrKeyNotFound is returned by KV backends for absent keys.
	ErrKeyNotFound = errors.New("key not found")
)

const (
	// DefaultMaxAccounts caps the number of accounts a store accepts.
	DefaultMaxAccounts = 100

	// AccountKeyPrefix namespaces account records inside the key-value backend.
	AccountKeyPrefix = "user:"
)

// KV is the contract implemented by persistence backends. Values are whole
// records; Set always overwrites.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Count(ctx context.Context, prefix string) (int, error)
}

// AccountKey returns the backend key for a mobile number.
func AccountKey(mobile string) string {
	return AccountKeyPrefix + mobile
}

// MobileFromKey is the inverse of AccountKey.
func MobileFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, AccountKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, AccountKeyPrefix), true
}
