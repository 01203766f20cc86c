package ledger

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/win-bin/win_bin/internal/logging"
)

const lockStripes = 64

// Store is the account ledger: one whole record per mobile on top of a KV backend.
//
// Mutations of the same mobile are serialised inside the process by striped
// locks, so a read-merge-write never interleaves with another one for that key.
// Separate processes sharing a backend still race (last writer wins).
type Store struct {
	kv          KV
	logger      *slog.Logger
	maxAccounts int

	createMu sync.Mutex
	stripes  [lockStripes]sync.Mutex
}

// Option customises a Store.
type Option func(*Store)

// WithMaxAccounts overrides the account cap. Non-positive values keep the default.
func WithMaxAccounts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAccounts = n
		}
	}
}

// WithLogger sets the logger used for soft failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore builds a ledger store over the given backend.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		logger:      logging.Discard(),
		maxAccounts: DefaultMaxAccounts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAccounts returns the configured cap.
func (s *Store) MaxAccounts() int {
	return s.maxAccounts
}

// Get returns the account for mobile. Backend failures are logged and reported
// as absent.
func (s *Store) Get(ctx context.Context, mobile string) (UserAccount, bool) {
	acc, err := s.load(ctx, mobile)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.Error("ledger get failed", slog.String("mobile", mobile), slog.Any("error", err))
		}
		return UserAccount{}, false
	}
	return acc, true
}

// Lookup is Get with the failure kind preserved: ErrAccountNotFound when the
// mobile is unknown, ErrStorageUnavailable when the backend failed.
func (s *Store) Lookup(ctx context.Context, mobile string) (UserAccount, error) {
	acc, err := s.load(ctx, mobile)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		s.logger.Error("ledger lookup failed", slog.String("mobile", mobile), slog.Any("error", err))
	}
	return acc, err
}

// Create registers a new account with no bottles and a zero balance.
//
// If mobile is already registered the stored record is returned unchanged along
// with ErrAccountExists, even when the store is full.
func (s *Store) Create(ctx context.Context, name, mobile string) (UserAccount, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	lock := s.lockFor(mobile)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.load(ctx, mobile)
	switch {
	case err == nil:
		s.logger.Warn("account already exists", slog.String("mobile", mobile))
		return existing, ErrAccountExists
	case !errors.Is(err, ErrAccountNotFound):
		s.logger.Error("ledger create lookup failed", slog.String("mobile", mobile), slog.Any("error", err))
		return UserAccount{}, err
	}

	n, err := s.kv.Count(ctx, AccountKeyPrefix)
	if err != nil {
		s.logger.Error("ledger count failed", slog.Any("error", err))
		return UserAccount{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if n >= s.maxAccounts {
		s.logger.Warn("account store is full", slog.Int("accounts", n), slog.Int("max", s.maxAccounts))
		return UserAccount{}, ErrCapacityExceeded
	}

	acc := UserAccount{Name: name, Mobile: mobile, Bottles: []BottleRecord{}, EcoCoins: 0}
	if err := s.save(ctx, acc); err != nil {
		s.logger.Error("ledger create failed", slog.String("mobile", mobile), slog.Any("error", err))
		return UserAccount{}, err
	}
	return acc.Clone(), nil
}

// Update reads the whole record, shallow-merges patch over it and writes the
// merged record back.
func (s *Store) Update(ctx context.Context, mobile string, patch Patch) (UserAccount, error) {
	return s.Apply(ctx, mobile, func(UserAccount) (Patch, error) {
		return patch, nil
	})
}

// Apply is Update with the patch computed from the freshly read record while
// the key is locked. An error from fn aborts without writing and is returned as is.
func (s *Store) Apply(ctx context.Context, mobile string, fn func(UserAccount) (Patch, error)) (UserAccount, error) {
	lock := s.lockFor(mobile)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.load(ctx, mobile)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.logger.Warn("account not found for update", slog.String("mobile", mobile))
		} else {
			s.logger.Error("ledger update lookup failed", slog.String("mobile", mobile), slog.Any("error", err))
		}
		return UserAccount{}, err
	}

	patch, err := fn(current.Clone())
	if err != nil {
		return UserAccount{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	merged := current.merge(patch)
	if merged.EcoCoins < 0 {
		s.logger.Warn("rejected negative balance", slog.String("mobile", mobile), slog.Int64("eco_coins", merged.EcoCoins))
		return UserAccount{}, ErrNegativeBalance
	}
	if err := s.save(ctx, merged); err != nil {
		s.logger.Error("ledger update failed", slog.String("mobile", mobile), slog.Any("error", err))
		return UserAccount{}, err
	}
	return merged.Clone(), nil
}

// Count returns the number of stored accounts.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.kv.Count(ctx, AccountKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return n, nil
}

func (s *Store) load(ctx context.Context, mobile string) (UserAccount, error) {
	raw, err := s.kv.Get(ctx, AccountKey(mobile))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return UserAccount{}, ErrAccountNotFound
		}
		return UserAccount{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	acc, err := decodeAccount(raw)
	if err != nil {
		return UserAccount{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return acc, nil
}

func (s *Store) save(ctx context.Context, acc UserAccount) error {
	raw, err := encodeAccount(acc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := s.kv.Set(ctx, AccountKey(acc.Mobile), raw); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) lockFor(mobile string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mobile))
	return &s.stripes[h.Sum32()%lockStripes]
}
