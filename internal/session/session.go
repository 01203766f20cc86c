// Package session tracks the active user of one client: who is logged in, a
// mirror of their ledger record, and every mutation routed through the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/win-bin/win_bin/internal/ledger"
	"github.com/win-bin/win_bin/internal/logging"
	"github.com/win-bin/win_bin/internal/metrics"
	"github.com/win-bin/win_bin/internal/notification"
	"github.com/win-bin/win_bin/internal/rewards"
)

var (
	// ErrNotAuthenticated is returned by operations that need an active user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNameMismatch means the mobile is registered under a different name.
	ErrNameMismatch = errors.New("mobile number is registered with a different name")
	// ErrInvalidBottleType rejects blank bottle labels.
	ErrInvalidBottleType = errors.New("bottle type is required")
	// ErrInvalidBottleSize rejects negative volumes.
	ErrInvalidBottleSize = errors.New("bottle size must not be negative")
)

// State is the lifecycle position of a session.
type State int

const (
	StateUnauthenticated State = iota
	StateRestoring
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// AccountStore is the part of the ledger a session needs. Lookup must report
// ledger.ErrAccountNotFound for unknown mobiles and ledger.ErrStorageUnavailable
// for backend failures.
type AccountStore interface {
	Lookup(ctx context.Context, mobile string) (ledger.UserAccount, error)
	Create(ctx context.Context, name, mobile string) (ledger.UserAccount, error)
	Apply(ctx context.Context, mobile string, fn func(ledger.UserAccount) (ledger.Patch, error)) (ledger.UserAccount, error)
}

// View is a point-in-time copy of the session for rendering.
type View struct {
	State    State
	Name     string
	Mobile   string
	Bottles  []ledger.BottleRecord
	EcoCoins int64
}

// LoginResult describes a successful login.
type LoginResult struct {
	NewUser bool
	View    View
}

// Session is one client's active-user state. Its methods are serialised, so a
// second action waits for the one in flight.
type Session struct {
	mu sync.Mutex

	store    AccountStore
	pointer  Pointer
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	state    State
	name     string
	mobile   string
	bottles  []ledger.BottleRecord
	ecoCoins int64
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier sets where welcome/bottle/redemption messages go.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithClock overrides the bottle timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides bottle id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// New creates an unauthenticated session.
func New(store AccountStore, pointer Pointer, opts ...Option) *Session {
	s := &Session{
		store:   store,
		pointer: pointer,
		logger:  logging.Discard(),
		now:     time.Now,
		newID:   uuid.NewString,
		bottles: []ledger.BottleRecord{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore resolves the remembered mobile and, if its account still exists,
// authenticates as it. A pointer to a vanished account is cleared; a pointer
// is kept when the store is unreachable so a later restore can succeed.
func (s *Session) Restore(ctx context.Context) bool {
	return s.restore(ctx) == nil
}

func (s *Session) restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateRestoring
	mobile, err := s.pointer.Load(ctx)
	if err != nil {
		s.logger.Error("restore session: load pointer", slog.Any("error", err))
		s.reset()
		return fmt.Errorf("%w: load pointer: %w", ledger.ErrStorageUnavailable, err)
	}
	if mobile == "" {
		s.reset()
		return ErrNotAuthenticated
	}

	acc, err := s.store.Lookup(ctx, mobile)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		if err := s.pointer.Clear(ctx); err != nil {
			s.logger.Warn("restore session: clear stale pointer", slog.Any("error", err))
		}
		s.reset()
		return ErrNotAuthenticated
	case err != nil:
		s.logger.Warn("restore session: store unavailable, keeping pointer", slog.String("mobile", mobile), slog.Any("error", err))
		s.reset()
		return err
	}
	s.authenticate(acc)
	return nil
}

// Login authenticates name+mobile, registering the mobile if it is new.
func (s *Session) Login(ctx context.Context, name, mobile string) (LoginResult, error) {
	name = strings.TrimSpace(name)
	mobile = strings.TrimSpace(mobile)
	if err := ValidateName(name); err != nil {
		return LoginResult{}, err
	}
	if err := ValidateMobile(mobile); err != nil {
		return LoginResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newUser := false
	acc, err := s.store.Lookup(ctx, mobile)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		metrics.RecordLogin(metrics.LoginFailed)
		return LoginResult{}, err
	}
	if err != nil {
		created, err := s.store.Create(ctx, name, mobile)
		switch {
		case err == nil:
			acc = created
			newUser = true
		case errors.Is(err, ledger.ErrAccountExists):
			// Registered between our lookup and create; treat as a returning user.
			acc = created
		default:
			metrics.RecordLogin(metrics.LoginFailed)
			return LoginResult{}, err
		}
	}
	if !strings.EqualFold(acc.Name, name) {
		metrics.RecordLogin(metrics.LoginNameMismatch)
		return LoginResult{}, ErrNameMismatch
	}

	s.authenticate(acc)
	if err := s.pointer.Save(ctx, mobile); err != nil {
		s.logger.Warn("login: persist pointer", slog.String("mobile", mobile), slog.Any("error", err))
	}

	if newUser {
		metrics.RecordLogin(metrics.LoginNew)
		s.notify(ctx, notification.KindWelcome, fmt.Sprintf("Welcome to Win-Bin, %s!", acc.Name))
	} else {
		metrics.RecordLogin(metrics.LoginReturning)
	}
	s.logger.Info("login", slog.String("mobile", mobile), slog.Bool("new_user", newUser))

	return LoginResult{NewUser: newUser, View: s.view()}, nil
}

// Logout forgets the user and the remembered pointer. It never fails.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pointer.Clear(ctx); err != nil {
		s.logger.Warn("logout: clear pointer", slog.Any("error", err))
	}
	s.reset()
}

// AddBottle records a confirmed bottle and credits its coins. The mirror only
// moves once the store has accepted the write.
func (s *Session) AddBottle(ctx context.Context, bottleType string, sizeMl int) (ledger.BottleRecord, error) {
	bottleType = strings.TrimSpace(bottleType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return ledger.BottleRecord{}, ErrNotAuthenticated
	}
	if bottleType == "" {
		return ledger.BottleRecord{}, ErrInvalidBottleType
	}
	if sizeMl < 0 {
		return ledger.BottleRecord{}, ErrInvalidBottleSize
	}

	bottle := ledger.BottleRecord{
		ID:        s.newID(),
		Type:      bottleType,
		SizeMl:    sizeMl,
		Timestamp: s.now().UnixMilli(),
	}
	updated, err := s.store.Apply(ctx, s.mobile, func(acc ledger.UserAccount) (ledger.Patch, error) {
		coins, bottles := rewards.ApplyEarn(acc.EcoCoins, acc.Bottles, bottle)
		return ledger.Patch{Bottles: bottles, EcoCoins: ledger.Coins(coins)}, nil
	})
	if err != nil {
		s.logger.Error("add bottle failed", slog.String("mobile", s.mobile), slog.Any("error", err))
		return ledger.BottleRecord{}, err
	}

	s.mirror(updated)
	metrics.RecordBottle(rewards.CoinsForBottle())
	s.notify(ctx, notification.KindBottleRecorded,
		fmt.Sprintf("You've earned %d EcoCoins for a %s.", rewards.CoinsForBottle(), bottle.Type))
	return bottle, nil
}

// DeductCoins spends amount coins. A mirror balance below amount fails without
// touching the store.
func (s *Session) DeductCoins(ctx context.Context, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deduct(ctx, amount)
}

// Redeem spends the cost of a catalog option.
func (s *Session) Redeem(ctx context.Context, optionID string) (rewards.Option, error) {
	option, err := rewards.Lookup(optionID)
	if err != nil {
		return rewards.Option{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deduct(ctx, option.Cost); err != nil {
		return rewards.Option{}, err
	}
	return option, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Authenticated reports whether a user is active.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated
}

func (s *Session) deduct(ctx context.Context, amount int64) error {
	if s.state != StateAuthenticated {
		return ErrNotAuthenticated
	}
	if amount <= 0 {
		return rewards.ErrInvalidCost
	}
	if !rewards.CanAfford(s.ecoCoins, amount) {
		return &rewards.InsufficientBalanceError{Balance: s.ecoCoins, Cost: amount}
	}

	updated, err := s.store.Apply(ctx, s.mobile, func(acc ledger.UserAccount) (ledger.Patch, error) {
		coins, err := rewards.ApplyRedeem(acc.EcoCoins, amount)
		if err != nil {
			return ledger.Patch{}, err
		}
		return ledger.Patch{EcoCoins: ledger.Coins(coins)}, nil
	})
	if err != nil {
		s.logger.Warn("deduct coins failed", slog.String("mobile", s.mobile), slog.Int64("amount", amount), slog.Any("error", err))
		return err
	}

	s.mirror(updated)
	metrics.RecordRedemption(amount)
	s.notify(ctx, notification.KindRedemption,
		fmt.Sprintf("Redeemed %d EcoCoins. Balance: %d.", amount, updated.EcoCoins))
	return nil
}

func (s *Session) authenticate(acc ledger.UserAccount) {
	s.state = StateAuthenticated
	s.name = acc.Name
	s.mobile = acc.Mobile
	s.mirror(acc)
}

func (s *Session) mirror(acc ledger.UserAccount) {
	s.bottles = acc.Clone().Bottles
	s.ecoCoins = acc.EcoCoins
}

func (s *Session) reset() {
	s.state = StateUnauthenticated
	s.name = ""
	s.mobile = ""
	s.bottles = []ledger.BottleRecord{}
	s.ecoCoins = 0
}

func (s *Session) view() View {
	bottles := make([]ledger.BottleRecord, len(s.bottles))
	copy(bottles, s.bottles)
	return View{
		State:    s.state,
		Name:     s.name,
		Mobile:   s.mobile,
		Bottles:  bottles,
		EcoCoins: s.ecoCoins,
	}
}

func (s *Session) notify(ctx context.Context, kind, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: s.mobile, Body: body}); err != nil {
		s.logger.Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
