package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/win-bin/win_bin/internal/ledger"
)

func newTestRegistry(store *ledger.Store, tokens TokenStore) *Registry {
	return NewRegistry(tokens, func(p Pointer) *Session { return New(store, p) }, nil)
}

func TestRegistryLoginAndOpen(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledger.NewInMemory())
	reg := newTestRegistry(store, NewMemoryTokenStore(0))

	token, res, err := reg.Login(ctx, "Asha", "9876543210")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || !res.NewUser {
		t.Fatalf("unexpected login result %q %+v", token, res)
	}

	sess, err := reg.Open(ctx, token)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sess.Snapshot().Mobile != "9876543210" {
		t.Fatalf("opened wrong session")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one cached session, got %d", reg.Len())
	}
}

func TestRegistryFailedLoginRegistersNothing(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledger.NewInMemory())
	reg := newTestRegistry(store, NewMemoryTokenStore(0))

	reg.Login(ctx, "Asha", "9876543210")
	if _, _, err := reg.Login(ctx, "Vikram", "9876543210"); !errors.Is(err, ErrNameMismatch) {
		t.Fatalf("expected ErrNameMismatch, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("failed login was registered")
	}
}

func TestRegistryRestoresFromTokenStore(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledger.NewInMemory())
	tokens := NewMemoryTokenStore(0)

	token, _, err := newTestRegistry(store, tokens).Login(ctx, "Asha", "9876543210")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	restarted := newTestRegistry(store, tokens)
	sess, err := restarted.Open(ctx, token)
	if err != nil {
		t.Fatalf("open after restart: %v", err)
	}
	if _, err := sess.AddBottle(ctx, "Pepsi", 500); err != nil {
		t.Fatalf("add bottle: %v", err)
	}
	acc, _ := store.Get(ctx, "9876543210")
	if acc.EcoCoins != 10 {
		t.Fatalf("expected 10 coins, got %d", acc.EcoCoins)
	}
}

func TestRegistryLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledger.NewInMemory())
	tokens := NewMemoryTokenStore(0)
	reg := newTestRegistry(store, tokens)

	token, _, _ := reg.Login(ctx, "Asha", "9876543210")
	reg.Logout(ctx, token)

	if _, err := reg.Open(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if mobile, _ := tokens.Lookup(ctx, token); mobile != "" {
		t.Fatalf("token still bound after logout")
	}
	if reg.Len() != 0 {
		t.Fatalf("session still cached after logout")
	}
}

func TestRegistryOpenRejectsUnknownTokens(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(ledger.NewStore(ledger.NewInMemory()), NewMemoryTokenStore(0))

	for _, token := range []string{"", "does-not-exist"} {
		if _, err := reg.Open(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("Open(%q): expected ErrNotAuthenticated, got %v", token, err)
		}
	}
}

func TestRegistryOpenDropsTokenForDeletedAccount(t *testing.T) {
	ctx := context.Background()
	tokens := NewMemoryTokenStore(0)
	tokens.Bind(ctx, "orphan", "9123456789")
	reg := newTestRegistry(ledger.NewStore(ledger.NewInMemory()), tokens)

	if _, err := reg.Open(ctx, "orphan"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if mobile, _ := tokens.Lookup(ctx, "orphan"); mobile != "" {
		t.Fatalf("expected orphan token to be revoked")
	}
}

type switchKV struct {
	ledger.KV
	down bool
}

func (s *switchKV) Get(ctx context.Context, key string) ([]byte, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.KV.Get(ctx, key)
}

type unbindableTokens struct {
	*MemoryTokenStore
}

func (unbindableTokens) Bind(context.Context, string, string) error {
	return errors.New("redis: connection pool timeout")
}

func TestRegistrySweepsIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	tokens := NewMemoryTokenStore(time.Minute)
	tokens.now = clock
	store := ledger.NewStore(ledger.NewInMemory())
	reg := NewRegistry(tokens, func(p Pointer) *Session { return New(store, p) }, nil,
		WithIdleTimeout(time.Minute), WithRegistryClock(clock))

	first, _, err := reg.Login(ctx, "Asha", "9876543210")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 1; i < 1000; i++ {
		if _, _, err := reg.Login(ctx, "Asha", "9876543210"); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if reg.Len() != 1000 {
		t.Fatalf("expected 1000 cached sessions, got %d", reg.Len())
	}

	now = now.Add(time.Hour)
	if _, _, err := reg.Login(ctx, "Asha", "9876543210"); err != nil {
		t.Fatalf("login after idle period: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected idle sessions to be swept, %d remain", reg.Len())
	}
	if tokens.Len() != 1 {
		t.Fatalf("expected expired tokens to be pruned, %d remain", tokens.Len())
	}
	if _, err := reg.Open(ctx, first); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestRegistrySweepKeepsActiveSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	tokens := NewMemoryTokenStore(time.Hour)
	tokens.now = clock
	store := ledger.NewStore(ledger.NewInMemory())
	reg := NewRegistry(tokens, func(p Pointer) *Session { return New(store, p) }, nil,
		WithIdleTimeout(10*time.Minute), WithRegistryClock(clock))

	active, _, _ := reg.Login(ctx, "Asha", "9876543210")
	reg.Login(ctx, "Vikram", "9123456789")

	now = now.Add(8 * time.Minute)
	if _, err := reg.Open(ctx, active); err != nil {
		t.Fatalf("open: %v", err)
	}
	now = now.Add(8 * time.Minute)
	if removed := reg.Sweep(); removed != 1 {
		t.Fatalf("expected only the idle session to be swept, removed %d", removed)
	}
	if _, err := reg.Open(ctx, active); err != nil {
		t.Fatalf("active session lost: %v", err)
	}
}

func TestRegistryLoginFailsWhenTokenCannotBeBound(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(ledger.NewInMemory())
	reg := newTestRegistry(store, unbindableTokens{NewMemoryTokenStore(0)})

	token, _, err := reg.Login(ctx, "Asha", "9876543210")
	if !errors.Is(err, ledger.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if token != "" || reg.Len() != 0 {
		t.Fatalf("unbound token %q was handed out", token)
	}
}

func TestRegistryOpenKeepsTokenDuringOutage(t *testing.T) {
	ctx := context.Background()
	kv := &switchKV{KV: ledger.NewInMemory()}
	store := ledger.NewStore(kv)
	tokens := NewMemoryTokenStore(0)

	token, _, err := newTestRegistry(store, tokens).Login(ctx, "Asha", "9876543210")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	restarted := newTestRegistry(store, tokens)
	kv.down = true
	if _, err := restarted.Open(ctx, token); !errors.Is(err, ledger.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if mobile, _ := tokens.Lookup(ctx, token); mobile != "9876543210" {
		t.Fatalf("outage revoked the token")
	}

	kv.down = false
	if _, err := restarted.Open(ctx, token); err != nil {
		t.Fatalf("expected open to recover, got %v", err)
	}
}
