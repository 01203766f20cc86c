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
)

// sweepInterval bounds how often Login/Open scan the cache for idle sessions.
const sweepInterval = time.Minute

// Factory builds a fresh session around a pointer.
type Factory func(Pointer) *Session

type cachedSession struct {
	sess     *Session
	lastSeen time.Time
}

// Registry keeps the live sessions of an HTTP server keyed by session token.
// Every lookup re-checks the token so expiry and revocation by another
// replica take effect. Sessions idle for longer than the idle timeout are
// dropped from memory; their tokens can still restore them later.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]cachedSession
	lastSweep time.Time

	tokens  TokenStore
	factory Factory
	logger  *slog.Logger
	idle    time.Duration
	now     func() time.Time
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout sets how long an unused session stays cached. It should
// match the token TTL. Non-positive values keep DefaultTokenTTL.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idle = d
		}
	}
}

// WithRegistryClock overrides the clock used for idle tracking.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry builds a registry.
func NewRegistry(tokens TokenStore, factory Factory, logger *slog.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Registry{
		sessions: make(map[string]cachedSession),
		tokens:   tokens,
		factory:  factory,
		logger:   logger,
		idle:     DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Login opens a new session for name+mobile and returns its token. Nothing is
// registered when the login fails or the token could not be bound.
func (r *Registry) Login(ctx context.Context, name, mobile string) (string, LoginResult, error) {
	token := newToken()
	pointer := &tokenPointer{tokens: r.tokens, token: token}
	sess := r.factory(pointer)
	res, err := sess.Login(ctx, name, mobile)
	if err != nil {
		return "", LoginResult{}, err
	}
	if err := pointer.lastSaveErr(); err != nil {
		r.logger.Error("bind session token failed", slog.String("mobile", res.View.Mobile), slog.Any("error", err))
		return "", LoginResult{}, fmt.Errorf("%w: bind session token: %w", ledger.ErrStorageUnavailable, err)
	}

	r.mu.Lock()
	r.sweepLocked()
	r.sessions[token] = cachedSession{sess: sess, lastSeen: r.now()}
	r.mu.Unlock()
	return token, res, nil
}

// Open returns the authenticated session behind token, restoring it from the
// token store when this process has not seen it yet. It returns
// ErrNotAuthenticated for unknown tokens and ledger.ErrStorageUnavailable when
// the token or account backend cannot be reached.
func (r *Registry) Open(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	mobile, err := r.tokens.Lookup(ctx, token)
	if err != nil {
		r.logger.Error("session token lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: token lookup: %w", ledger.ErrStorageUnavailable, err)
	}
	if mobile == "" {
		r.forget(token)
		return nil, ErrNotAuthenticated
	}

	r.mu.Lock()
	r.sweepLocked()
	entry, ok := r.sessions[token]
	if ok {
		entry.lastSeen = r.now()
		r.sessions[token] = entry
	}
	r.mu.Unlock()
	if ok && entry.sess.Authenticated() {
		return entry.sess, nil
	}

	sess := r.factory(&tokenPointer{tokens: r.tokens, token: token})
	if err := sess.restore(ctx); err != nil {
		r.forget(token)
		if errors.Is(err, ledger.ErrStorageUnavailable) {
			return nil, err
		}
		return nil, ErrNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[token]; ok && existing.sess.Authenticated() {
		return existing.sess, nil
	}
	r.sessions[token] = cachedSession{sess: sess, lastSeen: r.now()}
	return sess, nil
}

// Logout ends the session behind token. Unknown tokens are revoked anyway.
func (r *Registry) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	entry, ok := r.sessions[token]
	delete(r.sessions, token)
	r.mu.Unlock()

	if ok {
		entry.sess.Logout(ctx)
		return
	}
	if err := r.tokens.Revoke(ctx, token); err != nil {
		r.logger.Warn("revoke session token", slog.Any("error", err))
	}
}

// Len reports how many sessions are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the idle timeout and returns how
// many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepNowLocked()
}

func (r *Registry) sweepLocked() {
	if r.now().Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.sweepNowLocked()
}

func (r *Registry) sweepNowLocked() int {
	now := r.now()
	r.lastSweep = now
	removed := 0
	for token, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.idle {
			delete(r.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("swept idle sessions", slog.Int("removed", removed), slog.Int("remaining", len(r.sessions)))
	}
	return removed
}

func (r *Registry) forget(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
