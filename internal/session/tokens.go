package session

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultTokenTTL is how long an idle session token stays valid.
	DefaultTokenTTL = 7 * 24 * time.Hour

	tokenKeyPrefix = "session:"
)

// TokenStore maps opaque session tokens to mobiles. Lookup returns "" for
// unknown or expired tokens.
type TokenStore interface {
	Lookup(ctx context.Context, token string) (string, error)
	Bind(ctx context.Context, token, mobile string) error
	Revoke(ctx context.Context, token string) error
}

// RedisTokenStore keeps tokens in Redis with a sliding TTL. Only a hash of the
// token is used as the key, so a keyspace dump does not leak live tokens.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenStore builds a Redis-backed token store.
func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &RedisTokenStore{client: client, ttl: ttl}
}

// Lookup resolves a token and extends its lifetime.
func (r *RedisTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	key := tokenKey(token)
	mobile, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return "", err
	}
	return mobile, nil
}

// Bind associates token with mobile.
func (r *RedisTokenStore) Bind(ctx context.Context, token, mobile string) error {
	return r.client.Set(ctx, tokenKey(token), mobile, r.ttl).Err()
}

// Revoke deletes the token.
func (r *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	return r.client.Del(ctx, tokenKey(token)).Err()
}

func tokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}

type memoryToken struct {
	mobile  string
	expires time.Time
}

// MemoryTokenStore is the in-process TokenStore used in development and tests.
type MemoryTokenStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	tokens    map[string]memoryToken
	lastPrune time.Time
}

// NewMemoryTokenStore builds an in-memory token store.
func NewMemoryTokenStore(ttl time.Duration) *MemoryTokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &MemoryTokenStore{ttl: ttl, now: time.Now, tokens: make(map[string]memoryToken)}
}

// Lookup resolves a token and extends its lifetime.
func (m *MemoryTokenStore) Lookup(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.tokens[token]
	if !ok {
		return "", nil
	}
	now := m.now()
	if now.After(entry.expires) {
		delete(m.tokens, token)
		return "", nil
	}
	entry.expires = now.Add(m.ttl)
	m.tokens[token] = entry
	return entry.mobile, nil
}

// Bind associates token with mobile.
func (m *MemoryTokenStore) Bind(_ context.Context, token, mobile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastPrune) >= time.Minute {
		m.lastPrune = now
		for t, entry := range m.tokens {
			if now.After(entry.expires) {
				delete(m.tokens, t)
			}
		}
	}
	m.tokens[token] = memoryToken{mobile: mobile, expires: now.Add(m.ttl)}
	return nil
}

// Len reports how many tokens are held, expired ones included until pruned.
func (m *MemoryTokenStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Revoke deletes the token.
func (m *MemoryTokenStore) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}
