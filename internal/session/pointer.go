package session

import (
	"context"
	"sync"
)

// Pointer remembers which mobile a client was last logged in as. Load returns
// "" when nothing is remembered.
type Pointer interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, mobile string) error
	Clear(ctx context.Context) error
}

// MemoryPointer keeps the pointer in process memory.
type MemoryPointer struct {
	mu     sync.Mutex
	mobile string
}

// Load returns the remembered mobile.
func (p *MemoryPointer) Load(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mobile, nil
}

// Save remembers mobile.
func (p *MemoryPointer) Save(_ context.Context, mobile string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mobile = mobile
	return nil
}

// Clear forgets the remembered mobile.
func (p *MemoryPointer) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mobile = ""
	return nil
}

// tokenPointer stores the pointer server-side under a client's session token.
// The last Save error is kept so the registry can refuse a token that was never bound.
type tokenPointer struct {
	tokens TokenStore
	token  string

	mu      sync.Mutex
	saveErr error
}

func (p *tokenPointer) Load(ctx context.Context) (string, error) {
	return p.tokens.Lookup(ctx, p.token)
}

func (p *tokenPointer) Save(ctx context.Context, mobile string) error {
	err := p.tokens.Bind(ctx, p.token, mobile)
	p.mu.Lock()
	p.saveErr = err
	p.mu.Unlock()
	return err
}

func (p *tokenPointer) Clear(ctx context.Context) error {
	return p.tokens.Revoke(ctx, p.token)
}

func (p *tokenPointer) lastSaveErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveErr
}
