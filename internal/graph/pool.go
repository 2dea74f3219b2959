package graph

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Key identifies a connection by its credential tuple. Two requests
// share a handle exactly when their keys are equal.
type Key struct {
	URL      string
	Username string
	Password string
}

// Conn is the subset of Client the pool hands out. Handlers depend on
// this interface so tests can substitute a fake.
type Conn interface {
	Run(ctx context.Context, q Query) (*Result, error)
	Classify(ctx context.Context, queryText string, params map[string]any, database string) (StatementKind, error)
	Verify(ctx context.Context) error
	Close(ctx context.Context) error
}

// DialFunc opens a connection for a credential key.
type DialFunc func(ctx context.Context, key Key) (Conn, error)

// Pool caches one connection handle per process, keyed by credentials.
// Acquire reuses the handle while the key is unchanged and releases the
// old handle exactly once when it changes. All operations are mutex
// guarded, so concurrent callers with different credentials serialize
// here instead of racing a bare field.
type Pool struct {
	mu     sync.Mutex
	dial   DialFunc
	key    Key
	conn   Conn
	logger *zap.Logger
}

// NewPool creates a pool that dials real driver connections using base
// as the template for timeouts and pool sizing.
func NewPool(base Config, logger *zap.Logger) *Pool {
	return &Pool{
		dial: func(ctx context.Context, key Key) (Conn, error) {
			cfg := base
			cfg.URL = key.URL
			cfg.Username = key.Username
			cfg.Password = key.Password
			return Connect(ctx, cfg)
		},
		logger: logger,
	}
}

// NewPoolWithDialer creates a pool with a custom dialer. Used by tests.
func NewPoolWithDialer(dial DialFunc, logger *zap.Logger) *Pool {
	return &Pool{dial: dial, logger: logger}
}

// Acquire returns the cached handle when the key matches the held one,
// otherwise releases the held handle and dials a new one.
func (p *Pool) Acquire(ctx context.Context, key Key) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && p.key == key {
		return p.conn, nil
	}

	if p.conn != nil {
		if err := p.conn.Close(ctx); err != nil {
			p.logger.Warn("closing stale graph connection failed", zap.Error(err))
		}
		p.conn = nil
	}

	conn, err := p.dial(ctx, key)
	if err != nil {
		return nil, err
	}

	p.conn = conn
	p.key = key
	return conn, nil
}

// Invalidate drops the held handle if it matches the key, closing it in
// the background. The next Acquire dials fresh.
func (p *Pool) Invalidate(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.key != key {
		return
	}
	conn := p.conn
	p.conn = nil
	go func() {
		if err := conn.Close(context.Background()); err != nil {
			p.logger.Warn("closing invalidated graph connection failed", zap.Error(err))
		}
	}()
}

// Close releases the held handle, if any.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return
	}
	if err := p.conn.Close(ctx); err != nil {
		p.logger.Warn("closing graph connection failed", zap.Error(err))
	}
	p.conn = nil
}
