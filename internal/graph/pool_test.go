package graph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeConn struct {
	key      Key
	closes   atomic.Int32
	closedCh chan struct{}
}

func newFakeConn(key Key) *fakeConn {
	return &fakeConn{key: key, closedCh: make(chan struct{})}
}

func (f *fakeConn) Run(context.Context, Query) (*Result, error) { return &Result{}, nil }
func (f *fakeConn) Classify(context.Context, string, map[string]any, string) (StatementKind, error) {
	return StatementReadOnly, nil
}
func (f *fakeConn) Verify(context.Context) error { return nil }
func (f *fakeConn) Close(context.Context) error {
	if f.closes.Add(1) == 1 {
		close(f.closedCh)
	}
	return nil
}

func newTestPool(dialed *[]*fakeConn) *Pool {
	return NewPoolWithDialer(func(_ context.Context, key Key) (Conn, error) {
		c := newFakeConn(key)
		*dialed = append(*dialed, c)
		return c, nil
	}, zap.NewNop())
}

func TestPool_ReusesHandleForSameKey(t *testing.T) {
	var dialed []*fakeConn
	pool := newTestPool(&dialed)
	key := Key{URL: "neo4j://db:7687", Username: "neo4j", Password: "pw"}

	first, err := pool.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	second, err := pool.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	if first != second {
		t.Error("identical keys must return the same handle instance")
	}
	if len(dialed) != 1 {
		t.Errorf("expected 1 dial, got %d", len(dialed))
	}
}

func TestPool_ReleasesOldHandleOnceOnKeyChange(t *testing.T) {
	var dialed []*fakeConn
	pool := newTestPool(&dialed)
	key := Key{URL: "neo4j://db:7687", Username: "neo4j", Password: "pw"}

	if _, err := pool.Acquire(context.Background(), key); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := pool.Acquire(context.Background(), key); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	rotated := key
	rotated.Password = "new-pw"
	fresh, err := pool.Acquire(context.Background(), rotated)
	if err != nil {
		t.Fatalf("acquire with new password: %v", err)
	}

	if len(dialed) != 2 {
		t.Fatalf("expected 2 dials, got %d", len(dialed))
	}
	if fresh == Conn(dialed[0]) {
		t.Error("key change must produce a new handle")
	}
	if got := dialed[0].closes.Load(); got != 1 {
		t.Errorf("old handle must be released exactly once, closed %d times", got)
	}
	if got := dialed[1].closes.Load(); got != 0 {
		t.Errorf("new handle must stay open, closed %d times", got)
	}
}

func TestPool_DialFailureLeavesPoolEmpty(t *testing.T) {
	dialErr := errors.New("boom")
	pool := NewPoolWithDialer(func(context.Context, Key) (Conn, error) {
		return nil, dialErr
	}, zap.NewNop())

	if _, err := pool.Acquire(context.Background(), Key{URL: "neo4j://db"}); !errors.Is(err, dialErr) {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestPool_Invalidate(t *testing.T) {
	var dialed []*fakeConn
	pool := newTestPool(&dialed)
	key := Key{URL: "neo4j://db:7687", Username: "neo4j", Password: "pw"}

	if _, err := pool.Acquire(context.Background(), key); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Invalidate(key)

	select {
	case <-dialed[0].closedCh:
	case <-time.After(time.Second):
		t.Fatal("invalidated handle was not closed")
	}

	if _, err := pool.Acquire(context.Background(), key); err != nil {
		t.Fatalf("acquire after invalidate: %v", err)
	}
	if len(dialed) != 2 {
		t.Errorf("expected a fresh dial after invalidate, got %d dials", len(dialed))
	}
}

func TestPool_InvalidateOtherKeyIsNoop(t *testing.T) {
	var dialed []*fakeConn
	pool := newTestPool(&dialed)
	key := Key{URL: "neo4j://db:7687", Username: "neo4j", Password: "pw"}

	if _, err := pool.Acquire(context.Background(), key); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Invalidate(Key{URL: "neo4j://other:7687"})

	if got := dialed[0].closes.Load(); got != 0 {
		t.Errorf("handle for a different key must not be closed, closed %d times", got)
	}
}

func TestPool_Close(t *testing.T) {
	var dialed []*fakeConn
	pool := newTestPool(&dialed)

	if _, err := pool.Acquire(context.Background(), Key{URL: "neo4j://db"}); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Close(context.Background())
	pool.Close(context.Background()) // idempotent

	if got := dialed[0].closes.Load(); got != 1 {
		t.Errorf("expected exactly one close, got %d", got)
	}
}
