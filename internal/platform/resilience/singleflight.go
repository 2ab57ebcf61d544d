package resilience

import (
	"context"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error
}

func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	c, leader := g.join(key)
	if !leader {
		<-c.done
		return c.val, c.err, true
	}

	g.run(key, c, fn)
	return c.val, c.err, false
}

// DoContext is Do, but followers stop waiting when ctx ends.
// The leader always runs fn to completion so later followers still get its result.
func (g *SingleFlight) DoContext(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	c, leader := g.join(key)
	if leader {
		g.run(key, c, fn)
		return c.val, c.err, false
	}

	select {
	case <-c.done:
		return c.val, c.err, true
	case <-ctx.Done():
		return nil, ctx.Err(), true
	}
}

func (g *SingleFlight) join(key string) (*call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	if c, ok := g.calls[key]; ok {
		return c, false
	}

	c := &call{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *SingleFlight) run(key string, c *call, fn func() (any, error)) {
	defer func() {
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
}
