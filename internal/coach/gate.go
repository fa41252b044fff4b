package coach

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// turnGate serializes turns per session. Entries live only while a turn holds or waits for them.
type turnGate struct {
	queue bool

	mu      sync.Mutex
	entries map[string]*gateEntry
}

type gateEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newTurnGate(queue bool) *turnGate {
	return &turnGate{queue: queue, entries: make(map[string]*gateEntry)}
}

// acquire takes the session slot. Without queueing a busy slot fails fast with ErrTurnInProgress.
func (g *turnGate) acquire(ctx context.Context, sessionID string) (func(), error) {
	entry := g.ref(sessionID)

	if g.queue {
		if err := entry.sem.Acquire(ctx, 1); err != nil {
			g.unref(sessionID)
			return nil, err
		}
	} else if !entry.sem.TryAcquire(1) {
		g.unref(sessionID)
		return nil, ErrTurnInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			g.unref(sessionID)
		})
	}, nil
}

func (g *turnGate) ref(sessionID string) *gateEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[sessionID]
	if !ok {
		entry = &gateEntry{sem: semaphore.NewWeighted(1)}
		g.entries[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (g *turnGate) unref(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(g.entries, sessionID)
	}
}

func (g *turnGate) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
