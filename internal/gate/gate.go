// Package gate decides whether a detected change should reach the stamp
// engine. It owns the adapter-side state the engine deliberately does not
// carry: the scope rules, the per-path debounce clock, the in-flight write
// guard, and the recognition of our own write-backs via journal checksums.
package gate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/starford/daymark/internal/checksum"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/storage"
)

// Skip reasons reported by Check.
const (
	SkipOutOfScope = "out-of-scope"
	SkipSelfWrite  = "self-write"
	SkipDebounced  = "debounced"
	SkipBusy       = "busy"
)

// Decision is the gate's verdict for one event.
type Decision struct {
	Process bool
	Reason  string // set when Process is false
}

// Gate filters change events before they reach the engine.
type Gate struct {
	folders  []string
	debounce time.Duration
	settle   time.Duration
	db       journal.Ledger

	mu            sync.Mutex
	lastProcessed map[string]time.Time
	inFlight      map[string]struct{}
}

// New creates a gate. folders are vault-relative path prefixes; empty means
// the whole vault is in scope.
func New(folders []string, debounceMs, settleMs int, db journal.Ledger) *Gate {
	return &Gate{
		folders:       folders,
		debounce:      time.Duration(debounceMs) * time.Millisecond,
		settle:        time.Duration(settleMs) * time.Millisecond,
		db:            db,
		lastProcessed: make(map[string]time.Time),
		inFlight:      make(map[string]struct{}),
	}
}

// InScope reports whether a vault-relative path is eligible for automatic
// stamping.
func (g *Gate) InScope(path string) bool {
	if !storage.IsNote(path) {
		return false
	}
	if len(g.folders) == 0 {
		return true
	}
	for _, f := range g.folders {
		f = strings.TrimSuffix(f, "/")
		if f == "" {
			return true
		}
		if path == f || strings.HasPrefix(path, f+"/") {
			return true
		}
	}
	return false
}

// Check decides whether the event for path with the given content should be
// processed, and reserves the debounce slot when it should. Content equal to
// the journal's last written checksum is our own write-back surfacing
// through the watcher and is skipped.
func (g *Gate) Check(path string, content []byte) Decision {
	if !g.InScope(path) {
		return Decision{Reason: SkipOutOfScope}
	}

	g.mu.Lock()
	if _, busy := g.inFlight[path]; busy {
		g.mu.Unlock()
		return Decision{Reason: SkipBusy}
	}
	last, seen := g.lastProcessed[path]
	g.mu.Unlock()

	if e, err := g.db.Get(path); err == nil && e != nil && e.Checksum == checksum.Sum(content) {
		return Decision{Reason: SkipSelfWrite}
	}

	now := time.Now()
	if seen && now.Sub(last) < g.debounce {
		return Decision{Reason: SkipDebounced}
	}

	g.mu.Lock()
	g.lastProcessed[path] = now
	g.mu.Unlock()
	return Decision{Process: true}
}

// Begin marks a path as being written by the engine; events for it are
// skipped until End. Returns false when the path is already busy.
func (g *Gate) Begin(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[path]; busy {
		return false
	}
	g.inFlight[path] = struct{}{}
	return true
}

// End releases the in-flight guard for a path.
func (g *Gate) End(path string) {
	g.mu.Lock()
	delete(g.inFlight, path)
	g.mu.Unlock()
}

// Forget drops the debounce state for a removed path.
func (g *Gate) Forget(path string) {
	g.mu.Lock()
	delete(g.lastProcessed, path)
	g.mu.Unlock()
}

// Settle waits the configured template settle delay so a templating tool's
// tail writes land before the document is read. Returns early only when ctx
// is cancelled.
func (g *Gate) Settle(ctx context.Context) error {
	if g.settle <= 0 {
		return nil
	}
	t := time.NewTimer(g.settle)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
