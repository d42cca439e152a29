package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Keeper periodically probes session liveness and triggers recovery when
// the session has gone stale. A busy flag suppresses overlapping ticks:
// when a probe or recovery outlasts the interval, later ticks are skipped
// rather than queued.
type Keeper struct {
	mgr      *Manager
	interval time.Duration
	busy     atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewKeeper creates a keeper for mgr. Start must be called to activate it.
func NewKeeper(mgr *Manager, interval time.Duration) *Keeper {
	return &Keeper{
		mgr:      mgr,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the keep-alive loop.
func (k *Keeper) Start() {
	go k.run()
	slog.Info("session keeper started", "interval", k.interval)
}

// Stop terminates the loop and waits for an in-flight tick to finish.
// Idempotent.
func (k *Keeper) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })
	<-k.done
}

func (k *Keeper) run() {
	defer close(k.done)
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.tick()
		case <-k.stop:
			return
		}
	}
}

func (k *Keeper) tick() {
	if !k.busy.CompareAndSwap(false, true) {
		slog.Debug("keeper tick skipped, previous still running")
		return
	}
	defer k.busy.Store(false)

	if k.mgr.State() != StateAuthenticated {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.interval)
	defer cancel()

	if k.mgr.Probe(ctx) {
		slog.Debug("session keep-alive ok", "generation", k.mgr.Generation())
		return
	}

	k.mgr.MarkExpired("keep-alive probe negative")
	if _, err := k.mgr.Reauthenticate(ctx); err != nil {
		slog.Error("session recovery failed", "error", err)
	}
}
