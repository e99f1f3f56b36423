// Package engine keeps the local cache and the remote document store in
// step. It is the single write path for library state: every mutation is
// persisted locally, then pushed remotely when the remote is reachable or
// flagged for a full resync when it is not.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

var (
	ErrClosed  = errors.New("engine closed")
	ErrOffline = errors.New("remote store unreachable")
)

const (
	defaultRemoteTimeout = 10 * time.Second

	// backoff between reconnect attempts after a subscription drops
	retryMin = 500 * time.Millisecond
	retryMax = 30 * time.Second
)

// Options configure an Engine
type Options struct {
	RemoteTimeout time.Duration // per remote call; zero uses default
}

// Status is the connectivity view exposed to front ends
type Status struct {
	Loading          bool
	Online           bool
	RemoteConfigured bool
	NeedsSync        bool
	Subscribed       bool
}

// Engine reconciles a LocalStore with an optional RemoteStore
type Engine struct {
	local         ports.LocalStore
	remote        ports.RemoteStore // nil when no remote is configured
	conn          ports.Connectivity
	remoteTimeout time.Duration

	mu       sync.Mutex
	state    domain.Library
	loading  bool
	closed   bool
	deferred uint64 // bumped whenever a push is deferred to the next resync

	reconnectMu sync.Mutex
	subMu       sync.Mutex
	subs        []ports.Subscription
	subStop     chan struct{} // closed when subs are cancelled

	inflight  sync.WaitGroup
	drops     sync.WaitGroup // drop watchers and their reconnects
	runCtx    context.Context
	cancel    context.CancelFunc
	watchDone chan struct{}
	quit      chan struct{}
}

// Ensure Engine implements LibraryStore
var _ ports.LibraryStore = (*Engine)(nil)

// New loads the cached library from local. remote and conn may be nil, in
// which case the engine behaves as a pure local cache.
func New(local ports.LocalStore, remote ports.RemoteStore, conn ports.Connectivity, opts Options) *Engine {
	e := &Engine{
		local:         local,
		remote:        remote,
		conn:          conn,
		remoteTimeout: opts.RemoteTimeout,
		loading:       true,
		quit:          make(chan struct{}),
	}
	if e.remoteTimeout <= 0 {
		e.remoteTimeout = defaultRemoteTimeout
	}

	e.state = loadLibrary(local)
	e.loading = false
	return e
}

// Start reconciles immediately when online, then follows connectivity
// transitions until Close. The returned error only reports the initial
// reconcile; the engine keeps running either way.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.runCtx = ctx
	if e.remote == nil || e.conn == nil {
		e.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	e.watchDone = done
	e.mu.Unlock()

	events := e.conn.Watch(ctx)
	var err error
	if e.conn.Online() {
		err = e.Reconnect(ctx)
	}

	go e.watch(ctx, events, done)
	return err
}

func (e *Engine) watch(ctx context.Context, events <-chan bool, done chan struct{}) {
	defer close(done)
	for online := range events {
		if !online {
			glog.V(1).Infof("engine: offline, dropping subscriptions")
			e.cancelSubscriptions()
			continue
		}
		if err := e.Reconnect(ctx); err != nil {
			glog.Warningf("engine: reconnect failed: %v", err)
		}
	}
}

// Close stops following connectivity, cancels subscriptions and waits for
// in-flight remote writes
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cancel := e.cancel
	watchDone := e.watchDone
	close(e.quit)
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watchDone != nil {
		<-watchDone
	}
	e.cancelSubscriptions()
	e.drops.Wait()
	e.Flush()
	return nil
}

// Flush waits for every fire-and-forget remote write to finish
func (e *Engine) Flush() {
	e.inflight.Wait()
}

// Snapshot returns a deep copy of the cached library
func (e *Engine) Snapshot() domain.Library {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Status reports connectivity and sync state
func (e *Engine) Status() Status {
	e.mu.Lock()
	loading := e.loading
	e.mu.Unlock()

	dirty, err := e.local.NeedsSync()
	if err != nil {
		glog.Warningf("engine: reading sync flag: %v", err)
	}

	subscribed := e.subscribed()

	return Status{
		Loading:          loading,
		Online:           e.online(),
		RemoteConfigured: e.remote != nil,
		NeedsSync:        dirty,
		Subscribed:       subscribed,
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// context returns the context passed to Start, or Background before it
func (e *Engine) context() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runCtx == nil {
		return context.Background()
	}
	return e.runCtx
}

func (e *Engine) online() bool {
	return e.conn != nil && e.conn.Online()
}

// markDirtyLocked records that the remote is behind. Must hold e.mu.
func (e *Engine) markDirtyLocked() {
	e.deferred++
	if err := e.local.SetNeedsSync(true); err != nil {
		glog.Warningf("engine: setting sync flag: %v", err)
	}
}

func (e *Engine) markDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markDirtyLocked()
}

func wrapRemote(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
