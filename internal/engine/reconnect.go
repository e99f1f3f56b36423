package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// Reconnect reconciles with the remote: pending local changes are pushed
// as one full-snapshot batch, then live subscriptions replace local
// collections as the remote changes. A failed push leaves the engine
// unsubscribed so remote state cannot overwrite unsynced local writes.
func (e *Engine) Reconnect(ctx context.Context) error {
	if e.remote == nil {
		return nil
	}

	e.reconnectMu.Lock()
	defer e.reconnectMu.Unlock()

	if e.isClosed() {
		return ErrClosed
	}
	e.cancelSubscriptions()
	for {
		if !e.online() {
			return ErrOffline
		}
		pending, err := e.resync(ctx)
		if err != nil {
			return err
		}
		if !pending {
			break
		}
		glog.V(1).Infof("engine: writes deferred during resync, pushing again")
	}
	return e.subscribe(ctx)
}

// resync pushes the full local snapshot when the sync flag is set.
// pending reports that a write was deferred while the push was in
// flight, so the flag stays set and the remote is still behind.
func (e *Engine) resync(ctx context.Context) (pending bool, err error) {
	dirty, err := e.local.NeedsSync()
	if err != nil {
		return false, wrapRemote("read sync flag", err)
	}
	if !dirty {
		return false, nil
	}

	e.mu.Lock()
	snapshot := e.state.Clone()
	generation := e.deferred
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
	defer cancel()

	remoteBooks, err := e.remote.List(ctx, RemoteBooks)
	if err != nil {
		return false, wrapRemote("list remote books", err)
	}
	remoteMembers, err := e.remote.List(ctx, RemoteMembers)
	if err != nil {
		return false, wrapRemote("list remote members", err)
	}

	ops, err := snapshotOps(snapshot, remoteBooks, remoteMembers)
	if err != nil {
		return false, wrapRemote("encode snapshot", err)
	}
	if err := e.remote.Commit(ctx, ops); err != nil {
		return false, wrapRemote("push snapshot", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deferred != generation {
		return true, nil
	}
	if err := e.local.SetNeedsSync(false); err != nil {
		return false, wrapRemote("clear sync flag", err)
	}
	glog.Infof("engine: pushed local snapshot (%d ops)", len(ops))
	return false, nil
}

func (e *Engine) subscribe(ctx context.Context) error {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	var subs []ports.Subscription
	fail := func(err error) error {
		for _, s := range subs {
			s.Cancel()
		}
		return wrapRemote("subscribe", err)
	}

	sub, err := e.remote.SubscribeCollection(ctx, RemoteBooks, func(docs []ports.Document) {
		books := decodeDocs(docs, func(b *domain.Book, id string) { b.ID = id })
		e.replace(domain.CollectionBooks, func(lib *domain.Library) { lib.Books = books })
	})
	if err != nil {
		return fail(err)
	}
	subs = append(subs, sub)

	sub, err = e.remote.SubscribeCollection(ctx, RemoteMembers, func(docs []ports.Document) {
		members := decodeDocs(docs, func(m *domain.Member, id string) { m.ID = id })
		e.replace(domain.CollectionMembers, func(lib *domain.Library) { lib.Members = members })
	})
	if err != nil {
		return fail(err)
	}
	subs = append(subs, sub)

	lists := []struct {
		ref        ports.DocRef
		collection domain.Collection
		set        func(lib *domain.Library, list []string)
	}{
		{refCategories, domain.CollectionCategories, func(lib *domain.Library, l []string) { lib.Categories = l }},
		{refClasses, domain.CollectionClasses, func(lib *domain.Library, l []string) { lib.Classes = l }},
	}
	for _, l := range lists {
		sub, err = e.remote.SubscribeDocument(ctx, l.ref, func(doc ports.Document, exists bool) {
			if !exists {
				return
			}
			list, err := decodeList(doc.Data)
			if err != nil {
				glog.Warningf("engine: skipping malformed %s document: %v", l.ref.ID, err)
				return
			}
			e.replace(l.collection, func(lib *domain.Library) { l.set(lib, list) })
		})
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}

	sub, err = e.remote.SubscribeDocument(ctx, refHistory, func(doc ports.Document, exists bool) {
		if !exists {
			return
		}
		log, err := decodeHistory(doc.Data)
		if err != nil {
			glog.Warningf("engine: skipping malformed history document: %v", err)
			return
		}
		e.replace(domain.CollectionHistory, func(lib *domain.Library) { lib.History = log })
	})
	if err != nil {
		return fail(err)
	}
	subs = append(subs, sub)

	if e.isClosed() {
		for _, s := range subs {
			s.Cancel()
		}
		return ErrClosed
	}
	e.subs = subs
	e.subStop = make(chan struct{})
	e.watchDrops(subs, e.subStop)
	glog.V(1).Infof("engine: subscribed to %d remote targets", len(subs))
	return nil
}

// watchDrops reconnects once any of subs ends on its own. Must hold
// e.subMu.
func (e *Engine) watchDrops(subs []ports.Subscription, stop chan struct{}) {
	var once sync.Once
	seen := make(map[<-chan struct{}]bool)
	for _, s := range subs {
		done := s.Done()
		if done == nil || seen[done] {
			continue
		}
		seen[done] = true

		e.drops.Add(1)
		go func() {
			defer e.drops.Done()
			select {
			case <-done:
				once.Do(e.resubscribe)
			case <-stop:
			}
		}()
	}
}

// resubscribe retries Reconnect with backoff until it succeeds, the
// remote is reported offline, another reconnect restores the
// subscriptions, or the engine closes
func (e *Engine) resubscribe() {
	glog.Warningf("engine: remote subscription dropped, reconnecting")
	e.cancelSubscriptions()

	delay := retryMin
	for {
		err := e.Reconnect(e.context())
		if err == nil || errors.Is(err, ErrOffline) || errors.Is(err, ErrClosed) {
			return
		}
		glog.Warningf("engine: reconnect after drop failed: %v", err)

		select {
		case <-e.quit:
			return
		case <-time.After(delay):
		}
		if e.subscribed() {
			return
		}
		delay = min(delay*2, retryMax)
	}
}

func (e *Engine) subscribed() bool {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	return len(e.subs) > 0
}

// replace swaps one collection wholesale with the remote value and
// persists it
func (e *Engine) replace(c domain.Collection, set func(lib *domain.Library)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	set(&e.state)
	if err := persistCollections(e.local, e.state, []domain.Collection{c}); err != nil {
		glog.Warningf("engine: caching remote %s: %v", c, err)
	}
}

func (e *Engine) cancelSubscriptions() {
	e.subMu.Lock()
	subs := e.subs
	e.subs = nil
	if e.subStop != nil {
		close(e.subStop)
		e.subStop = nil
	}
	e.subMu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}
