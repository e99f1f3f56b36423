// Package memory provides an in-process document store with live
// subscriptions. With a DocumentBackend every write is persisted before
// it becomes visible; the remote store daemon runs it that way.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/sonic"

	"shelfsync/internal/ports"
)

// ErrInvalidDocument is returned when a merge target is not a JSON object
var ErrInvalidDocument = errors.New("document is not a JSON object")

// ErrUnavailable is returned by every call while the store is switched off
var ErrUnavailable = errors.New("document store unavailable")

type watcher struct {
	id         int
	collection string
	docID      string // empty for collection watchers
	onDocs     ports.CollectionHandler
	onDoc      ports.DocumentHandler
}

// DocStore implements ports.RemoteStore in memory
type DocStore struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	watchers    map[int]*watcher
	nextID      int
	down        bool
	backend     ports.DocumentBackend // nil keeps documents in memory only

	// counters for inspection
	commits int
	writes  int
}

// Ensure DocStore implements RemoteStore
var _ ports.RemoteStore = (*DocStore)(nil)

// NewDocStore creates an empty store
func NewDocStore() *DocStore {
	return &DocStore{
		collections: make(map[string]map[string]json.RawMessage),
		watchers:    make(map[int]*watcher),
	}
}

// NewPersistentDocStore loads every document from backend and persists
// later writes to it
func NewPersistentDocStore(backend ports.DocumentBackend) (*DocStore, error) {
	records, err := backend.LoadDocuments()
	if err != nil {
		return nil, err
	}
	s := NewDocStore()
	s.backend = backend
	for _, rec := range records {
		docs, ok := s.collections[rec.Ref.Collection]
		if !ok {
			docs = make(map[string]json.RawMessage)
			s.collections[rec.Ref.Collection] = docs
		}
		docs[rec.Ref.ID] = cloneRaw(rec.Data)
	}
	return s, nil
}

// SetAvailable switches the store on or off; while off every call fails
func (s *DocStore) SetAvailable(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = !up
}

// Commits returns how many batches were committed
func (s *DocStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Writes returns how many single-document writes were applied
func (s *DocStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Get returns a copy of one document
func (s *DocStore) Get(ref ports.DocRef) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[ref.Collection][ref.ID]
	if !ok {
		return nil, false
	}
	return cloneRaw(data), true
}

// Upsert merges data into the document
func (s *DocStore) Upsert(ctx context.Context, ref ports.DocRef, data json.RawMessage) error {
	return s.apply(ctx, []ports.Op{{Kind: ports.OpMerge, Ref: ref, Data: data}}, false)
}

// Delete removes the document; deleting a missing document is not an error
func (s *DocStore) Delete(ctx context.Context, ref ports.DocRef) error {
	return s.apply(ctx, []ports.Op{{Kind: ports.OpDelete, Ref: ref}}, false)
}

// Commit applies every op or none
func (s *DocStore) Commit(ctx context.Context, ops []ports.Op) error {
	return s.apply(ctx, ops, true)
}

// List returns every document of a collection ordered by id
func (s *DocStore) List(ctx context.Context, collection string) ([]ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, ErrUnavailable
	}
	return s.documents(collection), nil
}

func (s *DocStore) apply(ctx context.Context, ops []ports.Op, batch bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return ErrUnavailable
	}

	// Stage every op on copies so a failing op leaves nothing behind
	staged := make(map[string]map[string]json.RawMessage)
	stage := func(collection string) map[string]json.RawMessage {
		if docs, ok := staged[collection]; ok {
			return docs
		}
		docs := make(map[string]json.RawMessage, len(s.collections[collection]))
		for id, data := range s.collections[collection] {
			docs[id] = data
		}
		staged[collection] = docs
		return docs
	}

	touched := make([]ports.DocRef, 0, len(ops))
	for _, op := range ops {
		touched = append(touched, op.Ref)
		docs := stage(op.Ref.Collection)
		switch op.Kind {
		case ports.OpSet:
			docs[op.Ref.ID] = cloneRaw(op.Data)
		case ports.OpMerge:
			merged, err := mergeObjects(docs[op.Ref.ID], op.Data)
			if err != nil {
				s.mu.Unlock()
				return fmt.Errorf("merge %s/%s: %w", op.Ref.Collection, op.Ref.ID, err)
			}
			docs[op.Ref.ID] = merged
		case ports.OpDelete:
			delete(docs, op.Ref.ID)
		default:
			s.mu.Unlock()
			return fmt.Errorf("unknown op kind %q", op.Kind)
		}
	}

	if err := s.persist(staged, touched); err != nil {
		s.mu.Unlock()
		return err
	}
	for collection, docs := range staged {
		s.collections[collection] = docs
	}
	if batch {
		s.commits++
	} else {
		s.writes++
	}

	deliveries := s.pendingDeliveries(staged)
	s.mu.Unlock()

	for _, deliver := range deliveries {
		deliver()
	}
	return nil
}

// persist writes the final state of every touched document to the
// backend. Must be called with s.mu held.
func (s *DocStore) persist(staged map[string]map[string]json.RawMessage, touched []ports.DocRef) error {
	if s.backend == nil {
		return nil
	}
	var (
		puts    []ports.DocRecord
		deletes []ports.DocRef
	)
	seen := make(map[ports.DocRef]bool, len(touched))
	for _, ref := range touched {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		if data, ok := staged[ref.Collection][ref.ID]; ok {
			puts = append(puts, ports.DocRecord{Ref: ref, Data: data})
		} else {
			deletes = append(deletes, ref)
		}
	}
	if err := s.backend.SaveDocuments(puts, deletes); err != nil {
		return fmt.Errorf("persist documents: %w", err)
	}
	return nil
}

// pendingDeliveries captures snapshots for every watcher of a changed
// collection. Must be called with s.mu held; the returned closures run
// without it.
func (s *DocStore) pendingDeliveries(changed map[string]map[string]json.RawMessage) []func() {
	ids := make([]int, 0, len(s.watchers))
	for id := range s.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []func()
	for _, id := range ids {
		w := s.watchers[id]
		if _, ok := changed[w.collection]; !ok {
			continue
		}
		out = append(out, s.snapshotFor(w))
	}
	return out
}

func (s *DocStore) snapshotFor(w *watcher) func() {
	if w.docID == "" {
		docs := s.documents(w.collection)
		return func() {
			if s.active(w.id) {
				w.onDocs(docs)
			}
		}
	}
	data, ok := s.collections[w.collection][w.docID]
	doc := ports.Document{ID: w.docID, Data: cloneRaw(data)}
	return func() {
		if s.active(w.id) {
			w.onDoc(doc, ok)
		}
	}
}

func (s *DocStore) active(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watchers[id]
	return ok
}

func (s *DocStore) documents(collection string) []ports.Document {
	docs := s.collections[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]ports.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, ports.Document{ID: id, Data: cloneRaw(docs[id])})
	}
	return out
}

// SubscribeCollection streams the full contents of a collection
func (s *DocStore) SubscribeCollection(ctx context.Context, collection string, fn ports.CollectionHandler) (ports.Subscription, error) {
	return s.subscribe(ctx, &watcher{collection: collection, onDocs: fn})
}

// SubscribeDocument streams one document
func (s *DocStore) SubscribeDocument(ctx context.Context, ref ports.DocRef, fn ports.DocumentHandler) (ports.Subscription, error) {
	return s.subscribe(ctx, &watcher{collection: ref.Collection, docID: ref.ID, onDoc: fn})
}

func (s *DocStore) subscribe(ctx context.Context, w *watcher) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return nil, ErrUnavailable
	}
	s.nextID++
	w.id = s.nextID
	s.watchers[w.id] = w
	initial := s.snapshotFor(w)
	s.mu.Unlock()

	initial()
	return &subscription{store: s, id: w.id}, nil
}

// Subscribers returns the number of live subscriptions
func (s *DocStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

type subscription struct {
	store *DocStore
	id    int
}

// Done is nil: an in-process stream only ends through Cancel
func (sub *subscription) Done() <-chan struct{} {
	return nil
}

func (sub *subscription) Cancel() {
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()
	delete(sub.store.watchers, sub.id)
}

// mergeObjects overlays the top-level fields of patch onto base
func mergeObjects(base, patch json.RawMessage) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if len(base) > 0 {
		if err := sonic.Unmarshal(base, &fields); err != nil {
			return nil, ErrInvalidDocument
		}
	}
	var overlay map[string]json.RawMessage
	if err := sonic.Unmarshal(patch, &overlay); err != nil || overlay == nil {
		return nil, ErrInvalidDocument
	}
	for k, v := range overlay {
		fields[k] = v
	}
	return sonic.Marshal(fields)
}

func cloneRaw(data json.RawMessage) json.RawMessage {
	if data == nil {
		return nil
	}
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}
