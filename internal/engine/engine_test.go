package engine

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"shelfsync/internal/adapters/memory"
	"shelfsync/internal/adapters/netwatch"
	"shelfsync/internal/adapters/sqlite"
	"shelfsync/internal/adapters/wsremote"
	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	engine *Engine
	local  *sqlite.Store
	remote *memory.DocStore
	conn   *netwatch.Switch
	path   string
}

func newHarness(t *testing.T, online bool) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	local, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	h := &harness{
		local:  local,
		remote: memory.NewDocStore(),
		conn:   netwatch.NewSwitch(online),
		path:   path,
	}
	h.engine = New(local, h.remote, h.conn, Options{RemoteTimeout: time.Second})
	t.Cleanup(func() {
		h.engine.Close()
		local.Close()
	})
	return h
}

// gatedRemote holds every Commit until release is closed
type gatedRemote struct {
	*memory.DocStore
	entered chan struct{}
	release chan struct{}
}

func newGatedRemote(store *memory.DocStore) *gatedRemote {
	return &gatedRemote{
		DocStore: store,
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
}

func (g *gatedRemote) Commit(ctx context.Context, ops []ports.Op) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.DocStore.Commit(ctx, ops)
}

func addBook(name string) ports.MutateFunc {
	return func(lib *domain.Library) (domain.Change, error) {
		_, change := domain.AddBook(lib, domain.Book{BookName: name, Category: "Fiction"}, testNow)
		return change, nil
	}
}

func needsSync(t *testing.T, local ports.LocalStore) bool {
	t.Helper()
	dirty, err := local.NeedsSync()
	if err != nil {
		t.Fatalf("NeedsSync failed: %v", err)
	}
	return dirty
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestMutate_OfflineDefersAndReconnectPushesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	if err := h.engine.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	assert.Equal(t, len(h.engine.Snapshot().Books), 1)
	assert.Equal(t, needsSync(t, h.local), true)
	assert.Equal(t, h.remote.Commits()+h.remote.Writes(), 0)

	h.conn.Set(true)
	if err := h.engine.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}

	assert.Equal(t, h.remote.Commits(), 1)
	assert.Equal(t, h.remote.Writes(), 0)
	assert.Equal(t, needsSync(t, h.local), false)

	docs, err := h.remote.List(ctx, RemoteBooks)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	assert.Equal(t, len(docs), 1)
	assert.Equal(t, h.engine.Status().Subscribed, true)
}

func TestMutate_OnlineWritesThrough(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := h.engine.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	h.engine.Flush()

	book := h.engine.Snapshot().Books[0]
	if _, ok := h.remote.Get(ports.DocRef{Collection: RemoteBooks, ID: book.ID}); !ok {
		t.Fatal("expected book document on the remote")
	}
	assert.Equal(t, h.remote.Writes(), 1)
	assert.Equal(t, needsSync(t, h.local), false)
}

func TestMutate_MultiCollectionChangeIsOneBatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var bookID, memberID string
	err := h.engine.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		b, c1 := domain.AddBook(lib, domain.Book{BookName: "Dune"}, testNow)
		m, c2 := domain.AddMember(lib, domain.Member{Name: "X", RegisterNumber: "R-1"}, testNow)
		bookID, memberID = b.ID, m.ID
		return c1.Merge(c2), nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	h.engine.Flush()
	commits := h.remote.Commits()

	err = h.engine.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		return domain.IssueBook(lib, bookID, memberID, testNow), nil
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	h.engine.Flush()

	assert.Equal(t, h.remote.Commits(), commits+1)
	data, ok := h.remote.Get(refHistory)
	if !ok {
		t.Fatal("expected history document")
	}
	log, err := decodeHistory(data)
	if err != nil {
		t.Fatalf("decode history: %v", err)
	}
	assert.Equal(t, len(log), 1)
	assert.Equal(t, log[0].Status, domain.StatusInHand)
}

func TestMutate_RemoteFailureSetsSyncFlag(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	h.remote.SetAvailable(false)
	if err := h.engine.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate must succeed locally: %v", err)
	}
	h.engine.Flush()

	assert.Equal(t, len(h.engine.Snapshot().Books), 1)
	assert.Equal(t, needsSync(t, h.local), true)
}

func TestMutate_EmptyChangeTouchesNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	err := h.engine.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		return domain.ReturnBook(lib, "missing", testNow), nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	assert.Equal(t, needsSync(t, h.local), false)
}

func TestMutate_AfterCloseFails(t *testing.T) {
	h := newHarness(t, false)
	h.engine.Close()

	err := h.engine.Mutate(context.Background(), addBook("Dune"))
	assert.Equal(t, err, ErrClosed)
}

func TestReconnect_DeletesRemoteOnlyDocuments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	stale := ports.DocRef{Collection: RemoteBooks, ID: "stale"}
	if err := h.remote.Upsert(ctx, stale, json.RawMessage(`{"id":"stale","bookName":"Gone"}`)); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if err := h.engine.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	h.conn.Set(true)
	if err := h.engine.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}

	if _, ok := h.remote.Get(stale); ok {
		t.Error("remote-only book should be removed by the resync")
	}
	books := h.engine.Snapshot().Books
	assert.Equal(t, len(books), 1)
	assert.Equal(t, books[0].BookName, "Dune")
}

func TestReconnect_CleanCacheAdoptsRemote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	h.remote.Upsert(ctx, ports.DocRef{Collection: RemoteMembers, ID: "m1"}, json.RawMessage(`{"name":"X","registerNumber":"R-1"}`))
	h.remote.Commit(ctx, []ports.Op{{Kind: ports.OpSet, Ref: refClasses, Data: json.RawMessage(`{"list":["7A"]}`)}})

	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	lib := h.engine.Snapshot()
	assert.Equal(t, len(lib.Members), 1)
	assert.Equal(t, lib.Members[0].ID, "m1")
	assert.Equal(t, lib.Classes, []string{"7A"})
	assert.Equal(t, h.remote.Commits(), 1) // only the seed
}

func TestReconnect_MissingDocumentKeepsLocal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	err := h.engine.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		return domain.AddCategory(lib, "Fiction"), nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	// Simulate a clean cache facing an empty remote
	if err := h.local.SetNeedsSync(false); err != nil {
		t.Fatalf("SetNeedsSync failed: %v", err)
	}

	h.conn.Set(true)
	if err := h.engine.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	assert.Equal(t, h.engine.Snapshot().Categories, []string{"Fiction"})
}

func TestReconnect_RemoteChangesFlowIntoCache(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	h.remote.Upsert(ctx, ports.DocRef{Collection: RemoteBooks, ID: "b9"}, json.RawMessage(`{"title":"Legacy","available":true}`))

	books := h.engine.Snapshot().Books
	assert.Equal(t, len(books), 1)
	assert.Equal(t, books[0].ID, "b9")
	assert.Equal(t, books[0].BookName, "Legacy")

	reopened := New(h.local, nil, nil, Options{})
	assert.Equal(t, reopened.Snapshot().Books[0].ID, "b9")
}

func TestReconnect_OfflineFails(t *testing.T) {
	h := newHarness(t, false)
	err := h.engine.Reconnect(context.Background())
	assert.Equal(t, err, ErrOffline)
}

func TestWatch_FollowsConnectivity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := h.engine.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	h.conn.Set(true)
	eventually(t, func() bool { return h.engine.Status().Subscribed })
	assert.Equal(t, needsSync(t, h.local), false)
	assert.Equal(t, h.remote.Subscribers(), 5)

	h.conn.Set(false)
	eventually(t, func() bool { return h.remote.Subscribers() == 0 })
	assert.Equal(t, h.engine.Status().Online, false)
}

func TestClose_CancelsSubscriptions(t *testing.T) {
	h := newHarness(t, true)
	if err := h.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	assert.Equal(t, h.remote.Subscribers(), 5)

	h.engine.Close()
	assert.Equal(t, h.remote.Subscribers(), 0)
}

func TestStatus_WithoutRemote(t *testing.T) {
	h := newHarness(t, false)
	e := New(h.local, nil, nil, Options{})

	st := e.Status()
	assert.Equal(t, st.RemoteConfigured, false)
	assert.Equal(t, st.Online, false)
	assert.Equal(t, st.Loading, false)
	assert.Equal(t, e.Reconnect(context.Background()), nil)
}

func TestReconnect_WriteDeferredDuringResyncKeepsFlag(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	gate := newGatedRemote(h.remote)
	e := New(h.local, gate, h.conn, Options{RemoteTimeout: 2 * time.Second})
	defer e.Close()

	if err := e.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	h.conn.Set(true)
	errc := make(chan error, 1)
	go func() { errc <- e.Reconnect(ctx) }()
	<-gate.entered

	h.conn.Set(false)
	if err := e.Mutate(ctx, addBook("Emma")); err != nil {
		t.Fatalf("Mutate during resync failed: %v", err)
	}
	close(gate.release)

	assert.Equal(t, <-errc, ErrOffline)
	assert.Equal(t, needsSync(t, h.local), true)
	assert.Equal(t, h.remote.Subscribers(), 0)
	assert.Equal(t, len(e.Snapshot().Books), 2)

	h.conn.Set(true)
	if err := e.Reconnect(ctx); err != nil {
		t.Fatalf("second Reconnect failed: %v", err)
	}
	assert.Equal(t, needsSync(t, h.local), false)
	docs, err := h.remote.List(ctx, RemoteBooks)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	assert.Equal(t, len(docs), 2)
}

func TestClose_WaitsForInitialReconnect(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	gate := newGatedRemote(h.remote)
	e := New(h.local, gate, h.conn, Options{RemoteTimeout: 2 * time.Second})

	if err := e.Mutate(ctx, addBook("Dune")); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	h.conn.Set(true)

	started := make(chan error, 1)
	go func() { started <- e.Start(ctx) }()
	<-gate.entered

	closed := make(chan struct{})
	go func() {
		e.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while the initial reconnect was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	<-started
	<-closed
	assert.Equal(t, h.remote.Subscribers(), 0)
	assert.Equal(t, e.Status().Subscribed, false)
}

func TestReconnect_ResubscribesAfterConnectionDrop(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewDocStore()
	server := wsremote.NewServer(docs)
	hs := httptest.NewServer(server)
	defer hs.Close()

	client := wsremote.NewClient("ws"+strings.TrimPrefix(hs.URL, "http"), time.Second)
	defer client.Close()

	local, err := sqlite.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	defer local.Close()

	e := New(local, client, netwatch.NewSwitch(true), Options{RemoteTimeout: time.Second})
	defer e.Close()

	if err := e.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	assert.Equal(t, docs.Subscribers(), 5)

	server.CloseSessions()

	book := json.RawMessage(`{"bookName":"Arrived later","category":"Fiction","available":true}`)
	if err := docs.Upsert(ctx, ports.DocRef{Collection: RemoteBooks, ID: "b9"}, book); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	eventually(t, func() bool {
		_, ok := e.Snapshot().BookByID("b9")
		return ok
	})
	eventually(t, func() bool { return docs.Subscribers() == 5 })
	assert.Equal(t, e.Status().Subscribed, true)
}
