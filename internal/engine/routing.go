package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/golang/glog"

	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// Remote layout: one document per book and member, plus three documents
// under the library collection holding the lists and the history log.
const (
	RemoteBooks   = "books"
	RemoteMembers = "members"
	RemoteLibrary = "library"

	docCategories = "categories"
	docClasses    = "classes"
	docHistory    = "history"
)

var (
	refCategories = ports.DocRef{Collection: RemoteLibrary, ID: docCategories}
	refClasses    = ports.DocRef{Collection: RemoteLibrary, ID: docClasses}
	refHistory    = ports.DocRef{Collection: RemoteLibrary, ID: docHistory}
)

type listDoc struct {
	List []string `json:"list"`
}

type historyDoc struct {
	Log []domain.IssueHistoryEntry `json:"log"`
}

// Mutate applies fn to a copy of the library. On success the touched
// collections are persisted locally and the change is pushed to the
// remote, or deferred to the next resync when the remote is unreachable.
func (e *Engine) Mutate(ctx context.Context, fn ports.MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	next := e.state.Clone()
	change, err := fn(&next)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if change.IsEmpty() {
		e.mu.Unlock()
		return nil
	}

	if err := persistCollections(e.local, next, change.Touched()); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persist locally: %w", err)
	}
	e.state = next

	if e.remote == nil || !e.online() {
		e.markDirtyLocked()
		e.mu.Unlock()
		glog.V(1).Infof("engine: offline, deferred change to next sync")
		return nil
	}

	ops, err := changeOps(next, change)
	if err != nil {
		e.markDirtyLocked()
		e.mu.Unlock()
		return fmt.Errorf("encode remote change: %w", err)
	}
	e.inflight.Add(1)
	e.mu.Unlock()

	go e.push(ops)
	return nil
}

// push sends ops without blocking the caller. A failure leaves the local
// write in place and flags a full resync.
func (e *Engine) push(ops []ports.Op) {
	defer e.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), e.remoteTimeout)
	defer cancel()

	if err := e.send(ctx, ops); err != nil {
		glog.Warningf("engine: remote write failed, will resync: %v", err)
		e.markDirty()
	}
}

func (e *Engine) send(ctx context.Context, ops []ports.Op) error {
	if len(ops) == 1 {
		op := ops[0]
		switch op.Kind {
		case ports.OpMerge:
			return e.remote.Upsert(ctx, op.Ref, op.Data)
		case ports.OpDelete:
			return e.remote.Delete(ctx, op.Ref)
		}
	}
	return e.remote.Commit(ctx, ops)
}

// changeOps translates a change into remote operations, reading values
// from the post-change library
func changeOps(lib domain.Library, change domain.Change) ([]ports.Op, error) {
	var ops []ports.Op

	for _, b := range change.PutBooks {
		data, err := sonic.Marshal(b)
		if err != nil {
			return nil, err
		}
		ops = append(ops, ports.Op{Kind: ports.OpMerge, Ref: ports.DocRef{Collection: RemoteBooks, ID: b.ID}, Data: data})
	}
	for _, id := range change.DeletedBooks {
		ops = append(ops, ports.Op{Kind: ports.OpDelete, Ref: ports.DocRef{Collection: RemoteBooks, ID: id}})
	}
	for _, m := range change.PutMembers {
		data, err := sonic.Marshal(m)
		if err != nil {
			return nil, err
		}
		ops = append(ops, ports.Op{Kind: ports.OpMerge, Ref: ports.DocRef{Collection: RemoteMembers, ID: m.ID}, Data: data})
	}
	for _, id := range change.DeletedMembers {
		ops = append(ops, ports.Op{Kind: ports.OpDelete, Ref: ports.DocRef{Collection: RemoteMembers, ID: id}})
	}

	if change.Categories {
		op, err := listOp(refCategories, lib.Categories)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if change.Classes {
		op, err := listOp(refClasses, lib.Classes)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if change.History {
		op, err := historyOp(lib.History)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func listOp(ref ports.DocRef, list []string) (ports.Op, error) {
	data, err := sonic.Marshal(listDoc{List: nonNil(list)})
	if err != nil {
		return ports.Op{}, err
	}
	return ports.Op{Kind: ports.OpSet, Ref: ref, Data: data}, nil
}

func historyOp(log []domain.IssueHistoryEntry) (ports.Op, error) {
	data, err := sonic.Marshal(historyDoc{Log: nonNil(log)})
	if err != nil {
		return ports.Op{}, err
	}
	return ports.Op{Kind: ports.OpSet, Ref: refHistory, Data: data}, nil
}

// snapshotOps overwrites the whole remote with lib. Remote books and
// members missing locally are deleted.
func snapshotOps(lib domain.Library, remoteBooks, remoteMembers []ports.Document) ([]ports.Op, error) {
	var ops []ports.Op

	local := make(map[string]bool, len(lib.Books))
	for _, b := range lib.Books {
		data, err := sonic.Marshal(b)
		if err != nil {
			return nil, err
		}
		local[b.ID] = true
		ops = append(ops, ports.Op{Kind: ports.OpSet, Ref: ports.DocRef{Collection: RemoteBooks, ID: b.ID}, Data: data})
	}
	ops = appendDeletes(ops, RemoteBooks, remoteBooks, local)

	local = make(map[string]bool, len(lib.Members))
	for _, m := range lib.Members {
		data, err := sonic.Marshal(m)
		if err != nil {
			return nil, err
		}
		local[m.ID] = true
		ops = append(ops, ports.Op{Kind: ports.OpSet, Ref: ports.DocRef{Collection: RemoteMembers, ID: m.ID}, Data: data})
	}
	ops = appendDeletes(ops, RemoteMembers, remoteMembers, local)

	for _, build := range []func() (ports.Op, error){
		func() (ports.Op, error) { return listOp(refCategories, lib.Categories) },
		func() (ports.Op, error) { return listOp(refClasses, lib.Classes) },
		func() (ports.Op, error) { return historyOp(lib.History) },
	} {
		op, err := build()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func appendDeletes(ops []ports.Op, collection string, remote []ports.Document, local map[string]bool) []ports.Op {
	for _, doc := range remote {
		if !local[doc.ID] {
			ops = append(ops, ports.Op{Kind: ports.OpDelete, Ref: ports.DocRef{Collection: collection, ID: doc.ID}})
		}
	}
	return ops
}

// decodeDocs decodes every document of a collection snapshot, skipping
// bodies that do not parse
func decodeDocs[T any](docs []ports.Document, setID func(*T, string)) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := sonic.Unmarshal(doc.Data, &v); err != nil {
			glog.Warningf("engine: skipping malformed remote document %s: %v", doc.ID, err)
			continue
		}
		setID(&v, doc.ID)
		out = append(out, v)
	}
	return out
}

func decodeList(data json.RawMessage) ([]string, error) {
	var doc listDoc
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return nonNil(doc.List), nil
}

func decodeHistory(data json.RawMessage) ([]domain.IssueHistoryEntry, error) {
	var doc historyDoc
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return nonNil(doc.Log), nil
}
