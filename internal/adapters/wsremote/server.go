package wsremote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"shelfsync/internal/ports"
)

const writeWait = 10 * time.Second

// Server serves a RemoteStore to websocket clients
type Server struct {
	store    ports.RemoteStore
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*serverSession]struct{}
}

// NewServer creates a handler over store
func NewServer(store ports.RemoteStore) *Server {
	return &Server{
		store: store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[*serverSession]struct{}),
	}
}

// CloseSessions drops every connected client. http.Server.Shutdown does
// not close hijacked connections, so the daemon calls this on exit.
func (s *Server) CloseSessions() {
	s.mu.Lock()
	sessions := make([]*serverSession, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.conn.Close()
	}
}

// ServeHTTP upgrades the connection and serves requests until it drops
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("wsremote: upgrade failed: %v", err)
		return
	}

	sess := &serverSession{
		store: s.store,
		conn:  conn,
		subs:  make(map[uint64]ports.Subscription),
	}
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
	}()

	glog.V(1).Infof("wsremote: client connected from %s", r.RemoteAddr)
	sess.serve(r.Context())
	glog.V(1).Infof("wsremote: client %s disconnected", r.RemoteAddr)
}

type serverSession struct {
	store ports.RemoteStore
	conn  *websocket.Conn

	writeMu sync.Mutex

	subMu sync.Mutex
	subs  map[uint64]ports.Subscription
}

func (s *serverSession) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.cancelAll()
		s.conn.Close()
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.Warningf("wsremote: read: %v", err)
			}
			return
		}

		var req Request
		if err := sonic.Unmarshal(raw, &req); err != nil {
			glog.Warningf("wsremote: dropping malformed request: %v", err)
			continue
		}

		ack := Message{Type: TypeAck, ID: req.ID}
		docs, err := s.handle(ctx, req)
		if err != nil {
			ack.Error = err.Error()
		}
		ack.Docs = docs
		if err := s.send(ack); err != nil {
			glog.Warningf("wsremote: write: %v", err)
			return
		}
	}
}

func (s *serverSession) handle(ctx context.Context, req Request) ([]ports.Document, error) {
	switch req.Method {
	case MethodUpsert:
		if req.Ref == nil {
			return nil, fmt.Errorf("upsert: missing ref")
		}
		return nil, s.store.Upsert(ctx, *req.Ref, req.Data)
	case MethodDelete:
		if req.Ref == nil {
			return nil, fmt.Errorf("delete: missing ref")
		}
		return nil, s.store.Delete(ctx, *req.Ref)
	case MethodCommit:
		return nil, s.store.Commit(ctx, req.Ops)
	case MethodList:
		return s.store.List(ctx, req.Collection)
	case MethodSubscribe:
		return nil, s.subscribe(ctx, req)
	case MethodUnsubscribe:
		s.cancel(req.Sub)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown method %q", req.Method)
	}
}

func (s *serverSession) subscribe(ctx context.Context, req Request) error {
	var (
		sub ports.Subscription
		err error
	)
	if req.Ref != nil {
		sub, err = s.store.SubscribeDocument(ctx, *req.Ref, func(doc ports.Document, exists bool) {
			s.push(Message{Type: TypeSnapshot, Sub: req.Sub, Doc: &doc, Exists: exists})
		})
	} else {
		sub, err = s.store.SubscribeCollection(ctx, req.Collection, func(docs []ports.Document) {
			s.push(Message{Type: TypeSnapshot, Sub: req.Sub, Docs: docs})
		})
	}
	if err != nil {
		return err
	}

	s.subMu.Lock()
	s.subs[req.Sub] = sub
	s.subMu.Unlock()
	return nil
}

func (s *serverSession) push(msg Message) {
	if err := s.send(msg); err != nil {
		glog.V(1).Infof("wsremote: dropping snapshot for subscription %d: %v", msg.Sub, err)
	}
}

func (s *serverSession) send(msg Message) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *serverSession) cancel(id uint64) {
	s.subMu.Lock()
	sub, ok := s.subs[id]
	delete(s.subs, id)
	s.subMu.Unlock()
	if ok {
		sub.Cancel()
	}
}

func (s *serverSession) cancelAll() {
	s.subMu.Lock()
	subs := s.subs
	s.subs = make(map[uint64]ports.Subscription)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}
}
