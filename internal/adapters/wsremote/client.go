package wsremote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"shelfsync/internal/ports"
)

// Client implements ports.RemoteStore over a websocket. The connection is
// dialled on first use and redialled after it drops; subscriptions do not
// survive a drop.
type Client struct {
	url    string
	dialer websocket.Dialer

	mu   sync.Mutex
	sess *clientSession

	nextID atomic.Uint64
}

// Ensure Client implements RemoteStore
var _ ports.RemoteStore = (*Client)(nil)

// NewClient creates a client for the server at url (ws:// or wss://)
func NewClient(url string, handshakeTimeout time.Duration) *Client {
	return &Client{
		url:    url,
		dialer: websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// Close drops the current connection
func (c *Client) Close() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	return sess.close(ErrClosed)
}

func (c *Client) session(ctx context.Context) (*clientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil && !c.sess.isClosed() {
		return c.sess, nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	sess := &clientSession{
		conn:    conn,
		pending: make(map[uint64]chan Message),
		subs:    make(map[uint64]func(Message)),
		done:    make(chan struct{}),
	}
	go sess.readLoop()
	c.sess = sess
	glog.V(1).Infof("wsremote: connected to %s", c.url)
	return sess, nil
}

func (c *Client) call(ctx context.Context, req Request) (Message, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return Message{}, err
	}
	req.ID = c.nextID.Add(1)
	return sess.call(ctx, req)
}

// Upsert merges data into the document
func (c *Client) Upsert(ctx context.Context, ref ports.DocRef, data json.RawMessage) error {
	_, err := c.call(ctx, Request{Method: MethodUpsert, Ref: &ref, Data: data})
	return err
}

// Delete removes the document
func (c *Client) Delete(ctx context.Context, ref ports.DocRef) error {
	_, err := c.call(ctx, Request{Method: MethodDelete, Ref: &ref})
	return err
}

// Commit applies ops atomically on the server
func (c *Client) Commit(ctx context.Context, ops []ports.Op) error {
	_, err := c.call(ctx, Request{Method: MethodCommit, Ops: ops})
	return err
}

// List returns every document of a collection
func (c *Client) List(ctx context.Context, collection string) ([]ports.Document, error) {
	msg, err := c.call(ctx, Request{Method: MethodList, Collection: collection})
	if err != nil {
		return nil, err
	}
	return msg.Docs, nil
}

// SubscribeCollection streams a collection. The initial snapshot has been
// delivered by the time it returns.
func (c *Client) SubscribeCollection(ctx context.Context, collection string, fn ports.CollectionHandler) (ports.Subscription, error) {
	return c.subscribe(ctx, Request{Method: MethodSubscribe, Collection: collection}, func(msg Message) {
		fn(msg.Docs)
	})
}

// SubscribeDocument streams one document
func (c *Client) SubscribeDocument(ctx context.Context, ref ports.DocRef, fn ports.DocumentHandler) (ports.Subscription, error) {
	return c.subscribe(ctx, Request{Method: MethodSubscribe, Ref: &ref}, func(msg Message) {
		doc := ports.Document{ID: ref.ID}
		if msg.Doc != nil {
			doc = *msg.Doc
		}
		fn(doc, msg.Exists)
	})
}

func (c *Client) subscribe(ctx context.Context, req Request, deliver func(Message)) (ports.Subscription, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	req.Sub = c.nextID.Add(1)
	sess.addSub(req.Sub, deliver)

	req.ID = c.nextID.Add(1)
	if _, err := sess.call(ctx, req); err != nil {
		sess.removeSub(req.Sub)
		return nil, err
	}
	return &subscription{client: c, sess: sess, id: req.Sub}, nil
}

type subscription struct {
	client *Client
	sess   *clientSession
	id     uint64
	once   sync.Once
}

// Done is closed when the connection carrying the subscription drops.
// A dropped subscription is not resumed on the next dial.
func (s *subscription) Done() <-chan struct{} {
	return s.sess.done
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.sess.removeSub(s.id)
		if s.sess.isClosed() {
			return
		}
		req := Request{ID: s.client.nextID.Add(1), Method: MethodUnsubscribe, Sub: s.id}
		if err := s.sess.write(req); err != nil {
			glog.V(1).Infof("wsremote: unsubscribe %d: %v", s.id, err)
		}
	})
}

type clientSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan Message
	subs    map[uint64]func(Message)
	err     error
	done    chan struct{}
}

func (s *clientSession) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *clientSession) call(ctx context.Context, req Request) (Message, error) {
	reply := make(chan Message, 1)
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return Message{}, s.err
	}
	s.pending[req.ID] = reply
	s.mu.Unlock()

	if err := s.write(req); err != nil {
		s.forget(req.ID)
		s.close(err)
		return Message{}, err
	}

	select {
	case msg := <-reply:
		if msg.Error != "" {
			return msg, errors.New(msg.Error)
		}
		return msg, nil
	case <-s.done:
		return Message{}, s.closedErr()
	case <-ctx.Done():
		s.forget(req.ID)
		return Message{}, ctx.Err()
	}
}

func (s *clientSession) write(req Request) error {
	data, err := sonic.Marshal(req)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *clientSession) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.close(err)
			return
		}
		var msg Message
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			glog.Warningf("wsremote: dropping malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case TypeAck:
			s.mu.Lock()
			reply, ok := s.pending[msg.ID]
			delete(s.pending, msg.ID)
			s.mu.Unlock()
			if ok {
				reply <- msg
			}
		case TypeSnapshot:
			s.mu.Lock()
			deliver, ok := s.subs[msg.Sub]
			s.mu.Unlock()
			if ok {
				deliver(msg)
			}
		default:
			glog.Warningf("wsremote: unknown message type %q", msg.Type)
		}
	}
}

func (s *clientSession) addSub(id uint64, deliver func(Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[id] = deliver
}

func (s *clientSession) removeSub(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func (s *clientSession) forget(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

func (s *clientSession) closedErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// close fails every pending call with err; later calls are no-ops
func (s *clientSession) close(err error) error {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return nil
	}
	if err == nil {
		err = ErrClosed
	}
	s.err = err
	s.pending = make(map[uint64]chan Message)
	s.subs = make(map[uint64]func(Message))
	close(s.done)
	s.mu.Unlock()

	return s.conn.Close()
}
