// Package wsremote exposes a remote document store over a websocket. The
// Server wraps any ports.RemoteStore; the Client implements
// ports.RemoteStore against a Server.
package wsremote

import (
	"encoding/json"
	"errors"

	"shelfsync/internal/ports"
)

// Request methods
const (
	MethodUpsert      = "upsert"
	MethodDelete      = "delete"
	MethodCommit      = "commit"
	MethodList        = "list"
	MethodSubscribe   = "subscribe"
	MethodUnsubscribe = "unsubscribe"
)

// Message types sent by the server
const (
	TypeAck      = "ack"
	TypeSnapshot = "snapshot"
)

// ErrClosed is returned for calls on a dropped connection
var ErrClosed = errors.New("connection closed")

// Request is one client call. Subscriptions are numbered by the client.
type Request struct {
	ID         uint64          `json:"id"`
	Method     string          `json:"method"`
	Ref        *ports.DocRef   `json:"ref,omitempty"`
	Collection string          `json:"collection,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Ops        []ports.Op      `json:"ops,omitempty"`
	Sub        uint64          `json:"sub,omitempty"`
}

// Message is an acknowledgement of a request or a pushed snapshot
type Message struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id,omitempty"`
	Error string `json:"error,omitempty"`

	Sub    uint64           `json:"sub,omitempty"`
	Docs   []ports.Document `json:"docs,omitempty"`
	Doc    *ports.Document  `json:"doc,omitempty"`
	Exists bool             `json:"exists,omitempty"`
}
