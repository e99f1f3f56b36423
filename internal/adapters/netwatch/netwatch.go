// Package netwatch tracks whether the remote document store is reachable.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"shelfsync/internal/ports"
)

const defaultProbeInterval = 5 * time.Second

// Prober checks reachability; a nil error means online
type Prober func(ctx context.Context) error

// DialProber probes by opening and closing a websocket connection to url
func DialProber(url string, timeout time.Duration) Prober {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		dialer := websocket.Dialer{HandshakeTimeout: timeout}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// broadcaster fans transitions out to every watcher
type broadcaster struct {
	mu       sync.Mutex
	online   bool
	watchers map[chan bool]struct{}
}

func (b *broadcaster) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *broadcaster) Watch(ctx context.Context) <-chan bool {
	ch := make(chan bool, 16)
	b.mu.Lock()
	if b.watchers == nil {
		b.watchers = make(map[chan bool]struct{})
	}
	b.watchers[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

// set records the state and notifies watchers when it flipped
func (b *broadcaster) set(online bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.online == online {
		return false
	}
	b.online = online
	for ch := range b.watchers {
		select {
		case ch <- online:
		default:
			glog.Warningf("netwatch: watcher lagging, dropped transition to online=%v", online)
		}
	}
	return true
}

// Switch is a connectivity source flipped by hand
type Switch struct {
	broadcaster
}

// Ensure Switch implements Connectivity
var _ ports.Connectivity = (*Switch)(nil)

// NewSwitch creates a switch in the given state
func NewSwitch(online bool) *Switch {
	s := &Switch{}
	s.online = online
	return s
}

// Set flips the switch
func (s *Switch) Set(online bool) {
	s.set(online)
}

// Monitor derives connectivity from a periodic probe
type Monitor struct {
	broadcaster
	probe    Prober
	interval time.Duration
}

// Ensure Monitor implements Connectivity
var _ ports.Connectivity = (*Monitor)(nil)

// NewMonitor creates a monitor; call Start to begin probing
func NewMonitor(probe Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &Monitor{probe: probe, interval: interval}
}

// Check runs one probe and updates the state
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.probe(ctx)
	online := err == nil
	if m.set(online) {
		if online {
			glog.Infof("netwatch: remote reachable")
		} else {
			glog.Infof("netwatch: remote unreachable: %v", err)
		}
	}
	return online
}

// Start probes once synchronously, then on every tick until ctx is done
func (m *Monitor) Start(ctx context.Context) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
