// Package app wires the configured stores, connectivity monitor and sync
// engine into a runtime shared by the command-line front ends.
package app

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"shelfsync/internal/adapters/netwatch"
	"shelfsync/internal/adapters/sqlite"
	"shelfsync/internal/adapters/wsremote"
	"shelfsync/internal/config"
	"shelfsync/internal/engine"
	"shelfsync/internal/ports"
)

// Options configure the runtime
type Options struct {
	ConfigPath string
	EnvFile    string // empty uses ./.env when present
	Offline    bool   // never contact the remote; changes stay pending
}

// Runtime owns every long-lived component
type Runtime struct {
	Config config.Config
	Engine *engine.Engine

	local  *sqlite.Store
	client *wsremote.Client
	cancel context.CancelFunc
}

// Open loads configuration, opens the local cache and starts the engine.
// A failed initial reconcile is logged, not returned: the cache stays
// usable offline.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	local, err := sqlite.Open(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	rt := &Runtime{Config: cfg, local: local, cancel: cancel}

	var (
		remote ports.RemoteStore
		conn   ports.Connectivity
	)
	switch {
	case !cfg.HasRemote():
		glog.V(1).Infof("app: no remote configured, running local only")
	case opts.Offline:
		rt.client = wsremote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout)
		remote = rt.client
		conn = netwatch.NewSwitch(false)
	default:
		rt.client = wsremote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout)
		remote = rt.client
		monitor := netwatch.NewMonitor(netwatch.DialProber(cfg.RemoteURL, cfg.RemoteTimeout), cfg.ProbeInterval)
		monitor.Start(ctx)
		conn = monitor
	}

	rt.Engine = engine.New(local, remote, conn, engine.Options{RemoteTimeout: cfg.RemoteTimeout})
	if err := rt.Engine.Start(ctx); err != nil {
		glog.Warningf("app: initial sync failed: %v", err)
	}
	return rt, nil
}

// Close stops the engine, waits for pending remote writes and closes the
// stores
func (r *Runtime) Close() error {
	r.Engine.Close()
	r.cancel()
	if r.client != nil {
		r.client.Close()
	}
	return r.local.Close()
}
