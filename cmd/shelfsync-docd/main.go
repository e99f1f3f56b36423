// Command shelfsync-docd serves a SQLite-backed document store over
// websocket so that shelfsync clients have a remote to sync with.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"shelfsync/internal/adapters/memory"
	"shelfsync/internal/adapters/sqlite"
	"shelfsync/internal/adapters/wsremote"
	"shelfsync/internal/config"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configFlag := flag.String("config", "", "path to config.toml")
	envFlag := flag.String("env-file", "", "path to a .env file")
	listenFlag := flag.String("listen", "", "address to listen on (overrides config)")
	dataFlag := flag.String("data", "", "document database path (overrides config)")
	flag.Parse()
	defer glog.Flush()

	if err := config.LoadDotEnv(*envFlag); err != nil {
		log.Fatalf("shelfsync-docd: %v", err)
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("shelfsync-docd: %v", err)
	}
	addr := cfg.Listen
	if *listenFlag != "" {
		addr = *listenFlag
	}
	dataPath := cfg.DocsPath
	if *dataFlag != "" {
		dataPath = *dataFlag
	}

	backend, err := sqlite.Open(dataPath)
	if err != nil {
		log.Fatalf("shelfsync-docd: %v", err)
	}
	defer backend.Close()
	docs, err := memory.NewPersistentDocStore(backend)
	if err != nil {
		log.Fatalf("shelfsync-docd: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	server := wsremote.NewServer(docs)
	mux.Handle("/", server)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("shelfsync-docd: shutdown: %v", err)
		}
		server.CloseSessions()
	}()

	glog.Infof("shelfsync-docd: listening on %s, documents in %s", addr, backend.Path())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Errorf("shelfsync-docd: %v", err)
	}
}
