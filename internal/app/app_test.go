package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelfsync/internal/adapters/memory"
	"shelfsync/internal/adapters/wsremote"
	"shelfsync/internal/application/commands"
	"shelfsync/internal/config"
	"shelfsync/internal/domain"
	"shelfsync/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{config.EnvData, config.EnvRemote, config.EnvProbeSeconds, config.EnvTimeoutSecond, config.EnvListen} {
		t.Setenv(name, "")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpen_LocalOnly(t *testing.T) {
	data := filepath.Join(t.TempDir(), "library.db")
	path := writeConfig(t, `data_path = "`+data+`"`)

	rt, err := Open(context.Background(), Options{ConfigPath: path, EnvFile: filepath.Join(t.TempDir(), "none.env")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := commands.NewAddCategoryCommand(rt.Engine, "Fiction").Execute(context.Background()); err != nil {
		t.Fatalf("add category failed: %v", err)
	}
	if got := rt.Engine.Status(); got.RemoteConfigured || !got.NeedsSync {
		t.Errorf("unexpected status %+v", got)
	}
	rt.Close()

	rt, err = Open(context.Background(), Options{ConfigPath: path, EnvFile: filepath.Join(t.TempDir(), "none.env")})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer rt.Close()
	if got := rt.Engine.Snapshot().Categories; len(got) != 1 || got[0] != "Fiction" {
		t.Errorf("expected cached category after reopen, got %v", got)
	}
}

func TestOpen_SyncsWithRemote(t *testing.T) {
	store := memory.NewDocStore()
	srv := httptest.NewServer(wsremote.NewServer(store))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	data := filepath.Join(t.TempDir(), "library.db")
	path := writeConfig(t, `data_path = "`+data+`"
remote_url = "`+url+`"
remote_timeout_seconds = 2
`)

	// Pending offline change
	rt, err := Open(context.Background(), Options{ConfigPath: path, Offline: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	add := commands.NewAddBookCommand(rt.Engine, domain.Book{BookName: "Dune", Category: "Fiction"})
	if _, err := add.Execute(context.Background()); err != nil {
		t.Fatalf("add book failed: %v", err)
	}
	if store.Commits()+store.Writes() != 0 {
		t.Fatal("offline runtime must not write remotely")
	}
	rt.Close()

	// Online start pushes it
	rt, err = Open(context.Background(), Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rt.Close()

	st := rt.Engine.Status()
	if !st.Online || st.NeedsSync || !st.Subscribed {
		t.Fatalf("expected online, clean and subscribed, got %+v", st)
	}
	docs, err := store.List(context.Background(), engine.RemoteBooks)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected pushed book, got %v %v", docs, err)
	}
}
