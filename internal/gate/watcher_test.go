package gate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/policy"
	"github.com/starford/daymark/internal/storage"
	"github.com/starford/daymark/internal/testutil"
)

// watcherTestEnv sets up a vault, journal, gate, and engine for watcher tests.
func watcherTestEnv(t *testing.T, debounceMs int) (string, storage.Provider, *journal.DB, *Gate, *engine.Service) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestJournal(t)
	g := New(nil, debounceMs, 0, db)
	eng := engine.NewService(store, db, policy.Options{
		BaseTag:              "date",
		UpdateModifiedOnEdit: true,
		AddTypeIfMissing:     true,
		TypeValue:            "note",
		PreserveCreationTag:  true,
	}, 2)
	return vaultDir, store, db, g, eng
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatcher_NewFileStamped(t *testing.T) {
	vaultDir, store, db, g, eng := watcherTestEnv(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, g, eng, store, db, vaultDir, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		e, _ := db.Get("new.md")
		return e != nil
	}, "new file not stamped by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "stamped:new.md" {
				return true
			}
		}
		return false
	}, "stamped callback not fired")

	data, err := store.Read("new.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "created: ") {
		t.Errorf("file not stamped:\n%s", data)
	}
}

func TestWatcher_OwnWriteBackNotReprocessed(t *testing.T) {
	vaultDir, store, db, g, eng := watcherTestEnv(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, g, eng, store, db, vaultDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "loop.md"), []byte("body"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		e, _ := db.Get("loop.md")
		return e != nil
	}, "file not stamped")

	// Give the watcher time to see its own write-back surface as an event.
	time.Sleep(300 * time.Millisecond)

	first, _ := db.Get("loop.md")
	data, _ := store.Read("loop.md")
	// If the write-back had been re-stamped as an edit, modified and the
	// journal entry would have moved on.
	second, _ := db.Get("loop.md")
	if first == nil || second == nil {
		t.Fatal("journal entry lost")
	}
	if second.Kind != string(policy.KindNew) {
		t.Errorf("journal kind = %q, want the original create", second.Kind)
	}
	if strings.Count(string(data), "created:") != 1 {
		t.Errorf("header duplicated:\n%s", data)
	}
}

func TestWatcher_RemoveDropsJournal(t *testing.T) {
	vaultDir, store, db, g, eng := watcherTestEnv(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, g, eng, store, db, vaultDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(vaultDir, "gone.md")
	_ = os.WriteFile(path, []byte("bye"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		e, _ := db.Get("gone.md")
		return e != nil
	}, "file not stamped")

	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		e, _ := db.Get("gone.md")
		return e == nil
	}, "journal entry not dropped on remove")
}

func TestStampAfterTemplate(t *testing.T) {
	_, store, db, _, eng := watcherTestEnv(t, 10)
	g := New(nil, 10, 20, db)

	_ = store.Write("tpl.md", []byte("---\ncreated: 2025-10-19 16:55:00\nmodified: 2025-10-19 16:55:00\n---\nfilled in"))

	res, err := StampAfterTemplate(context.Background(), g, eng, "tpl.md")
	if err != nil {
		t.Fatalf("StampAfterTemplate: %v", err)
	}
	if res == nil || !res.Written {
		t.Fatalf("result = %+v, want written", res)
	}

	data, _ := store.Read("tpl.md")
	if !strings.Contains(string(data), "modified: 2025-10-19 16:55:00") {
		t.Errorf("template completion touched modified:\n%s", data)
	}
	if !strings.Contains(string(data), "date/2025/10/19") {
		t.Errorf("creation tag missing:\n%s", data)
	}
}
