package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scrypster/sous/internal/storage/sqlite"
)

// newTestDB creates a real SQLite users database in a temp dir and returns
// its path.
func newTestDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sous.db")
	store, err := sqlite.NewUserStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close test database: %v", err)
	}
	return dbPath
}

func TestSnapshotNow(t *testing.T) {
	dbPath := newTestDB(t)
	svc, err := NewService(Config{DBPath: dbPath, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	path, err := svc.SnapshotNow()
	if err != nil {
		t.Fatalf("SnapshotNow failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("snapshot file is empty")
	}

	lastRun, lastErr := svc.LastResult()
	if lastRun.IsZero() {
		t.Error("expected lastRun to be set")
	}
	if lastErr != nil {
		t.Errorf("expected nil lastErr, got %v", lastErr)
	}
}

func TestSnapshotNowMissingDatabase(t *testing.T) {
	svc, err := NewService(Config{
		DBPath: filepath.Join(t.TempDir(), "missing.db"),
		Dir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if _, err := svc.SnapshotNow(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(Config{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for missing DBPath")
	}
	if _, err := NewService(Config{DBPath: "x.db"}); err == nil {
		t.Error("expected error for missing Dir")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dbPath := newTestDB(t)
	dir := t.TempDir()
	svc, err := NewService(Config{DBPath: dbPath, Dir: dir, Keep: 2})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	// Seed snapshot files with ascending timestamps in their names.
	names := []string{
		"sous-20240101-000000.000000.db",
		"sous-20240102-000000.000000.db",
		"sous-20240103-000000.000000.db",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to seed snapshot: %v", err)
		}
	}
	// A stray file should never be touched by pruning.
	stray := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(stray, []byte("keep"), 0o644); err != nil {
		t.Fatalf("failed to write stray file: %v", err)
	}

	if err := svc.prune(); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	paths, err := svc.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 snapshots after prune, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != names[2] || filepath.Base(paths[1]) != names[1] {
		t.Errorf("prune kept wrong snapshots: %v", paths)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Errorf("stray file was removed: %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	dbPath := newTestDB(t)
	svc, err := NewService(Config{DBPath: dbPath, Dir: t.TempDir(), Interval: time.Hour})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
