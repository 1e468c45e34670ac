// Package backup provides periodic snapshots of the SQLite user database
// with integrity verification and simple keep-N pruning.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Config holds backup service settings.
type Config struct {
	DBPath   string        // Path to the SQLite database file to snapshot
	Dir      string        // Directory where snapshots are stored
	Interval time.Duration // Time between snapshots (default: 6 hours)
	Keep     int           // Number of snapshots to retain (default: 14)
}

// Service periodically snapshots the user database.
type Service struct {
	cfg Config

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewService validates cfg and prepares the snapshot directory.
func NewService(cfg Config) (*Service, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("backup: database path is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup: snapshot directory is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 14
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create snapshot directory: %w", err)
	}
	return &Service{cfg: cfg}, nil
}

// Run takes snapshots at the configured interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	log.Printf("Backup service started: interval=%v, dir=%s", s.cfg.Interval, s.cfg.Dir)

	for {
		select {
		case <-ctx.Done():
			log.Println("Backup service stopping")
			return
		case <-ticker.C:
			if path, err := s.SnapshotNow(); err != nil {
				log.Printf("Scheduled backup failed: %v", err)
			} else {
				log.Printf("Backup written: %s", path)
			}
		}
	}
}

// SnapshotNow writes one verified snapshot and prunes old ones. It returns
// the path of the snapshot file.
func (s *Service) SnapshotNow() (string, error) {
	if _, err := os.Stat(s.cfg.DBPath); err != nil {
		return "", fmt.Errorf("backup: database not found: %w", err)
	}

	name := fmt.Sprintf("sous-%s.db", time.Now().Format("20060102-150405.000000"))
	path := filepath.Join(s.cfg.Dir, name)

	err := snapshotSQLite(s.cfg.DBPath, path)
	if err == nil {
		err = verifySnapshot(path)
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		os.Remove(path)
		return "", err
	}

	if pruneErr := s.prune(); pruneErr != nil {
		// A failed prune does not invalidate the snapshot just taken.
		log.Printf("Backup prune failed: %v", pruneErr)
	}
	return path, nil
}

// Snapshots lists snapshot files in the backup directory, newest first.
func (s *Service) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read snapshot directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "sous-") || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		paths = append(paths, filepath.Join(s.cfg.Dir, entry.Name()))
	}

	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// LastResult reports when the service last attempted a snapshot and whether
// it succeeded.
func (s *Service) LastResult() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// prune removes snapshots beyond the configured retention count.
func (s *Service) prune() error {
	paths, err := s.Snapshots()
	if err != nil {
		return err
	}
	if len(paths) <= s.cfg.Keep {
		return nil
	}

	var lastErr error
	for _, path := range paths[s.cfg.Keep:] {
		if err := os.Remove(path); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("backup: failed to delete some snapshots: %w", lastErr)
	}
	return nil
}
