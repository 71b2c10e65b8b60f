// Package backup takes scheduled CSV snapshots of the event collection while
// the server is running.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"eventcal/internal/csvbridge"
	appLog "eventcal/internal/log"
	"eventcal/internal/metric"
	"eventcal/internal/model"
)

const (
	filePrefix = "events-"
	fileSuffix = ".csv"
	stampFmt   = "20060102-150405"
)

// Source provides the records to snapshot.
type Source interface {
	Records() []model.Event
}

// Config controls the schedule and retention.
type Config struct {
	// Cron is a standard 5-field cron expression. Empty disables backups.
	Cron string
	Dir  string
	Keep int
}

// Scheduler runs snapshots on a cron schedule.
type Scheduler struct {
	cfg  Config
	src  Source
	cron *cron.Cron
	now  func() time.Time
}

// ErrDisabled is returned by New when no schedule is configured.
var ErrDisabled = errors.New("backups disabled")

// New validates cfg and registers the snapshot job. Call Start to begin.
func New(cfg Config, src Source) (*Scheduler, error) {
	if strings.TrimSpace(cfg.Cron) == "" {
		return nil, ErrDisabled
	}
	if cfg.Dir == "" {
		return nil, errors.New("backup dir is empty")
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 1
	}

	s := &Scheduler{
		cfg:  cfg,
		src:  src,
		cron: cron.New(),
		now:  time.Now,
	}
	if _, err := s.cron.AddFunc(cfg.Cron, s.run); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	appLog.Info("backup scheduler started", "cron", s.cfg.Cron, "dir", s.cfg.Dir, "keep", s.cfg.Keep)
	s.cron.Start()
}

// Stop halts scheduling and waits for a running snapshot to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		appLog.Warn("backup still running at shutdown")
	}
}

func (s *Scheduler) run() {
	path, err := s.RunOnce()
	if err != nil {
		appLog.Error("backup failed", err, "dir", s.cfg.Dir)
		return
	}
	appLog.Info("backup written", "path", path)
}

// RunOnce writes a snapshot now and prunes old ones.
func (s *Scheduler) RunOnce() (string, error) {
	path, err := Snapshot(s.cfg.Dir, s.src.Records(), s.now())
	metric.Backup(err)
	if err != nil {
		return "", err
	}
	removed, err := Prune(s.cfg.Dir, s.cfg.Keep)
	if err != nil {
		appLog.Error("backup prune failed", err, "dir", s.cfg.Dir)
	}
	for _, r := range removed {
		appLog.Debug("backup pruned", "path", r)
	}
	return path, nil
}

// Snapshot writes records as CSV to dir/events-YYYYMMDD-HHMMSS.csv through a
// temp file and rename.
func Snapshot(dir string, records []model.Event, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filePrefix+at.Format(stampFmt)+fileSuffix)

	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := csvbridge.WriteCSV(tmp, records); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", err
	}
	return path, nil
}

// Prune removes all but the newest keep snapshots in dir and returns the
// removed paths. Other files are left alone.
func Prune(dir string, keep int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, filePrefix) || !strings.HasSuffix(n, fileSuffix) {
			continue
		}
		names = append(names, n)
	}
	if len(names) <= keep {
		return nil, nil
	}

	// The timestamp format sorts lexically.
	sort.Strings(names)
	removed := make([]string, 0, len(names)-keep)
	var errs []error
	for _, n := range names[:len(names)-keep] {
		p := filepath.Join(dir, n)
		if err := os.Remove(p); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, p)
	}
	return removed, errors.Join(errs...)
}
