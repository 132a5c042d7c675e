package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"rftrank/internal"
	"rftrank/internal/config"
	"rftrank/internal/ingest"
	"rftrank/internal/store"
)

// Service watches a drop directory for spreadsheet exports and stages them
// automatically. When all four source tables are staged it merges and
// persists, so an operator can feed the service by copying files around.
type Service struct {
	cfg    config.Config
	merger *ingest.Merger
	store  *store.Store
	db     *store.DB
}

func NewService(cfg config.Config, merger *ingest.Merger, st *store.Store, db *store.DB) *Service {
	return &Service{cfg: cfg, merger: merger, store: st, db: db}
}

// Run blocks until ctx is cancelled. Files already present in the directory
// at startup are ingested first.
func (s *Service) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.WatchDir, 0o755); err != nil {
		return err
	}

	s.sweepExisting()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.cfg.WatchDir); err != nil {
		return err
	}

	slog.Info("watching drop directory", "dir", s.cfg.WatchDir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Let the writer finish; exports land in several chunks.
			time.Sleep(time.Duration(s.cfg.WatchSettleMs) * time.Millisecond)
			s.ingestFile(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", err)
		}
	}
}

func (s *Service) sweepExisting() {
	entries, err := os.ReadDir(s.cfg.WatchDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.ingestFile(filepath.Join(s.cfg.WatchDir, entry.Name()))
	}
}

func (s *Service) ingestFile(path string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls", ".csv", ".html", ".htm":
	default:
		return
	}

	source, ok := classify(filepath.Base(path))
	if !ok {
		slog.Warn("cannot classify drop file, skipping", "file", filepath.Base(path))
		return
	}

	raw, err := ingest.ReadTableFile(path)
	if err != nil {
		slog.Error("read drop file failed", "file", filepath.Base(path), "err", err)
		return
	}

	res, err := ingest.Normalize(source, raw, s.cfg.ThroughputCeilingKg)
	if err != nil {
		var schemaErr internal.SchemaError
		if errors.As(err, &schemaErr) {
			slog.Error("drop file rejected", "file", filepath.Base(path), "missing", schemaErr.Missing)
			return
		}
		slog.Error("normalize drop file failed", "file", filepath.Base(path), "err", err)
		return
	}

	s.merger.Stage(res.Table)
	slog.Info("drop file staged", "file", filepath.Base(path), "source", source, "kept", res.Kept, "dropped", res.Dropped)

	if s.cfg.WatchAutoMerge {
		s.tryMerge()
	}
}

func (s *Service) tryMerge() {
	for _, staged := range s.merger.StagedSources() {
		if !staged {
			return
		}
	}

	records, err := s.merger.Merge()
	if err != nil {
		slog.Error("auto-merge failed", "err", err)
		return
	}

	s.store.Append(records)
	if s.db != nil {
		if err := s.db.SaveSnapshot(s.store.All()); err != nil {
			slog.Error("persist snapshot failed", "err", err)
			return
		}
		_ = s.db.SetMetadata("store.last_merge", time.Now().UTC().Format(time.RFC3339))
	}
	s.merger.Reset()
	slog.Info("auto-merge complete", "merged", len(records), "total", s.store.Count())
}

// classify infers the source type from the filename, the way operators name
// their exports: rft_parameters.xlsx, throughput_ext.csv, mill 2024.xls, ...
func classify(name string) (internal.SourceType, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "param"):
		return internal.SourceParameter, true
	case strings.Contains(n, "qual") || strings.Contains(n, "rft"):
		return internal.SourceQuality, true
	case strings.Contains(n, "ext"):
		return internal.SourceExtrusion, true
	case strings.Contains(n, "mill"):
		return internal.SourceMilling, true
	default:
		return "", false
	}
}
