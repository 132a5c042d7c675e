package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rftrank/internal/api"
	"rftrank/internal/config"
	"rftrank/internal/ingest"
	"rftrank/internal/ranking"
	"rftrank/internal/store"
	"rftrank/internal/upstream"
	"rftrank/internal/watcher"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	must(err)

	db, err := store.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	st := store.New()
	records, err := db.LoadSnapshot()
	must(err)
	st.Load(records)
	slog.Info("snapshot loaded", "records", st.Count(), "db", cfg.DBPath)

	merger := ingest.NewMerger()
	engine := ranking.NewEngine(st, ranking.NewRounder(cfg))
	sync := upstream.NewSyncService(cfg, engine)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		w := watcher.NewService(cfg, merger, st, db)
		if err := w.Run(ctx); err != nil {
			slog.Error("watcher stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.New(cfg, merger, st, db, engine, sync),
	}
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	_ = srv.Shutdown(context.Background())
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
