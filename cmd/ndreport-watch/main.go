package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ndreport/internal/config"
	"ndreport/internal/listener"
	"ndreport/internal/logging"
	"ndreport/internal/metrics"
	"ndreport/internal/names"
	"ndreport/internal/pipeline"
	"ndreport/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Validate())
	must(listener.EnsureReportsDir(cfg))

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	must(err)
	defer func() { _ = log.Sync() }()

	stopWords, err := names.LoadStopWords(cfg.StopWordsPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	var ledger pipeline.RunLedger
	if cfg.RunLedgerEnabled {
		ledger = db
	}
	m := metrics.New()
	runner := pipeline.NewReportService(cfg, stopWords, ledger, log).WithMetrics(m)
	svc := listener.NewService(cfg, runner, db, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, m, log)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	log.Info("watching for inputs", zap.String("dir", cfg.ReportsDir), zap.Int("interval_sec", cfg.WatchIntervalSec))
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
