package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	historyhandler "praisa/internal/history/handler"
	historysvc "praisa/internal/history/service"
	matchhandler "praisa/internal/match/handler"
	matchsvc "praisa/internal/match/service"
	"praisa/internal/matcher"
	patienthandler "praisa/internal/patient/handler"
	patientsvc "praisa/internal/patient/service"
	"praisa/internal/platform/config"
	"praisa/internal/platform/httpserver"
	"praisa/internal/platform/logger"
	"praisa/internal/platform/metrics"
	"praisa/internal/platform/middleware"
	"praisa/internal/registry"
	"praisa/internal/source"
	dErrors "praisa/pkg/domain-errors"
	audit "praisa/pkg/platform/audit"
	auditkafka "praisa/pkg/platform/audit/kafka"
	auditmemory "praisa/pkg/platform/audit/store/memory"
	"praisa/pkg/platform/audit/publisher"
)

// main wires the registry, source adapters, services and HTTP surface, then
// runs the server until a shutdown signal arrives.
func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	m := metrics.New(prometheus.DefaultRegisterer)
	reg := registry.FromConfig(cfg.Sources)

	directory, cleanup, err := buildDirectory(cfg, reg)
	if err != nil {
		log.Error("source setup failed", "backend", cfg.SourceBackend, "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	auditPublisher, auditCleanup, err := buildAudit(cfg, log)
	if err != nil {
		log.Error("audit setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer auditCleanup()

	patients := patientsvc.New(reg, directory,
		patientsvc.WithLogger(log),
		patientsvc.WithMetrics(m),
		patientsvc.WithAuditPublisher(auditPublisher),
	)
	resolver := matchsvc.New(reg, directory, matcher.NewClient(cfg.MatcherURL),
		matchsvc.WithLogger(log),
		matchsvc.WithMetrics(m),
		matchsvc.WithAuditPublisher(auditPublisher),
		matchsvc.WithAliases(matchAliases(cfg.Aliases)),
	)
	history := historysvc.New(directory,
		historysvc.WithLogger(log),
		historysvc.WithMetrics(m),
		historysvc.WithAuditPublisher(auditPublisher),
	)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	patienthandler.New(patients, log).Register(router)
	matchhandler.New(resolver, patients, log).Register(router)
	historyhandler.New(history, log).Register(router)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting praisa", "addr", cfg.Addr, "backend", cfg.SourceBackend, "sources", len(reg.Sources()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}

// buildDirectory constructs one adapter per registered source for the
// configured backend. The sqlite backend shares a single demo database
// scoped per source; the http backend needs an explicit URL per source.
func buildDirectory(cfg config.Config, reg *registry.Registry) (*source.Directory, func(), error) {
	directory := source.NewDirectory()
	cleanup := func() {}

	switch cfg.SourceBackend {
	case "memory":
		for _, src := range reg.Sources() {
			directory.Register(src.ID, source.NewMemorySource())
		}
	case "sqlite":
		db, err := source.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = db.Close() }
		for _, src := range reg.Sources() {
			directory.Register(src.ID, source.NewSQLSource(db, src.ID))
		}
	case "http":
		for _, src := range reg.Sources() {
			baseURL, ok := cfg.SourceURLs[src.ID]
			if !ok {
				return nil, nil, dErrors.Newf(dErrors.CodeValidation, "no URL configured for source %q", src.ID)
			}
			directory.Register(src.ID, source.NewHTTPSource(baseURL, src.ID))
		}
	default:
		return nil, nil, dErrors.Newf(dErrors.CodeValidation, "unknown source backend %q", cfg.SourceBackend)
	}
	return directory, cleanup, nil
}

// buildAudit wires the Kafka sink when brokers are configured, otherwise an
// in-memory store. Both run behind an async buffered publisher.
func buildAudit(cfg config.Config, log *slog.Logger) (*publisher.Publisher, func(), error) {
	var store audit.Store = auditmemory.NewInMemoryStore()
	cleanup := func() {}

	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return nil, nil, err
		}
		store = sink
		cleanup = sink.Close
	}

	p := publisher.NewPublisher(store,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	)
	closer := cleanup
	cleanup = func() {
		p.Close()
		closer()
	}
	return p, cleanup, nil
}

func matchAliases(rules config.AliasList) []matchsvc.AliasRule {
	aliases := make([]matchsvc.AliasRule, 0, len(rules))
	for _, rule := range rules {
		aliases = append(aliases, matchsvc.AliasRule{Key: rule.Key, Alias: rule.Alias})
	}
	return aliases
}
