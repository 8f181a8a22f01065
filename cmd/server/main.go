package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zonagarage/internal/config"
	"zonagarage/internal/infra"
	"zonagarage/internal/repository"
	"zonagarage/internal/router"
	"zonagarage/internal/sync"
	"zonagarage/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Async worker pool: receipt PDFs and outbound email. Handlers are wired
	// here (composition root) so the pool has access to all infrastructure.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	servicioRepo := repository.NewServicioRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	pagoRepo := repository.NewPagoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)

	comprobanteW := worker.NewComprobanteWorker(
		servicioRepo, ventaRepo, pagoRepo,
		dispatcher, cfg.PDFStoragePath, cfg.NombreNegocio,
	)
	handlers := worker.Handlers{
		Comprobante: comprobanteW,
		Email:       worker.NewEmailWorker(mailer),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	// One-way push to the remote mirror. Built unconditionally so the admin
	// status endpoint always answers; only started when a remote is
	// configured — the shop runs fine fully offline.
	remote := sync.NewRemoteClient(cfg.SyncRemoteURL, cfg.SyncAPIKey)
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	syncer := sync.NewSyncer(
		remote, cb,
		clienteRepo, servicioRepo, ventaRepo,
		time.Duration(cfg.SyncIntervalMinutes)*time.Minute,
	)
	if cfg.SyncRemoteURL != "" {
		syncer.Start(ctx)
		log.Info().Str("remote", cfg.SyncRemoteURL).Msg("remote sync started")
	} else {
		log.Warn().Msg("SYNC_REMOTE_URL not set, remote sync disabled")
	}

	r := router.New(cfg, db, rdb, dispatcher, comprobanteW, syncer)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Zona Garage backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	syncer.Stop()
	log.Info().Msg("server exited")
}
