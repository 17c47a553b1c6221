package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/provenance"
	"studio/internal/source"
	"studio/internal/storage"
	"studio/internal/watermark"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open asset store")
	}

	sources := &source.Mux{
		HTTP: source.NewHTTPLoader(source.HTTPOptions{
			AllowedHosts: cfg.ImageSourceAllowlist,
			MaxBytes:     cfg.MaxImageBytes,
			Timeout:      cfg.ImageFetchTimeout,
			Logger:       logger,
		}),
		Data:      source.DataURI{MaxBytes: cfg.MaxImageBytes},
		Store:     store,
		MaxPixels: cfg.MaxImagePixels,
	}
	if cfg.S3Bucket != "" || cfg.S3Endpoint != "" {
		s3store, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3")
		}
		sources.Objects = s3store
	}

	policy := watermark.Policy{Bypass: watermark.EnvBypass(cfg.WatermarkBypassKey)}
	app := &handlers.App{
		Config:     cfg,
		Logger:     logger,
		Assets:     repo.NewAssetRepository(sqlRunner),
		Users:      repo.NewUserRepository(sqlRunner),
		Downloads:  repo.NewDownloadRepository(sqlRunner),
		Provenance: provenance.New(sources, policy, logger),
		Originals:  sources,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Int("allowed_hosts", len(cfg.ImageSourceAllowlist)).Msg("provenance API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
