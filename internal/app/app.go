package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/serverless-sim/internal/api"
	"github.com/andresuchdata/serverless-sim/internal/cache"
	"github.com/andresuchdata/serverless-sim/internal/config"
	"github.com/andresuchdata/serverless-sim/internal/eventlog"
	"github.com/andresuchdata/serverless-sim/internal/lambda"
	"github.com/andresuchdata/serverless-sim/internal/repository"
	"github.com/andresuchdata/serverless-sim/internal/repository/jsonfile"
	"github.com/andresuchdata/serverless-sim/internal/repository/postgres"
	"github.com/andresuchdata/serverless-sim/internal/service"
	"github.com/andresuchdata/serverless-sim/internal/storage"
	"github.com/andresuchdata/serverless-sim/internal/workspace"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config  *config.Config
	Uploads *service.UploadService

	cache cache.RecordCache
	db    *postgres.DB
}

// New wires the simulated services according to cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// 1. Local layout
	if err := workspace.Ensure(cfg.App); err != nil {
		return nil, fmt.Errorf("failed to prepare workspace: %w", err)
	}

	// 2. Object storage
	objects, err := newObjectStorage(ctx, cfg.Storage, cfg.App.BucketDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}

	a := &App{Config: cfg}

	// 3. Record store
	repo, err := a.newRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init record store: %w", err)
	}

	// 4. Cache
	recordCache, err := cache.NewRecordCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("record cache unavailable, continuing without it")
		recordCache = cache.NewNoopRecordCache()
	}
	a.cache = recordCache

	// 5. Handler and gateway
	events := eventlog.New(cfg.App.LogFile)
	analyzer := lambda.NewAnalyzer(objects, repo, recordCache, events)
	a.Uploads = service.NewUploadService(objects, analyzer, repo, recordCache, events)

	log.Debug().
		Str("storage", cfg.Storage.Backend).
		Str("records", cfg.Records.Backend).
		Bool("cache", cfg.Cache.Enabled).
		Msg("simulator wired")

	return a, nil
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig, bucketDir string) (storage.ObjectStorage, error) {
	switch cfg.Backend {
	case "", config.StorageBackendLocal:
		return storage.NewLocalBucket(bucketDir)
	case config.StorageBackendMinio:
		return storage.NewMinioBucket(ctx, storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func (a *App) newRepository(ctx context.Context, cfg *config.Config) (repository.MetadataRepository, error) {
	switch cfg.Records.Backend {
	case "", config.RecordStoreJSONFile:
		return jsonfile.NewStore(cfg.App.DBFile), nil
	case config.RecordStorePostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewMetadataRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		return repo, nil
	}
	return nil, fmt.Errorf("unknown record store %q", cfg.Records.Backend)
}

// Serve runs the HTTP gateway until SIGINT/SIGTERM or ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if a.Config.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(&api.Services{UploadService: a.Uploads}, a.Config.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(a.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.Config.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", a.Config.Server.Port).Msg("Starting API gateway")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	// The server has 5 seconds to finish the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

// Close releases the cache and database connections.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
