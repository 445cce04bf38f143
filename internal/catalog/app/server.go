package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"catalogsync_api/config"
	"catalogsync_api/config/values"
	"catalogsync_api/internal/auth"
	"catalogsync_api/internal/catalog/app/web/handlers"
	"catalogsync_api/internal/catalog/business/services/reconcile"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/catalog/storage/repositories"
	"catalogsync_api/internal/suppliers/scraped"
	"catalogsync_api/internal/suppliers/structured"
	"catalogsync_api/metrics"
	"catalogsync_api/migrations/infrastructure"
	"catalogsync_api/pkg/business/service"
	"catalogsync_api/pkg/dbconnect"
	"catalogsync_api/pkg/dbconnect/migration"
	"catalogsync_api/pkg/middleware"
)

// Server wires the storage, the two supplier clients and the sync engine
// together and serves the admin trigger API.
type Server struct {
	cfg       *config.AppConfig
	connector dbconnect.Database
	logger    *zap.Logger
}

func NewServer(cfg *config.AppConfig, connector dbconnect.Database, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, connector: connector, logger: logger}
}

func (s *Server) Run(ctx context.Context) error {
	db, err := s.connector.Connect()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := s.applyMigrations(db); err != nil {
		return err
	}

	syncService := s.buildSyncService(db)

	go syncService.RunScheduler(ctx, s.cfg.Sync.ScheduleEvery())

	return s.serve(ctx, syncService)
}

func (s *Server) applyMigrations(db *sql.DB) error {
	migrationApply := []migration.MigrationInterface{
		&infrastructure.MigrationsSchema{},
		&infrastructure.CatalogSchema{},
		&infrastructure.CatalogCategories{},
		&infrastructure.CatalogManufacturers{},
		&infrastructure.CatalogParameters{},
		&infrastructure.CatalogParameterOptions{},
		&infrastructure.CatalogProducts{},
		&infrastructure.CatalogProductParameters{},
		&infrastructure.CatalogSyncRuns{},
	}
	for _, m := range migrationApply {
		if err := m.UpMigration(db); err != nil {
			return err
		}
	}
	s.logger.Info("catalog migrations applied")
	return nil
}

func (s *Server) buildSyncService(db *sql.DB) *reconcile.SyncService {
	repos := storage.Repositories{
		Categories:    repositories.NewCategoryRepository(db),
		Manufacturers: repositories.NewManufacturerRepository(db),
		Parameters:    repositories.NewParameterRepository(db),
		Products:      repositories.NewProductRepository(db),
		SyncRuns:      repositories.NewSyncRunRepository(db),
	}

	sync := &s.cfg.Sync

	structuredClient := structured.NewClient(
		s.cfg.Structured.BaseURL,
		structured.NewBearerAuth(s.cfg.Structured.Token),
		sync.RequestTimeout(),
		sync.RetryAttempts,
		sync.RetryBaseDelay(),
		s.logger,
	)
	scrapedClient := scraped.NewClient(
		s.cfg.Scraped.BaseURL,
		s.cfg.Scraped.AccessToken,
		s.cfg.Scraped.Windows1251,
		sync.RequestTimeout(),
		sync.RetryAttempts,
		sync.RetryBaseDelay(),
		scraped.NewResponseCache(sync.CacheTTL()),
		s.logger,
	)

	aliases := s.loadAliases()

	chunker := reconcile.NewChunkProcessor(sync.ChunkSize, sync.FlushEvery, sync.ChunkDeadline(), sync.ChunkPause(), s.logger)
	ledger := reconcile.NewLedger(repos.SyncRuns, s.logger)

	return reconcile.NewSyncService(repos, structuredClient, scrapedClient,
		service.NewTextService(), aliases, chunker, ledger, s.logger)
}

func (s *Server) loadAliases() map[string]string {
	if s.cfg.AliasFile == "" {
		return nil
	}
	aliases, err := values.LoadCategoryAliases(s.cfg.AliasFile)
	if err != nil {
		s.logger.Warn("category alias file not loaded", zap.String("path", s.cfg.AliasFile), zap.Error(err))
		return nil
	}
	return aliases.Aliases
}

func (s *Server) serve(ctx context.Context, syncService *reconcile.SyncService) error {
	mux := http.NewServeMux()
	handlers.NewSyncHandler(syncService, s.logger).Register(mux)

	guarded := auth.AuthMiddleware(s.cfg.Server.JWTSecret)(
		auth.RoleMiddleware("admin")(mux))

	root := http.NewServeMux()
	root.Handle("/api/", guarded)
	root.Handle("/metrics", metrics.MetricsHandler())
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: middleware.PrometheusMiddleware(root),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	s.logger.Info("admin API listening", zap.String("addr", s.cfg.Server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
