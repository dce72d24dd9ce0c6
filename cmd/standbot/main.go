package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liliang-cn/standbot/internal/api"
	"github.com/liliang-cn/standbot/internal/cache"
	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/llm"
	"github.com/liliang-cn/standbot/internal/ratelimit"
	"github.com/liliang-cn/standbot/internal/repository"
	"github.com/liliang-cn/standbot/internal/service"
	"github.com/liliang-cn/standbot/internal/session"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the wired services shared by the commands
type app struct {
	cfg      *config.Config
	db       *repository.DB
	sessions *session.Store
	admin    *service.AdminService
	ingest   *service.IngestService
	widget   *service.WidgetService
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	chatLogRepo := repository.NewChatLogRepository(db)

	// In-memory state
	sessions := session.NewStore(session.WithHistorySize(cfg.Chat.HistorySize))
	limiter := ratelimit.NewLimiter(cfg.RateLimit, sessions)
	contextCache, err := cache.NewContextCache(cfg.Chat.ContextCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	forcedCache := cache.NewForcedCache(documentRepo.FindByURL, logger)

	llmClient := llm.NewClient(cfg.LLM)
	phrases := service.DefaultPhrases()

	// Initialize services
	ingestService := service.NewIngestService(documentRepo, llmClient, logger)

	chatService := service.NewChatService(service.ChatDeps{
		Config:       cfg,
		Sessions:     sessions,
		Limiter:      limiter,
		Documents:    documentRepo,
		Search:       service.NewSearchService(documentRepo, llmClient, phrases),
		ContextCache: contextCache,
		ForcedCache:  forcedCache,
		LLM:          llmClient,
		Profiles:     profileRepo,
		ChatLogs:     chatLogRepo,
		Phrases:      phrases,
		Logger:       logger,
	})

	adminService := service.NewAdminService(
		cfg,
		documentRepo,
		ingestService,
		chatLogRepo,
		sessions,
		limiter,
		contextCache,
	)

	widgetService := service.NewWidgetService(cfg, profileRepo, chatService)

	return &app{
		cfg:      cfg,
		db:       db,
		sessions: sessions,
		admin:    adminService,
		ingest:   ingestService,
		widget:   widgetService,
	}, nil
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.db.Close()

	// Setup router
	router := api.SetupRouter(a.admin, a.widget, a.sessions, logger, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: cfg.Server.AllowOrigins,
		Session:      cfg.Session,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting standbot server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func importFile(ctx context.Context, cfg *config.Config, logger *zap.Logger, path, website string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.db.Close()

	result, err := a.ingest.ImportJSON(ctx, website, data)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d documents, skipped %d\n", result.Imported, result.Skipped)
	for _, e := range result.Errors {
		fmt.Println("  -", e)
	}
	return nil
}

func printBanner() {
	banner := `
     _                  _ _           _
 ___| |_ __ _ _ __   __| | |__   ___ | |_
/ __| __/ _' | '_ \ / _' | '_ \ / _ \| __|
\__ \ || (_| | | | | (_| | |_) | (_) | |_
|___/\__\__,_|_| |_|\__,_|_.__/ \___/ \__|
`

	fmt.Println(banner)
}
