package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nauczsie/internal/backend"
	"nauczsie/internal/config"
	"nauczsie/internal/database"
	"nauczsie/internal/handlers"
	"nauczsie/internal/identity"
	"nauczsie/internal/models"
	"nauczsie/internal/repository"
	"nauczsie/internal/security"
	"nauczsie/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Local storage, sealed at rest when a secret is configured
	var sealer repository.Sealer
	if cfg.StorageSecret != "" {
		s, err := security.NewSealer(cfg.StorageSecret)
		if err != nil {
			log.Fatalf("Failed to create storage sealer: %v", err)
		}
		sealer = s
	} else {
		log.Println("Warning: STORAGE_SECRET not set, local storage is not encrypted")
	}
	storage := repository.NewLocalStorageRepository(db, sealer)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	ctx := context.Background()

	// Identity provider. Both interfaces stay nil when OAuth is not configured.
	var provider service.Provider
	var completer handlers.LoginCompleter
	if cfg.OAuthConfigured() {
		p, err := identity.New(ctx, identity.Config{
			Provider:     cfg.AuthProvider,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			IssuerURL:    cfg.OIDCIssuerURL,
			HTTPClient:   httpClient,
			Debug:        cfg.Debug,
		}, storage)
		if err != nil {
			log.Fatalf("Failed to initialize identity provider: %v", err)
		}
		provider = p
		completer = p
	} else {
		log.Println("Warning: OAuth credentials not set, login is disabled")
	}

	// Initialize services
	authService := service.NewAuthService(provider, storage, httpClient, cfg.RedirectBaseURL()+"/auth/callback")
	client := backend.NewClient(cfg.APIURL, httpClient, authService, storage)
	authService.UsePasswordBackend(client)

	if err := authService.Restore(); err != nil {
		log.Printf("Warning: Failed to restore stored session: %v", err)
	}
	if err := authService.Initialize(ctx); err != nil {
		log.Printf("Warning: Session manager not initialized: %v", err)
	}
	defer authService.Close()

	if status, err := client.Health(ctx); err != nil {
		log.Printf("Warning: Backend at %s is not reachable: %v", cfg.APIURL, err)
	} else if cfg.Debug {
		log.Printf("[DEBUG] Backend health: %v", status)
	}

	reportService, err := service.NewReportService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.RedirectBaseURL(), cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize report service: %v", err)
	}
	var reporter service.ReviewReporter
	if reportService.IsEnabled() {
		reporter = reportService
	}
	flashcardService := service.NewFlashcardService(client, reporter, cfg.FlashcardLimit)

	// Reviews belong to the session that started them
	unsubscribe := authService.Subscribe(func(change models.AuthStateChange) {
		if !change.IsLoggedIn {
			flashcardService.DiscardAll()
		}
	})
	defer unsubscribe()

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.GenerateRateLimit, cfg.GenerateRateWindow)
	defer limiter.Stop()
	csrf := security.NewCSRFGenerator(cfg.StorageSecret)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Handlers{
		Middleware: handlers.NewMiddleware(authService, csrf, limiter),
		Auth:       handlers.NewAuthHandler(authService, completer, csrf, cfg.AuthProvider),
		Accounts:   handlers.NewAccountHandler(authService, client),
		Vocab:      handlers.NewVocabHandler(client),
		Flashcards: handlers.NewFlashcardHandler(flashcardService, client),
	})

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Cancelled on shutdown so open event streams return
	baseCtx, stopStreams := context.WithCancel(context.Background())
	server.BaseContext = func(net.Listener) context.Context { return baseCtx }

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
