package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/farmkit/agrorent/internal/booking"
	"github.com/farmkit/agrorent/internal/config"
	"github.com/farmkit/agrorent/internal/database"
	"github.com/farmkit/agrorent/internal/handlers"
	"github.com/farmkit/agrorent/internal/i18n"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/listing"
	"github.com/farmkit/agrorent/internal/machine"
	"github.com/farmkit/agrorent/internal/services/dashboard"
	"github.com/farmkit/agrorent/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (SQLite, external or embedded PostgreSQL)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in the shutdown path below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	if err := db.AutoMigrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Identity and the session-change feed
	broker := identity.NewBroker()
	provider := identity.NewProvider(db.DB, broker, identity.Options{
		Secret:                   cfg.JWTSecret,
		AccessTTL:                cfg.Auth.AccessTokenTTL,
		RefreshTTL:               cfg.Auth.RefreshTokenTTL,
		RequireEmailConfirmation: cfg.Auth.RequireEmailConfirmation,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub(provider, broker, provider.Profiles())
	go hub.Run(ctx)

	// 5. Set up HTTP router
	router := handlers.NewRouter(cfg, handlers.Services{
		DB:       db.DB,
		Identity: provider,
		Bookings: booking.NewEngine(db.DB, nil),
		Machines: machine.NewCatalog(db.DB),
		Listings: listing.NewMarket(db.DB),
		Stats:    dashboard.NewService(db.DB),
		Hub:      hub,
		I18n:     i18n.New(cfg.Locale.DefaultLanguage),
	})

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 AgroRent (%s) starting on port %s\n", cfg.NodeEnv, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Closes every websocket client
	stop()
	broker.Close()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
