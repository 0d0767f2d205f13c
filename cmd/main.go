// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/woramet12/fitnu/internal/cache"
	"github.com/woramet12/fitnu/internal/config"
	"github.com/woramet12/fitnu/internal/database"
	"github.com/woramet12/fitnu/internal/handler"
	"github.com/woramet12/fitnu/internal/imagehost"
	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/realtime"
	"github.com/woramet12/fitnu/internal/repository"
	"github.com/woramet12/fitnu/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	broker := realtime.NewBroker()
	sessions := cache.New[model.UserProfile]()
	uploader := imagehost.NewClient(cfg.Cloudinary.CloudName, cfg.Cloudinary.UploadPreset)

	authSvc := service.NewAuthService(userRepo, service.LogSender{}, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	profileSvc := service.NewProfileService(userRepo, sessions)
	eventSvc := service.NewEventService(eventRepo, broker)
	membershipSvc := service.NewMembershipService(eventRepo, broker)
	chatSvc := service.NewChatService(eventRepo, messageRepo, uploader, broker)
	projectionSvc := service.NewProjectionService(eventRepo, messageRepo, userRepo)

	authHandler := handler.NewAuthHandler(authSvc, profileSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	eventHandler := handler.NewEventHandler(eventSvc, membershipSvc, projectionSvc, profileSvc)
	chatHandler := handler.NewChatHandler(chatSvc, profileSvc)
	wsHandler := handler.NewWSHandler(authSvc, projectionSvc, broker, cfg.WSInsecureSkipVerify)

	requireAuth := handler.Auth(authSvc)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // access log
	r.Use(handler.CORS)            // permissive CORS for browser clients

	// Health
	r.Get("/health", handler.HealthCheck)

	// API routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/request-reset", authHandler.RequestReset)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", profileHandler.Me)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", profileHandler.Search)
		r.Put("/me", profileHandler.Update)
		r.Get("/{id}", profileHandler.Get)
	})

	r.Route("/events", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", eventHandler.Create)
		r.Get("/", eventHandler.List)
		r.Get("/mine", eventHandler.Mine)
		r.Get("/created", eventHandler.Created)
		r.Get("/{id}", eventHandler.Get)
		r.Delete("/{id}", eventHandler.Delete)
		r.Post("/{id}/join", eventHandler.Join)
		r.Post("/{id}/leave", eventHandler.Leave)
		r.Get("/{id}/participants", eventHandler.Participants)
		r.Get("/{id}/messages", chatHandler.List)
		r.Post("/{id}/messages", chatHandler.SendText)
		r.Post("/{id}/messages/image", chatHandler.SendImage)
	})

	// WebSocket routes authenticate via a token query parameter.
	r.Get("/ws/events", wsHandler.Events)
	r.Get("/ws/events/{id}/messages", wsHandler.Messages)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("✓ Server listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}
