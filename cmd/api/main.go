package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/servicehub/servicehub-api/internal/config"
	"github.com/servicehub/servicehub-api/internal/domain/booking"
	"github.com/servicehub/servicehub-api/internal/domain/catalog"
	"github.com/servicehub/servicehub-api/internal/domain/provider"
	"github.com/servicehub/servicehub-api/internal/domain/review"
	"github.com/servicehub/servicehub-api/internal/domain/subscription"
	"github.com/servicehub/servicehub-api/internal/domain/zone"
	"github.com/servicehub/servicehub-api/internal/middleware"
	"github.com/servicehub/servicehub-api/internal/pkg/database"
	"github.com/servicehub/servicehub-api/internal/pkg/imaging"
	"github.com/servicehub/servicehub-api/internal/pkg/jwt"
	"github.com/servicehub/servicehub-api/internal/pkg/logger"
	pkgresponse "github.com/servicehub/servicehub-api/internal/pkg/response"
	"github.com/servicehub/servicehub-api/internal/pkg/storage"
	"github.com/servicehub/servicehub-api/internal/pkg/upload"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ServiceHub API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	var sessions catalog.SessionStore
	if redis != nil {
		sessions = catalog.NewRedisSessionStore(redis, cfg.EditSessionTTL)
	} else {
		sessions = catalog.NewMemorySessionStore(cfg.EditSessionTTL)
	}

	mediaStorage, err := storage.New(context.Background(), storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.StorageLocalPath,
		PublicURL:   cfg.StoragePublicURL,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to create media storage")
	}
	images := upload.NewImageService(mediaStorage, imaging.NewProcessor(imaging.DefaultConfig()))

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	providerRepo := provider.NewRepository(db)
	zoneRepo := zone.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	reviewRepo := review.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)

	// ---------- Services ----------
	bookingService := booking.NewService(bookingRepo, providerRepo)
	reviewService := review.NewService(reviewRepo)
	catalogService := catalog.NewService(catalogRepo, sessions, zoneRepo, images, reviewService)
	subscriptionService := subscription.NewService(subscriptionRepo)

	// ---------- Handlers ----------
	h := handlers{
		bookings:      booking.NewHandler(bookingService, cfg.PaginationLimit),
		services:      catalog.NewHandler(catalogService, cfg.PaginationLimit),
		reviews:       review.NewHandler(reviewService),
		subscriptions: subscription.NewHandler(subscriptionService),
	}

	mediaDir := ""
	if !cfg.UsesS3() {
		mediaDir = cfg.StorageLocalPath
	}
	r := newRouter(cfg.AllowedOrigins, h, middleware.Auth(jwtService), providerRepo, mediaDir)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type handlers struct {
	bookings      *booking.Handler
	services      *catalog.Handler
	reviews       *review.Handler
	subscriptions *subscription.Handler
}

// newRouter mounts the admin and provider APIs. Local media is served from
// mediaDir when it is set.
func newRouter(origins []string, h handlers, authMiddleware func(http.Handler) http.Handler, providers provider.Repository, mediaDir string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(origins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	if mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin())

		r.Mount("/bookings", h.bookings.Routes())
		r.Mount("/services", h.services.AdminRoutes())
	})

	r.Route("/api/provider", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireProvider())
		r.Use(provider.Resolve(providers))

		r.Mount("/services", h.services.Routes(h.reviews.ListForService))
		r.Mount("/subscriptions", h.subscriptions.Routes())
	})

	return r
}
