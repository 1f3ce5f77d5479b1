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
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/furever-community/backend/internal/auth"
	"github.com/furever-community/backend/internal/config"
	"github.com/furever-community/backend/internal/events"
	"github.com/furever-community/backend/internal/middleware"
	"github.com/furever-community/backend/internal/shelters"
	"github.com/furever-community/backend/internal/store"
	"github.com/furever-community/backend/internal/web"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)
	ctx := context.Background()

	// ── PostgreSQL (users) ───────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("postgres migrate")
	}

	// ── MongoDB (events, shelters) ───────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connect")
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("mongo indexes")
	}

	// ── Redis (shelter cache) ────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer rdb.Close()
	shelterCache := shelters.NewCache(rdb, cfg.ShelterCacheTTL)

	// ── MinIO (event images) ─────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("minio connect")
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(pgStore, tokens)
	eventHandler := events.NewHandler(mongoStore, pgStore, minioStore)
	shelterHandler := shelters.NewHandler(mongoStore, shelterCache)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(middleware.RequestLogging(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := middleware.RequireAuth(tokens)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", authHandler.Profile)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Put("/change-password", authHandler.ChangePassword)
			r.Delete("/delete-account", authHandler.DeleteAccount)
		})
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{id}", eventHandler.Get)
		r.Get("/{id}/image", eventHandler.GetImage)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", eventHandler.Create)
			r.Put("/{id}", eventHandler.Update)
			r.Delete("/{id}", eventHandler.Delete)
			r.Post("/{id}/image", eventHandler.UploadImage)
		})
	})

	r.Route("/api/shelters", func(r chi.Router) {
		r.Get("/", shelterHandler.List)
		r.Get("/nearby", shelterHandler.Nearby)
		r.Get("/{id}", shelterHandler.Get)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.Message(w, http.StatusNotFound, "Route not found")
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
