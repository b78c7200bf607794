package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/auth"
	"github.com/formloom/formloom/internal/config"
	"github.com/formloom/formloom/internal/database"
	"github.com/formloom/formloom/internal/events"
	"github.com/formloom/formloom/internal/form"
	"github.com/formloom/formloom/internal/httpx"
	"github.com/formloom/formloom/internal/importer"
	"github.com/formloom/formloom/internal/logging"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/internal/ratelimit"
	"github.com/formloom/formloom/internal/response"
	"github.com/formloom/formloom/internal/upload"
)

func main() {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	db, err := database.Connect(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&auth.User{},
		&auth.Workspace{},
		&auth.Session{},
		&form.Form{},
		&response.Response{},
	); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer publisher.Close()

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedis(client, cfg.RateLimit, cfg.RateWindow)
		log.Info("rate limiting via redis", zap.String("addr", cfg.RedisAddr))
	} else {
		memory := ratelimit.NewMemory(cfg.RateLimit, cfg.RateWindow)
		defer memory.Close()
		limiter = memory
	}

	uploads, err := upload.NewStore(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		log.Fatal("upload store init failed", zap.Error(err))
	}

	authRepo := auth.NewGormRepository(db)
	formRepo := form.NewGormRepository(db)
	responseRepo := response.NewGormRepository(db)
	importStore := importer.NewGormStore(db)

	collector := response.NewCollector(formRepo, responseRepo, publisher)

	authHandler := auth.NewHandler(authRepo, cfg.IsProduction(), log)
	formHandler := form.NewHandler(formRepo, responseRepo, publisher, log)
	responseHandler := response.NewHandler(collector, responseRepo, formRepo, uploads, log)
	importHandler := importer.NewHandler(importStore, log)
	uploadHandler := upload.NewHandler(uploads, log)

	session := auth.Require(authRepo)
	limit := func(prefix string) func(http.Handler) http.Handler {
		return ratelimit.Middleware(limiter, prefix, log)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(observability.Middleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	router.Handle("/metrics", observability.MetricsHandler())

	router.Group(func(r chi.Router) {
		r.Use(limit("auth"))
		authHandler.Mount(r, "/auth")
	})

	router.Route("/forms", func(r chi.Router) {
		r.With(limit("forms-public")).Get("/public/{slug}", formHandler.PublicGetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(session)
			formHandler.Mount(r)
			importHandler.Mount(r)
		})
	})

	router.Route("/responses", func(r chi.Router) {
		r.With(limit("responses")).Post("/", responseHandler.SubmitPublic)

		r.Group(func(r chi.Router) {
			r.Use(session)
			responseHandler.Mount(r)
		})
	})

	router.With(limit("upload")).Post("/upload", uploadHandler.Upload)
	router.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(uploads.Dir()))))

	server := httpx.NewServer(":"+cfg.HTTPPort, router)

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.Env))
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
