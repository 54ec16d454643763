package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_food/internal/assets"
	"github.com/fjod/go_food/internal/cache"
	h "github.com/fjod/go_food/internal/http"
	"github.com/fjod/go_food/internal/reconciler"
	"github.com/fjod/go_food/internal/repository"
	"github.com/fjod/go_food/internal/service"
)

type Config struct {
	HTTPPort          string
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	MigrationsDirPath string
	RedisAddr         string
	UploadDir         string
	CacheTTL          time.Duration
	SweepHour         int
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "food"),
		MigrationsDirPath: getEnv("MIGRATIONS_DIR", "./migrations"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		CacheTTL:          time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		SweepHour:         getEnvInt("SWEEP_HOUR", 3),
		RequestTimeout:    30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := loadConfig()

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	responseCache := cache.NewRedisCache(redisClient)

	fileStore, err := assets.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to prepare upload dir: %v", err)
	}

	menuService := service.NewMenuService(repo, responseCache, fileStore)
	orderService := service.NewOrderService(repo)

	menuHandler := h.NewMenuHandler(menuService, cfg.RequestTimeout)
	orderHandler := h.NewOrderHandler(orderService, cfg.RequestTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := reconciler.New(repo, fileStore, cfg.SweepHour)
	go sweeper.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/foods", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.ResponseCache(responseCache, cfg.CacheTTL))
				r.Get("/", menuHandler.List)
				r.Get("/{id}", menuHandler.Get)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/", menuHandler.Create)
				r.Put("/{id}", menuHandler.Update)
				r.Delete("/{id}", menuHandler.Delete)
			})
		})
		r.Route("/orders", func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Post("/", orderHandler.Create)
			r.Get("/", orderHandler.List)
		})
	})

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(fileStore.Root())))
	r.Get("/uploads/*", uploads.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel() // stop the reconciler

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
