package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lpernett/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/dispatch"
	"github.com/Lumora-Labs/lumora-go-router/handlers"
	"github.com/Lumora-Labs/lumora-go-router/history"
	"github.com/Lumora-Labs/lumora-go-router/router"
	"github.com/Lumora-Labs/lumora-go-router/session"
	"github.com/Lumora-Labs/lumora-go-router/utils"
)

// Load environment variables from .env before anything reads os.Getenv.
var dotenvErr = godotenv.Load()

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if dotenvErr != nil {
		logger.Warn("No .env file loaded", zap.Error(dotenvErr))
	}
	logger.Info("Starting lumora-router")

	store := buildSessionStore(logger)
	defer store.Close()

	var archive *history.Archive
	if path := os.Getenv("HISTORY_DB_PATH"); path != "" {
		archive, err = history.Open(path)
		if err != nil {
			logger.Fatal("Failed to open action history database", zap.Error(err))
		}
		defer archive.Close()
		logger.Info("Action history archive enabled", zap.String("path", path))
	}

	provider := utils.NewProviderClient()
	var fallback router.FallbackClassifier
	if provider != nil {
		fallback = provider
	}

	rt := router.New(store, fallback, archive)
	dispatcher := dispatch.New(provider)

	http.HandleFunc("/", handlers.IndexHandler)
	http.HandleFunc("/healthz", handlers.HealthCheckHandler)
	http.HandleFunc("/classify", handlers.ClassifyHandler(rt))
	http.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		handlers.HandleChatSession(w, r, rt, dispatcher)
	})

	// Set up signal handling
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverExit := make(chan struct{})

	go func() {
		defer close(serverExit)
		port := ":" + os.Getenv("PORT")
		if port == ":" {
			port = ":8080"
		}
		logger.Info("Starting server", zap.String("port", port))
		if err := http.ListenAndServe(port, nil); err != nil {
			logger.Error("Server stopped", zap.Error(err))
		}
	}()

	select {
	case <-stop:
		logger.Info("Shutting down server...")
	case <-serverExit:
		logger.Info("Server exited unexpectedly...")
	}

	logger.Info("Server shut down gracefully")
}

// buildSessionStore picks the backend from SESSION_BACKEND: redis for a
// shared deployment, otherwise the in-memory store with its sweeper.
func buildSessionStore(logger *zap.Logger) session.Store {
	ttl := session.DefaultTTL
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Warn("Ignoring invalid SESSION_TTL", zap.String("value", v))
		} else {
			ttl = d
		}
	}

	if os.Getenv("SESSION_BACKEND") != "redis" {
		logger.Info("Using in-memory session store", zap.Duration("ttl", ttl))
		return session.NewMemoryStore(ttl, session.DefaultSweepInterval)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:        os.Getenv("REDIS_HOST"),
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          0,
		DialTimeout: 20 * time.Second, // initial connection timeout
	})

	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelRedis()

	if _, err := redisClient.Ping(redisCtx).Result(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Successfully connected to Redis")
	return session.NewRedisStore(redisClient, ttl)
}
