package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/emailpilot/emailpilot/internal/api"
	"github.com/emailpilot/emailpilot/internal/config"
	"github.com/emailpilot/emailpilot/internal/generator"
	"github.com/emailpilot/emailpilot/internal/pkg/distlock"
	"github.com/emailpilot/emailpilot/internal/pkg/logger"
	"github.com/emailpilot/emailpilot/internal/planner"
	"github.com/emailpilot/emailpilot/internal/repository/postgres"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

// checkPortAvailable verifies that the target port is not already in use
// before services start, so a stale process fails fast with a clear hint.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func buildGenerator(cfg config.GeneratorConfig) (generator.Generator, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return generator.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, timeout), nil
	case "bedrock":
		if cfg.AWSRegion != "" {
			os.Setenv("AWS_REGION", cfg.AWSRegion)
		}
		return generator.NewBedrockGenerator(context.Background(), cfg.BedrockModel)
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Preflight failed: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database at %s: %v", extractHost(cfg.Database.URL), err)
	}
	logger.Info("connected to database", "host", extractHost(cfg.Database.URL))

	var lockFactory distlock.Factory
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		cancel()
		// Lock TTL must outlast the longest generation run.
		lockFactory = distlock.NewRedisFactory(redisClient,
			time.Duration(cfg.Generator.TimeoutSeconds*cfg.Generator.MaxAttempts)*time.Second+time.Minute)
		logger.Info("draft locking enabled", "redis", cfg.Redis.Addr)
	} else {
		logger.Warn("redis not configured, draft generation is not serialized across instances")
	}

	gen, err := buildGenerator(cfg.Generator)
	if err != nil {
		log.Fatalf("Failed to build generator: %v", err)
	}
	drafter := generator.NewRetrier(gen, cfg.Generator.MaxAttempts)

	allocator, err := planner.NewAllocator(cfg.Planner.ShareTables)
	if err != nil {
		log.Fatalf("Invalid planner share tables: %v", err)
	}

	repo := postgres.NewPlanRepo(db)
	planSvc := plan.NewService(repo, drafter, allocator, lockFactory)
	server := api.NewServer(api.NewHandlers(planSvc), cfg.Server.AllowedOrigins)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("server starting", "addr", addr, "provider", cfg.Generator.Provider)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err.Error())
	}
	logger.Info("server stopped")
}
