package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "task-manager.com/task-manager/internal/configs"
	httpapi "task-manager.com/task-manager/internal/http"
	"task-manager.com/task-manager/internal/limiter"
	repository "task-manager.com/task-manager/internal/repositories"
	"task-manager.com/task-manager/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the workspace task HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		database := config.NewDatabaseClient(cfg.DatabaseDSN, cfg.DatabaseLogLevel)
		if err := config.Migrate(database); err != nil {
			return err
		}

		readDatabase := database
		if cfg.ReadDSN() != cfg.DatabaseDSN {
			log.Printf("routing task queries to %s", cfg.ReadDSN())
			readDatabase = config.NewDatabaseClient(cfg.ReadDSN(), cfg.DatabaseLogLevel)
		}

		transition, err := services.NewTransitionPolicy(cfg.TransitionPolicy)
		if err != nil {
			return err
		}

		rateLimiter, closeLimiter, err := newRateLimiter(cfg)
		if err != nil {
			return err
		}
		defer closeLimiter()

		users := repository.NewUserRepository(database)
		workspaces := repository.NewWorkspaceRepository(database)
		guard := services.NewGuard(repository.NewMembershipRepository(database))

		taskService := services.NewTaskService(
			repository.NewTaskRepository(database),
			users,
			workspaces,
			repository.NewTagRepository(database),
			guard,
			transition,
		)
		queryService := services.NewTaskQueryService(
			repository.NewTaskRepository(readDatabase),
			users,
			workspaces,
			guard,
		)

		e := echo.New()
		e.HideBanner = true
		httpapi.Register(e, httpapi.NewHandler(taskService, queryService), rateLimiter)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}

		log.Println("HTTP server shut down gracefully")
		return nil
	},
}

// newRateLimiter builds the configured limiter and the cleanup for whatever
// client it holds.
func newRateLimiter(cfg config.Config) (limiter.Limiter, func(), error) {
	if cfg.RateLimitBackend == "redis" {
		client := config.NewRedisClient(cfg.RedisAddr)
		l, err := limiter.NewRedisLimiter(client, cfg.RedisRateLimitPrefix, cfg.RateLimit, time.Minute)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return l, client.Close, nil
	}

	l, err := limiter.NewMemoryLimiter(cfg.RateLimit, time.Minute)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
