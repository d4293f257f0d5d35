// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/Clubhouse/internal/config"
	"github.com/codr1/Clubhouse/internal/scheduler"
)

// Config holds process settings that come from the environment rather than
// the application YAML. Empty values fall back to the YAML.
type Config struct {
	Port            string
	Environment     string
	ConfigPath      string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file in working directory")
	}

	return &Config{
		Port:            getEnv("PORT", ""),
		Environment:     getEnv("ENVIRONMENT", ""),
		ConfigPath:      getEnv("CONFIG_PATH", "config/app.yaml"),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// resolve fills the settings left empty in the environment from appCfg.
func (c *Config) resolve(appCfg *config.Config) {
	if c.Port == "" {
		c.Port = strconv.Itoa(appCfg.App.Port)
	}
	if c.Environment == "" {
		c.Environment = appCfg.App.Environment
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DefaultContextLogger = &log.Logger
	if environment == config.EnvironmentDevelopment {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	runtimeCfg := loadConfig()

	appCfg, err := config.Load(runtimeCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", runtimeCfg.ConfigPath, err)
	}
	runtimeCfg.resolve(appCfg)
	setupLogger(runtimeCfg.Environment)

	deps, err := buildDeps(ctx, appCfg)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	initHandlers(deps)
	if err := startScheduler(deps.database, appCfg); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	log.Info().
		Str("port", runtimeCfg.Port).
		Str("club", appCfg.App.Name).
		Str("environment", runtimeCfg.Environment).
		Msg("Starting server")
	return runServer(ctx, newServer(runtimeCfg, deps), runtimeCfg.ShutdownTimeout)
}

// runServer runs server until ctx is cancelled, then stops the scheduler and
// drains in-flight requests for at most shutdownTimeout.
func runServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")

		if err := scheduler.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop scheduler")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
