package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simally/relay/internal/config"
	"github.com/simally/relay/internal/events"
	"github.com/simally/relay/internal/relay"
	"github.com/simally/relay/internal/sessions"
	"github.com/simally/relay/internal/tavus"
	"github.com/simally/relay/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// AppState holds all application services
type AppState struct {
	Logger    *zap.Logger
	Config    *config.Config
	Telemetry *telemetry.Providers
	Recorder  *events.Recorder
	Service   *relay.Service
}

func runServe(ctx context.Context) error {
	config.Load(configPath)

	logger, err := initLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	// Refuse to start with missing provider credentials instead of failing on the first call.
	if err := config.Get().Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return err
	}

	as, err := newAppState(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize application state", zap.Error(err))
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := relay.NewRouter(as.Service, relay.RouterOptions{
		AllowOrigins:     config.Cors().AllowOrigins,
		AllowCredentials: config.Cors().AllowCredentials,
		MaxRequestSize:   config.Http().MaxRequestSize,
		Logger:           logger,
	})

	addr := config.Http().Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := setupSignalHandler(as, server, logger)

	logger.Info("Starting relay server",
		zap.String("address", addr),
		zap.String("provider", config.Tavus().BaseURL),
		zap.Bool("events_enabled", as.Recorder.Enabled()),
		zap.Bool("telemetry_enabled", config.Telemetry().Enabled))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		as.close(context.Background())
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-done
	logger.Info("Server shutdown complete")
	return nil
}

// newAppState creates and wires the application services
func newAppState(ctx context.Context, logger *zap.Logger) (*AppState, error) {
	cfg := config.Get()

	providers := telemetry.Noop("relay")
	if tc := config.Telemetry(); tc.Enabled {
		var err error
		providers, err = telemetry.Init(ctx, tc.ServiceName, version, tc.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		logger.Info("Telemetry enabled", zap.String("dir", tc.Dir))
	}

	var eventStore events.EventStore
	if ec := config.Events(); ec.Enabled {
		logger.Info("Event log configuration",
			zap.String("host", ec.Postgres.Host),
			zap.Int("port", ec.Postgres.Port),
			zap.String("database", ec.Postgres.Database),
			zap.String("user", ec.Postgres.User))

		store, err := events.OpenPostgres(ctx, ec.Postgres.DSN(), ec.Postgres.MaxOpenConnections)
		if err != nil {
			_ = providers.Shutdown(ctx)
			return nil, fmt.Errorf("failed to open event store: %w", err)
		}
		eventStore = store
	}
	recorder := events.NewRecorder(eventStore, logger)

	tc := config.Tavus()
	client, err := tavus.NewClient(
		tavus.Config{
			BaseURL: tc.BaseURL,
			APIKey:  tc.APIKey,
			Timeout: tc.Timeout,
		},
		tavus.WithLogger(logger),
		tavus.WithTracer(providers.Tracer),
		tavus.WithMeter(providers.Meter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	service, err := relay.NewService(
		client,
		sessions.NewInMemoryStore(),
		relay.NewConversationTemplate(cfg),
		relay.WithRecorder(recorder),
		relay.WithServiceLogger(logger),
		relay.WithServiceMeter(providers.Meter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay service: %w", err)
	}

	return &AppState{
		Logger:    logger,
		Config:    cfg,
		Telemetry: providers,
		Recorder:  recorder,
		Service:   service,
	}, nil
}

func (as *AppState) close(ctx context.Context) {
	if err := as.Recorder.Close(); err != nil {
		as.Logger.Error("Error closing event store", zap.Error(err))
	}
	if err := as.Telemetry.Shutdown(ctx); err != nil {
		as.Logger.Error("Error shutting down telemetry", zap.Error(err))
	}
}

func initLogger() (*zap.Logger, error) {
	logConfig := config.Logger()

	logger, err := telemetry.NewLogger(telemetry.LogOptions{
		Level:      logConfig.Level,
		Format:     logConfig.Format,
		File:       logConfig.File,
		MaxSizeMB:  logConfig.MaxSizeMB,
		MaxBackups: logConfig.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		as.close(ctx)

		done <- struct{}{}
	}()

	return done
}
