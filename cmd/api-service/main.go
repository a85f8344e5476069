package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/api/handler"
	"github.com/duaneandrea/digitalk-test/internal/api/router"
	"github.com/duaneandrea/digitalk-test/internal/config"
	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/duaneandrea/digitalk-test/internal/notify"
	"github.com/duaneandrea/digitalk-test/internal/storage/memory"
	"github.com/duaneandrea/digitalk-test/internal/storage/postgres"
	"github.com/duaneandrea/digitalk-test/shared/logger"
	"github.com/duaneandrea/digitalk-test/shared/postgresql"
	"github.com/duaneandrea/digitalk-test/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// backend bundles the store side of the engine
type backend struct {
	jobs        engine.JobStore
	distances   engine.DistanceStore
	users       engine.UserDirectory
	healthCheck func(ctx context.Context) error
	close       func() error
}

// publisher is the notifier side; close drains in-flight events
type publisher struct {
	notifier engine.Notifier
	close    func(ctx context.Context) error
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("notify", cfg.Notify.Driver),
	)

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.close()

	pub, err := initNotifier(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	eng := engine.NewEngine(&engine.Config{
		Logger:          appLogger.Logger,
		Store:           store.jobs,
		Users:           store.users,
		Notifier:        pub.notifier,
		Location:        loc,
		HistoryPageSize: cfg.Booking.HistoryPageSize,
	})
	tracker := engine.NewDistanceTracker(appLogger.Logger, store.jobs, store.distances, nil)

	r := initRouter(cfg, &handler.Dependencies{
		Logger:  appLogger.Logger,
		Engine:  eng,
		Tracker: tracker,
		Users:   store.users,
	}, store.healthCheck)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running", slog.String("address", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		return err
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
		return err
	}

	if err := pub.close(ctx); err != nil {
		appLogger.Warn("Pending lifecycle events were dropped", slog.Any("error", err))
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig, service string) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   cfg.TimeFormat,
		Service:      service,
	})
}

func initStorage(cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStorage()
		for _, u := range cfg.Storage.Users {
			store.PutUser(&domain.User{
				ID:          u.ID,
				Role:        domain.Role(u.Role),
				Name:        u.Name,
				Email:       u.Email,
				Phone:       u.Phone,
				LanguageIDs: u.LanguageIDs,
			})
		}
		logger.Warn("Using in-memory storage, data is lost on restart",
			slog.Int("seeded_users", len(cfg.Storage.Users)),
		)
		return &backend{
			jobs:      store,
			distances: store,
			users:     store,
			close:     func() error { return nil },
		}, nil
	}

	dbClient, err := initPostgreSQL(&cfg.Database, cfg.App.Name, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(dbClient.GetDB()); err != nil {
			dbClient.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	store := postgres.NewStorage(dbClient.GetDB(), logger)
	return &backend{
		jobs:        store,
		distances:   store,
		users:       store,
		healthCheck: dbClient.HealthCheck,
		close:       dbClient.Close,
	}, nil
}

func initNotifier(cfg *config.Config, logger *slog.Logger) (*publisher, error) {
	if cfg.Notify.Driver == config.NotifyDriverLog {
		return &publisher{
			notifier: notify.NewLogNotifier(logger),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, logger)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewBrokerNotifier(rabbitClient, logger, cfg.RabbitMQ.Publish.Timeout)
	return &publisher{
		notifier: notifier,
		close: func(ctx context.Context) error {
			defer rabbitClient.Close()
			return notifier.Close(ctx)
		},
	}, nil
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, appName string, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		ApplicationName: appName,
		ConnectTimeout:  cfg.ConnectTimeout,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		BindingKey:         cfg.BindingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies, healthCheck func(ctx context.Context) error) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps, router.Options{
		ServiceName:      cfg.App.Name,
		HealthCheck:      healthCheck,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:   cfg.RateLimit.Burst,
	})
}
