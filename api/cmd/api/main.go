package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/crewlytics/attrition/api/metrics"
	"github.com/crewlytics/attrition/api/server"
	"github.com/crewlytics/attrition/store/dual"
	storemongo "github.com/crewlytics/attrition/store/mongo"
	"github.com/crewlytics/attrition/store/pg"
	"github.com/crewlytics/attrition/utils/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	listenFlag := flag.String("listen", ":8000", "HTTP listen address (or set API_LISTEN_ADDR env var)")
	corsOriginsFlag := flag.String("cors-origins", "*", "comma-separated allowed CORS origins")

	// PostgreSQL configuration
	pgHostFlag := flag.String("pg-host", "localhost", "PostgreSQL host (or set PG_HOST env var)")
	pgPortFlag := flag.String("pg-port", "5432", "PostgreSQL port (or set PG_PORT env var)")
	pgDatabaseFlag := flag.String("pg-database", "hr_attrition", "PostgreSQL database name (or set PG_DATABASE env var)")
	pgUsernameFlag := flag.String("pg-username", "postgres", "PostgreSQL username (or set PG_USERNAME env var)")
	pgPasswordFlag := flag.String("pg-password", "", "PostgreSQL password (or set PG_PASSWORD env var)")
	pgSSLModeFlag := flag.String("pg-sslmode", "disable", "PostgreSQL sslmode (or set PG_SSLMODE env var)")

	// MongoDB configuration
	mongoURIFlag := flag.String("mongo-uri", "", "MongoDB URI (or set MONGODB_URI env var); falls back to local mongod")
	mongoDatabaseFlag := flag.String("mongo-database", storemongo.DefaultDatabase, "MongoDB database name (or set MONGODB_DATABASE env var)")

	flag.Parse()

	log := logger.New("api", *verboseFlag)

	// Override flags with environment variables if set
	if env := os.Getenv("API_LISTEN_ADDR"); env != "" {
		*listenFlag = env
	}
	if env := os.Getenv("PG_HOST"); env != "" {
		*pgHostFlag = env
	}
	if env := os.Getenv("PG_PORT"); env != "" {
		*pgPortFlag = env
	}
	if env := os.Getenv("PG_DATABASE"); env != "" {
		*pgDatabaseFlag = env
	}
	if env := os.Getenv("PG_USERNAME"); env != "" {
		*pgUsernameFlag = env
	}
	if env := os.Getenv("PG_PASSWORD"); env != "" {
		*pgPasswordFlag = env
	}
	if env := os.Getenv("PG_SSLMODE"); env != "" {
		*pgSSLModeFlag = env
	}
	if env := os.Getenv("MONGODB_URI"); env != "" {
		*mongoURIFlag = env
	}
	if env := os.Getenv("MONGODB_DATABASE"); env != "" {
		*mongoDatabaseFlag = env
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: os.Getenv("SENTRY_ENVIRONMENT"),
			Release:     version,
		}); err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pg.ConnConfig{
		Host:     *pgHostFlag,
		Port:     *pgPortFlag,
		Database: *pgDatabaseFlag,
		Username: *pgUsernameFlag,
		Password: *pgPasswordFlag,
		SSLMode:  *pgSSLModeFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	client, err := storemongo.Connect(ctx, log, storemongo.ConnConfig{
		PrimaryURI: *mongoURIFlag,
		Database:   *mongoDatabaseFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	pgStore, err := pg.NewStore(pg.StoreConfig{Logger: log, Pool: pool})
	if err != nil {
		return fmt.Errorf("failed to create relational store: %w", err)
	}
	mongoStore, err := storemongo.NewStore(storemongo.StoreConfig{
		Logger: log,
		DB:     client.Database(*mongoDatabaseFlag),
	})
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure mongodb indexes: %w", err)
	}

	dualWriter, err := dual.NewWriter(dual.WriterConfig{
		Logger:     log,
		Relational: pgStore,
		Document:   mongoStore,
	})
	if err != nil {
		return fmt.Errorf("failed to create dual writer: %w", err)
	}

	srv, err := server.NewServer(&server.Config{
		Logger:         log,
		ListenAddr:     *listenFlag,
		Relational:     pgStore,
		Document:       mongoStore,
		Dual:           dualWriter,
		AllowedOrigins: strings.Split(*corsOriginsFlag, ","),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
