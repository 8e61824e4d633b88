package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/crewlytics/attrition/api/metrics"
	"github.com/crewlytics/attrition/loader/pkg/load"
	storemongo "github.com/crewlytics/attrition/store/mongo"
	"github.com/crewlytics/attrition/store/pg"
	"github.com/crewlytics/attrition/utils/pkg/logger"
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
	csvFlag := flag.String("csv", "", "path to the HR employee attrition CSV file (required)")
	targetFlag := flag.String("target", "both", "load target: postgres, mongo or both")
	migrateFlag := flag.Bool("migrate", false, "run PostgreSQL migrations before loading")

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

	log := logger.New("loader", *verboseFlag)

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

	if *csvFlag == "" {
		return fmt.Errorf("--csv is required")
	}

	loadPG := *targetFlag == "postgres" || *targetFlag == "both"
	loadMongo := *targetFlag == "mongo" || *targetFlag == "both"
	if !loadPG && !loadMongo {
		return fmt.Errorf("invalid --target %q: must be postgres, mongo or both", *targetFlag)
	}

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)

	if loadPG {
		pgCfg := pg.ConnConfig{
			Host:     *pgHostFlag,
			Port:     *pgPortFlag,
			Database: *pgDatabaseFlag,
			Username: *pgUsernameFlag,
			Password: *pgPasswordFlag,
			SSLMode:  *pgSSLModeFlag,
		}
		if *migrateFlag {
			if err := pgCfg.Validate(); err != nil {
				return err
			}
			if err := pg.Migrate(pgCfg.ConnString()); err != nil {
				return fmt.Errorf("failed to migrate postgres: %w", err)
			}
		}

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()

		store, err := pg.NewStore(pg.StoreConfig{Logger: log, Pool: pool})
		if err != nil {
			return fmt.Errorf("failed to create relational store: %w", err)
		}

		g.Go(func() error {
			start := time.Now()
			result, err := load.Postgres(ctx, load.PostgresConfig{
				Logger:  log,
				Store:   store,
				CSVPath: *csvFlag,
			})
			metrics.RecordLoadRun("postgres", time.Since(start), result.Employees, len(result.Skipped), err)
			if err != nil {
				return fmt.Errorf("postgres load failed: %w", err)
			}
			log.Info("postgres load complete",
				"run_id", result.RunID,
				"departments", result.Departments,
				"job_roles", result.JobRoles,
				"employees", result.Employees,
				"skipped", len(result.Skipped),
				"audit_failures", result.AuditFailures,
				"duration", time.Since(start))
			return nil
		})
	}

	if loadMongo {
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

		store, err := storemongo.NewStore(storemongo.StoreConfig{
			Logger: log,
			DB:     client.Database(*mongoDatabaseFlag),
		})
		if err != nil {
			return fmt.Errorf("failed to create document store: %w", err)
		}

		g.Go(func() error {
			start := time.Now()
			result, err := load.Mongo(ctx, load.MongoConfig{
				Logger:  log,
				Store:   store,
				CSVPath: *csvFlag,
			})
			metrics.RecordLoadRun("mongo", time.Since(start), result.Employees, len(result.Skipped), err)
			if err != nil {
				return fmt.Errorf("mongo load failed: %w", err)
			}
			log.Info("mongo load complete",
				"run_id", result.RunID,
				"departments", result.Departments,
				"job_roles", result.JobRoles,
				"employees", result.Employees,
				"skipped", len(result.Skipped),
				"audit_failures", result.AuditFailures,
				"duration", time.Since(start))
			return nil
		})
	}

	return g.Wait()
}
