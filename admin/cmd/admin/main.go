package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/crewlytics/attrition/admin/internal/admin"
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

	// Commands
	pgMigrateFlag := flag.Bool("pg-migrate", false, "Run PostgreSQL schema migrations using goose")
	pgMigrateDownFlag := flag.Bool("pg-migrate-down", false, "Roll back the last PostgreSQL migration")
	pgMigrateStatusFlag := flag.Bool("pg-migrate-status", false, "Show PostgreSQL migration status")
	resetDBFlag := flag.Bool("reset-db", false, "Remove all HR attrition data from the selected backends")
	targetFlag := flag.String("target", "both", "reset target: postgres, mongo or both")
	dryRunFlag := flag.Bool("dry-run", false, "Dry run mode - show what would be done without actually executing")
	yesFlag := flag.Bool("yes", false, "Skip confirmation prompt (use with caution)")

	flag.Parse()

	log := logger.New("admin", *verboseFlag)

	// Override flags with environment variables if set
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

	pgCfg := pg.ConnConfig{
		Host:     *pgHostFlag,
		Port:     *pgPortFlag,
		Database: *pgDatabaseFlag,
		Username: *pgUsernameFlag,
		Password: *pgPasswordFlag,
		SSLMode:  *pgSSLModeFlag,
	}
	mongoCfg := storemongo.ConnConfig{
		PrimaryURI: *mongoURIFlag,
		Database:   *mongoDatabaseFlag,
	}

	if *pgMigrateFlag {
		return admin.PgMigrateUp(log, pgCfg)
	}

	if *pgMigrateDownFlag {
		return admin.PgMigrateDown(log, pgCfg)
	}

	if *pgMigrateStatusFlag {
		return admin.PgMigrateStatus(log, pgCfg)
	}

	if *resetDBFlag {
		cfg := admin.ResetConfig{
			DryRun:      *dryRunFlag,
			SkipConfirm: *yesFlag,
		}
		switch *targetFlag {
		case "postgres":
			cfg.Postgres = &pgCfg
		case "mongo":
			cfg.Mongo = &mongoCfg
		case "both":
			cfg.Postgres = &pgCfg
			cfg.Mongo = &mongoCfg
		default:
			return fmt.Errorf("invalid --target %q: must be postgres, mongo or both", *targetFlag)
		}
		return admin.ResetDB(log, cfg)
	}

	flag.Usage()
	return nil
}
