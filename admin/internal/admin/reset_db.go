package admin

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	storemongo "github.com/crewlytics/attrition/store/mongo"
	"github.com/crewlytics/attrition/store/pg"
)

// ResetConfig selects which backends a reset touches.
type ResetConfig struct {
	Postgres *pg.ConnConfig
	Mongo    *storemongo.ConnConfig

	DryRun      bool
	SkipConfirm bool
}

// hrTables are the relational tables a reset truncates, in a safe order.
var hrTables = []string{"attrition_log", "employees", "job_roles", "departments"}

// hrCollections are the document collections a reset drops.
var hrCollections = []string{
	storemongo.CollAttritionLog,
	storemongo.CollEmployees,
	storemongo.CollJobRoles,
	storemongo.CollDepartments,
}

// ResetDB empties the HR attrition data from the selected backends.
// Relational tables are truncated with identity restart; document
// collections are dropped. The loader re-creates everything on the next
// run.
func ResetDB(log *slog.Logger, cfg ResetConfig) error {
	ctx := context.Background()

	if cfg.Postgres == nil && cfg.Mongo == nil {
		return fmt.Errorf("no backend selected for reset")
	}
	if cfg.Postgres != nil {
		if err := cfg.Postgres.Validate(); err != nil {
			return err
		}
	}
	if cfg.Mongo != nil {
		if err := cfg.Mongo.Validate(); err != nil {
			return err
		}
	}

	fmt.Println("⚠️  WARNING: This will remove ALL HR attrition data from the selected backends:")
	if cfg.Postgres != nil {
		fmt.Printf("\nPostgreSQL (%s/%s), tables truncated:\n", cfg.Postgres.Host, cfg.Postgres.Database)
		for _, table := range hrTables {
			fmt.Printf("  - %s\n", table)
		}
	}
	if cfg.Mongo != nil {
		fmt.Printf("\nMongoDB (database %s), collections dropped:\n", cfg.Mongo.Database)
		for _, coll := range hrCollections {
			fmt.Printf("  - %s\n", coll)
		}
	}

	if cfg.DryRun {
		fmt.Println("\n[DRY RUN] Would reset the above backends")
		return nil
	}

	if !cfg.SkipConfirm {
		fmt.Printf("\n⚠️  This is a DESTRUCTIVE operation that cannot be undone!\n")
		fmt.Printf("Type 'yes' to confirm: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "yes" {
			fmt.Printf("\nConfirmation failed. Operation cancelled.\n")
			return nil
		}
		fmt.Println()
	}

	if cfg.Postgres != nil {
		if err := resetPostgres(ctx, log, *cfg.Postgres); err != nil {
			return err
		}
		fmt.Println("  ✓ PostgreSQL reset")
	}

	if cfg.Mongo != nil {
		if err := resetMongo(ctx, log, *cfg.Mongo); err != nil {
			return err
		}
		fmt.Println("  ✓ MongoDB reset")
	}

	fmt.Println("\nReset complete")
	return nil
}

func resetPostgres(ctx context.Context, log *slog.Logger, cfg pg.ConnConfig) error {
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	store, err := pg.NewStore(pg.StoreConfig{Logger: log, Pool: pool})
	if err != nil {
		return err
	}
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset postgres: %w", err)
	}
	return nil
}

func resetMongo(ctx context.Context, log *slog.Logger, cfg storemongo.ConnConfig) error {
	client, err := storemongo.Connect(ctx, log, cfg)
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
		DB:     client.Database(cfg.Database),
	})
	if err != nil {
		return err
	}
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset mongodb: %w", err)
	}
	return nil
}
