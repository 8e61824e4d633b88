package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLocalURI is the second rung of the connection fallback chain.
const DefaultLocalURI = "mongodb://localhost:27017/"

// DefaultDatabase is the database name both the loader and the API use.
const DefaultDatabase = "hr_attrition"

// ConnConfig makes the fallback chain an explicit configuration step:
// PrimaryURI is tried first, LocalFallbackURI second. An empty PrimaryURI
// skips straight to the fallback.
type ConnConfig struct {
	PrimaryURI       string
	LocalFallbackURI string
	Database         string
}

func (cfg *ConnConfig) Validate() error {
	if cfg.LocalFallbackURI == "" {
		cfg.LocalFallbackURI = DefaultLocalURI
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	return nil
}

// Connect resolves the fallback chain and returns a connected client. The
// client is a process-wide handle: callers construct it once at startup,
// inject it where needed, and disconnect on shutdown.
func Connect(ctx context.Context, log *slog.Logger, cfg ConnConfig) (*mongo.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var errs []error
	if cfg.PrimaryURI != "" {
		client, err := tryConnect(ctx, cfg.PrimaryURI, 10*time.Second)
		if err == nil {
			log.Info("connected to mongodb", "uri", "primary")
			return client, nil
		}
		log.Warn("primary mongodb connection failed, trying local fallback", "error", err)
		errs = append(errs, fmt.Errorf("primary: %w", err))
	}

	client, err := tryConnect(ctx, cfg.LocalFallbackURI, 3*time.Second)
	if err == nil {
		log.Info("connected to mongodb", "uri", "local fallback")
		return client, nil
	}
	errs = append(errs, fmt.Errorf("local fallback: %w", err))

	return nil, fmt.Errorf("mongodb connection failed: %w", errors.Join(errs...))
}

func tryConnect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}
