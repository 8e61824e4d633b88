package apitesting

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	storemongo "github.com/crewlytics/attrition/store/mongo"
)

// MongoConfig holds the MongoDB test container configuration.
type MongoConfig struct {
	Database       string
	ContainerImage string
}

// Mongo represents a MongoDB test container.
type Mongo struct {
	log       *slog.Logger
	cfg       *MongoConfig
	uri       string
	container *tcmongodb.MongoDBContainer
}

// URI returns the MongoDB connection string.
func (m *Mongo) URI() string {
	return m.uri
}

// Close terminates the MongoDB container.
func (m *Mongo) Close() {
	terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.container.Terminate(terminateCtx); err != nil {
		m.log.Error("failed to terminate MongoDB container", "error", err)
	}
}

func (cfg *MongoConfig) Validate() error {
	if cfg.Database == "" {
		cfg.Database = "hr_attrition_test"
	}
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "mongo:7"
	}
	return nil
}

// NewMongo starts a MongoDB testcontainer.
func NewMongo(ctx context.Context, log *slog.Logger, cfg *MongoConfig) (*Mongo, error) {
	if cfg == nil {
		cfg = &MongoConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate Mongo config: %w", err)
	}

	var container *tcmongodb.MongoDBContainer
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = tcmongodb.Run(ctx, cfg.ContainerImage)
		if err != nil {
			lastErr = err
			if isRetryableContainerStartErr(err) && attempt < 3 {
				time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("failed to start MongoDB container after retries: %w", lastErr)
		}
		break
	}

	if container == nil {
		return nil, fmt.Errorf("failed to start MongoDB container after retries: %w", lastErr)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get MongoDB connection string: %w", err)
	}

	return &Mongo{
		log:       log,
		cfg:       cfg,
		uri:       uri,
		container: container,
	}, nil
}

// NewTestMongoClient connects a driver client to the test container.
func NewTestMongoClient(t *testing.T, m *Mongo) *mongo.Client {
	ctx := t.Context()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	require.NoError(t, err, "failed to connect to MongoDB container")

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(pingCtx, nil), "failed to ping MongoDB container")

	t.Cleanup(func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	})

	return client
}

// NewTestMongoStore creates a document store bound to the test
// container with its collections indexed.
func NewTestMongoStore(t *testing.T, log *slog.Logger, m *Mongo, clock clockwork.Clock) *storemongo.Store {
	ctx := t.Context()
	client := NewTestMongoClient(t, m)

	store, err := storemongo.NewStore(storemongo.StoreConfig{
		Logger: log,
		DB:     client.Database(m.cfg.Database),
		Clock:  clock,
	})
	require.NoError(t, err, "failed to create document store")
	require.NoError(t, store.EnsureIndexes(ctx), "failed to ensure indexes")

	return store
}
