// Package integration runs the stats stack against real PostgreSQL and Redis
// instances started with testcontainers.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/erp/orderstats/internal/infrastructure/cache"
	"github.com/erp/orderstats/internal/infrastructure/config"
	"github.com/erp/orderstats/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB is a PostgreSQL container with a migrated customer schema.
type TestDB struct {
	Database  *persistence.Database
	Repo      *persistence.CustomerRepository
	Config    config.DatabaseConfig
	Container testcontainers.Container
}

// NewTestDB starts a fresh PostgreSQL container for one test.
// The container is terminated on test cleanup.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("orderstats_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:       "postgres",
		Host:         host,
		Port:         port.Int(),
		User:         "postgres",
		Password:     "admin123",
		DBName:       "orderstats_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	db, err := persistence.NewDatabase(&cfg, nil)
	require.NoError(t, err, "Failed to connect to database")
	t.Cleanup(func() { _ = db.Close() })

	repo := persistence.NewCustomerRepository(db.DB)
	require.NoError(t, repo.AutoMigrate(ctx), "Failed to migrate schema")

	return &TestDB{
		Database:  db,
		Repo:      repo,
		Config:    cfg,
		Container: container,
	}
}

// CleanTables removes every stored customer.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	require.NoError(t, tdb.Repo.DeleteAll(context.Background()))
}

// NewTestRedis starts a Redis container and returns its connection settings.
func NewTestRedis(t *testing.T) config.RedisConfig {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{
		Enabled: true,
		Host:    host,
		Port:    port.Int(),
	}
}

// NewTestStore creates a summary store on a fresh Redis container.
func NewTestStore(t *testing.T) cache.Store {
	t.Helper()

	store, err := cache.NewStoreFactory(NewTestRedis(t), cache.WithInMemoryFallback(false)).CreateStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
