//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*SubmissionStore, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &Config{
		Pool: &PoolConfig{
			ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		},
		AutoMigrate: true,
	}

	s, err := NewSubmissionStore(ctx, cfg, clockwork.NewRealClock())
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Stop()
		_ = container.Terminate(ctx)
	}

	return s, cleanup
}

func TestIntegration_SubmissionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("latest on empty store", func(t *testing.T) {
		_, err := s.Latest(ctx)
		require.ErrorIs(t, err, store.ErrNoSubmissions)
	})

	t.Run("save and read back", func(t *testing.T) {
		saved, err := s.Save(ctx, store.Submission{
			State: "CA", Year: 2030, Trees: 100, Miles: 10000, Electricity: 1000, GHG: 2850.1,
		})
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)
		require.False(t, saved.CreatedAt.IsZero())

		latest, err := s.Latest(ctx)
		require.NoError(t, err)
		require.Equal(t, saved.ID, latest.ID)
		require.Equal(t, 2030, latest.Year)
		require.InDelta(t, 2850.1, latest.GHG, 1e-9)
	})

	t.Run("latest wins", func(t *testing.T) {
		second, err := s.Save(ctx, store.Submission{State: "CA", Year: 2031, GHG: 2700})
		require.NoError(t, err)

		latest, err := s.Latest(ctx)
		require.NoError(t, err)
		require.Equal(t, second.ID, latest.ID)
	})

	t.Run("list newest first", func(t *testing.T) {
		subs, err := s.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		require.Equal(t, 2031, subs[0].Year)
		require.Equal(t, 2030, subs[1].Year)

		limited, err := s.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		require.Equal(t, 2031, limited[0].Year)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, runMigrations(ctx, s.pool))
	})
}
