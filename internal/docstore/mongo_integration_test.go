//go:build integration
// +build integration

package docstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMongoContainer starts a MongoDB container and returns its connection URI.
func startMongoContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestIntegration_MongoStore(t *testing.T) {
	ctx := context.Background()
	uri := startMongoContainer(t, ctx)

	runStoreSuite(t, func(t *testing.T) Store {
		t.Helper()
		// A database per subtest keeps the cases independent.
		s, err := Open(ctx, uri, Options{
			Database:       "test_" + uuid.NewString()[:8],
			ConnectTimeout: 30 * time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}
