package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoCtxTimeout              = 10 * time.Second
	mongoContainerStartupTimeout = 60 * time.Second
	mongoPingTimeout             = 2 * time.Second
	mongoPingRetryDelay          = 500 * time.Millisecond
	mongoPingRetries             = 5
	maxDBNameLength              = 40
)

var (
	mongoContainerOnce sync.Once
	mongoContainerURI  string
	errMongoContainer  error
)

// sharedMongoURI starts one mongo:8 container per test binary and returns its URI.
func sharedMongoURI(ctx context.Context) (string, error) {
	mongoContainerOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "mongo:8",
			ExposedPorts: []string{"27017/tcp"},
			Env: map[string]string{
				"MONGO_INITDB_ROOT_USERNAME": "admin",
				"MONGO_INITDB_ROOT_PASSWORD": "admin123",
			},
			WaitingFor: wait.ForLog("Waiting for connections").WithStartupTimeout(mongoContainerStartupTimeout),
		}

		cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			errMongoContainer = fmt.Errorf("failed to start MongoDB container: %w", err)
			return
		}

		host, err := cont.Host(ctx)
		if err != nil {
			errMongoContainer = fmt.Errorf("failed to get container host: %w", err)
			return
		}
		port, err := cont.MappedPort(ctx, "27017")
		if err != nil {
			errMongoContainer = fmt.Errorf("failed to get container port: %w", err)
			return
		}

		mongoContainerURI = fmt.Sprintf("mongodb://admin:admin123@%s", net.JoinHostPort(host, port.Port()))
	})

	return mongoContainerURI, errMongoContainer
}

// SetupTestMongoDB returns an isolated database in the shared MongoDB container.
// The database is dropped when the test ends. Skipped with -short.
func SetupTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	SkipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), mongoContainerStartupTimeout)
	defer cancel()

	uri, err := sharedMongoURI(ctx)
	if err != nil {
		t.Fatalf("Failed to get shared MongoDB container: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	for i := range mongoPingRetries {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), mongoPingTimeout)
		err = client.Ping(pingCtx, nil)
		pingCancel()
		if err == nil {
			break
		}
		if i < mongoPingRetries-1 {
			time.Sleep(mongoPingRetryDelay)
		}
	}
	if err != nil {
		t.Fatalf("Failed to ping MongoDB after %d retries: %v", mongoPingRetries, err)
	}

	db := client.Database(testDBName(t.Name()))

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), mongoCtxTimeout)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return db
}

// testDBName derives a valid database name from a test name. MongoDB limits
// names to 63 bytes and forbids '/', so long names are hashed.
func testDBName(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(testName)
	if len(name) > maxDBNameLength {
		hash := sha256.Sum256([]byte(testName))
		name = name[:20] + "_" + hex.EncodeToString(hash[:])[:12]
	}
	return "commons_test_" + name
}

// SkipIfShort skips integration tests under go test -short.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// MongoEndpoint returns the shared container's URI and a per-test database
// name for code that opens its own client. The database is dropped when the
// test ends.
func MongoEndpoint(t *testing.T) (string, string) {
	t.Helper()
	db := SetupTestMongoDB(t)
	return mongoContainerURI, db.Name()
}
