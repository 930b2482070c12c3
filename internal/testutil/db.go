package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/melbminds/studyhub/internal/app/system/indexes"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv names an existing server to test against instead of starting
// a container.
const MongoURIEnv = "STUDYHUB_TEST_MONGO_URI"

// mongoImage is a single-node replica set so transactions are available.
const mongoImage = "mongo:7"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// TestContext returns a context with a timeout suitable for a single test.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB returns a fresh, indexed database for the test and drops it on
// cleanup. The server comes from STUDYHUB_TEST_MONGO_URI or, failing that, a
// shared testcontainers MongoDB. The test is skipped when neither is
// available or when running with -short.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB test in -short mode")
	}

	if os.Getenv(MongoURIEnv) == "" {
		skipUnlessDocker(t)
	}
	clientOnce.Do(func() { client, clientErr = guard(connect) })
	if clientErr != nil {
		t.Skipf("MongoDB unavailable: %v", clientErr)
	}

	db := client.Database(fmt.Sprintf("studyhub_test_%s", primitive.NewObjectID().Hex()))

	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

// skipUnlessDocker skips the test when no healthy container provider is
// reachable. Provider discovery panics when no Docker host can be found.
func skipUnlessDocker(t *testing.T) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Docker unavailable: %v", r)
		}
	}()
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// guard turns a panic in fn into an error.
func guard(fn func() (*mongo.Client, error)) (cl *mongo.Client, err error) {
	defer func() {
		if r := recover(); r != nil {
			cl, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func connect() (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := options.Client()
	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		c, err := mongodb.Run(ctx, mongoImage, mongodb.WithReplicaSet("rs0"))
		if err != nil {
			return nil, fmt.Errorf("start mongo container: %w", err)
		}
		// The container lives for the whole test binary; Ryuk reaps it.
		uri, err = c.ConnectionString(ctx)
		if err != nil {
			return nil, fmt.Errorf("connection string: %w", err)
		}
		// The replica set advertises the container's internal hostname.
		opts.SetDirect(true)
	}

	cl, err := mongo.Connect(ctx, opts.ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := cl.Ping(ctx, nil); err != nil {
		_ = cl.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}
	return cl, nil
}
