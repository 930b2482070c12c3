package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// --- Global flags ---
var (
	mongoURI      string
	mongoDatabase string
	timeZone      string
	verbose       bool

	rootCmd = &cobra.Command{
		Use:           "studyhubctl",
		Short:         "Operator tools for StudyHub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Run one reconciliation pass: credit and remove every ended study session",
		RunE:  runCleanup, // cmd_cleanup.go
	}

	counterCmd = &cobra.Command{
		Use:   "counter",
		Short: "Print the completed-session counter",
		RunE:  runCounter, // cmd_counter.go
	}

	keygenBytes int
	keygenCmd   = &cobra.Command{
		Use:   "keygen",
		Short: "Print a random session signing key",
		RunE:  runKeygen, // cmd_keygen.go
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&mongoURI, "mongo-uri", envOr("STUDYHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&mongoDatabase, "mongo-database", envOr("STUDYHUB_MONGO_DATABASE", "studyhub"), "MongoDB database name")
	pf.StringVar(&timeZone, "time-zone", envOr("STUDYHUB_TIME_ZONE", "Australia/Melbourne"), "Reference time zone for session dates")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	keygenCmd.Flags().IntVar(&keygenBytes, "bytes", 32, "Key length in bytes")

	rootCmd.AddCommand(cleanupCmd, counterCmd, keygenCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// connect opens the configured database. The returned func disconnects.
func connect(ctx context.Context) (*mongo.Database, func(), error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(mongoURI).SetAppName("studyhubctl"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", mongoURI, err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping %s: %w", mongoURI, err)
	}
	return client.Database(mongoDatabase), func() { _ = client.Disconnect(context.Background()) }, nil
}
