package main

import (
	"context"
	"fmt"
	"io"

	"github.com/melbminds/studyhub/internal/app/bootstrap"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func runCleanup(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	db, disconnect, err := connect(ctx)
	if err != nil {
		return err
	}
	defer disconnect()

	return cleanupSessions(ctx, db, timezones.SystemClock{}, logger, cmd.OutOrStdout())
}

// cleanupSessions runs one pass and reports how many sessions it processed.
func cleanupSessions(ctx context.Context, db *mongo.Database, clock timezones.Clock, logger *zap.Logger, out io.Writer) error {
	ref, err := timezones.NewReference(timeZone, clock)
	if err != nil {
		return fmt.Errorf("time zone %q: %w", timeZone, err)
	}
	rec, err := bootstrap.NewReconciler(db, ref, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	n, err := rec.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile (processed %d before failing): %w", n, err)
	}
	if p := rec.Pending(); p > 0 {
		fmt.Fprintf(out, "warning: %d completed sessions could not be added to the counter\n", p)
	}
	fmt.Fprintf(out, "Processed %d past sessions\n", n)
	return nil
}
