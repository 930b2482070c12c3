package main

import (
	"context"
	"fmt"
	"io"

	counterstore "github.com/melbminds/studyhub/internal/app/store/counters"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

func runCounter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, disconnect, err := connect(ctx)
	if err != nil {
		return err
	}
	defer disconnect()

	return printCounter(ctx, db, cmd.OutOrStdout())
}

func printCounter(ctx context.Context, db *mongo.Database, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	n, err := counterstore.New(db).Get(ctx)
	if err != nil {
		return fmt.Errorf("read counter: %w", err)
	}
	fmt.Fprintln(out, n)
	return nil
}
