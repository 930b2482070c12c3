package metricsstore

import (
	"context"

	counterstore "github.com/melbminds/studyhub/internal/app/store/counters"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Summary is the set of platform-wide totals shown on the landing page.
type Summary struct {
	Users             int64 `json:"users"`
	Groups            int64 `json:"groups"`
	SessionsCompleted int64 `json:"sessions_completed"`
	Messages          int64 `json:"messages"`
	UpcomingSessions  int64 `json:"upcoming_sessions"`
}

// FetchSummary returns the platform totals. The counts run concurrently.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchSummary(ctx context.Context, db *mongo.Database, cutoff timezones.Cutoff) Summary {
	var out Summary
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int64, coll string, filter bson.M) {
		g.Go(func() error {
			if n, err := db.Collection(coll).CountDocuments(gctx, filter); err == nil {
				*dst = n
			}
			return nil
		})
	}

	count(&out.Users, "users", bson.M{})
	count(&out.Groups, "groups", bson.M{})
	count(&out.Messages, "messages", bson.M{})
	count(&out.UpcomingSessions, "study_sessions", sessionstore.FutureFilter(cutoff))

	g.Go(func() error {
		if n, err := counterstore.New(db).Get(gctx); err == nil {
			out.SessionsCompleted = n
		}
		return nil
	})

	_ = g.Wait()
	return out
}
