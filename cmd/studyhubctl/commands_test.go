package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestWriteKey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeKey(&buf, 32))

	key, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(buf.String()))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	buf.Reset()
	require.NoError(t, writeKey(&buf, 64))
	assert.NotEqual(t, string(key), buf.String())
}

func TestWriteKey_TooShort(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeKey(&buf, 16))
	assert.Empty(t, buf.String())
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"cleanup-sessions", "counter", "keygen"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("STUDYHUB_CTL_TEST", "from-env")
	assert.Equal(t, "from-env", envOr("STUDYHUB_CTL_TEST", "default"))
	assert.Equal(t, "default", envOr("STUDYHUB_CTL_UNSET", "default"))
}

func TestCleanupSessionsAndCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	prev := timeZone
	timeZone = "Australia/Melbourne"
	t.Cleanup(func() { timeZone = prev })
	clock := timezones.NewFixedClock(time.Date(2025, 3, 14, 12, 0, 0, 0, mustZone(t, timeZone)))

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-13", "10:00:00", "12:00:00")
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-14", "09:00:00", "10:30:00")
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-15", "10:00:00", "12:00:00")

	var out bytes.Buffer
	require.NoError(t, cleanupSessions(ctx, db, clock, zap.NewNop(), &out))
	assert.Contains(t, out.String(), "Processed 2 past sessions")

	left, err := db.Collection("study_sessions").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)

	var got struct {
		ProgressHours float64 `bson:"progress_hours"`
	}
	require.NoError(t, db.Collection("groups").FindOne(ctx, bson.M{"_id": g.ID}).Decode(&got))
	assert.InDelta(t, 3.5, got.ProgressHours, 1e-9)

	out.Reset()
	require.NoError(t, printCounter(ctx, db, &out))
	assert.Equal(t, "2\n", out.String())
}

func TestCleanupSessions_BadZone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	prev := timeZone
	timeZone = "Nowhere/Special"
	t.Cleanup(func() { timeZone = prev })

	var out bytes.Buffer
	assert.Error(t, cleanupSessions(ctx, db, timezones.SystemClock{}, zap.NewNop(), &out))
}

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}
