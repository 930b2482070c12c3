package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/system/authutil"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a student with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, models.RoleStudent)
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, models.RoleAdmin)
}

func (f *Fixtures) createUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                   primitive.NewObjectID(),
		FullName:             fullName,
		Email:                email,
		EmailCI:              text.Fold(email),
		Role:                 role,
		Major:                "Computer Science",
		YearLevel:            "2",
		PreferredStudyFormat: "hybrid",
		Languages:            []string{"english"},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// SetPassword stores a bcrypt hash of password on the user.
func (f *Fixtures) SetPassword(ctx context.Context, userID primitive.ObjectID, password string) {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"password_hash": hash}},
	); err != nil {
		f.t.Fatalf("failed to set password: %v", err)
	}
}

// CreateGroup inserts a group owned by creatorID. The creator is not added
// as a member; use CreateMembership for that.
func (f *Fixtures) CreateGroup(ctx context.Context, name, subjectCode string, creatorID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:              primitive.NewObjectID(),
		Name:            name,
		NameCI:          text.Fold(name),
		SubjectCode:     subjectCode,
		Description:     "Test group",
		YearLevel:       "2",
		MeetingFormat:   "hybrid",
		PrimaryLanguage: "english",
		CreatorID:       creatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateMembership joins userID to groupID.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateSession inserts a study session without validation, so tests can
// seed past sessions and malformed rows.
func (f *Fixtures) CreateSession(ctx context.Context, groupID, creatorID primitive.ObjectID, date, start, end string) models.StudySession {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.StudySession{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		CreatorID: creatorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Location:  "Baillieu Library",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("study_sessions").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return s
}
