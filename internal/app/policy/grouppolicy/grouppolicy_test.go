package grouppolicy_test

import (
	"net/http"
	"testing"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	"github.com/melbminds/studyhub/internal/domain/models"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIsCreatorAndCanDelete(t *testing.T) {
	creator := testutil.StudentUser()
	creatorID, _ := primitive.ObjectIDFromHex(creator.ID)
	g := models.Group{ID: primitive.NewObjectID(), CreatorID: creatorID}

	tests := []struct {
		name      string
		user      *testutil.TestUser
		isCreator bool
		canDelete bool
	}{
		{"creator", &creator, true, true},
		{"other student", ptr(testutil.StudentUser()), false, false},
		{"admin", ptr(testutil.AdminUser()), false, true},
		{"anonymous", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.NewRequest(http.MethodGet, "/")
			if tt.user != nil {
				r = testutil.WithUser(r, *tt.user)
			}
			if got := grouppolicy.IsCreator(r, g); got != tt.isCreator {
				t.Errorf("IsCreator = %v, want %v", got, tt.isCreator)
			}
			if got := grouppolicy.CanDelete(r, g); got != tt.canDelete {
				t.Errorf("CanDelete = %v, want %v", got, tt.canDelete)
			}
		})
	}
}

func TestCanParticipate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	creator := fx.CreateUser(ctx, "Creator", "creator@student.unimelb.edu.au")
	member := fx.CreateUser(ctx, "Member", "member@student.unimelb.edu.au")
	outsider := fx.CreateUser(ctx, "Outsider", "outsider@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Linear Algebra", "MAST10007", creator.ID)
	fx.CreateMembership(ctx, g.ID, member.ID)

	for _, tc := range []struct {
		u    models.User
		want bool
	}{{creator, true}, {member, true}, {outsider, false}} {
		r := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AsTestUser(tc.u))
		got, err := grouppolicy.CanParticipate(ctx, db, r, g)
		if err != nil {
			t.Fatalf("CanParticipate: %v", err)
		}
		if got != tc.want {
			t.Errorf("CanParticipate(%s) = %v, want %v", tc.u.FullName, got, tc.want)
		}
	}

	anon := testutil.NewRequest(http.MethodGet, "/")
	if ok, _ := grouppolicy.CanParticipate(ctx, db, anon, g); ok {
		t.Error("anonymous user must not participate")
	}
}

func ptr(u testutil.TestUser) *testutil.TestUser { return &u }
