package membershipstore_test

import (
	"context"
	"errors"
	"testing"

	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	"github.com/melbminds/studyhub/internal/app/system/indexes"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setup(t *testing.T) (*membershipstore.Store, *testutil.Fixtures, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return membershipstore.New(db), testutil.NewFixtures(t, db), ctx
}

func TestStore_AddAndIsMember(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)

	if ok, _ := store.IsMember(ctx, g.ID, ann.ID); ok {
		t.Fatal("creator is not a member until added")
	}
	if err := store.Add(ctx, g.ID, ann.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	ok, err := store.IsMember(ctx, g.ID, ann.ID)
	if err != nil || !ok {
		t.Errorf("IsMember = %v, %v; want true", ok, err)
	}
}

func TestStore_Add_Duplicate(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)

	if err := store.Add(ctx, g.ID, ann.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, g.ID, ann.ID); !errors.Is(err, membershipstore.ErrDuplicateMembership) {
		t.Errorf("second Add = %v, want ErrDuplicateMembership", err)
	}
}

func TestStore_Remove(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)

	if err := store.Remove(ctx, g.ID, ann.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, g.ID, ann.ID); !errors.Is(err, membershipstore.ErrNotMember) {
		t.Errorf("second Remove = %v, want ErrNotMember", err)
	}
}

func TestStore_Counts(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Ng", "bob@student.unimelb.edu.au")
	busy := fx.CreateGroup(ctx, "Busy", "COMP20003", ann.ID)
	quiet := fx.CreateGroup(ctx, "Quiet", "COMP20003", ann.ID)
	empty := fx.CreateGroup(ctx, "Empty", "COMP20003", ann.ID)

	fx.CreateMembership(ctx, busy.ID, ann.ID)
	fx.CreateMembership(ctx, busy.ID, bob.ID)
	fx.CreateMembership(ctx, quiet.ID, bob.ID)

	if n, _ := store.CountByGroup(ctx, busy.ID); n != 2 {
		t.Errorf("CountByGroup(busy) = %d, want 2", n)
	}

	counts, err := store.CountsByGroup(ctx)
	if err != nil {
		t.Fatalf("CountsByGroup failed: %v", err)
	}
	if counts[busy.ID] != 2 || counts[quiet.ID] != 1 {
		t.Errorf("CountsByGroup = %v", counts)
	}
	if _, ok := counts[empty.ID]; ok {
		t.Error("groups without members should be absent")
	}
}

func TestStore_GroupIDsForUser(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	a := fx.CreateGroup(ctx, "A", "COMP20003", ann.ID)
	b := fx.CreateGroup(ctx, "B", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, a.ID, ann.ID)
	fx.CreateMembership(ctx, b.ID, ann.ID)

	ids, err := store.GroupIDsForUser(ctx, ann.ID)
	if err != nil {
		t.Fatalf("GroupIDsForUser failed: %v", err)
	}
	got := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if len(ids) != 2 || !got[a.ID] || !got[b.ID] {
		t.Errorf("GroupIDsForUser = %v", ids)
	}

	none, err := store.GroupIDsForUser(ctx, primitive.NewObjectID())
	if err != nil || len(none) != 0 {
		t.Errorf("unknown user: %v, %v", none, err)
	}
}

func TestStore_DeleteByGroup(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Ng", "bob@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)
	other := fx.CreateGroup(ctx, "Other", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)
	fx.CreateMembership(ctx, other.ID, bob.ID)

	n, err := store.DeleteByGroup(ctx, g.ID)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByGroup = %d, %v; want 2", n, err)
	}
	if ok, _ := store.IsMember(ctx, other.ID, bob.ID); !ok {
		t.Error("other group's membership should survive")
	}
}

func TestStore_ListMembers(t *testing.T) {
	store, fx, ctx := setup(t)

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Ng", "bob@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)
	other := fx.CreateGroup(ctx, "Other", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)
	fx.CreateMembership(ctx, other.ID, bob.ID)
	// A membership whose user was removed is not listed.
	fx.CreateMembership(ctx, g.ID, primitive.NewObjectID())

	members, err := store.ListMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("ListMembers = %d rows, want 2", len(members))
	}
	if members[0].User.ID != ann.ID || members[1].User.ID != bob.ID {
		t.Errorf("order = %s, %s; want Ann then Bob", members[0].User.FullName, members[1].User.FullName)
	}
	if members[1].User.Email != "bob@student.unimelb.edu.au" {
		t.Errorf("email = %q", members[1].User.Email)
	}
	if members[0].User.PasswordHash != "" {
		t.Error("password hash should not be loaded")
	}
	if members[0].JoinedAt.IsZero() {
		t.Error("joined_at should be set")
	}

	empty, err := store.ListMembers(ctx, primitive.NewObjectID())
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown group: %v, %v", empty, err)
	}
}
