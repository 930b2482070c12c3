package lockstore

import (
	"testing"
	"time"

	"github.com/melbminds/studyhub/internal/testutil"
)

func TestStore_AcquireRelease(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	s := New(db)
	s.now = func() time.Time { return now }

	ok, err := s.Acquire(ctx, "job", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}

	ok, err = s.Acquire(ctx, "job", "b", time.Minute)
	if err != nil || ok {
		t.Errorf("Acquire by another holder = %v, %v; want refused", ok, err)
	}

	ok, err = s.Acquire(ctx, "job", "a", time.Minute)
	if err != nil || !ok {
		t.Errorf("renewal by the holder = %v, %v", ok, err)
	}

	ok, _ = s.Acquire(ctx, "other-job", "b", time.Minute)
	if !ok {
		t.Error("leases with different names are independent")
	}

	if err := s.Release(ctx, "job", "b"); err != nil {
		t.Fatalf("Release by non-holder: %v", err)
	}
	if ok, _ := s.Acquire(ctx, "job", "b", time.Minute); ok {
		t.Error("Release by a non-holder must not free the lease")
	}

	if err := s.Release(ctx, "job", "a"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := s.Acquire(ctx, "job", "b", time.Minute); !ok {
		t.Error("lease should be free after Release")
	}
}

func TestStore_ExpiredLeaseIsTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	s := New(db)
	s.now = func() time.Time { return now }

	if ok, _ := s.Acquire(ctx, "job", "a", time.Minute); !ok {
		t.Fatal("first Acquire refused")
	}

	now = now.Add(59 * time.Second)
	if ok, _ := s.Acquire(ctx, "job", "b", time.Minute); ok {
		t.Error("lease taken before it expired")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := s.Acquire(ctx, "job", "b", time.Minute); !ok {
		t.Error("expired lease should pass to the next holder")
	}
	if ok, _ := s.Acquire(ctx, "job", "a", time.Minute); ok {
		t.Error("the old holder must not get the lease back while b holds it")
	}
}
