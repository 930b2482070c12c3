package counterstore_test

import (
	"errors"
	"sync"
	"testing"

	counterstore "github.com/melbminds/studyhub/internal/app/store/counters"
	"github.com/melbminds/studyhub/internal/testutil"
)

func TestStore_IncrementAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := counterstore.New(db)

	if n, err := s.Get(ctx); err != nil || n != 0 {
		t.Fatalf("Get on a fresh counter = %d, %v", n, err)
	}
	if n, err := s.Increment(ctx, 3); err != nil || n != 3 {
		t.Fatalf("Increment(3) = %d, %v", n, err)
	}
	if n, err := s.Increment(ctx, 0); err != nil || n != 3 {
		t.Errorf("Increment(0) = %d, %v", n, err)
	}
	if _, err := s.Increment(ctx, -1); !errors.Is(err, counterstore.ErrNegativeIncrement) {
		t.Errorf("Increment(-1) = %v, want ErrNegativeIncrement", err)
	}
	if n, _ := s.Get(ctx); n != 3 {
		t.Errorf("Get = %d, want 3", n)
	}

	if n, _ := counterstore.NewNamed(db, "other").Get(ctx); n != 0 {
		t.Errorf("named counters must be independent, got %d", n)
	}
}

func TestStore_Increment_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := counterstore.New(db)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Increment(ctx, 2); err != nil {
				t.Errorf("Increment: %v", err)
			}
		}()
	}
	wg.Wait()

	if n, _ := s.Get(ctx); n != 50 {
		t.Errorf("Get = %d, want 50", n)
	}
}
