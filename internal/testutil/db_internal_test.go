package testutil

import (
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestGuard_RecoversPanic(t *testing.T) {
	cl, err := guard(func() (*mongo.Client, error) {
		panic("rootless Docker not found")
	})
	if cl != nil {
		t.Errorf("client: got %v, want nil", cl)
	}
	if err == nil || !strings.Contains(err.Error(), "rootless Docker not found") {
		t.Fatalf("err: got %v, want recovered panic", err)
	}
}

func TestGuard_PassesThroughError(t *testing.T) {
	want := errors.New("ping failed")
	_, err := guard(func() (*mongo.Client, error) { return nil, want })
	if !errors.Is(err, want) {
		t.Fatalf("err: got %v, want %v", err, want)
	}
}
