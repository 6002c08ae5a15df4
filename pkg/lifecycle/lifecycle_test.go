package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"dmcgen/pkg/lifecycle"
)

func TestShutdownRunsTeardown(t *testing.T) {
	coord := lifecycle.New()

	var done atomic.Bool
	coord.OnTeardown(func() {
		<-coord.Context().Done()
		done.Store(true)
	})

	if err := coord.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !done.Load() {
		t.Error("teardown hook did not run")
	}
	if coord.Context().Err() == nil {
		t.Error("context must be cancelled after shutdown")
	}
}

func TestShutdownTimesOutOnStuckTeardown(t *testing.T) {
	coord := lifecycle.New()

	release := make(chan struct{})
	coord.OnTeardown(func() {
		<-coord.Context().Done()
		<-release
	})

	if err := coord.Shutdown(20 * time.Millisecond); err == nil {
		t.Error("expected timeout error for stuck teardown")
	}
	close(release)
}
