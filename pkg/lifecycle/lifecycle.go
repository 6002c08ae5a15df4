// Package lifecycle coordinates batch run cancellation and sink teardown.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Coordinator owns the run context for a batch. The context is cancelled
// when the operator interrupts the run (SIGINT/SIGTERM) or when Shutdown is
// called; in-flight documents observe the cancellation through the context
// and drain to terminal outcomes before teardown hooks run.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	stopSignal func()
	teardownWg sync.WaitGroup
}

// New creates a Coordinator whose context is cancelled on SIGINT or SIGTERM.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	return &Coordinator{
		ctx:        sigCtx,
		cancel:     cancel,
		stopSignal: stop,
	}
}

// Context returns the run context, cancelled on interrupt or Shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnTeardown registers a teardown function. The function starts
// immediately and should block on <-Context().Done() before executing
// cleanup. Used to close journals and stores after the batch drains.
func (c *Coordinator) OnTeardown(fn func()) {
	c.teardownWg.Go(fn)
}

// Shutdown cancels the run context and waits for teardown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()
	c.stopSignal()

	done := make(chan struct{})
	go func() {
		c.teardownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
