//go:build !windows

package container

import (
	"context"
	"testing"
	"time"
)

func TestMonitorTtySizeStopsOnCancel(t *testing.T) {
	inv := newTestAPIInvoker(t, &fakeDaemon{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		inv.monitorTtySize(ctx, "abc123", 0)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitorTtySize did not return after cancellation")
	}
}
