package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	started := atomic.NewInt64(0)
	stopped := atomic.NewInt64(0)
	worker := func(ctx context.Context) {
		started.Inc()
		<-ctx.Done()
		stopped.Inc()
	}

	sw := NewStoppableWorkers(context.Background(), worker, worker)
	sw.AddWorkers(worker)
	sw.Stop()

	test.That(t, started.Load(), test.ShouldEqual, 3)
	test.That(t, stopped.Load(), test.ShouldEqual, 3)
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	// adding after stop is a no-op
	sw.AddWorkers(worker)
	sw.Stop()
	test.That(t, started.Load(), test.ShouldEqual, 3)
}

func TestStoppableWorkersParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sw := NewStoppableWorkers(parent, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()
	<-done
	sw.Stop()
}

func TestStoppableWorkersCancel(t *testing.T) {
	release := make(chan struct{})
	sw := NewStoppableWorkers(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		<-release
	})
	sw.Cancel()
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)
	close(release)
	sw.Stop()
}
