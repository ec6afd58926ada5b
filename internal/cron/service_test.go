package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirfahq/hirfa-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, registry *Registry, now func() time.Time) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: registry,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestServiceRunDueRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry := NewRegistry(
		Entry{Job: success, Every: time.Hour},
		Entry{Job: failure, Every: time.Hour},
	)
	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	service := newTestService(t, registry, func() time.Time { return current })

	next := make(map[string]time.Time)
	service.runDue(context.Background(), next)

	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failing job to run once, ran %d", failure.runs)
	}
}

func TestServiceRunDueHonorsPerJobCadence(t *testing.T) {
	fast := &testJob{name: "fast"}
	slow := &testJob{name: "slow"}
	registry := NewRegistry(
		Entry{Job: fast, Every: 5 * time.Minute},
		Entry{Job: slow, Every: time.Hour},
	)
	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	service := newTestService(t, registry, func() time.Time { return current })
	next := make(map[string]time.Time)
	ctx := context.Background()

	service.runDue(ctx, next)
	if fast.runs != 1 || slow.runs != 1 {
		t.Fatalf("first pass should run everything: fast=%d slow=%d", fast.runs, slow.runs)
	}

	// Nothing is due again at the same instant.
	service.runDue(ctx, next)
	if fast.runs != 1 || slow.runs != 1 {
		t.Fatalf("no job was due: fast=%d slow=%d", fast.runs, slow.runs)
	}

	current = current.Add(5 * time.Minute)
	service.runDue(ctx, next)
	if fast.runs != 2 {
		t.Fatalf("fast job was due, ran %d", fast.runs)
	}
	if slow.runs != 1 {
		t.Fatalf("slow job was not due, ran %d", slow.runs)
	}

	current = current.Add(time.Hour)
	service.runDue(ctx, next)
	if fast.runs != 3 || slow.runs != 2 {
		t.Fatalf("both jobs were due: fast=%d slow=%d", fast.runs, slow.runs)
	}
}

func TestServiceRunDueDefaultsCadence(t *testing.T) {
	job := &testJob{name: "daily"}
	registry := NewRegistry(Entry{Job: job})
	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	service := newTestService(t, registry, func() time.Time { return current })
	next := make(map[string]time.Time)
	ctx := context.Background()

	service.runDue(ctx, next)
	current = current.Add(23 * time.Hour)
	service.runDue(ctx, next)
	if job.runs != 1 {
		t.Fatalf("job should wait a day, ran %d", job.runs)
	}
	current = current.Add(2 * time.Hour)
	service.runDue(ctx, next)
	if job.runs != 2 {
		t.Fatalf("job was due after a day, ran %d", job.runs)
	}
}

func TestServiceRunEntryHonorsJobLock(t *testing.T) {
	job := &testJob{name: "guarded"}
	lock := &fakeLock{}
	registry := NewRegistry(Entry{Job: job, Every: time.Minute, Lock: lock})
	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	service := newTestService(t, registry, func() time.Time { return current })
	next := make(map[string]time.Time)
	ctx := context.Background()

	service.runDue(ctx, next)
	if job.runs != 1 {
		t.Fatalf("job should run with a free lock, ran %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("lock must be released after the run, releases=%d", lock.releases)
	}

	lock.held = true
	current = current.Add(time.Minute)
	service.runDue(ctx, next)
	if job.runs != 1 {
		t.Fatalf("held lock must skip the run, ran %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("a skipped run must not release the other holder, releases=%d", lock.releases)
	}
}
