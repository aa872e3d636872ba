package scheduler

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
)

func TestFrontendCollector_Collect(t *testing.T) {
	f := newFixture(t, oneApp)
	ctx := context.Background()

	if _, err := f.resyncer(f.sync).Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	// Stale entries left behind by an application that is gone
	for _, key := range []string{"frontend:old.example.com", "frontend:older.example.com"} {
		if err := f.store.ReplaceList(ctx, key, []string{"ghost", "http://gone:1"}); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	gc := NewFrontendCollector(f.store, f.registry, f.sync, logger.NewNop(), "")

	removed, err := gc.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 stale frontends removed, got %d", removed)
	}

	if f.mr.Exists("frontend:old.example.com") || f.mr.Exists("frontend:older.example.com") {
		t.Error("Stale frontend was not removed")
	}
	if !f.mr.Exists("frontend:app1.example.com") {
		t.Error("Live frontend was incorrectly removed")
	}
}

func TestFrontendCollector_SkipsBeforeFirstLoad(t *testing.T) {
	f := newFixture(t, oneApp)
	ctx := context.Background()

	if err := f.store.ReplaceList(ctx, "frontend:app1.example.com", []string{"app1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	gc := NewFrontendCollector(f.store, inventory.NewRegistry(), f.sync, logger.NewNop(), "")
	removed, err := gc.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if removed != 0 || !f.mr.Exists("frontend:app1.example.com") {
		t.Error("Collector must not run against an empty, never-loaded registry")
	}
}

func TestFrontendCollector_StartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t, oneApp)

	gc := NewFrontendCollector(f.store, f.registry, f.sync, logger.NewNop(), "every now and then")
	if err := gc.Start(context.Background()); err == nil {
		t.Error("Start should fail on an invalid cron spec")
	}
}

func TestFrontendCollector_StartStop(t *testing.T) {
	f := newFixture(t, oneApp)

	gc := NewFrontendCollector(f.store, f.registry, f.sync, logger.NewNop(), "@every 1h")
	if err := gc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	gc.Stop()
}

func TestFrontendCollector_SkipsEmptyInventory(t *testing.T) {
	f := newFixture(t, noApps)
	ctx := context.Background()

	if _, err := f.resyncer(f.sync).Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if err := f.store.ReplaceList(ctx, "frontend:app1.example.com", []string{"app1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	gc := NewFrontendCollector(f.store, f.registry, f.sync, logger.NewNop(), "")
	removed, err := gc.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if removed != 0 || !f.mr.Exists("frontend:app1.example.com") {
		t.Error("Collector must not wipe routes when the inventory has no applications")
	}
}
