package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func TestSnapshotCaching(t *testing.T) {
	store := memory.NewStore()
	cat, err := store.CreateCategory(context.Background(), core.Category{Name: "Salary", Type: core.Income})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	if _, err := store.CreateTransaction(context.Background(), core.Transaction{
		UserID: "u1", CategoryID: cat.ID, Amount: core.Money{Cents: 100000},
		Description: "pay", Type: core.Income, Date: now,
	}); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	svc := NewAnalyticsService(
		analytics.NewAggregator(store, store),
		cache.NewLRUCache[core.AnalyticsData](16, time.Minute),
		nil)

	first, err := svc.Snapshot(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if first.TotalBalance.Cents != 100000 {
		t.Fatalf("unexpected balance: %d", first.TotalBalance.Cents)
	}

	// A write the cache does not know about: the stale snapshot is served
	// until invalidation.
	if _, err := store.CreateTransaction(context.Background(), core.Transaction{
		UserID: "u1", CategoryID: cat.ID, Amount: core.Money{Cents: 50000},
		Description: "bonus", Type: core.Income, Date: now,
	}); err != nil {
		t.Fatalf("second transaction: %v", err)
	}

	cached, err := svc.Snapshot(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if cached.TotalBalance.Cents != 100000 {
		t.Fatalf("expected cached balance 100000, got %d", cached.TotalBalance.Cents)
	}

	svc.Invalidate("u1")

	fresh, err := svc.Snapshot(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if fresh.TotalBalance.Cents != 150000 {
		t.Fatalf("expected fresh balance 150000, got %d", fresh.TotalBalance.Cents)
	}
}

func TestSnapshotKeySeparatesUsersAndDays(t *testing.T) {
	now := time.Date(2025, 6, 20, 23, 30, 0, 0, time.UTC)
	if snapshotKey("u1", now) == snapshotKey("u2", now) {
		t.Fatal("keys must differ per user")
	}
	if snapshotKey("u1", now) == snapshotKey("u1", now.AddDate(0, 0, 1)) {
		t.Fatal("keys must differ per day")
	}
}
