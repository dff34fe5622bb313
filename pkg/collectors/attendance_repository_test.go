package collectors

import (
	"context"
	"testing"

	"github.com/maya/out-and-about/pkg/domain"
)

func TestAttendanceRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewAttendanceRepository(db)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	ctx := context.Background()

	t.Run("join then leave", func(t *testing.T) {
		if err := repo.Join(ctx, "ev-1", "u-1"); err != nil {
			t.Fatalf("join failed: %v", err)
		}

		joined, err := repo.IsJoined(ctx, "ev-1", "u-1")
		if err != nil {
			t.Fatalf("IsJoined failed: %v", err)
		}
		if !joined {
			t.Error("expected joined")
		}

		if err := repo.Leave(ctx, "ev-1", "u-1"); err != nil {
			t.Fatalf("leave failed: %v", err)
		}

		joined, err = repo.IsJoined(ctx, "ev-1", "u-1")
		if err != nil {
			t.Fatalf("IsJoined failed: %v", err)
		}
		if joined {
			t.Error("expected not joined after leave")
		}
	})

	t.Run("double join is settled, not an error", func(t *testing.T) {
		if err := repo.Join(ctx, "ev-2", "u-1"); err != nil {
			t.Fatalf("first join failed: %v", err)
		}
		if err := repo.Join(ctx, "ev-2", "u-1"); err != nil {
			t.Errorf("second join should settle silently, got %v", err)
		}

		count, err := repo.Count(ctx, "ev-2")
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected count 1 after double join, got %d", count)
		}
	})

	t.Run("count across users", func(t *testing.T) {
		for _, user := range []string{"u-1", "u-2", "u-3"} {
			if err := repo.Join(ctx, "ev-3", user); err != nil {
				t.Fatalf("join %s failed: %v", user, err)
			}
		}

		count, err := repo.Count(ctx, "ev-3")
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 3 {
			t.Errorf("expected count 3, got %d", count)
		}
	})

	t.Run("fetch membership as gateway", func(t *testing.T) {
		if err := repo.JoinEvent(ctx, "ev-4", "u-9"); err != nil {
			t.Fatalf("gateway join failed: %v", err)
		}

		joined, count, err := repo.FetchMembership(ctx, "ev-4", "u-9")
		if err != nil {
			t.Fatalf("FetchMembership failed: %v", err)
		}
		if !joined || count != 1 {
			t.Errorf("expected joined with count 1, got joined=%v count=%d", joined, count)
		}
	})

	t.Run("empty ids are invalid", func(t *testing.T) {
		if err := repo.Join(ctx, "", "u-1"); err != domain.ErrInvalidRequest {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
		if err := repo.Leave(ctx, "ev-1", ""); err != domain.ErrInvalidRequest {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
	})
}

func TestFlagRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewFlagRepository(db)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	ctx := context.Background()

	t.Run("creates a flag with generated id", func(t *testing.T) {
		flag := &domain.Flag{
			Reason:      "inappropriate",
			Explanation: "spam content",
			TargetID:    "ev-1",
			ReportedBy:  "u-1",
		}

		if err := repo.Create(ctx, flag); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if flag.ID == "" {
			t.Error("expected generated flag id")
		}
		if flag.CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("rejects missing reason", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Flag{TargetID: "ev-1"})
		if err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("rejects missing target", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Flag{Reason: "spam"})
		if err == nil {
			t.Fatal("expected validation error")
		}
	})
}
