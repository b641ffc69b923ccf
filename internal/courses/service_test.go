package courses

import (
	"context"
	"errors"
	"testing"
)

func TestCourseLifecycle(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Title: " JEE Foundation ", Fees: 12000, Duration: "1 year"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "JEE Foundation" || created.Category != defaultCategory || created.LimitedSeats != 0 {
		t.Fatalf("unexpected course %+v", created)
	}

	updated, err := svc.Update(ctx, created.ID, Input{Title: "JEE Foundation", Fees: 15000, Category: "Engineering", LimitedSeats: 30})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Fees != 15000 || updated.Category != "Engineering" {
		t.Fatalf("update not applied: %+v", updated)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %d", err, len(list))
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCourseValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Create(ctx, Input{Title: "", Fees: 100}); err == nil {
		t.Fatalf("expected title validation error")
	}
	if _, err := svc.Create(ctx, Input{Title: "NEET", Fees: 0}); err == nil {
		t.Fatalf("expected fees validation error")
	}
	if _, err := svc.Update(ctx, "missing", Input{Title: "NEET", Fees: 10}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
