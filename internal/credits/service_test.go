package credits

import (
	"context"
	"errors"
	"testing"
)

func TestConsumeDebitsCategoryFirst(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	snap, err := svc.Consume(ctx, "user-1", CategoryInterview, 2)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := snap.Balances[CategoryInterview].Remaining; got != 3 {
		t.Fatalf("interview remaining = %d, want 3", got)
	}
	if got := snap.Balances[CategoryUniversal].Remaining; got != 10 {
		t.Fatalf("universal remaining = %d, want 10", got)
	}
}

func TestConsumeFallsBackToUniversal(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", CategoryResume, 5); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	snap, err := svc.Consume(ctx, "user-1", CategoryResume, 3)
	if err != nil {
		t.Fatalf("Consume with fallback: %v", err)
	}
	if got := snap.Balances[CategoryResume].Remaining; got != 0 {
		t.Fatalf("resume remaining = %d, want 0", got)
	}
	if got := snap.Balances[CategoryUniversal].Remaining; got != 7 {
		t.Fatalf("universal remaining = %d, want 7", got)
	}
}

func TestConsumeInsufficientAcrossBothBuckets(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", CategoryRewrite, 5); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if _, err := svc.Consume(ctx, "user-1", CategoryRewrite, 10); err != nil {
		t.Fatalf("Consume universal: %v", err)
	}
	_, err := svc.Consume(ctx, "user-1", CategoryRewrite, 1)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
}

func TestConsumeUnlimitedPlanNeverDebits(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.SetPlan(ctx, "user-1", "pro", true); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}
	snap, err := svc.Consume(ctx, "user-1", CategoryInterview, 100)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := snap.Balances[CategoryInterview].Remaining; got != 5 {
		t.Fatalf("interview remaining = %d, want 5", got)
	}
}

func TestCanConsumeCountsUniversalBackup(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	ok, _, err := svc.CanConsume(ctx, "user-1", CategoryLinkedIn, 15)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if !ok {
		t.Fatal("want ok with category plus universal covering 15")
	}
	ok, _, err = svc.CanConsume(ctx, "user-1", CategoryLinkedIn, 16)
	if err != nil {
		t.Fatalf("CanConsume: %v", err)
	}
	if ok {
		t.Fatal("want not ok for 16")
	}
}

func TestCanConsumeRejectsUnknownCategory(t *testing.T) {
	svc := NewService()
	_, _, err := svc.CanConsume(context.Background(), "user-1", Category("bogus"), 1)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestResetRestoresCaps(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user-1", CategoryInterview, 4); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	snap, err := svc.Reset(ctx, "user-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for cat, b := range snap.Balances {
		if b.Remaining != b.Cap {
			t.Fatalf("%s remaining = %d, want cap %d", cat, b.Remaining, b.Cap)
		}
	}
}
