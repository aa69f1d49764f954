// README: Concurrency tests for delivery auto-completion (run with -race).
package route

import (
	"context"
	"sync"
	"testing"

	"rutero/internal/types"
)

func TestConcurrentDeliversCompleteOnce(t *testing.T) {
	const stops = 8
	svc, _, ids := newFixture(t, stops)
	ctx := context.Background()

	r, err := svc.Plan(ctx, planCmd(ids))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, err := svc.Start(ctx, r.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, stops)
	for _, id := range ids {
		wg.Add(1)
		go func(stopID types.ID) {
			defer wg.Done()
			_, err := svc.Deliver(ctx, r.ID, stopID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}

	final, err := svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", final.Status)
	}
	if final.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
	for _, v := range final.Visits {
		if !v.Delivered || v.DeliveredAt == nil {
			t.Fatalf("visit %s not delivered after concurrent delivers", v.StopID)
		}
	}
}

func TestConcurrentDeliverSameStopKeepsFirstTimestamp(t *testing.T) {
	svc, _, ids := newFixture(t, 2)
	ctx := context.Background()

	r, err := svc.Plan(ctx, planCmd(ids))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, err := svc.Start(ctx, r.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deliver(ctx, r.ID, ids[0])
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}

	cur, _ := svc.Get(ctx, r.ID)
	if cur.Status != StatusInProgress {
		t.Fatalf("status = %s, want in_progress (one stop still undelivered)", cur.Status)
	}
	var delivered int
	for _, v := range cur.Visits {
		if v.Delivered {
			delivered++
			if v.DeliveredAt == nil {
				t.Fatal("delivered visit without timestamp")
			}
		}
	}
	if delivered != 1 {
		t.Fatalf("delivered visits = %d, want 1", delivered)
	}
}
