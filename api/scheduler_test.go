package api

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestGenerationScheduler_Periods(t *testing.T) {
	gs := NewGenerationScheduler(nil, nil)
	gs.Lookahead = 2

	got := gs.Periods(time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC))
	want := []string{"2026-11", "2026-12", "2027-01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestGenerationScheduler_RunNow(t *testing.T) {
	// GIVEN: A scheduler looking one month ahead on 2026-04-10, with April
	//        already edited by hand
	// WHEN: Running it twice
	// THEN: Only May is generated, once; April keeps its edit

	h := setupTestHandler(t)
	ctx := context.Background()

	if _, err := h.Planner.Toggle(ctx, "2026-04", "2026-04-01", "1"); err != nil {
		t.Fatalf("Failed to edit April: %v", err)
	}

	gs := NewGenerationScheduler(h.Planner, nil)
	gs.now = func() time.Time { return time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC) }

	if n := gs.RunNow(); n != 1 {
		t.Errorf("Expected 1 generated period, got %d", n)
	}
	if n := gs.RunNow(); n != 0 {
		t.Errorf("Expected nothing to generate on the second run, got %d", n)
	}

	may, err := h.Planner.History(ctx, "2026-05")
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if len(may) != 1 || may[0].Action != "generate" {
		t.Errorf("Expected a single generate revision for May, got %+v", may)
	}

	april, err := h.Planner.History(ctx, "2026-04")
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if len(april) != 1 || april[0].Action != "toggle" {
		t.Errorf("Expected April untouched, got %+v", april)
	}
}

func TestGenerationScheduler_StartStop(t *testing.T) {
	h := setupTestHandler(t)

	gs := NewGenerationScheduler(h.Planner, nil)
	gs.CheckInterval = time.Hour
	gs.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	gs.Start()
	gs.Stop()
	gs.Stop()

	disabled := NewGenerationScheduler(h.Planner, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}
