package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for _, name := range []string{"unit:a", "unit:b", "unit:c"} {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := tm.Track(name)
			time.Sleep(time.Millisecond)
			done("ok")
		}()
	}
	wg.Wait()

	report := tm.Report()
	if len(report.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(report.Phases))
	}
	for _, p := range report.Phases {
		if p.DurationMS <= 0 || p.Note != "ok" {
			t.Fatalf("phase not finished: %+v", p)
		}
	}
	if report.WallMS < report.Phases[0].DurationMS {
		t.Fatalf("wall time %f shorter than a single phase", report.WallMS)
	}
	if s := tm.Summary(); !strings.HasPrefix(s, "timings:\n") || !strings.Contains(s, "unit:b") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.Track("x")("")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer must report nothing")
	}
}
