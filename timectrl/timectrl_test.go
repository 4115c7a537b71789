package timectrl

import (
	"sync"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, Accelerated)

	done := tc.Start(15 * time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
}

func TestStartResumesFromPause(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	<-tc.Start(2 * time.Second)
	if got := tc.Now(); !got.Equal(start.Add(2 * time.Second)) {
		t.Fatalf("Now() after first run = %v, want %v", got, start.Add(2*time.Second))
	}

	<-tc.Start(3 * time.Second)
	if got := tc.Now(); !got.Equal(start.Add(5 * time.Second)) {
		t.Fatalf("Now() after resume = %v, want %v", got, start.Add(5*time.Second))
	}
}

func TestStopHaltsUnboundedLoop(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	ticks := make(chan time.Time, 1)
	tc.AddListener(func(ts time.Time) {
		select {
		case ticks <- ts:
		default:
		}
	})

	done := tc.Start(0)
	<-ticks
	if !tc.Running() {
		t.Fatal("Running() = false while the loop is live")
	}

	tc.Stop()
	<-done
	if tc.Running() {
		t.Fatal("Running() = true after Stop")
	}
	if got := tc.Now(); !got.After(start) {
		t.Fatalf("Now() = %v, want past %v", got, start)
	}
}

func TestStartWhileRunningReturnsClosedChannel(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	done := tc.Start(0)
	second := tc.Start(0)
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second Start did not return a closed channel")
	}

	tc.Stop()
	<-done
}

func TestListenersObserveEveryTick(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	var mu sync.Mutex
	var seen []time.Time
	tc.AddListener(func(ts time.Time) {
		mu.Lock()
		seen = append(seen, ts)
		mu.Unlock()
	})

	<-tc.Start(3 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("listener saw %d ticks, want 3", len(seen))
	}
	for i, ts := range seen {
		if want := start.Add(time.Duration(i+1) * time.Second); !ts.Equal(want) {
			t.Fatalf("tick %d = %v, want %v", i, ts, want)
		}
	}
}

func TestAfterFiresOnSimDeadline(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	fired := tc.After(3 * time.Second)
	<-tc.Start(5 * time.Second)

	select {
	case got := <-fired:
		if want := start.Add(3 * time.Second); !got.Equal(want) {
			t.Fatalf("After fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("After channel did not fire within the run")
	}
}
