package output_test

import (
	"io"
	"testing"

	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/output"
	"xwaylandbridge/internal/store"
)

func newTracker() *output.Tracker {
	return output.NewTracker(xlog.New(xlog.ERROR, io.Discard))
}

// Outputs placed at (-500,-500) and (0,0) must be advertised at
// (0,0) and (500,500) respectively.
func TestNegativeOutputOffset(t *testing.T) {
	tr := newTracker()
	s := store.New()

	k1 := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{Name: 1}))
	k2 := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{Name: 2}))

	tr.OnGeometry(k1, -500, -500, 1000, 1000, 0)
	tr.OnGeometry(k2, 0, 0, 1000, 1000, 0)

	x1, y1 := tr.AdvertisedPosition(k1)
	if x1 != 0 || y1 != 0 {
		t.Fatalf("output at host (-500,-500) advertised as (%d,%d), want (0,0)", x1, y1)
	}
	x2, y2 := tr.AdvertisedPosition(k2)
	if x2 != 500 || y2 != 500 {
		t.Fatalf("output at host (0,0) advertised as (%d,%d), want (500,500)", x2, y2)
	}
}

// Every advertised output position must be >= 0, and at least one
// output on each axis must sit at exactly 0.
func TestAdvertisedPositionsNonNegativeWithZeroOwner(t *testing.T) {
	tr := newTracker()
	s := store.New()

	positions := [][2]int32{{300, -50}, {-200, 700}, {10, 10}}
	keys := make([]store.ObjectKey, len(positions))
	for i, p := range positions {
		keys[i] = s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))
		tr.OnGeometry(keys[i], p[0], p[1], 640, 480, 0)
	}

	sawZeroX, sawZeroY := false, false
	for _, k := range keys {
		x, y := tr.AdvertisedPosition(k)
		if x < 0 || y < 0 {
			t.Fatalf("advertised position (%d,%d) is negative", x, y)
		}
		if x == 0 {
			sawZeroX = true
		}
		if y == 0 {
			sawZeroY = true
		}
	}
	if !sawZeroX || !sawZeroY {
		t.Fatal("expected at least one output at 0 on each axis")
	}
}

// After any sequence of host-output moves, advertised = host - min
// must keep holding.
func TestOffsetRoundTripAfterMoves(t *testing.T) {
	tr := newTracker()
	s := store.New()
	k := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))

	moves := [][2]int32{{0, 0}, {100, 50}, {-300, 20}, {-300, -900}, {5, 5}}
	for _, m := range moves {
		tr.OnGeometry(k, m[0], m[1], 1920, 1080, 0)
		ox, oy := tr.Offset()
		ax, ay := tr.AdvertisedPosition(k)
		if ax != m[0]-ox || ay != m[1]-oy {
			t.Fatalf("advertised (%d,%d) != host(%d,%d) - offset(%d,%d)", ax, ay, m[0], m[1], ox, oy)
		}
	}
}

// Removing the current offset owner must trigger a re-scan.
func TestRemoveOwnerRescans(t *testing.T) {
	tr := newTracker()
	s := store.New()
	low := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))
	high := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))

	tr.OnGeometry(low, -1000, -1000, 800, 600, 0)
	tr.OnGeometry(high, 0, 0, 800, 600, 0)

	if x, y := tr.Offset(); x != -1000 || y != -1000 {
		t.Fatalf("got offset (%d,%d), want (-1000,-1000)", x, y)
	}

	tr.Remove(low)

	if x, y := tr.Offset(); x != 0 || y != 0 {
		t.Fatalf("after removing owner, got offset (%d,%d), want (0,0)", x, y)
	}
	ax, ay := tr.AdvertisedPosition(high)
	if ax != 0 || ay != 0 {
		t.Fatalf("remaining output advertised at (%d,%d), want (0,0)", ax, ay)
	}
}

func TestOnOffsetChangedFiresOnDelta(t *testing.T) {
	tr := newTracker()
	s := store.New()
	k := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))

	var calls int
	var lastDx, lastDy int32
	tr.OnOffsetChanged = func(dx, dy int32) {
		calls++
		lastDx, lastDy = dx, dy
	}

	tr.OnGeometry(k, -100, -50, 640, 480, 0)
	if calls != 1 {
		t.Fatalf("got %d offset-change callbacks, want 1", calls)
	}
	if lastDx != -100 || lastDy != -50 {
		t.Fatalf("got delta (%d,%d), want (-100,-50)", lastDx, lastDy)
	}

	// A geometry update that doesn't move the global minimum must not
	// fire a second callback.
	k2 := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))
	tr.OnGeometry(k2, 0, 0, 640, 480, 0)
	if calls != 1 {
		t.Fatalf("got %d offset-change callbacks after a non-owning update, want 1", calls)
	}
}

func TestMatchesSizeHandlesTransform(t *testing.T) {
	tr := newTracker()
	s := store.New()
	k := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))
	// transform 1 == 90 degrees: width/height swap for effective size.
	// Size arrives on the mode event (transform -1), transform on the
	// geometry event.
	tr.OnGeometry(k, 0, 0, 1000, 1920, -1)
	tr.OnGeometry(k, 0, 0, 0, 0, 1)

	if !tr.MatchesSize(1920, 1000) {
		t.Fatal("expected a 1920x1000 window to match a 1000x1920 output rotated 90 degrees")
	}
	if tr.MatchesSize(1000, 1920) {
		t.Fatal("unrotated dims must not match a 90-degree-rotated output")
	}
}

func TestScalePrefersFractionalOverInteger(t *testing.T) {
	tr := newTracker()
	s := store.New()
	k := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))
	tr.SetScale(k, 2)
	tr.SetPreferredFractionalScale(k, 150) // 150/120 == 1.25 -> floors to 1

	info, ok := tr.Info(k)
	if !ok {
		t.Fatal("expected output to be tracked")
	}
	if got := info.Scale(); got != 1 {
		t.Fatalf("got scale %d, want 1 (fractional preference wins over integer)", got)
	}
}

func TestOutputAtResolvesPoint(t *testing.T) {
	tr := newTracker()
	s := store.New()
	k := s.Insert(store.NewOutput(store.ObjectKey{}, store.OutputData{}))
	tr.OnGeometry(k, 0, 0, 1000, 1000, -1)
	tr.OnGeometry(k, -500, -500, 0, 0, 0)

	if got, ok := tr.OutputAt(10, 10); !ok || got != k {
		t.Fatalf("expected point (10,10) to resolve to the only output, got %v ok=%v", got, ok)
	}
	if _, ok := tr.OutputAt(5000, 5000); ok {
		t.Fatal("expected a point outside every output to resolve to nothing")
	}
}
