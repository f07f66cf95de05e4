package relay_test

import (
	"testing"

	"xwaylandbridge/internal/relay"
)

func TestScaleMultipliesCoordinates(t *testing.T) {
	s := relay.Scale(3)
	var got [2]int32
	relay.Forward(s, [2]int32{2, 5}, func(out [2]int32) { got = out })
	if got != [2]int32{6, 15} {
		t.Fatalf("got %v, want {6,15}", got)
	}
}

func TestScaleFloorsBelowOne(t *testing.T) {
	s := relay.Scale(0)
	var got [2]int32
	relay.Forward(s, [2]int32{4, 4}, func(out [2]int32) { got = out })
	if got != [2]int32{4, 4} {
		t.Fatalf("got %v, want {4,4} (scale clamped to 1)", got)
	}
}

func TestIdentityIsPassthrough(t *testing.T) {
	s := relay.Identity[relay.RegionOp]()
	in := relay.RegionOp{X: 1, Y: 2, Width: 3, Height: 4}
	var got relay.RegionOp
	relay.Forward(s, in, func(out relay.RegionOp) { got = out })
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

// Re-issuing the same region op twice must produce identical results
// each time.
func TestRegionOpIdempotent(t *testing.T) {
	in := relay.RegionOp{X: 10, Y: 20, Width: 30, Height: 40}
	s := relay.Identity[relay.RegionOp]()
	var first, second relay.RegionOp
	relay.Forward(s, in, func(out relay.RegionOp) { first = out })
	relay.Forward(s, in, func(out relay.RegionOp) { second = out })
	if first != second {
		t.Fatalf("got %+v then %+v, expected identical repeats", first, second)
	}
}
