package intersection

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEncode(t *testing.T) {
	c := DefaultConfig()
	c.RayLength = 4
	e := NewObservationEncoder(c)

	// Agent heading along +X, so its right axis is -Z
	w := newFakeWorld()
	w.pose.Forward = r3.Vec{X: 1}
	w.pose.Right = r3.Vec{Z: -1}
	w.velocity = r3.Vec{X: 3, Z: 1}
	w.signals = []Signal{&fakeSignal{stopped: true}}
	w.left, w.leftHit = 1, true
	w.right, w.rightHit = 3, true

	approx := cmpopts.EquateApprox(0, 1e-12)
	tests := []struct {
		name string
		lane Lane
		want []float64
	}{
		{"outgoing", Outgoing, []float64{-1, 3, 1, 0.25, 0.75}},
		{"incoming", Incoming, []float64{-1, 3, 1, 1, 1}},
	}
	for _, test := range tests {
		got := e.Encode(w, test.lane).RawVector().Data
		if diff := cmp.Diff(test.want, got, approx); diff != "" {
			t.Errorf("%s: observation mismatch (-want +got):\n%s", test.name,
				diff)
		}
	}
}

func TestEncodeMissingSensors(t *testing.T) {
	e := NewObservationEncoder(DefaultConfig())

	w := newFakeWorld()
	w.noBody = true
	w.signals = []Signal{&fakeSignal{stopped: false}}

	got := e.Encode(w, Outgoing).RawVector().Data
	want := []float64{0, 0, 0, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observation mismatch (-want +got):\n%s", diff)
	}

	// Hits beyond the ray length are misses
	w.left, w.leftHit = 2.5, true
	w.right, w.rightHit = 1, true
	hits := e.WallDistances(w)
	if hits.LeftHit || hits.Left != 0 || !hits.RightHit || hits.Right != 1 {
		t.Errorf("unexpected wall hits: %+v", hits)
	}
	if hits.Both() {
		t.Error("one missed ray should not count as both hitting")
	}

	// A nil entry in the overlap query is ignored
	w.signals = []Signal{nil}
	if got := e.Encode(w, Outgoing).AtVec(SignalStopped); got != 0 {
		t.Errorf("signal feature: have %v, want 0", got)
	}
	if math.IsNaN(e.Encode(w, Incoming).AtVec(LeftWallRatio)) {
		t.Error("wall ratio should never be NaN")
	}
}

func TestEncodeSignalMask(t *testing.T) {
	w := newFakeWorld()
	w.signals = []Signal{&fakeSignal{stopped: true}}

	c := DefaultConfig()
	if got := NewObservationEncoder(c).Encode(w, Outgoing).AtVec(SignalStopped); got != 1 {
		t.Errorf("signal feature with default mask: have %v, want 1", got)
	}
	if w.signalMask != LayerTrafficLight {
		t.Errorf("signal query mask: have %v, want %v", w.signalMask,
			LayerTrafficLight)
	}

	c.TrafficLightMask = LayerWall
	if got := NewObservationEncoder(c).Encode(w, Outgoing).AtVec(SignalStopped); got != 0 {
		t.Errorf("signal feature with lights masked out: have %v, want 0", got)
	}
	if w.signalMask != LayerWall {
		t.Errorf("signal query mask: have %v, want %v", w.signalMask,
			LayerWall)
	}
}
