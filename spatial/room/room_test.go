package room

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/internal/testutil"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/pose"
)

func newTestRoom(t *testing.T, opts ...Option) *Room {
	t.Helper()
	r, err := New(core.ProcessorConfig{SampleRate: testRate, BlockSize: testBlock}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// renderRoom drives an impulse through both sends and returns the W channel.
func renderRoom(t *testing.T, r *Room, blocks int) []float64 {
	t.Helper()
	var w []float64
	bus := core.NewPlanar(4, testBlock)
	for _, in := range testutil.Blocks(testutil.Impulse(blocks*testBlock, 0), testBlock) {
		core.ZeroPlanar(bus)
		if err := r.ProcessBlock(in, in, bus); err != nil {
			t.Fatal(err)
		}
		w = append(w, bus[0]...)
	}
	return w
}

func TestRoomSendGain(t *testing.T) {
	r := newTestRoom(t)
	if err := r.SetProperties(Geometry{10, 5, 10}, UniformMaterials(MaterialUniform)); err != nil {
		t.Fatal(err)
	}

	testutil.RequireNearlyEqual(t, "inside", r.SendGain(pose.Vector3{0, 0, 0}), 1, 1e-12)
	testutil.RequireNearlyEqual(t, "half metre out", r.SendGain(pose.Vector3{0, 0, 5.5}), 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, "far", r.SendGain(pose.Vector3{0, 0, 8}), 0, 1e-12)
	testutil.RequireNearlyEqual(t, "distance", r.DistanceOutsideRoom(pose.Vector3{0, 0, 8}), 3, 1e-12)
}

func TestRoomDefaultsToOpenSpace(t *testing.T) {
	r := newTestRoom(t)
	if r.Durations() != [Bands]float64{} {
		t.Fatalf("Durations() = %v, want zeros", r.Durations())
	}
	testutil.RequireSilent(t, renderRoom(t, r, 4))
}

func TestRoomRendersReverb(t *testing.T) {
	r := newTestRoom(t, WithSeed(3))
	if err := r.SetProperties(Geometry{6, 3, 6}, UniformMaterials("plaster-smooth")); err != nil {
		t.Fatal(err)
	}
	if r.Durations()[5] <= 0 {
		t.Fatalf("1 kHz duration = %v, want > 0", r.Durations()[5])
	}

	w := renderRoom(t, r, 64)
	testutil.RequireFinite(t, w)
	if testutil.Energy(w) == 0 {
		t.Fatal("room rendered silence")
	}
}

func TestRoomListenerOutsideMutesOutput(t *testing.T) {
	r := newTestRoom(t)
	if err := r.SetProperties(Geometry{6, 3, 6}, UniformMaterials(MaterialUniform)); err != nil {
		t.Fatal(err)
	}
	r.SetListenerPosition(pose.Vector3{0, 0, 10})
	testutil.RequireNearlyEqual(t, "gain", r.OutputGain(), 0, 1e-12)

	// one block to ramp down, then silence
	renderRoom(t, r, 1)
	testutil.RequireSilent(t, renderRoom(t, r, 16))
}

func TestRoomSpeedOfSound(t *testing.T) {
	r := newTestRoom(t, WithSpeedOfSound(686))
	if err := r.SetProperties(Geometry{4, 4, 4}, UniformMaterials(MaterialUniform)); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNearlyEqual(t, "delay", r.Early().Delay(Left), 3.0/686, 1e-12)

	if _, err := New(core.DefaultProcessorConfig(), WithSpeedOfSound(-1)); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestRoomProcessBlockErrors(t *testing.T) {
	r := newTestRoom(t)
	good := make([]float64, testBlock)

	if err := r.ProcessBlock(good[:4], good, core.NewPlanar(4, testBlock)); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("short send: err = %v", err)
	}
	if err := r.ProcessBlock(good, good, core.NewPlanar(1, testBlock)); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("narrow bus: err = %v", err)
	}
	if err := r.ProcessBlock(good, good, core.NewPlanar(4, 8)); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("short bus: err = %v", err)
	}
}
