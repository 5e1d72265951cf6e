package binaural

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-spatial/internal/testutil"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/ambisonic"
)

const testBlock = 16

// impulseSet returns an order-1 set whose channel k filter is gains[k]
// times a unit impulse delayed by delay samples.
func impulseSet(t *testing.T, gains [4]float64, delay int) *HRIRSet {
	t.Helper()

	filter := func(g float64) []float64 {
		h := make([]float64, delay+1)
		h[delay] = g
		return h
	}
	set, err := NewHRIRSet([]Pair{
		{Even: filter(gains[0]), Odd: filter(gains[1])},
		{Even: filter(gains[2]), Odd: filter(gains[3])},
	}, 48000)
	if err != nil {
		t.Fatalf("NewHRIRSet: %v", err)
	}
	return set
}

// impulseBus returns a bus where channel k carries amps[k] at sample 0.
func impulseBus(amps []float64) [][]float64 {
	bus := make([][]float64, len(amps))
	for k, a := range amps {
		bus[k] = make([]float64, testBlock)
		bus[k][0] = a
	}
	return bus
}

func newTestConvolver(t *testing.T, order int) *Convolver {
	t.Helper()
	c, err := NewConvolver(order, testBlock)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}
	return c
}

func TestConvolverSymmetricRecombination(t *testing.T) {
	c := newTestConvolver(t, 1)
	if ok, err := c.SetHRIRSet(impulseSet(t, [4]float64{1, 0.5, 0.2, 0.25}, 0)); !ok || err != nil {
		t.Fatalf("SetHRIRSet = %v, %v", ok, err)
	}

	// channels W, Y, Z, X; only Y has m < 0
	bus := impulseBus([]float64{1, 2, 3, 4})
	left := make([]float64, testBlock)
	right := make([]float64, testBlock)
	if err := c.ProcessBlock(bus, left, right); err != nil {
		t.Fatal(err)
	}

	pos := 1*1.0 + 3*0.2 + 4*0.25
	neg := 2 * 0.5
	testutil.RequireNearlyEqual(t, "left", left[0], pos+neg, 1e-12)
	testutil.RequireNearlyEqual(t, "right", right[0], pos-neg, 1e-12)
	testutil.RequireSilent(t, left[1:])
	testutil.RequireSilent(t, right[1:])
}

func TestConvolverKeepsFirstHRIRSet(t *testing.T) {
	c := newTestConvolver(t, 1)
	first := impulseSet(t, [4]float64{1, 0, 0, 0}, 0)
	second := impulseSet(t, [4]float64{-3, 0, 0, 0}, 2)

	if ok, err := c.SetHRIRSet(first); !ok || err != nil {
		t.Fatalf("first SetHRIRSet = %v, %v", ok, err)
	}
	if ok, err := c.SetHRIRSet(second); ok || err != nil {
		t.Fatalf("second SetHRIRSet = %v, %v; want false, nil", ok, err)
	}
	if c.HRIRSet() != first {
		t.Fatal("second assignment replaced the set")
	}

	left := make([]float64, testBlock)
	right := make([]float64, testBlock)
	if err := c.ProcessBlock(impulseBus([]float64{1, 0, 0, 0}), left, right); err != nil {
		t.Fatal(err)
	}
	want := testutil.Impulse(testBlock, 0)
	testutil.RequireSliceNearlyEqual(t, left, want, 1e-12)
	testutil.RequireSliceNearlyEqual(t, right, want, 1e-12)
}

func TestConvolverRejectsWrongLength(t *testing.T) {
	c := newTestConvolver(t, 2)
	set := impulseSet(t, [4]float64{1, 1, 1, 1}, 0)

	ok, err := c.SetHRIRSet(set)
	if ok || !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("SetHRIRSet = %v, %v; want false, ErrConfiguration", ok, err)
	}
	if c.Loaded() {
		t.Fatal("rejected set was kept")
	}

	// a valid set is still accepted afterwards
	def, err := DefaultHRIRSet(2, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := c.SetHRIRSet(def); !ok || err != nil {
		t.Fatalf("SetHRIRSet(default) = %v, %v", ok, err)
	}
}

func TestConvolverSilentUntilLoadedAndWhenDisabled(t *testing.T) {
	c := newTestConvolver(t, 1)
	left := testutil.DC(1, testBlock)
	right := testutil.DC(1, testBlock)
	bus := impulseBus([]float64{1, 1, 1, 1})

	if err := c.ProcessBlock(bus, left, right); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSilent(t, left)
	testutil.RequireSilent(t, right)

	if _, err := c.SetHRIRSet(impulseSet(t, [4]float64{1, 0, 0, 0}, 0)); err != nil {
		t.Fatal(err)
	}

	c.Disable()
	c.Disable()
	if c.Enabled() {
		t.Fatal("still enabled after Disable")
	}
	if err := c.ProcessBlock(bus, left, right); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSilent(t, left)

	c.Enable()
	c.Enable()
	if err := c.ProcessBlock(bus, left, right); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNearlyEqual(t, "left", left[0], 1, 1e-12)
}

func TestConvolverNoStaleTailAfterReenable(t *testing.T) {
	c := newTestConvolver(t, 1)
	if _, err := c.SetHRIRSet(impulseSet(t, [4]float64{1, 0, 0, 0}, testBlock+3)); err != nil {
		t.Fatal(err)
	}
	left := make([]float64, testBlock)
	right := make([]float64, testBlock)

	// the impulse would come out in the next block
	if err := c.ProcessBlock(impulseBus([]float64{1, 0, 0, 0}), left, right); err != nil {
		t.Fatal(err)
	}
	c.Disable()
	c.Enable()
	if err := c.ProcessBlock(impulseBus([]float64{0, 0, 0, 0}), left, right); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSilent(t, left)
}

func TestConvolverErrors(t *testing.T) {
	if _, err := NewConvolver(4, testBlock); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("order 4: err = %v", err)
	}
	if _, err := NewConvolver(1, 100); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("block 100: err = %v", err)
	}

	c := newTestConvolver(t, 2)
	if _, err := c.SetHRIRSet(nil); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("nil set: err = %v", err)
	}
	def, _ := DefaultHRIRSet(2, 48000)
	if _, err := c.SetHRIRSet(def); err != nil {
		t.Fatal(err)
	}
	left := make([]float64, testBlock)
	right := make([]float64, testBlock)
	if err := c.ProcessBlock(make([][]float64, 4), left, right); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("short bus: err = %v", err)
	}
}

func TestPairCount(t *testing.T) {
	for order, want := range map[int]int{1: 2, 2: 5, 3: 8} {
		if got := PairCount(order); got != want {
			t.Fatalf("PairCount(%d) = %d, want %d", order, got, want)
		}
		if got := ambisonic.ChannelCount(order); (got+1)/2 != want {
			t.Fatalf("channel count %d does not split into %d pairs", got, want)
		}
	}
}

func TestHRIRSetIsCopied(t *testing.T) {
	even := []float64{1, 2}
	set, err := NewHRIRSet([]Pair{{Even: even}}, 48000)
	if err != nil {
		t.Fatal(err)
	}
	even[0] = 99
	if set.Filter(0)[0] != 1 {
		t.Fatal("HRIRSet shares memory with its input")
	}
	if set.Filter(1) != nil || set.Filter(2) != nil {
		t.Fatal("missing filters should be nil")
	}
	if _, err := NewHRIRSet(nil, 48000); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("empty: err = %v", err)
	}
	if _, err := NewHRIRSet([]Pair{{Odd: even}}, 48000); !errors.Is(err, spatial.ErrConfiguration) {
		t.Fatalf("no even filter: err = %v", err)
	}
}
