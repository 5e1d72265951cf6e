package webdemo

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/spatial/manager"
)

func newTestEngine(t *testing.T, backend string) *Engine {
	t.Helper()
	e, err := NewEngine(Options{Backend: backend})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = e.Dispose() })
	return e
}

func constant(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEngineRendersPushedAudio(t *testing.T) {
	e := newTestEngine(t, "direct")
	if err := e.Join("a", "Alice"); err != nil {
		t.Fatal(err)
	}
	if err := e.Attach("a", true); err != nil {
		t.Fatal(err)
	}
	if err := e.PushSamples("a", constant(0.25, 2*e.BlockSize())); err != nil {
		t.Fatal(err)
	}
	e.Tick(0)

	dst := make([]float32, 4*e.BlockSize()+3)
	n, err := e.Render(dst)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n != 2*e.BlockSize() {
		t.Fatalf("frames = %d, want %d", n, 2*e.BlockSize())
	}
	block := e.BlockSize()
	for i, v := range dst[2*block : 2*n] {
		if math.Abs(float64(v)-0.25) > 1e-6 {
			t.Fatalf("sample %d = %v, want 0.25", i, v)
		}
	}

	// The queue is drained; the next block is silent.
	n, _ = e.Render(dst[:2*e.BlockSize()])
	for i, v := range dst[:2*n] {
		if v != 0 {
			t.Fatalf("sample %d = %v after underrun, want 0", i, v)
		}
	}
}

func TestEngineMuteAndLeave(t *testing.T) {
	e := newTestEngine(t, "direct")
	if err := e.Join("a", "A"); err != nil {
		t.Fatal(err)
	}
	if err := e.PushSamples("a", constant(1, 4)); !errors.Is(err, manager.ErrUnknownUser) {
		t.Fatalf("push before attach: err = %v", err)
	}
	if err := e.Attach("a", true); err != nil {
		t.Fatal(err)
	}
	if err := e.Attach("a", false); err != nil {
		t.Fatal(err)
	}
	if got := e.Users()[0].State; got != manager.StateMuted {
		t.Fatalf("state = %v, want muted", got)
	}
	if err := e.Attach("a", true); err != nil {
		t.Fatal(err)
	}
	if got := e.Users()[0].State; got != manager.StateStreaming {
		t.Fatalf("state = %v, want streaming", got)
	}

	if err := e.Leave("a"); err != nil {
		t.Fatal(err)
	}
	if err := e.PushSamples("a", constant(1, 4)); err == nil {
		t.Fatal("push after leave should fail")
	}
	if len(e.Users()) != 0 {
		t.Fatalf("users = %v", e.Users())
	}
}

func TestEnginePosesAndRoom(t *testing.T) {
	e := newTestEngine(t, "scene")
	if err := e.Join("a", "A"); err != nil {
		t.Fatal(err)
	}
	e.SetAudioProperties(1, 50, "linear", 0)
	if err := e.SetPose("a", []float64{1, 0, -1}); err != nil {
		t.Fatal(err)
	}
	if err := e.SetPose("a", []float64{1, 0}); err == nil {
		t.Fatal("expected error for short pose tuple")
	}
	if err := e.SetListener([]float64{0, 0, 0, 0, 0, -1, 0, 1, 0}); err != nil {
		t.Fatal(err)
	}
	e.Tick(1)
	if p := e.Users()[0].Pose.Position; p[0] != 1 || p[2] != -1 {
		t.Fatalf("pose = %v", p)
	}

	if err := e.SetRoom(5, 3, 4, "wood-panel"); err != nil {
		t.Fatalf("SetRoom: %v", err)
	}
	if err := e.SetMode("bypass"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if err := e.SetMode("surround"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestEngineActivityEvents(t *testing.T) {
	e := newTestEngine(t, "direct")
	if err := e.Join("a", "A"); err != nil {
		t.Fatal(err)
	}
	if err := e.Attach("a", true); err != nil {
		t.Fatal(err)
	}

	tone := make([]float32, 1024)
	for i := range tone {
		tone[i] = float32(0.5 * math.Sin(2*math.Pi*187.5*float64(i)/48000))
	}
	dst := make([]float32, 2*1024)

	var events []manager.ActivityEvent
	for tick := range 10 {
		if err := e.PushSamples("a", tone); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Render(dst); err != nil {
			t.Fatal(err)
		}
		events = append(events, e.Tick(float64(tick))...)
	}
	if len(events) != 1 || events[0] != (manager.ActivityEvent{ID: "a", IsActive: true}) {
		t.Fatalf("events = %+v", events)
	}
}

func TestEngineSpectrum(t *testing.T) {
	e := newTestEngine(t, "direct")
	if err := e.Join("a", "A"); err != nil {
		t.Fatal(err)
	}
	if err := e.Attach("a", true); err != nil {
		t.Fatal(err)
	}
	tone := make([]float32, spectrumSize)
	for i := range tone {
		tone[i] = float32(0.5 * math.Sin(2*math.Pi*1500*float64(i)/48000))
	}
	if err := e.PushSamples("a", tone); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Render(make([]float32, 2*spectrumSize)); err != nil {
		t.Fatal(err)
	}

	bins := make([]float32, spectrumSize/2)
	n, err := e.Spectrum(bins)
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	if n != spectrumSize/2 {
		t.Fatalf("bins = %d", n)
	}
	// 1500 Hz sits on bin 64 of a 2048-point window at 48 kHz.
	if bins[64] == 0 {
		t.Fatal("no energy at the tone bin")
	}
	for k, v := range bins {
		if v > bins[64] {
			t.Fatalf("bin %d = %v exceeds tone bin %v", k, v, bins[64])
		}
	}
}

func TestNewEngineErrors(t *testing.T) {
	if _, err := NewEngine(Options{Backend: "holographic"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := NewEngine(Options{BlockSize: 100}); err == nil {
		t.Fatal("expected error for non power-of-two block")
	}
}
