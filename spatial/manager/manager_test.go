package manager

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/internal/testutil"
	"github.com/cwbudde/algo-spatial/spatial"
	"github.com/cwbudde/algo-spatial/spatial/activity"
	"github.com/cwbudde/algo-spatial/spatial/output"
	"github.com/cwbudde/algo-spatial/spatial/render"
	"github.com/cwbudde/algo-spatial/spatial/room"
)

const testBlock = 128

func newTestManager(t *testing.T, kind render.Kind, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{
		WithBackend(kind),
		WithRenderOptions(render.WithProcessor(core.WithBlockSize(testBlock))),
	}, opts...)
	m, err := New(opts...)
	require.NoError(t, err)
	_, err = m.Initialize(context.Background()).Wait(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Dispose() })
	return m
}

func renderBlock(t *testing.T, m *Manager) (left, right []float64) {
	t.Helper()
	left = make([]float64, testBlock)
	right = make([]float64, testBlock)
	require.NoError(t, m.Render(left, right))
	return left, right
}

func TestUserLifecycle(t *testing.T) {
	m := newTestManager(t, render.KindDirect)

	require.NoError(t, m.Join("a", "Alice"))
	require.ErrorIs(t, m.Join("a", "again"), ErrUserExists)
	require.ErrorIs(t, m.AttachStream("b", output.NewSliceStream([]float64{1}, true)), ErrUnknownUser)

	u, ok := m.User("a")
	require.True(t, ok)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, StateJoined, u.State)
	_, ok = m.Spatializer().Source("a")
	assert.False(t, ok, "no source before a stream arrives")

	require.NoError(t, m.AttachStream("a", output.NewSliceStream([]float64{1}, true)))
	u, _ = m.User("a")
	assert.Equal(t, StateStreaming, u.State)
	_, ok = m.Spatializer().Source("a")
	assert.True(t, ok)

	require.NoError(t, m.AttachStream("a", nil))
	u, _ = m.User("a")
	assert.Equal(t, StateMuted, u.State)

	require.NoError(t, m.AttachStream("a", output.NewSliceStream([]float64{1}, true)))
	u, _ = m.User("a")
	assert.Equal(t, StateStreaming, u.State)

	require.NoError(t, m.Leave("a"))
	require.ErrorIs(t, m.Leave("a"), ErrUnknownUser)
	_, ok = m.Spatializer().Source("a")
	assert.False(t, ok)
	assert.Empty(t, m.Users())

	require.NoError(t, m.Join("a", "Alice"), "rejoin after leave")
}

func TestUsersOrderedByID(t *testing.T) {
	m := newTestManager(t, render.KindDirect)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, m.Join(id, id))
	}
	var ids []string
	for _, u := range m.Users() {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRenderMixesStreamsIntoSink(t *testing.T) {
	sink := output.NewNullSink()
	m := newTestManager(t, render.KindDirect, WithSink(sink))

	require.NoError(t, m.Join("a", "A"))
	require.NoError(t, m.Join("b", "B"))
	require.NoError(t, m.AttachStream("a", output.NewSliceStream(testutil.DC(0.25, 64), true)))
	require.NoError(t, m.AttachStream("b", output.NewSliceStream(testutil.DC(0.5, 64), true)))
	m.Update(0)

	renderBlock(t, m)
	left, right := renderBlock(t, m)
	assert.Equal(t, left, right)
	for _, v := range left {
		assert.InDelta(t, 0.75, v, 1e-12)
	}
	assert.EqualValues(t, 2*testBlock, sink.Frames())
}

func TestShortReadsArePadded(t *testing.T) {
	m := newTestManager(t, render.KindDirect)
	push := output.NewPushStream(0)
	require.NoError(t, m.Join("a", "A"))
	require.NoError(t, m.AttachStream("a", push))
	m.Update(0)
	renderBlock(t, m)

	require.NoError(t, push.Push(testutil.DC(1, 10)))
	left, _ := renderBlock(t, m)
	for i, v := range left {
		want := 0.0
		if i < 10 {
			want = 1
		}
		assert.InDelta(t, want, v, 1e-12, "sample %d", i)
	}
}

func TestMutedAndEndedUsersAreSilent(t *testing.T) {
	m := newTestManager(t, render.KindDirect)
	require.NoError(t, m.Join("a", "A"))
	require.NoError(t, m.AttachStream("a", output.NewSliceStream(testutil.DC(1, testBlock), false)))
	m.Update(0)

	left, _ := renderBlock(t, m)
	assert.InDelta(t, 1, left[testBlock-1], 1e-12)

	left, _ = renderBlock(t, m)
	testutil.RequireSilent(t, left)

	require.NoError(t, m.AttachStream("a", output.NewSliceStream(testutil.DC(1, testBlock), true)))
	left, _ = renderBlock(t, m)
	assert.InDelta(t, 1, left[0], 1e-12)

	require.NoError(t, m.AttachStream("a", nil))
	left, _ = renderBlock(t, m)
	testutil.RequireSilent(t, left)
}

func TestPannerFollowsPoses(t *testing.T) {
	m := newTestManager(t, render.KindPanner, WithAudioProperties(render.AudioProperties{
		MinDistance: 1, MaxDistance: 100, TransitionTime: 0,
	}))
	require.NoError(t, m.Join("a", "A"))
	require.NoError(t, m.AttachStream("a", output.NewSliceStream(testutil.DC(1, testBlock), true)))

	msg, err := PoseFromTuple([]float64{-1, 0, 0})
	require.NoError(t, err)
	require.NoError(t, m.ApplyPose("a", msg))
	m.Update(0)

	renderBlock(t, m)
	left, right := renderBlock(t, m)
	assert.InDelta(t, 1, left[testBlock-1], 1e-9)
	assert.InDelta(t, 0, right[testBlock-1], 1e-9)

	// Turning the listener around swaps the ears.
	m.ApplyListenerPose(PoseMessage{Forward: [3]float64{0, 0, 1}, Up: [3]float64{0, 1, 0}})
	m.Update(0.01)
	renderBlock(t, m)
	left, right = renderBlock(t, m)
	assert.InDelta(t, 0, left[testBlock-1], 1e-9)
	assert.InDelta(t, 1, right[testBlock-1], 1e-9)

	require.ErrorIs(t, m.ApplyPose("nobody", msg), ErrUnknownUser)
}

func TestPosesInterpolateOverTransitionTime(t *testing.T) {
	m := newTestManager(t, render.KindDirect, WithAudioProperties(render.AudioProperties{
		MinDistance: 1, MaxDistance: 100, TransitionTime: 1,
	}))
	require.NoError(t, m.Join("a", "A"))
	m.Update(2)

	msg := DefaultPoseMessage()
	msg.Position = [3]float64{4, 0, 0}
	require.NoError(t, m.ApplyPose("a", msg))
	m.ApplyListenerPose(msg)

	m.Update(2.25)
	u, _ := m.User("a")
	assert.InDelta(t, 1, u.Pose.Position.X(), 1e-9)
	assert.InDelta(t, 1, m.ListenerPose().Position.X(), 1e-9)

	m.Update(5)
	u, _ = m.User("a")
	assert.InDelta(t, 4, u.Pose.Position.X(), 1e-9)
}

func TestAudioPropertiesBroadcast(t *testing.T) {
	m := newTestManager(t, render.KindPanner)
	require.NoError(t, m.Join("a", "A"))
	require.NoError(t, m.AttachStream("a", output.NewSliceStream([]float64{1}, true)))

	props := render.AudioProperties{MinDistance: 2, MaxDistance: 20, TransitionTime: 0.5}
	m.SetAudioProperties(props)
	assert.Equal(t, props, m.AudioProperties())

	require.NoError(t, m.Join("b", "B"))
	require.NoError(t, m.AttachStream("b", output.NewSliceStream([]float64{1}, true)))
	for _, id := range []string{"a", "b"} {
		src, ok := m.Spatializer().Source(id)
		require.True(t, ok)
		assert.Equal(t, 2.0, src.Attenuation().MinDistance(), id)
	}
}

func TestActivityEvents(t *testing.T) {
	var events []ActivityEvent
	m := newTestManager(t, render.KindDirect, WithActivityHandler(func(ev ActivityEvent) {
		events = append(events, ev)
	}))
	require.NoError(t, m.Join("talker", "T"))
	require.NoError(t, m.Join("quiet", "Q"))

	// 187.5 Hz loops seamlessly over one analysis window.
	tone := testutil.DeterministicSine(187.5, 48000, 0.5, activity.FFTSize)
	require.NoError(t, m.AttachStream("talker", output.NewSliceStream(tone, true)))
	require.NoError(t, m.AttachStream("quiet", output.NewSliceStream(make([]float64, testBlock), true)))

	tick := func(n int) {
		for range n {
			for range activity.FFTSize / testBlock {
				renderBlock(t, m)
			}
			m.Update(0)
		}
	}

	tick(5)
	assert.Empty(t, events)
	tick(1)
	require.Equal(t, []ActivityEvent{{ID: "talker", IsActive: true}}, events)
	u, _ := m.User("talker")
	assert.True(t, u.IsActive)

	require.NoError(t, m.AttachStream("talker", nil))
	for i := 0; i < 200 && len(events) < 2; i++ {
		tick(1)
	}
	require.Equal(t, []ActivityEvent{
		{ID: "talker", IsActive: true},
		{ID: "talker", IsActive: false},
	}, events)
}

func TestSceneBackend(t *testing.T) {
	m := newTestManager(t, render.KindScene)
	require.NoError(t, m.Join("a", "A"))
	require.NoError(t, m.AttachStream("a", output.NewSliceStream(testutil.DeterministicNoise(5, 0.5, 4*testBlock), true)))

	msg := DefaultPoseMessage()
	msg.Position = [3]float64{1, 0, -2}
	require.NoError(t, m.ApplyPose("a", msg))
	m.Update(1)
	require.NoError(t, m.SetRoom(room.Geometry{Width: 4, Height: 3, Depth: 5}, room.DefaultMaterials()))

	var energy float64
	for range 8 {
		left, right := renderBlock(t, m)
		testutil.RequireFinite(t, left)
		testutil.RequireFinite(t, right)
		energy += testutil.Energy(left) + testutil.Energy(right)
	}
	assert.Greater(t, energy, 0.0)

	require.NoError(t, m.SetRenderingMode(render.ModeOff))
	left, right := renderBlock(t, m)
	testutil.RequireSilent(t, left)
	testutil.RequireSilent(t, right)
}

func TestSceneOnlyOperations(t *testing.T) {
	m := newTestManager(t, render.KindPanner)
	require.ErrorIs(t, m.SetRoom(room.Geometry{Width: 1, Height: 1, Depth: 1}, room.DefaultMaterials()), ErrNotScene)
	require.ErrorIs(t, m.SetRenderingMode(render.ModeBypass), ErrNotScene)
}

func TestOutputDevice(t *testing.T) {
	m := newTestManager(t, render.KindDirect)
	require.ErrorIs(t, m.SetOutputDevice("hdmi"), ErrNoSink)

	sink := output.NewNullSink()
	m = newTestManager(t, render.KindDirect, WithSink(sink))
	require.NoError(t, m.SetOutputDevice("hdmi"))
	assert.Equal(t, "hdmi", sink.Device())
}

func TestSinkErrorsAreReturned(t *testing.T) {
	sink := output.NewNullSink()
	require.NoError(t, sink.Close())
	m := newTestManager(t, render.KindDirect, WithSink(sink))
	err := m.Render(make([]float64, testBlock), make([]float64, testBlock))
	require.ErrorIs(t, err, output.ErrClosed)
}

func TestDispose(t *testing.T) {
	sink := output.NewNullSink()
	m := newTestManager(t, render.KindDirect, WithSink(sink))
	require.NoError(t, m.Join("a", "A"))

	require.NoError(t, m.Dispose())
	require.NoError(t, m.Dispose())
	require.ErrorIs(t, m.Render(make([]float64, testBlock), make([]float64, testBlock)), ErrDisposed)
	require.ErrorIs(t, m.Join("b", "B"), ErrDisposed)
	require.ErrorIs(t, sink.Write(nil, nil), output.ErrClosed)
}

func TestConfigErrors(t *testing.T) {
	_, err := New(WithBackend(render.Kind(42)))
	require.ErrorIs(t, err, spatial.ErrConfiguration)

	_, err = New(WithRenderOptions(render.WithAmbisonicOrder(0)))
	require.ErrorIs(t, err, spatial.ErrConfiguration)
}

func TestPoseFromTuple(t *testing.T) {
	msg, err := PoseFromTuple([]float64{1, 2, 3, 1, 0, 0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 3}, msg.Position)
	assert.Equal(t, [3]float64{1, 0, 0}, msg.Forward)
	assert.Equal(t, [3]float64{0, 0, 1}, msg.Up)

	msg, err = PoseFromTuple([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, DefaultPoseMessage().Forward, msg.Forward)

	_, err = PoseFromTuple([]float64{1, 2})
	require.ErrorIs(t, err, spatial.ErrConfiguration)
	_, err = PoseFromTuple([]float64{1, math.NaN(), 3})
	require.ErrorIs(t, err, spatial.ErrConfiguration)
}
