package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/spatial/activity"
	"github.com/cwbudde/algo-spatial/spatial/binaural"
	"github.com/cwbudde/algo-spatial/spatial/output"
	"github.com/cwbudde/algo-spatial/spatial/pose"
	"github.com/cwbudde/algo-spatial/spatial/render"
	"github.com/cwbudde/algo-spatial/spatial/room"
	"github.com/cwbudde/algo-spatial/spatial/source"
)

// Manager errors.
var (
	ErrUnknownUser = errors.New("manager: unknown user")
	ErrUserExists  = errors.New("manager: user already joined")
	ErrDisposed    = errors.New("manager: disposed")
	ErrNoSink      = errors.New("manager: no output sink")
	ErrNotScene    = errors.New("manager: backend has no scene renderer")
)

// State is the lifecycle state of a user.
type State int

const (
	// StateJoined users are known but have never had a stream.
	StateJoined State = iota
	// StateStreaming users contribute audio every block.
	StateStreaming
	// StateMuted users keep their source but contribute silence.
	StateMuted
)

func (s State) String() string {
	switch s {
	case StateJoined:
		return "joined"
	case StateStreaming:
		return "streaming"
	case StateMuted:
		return "muted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// User is a snapshot of one participant.
type User struct {
	ID       string
	Name     string
	State    State
	IsActive bool
	Pose     pose.Pose
}

type user struct {
	id, name string
	pose     *pose.InterpolatedPose
	src      *source.Source
	analyser *activity.Analyser
	stream   output.CaptureStream
	block    []float64
	ended    bool
}

func (u *user) state() State {
	switch {
	case u.src == nil:
		return StateJoined
	case u.stream == nil:
		return StateMuted
	}
	return StateStreaming
}

// Manager owns the listener, the users and the shared spatializer. All
// methods are safe for concurrent use; the render work itself runs on the
// goroutine calling Render.
type Manager struct {
	mu sync.Mutex

	spat       render.Spatializer
	processor  core.ProcessorConfig
	sink       output.Sink
	onActivity func(ActivityEvent)

	listener *pose.InterpolatedPose
	users    map[string]*user
	inputs   map[string][]float64
	events   []ActivityEvent
	now      float64
	disposed bool
}

// New builds the spatializer selected by opts. HRIR loading for the scene
// backend starts with Initialize.
func New(opts ...Option) (*Manager, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	rcfg, err := render.ApplyOptions(cfg.Render...)
	if err != nil {
		return nil, err
	}
	spat, err := render.NewSpatializer(cfg.Backend, cfg.Render...)
	if err != nil {
		return nil, err
	}
	spat.SetAudioProperties(cfg.Properties)

	m := &Manager{
		spat:       spat,
		processor:  rcfg.Processor,
		sink:       cfg.Sink,
		onActivity: cfg.OnActivity,
		listener:   pose.NewInterpolated(pose.Default()),
		users:      make(map[string]*user),
		inputs:     make(map[string][]float64),
	}
	spat.Update(m.listener.Current)
	return m, nil
}

// Initialize starts asynchronous backend setup, such as HRIR loading.
func (m *Manager) Initialize(ctx context.Context) *binaural.Future {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spat.Initialize(ctx)
}

// Spatializer returns the shared backend.
func (m *Manager) Spatializer() render.Spatializer { return m.spat }

// BlockSize returns the number of frames Render expects.
func (m *Manager) BlockSize() int { return m.processor.BlockSize }

// SampleRate returns the engine sample rate.
func (m *Manager) SampleRate() float64 { return m.processor.SampleRate }

// Join registers a user. The user has no source until a stream is
// attached.
func (m *Manager) Join(id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if _, ok := m.users[id]; ok {
		return fmt.Errorf("%w: %q", ErrUserExists, id)
	}
	m.users[id] = &user{
		id:   id,
		name: name,
		pose: pose.NewInterpolated(pose.Pose{T: m.now, Forward: pose.Forward, Up: pose.Up}),
	}

	logrus.WithFields(logrus.Fields{
		"function": "Join",
		"user":     id,
		"name":     name,
	}).Info("User joined")
	return nil
}

// AttachStream starts streaming from s. The first attach creates the
// user's source and activity analyser. A nil stream mutes the user;
// attaching again unmutes.
func (m *Manager) AttachStream(id string, s output.CaptureStream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, id)
	}

	if u.src == nil && s != nil {
		src, err := m.spat.CreateSource(id)
		if err != nil {
			return err
		}
		a, err := activity.New(m.processor.SampleRate)
		if err != nil {
			_ = m.spat.RemoveSource(id)
			return err
		}
		a.OnChange(func(active bool) {
			m.events = append(m.events, ActivityEvent{ID: id, IsActive: active})
		})
		src.SetPose(u.pose.Current)
		u.src = src
		u.analyser = a
		u.block = make([]float64, m.processor.BlockSize)
	}
	u.stream = s
	u.ended = false

	logrus.WithFields(logrus.Fields{
		"function": "AttachStream",
		"user":     id,
		"state":    u.state().String(),
	}).Debug("User stream changed")
	return nil
}

// Leave disposes the user's source and forgets the user.
func (m *Manager) Leave(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, id)
	}
	if u.src != nil {
		if err := m.spat.RemoveSource(id); err != nil {
			return err
		}
		u.analyser.OnChange(nil)
	}
	delete(m.users, id)
	delete(m.inputs, id)

	logrus.WithFields(logrus.Fields{
		"function": "Leave",
		"user":     id,
	}).Info("User left")
	return nil
}

// ApplyPose moves a user towards msg over the current transition time.
func (m *Manager) ApplyPose(id string, msg PoseMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, id)
	}
	u.pose.SetTargetPose(msg.pose(m.now), m.spat.AudioProperties().TransitionTime)
	return nil
}

// ApplyListenerPose moves the listener towards msg over the current
// transition time.
func (m *Manager) ApplyListenerPose(msg PoseMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener.SetTargetPose(msg.pose(m.now), m.spat.AudioProperties().TransitionTime)
}

// SetAudioProperties changes the distance model of every current and
// future source.
func (m *Manager) SetAudioProperties(p render.AudioProperties) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spat.SetAudioProperties(p)
}

// AudioProperties returns the current distance model.
func (m *Manager) AudioProperties() render.AudioProperties {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spat.AudioProperties()
}

// Update advances the clock to t seconds, moves every pose and runs one
// activity tick per streaming user. Activity events are delivered before
// Update returns.
func (m *Manager) Update(t float64) {
	events := m.update(t)
	if m.onActivity == nil {
		return
	}
	for _, ev := range events {
		m.onActivity(ev)
	}
}

func (m *Manager) update(t float64) []ActivityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil
	}
	m.now = t

	for _, id := range slices.Sorted(maps.Keys(m.users)) {
		u := m.users[id]
		p := u.pose.Update(t)
		if u.src == nil {
			continue
		}
		u.src.SetPose(p)
		if _, err := u.analyser.Update(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Update",
				"user":     id,
				"error":    err,
			}).Warn("Activity analysis failed")
		}
	}
	m.spat.Update(m.listener.Update(t))

	events := m.events
	m.events = nil
	return events
}

// Render produces one block for the listener and writes it to the sink.
// Streams that return short reads are padded with silence; a stream that
// ends or fails goes silent until a new one is attached.
func (m *Manager) Render(left, right []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}

	clear(m.inputs)
	for id, u := range m.users {
		if u.src == nil {
			continue
		}
		m.pull(u)
		u.analyser.Write(u.block)
		m.inputs[id] = u.block
	}

	if err := m.spat.Render(m.inputs, left, right); err != nil {
		return err
	}
	if m.sink == nil {
		return nil
	}
	if err := m.sink.Write(left, right); err != nil {
		return fmt.Errorf("manager: sink: %w", err)
	}
	return nil
}

func (m *Manager) pull(u *user) {
	if u.stream == nil || u.ended {
		clear(u.block)
		return
	}
	n, err := u.stream.ReadSamples(u.block)
	clear(u.block[n:])
	if err == nil {
		return
	}

	u.ended = true
	fields := logrus.Fields{"function": "Render", "user": u.id}
	if errors.Is(err, io.EOF) {
		logrus.WithFields(fields).Debug("Capture stream ended")
		return
	}
	fields["error"] = err
	logrus.WithFields(fields).Warn("Capture stream failed, user silenced")
}

// SetOutputDevice forwards a device selection to the sink.
func (m *Manager) SetOutputDevice(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return ErrNoSink
	}
	return m.sink.SelectDevice(id)
}

// SetRoom changes the scene room. Other backends have no room.
func (m *Manager) SetRoom(g room.Geometry, mat room.Materials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.renderer()
	if err != nil {
		return err
	}
	return r.SetRoom(g, mat)
}

// SetRenderingMode switches the scene between ambisonic, bypass and off.
func (m *Manager) SetRenderingMode(mode render.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.renderer()
	if err != nil {
		return err
	}
	r.SetRenderingMode(mode)
	return nil
}

func (m *Manager) renderer() (*render.Renderer, error) {
	scene, ok := m.spat.(*render.SceneSpatializer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotScene, m.spat.Kind())
	}
	return scene.Renderer(), nil
}

// User returns a snapshot of one user.
func (m *Manager) User(id string) (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, false
	}
	return snapshot(u), true
}

// Users returns snapshots of every user ordered by id.
func (m *Manager) Users() []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, id := range slices.Sorted(maps.Keys(m.users)) {
		out = append(out, snapshot(m.users[id]))
	}
	return out
}

func snapshot(u *user) User {
	out := User{ID: u.id, Name: u.name, State: u.state(), Pose: u.pose.Current}
	if u.analyser != nil {
		out.IsActive = u.analyser.IsActive()
	}
	return out
}

// ListenerPose returns the interpolated listener pose at the last Update.
func (m *Manager) ListenerPose() pose.Pose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener.Current
}

// Dispose releases the spatializer and closes the sink. Further calls are
// no-ops.
func (m *Manager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil
	}
	m.disposed = true
	m.spat.Dispose()
	clear(m.users)
	clear(m.inputs)

	logrus.WithFields(logrus.Fields{"function": "Dispose"}).Info("Manager disposed")
	if m.sink == nil {
		return nil
	}
	if err := m.sink.Close(); err != nil {
		return fmt.Errorf("manager: sink: %w", err)
	}
	return nil
}
