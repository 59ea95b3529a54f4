package camera

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Frame is one completed camera image: H x W x 3 (RGB, 8-bit), row-major.
// Pixels is shared with future GetFrame callers and must be treated as
// read-only.
type Frame struct {
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
	Pixels    []uint8
}

const (
	// referenceAltitude is the drone altitude at which objects render at
	// their configured size; higher altitudes shrink them.
	referenceAltitude = 2.0
	// pixelsPerMeter converts drone ground displacement into view panning.
	pixelsPerMeter = 12.0
)

// Stream generates the synthetic camera feed. It runs its own frame loop,
// independent of any drone tick rate, animating its tracking objects from
// wall-clock elapsed time and reacting to the last reported drone pose.
type Stream struct {
	width  int
	height int
	fps    int
	logger *log.Logger

	mu      sync.RWMutex
	objects map[string]*TrackingObject
	order   []string // insertion order = draw order
	frame   *Frame
	seq     uint64
	started time.Time
	rng     *rand.Rand

	droneX, droneY float64
	droneAlt       float64
	droneYaw       float64

	loopMu  sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewStream creates a stream with the given resolution and frame rate.
// Non-positive dimensions or fps are rejected here so the frame loop never
// has to defend against a zero divisor.
func NewStream(width, height, fps int, logger *log.Logger) (*Stream, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("camera: resolution %dx%d is invalid", width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("camera: frame rate %d is invalid", fps)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Stream{
		width:    width,
		height:   height,
		fps:      fps,
		logger:   logger,
		objects:  make(map[string]*TrackingObject),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		droneAlt: referenceAltitude,
	}, nil
}

func (s *Stream) Width() int  { return s.width }
func (s *Stream) Height() int { return s.height }
func (s *Stream) FPS() int    { return s.fps }

// AddObject registers a tracking object and returns its generated id.
func (s *Stream) AddObject(spec ObjectSpec) string {
	id := uuid.New().String()
	obj := spec.materialize(id)

	s.mu.Lock()
	s.objects[id] = obj
	s.order = append(s.order, id)
	s.mu.Unlock()
	return id
}

// RemoveObject drops an object by id, reporting whether it existed.
func (s *Stream) RemoveObject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return false
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Objects returns a snapshot of the object table in draw order.
func (s *Stream) Objects() []TrackingObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TrackingObject, 0, len(s.order))
	for _, id := range s.order {
		if o, ok := s.objects[id]; ok {
			out = append(out, *o)
		}
	}
	return out
}

// UpdatePose records the drone pose the next frame should react to.
// Implements the simulator's pose sink.
func (s *Stream) UpdatePose(x, y, altitude, yaw float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !math.IsNaN(x) && !math.IsInf(x, 0) {
		s.droneX = x
	}
	if !math.IsNaN(y) && !math.IsInf(y, 0) {
		s.droneY = y
	}
	if altitude > 0 && !math.IsNaN(altitude) && !math.IsInf(altitude, 0) {
		s.droneAlt = altitude
	}
	if !math.IsNaN(yaw) && !math.IsInf(yaw, 0) {
		s.droneYaw = yaw
	}
}

// GetFrame returns the latest completed frame, or nil before the first one.
// It never blocks on the frame loop.
func (s *Stream) GetFrame() *Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Start launches the frame loop. No-op if already running.
func (s *Stream) Start() error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	s.mu.Lock()
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.mu.Unlock()

	go s.loop(s.stop, s.done)
	s.logger.Printf("[camera] stream started: %dx%d @ %d fps", s.width, s.height, s.fps)
	return nil
}

// Stop cancels the frame loop and waits for it to terminate. Idempotent.
func (s *Stream) Stop() {
	s.loopMu.Lock()
	if !s.running {
		s.loopMu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.loopMu.Unlock()

	<-done
	s.logger.Printf("[camera] stream stopped after %d frame(s)", s.seq)
}

func (s *Stream) IsRunning() bool {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	return s.running
}

func (s *Stream) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.RenderFrame(now)
		}
	}
}

// RenderFrame produces one frame at the given instant and publishes it as
// the latest completed frame. Objects advance under the lock; the raster fill
// runs outside it so GetFrame never waits out a render. Exported so tests and
// headless callers can drive the stream without the wall-clock loop.
func (s *Stream) RenderFrame(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			// A bad object spec costs one frame, not the stream.
			s.logger.Printf("[camera] frame skipped: %v", r)
		}
	}()

	view, draws := s.advanceScene(now)

	c := newCanvas(s.width, s.height)
	c.background(view.horizon)
	for i := range draws {
		s.drawObject(c, &draws[i], view.scale, view.panX, view.panY)
	}

	s.mu.Lock()
	s.seq++
	s.frame = &Frame{
		Width:     s.width,
		Height:    s.height,
		Seq:       s.seq,
		Timestamp: now,
		Pixels:    c.pix,
	}
	s.mu.Unlock()
}

// viewState carries the pose-derived rendering parameters of one frame.
type viewState struct {
	horizon    int
	scale      float64
	panX, panY float64
}

// advanceScene moves every object to its position at now and snapshots
// everything the raster pass needs, all in one lock hold.
func (s *Stream) advanceScene(now time.Time) (viewState, []TrackingObject) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.IsZero() {
		s.started = now
	}
	elapsed := now.Sub(s.started).Seconds()

	view := viewState{
		horizon: s.horizonLine(),
		scale:   s.perspectiveScale(),
		panX:    s.droneX * pixelsPerMeter,
		panY:    -s.droneY * pixelsPerMeter,
	}
	draws := make([]TrackingObject, 0, len(s.order))
	for _, id := range s.order {
		obj, ok := s.objects[id]
		if !ok {
			continue
		}
		s.advanceObject(obj, elapsed)
		draws = append(draws, *obj)
	}
	return view, draws
}

// advanceObject moves an object to its position at the given elapsed time.
// Deterministic patterns are evaluated from scratch; RandomWalk takes one
// bounded step clamped to the frame. Off-frame objects advance like any
// other, they are just not drawn.
func (s *Stream) advanceObject(obj *TrackingObject, elapsed float64) {
	if pos, ok := patternPosition(obj.Origin, obj.Pattern, obj.Speed, obj.Params, elapsed); ok {
		obj.pos = pos
		return
	}
	step := obj.Params.MaxStep
	if step <= 0 {
		step = 4.0
	}
	obj.pos.X += (s.rng.Float64()*2 - 1) * step
	obj.pos.Y += (s.rng.Float64()*2 - 1) * step
	obj.pos.X = clampf(obj.pos.X, 0, float64(s.width))
	obj.pos.Y = clampf(obj.pos.Y, 0, float64(s.height))
}

func (s *Stream) drawObject(c canvas, obj *TrackingObject, scale, panX, panY float64) {
	w := obj.Width * scale
	h := obj.Height * scale
	cx := obj.pos.X - panX
	cy := obj.pos.Y - panY

	// Fully off-frame: skip drawing, the position was already advanced.
	if cx+w/2 < 0 || cx-w/2 > float64(s.width) || cy+h/2 < 0 || cy-h/2 > float64(s.height) {
		return
	}

	switch obj.Kind {
	case ObjectAnimal, ObjectBall:
		c.fillEllipse(cx, cy, w/2, h/2, obj.Color)
	default:
		c.fillRect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2), obj.Color)
	}
}

// perspectiveScale shrinks objects as the drone climbs above the reference
// altitude and grows them as it descends.
func (s *Stream) perspectiveScale() float64 {
	alt := s.droneAlt
	if alt < 0.5 {
		alt = 0.5
	}
	return clampf(referenceAltitude/alt, 0.25, 3.0)
}

// horizonLine moves up the frame as the drone climbs, revealing more ground.
func (s *Stream) horizonLine() int {
	offset := (s.droneAlt - referenceAltitude) * 6.0
	return int(clampf(float64(s.height)/2-offset, float64(s.height)/4, float64(s.height)*3/4))
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
