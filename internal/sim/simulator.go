package sim

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// PoseSink receives the drone pose after every tick so an attached camera can
// react to altitude and position.
type PoseSink interface {
	UpdatePose(x, y, altitude, yaw float64)
}

// DroneSimulator owns one drone's state machine and physics engine, validates
// commands against the shared world, and runs the fixed-step tick loop in a
// background goroutine. Command methods are safe to call concurrently with
// the loop: they only set targets the loop reads.
type DroneSimulator struct {
	id     string
	cfg    DroneConfig
	drone  *Drone
	engine *PhysicsEngine
	world  *VirtualWorld
	logger *log.Logger

	// advanceWorld is true for standalone simulators; a MultiDroneSimulator
	// owns the shared world's clock instead so obstacles advance exactly once
	// per interval regardless of drone count.
	advanceWorld bool

	camera PoseSink

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewDroneSimulator(id string, cfg DroneConfig, world *VirtualWorld, initial Vec3, logger *log.Logger) (*DroneSimulator, error) {
	if id == "" {
		return nil, fmt.Errorf("drone id must not be empty")
	}
	if world == nil {
		return nil, fmt.Errorf("drone %q: world must not be nil", id)
	}
	if cfg.SimulationDt <= 0 || !isFinite(cfg.SimulationDt) {
		cfg.SimulationDt = DefaultDroneConfig().SimulationDt
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DroneSimulator{
		id:           id,
		cfg:          cfg,
		drone:        NewDrone(cfg, initial),
		engine:       NewPhysicsEngine(cfg.Physics),
		world:        world,
		logger:       logger,
		advanceWorld: true,
	}, nil
}

func (s *DroneSimulator) ID() string    { return s.id }
func (s *DroneSimulator) Drone() *Drone { return s.drone }

// AttachCamera wires a pose sink that is pushed after every tick.
// Call before Start.
func (s *DroneSimulator) AttachCamera(camera PoseSink) {
	s.camera = camera
}

// Start launches the tick loop. Starting a running simulator is a no-op.
func (s *DroneSimulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
	s.logger.Printf("[sim] drone %s: tick loop started (dt=%.0fms)", s.id, s.cfg.SimulationDt*1000)
	return nil
}

// Stop cancels the tick loop and waits for it to terminate, so no write to
// drone state happens after Stop returns. Idempotent.
func (s *DroneSimulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Printf("[sim] drone %s: tick loop stopped", s.id)
}

func (s *DroneSimulator) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *DroneSimulator) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(s.cfg.SimulationDt * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick(s.cfg.SimulationDt)
		}
	}
}

// Tick performs one fixed-step update. It is exported so headless runs and
// tests can advance simulated time without the wall-clock loop.
func (s *DroneSimulator) Tick(dt float64) {
	defer func() {
		if r := recover(); r != nil {
			// Internal faults degrade to a skipped tick, never a dead loop.
			s.logger.Printf("[sim] drone %s: tick recovered: %v", s.id, r)
		}
	}()

	if s.advanceWorld {
		s.world.AdvanceDynamicObstacles(dt)
	}
	s.drone.step(s.engine, s.world, dt)

	if s.camera != nil {
		st := s.drone.Statistics()
		s.camera.UpdatePose(st.Position.X, st.Position.Y, st.Position.Z, st.AttitudeYaw)
	}
}

// RunHeadless performs n consecutive ticks at the configured dt and reports
// how many were run.
func (s *DroneSimulator) RunHeadless(n int) int {
	for i := 0; i < n; i++ {
		s.Tick(s.cfg.SimulationDt)
	}
	return n
}

// Takeoff starts the climb to hover altitude. False if not Idle or the
// battery is below the takeoff minimum.
func (s *DroneSimulator) Takeoff() bool {
	ok := s.drone.Takeoff()
	if ok {
		s.logger.Printf("[sim] drone %s: takeoff", s.id)
	}
	return ok
}

// Land starts the descent. False if not Flying.
func (s *DroneSimulator) Land() bool {
	ok := s.drone.Land()
	if ok {
		s.logger.Printf("[sim] drone %s: landing", s.id)
	}
	return ok
}

// EmergencyLand forces an immediate descent from any state. Always true.
func (s *DroneSimulator) EmergencyLand() bool {
	s.logger.Printf("[sim] drone %s: emergency landing", s.id)
	return s.drone.EmergencyLand()
}

// MoveToPosition sets the waypoint for subsequent ticks. False if the drone
// is not Flying or the target is out of bounds or inside an obstacle.
func (s *DroneSimulator) MoveToPosition(x, y, z float64) bool {
	target := Vec3{x, y, z}
	if !target.IsFinite() || !s.world.IsPositionValid(target) {
		return false
	}
	return s.drone.MoveTo(target)
}

// RotateToYaw sets the target heading in degrees. False if not Flying.
func (s *DroneSimulator) RotateToYaw(yawDeg float64) bool {
	if !isFinite(yawDeg) {
		return false
	}
	return s.drone.RotateToYaw(DegToRad(yawDeg))
}

// Statistics returns a non-blocking snapshot of the drone plus the obstacle
// count of the shared world.
func (s *DroneSimulator) Statistics() Statistics {
	st := s.drone.Statistics()
	st.ObstacleCount = s.world.ObstacleCount()
	return st
}
