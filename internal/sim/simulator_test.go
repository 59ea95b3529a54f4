package sim_test

import (
	"testing"
	"time"

	sim "virtual-drone/internal/sim"
)

func newTestSimulator(t *testing.T, bounds sim.Vec3) *sim.DroneSimulator {
	t.Helper()
	world := sim.NewVirtualWorld(bounds, quietLogger())
	s, err := sim.NewDroneSimulator("test", sim.DefaultDroneConfig(), world, sim.Vec3{Z: 0.1}, quietLogger())
	if err != nil {
		t.Fatalf("NewDroneSimulator: %v", err)
	}
	return s
}

// ticksFor converts simulated seconds to tick count at the default dt.
func ticksFor(seconds float64) int {
	return int(seconds/sim.DefaultDroneConfig().SimulationDt) + 1
}

func TestFlightCycleEndToEnd(t *testing.T) {
	s := newTestSimulator(t, sim.Vec3{X: 10, Y: 10, Z: 5})

	if !s.Takeoff() {
		t.Fatalf("takeoff should succeed")
	}
	s.RunHeadless(ticksFor(3))
	if got := s.Drone().State(); got != sim.StateFlying {
		t.Fatalf("expected flying after takeoff delay, got %v", got)
	}

	if !s.MoveToPosition(3, 3, 2) {
		t.Fatalf("move to valid target should succeed")
	}
	if s.MoveToPosition(20, 20, 20) {
		t.Fatalf("move outside bounds should fail")
	}

	s.RunHeadless(ticksFor(8))
	st := s.Statistics()
	if st.Position.Sub(sim.Vec3{X: 3, Y: 3, Z: 2}).Length() > 0.5 {
		t.Fatalf("drone did not reach target, at %+v", st.Position)
	}
	if st.TotalDistance < 3.0 {
		t.Fatalf("distance traveled %.2f, want at least the straight-line climb", st.TotalDistance)
	}

	if !s.Land() {
		t.Fatalf("land while flying should succeed")
	}
	s.RunHeadless(ticksFor(6))
	if got := s.Drone().State(); got != sim.StateIdle {
		t.Fatalf("expected idle after landing, got %v", got)
	}
}

func TestFlyingNeverRevertsWithoutCause(t *testing.T) {
	s := newTestSimulator(t, sim.Vec3{X: 10, Y: 10, Z: 5})
	if !s.Takeoff() {
		t.Fatalf("takeoff should succeed")
	}
	s.RunHeadless(ticksFor(3))
	for i := 0; i < 10; i++ {
		s.RunHeadless(ticksFor(1))
		if got := s.Drone().State(); got != sim.StateFlying {
			t.Fatalf("state left flying without land/battery event: %v", got)
		}
	}
}

func TestCollisionRecordedNotFatal(t *testing.T) {
	world := sim.NewVirtualWorld(sim.Vec3{X: 10, Y: 10, Z: 5}, quietLogger())
	if err := world.AddObstacle(sim.Obstacle{
		ID:       "block",
		Type:     sim.ObstacleColumn,
		Position: sim.Vec3{X: 0, Y: 0, Z: 1},
		Size:     sim.Vec3{X: 1, Y: 1, Z: 1},
		IsStatic: true,
	}); err != nil {
		t.Fatalf("AddObstacle: %v", err)
	}
	s, err := sim.NewDroneSimulator("test", sim.DefaultDroneConfig(), world, sim.Vec3{X: -3, Z: 0.1}, quietLogger())
	if err != nil {
		t.Fatalf("NewDroneSimulator: %v", err)
	}

	if !s.Takeoff() {
		t.Fatalf("takeoff should succeed")
	}
	s.RunHeadless(ticksFor(3))

	// A point inside the obstacle is not a valid waypoint.
	if s.MoveToPosition(0, 0, 1) {
		t.Fatalf("waypoint inside an obstacle should be rejected")
	}
	// A valid waypoint on the far side puts the obstacle on the flight path.
	if !s.MoveToPosition(3, 0, 1) {
		t.Fatalf("waypoint beyond the obstacle should be accepted")
	}
	s.RunHeadless(ticksFor(10))
	st := s.Statistics()
	if st.CollisionCount < 1 {
		t.Fatalf("expected at least one recorded collision, got %d", st.CollisionCount)
	}
	if st.State == sim.StateEmergency {
		t.Fatalf("collision must not be fatal")
	}
	if !s.Statistics().Position.IsFinite() {
		t.Fatalf("position corrupted after collisions")
	}
}

func TestBatteryExhaustionForcesEmergencyLanding(t *testing.T) {
	cfg := sim.DefaultDroneConfig()
	cfg.BatteryCapacity = 1.0
	cfg.IdleDrainRate = 2.0 // drains within a second of flight
	world := sim.NewVirtualWorld(sim.Vec3{X: 10, Y: 10, Z: 5}, quietLogger())
	s, err := sim.NewDroneSimulator("test", cfg, world, sim.Vec3{Z: 0.1}, quietLogger())
	if err != nil {
		t.Fatalf("NewDroneSimulator: %v", err)
	}
	s.Drone().ForceState(sim.StateFlying)
	if !s.MoveToPosition(0, 0, 3) {
		t.Fatalf("move should succeed while flying")
	}

	sawEmergency := false
	for i := 0; i < ticksFor(30); i++ {
		s.Tick(cfg.SimulationDt)
		if s.Drone().State() == sim.StateEmergency {
			sawEmergency = true
		}
	}
	if !sawEmergency {
		t.Fatalf("battery exhaustion never forced an emergency landing")
	}
	if got := s.Drone().State(); got != sim.StateIdle {
		t.Fatalf("expected idle after emergency descent, got %v", got)
	}
	// Battery floor: clamped at zero once grounded.
	if bat := s.Drone().Battery(); bat != 0 {
		t.Fatalf("expected battery clamped to 0, got %v", bat)
	}
}

func TestAltitudeCeilingHolds(t *testing.T) {
	cfg := sim.DefaultDroneConfig()
	cfg.MaxAltitude = 1.0 // below the takeoff target altitude
	world := sim.NewVirtualWorld(sim.Vec3{X: 10, Y: 10, Z: 5}, quietLogger())
	s, err := sim.NewDroneSimulator("test", cfg, world, sim.Vec3{Z: 0.1}, quietLogger())
	if err != nil {
		t.Fatalf("NewDroneSimulator: %v", err)
	}
	if !s.Takeoff() {
		t.Fatalf("takeoff should succeed")
	}
	s.RunHeadless(ticksFor(5))
	if z := s.Statistics().Position.Z; z > cfg.MaxAltitude+0.1 {
		t.Fatalf("drone climbed to %.2f m above the %.1f m ceiling", z, cfg.MaxAltitude)
	}
}

func TestStartStopTerminates(t *testing.T) {
	s := newTestSimulator(t, sim.Vec3{X: 10, Y: 10, Z: 5})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("expected running after Start")
	}
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	if s.IsRunning() {
		t.Fatalf("expected stopped after Stop")
	}
	// Idempotent.
	s.Stop()

	st := s.Statistics()
	after := s.Statistics()
	if st != after {
		t.Fatalf("state mutated after Stop returned")
	}
}

type recordingSink struct {
	calls int
	alt   float64
}

func (r *recordingSink) UpdatePose(x, y, altitude, yaw float64) {
	r.calls++
	r.alt = altitude
}

func TestCameraReceivesPoseEachTick(t *testing.T) {
	s := newTestSimulator(t, sim.Vec3{X: 10, Y: 10, Z: 5})
	sink := &recordingSink{}
	s.AttachCamera(sink)
	if !s.Takeoff() {
		t.Fatalf("takeoff should succeed")
	}
	n := ticksFor(2)
	s.RunHeadless(n)
	if sink.calls != n {
		t.Fatalf("pose pushed %d times, want %d", sink.calls, n)
	}
	if sink.alt <= 0.1 {
		t.Fatalf("camera never saw the climb, alt=%v", sink.alt)
	}
}
