package sim_test

import (
	"testing"
	"time"

	sim "virtual-drone/internal/sim"
)

func newTestFleet(t *testing.T) *sim.MultiDroneSimulator {
	t.Helper()
	world := sim.NewVirtualWorld(sim.Vec3{X: 20, Y: 20, Z: 8}, quietLogger())
	return sim.NewMultiDroneSimulator(world, sim.DefaultDroneConfig(), quietLogger())
}

func TestAddDroneRejectsDuplicates(t *testing.T) {
	m := newTestFleet(t)
	if _, err := m.AddDrone("alpha", sim.Vec3{X: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := m.AddDrone("alpha", sim.Vec3{X: 2}); err == nil {
		t.Fatalf("duplicate id accepted")
	}
	if got := len(m.DroneIDs()); got != 1 {
		t.Fatalf("fleet size %d, want 1", got)
	}
}

func TestInvalidTickIntervalKeepsOtherTunables(t *testing.T) {
	cfg := sim.DefaultDroneConfig()
	cfg.SimulationDt = 0
	cfg.BatteryCapacity = 42

	world := sim.NewVirtualWorld(sim.Vec3{X: 10, Y: 10, Z: 5}, quietLogger())
	m := sim.NewMultiDroneSimulator(world, cfg, quietLogger())
	s, err := m.AddDrone("alpha", sim.Vec3{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// Only the tick interval falls back to its default.
	if got := s.Drone().Battery(); got != 42 {
		t.Fatalf("battery %v, want 42: bad tick interval discarded the config", got)
	}
}

func TestAddDroneRejectsInvalidSpawn(t *testing.T) {
	m := newTestFleet(t)
	if _, err := m.AddDrone("outside", sim.Vec3{X: 100}); err == nil {
		t.Fatalf("spawn outside world bounds accepted")
	}
}

func TestDronesShareOneWorld(t *testing.T) {
	m := newTestFleet(t)
	a, err := m.AddDrone("alpha", sim.Vec3{X: -2})
	if err != nil {
		t.Fatalf("add alpha: %v", err)
	}
	b, err := m.AddDrone("bravo", sim.Vec3{X: 2})
	if err != nil {
		t.Fatalf("add bravo: %v", err)
	}

	if err := m.World().AddObstacle(sim.Obstacle{
		ID:       "shared",
		Type:     sim.ObstacleColumn,
		Position: sim.Vec3{Z: 2},
		Size:     sim.Vec3{X: 1, Y: 1, Z: 4},
		IsStatic: true,
	}); err != nil {
		t.Fatalf("AddObstacle: %v", err)
	}
	if got := a.Statistics().ObstacleCount; got != 1 {
		t.Fatalf("alpha sees %d obstacles, want 1", got)
	}
	if got := b.Statistics().ObstacleCount; got != 1 {
		t.Fatalf("bravo sees %d obstacles, want 1", got)
	}
}

func TestIndependentFlightStates(t *testing.T) {
	m := newTestFleet(t)
	a, _ := m.AddDrone("alpha", sim.Vec3{X: -2})
	b, _ := m.AddDrone("bravo", sim.Vec3{X: 2})

	if !a.Takeoff() {
		t.Fatalf("alpha takeoff should succeed")
	}
	a.RunHeadless(ticksFor(3))

	if got := a.Drone().State(); got != sim.StateFlying {
		t.Fatalf("alpha state %v, want flying", got)
	}
	if got := b.Drone().State(); got != sim.StateIdle {
		t.Fatalf("bravo state %v, want idle", got)
	}
}

func TestDroneIDsSorted(t *testing.T) {
	m := newTestFleet(t)
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if _, err := m.AddDrone(id, sim.Vec3{}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	ids := m.DroneIDs()
	want := []string{"alpha", "bravo", "charlie"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestRemoveDrone(t *testing.T) {
	m := newTestFleet(t)
	if _, err := m.AddDrone("alpha", sim.Vec3{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !m.RemoveDrone("alpha") {
		t.Fatalf("remove of registered drone reported false")
	}
	if m.RemoveDrone("alpha") {
		t.Fatalf("remove of missing drone reported true")
	}
	if _, ok := m.Drone("alpha"); ok {
		t.Fatalf("drone still registered after remove")
	}
}

func TestStartStopAll(t *testing.T) {
	m := newTestFleet(t)
	a, _ := m.AddDrone("alpha", sim.Vec3{X: -2})
	b, _ := m.AddDrone("bravo", sim.Vec3{X: 2})

	if err := m.StartAllSimulations(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if !a.IsRunning() || !b.IsRunning() {
		t.Fatalf("loops not running after StartAll")
	}

	// Joining a running fleet starts immediately.
	c, err := m.AddDrone("charlie", sim.Vec3{Y: 2})
	if err != nil {
		t.Fatalf("add while running: %v", err)
	}
	if !c.IsRunning() {
		t.Fatalf("late-added drone is not running")
	}

	time.Sleep(50 * time.Millisecond)
	m.StopAllSimulations()
	if a.IsRunning() || b.IsRunning() || c.IsRunning() {
		t.Fatalf("loops still running after StopAll")
	}
	// Idempotent.
	m.StopAllSimulations()
}

func TestGetAllStatistics(t *testing.T) {
	m := newTestFleet(t)
	a, _ := m.AddDrone("alpha", sim.Vec3{X: -2})
	m.AddDrone("bravo", sim.Vec3{X: 2})

	a.Takeoff()
	a.RunHeadless(ticksFor(3))

	stats := m.GetAllStatistics()
	if len(stats) != 2 {
		t.Fatalf("stats for %d drones, want 2", len(stats))
	}
	if stats["alpha"].State != sim.StateFlying {
		t.Fatalf("alpha state %v, want flying", stats["alpha"].State)
	}
	if stats["bravo"].State != sim.StateIdle {
		t.Fatalf("bravo state %v, want idle", stats["bravo"].State)
	}
}
