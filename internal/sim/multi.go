package sim

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// MultiDroneSimulator owns N single-drone simulators keyed by id, all sharing
// exactly one VirtualWorld. It also owns the world clock: dynamic obstacles
// advance once per interval here, not once per drone.
type MultiDroneSimulator struct {
	world  *VirtualWorld
	cfg    DroneConfig
	logger *log.Logger

	mu   sync.RWMutex
	sims map[string]*DroneSimulator

	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewMultiDroneSimulator(world *VirtualWorld, cfg DroneConfig, logger *log.Logger) *MultiDroneSimulator {
	if world == nil {
		world = NewVirtualWorld(Vec3{}, logger)
	}
	if cfg.SimulationDt <= 0 || !isFinite(cfg.SimulationDt) {
		cfg.SimulationDt = DefaultDroneConfig().SimulationDt
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MultiDroneSimulator{
		world:  world,
		cfg:    cfg,
		logger: logger,
		sims:   make(map[string]*DroneSimulator),
	}
}

func (m *MultiDroneSimulator) World() *VirtualWorld { return m.world }

// AddDrone wires a new simulator to the shared world. Duplicate ids and
// invalid spawn positions are rejected.
func (m *MultiDroneSimulator) AddDrone(id string, initial Vec3) (*DroneSimulator, error) {
	spawn := initial.Sanitized()
	if spawn.Z < m.cfg.GroundAltitude {
		spawn.Z = m.cfg.GroundAltitude
	}
	if !m.world.IsPositionValid(spawn) {
		return nil, fmt.Errorf("drone %q: spawn position (%.2f, %.2f, %.2f) is not valid", id, spawn.X, spawn.Y, spawn.Z)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sims[id]; exists {
		return nil, fmt.Errorf("drone %q already registered", id)
	}
	s, err := NewDroneSimulator(id, m.cfg, m.world, spawn, m.logger)
	if err != nil {
		return nil, err
	}
	s.advanceWorld = false
	m.sims[id] = s

	// A drone added after StartAll joins the running fleet immediately.
	if m.running {
		if err := s.Start(); err != nil {
			delete(m.sims, id)
			return nil, err
		}
	}
	m.logger.Printf("[multi] drone %s added at (%.2f, %.2f, %.2f)", id, spawn.X, spawn.Y, spawn.Z)
	return s, nil
}

// RemoveDrone stops and detaches a simulator, reporting whether it existed.
func (m *MultiDroneSimulator) RemoveDrone(id string) bool {
	m.mu.Lock()
	s, exists := m.sims[id]
	if exists {
		delete(m.sims, id)
	}
	m.mu.Unlock()
	if !exists {
		return false
	}
	s.Stop()
	m.logger.Printf("[multi] drone %s removed", id)
	return true
}

// Drone returns the simulator registered under id, if any.
func (m *MultiDroneSimulator) Drone(id string) (*DroneSimulator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sims[id]
	return s, ok
}

// DroneIDs returns the registered ids in stable order.
func (m *MultiDroneSimulator) DroneIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sims))
	for id := range m.sims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartAllSimulations starts the world clock and every owned tick loop.
func (m *MultiDroneSimulator) StartAllSimulations() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.worldLoop(m.stop, m.done)

	for _, s := range m.sims {
		if err := s.Start(); err != nil {
			return err
		}
	}
	m.logger.Printf("[multi] started %d drone(s)", len(m.sims))
	return nil
}

// StopAllSimulations stops every tick loop and the world clock, returning
// once all loops have terminated.
func (m *MultiDroneSimulator) StopAllSimulations() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	sims := make([]*DroneSimulator, 0, len(m.sims))
	for _, s := range m.sims {
		sims = append(sims, s)
	}
	m.mu.Unlock()

	for _, s := range sims {
		s.Stop()
	}
	<-done
	m.logger.Printf("[multi] stopped %d drone(s)", len(sims))
}

func (m *MultiDroneSimulator) worldLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(m.cfg.SimulationDt * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.world.AdvanceDynamicObstacles(m.cfg.SimulationDt)
		}
	}
}

// GetAllStatistics snapshots every drone without holding any simulator lock
// across the whole map; each entry blocks at most for one tick of its drone.
func (m *MultiDroneSimulator) GetAllStatistics() map[string]Statistics {
	m.mu.RLock()
	sims := make(map[string]*DroneSimulator, len(m.sims))
	for id, s := range m.sims {
		sims[id] = s
	}
	m.mu.RUnlock()

	out := make(map[string]Statistics, len(sims))
	for id, s := range sims {
		out[id] = s.Statistics()
	}
	return out
}
