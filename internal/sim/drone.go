package sim

import (
	"sync"
)

type FlightState int

const (
	StateIdle FlightState = iota
	StateTakingOff
	StateFlying
	StateLanding
	StateEmergency
)

func (s FlightState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTakingOff:
		return "taking_off"
	case StateFlying:
		return "flying"
	case StateLanding:
		return "landing"
	case StateEmergency:
		return "emergency"
	}
	return "unknown"
}

// DroneConfig holds the named tunables of a single drone. Values here affect
// timing feel, not correctness, and are meant to be adjusted per scenario.
type DroneConfig struct {
	Physics PhysicsParams

	SimulationDt     float64 // s, fixed tick interval
	MaxSpeed         float64 // m/s horizontal
	MaxVerticalSpeed float64 // m/s climb/descent
	PositionGain     float64 // 1/s, proportional gain position -> desired velocity
	VelocityGain     float64 // 1/s, proportional gain velocity error -> accel
	YawRate          float64 // rad/s convergence toward target yaw
	ArrivalRadius    float64 // m, distance considered "at target"
	MaxAltitude      float64 // m, flight ceiling; 0 disables it

	TakeoffAltitude float64 // m, hover altitude reached after takeoff
	TakeoffDelay    float64 // s, minimum time spent in TakingOff
	LandingDelay    float64 // s, minimum time spent in Landing
	GroundAltitude  float64 // m, resting altitude of the airframe

	BatteryCapacity   float64 // percent at construction
	MinTakeoffBattery float64 // percent required for Takeoff
	LowBatteryWarning float64 // percent, warning threshold
	TakeoffCost       float64 // percent consumed by a successful Takeoff
	IdleDrainRate     float64 // percent/s while airborne at rest
	MotionDrainRate   float64 // percent/s extra at full motion intensity
}

func DefaultDroneConfig() DroneConfig {
	return DroneConfig{
		Physics: DefaultPhysicsParams(),

		SimulationDt:     0.02, // 50 Hz
		MaxSpeed:         5.0,
		MaxVerticalSpeed: 2.0,
		PositionGain:     1.2,
		VelocityGain:     3.0,
		YawRate:          DegToRad(90),
		ArrivalRadius:    0.15,
		MaxAltitude:      120.0,

		TakeoffAltitude: 1.2,
		TakeoffDelay:    1.0,
		LandingDelay:    1.0,
		GroundAltitude:  0.05,

		BatteryCapacity:   100.0,
		MinTakeoffBattery: 10.0,
		LowBatteryWarning: 20.0,
		TakeoffCost:       1.0,
		IdleDrainRate:     0.05,
		MotionDrainRate:   0.25,
	}
}

// Statistics is a read-only snapshot of a drone's runtime status.
type Statistics struct {
	State           FlightState
	Position        Vec3
	Velocity        Vec3
	AttitudeYaw     float64
	BatteryLevel    float64 // percent; transiently negative while forcing an emergency landing
	TotalFlightTime float64 // s
	TotalDistance   float64 // m, actual path flown
	CollisionCount  int
	ObstacleCount   int
	LowBattery      bool
}

// Drone is the per-vehicle flight state machine: flight state, battery model
// and command validation. Commands only set targets consumed by the tick; the
// physics state itself is mutated exclusively through the owning simulator's
// tick loop. Safe for concurrent use.
type Drone struct {
	mu  sync.RWMutex
	cfg DroneConfig

	state      FlightState
	body       DroneState
	battery    float64
	flightTime float64
	distance   float64
	collisions int

	target    Vec3
	hasTarget bool
	targetYaw float64
	stateTime float64 // s spent in current state
	lastValid Vec3
}

func NewDrone(cfg DroneConfig, initial Vec3) *Drone {
	initial = initial.Sanitized()
	if initial.Z < cfg.GroundAltitude {
		initial.Z = cfg.GroundAltitude
	}
	return &Drone{
		cfg:       cfg,
		state:     StateIdle,
		body:      DroneState{Position: initial},
		battery:   cfg.BatteryCapacity,
		lastValid: initial,
	}
}

// Takeoff succeeds only from Idle with sufficient battery. It consumes a
// fixed battery cost and transitions to TakingOff; the tick loop completes
// the climb to Flying.
func (d *Drone) Takeoff() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateIdle || d.battery < d.cfg.MinTakeoffBattery {
		return false
	}
	d.battery -= d.cfg.TakeoffCost
	d.setStateLocked(StateTakingOff)
	d.target = Vec3{d.body.Position.X, d.body.Position.Y, d.cfg.TakeoffAltitude}
	d.hasTarget = true
	return true
}

// Land succeeds only while Flying and transitions to Landing; the tick loop
// completes the descent to Idle.
func (d *Drone) Land() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateFlying {
		return false
	}
	d.setStateLocked(StateLanding)
	d.target = Vec3{d.body.Position.X, d.body.Position.Y, d.cfg.GroundAltitude}
	d.hasTarget = true
	return true
}

// EmergencyLand always succeeds from any state.
func (d *Drone) EmergencyLand() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateEmergency {
		d.setStateLocked(StateEmergency)
	}
	d.target = Vec3{d.body.Position.X, d.body.Position.Y, d.cfg.GroundAltitude}
	d.hasTarget = true
	return true
}

// MoveTo sets the waypoint consumed by subsequent ticks. It succeeds only
// while Flying; target validity against the world is checked by the owning
// simulator before this is called.
func (d *Drone) MoveTo(target Vec3) bool {
	if !target.IsFinite() {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateFlying {
		return false
	}
	d.target = target
	d.hasTarget = true
	return true
}

// RotateToYaw sets the target heading in radians. Flying only.
func (d *Drone) RotateToYaw(yaw float64) bool {
	if !isFinite(yaw) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateFlying {
		return false
	}
	d.targetYaw = wrapAngle(yaw)
	return true
}

// ForceState overrides the flight state without any transition checks.
// It exists for scenario setup and tests; flight code must use the command
// methods so invariants hold.
func (d *Drone) ForceState(s FlightState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setStateLocked(s)
}

func (d *Drone) setStateLocked(s FlightState) {
	d.state = s
	d.stateTime = 0
}

func (d *Drone) State() FlightState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Drone) Battery() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.battery
}

// step advances the drone by one tick: proportional control toward the
// current target, physics integration, collision re-validation, battery
// drain, and state-machine progression. Collisions are recorded and the
// position clamped to the last valid point; they never abort the tick.
func (d *Drone) step(engine *PhysicsEngine, world *VirtualWorld, dt float64) {
	if dt <= 0 || !isFinite(dt) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateIdle {
		// Grounded: no physics, no drain. Battery never rests below zero.
		if d.battery < 0 {
			d.battery = 0
		}
		return
	}
	d.stateTime += dt
	d.flightTime += dt

	thrust := d.controlThrustLocked(engine)
	prev := d.body.Position
	next := engine.Step(d.body, thrust, dt)
	d.convergeYawLocked(&next, dt)

	if hit, _ := world.CheckCollision(next.Position); hit {
		d.collisions++
		next.Position = d.lastValid
		next.Velocity = Vec3{}
	} else if !world.inBounds(next.Position) {
		next.Position = world.clampToBounds(next.Position)
		next.Velocity = Vec3{}
	} else {
		d.lastValid = next.Position
	}
	d.distance += next.Position.Sub(prev).Length()
	d.body = next

	d.drainBatteryLocked(dt)
	d.progressStateLocked()
}

// controlThrustLocked derives the applied thrust from the current target via
// a proportional controller: position error -> desired velocity (clamped to
// the speed limits), velocity error -> acceleration on top of hover thrust.
func (d *Drone) controlThrustLocked(engine *PhysicsEngine) Vec3 {
	desired := Vec3{}
	if d.hasTarget {
		err := d.target.Sub(d.body.Position)
		if err.Length() > d.cfg.ArrivalRadius {
			desired = err.Mul(d.cfg.PositionGain)
		}
	}
	switch d.state {
	case StateEmergency:
		// Descend at full rate regardless of horizontal error.
		desired = Vec3{0, 0, -d.cfg.MaxVerticalSpeed}
	case StateLanding:
		// Keep tracking the pad horizontally but always command a descent,
		// otherwise the controller would hover just inside the arrival radius.
		if d.body.Position.Z > d.cfg.GroundAltitude {
			desired.Z = -0.5 * d.cfg.MaxVerticalSpeed
		}
	}
	horizontal := Vec3{desired.X, desired.Y, 0}.ClampLength(d.cfg.MaxSpeed)
	desired = Vec3{horizontal.X, horizontal.Y, clamp(desired.Z, -d.cfg.MaxVerticalSpeed, d.cfg.MaxVerticalSpeed)}
	if d.cfg.MaxAltitude > 0 && d.body.Position.Z >= d.cfg.MaxAltitude && desired.Z > 0 {
		desired.Z = 0
	}

	accel := desired.Sub(d.body.Velocity).Mul(d.cfg.VelocityGain)
	thrust := accel.Mul(engine.Params().Mass)
	thrust.Z += engine.HoverThrust()
	return thrust
}

// convergeYawLocked turns the heading toward the target yaw at the
// configured rate. Yaw is commanded, not a physics output.
func (d *Drone) convergeYawLocked(next *DroneState, dt float64) {
	delta := wrapAngle(d.targetYaw - next.Attitude.Z)
	maxStep := d.cfg.YawRate * dt
	next.Attitude.Z = wrapAngle(next.Attitude.Z + clamp(delta, -maxStep, maxStep))
}

// drainBatteryLocked drains by time plus motion intensity. The level may go
// negative in flight, which forces the emergency landing below; it is clamped
// back to the documented floor of 0 once the drone is grounded.
func (d *Drone) drainBatteryLocked(dt float64) {
	intensity := clamp(d.body.Velocity.Length()/maxf(d.cfg.MaxSpeed, 1e-9), 0, 1)
	d.battery -= (d.cfg.IdleDrainRate + d.cfg.MotionDrainRate*intensity) * dt
	if d.battery <= 0 && d.state != StateEmergency {
		d.setStateLocked(StateEmergency)
		d.target = Vec3{d.body.Position.X, d.body.Position.Y, d.cfg.GroundAltitude}
		d.hasTarget = true
	}
}

func (d *Drone) progressStateLocked() {
	grounded := d.body.Position.Z <= d.cfg.GroundAltitude+0.05
	switch d.state {
	case StateTakingOff:
		if d.stateTime >= d.cfg.TakeoffDelay {
			d.setStateLocked(StateFlying)
		}
	case StateLanding:
		if d.stateTime >= d.cfg.LandingDelay && grounded {
			d.touchdownLocked()
		}
	case StateEmergency:
		if grounded {
			d.touchdownLocked()
		}
	}
}

func (d *Drone) touchdownLocked() {
	d.setStateLocked(StateIdle)
	d.body.Velocity = Vec3{}
	d.body.Position.Z = d.cfg.GroundAltitude
	d.hasTarget = false
	if d.battery < 0 {
		d.battery = 0
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Statistics returns a point-in-time snapshot. Two calls with no intervening
// tick return identical values.
func (d *Drone) Statistics() Statistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Statistics{
		State:           d.state,
		Position:        d.body.Position,
		Velocity:        d.body.Velocity,
		AttitudeYaw:     d.body.Attitude.Z,
		BatteryLevel:    d.battery,
		TotalFlightTime: d.flightTime,
		TotalDistance:   d.distance,
		CollisionCount:  d.collisions,
		LowBattery:      d.battery <= d.cfg.LowBatteryWarning,
	}
}
