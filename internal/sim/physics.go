package sim

import (
	"math"
)

// DroneState holds the rigid-body state advanced by the physics engine.
// Attitude is pitch (X), roll (Y), yaw (Z) in radians. Nothing outside the
// engine mutates these fields directly.
type DroneState struct {
	Position   Vec3
	Velocity   Vec3
	Attitude   Vec3
	AngularVel Vec3
}

// PhysicsParams are the tunable constants of the simplified rigid-body model.
type PhysicsParams struct {
	Mass       float64 // kg
	Gravity    float64 // m/s^2, positive down
	LinearDrag float64 // N per m/s of air-relative velocity

	MaxThrust    float64 // N, applied thrust magnitude cap
	MaxTiltAngle float64 // rad, pitch/roll cap
	AttitudeRate float64 // 1/s, relaxation rate toward target attitude

	MaxStepDt float64 // s, integration step cap

	// Wind adds a constant air velocity; drag acts on velocity relative to it.
	Wind Vec3

	// AltitudeDensity enables an exponential-atmosphere multiplier on drag.
	// Off by default so trajectories stay simple functions of the inputs.
	AltitudeDensity bool
}

// DefaultPhysicsParams models a small consumer quadcopter (sub-250 g class).
func DefaultPhysicsParams() PhysicsParams {
	return PhysicsParams{
		Mass:         0.249,
		Gravity:      9.81,
		LinearDrag:   0.12,
		MaxThrust:    2.5 * 0.249 * 9.81, // ~2.5x weight
		MaxTiltAngle: math.Pi / 6,
		AttitudeRate: 4.0,
		MaxStepDt:    0.1,
	}
}

// PhysicsEngine integrates drone motion with semi-implicit Euler steps.
type PhysicsEngine struct {
	params PhysicsParams
}

func NewPhysicsEngine(params PhysicsParams) *PhysicsEngine {
	// Mass floor prevents divide-by-zero on corrupted configs.
	if !(params.Mass > 1e-6) || !isFinite(params.Mass) {
		params.Mass = 1e-6
	}
	if !isFinite(params.Gravity) {
		params.Gravity = 9.81
	}
	if params.MaxStepDt <= 0 || !isFinite(params.MaxStepDt) {
		params.MaxStepDt = 0.1
	}
	return &PhysicsEngine{params: params}
}

func (e *PhysicsEngine) Params() PhysicsParams { return e.params }

// HoverThrust returns the vertical thrust that balances gravity.
func (e *PhysicsEngine) HoverThrust() float64 {
	return e.params.Mass * e.params.Gravity
}

// Step advances state by dt under the applied thrust vector (world frame,
// newtons) and returns the new state. A non-positive or non-finite dt is a
// no-op returning the input unchanged. Extreme thrust and dt are clamped so
// the result stays finite.
func (e *PhysicsEngine) Step(state DroneState, thrust Vec3, dt float64) DroneState {
	if dt <= 0 || !isFinite(dt) {
		return state
	}
	if dt > e.params.MaxStepDt {
		dt = e.params.MaxStepDt
	}

	p := e.params
	thrust = thrust.Sanitized().ClampLength(p.MaxThrust)

	// Drag acts on air-relative velocity (accounts for wind).
	airVel := state.Velocity.Sub(p.Wind)
	drag := airVel.Mul(-p.LinearDrag * e.densityFactor(state.Position.Z))

	force := thrust.Add(drag)
	force.Z -= p.Mass * p.Gravity

	accel := force.Mul(1.0 / p.Mass)

	// Semi-implicit Euler: velocity first, then position from new velocity.
	state.Velocity = state.Velocity.Add(accel.Mul(dt)).Sanitized()
	state.Position = state.Position.Add(state.Velocity.Mul(dt)).Sanitized()

	e.relaxAttitude(&state, thrust, dt)
	return state
}

// relaxAttitude eases pitch/roll toward the tilt implied by horizontal thrust.
// Yaw is commanded separately and left untouched here.
func (e *PhysicsEngine) relaxAttitude(state *DroneState, thrust Vec3, dt float64) {
	p := e.params
	hover := e.HoverThrust()
	if hover < 1e-9 {
		hover = 1e-9
	}

	targetPitch := clamp(math.Atan2(thrust.X, hover), -p.MaxTiltAngle, p.MaxTiltAngle)
	targetRoll := clamp(math.Atan2(-thrust.Y, hover), -p.MaxTiltAngle, p.MaxTiltAngle)

	blend := clamp(p.AttitudeRate*dt, 0, 1)
	prevPitch := state.Attitude.X
	prevRoll := state.Attitude.Y
	state.Attitude.X = sanitizeFinite(prevPitch + (targetPitch-prevPitch)*blend)
	state.Attitude.Y = sanitizeFinite(prevRoll + (targetRoll-prevRoll)*blend)
	state.Attitude.Z = wrapAngle(sanitizeFinite(state.Attitude.Z))

	if dt > 0 {
		state.AngularVel = Vec3{
			(state.Attitude.X - prevPitch) / dt,
			(state.Attitude.Y - prevRoll) / dt,
			state.AngularVel.Z,
		}.Sanitized()
	}
}

// densityFactor approximates air density falloff with altitude
// (standard atmosphere, ~8.4 km scale height).
func (e *PhysicsEngine) densityFactor(altitude float64) float64 {
	if !e.params.AltitudeDensity {
		return 1.0
	}
	if altitude < 0 {
		altitude = 0
	}
	return math.Exp(-altitude / 8400.0)
}
