package sim

import (
	"fmt"
	"log"
)

// Scenario is the plain structured input an external loader feeds the engine:
// world extents plus drone and obstacle records. The engine validates every
// field on receipt and never trusts the loader.
type Scenario struct {
	World     WorldRecord      `json:"world"`
	Drones    []DroneRecord    `json:"drones"`
	Obstacles []ObstacleRecord `json:"obstacles"`
}

type WorldRecord struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

type DroneRecord struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

type ObstacleRecord struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Position    [3]float64 `json:"position"`
	Size        [3]float64 `json:"size"`
	RotationDeg float64    `json:"rotation_deg,omitempty"`
	Velocity    [3]float64 `json:"velocity,omitempty"`
}

var obstacleTypes = map[string]ObstacleType{
	"wall":    ObstacleWall,
	"ceiling": ObstacleCeiling,
	"floor":   ObstacleFloor,
	"column":  ObstacleColumn,
	"dynamic": ObstacleDynamic,
}

func (r ObstacleRecord) toObstacle() (Obstacle, error) {
	t, ok := obstacleTypes[r.Type]
	if !ok {
		return Obstacle{}, fmt.Errorf("obstacle %q: unknown type %q", r.ID, r.Type)
	}
	o := Obstacle{
		ID:       r.ID,
		Type:     t,
		Position: Vec3{r.Position[0], r.Position[1], r.Position[2]},
		Size:     Vec3{r.Size[0], r.Size[1], r.Size[2]},
		Rotation: DegToRad(r.RotationDeg),
		IsStatic: t != ObstacleDynamic,
		Velocity: Vec3{r.Velocity[0], r.Velocity[1], r.Velocity[2]},
	}
	if !o.Position.IsFinite() || !o.Size.IsFinite() || !o.Velocity.IsFinite() || !isFinite(o.Rotation) {
		return Obstacle{}, fmt.Errorf("obstacle %q: non-finite field", r.ID)
	}
	return o, nil
}

// Validate checks the scenario without building anything.
func (s Scenario) Validate() error {
	if s.World.Width < 0 || s.World.Depth < 0 || s.World.Height < 0 {
		return fmt.Errorf("world extents must be non-negative")
	}
	seen := make(map[string]bool)
	for _, d := range s.Drones {
		if d.ID == "" {
			return fmt.Errorf("drone record with empty id")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate drone id %q", d.ID)
		}
		seen[d.ID] = true
		if !(Vec3{d.X, d.Y, d.Z}).IsFinite() {
			return fmt.Errorf("drone %q: non-finite position", d.ID)
		}
	}
	for _, o := range s.Obstacles {
		if o.ID == "" {
			return fmt.Errorf("obstacle record with empty id")
		}
		if _, err := o.toObstacle(); err != nil {
			return err
		}
	}
	return nil
}

// Build constructs a MultiDroneSimulator from the scenario. Records that fail
// validation abort the build; an empty world record falls back to defaults.
func (s Scenario) Build(cfg DroneConfig, logger *log.Logger) (*MultiDroneSimulator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	world := NewVirtualWorld(Vec3{s.World.Width, s.World.Depth, s.World.Height}, logger)
	for _, r := range s.Obstacles {
		o, err := r.toObstacle()
		if err != nil {
			return nil, err
		}
		if err := world.AddObstacle(o); err != nil {
			return nil, err
		}
	}
	multi := NewMultiDroneSimulator(world, cfg, logger)
	for _, d := range s.Drones {
		if _, err := multi.AddDrone(d.ID, Vec3{d.X, d.Y, d.Z}); err != nil {
			return nil, err
		}
	}
	return multi, nil
}
