package sim

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
)

type ObstacleType int

const (
	ObstacleWall ObstacleType = iota
	ObstacleCeiling
	ObstacleFloor
	ObstacleColumn
	ObstacleDynamic
)

func (t ObstacleType) String() string {
	switch t {
	case ObstacleWall:
		return "wall"
	case ObstacleCeiling:
		return "ceiling"
	case ObstacleFloor:
		return "floor"
	case ObstacleColumn:
		return "column"
	case ObstacleDynamic:
		return "dynamic"
	}
	return "unknown"
}

// Obstacle is an axis-aligned box (optionally yawed about Z) in the world.
// Size holds full extents; Velocity moves non-static obstacles each world tick.
type Obstacle struct {
	ID       string
	Type     ObstacleType
	Position Vec3
	Size     Vec3
	Rotation float64 // yaw about Z, radians
	IsStatic bool
	Velocity Vec3
}

// contains reports whether p lies strictly inside the obstacle box.
// Degenerate or negative sizes are tolerated via absolute half-extents;
// surface contact does not count as containment.
func (o *Obstacle) contains(p Vec3) bool {
	d := p.Sub(o.Position).Sanitized()
	if o.Rotation != 0 && isFinite(o.Rotation) {
		// Rotate the query point into the obstacle frame.
		c, s := math.Cos(-o.Rotation), math.Sin(-o.Rotation)
		d = Vec3{d.X*c - d.Y*s, d.X*s + d.Y*c, d.Z}
	}
	hx := math.Abs(sanitizeFinite(o.Size.X)) * 0.5
	hy := math.Abs(sanitizeFinite(o.Size.Y)) * 0.5
	hz := math.Abs(sanitizeFinite(o.Size.Z)) * 0.5
	return math.Abs(d.X) < hx && math.Abs(d.Y) < hy && math.Abs(d.Z) < hz
}

// VirtualWorld is the 3D space every drone validates against: horizontal
// bounds centered on the origin, altitude from 0 up to Bounds.Z, plus an
// obstacle registry. One instance is shared by all drones of a
// MultiDroneSimulator behind a read-write lock.
type VirtualWorld struct {
	mu        sync.RWMutex
	bounds    Vec3 // X/Y full extents, Z height
	obstacles map[string]*Obstacle
	order     []string // insertion order for deterministic scans
	logger    *log.Logger
}

const boundaryWallThickness = 1.0

// NewVirtualWorld creates a world of the given extents and auto-registers six
// boundary walls just outside the valid region. Non-positive or non-finite
// extents fall back to a 10x10x5 m space.
func NewVirtualWorld(bounds Vec3, logger *log.Logger) *VirtualWorld {
	if logger == nil {
		logger = log.Default()
	}
	bounds = bounds.Sanitized()
	if bounds.X <= 0 {
		bounds.X = 10
	}
	if bounds.Y <= 0 {
		bounds.Y = 10
	}
	if bounds.Z <= 0 {
		bounds.Z = 5
	}

	w := &VirtualWorld{
		bounds:    bounds,
		obstacles: make(map[string]*Obstacle),
		logger:    logger,
	}
	w.addBoundaryWalls()
	return w
}

func (w *VirtualWorld) addBoundaryWalls() {
	hx, hy, h := w.bounds.X/2, w.bounds.Y/2, w.bounds.Z
	t := boundaryWallThickness
	walls := []Obstacle{
		{ID: "boundary-floor", Type: ObstacleFloor, Position: Vec3{0, 0, -t / 2}, Size: Vec3{w.bounds.X + 2*t, w.bounds.Y + 2*t, t}, IsStatic: true},
		{ID: "boundary-ceiling", Type: ObstacleCeiling, Position: Vec3{0, 0, h + t/2}, Size: Vec3{w.bounds.X + 2*t, w.bounds.Y + 2*t, t}, IsStatic: true},
		{ID: "boundary-wall-east", Type: ObstacleWall, Position: Vec3{hx + t/2, 0, h / 2}, Size: Vec3{t, w.bounds.Y + 2*t, h + 2*t}, IsStatic: true},
		{ID: "boundary-wall-west", Type: ObstacleWall, Position: Vec3{-hx - t/2, 0, h / 2}, Size: Vec3{t, w.bounds.Y + 2*t, h + 2*t}, IsStatic: true},
		{ID: "boundary-wall-north", Type: ObstacleWall, Position: Vec3{0, hy + t/2, h / 2}, Size: Vec3{w.bounds.X + 2*t, t, h + 2*t}, IsStatic: true},
		{ID: "boundary-wall-south", Type: ObstacleWall, Position: Vec3{0, -hy - t/2, h / 2}, Size: Vec3{w.bounds.X + 2*t, t, h + 2*t}, IsStatic: true},
	}
	for i := range walls {
		o := walls[i]
		w.obstacles[o.ID] = &o
		w.order = append(w.order, o.ID)
	}
}

func (w *VirtualWorld) Bounds() Vec3 { return w.bounds }

// AddObstacle registers an obstacle. Duplicate ids are rejected.
func (w *VirtualWorld) AddObstacle(o Obstacle) error {
	if o.ID == "" {
		return fmt.Errorf("obstacle id must not be empty")
	}
	o.Position = o.Position.Sanitized()
	o.Size = o.Size.Sanitized()
	o.Velocity = o.Velocity.Sanitized()
	o.Rotation = sanitizeFinite(o.Rotation)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.obstacles[o.ID]; exists {
		return fmt.Errorf("obstacle %q already registered", o.ID)
	}
	w.obstacles[o.ID] = &o
	w.order = append(w.order, o.ID)
	return nil
}

// RemoveObstacle deletes an obstacle by id, reporting whether it existed.
func (w *VirtualWorld) RemoveObstacle(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.obstacles[id]; !exists {
		return false
	}
	delete(w.obstacles, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// ObstacleCount returns the number of caller-supplied obstacles, excluding
// the auto-registered boundary walls.
func (w *VirtualWorld) ObstacleCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for id := range w.obstacles {
		if !strings.HasPrefix(id, "boundary-") {
			n++
		}
	}
	return n
}

// Obstacles returns a snapshot copy of all obstacles in insertion order.
func (w *VirtualWorld) Obstacles() []Obstacle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Obstacle, 0, len(w.order))
	for _, id := range w.order {
		if o, ok := w.obstacles[id]; ok {
			out = append(out, *o)
		}
	}
	return out
}

// inBounds is inclusive at the boundary surfaces.
func (w *VirtualWorld) inBounds(p Vec3) bool {
	if !p.IsFinite() {
		return false
	}
	hx, hy := w.bounds.X/2, w.bounds.Y/2
	return p.X >= -hx && p.X <= hx &&
		p.Y >= -hy && p.Y <= hy &&
		p.Z >= 0 && p.Z <= w.bounds.Z
}

// clampToBounds pulls a point back inside the valid region.
func (w *VirtualWorld) clampToBounds(p Vec3) Vec3 {
	p = p.Sanitized()
	hx, hy := w.bounds.X/2, w.bounds.Y/2
	return Vec3{
		clamp(p.X, -hx, hx),
		clamp(p.Y, -hy, hy),
		clamp(p.Z, 0, w.bounds.Z),
	}
}

// IsPositionValid reports whether p is within bounds and outside every
// obstacle box.
func (w *VirtualWorld) IsPositionValid(p Vec3) bool {
	if !w.inBounds(p) {
		return false
	}
	hit, _ := w.CheckCollision(p)
	return !hit
}

// CheckCollision scans all obstacles and returns the first one containing p.
// Out-of-bounds points collide with nothing; callers test bounds separately.
func (w *VirtualWorld) CheckCollision(p Vec3) (bool, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, id := range w.order {
		o, ok := w.obstacles[id]
		if !ok {
			continue
		}
		if w.obstacleContains(o, p) {
			return true, id
		}
	}
	return false, ""
}

// obstacleContains isolates a single obstacle evaluation: a panic from
// corrupted data is logged and treated as "no hit" so the scan continues.
func (w *VirtualWorld) obstacleContains(o *Obstacle, p Vec3) (hit bool) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("[world] skipping corrupted obstacle %q: %v", o.ID, r)
			hit = false
		}
	}()
	return o.contains(p)
}

// AdvanceDynamicObstacles moves every non-static obstacle by its stored
// velocity, bouncing off the world bounds so obstacles stay inside.
func (w *VirtualWorld) AdvanceDynamicObstacles(dt float64) {
	if dt <= 0 || !isFinite(dt) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	hx, hy := w.bounds.X/2, w.bounds.Y/2
	for _, o := range w.obstacles {
		if o.IsStatic {
			continue
		}
		o.Position = o.Position.Add(o.Velocity.Mul(dt)).Sanitized()
		if o.Position.X < -hx || o.Position.X > hx {
			o.Position.X = clamp(o.Position.X, -hx, hx)
			o.Velocity.X = -o.Velocity.X
		}
		if o.Position.Y < -hy || o.Position.Y > hy {
			o.Position.Y = clamp(o.Position.Y, -hy, hy)
			o.Velocity.Y = -o.Velocity.Y
		}
		if o.Position.Z < 0 || o.Position.Z > w.bounds.Z {
			o.Position.Z = clamp(o.Position.Z, 0, w.bounds.Z)
			o.Velocity.Z = -o.Velocity.Z
		}
	}
}
