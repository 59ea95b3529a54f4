package camera

// Color is an 8-bit RGB triple.
type Color [3]uint8

type ObjectKind int

const (
	ObjectPerson ObjectKind = iota
	ObjectVehicle
	ObjectAnimal
	ObjectBall
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectPerson:
		return "person"
	case ObjectVehicle:
		return "vehicle"
	case ObjectAnimal:
		return "animal"
	case ObjectBall:
		return "ball"
	}
	return "unknown"
}

// kindDefaults maps each kind to its drawn footprint (px at reference
// altitude) and color.
var kindDefaults = map[ObjectKind]struct {
	w, h  float64
	color Color
}{
	ObjectPerson:  {w: 18, h: 42, color: Color{30, 90, 200}},
	ObjectVehicle: {w: 64, h: 32, color: Color{200, 40, 40}},
	ObjectAnimal:  {w: 28, h: 20, color: Color{140, 90, 40}},
	ObjectBall:    {w: 16, h: 16, color: Color{40, 180, 70}},
}

// TrackingObject is a synthetic on-screen entity the camera animates and
// draws each frame. Origin is the position it was created at; the current
// position derives from the movement pattern.
type TrackingObject struct {
	ID      string
	Kind    ObjectKind
	Origin  Point
	Width   float64
	Height  float64
	Color   Color
	Pattern MovementPattern
	Speed   float64 // px/s
	Params  PatternParams

	pos Point // runtime position, owned by the stream loop
}

// Position returns the object's position as of the last rendered frame.
func (o *TrackingObject) Position() Point { return o.pos }

// ObjectSpec describes a tracking object to add. Zero Width/Height/Color
// fall back to the kind defaults.
type ObjectSpec struct {
	Kind     ObjectKind
	Position Point
	Width    float64
	Height   float64
	Color    Color
	Pattern  MovementPattern
	Speed    float64
	Params   PatternParams
}

func (spec ObjectSpec) materialize(id string) *TrackingObject {
	def := kindDefaults[spec.Kind]
	o := &TrackingObject{
		ID:      id,
		Kind:    spec.Kind,
		Origin:  spec.Position,
		Width:   spec.Width,
		Height:  spec.Height,
		Color:   spec.Color,
		Pattern: spec.Pattern,
		Speed:   spec.Speed,
		Params:  spec.Params,
		pos:     spec.Position,
	}
	if o.Width <= 0 {
		o.Width = def.w
	}
	if o.Height <= 0 {
		o.Height = def.h
	}
	if o.Color == (Color{}) {
		o.Color = def.color
	}
	return o
}
