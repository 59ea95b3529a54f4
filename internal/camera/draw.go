package camera

// Raster helpers for the 8-bit RGB frame buffer (row-major, 3 bytes/pixel).

type canvas struct {
	pix  []uint8
	w, h int
}

func newCanvas(w, h int) canvas {
	return canvas{pix: make([]uint8, w*h*3), w: w, h: h}
}

func (c canvas) set(x, y int, col Color) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := (y*c.w + x) * 3
	c.pix[i] = col[0]
	c.pix[i+1] = col[1]
	c.pix[i+2] = col[2]
}

// fillRect fills the axis-aligned rectangle [x0,x1)x[y0,y1), clipped to the
// frame.
func (c canvas) fillRect(x0, y0, x1, y1 int, col Color) {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > c.w {
		x1 = c.w
	}
	if y1 > c.h {
		y1 = c.h
	}
	for y := y0; y < y1; y++ {
		row := y * c.w * 3
		for x := x0; x < x1; x++ {
			i := row + x*3
			c.pix[i] = col[0]
			c.pix[i+1] = col[1]
			c.pix[i+2] = col[2]
		}
	}
}

// fillEllipse fills an axis-aligned ellipse centered at (cx,cy) with the
// given half-extents, clipped to the frame.
func (c canvas) fillEllipse(cx, cy, rx, ry float64, col Color) {
	if rx <= 0 || ry <= 0 {
		return
	}
	x0, x1 := int(cx-rx), int(cx+rx)+1
	y0, y1 := int(cy-ry), int(cy+ry)+1
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > c.w {
		x1 = c.w
	}
	if y1 > c.h {
		y1 = c.h
	}
	for y := y0; y < y1; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		for x := x0; x < x1; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			if dx*dx+dy*dy <= 1.0 {
				c.set(x, y, col)
			}
		}
	}
}

// background paints a sky gradient above the horizon and a ground band below
// it. The horizon line tracks the drone's altitude for a simple perspective
// cue: the higher the drone, the more ground is visible.
func (c canvas) background(horizon int) {
	if horizon < 0 {
		horizon = 0
	}
	if horizon > c.h {
		horizon = c.h
	}
	for y := 0; y < horizon; y++ {
		// Sky fades toward the horizon.
		f := float64(y) / float64(maxi(horizon, 1))
		col := Color{
			uint8(110 + 70*f),
			uint8(160 + 50*f),
			uint8(225 + 25*f),
		}
		c.fillRect(0, y, c.w, y+1, col)
	}
	for y := horizon; y < c.h; y++ {
		f := float64(y-horizon) / float64(maxi(c.h-horizon, 1))
		col := Color{
			uint8(90 - 30*f),
			uint8(140 - 40*f),
			uint8(70 - 25*f),
		}
		c.fillRect(0, y, c.w, y+1, col)
	}
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
