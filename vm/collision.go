package vm

import "math"

// Point is a position in stage coordinates (origin at the center, y up).
type Point struct {
	X, Y float64
}

// fenceSliver is how much of a fenced sprite stays on stage.
const fenceSliver = 5.0

// CollisionPoints returns the corners of s's oriented bounding box.
//
// The box is the costume rectangle scaled by Size, shifted so the costume's
// rotation center sits on (X, Y), and rotated by the sprite's direction as
// limited by its rotation style.
func CollisionPoints(s *Sprite) [4]Point {
	scale := s.Size / 100
	hw := s.Width * scale / 2
	hh := s.Height * scale / 2

	// Costume center relative to the rotation center.
	ox := (s.Width/2 - s.RotationCenterX) * scale
	oy := (s.RotationCenterY - s.Height/2) * scale

	direction := s.Direction
	switch s.RotationStyle {
	case DontRotate:
		direction = 90
	case LeftRight:
		if direction > 0 {
			direction = 90
		} else {
			direction = -90
		}
	}
	theta := (90 - direction) * math.Pi / 180
	sin, cos := math.Sincos(theta)

	corners := [4]Point{
		{-hw + ox, hh + oy},
		{hw + ox, hh + oy},
		{hw + ox, -hh + oy},
		{-hw + ox, -hh + oy},
	}
	var out [4]Point
	for i, c := range corners {
		out[i] = Point{
			X: s.X + c.X*cos - c.Y*sin,
			Y: s.Y + c.X*sin + c.Y*cos,
		}
	}
	return out
}

// IsColliding answers the touching queries. kind is "mouse", "edge" or
// "sprite"; for "sprite" the target is either given directly or looked up
// as the first visible sprite named targetName.
func (r *Runtime) IsColliding(kind string, s, target *Sprite, targetName string) bool {
	switch kind {
	case "mouse":
		m := r.mouse
		pointer := [4]Point{
			{m.X - 0.5, m.Y - 0.5},
			{m.X + 0.5, m.Y - 0.5},
			{m.X + 0.5, m.Y + 0.5},
			{m.X - 0.5, m.Y + 0.5},
		}
		return quadsOverlap(CollisionPoints(s), pointer)
	case "edge":
		hw := float64(r.settings.Width) / 2
		hh := float64(r.settings.Height) / 2
		return s.X <= -hw || s.X >= hw || s.Y <= -hh || s.Y >= hh
	case "sprite":
		if target == nil && targetName != "" {
			for _, other := range r.sprites {
				if other != s && !other.IsStage && other.Visible && other.Name == targetName {
					target = other
					break
				}
			}
		}
		if target == nil || !target.Visible {
			return false
		}
		a, b := CollisionPoints(s), CollisionPoints(target)
		return anyVertexInside(a, b) || anyVertexInside(b, a)
	}
	log.Warningf("unknown collision kind %q", kind)
	return false
}

// FenceSpriteWithinBounds pulls s back so at least a sliver of its scaled
// bounding box stays inside the stage on every side.
func (r *Runtime) FenceSpriteWithinBounds(s *Sprite) {
	fence(s, float64(r.settings.Width), float64(r.settings.Height))
}

func fence(s *Sprite, stageWidth, stageHeight float64) {
	hw, hh := stageWidth/2, stageHeight/2
	scale := s.Size / 100
	shw := s.Width * scale / 2
	shh := s.Height * scale / 2

	maxLeft := hw - fenceSliver
	minRight := -hw + fenceSliver
	maxBottom := hh - fenceSliver
	minTop := -hh + fenceSliver

	if s.X-shw > maxLeft {
		s.X = maxLeft + shw
	}
	if s.X+shw < minRight {
		s.X = minRight - shw
	}
	if s.Y-shh > maxBottom {
		s.Y = maxBottom + shh
	}
	if s.Y+shh < minTop {
		s.Y = minTop - shh
	}
}

// ---------------------------------------------------------------------------
// Geometry helpers
// ---------------------------------------------------------------------------

// quadsOverlap applies the separating axis test over the edge normals of
// both quads.
func quadsOverlap(a, b [4]Point) bool {
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		for _, q := range [2][4]Point{a, b} {
			ax, ay := normal(q[i], q[j])
			if separated(a, b, ax, ay) {
				return false
			}
		}
	}
	return true
}

func normal(p, q Point) (float64, float64) {
	x, y := -(q.Y - p.Y), q.X-p.X
	if l := math.Hypot(x, y); l > 0 {
		x, y = x/l, y/l
	}
	return x, y
}

func separated(a, b [4]Point, ax, ay float64) bool {
	minA, maxA := project(a, ax, ay)
	minB, maxB := project(b, ax, ay)
	return maxA < minB || maxB < minA
}

func project(q [4]Point, ax, ay float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range q {
		d := p.X*ax + p.Y*ay
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// anyVertexInside reports whether a vertex of a lies inside quad b, using
// the odd-crossing ray casting rule.
func anyVertexInside(a, b [4]Point) bool {
	for _, p := range a {
		if pointInQuad(p, b) {
			return true
		}
	}
	return false
}

func pointInQuad(p Point, q [4]Point) bool {
	crossings := 0
	for i := 0; i < 4; i++ {
		p1, p2 := q[i], q[(i+1)%4]
		if (p1.Y > p.Y) != (p2.Y > p.Y) &&
			p.X < (p2.X-p1.X)*(p.Y-p1.Y)/(p2.Y-p1.Y)+p1.X {
			crossings++
		}
	}
	return crossings%2 == 1
}
