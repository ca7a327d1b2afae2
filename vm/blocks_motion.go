package vm

import (
	"math"
	"time"
)

func (e *Executor) registerMotion() {
	e.Statement("motion_movesteps", motionMoveSteps)
	e.Statement("motion_turnright", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Direction = wrapDirection(t.Sprite.Direction + e.InputValue(t, b, "DEGREES").AsDouble())
		return ResultContinue
	})
	e.Statement("motion_turnleft", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Direction = wrapDirection(t.Sprite.Direction - e.InputValue(t, b, "DEGREES").AsDouble())
		return ResultContinue
	})
	e.Statement("motion_goto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if p, ok := e.rt.targetPoint(t.Sprite, e.InputValue(t, b, "TO").AsString()); ok {
			e.rt.moveSprite(t.Sprite, p.X, p.Y)
		}
		return ResultContinue
	})
	e.Statement("motion_gotoxy", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.moveSprite(t.Sprite, e.InputValue(t, b, "X").AsDouble(), e.InputValue(t, b, "Y").AsDouble())
		return ResultContinue
	})
	e.Statement("motion_glideto", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		return e.glide(t, f, func() (float64, Point, bool) {
			p, ok := e.rt.targetPoint(t.Sprite, e.InputValue(t, b, "TO").AsString())
			return e.InputValue(t, b, "SECS").AsDouble(), p, ok
		})
	})
	e.Statement("motion_glidesecstoxy", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		return e.glide(t, f, func() (float64, Point, bool) {
			p := Point{e.InputValue(t, b, "X").AsDouble(), e.InputValue(t, b, "Y").AsDouble()}
			return e.InputValue(t, b, "SECS").AsDouble(), p, true
		})
	})
	e.Statement("motion_pointindirection", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Direction = wrapDirection(e.InputValue(t, b, "DIRECTION").AsDouble())
		return ResultContinue
	})
	e.Statement("motion_pointtowards", motionPointTowards)
	e.Statement("motion_changexby", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		s := t.Sprite
		e.rt.moveSprite(s, s.X+e.InputValue(t, b, "DX").AsDouble(), s.Y)
		return ResultContinue
	})
	e.Statement("motion_setx", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		s := t.Sprite
		e.rt.moveSprite(s, e.InputValue(t, b, "X").AsDouble(), s.Y)
		return ResultContinue
	})
	e.Statement("motion_changeyby", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		s := t.Sprite
		e.rt.moveSprite(s, s.X, s.Y+e.InputValue(t, b, "DY").AsDouble())
		return ResultContinue
	})
	e.Statement("motion_sety", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		s := t.Sprite
		e.rt.moveSprite(s, s.X, e.InputValue(t, b, "Y").AsDouble())
		return ResultContinue
	})
	e.Statement("motion_ifonedgebounce", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		e.rt.bounceOffEdge(t.Sprite)
		return ResultContinue
	})
	e.Statement("motion_setrotationstyle", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.RotationStyle = ParseRotationStyle(b.Field("STYLE"))
		return ResultContinue
	})

	e.Reporter("motion_xposition", func(e *Executor, t *Thread, _ *Block) Value {
		return FromFloat64(limitPrecision(t.Sprite.X))
	})
	e.Reporter("motion_yposition", func(e *Executor, t *Thread, _ *Block) Value {
		return FromFloat64(limitPrecision(t.Sprite.Y))
	})
	e.Reporter("motion_direction", func(e *Executor, t *Thread, _ *Block) Value {
		return FromFloat64(t.Sprite.Direction)
	})
}

func motionMoveSteps(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
	s := t.Sprite
	steps := e.InputValue(t, b, "STEPS").AsDouble()
	rad := (90 - s.Direction) * math.Pi / 180
	e.rt.moveSprite(s, s.X+steps*math.Cos(rad), s.Y+steps*math.Sin(rad))
	return ResultContinue
}

func motionPointTowards(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
	s := t.Sprite
	towards := e.InputValue(t, b, "TOWARDS").AsString()
	if towards == "_random_" {
		s.Direction = float64(e.rt.rand.IntN(360) - 179)
		return ResultContinue
	}
	p, ok := e.rt.targetPoint(s, towards)
	if !ok {
		return ResultContinue
	}
	dx, dy := p.X-s.X, p.Y-s.Y
	if dx == 0 && dy == 0 {
		return ResultContinue
	}
	s.Direction = wrapDirection(90 - math.Atan2(dy, dx)*180/math.Pi)
	return ResultContinue
}

// glide moves a sprite toward a target over time. setup runs once, when the
// block starts, and returns the duration in seconds and the destination.
func (e *Executor) glide(t *Thread, f *Frame, setup func() (float64, Point, bool)) BlockResult {
	s := t.Sprite
	now := e.rt.clock.Now()
	if f.State == FrameFresh {
		secs, to, ok := setup()
		if !ok {
			return ResultContinue
		}
		f.Started = now
		f.Duration = seconds(secs)
		f.From = Point{s.X, s.Y}
		f.To = to
		if f.Duration <= 0 {
			e.rt.moveSprite(s, to.X, to.Y)
			return ResultContinue
		}
		f.State = FrameWaitingTimer
		return ResultYield
	}
	elapsed := now.Sub(f.Started)
	if elapsed >= f.Duration {
		e.rt.moveSprite(s, f.To.X, f.To.Y)
		return ResultContinue
	}
	frac := float64(elapsed) / float64(f.Duration)
	e.rt.moveSprite(s, f.From.X+(f.To.X-f.From.X)*frac, f.From.Y+(f.To.Y-f.From.Y)*frac)
	return ResultYield
}

// ---------------------------------------------------------------------------
// Motion helpers
// ---------------------------------------------------------------------------

// moveSprite sets a sprite's position, fencing it when enabled and drawing
// a pen line when its pen is down.
func (r *Runtime) moveSprite(s *Sprite, x, y float64) {
	if s.IsStage {
		return
	}
	from := Point{s.X, s.Y}
	s.X, s.Y = limitPrecision(x), limitPrecision(y)
	if r.settings.Fencing {
		r.FenceSpriteWithinBounds(s)
	}
	if s.Pen.Down {
		r.penLine(s, from, Point{s.X, s.Y})
	}
}

// targetPoint resolves a motion menu value: _random_, _mouse_ or a sprite name.
func (r *Runtime) targetPoint(self *Sprite, name string) (Point, bool) {
	switch name {
	case "_random_":
		w, h := r.settings.Width, r.settings.Height
		return Point{
			X: float64(r.rand.IntN(w+1) - w/2),
			Y: float64(r.rand.IntN(h+1) - h/2),
		}, true
	case "_mouse_":
		return r.mouse, true
	}
	other := r.SpriteByName(name)
	if other == nil || other == self {
		return Point{}, false
	}
	return Point{other.X, other.Y}, true
}

// bounceOffEdge turns a sprite away from the nearest stage edge it touches
// and pulls it fully back on stage.
func (r *Runtime) bounceOffEdge(s *Sprite) {
	hw, hh := float64(r.settings.Width)/2, float64(r.settings.Height)/2
	minX, maxX, minY, maxY := bounds(CollisionPoints(s))

	distLeft := math.Max(0, hw+minX)
	distTop := math.Max(0, hh-maxY)
	distRight := math.Max(0, hw-maxX)
	distBottom := math.Max(0, hh+minY)

	edge, nearest := "", math.Inf(1)
	for _, c := range []struct {
		name string
		d    float64
	}{{"left", distLeft}, {"top", distTop}, {"right", distRight}, {"bottom", distBottom}} {
		if c.d < nearest {
			edge, nearest = c.name, c.d
		}
	}
	if nearest > 0 {
		return
	}

	rad := (90 - s.Direction) * math.Pi / 180
	dx, dy := math.Cos(rad), -math.Sin(rad)
	switch edge {
	case "left":
		dx = math.Max(0.2, math.Abs(dx))
	case "top":
		dy = math.Max(0.2, math.Abs(dy))
	case "right":
		dx = -math.Max(0.2, math.Abs(dx))
	case "bottom":
		dy = -math.Max(0.2, math.Abs(dy))
	}
	s.Direction = wrapDirection(math.Atan2(dy, dx)*180/math.Pi + 90)

	minX, maxX, minY, maxY = bounds(CollisionPoints(s))
	var fx, fy float64
	switch {
	case minX < -hw:
		fx = -hw - minX
	case maxX > hw:
		fx = hw - maxX
	}
	switch {
	case minY < -hh:
		fy = -hh - minY
	case maxY > hh:
		fy = hh - maxY
	}
	r.moveSprite(s, s.X+fx, s.Y+fy)
}

func bounds(q [4]Point) (minX, maxX, minY, maxY float64) {
	minX, maxX = math.Inf(1), math.Inf(-1)
	minY, maxY = math.Inf(1), math.Inf(-1)
	for _, p := range q {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return
}

// wrapDirection wraps a direction into (-180, 180].
func wrapDirection(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 90
	}
	d = math.Mod(d+179, 360)
	if d < 0 {
		d += 360
	}
	return d - 179
}

// limitPrecision snaps values within rounding error of an integer.
func limitPrecision(f float64) float64 {
	r := math.Round(f)
	if math.Abs(f-r) < 1e-9 {
		return r
	}
	return f
}

// seconds converts a block duration to a time.Duration; negative and
// non-finite durations become zero.
func seconds(secs float64) time.Duration {
	if math.IsNaN(secs) || secs <= 0 {
		return 0
	}
	if secs > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}
