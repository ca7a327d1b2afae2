package vm

import "math"

func (e *Executor) registerPen() {
	e.Statement("pen_clear", func(e *Executor, _ *Thread, _ *Frame, _ *Block) BlockResult {
		e.rt.pen = append(e.rt.pen, PenCommand{Kind: PenClear})
		return ResultContinue
	})
	e.Statement("pen_stamp", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		s := t.Sprite
		e.rt.pen = append(e.rt.pen, PenCommand{
			Kind:     PenStamp,
			SpriteID: s.ID,
			From:     Point{s.X, s.Y},
			To:       Point{s.X, s.Y},
		})
		return ResultContinue
	})
	e.Statement("pen_penDown", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		s := t.Sprite
		s.Pen.Down = true
		e.rt.penLine(s, Point{s.X, s.Y}, Point{s.X, s.Y})
		return ResultContinue
	})
	e.Statement("pen_penUp", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		t.Sprite.Pen.Down = false
		return ResultContinue
	})
	e.Statement("pen_setPenColorToColor", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Pen.Color = e.InputValue(t, b, "COLOR").AsColor()
		return ResultContinue
	})
	e.Statement("pen_changePenColorParamBy", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		penParam(&t.Sprite.Pen, e.InputValue(t, b, "COLOR_PARAM").AsString(), e.InputValue(t, b, "VALUE").AsDouble(), true)
		return ResultContinue
	})
	e.Statement("pen_setPenColorParamTo", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		penParam(&t.Sprite.Pen, e.InputValue(t, b, "COLOR_PARAM").AsString(), e.InputValue(t, b, "VALUE").AsDouble(), false)
		return ResultContinue
	})
	e.Statement("pen_changePenSizeBy", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		p := &t.Sprite.Pen
		p.Size = clampFloat(p.Size+e.InputValue(t, b, "SIZE").AsDouble(), 1, 1000)
		return ResultContinue
	})
	e.Statement("pen_setPenSizeTo", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Pen.Size = clampFloat(e.InputValue(t, b, "SIZE").AsDouble(), 1, 1000)
		return ResultContinue
	})
	e.Reporter("pen_menu_colorParam", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("colorParam"))
	})
}

// penParam changes (or sets) one pen colour parameter on the 0-100 scale.
// Colour wraps around; the others clamp.
func penParam(p *PenState, param string, n float64, change bool) {
	cur := func(v float64) float64 {
		if change {
			return v + n
		}
		return n
	}
	switch param {
	case "color":
		c := cur(p.Color.Hue / 3.6)
		c = math.Mod(c, 100)
		if c < 0 {
			c += 100
		}
		p.Color.Hue = c * 3.6
	case "saturation":
		p.Color.Saturation = clampFloat(cur(p.Color.Saturation), 0, 100)
	case "brightness":
		p.Color.Brightness = clampFloat(cur(p.Color.Brightness), 0, 100)
	case "transparency":
		p.Transparency = clampFloat(cur(p.Transparency), 0, 100)
	default:
		log.Warningf("unknown pen color parameter %q", param)
	}
}

// penLine records a pen stroke from one point to another in s's pen.
func (r *Runtime) penLine(s *Sprite, from, to Point) {
	r.pen = append(r.pen, PenCommand{
		Kind:         PenLine,
		SpriteID:     s.ID,
		From:         from,
		To:           to,
		Color:        HSBToRGB(s.Pen.Color),
		Size:         s.Pen.Size,
		Transparency: s.Pen.Transparency,
	})
}
