package vm

import (
	"math"
	"strings"
	"time"
)

var epoch2000 = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func (e *Executor) registerSensing() {
	e.Reporter("sensing_touchingobject", func(e *Executor, t *Thread, b *Block) Value {
		switch target := e.InputValue(t, b, "TOUCHINGOBJECTMENU").AsString(); target {
		case "_mouse_":
			return FromBool(e.rt.IsColliding("mouse", t.Sprite, nil, ""))
		case "_edge_":
			return FromBool(e.rt.IsColliding("edge", t.Sprite, nil, ""))
		default:
			return FromBool(e.rt.IsColliding("sprite", t.Sprite, nil, target))
		}
	})
	e.Reporter("sensing_touchingobjectmenu", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("TOUCHINGOBJECTMENU"))
	})
	e.Reporter("sensing_keypressed", func(e *Executor, t *Thread, b *Block) Value {
		return FromBool(e.rt.KeyPressed(e.InputValue(t, b, "KEY_OPTION").AsString()))
	})
	e.Reporter("sensing_keyoptions", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("KEY_OPTION"))
	})
	e.Reporter("sensing_mousedown", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromBool(e.rt.mouseDown)
	})
	e.Reporter("sensing_mousex", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromFloat64(e.rt.mouse.X)
	})
	e.Reporter("sensing_mousey", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromFloat64(e.rt.mouse.Y)
	})
	e.Reporter("sensing_timer", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromFloat64(e.rt.Timer())
	})
	e.Statement("sensing_resettimer", func(e *Executor, _ *Thread, _ *Frame, _ *Block) BlockResult {
		e.rt.timerStart = e.rt.clock.Now()
		return ResultContinue
	})
	e.Reporter("sensing_distanceto", sensingDistanceTo)
	e.Reporter("sensing_distancetomenu", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("DISTANCETOMENU"))
	})
	e.Reporter("sensing_of", sensingOf)
	e.Reporter("sensing_of_object_menu", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("OBJECT"))
	})
	e.Reporter("sensing_current", sensingCurrent)
	e.Reporter("sensing_dayssince2000", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromFloat64(e.rt.clock.Now().Sub(epoch2000).Hours() / 24)
	})
	e.Reporter("sensing_username", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromString(e.rt.username)
	})
	e.Statement("sensing_setdragmode", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		switch mode := b.Field("DRAG_MODE"); mode {
		case "draggable":
			t.Sprite.Draggable = true
		case "not draggable":
			t.Sprite.Draggable = false
		default:
			log.Warningf("unknown drag mode %q", mode)
		}
		return ResultContinue
	})
	e.Statement("sensing_askandwait", sensingAskAndWait)
	e.Reporter("sensing_answer", func(e *Executor, _ *Thread, _ *Block) Value {
		return FromString(e.rt.answer)
	})
}

func sensingDistanceTo(e *Executor, t *Thread, b *Block) Value {
	s := t.Sprite
	if s.IsStage {
		return FromInt(10000)
	}
	var p Point
	switch target := e.InputValue(t, b, "DISTANCETOMENU").AsString(); target {
	case "_mouse_":
		p = e.rt.mouse
	default:
		other := e.rt.SpriteByName(target)
		if other == nil {
			return FromInt(10000)
		}
		p = Point{other.X, other.Y}
	}
	return FromFloat64(math.Hypot(s.X-p.X, s.Y-p.Y))
}

// sensingOf reports a property of another sprite or the stage, falling
// back to a variable of that name.
func sensingOf(e *Executor, t *Thread, b *Block) Value {
	target := e.rt.target(e.InputValue(t, b, "OBJECT").AsString())
	if target == nil {
		return FromInt(0)
	}
	prop := b.Field("PROPERTY")
	if target.IsStage {
		switch prop {
		case "backdrop #":
			return costumeReport(target, "number")
		case "backdrop name":
			return costumeReport(target, "name")
		case "volume":
			return FromFloat64(target.Volume)
		}
	} else {
		switch prop {
		case "x position":
			return FromFloat64(limitPrecision(target.X))
		case "y position":
			return FromFloat64(limitPrecision(target.Y))
		case "direction":
			return FromFloat64(target.Direction)
		case "costume #":
			return costumeReport(target, "number")
		case "costume name":
			return costumeReport(target, "name")
		case "size":
			return FromInt(roundToInt(target.Size))
		case "volume":
			return FromFloat64(target.Volume)
		}
	}
	if v := target.VariableByName(prop); v != nil {
		return v.Value
	}
	return FromInt(0)
}

func sensingCurrent(e *Executor, _ *Thread, b *Block) Value {
	now := e.rt.clock.Now()
	switch menu := strings.ToUpper(b.Field("CURRENTMENU")); menu {
	case "YEAR":
		return FromInt(now.Year())
	case "MONTH":
		return FromInt(int(now.Month()))
	case "DATE":
		return FromInt(now.Day())
	case "DAYOFWEEK":
		return FromInt(int(now.Weekday()) + 1)
	case "HOUR":
		return FromInt(now.Hour())
	case "MINUTE":
		return FromInt(now.Minute())
	case "SECOND":
		return FromInt(now.Second())
	default:
		log.Warningf("unknown current menu option %q", menu)
		return FromInt(0)
	}
}

// sensingAskAndWait shows a question and waits for the prompter's answer.
// Without a prompter the answer is empty.
func sensingAskAndWait(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
	p := e.rt.prompter
	if p == nil {
		e.rt.answer = ""
		return ResultContinue
	}
	if f.State == FrameFresh {
		q := e.InputValue(t, b, "QUESTION").AsString()
		e.rt.question = q
		p.Ask(q)
		f.State = FrameWaitingCondition
		return ResultYield
	}
	ans, ok := p.Answer()
	if !ok {
		return ResultYield
	}
	e.rt.answer = ans
	e.rt.question = ""
	return ResultContinue
}
