package vm

import (
	"math"
	"strings"
)

// graphicEffects are the effect names Scratch supports, lower-cased.
var graphicEffects = map[string]bool{
	"color":      true,
	"fisheye":    true,
	"whirl":      true,
	"pixelate":   true,
	"mosaic":     true,
	"brightness": true,
	"ghost":      true,
}

func (e *Executor) registerLooks() {
	e.Statement("looks_say", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Bubble = Bubble{Text: e.InputValue(t, b, "MESSAGE").AsString()}
		return ResultContinue
	})
	e.Statement("looks_think", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		t.Sprite.Bubble = Bubble{Text: e.InputValue(t, b, "MESSAGE").AsString(), Think: true}
		return ResultContinue
	})
	e.Statement("looks_sayforsecs", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		return e.bubbleForSecs(t, f, b, false)
	})
	e.Statement("looks_thinkforsecs", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		return e.bubbleForSecs(t, f, b, true)
	})
	e.Statement("looks_switchcostumeto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		setCostume(t.Sprite, e.InputValue(t, b, "COSTUME"))
		return ResultContinue
	})
	e.Statement("looks_nextcostume", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		t.Sprite.SetCostume(t.Sprite.CurrentCostume + 1)
		return ResultContinue
	})
	e.Statement("looks_switchbackdropto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.switchBackdrop(e.InputValue(t, b, "BACKDROP"))
		return ResultContinue
	})
	e.Statement("looks_nextbackdrop", func(e *Executor, _ *Thread, _ *Frame, _ *Block) BlockResult {
		e.rt.switchBackdrop(FromString("next backdrop"))
		return ResultContinue
	})
	e.Statement("looks_changesizeby", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.setSize(t.Sprite, t.Sprite.Size+e.InputValue(t, b, "CHANGE").AsDouble())
		return ResultContinue
	})
	e.Statement("looks_setsizeto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.setSize(t.Sprite, e.InputValue(t, b, "SIZE").AsDouble())
		return ResultContinue
	})
	e.Statement("looks_changeeffectby", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		name := strings.ToLower(b.Field("EFFECT"))
		setEffect(t.Sprite, name, t.Sprite.Effects[name]+e.InputValue(t, b, "CHANGE").AsDouble())
		return ResultContinue
	})
	e.Statement("looks_seteffectto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		setEffect(t.Sprite, strings.ToLower(b.Field("EFFECT")), e.InputValue(t, b, "VALUE").AsDouble())
		return ResultContinue
	})
	e.Statement("looks_cleargraphiceffects", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		clear(t.Sprite.Effects)
		return ResultContinue
	})
	e.Statement("looks_show", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		t.Sprite.Visible = true
		return ResultContinue
	})
	e.Statement("looks_hide", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		t.Sprite.Visible = false
		return ResultContinue
	})
	e.Statement("looks_gotofrontback", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if t.Sprite.IsStage {
			return ResultContinue
		}
		switch b.Field("FRONT_BACK") {
		case "front":
			e.rt.moveToIndex(t.Sprite, len(e.rt.sprites))
		case "back":
			e.rt.moveToIndex(t.Sprite, 0)
		default:
			log.Warningf("unknown layer option %q", b.Field("FRONT_BACK"))
		}
		return ResultContinue
	})
	e.Statement("looks_goforwardbackwardlayers", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		s := t.Sprite
		if s.IsStage {
			return ResultContinue
		}
		n := e.InputValue(t, b, "NUM").AsInt()
		if b.Field("FORWARD_BACKWARD") == "backward" {
			n = -n
		}
		e.rt.moveToIndex(s, s.Layer+n)
		return ResultContinue
	})

	e.Reporter("looks_costumenumbername", func(e *Executor, t *Thread, b *Block) Value {
		return costumeReport(t.Sprite, b.Field("NUMBER_NAME"))
	})
	e.Reporter("looks_backdropnumbername", func(e *Executor, t *Thread, b *Block) Value {
		if e.rt.stage == nil {
			return Value{}
		}
		return costumeReport(e.rt.stage, b.Field("NUMBER_NAME"))
	})
	e.Reporter("looks_size", func(e *Executor, t *Thread, _ *Block) Value {
		return FromInt(roundToInt(t.Sprite.Size))
	})
}

// bubbleForSecs shows a bubble, waits, then clears it unless another
// block replaced it meanwhile.
func (e *Executor) bubbleForSecs(t *Thread, f *Frame, b *Block, think bool) BlockResult {
	s := t.Sprite
	now := e.rt.clock.Now()
	if f.State == FrameFresh {
		s.Bubble = Bubble{Text: e.InputValue(t, b, "MESSAGE").AsString(), Think: think}
		f.Deadline = now.Add(seconds(e.InputValue(t, b, "SECS").AsDouble()))
		f.Text = s.Bubble.Text
		f.State = FrameWaitingTimer
		return ResultYield
	}
	if now.Before(f.Deadline) {
		return ResultYield
	}
	if s.Bubble.Text == f.Text && s.Bubble.Think == think {
		s.Bubble = Bubble{}
	}
	return ResultContinue
}

// setCostume switches by name, then by 1-based number, then by the
// "next"/"previous" keywords.
func setCostume(s *Sprite, v Value) {
	if v.IsString() {
		name := v.AsString()
		if i := s.CostumeIndex(name); i >= 0 {
			s.SetCostume(i)
			return
		}
		switch name {
		case "next costume", "next backdrop":
			s.SetCostume(s.CurrentCostume + 1)
			return
		case "previous costume", "previous backdrop":
			s.SetCostume(s.CurrentCostume - 1)
			return
		}
		if !v.IsNumeric() || strings.TrimSpace(name) == "" {
			return
		}
	}
	s.SetCostume(v.AsInt() - 1)
}

func (r *Runtime) switchBackdrop(v Value) {
	stage := r.stage
	if stage == nil || len(stage.Costumes) == 0 {
		return
	}
	if v.AsString() == "random backdrop" {
		if n := len(stage.Costumes); n > 1 {
			i := r.rand.IntN(n - 1)
			if i >= stage.CurrentCostume {
				i++
			}
			stage.SetCostume(i)
		}
	} else {
		setCostume(stage, v)
	}
	name := stage.Costumes[stage.CurrentCostume].Name
	r.exec.startHats("event_whenbackdropswitchesto", func(_ *Sprite, b *Block) bool {
		return strings.EqualFold(b.Field("BACKDROP"), name)
	})
}

func costumeReport(s *Sprite, mode string) Value {
	if mode == "name" {
		if s.CurrentCostume < len(s.Costumes) {
			return FromString(s.Costumes[s.CurrentCostume].Name)
		}
		return Value{}
	}
	return FromInt(s.CurrentCostume + 1)
}

// setSize applies a size percentage. With misc limits on, the size is kept
// between a few pixels and one and a half stages, as Scratch does.
func (r *Runtime) setSize(s *Sprite, size float64) {
	if s.IsStage || math.IsNaN(size) {
		return
	}
	if r.settings.MiscLimits && s.Width > 0 && s.Height > 0 {
		minScale := math.Min(1, math.Max(5/s.Width, 5/s.Height))
		maxScale := math.Min(1.5*float64(r.settings.Width)/s.Width, 1.5*float64(r.settings.Height)/s.Height)
		size = math.Max(minScale*100, math.Min(size, maxScale*100))
	}
	s.Size = math.Max(0, size)
	if r.settings.Fencing {
		r.FenceSpriteWithinBounds(s)
	}
}

func setEffect(s *Sprite, name string, value float64) {
	if !graphicEffects[name] {
		log.Warningf("unknown graphic effect %q", name)
		return
	}
	switch name {
	case "ghost":
		value = clampFloat(value, 0, 100)
	case "brightness":
		value = clampFloat(value, -100, 100)
	}
	s.Effects[name] = value
}
