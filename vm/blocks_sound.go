package vm

func (e *Executor) registerSound() {
	e.Statement("sound_play", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if snd, ok := soundFor(t.Sprite, e.InputValue(t, b, "SOUND_MENU")); ok && e.rt.audio != nil {
			e.rt.audio.Play(t.Sprite.ID, snd)
		}
		return ResultContinue
	})
	e.Statement("sound_playuntildone", soundPlayUntilDone)
	e.Statement("sound_stopallsounds", func(e *Executor, _ *Thread, _ *Frame, _ *Block) BlockResult {
		if e.rt.audio != nil {
			e.rt.audio.StopAll()
		}
		return ResultContinue
	})
	e.Statement("sound_setvolumeto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.setVolume(t.Sprite, e.InputValue(t, b, "VOLUME").AsDouble())
		return ResultContinue
	})
	e.Statement("sound_changevolumeby", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.setVolume(t.Sprite, t.Sprite.Volume+e.InputValue(t, b, "VOLUME").AsDouble())
		return ResultContinue
	})

	e.Reporter("sound_volume", func(e *Executor, t *Thread, _ *Block) Value {
		return FromFloat64(t.Sprite.Volume)
	})
	e.Reporter("sound_sounds_menu", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("SOUND_MENU"))
	})
}

func soundPlayUntilDone(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
	audio := e.rt.audio
	if audio == nil {
		return ResultContinue
	}
	if f.State == FrameFresh {
		snd, ok := soundFor(t.Sprite, e.InputValue(t, b, "SOUND_MENU"))
		if !ok {
			return ResultContinue
		}
		audio.Play(t.Sprite.ID, snd)
		f.Text = snd.Name
		f.State = FrameWaitingCondition
		return ResultYield
	}
	snd, ok := t.Sprite.SoundByName(f.Text)
	if ok && audio.IsPlaying(t.Sprite.ID, snd) {
		return ResultYield
	}
	return ResultContinue
}

// soundFor resolves a sound menu value by name, then by 1-based number.
func soundFor(s *Sprite, v Value) (Sound, bool) {
	if snd, ok := s.SoundByName(v.AsString()); ok {
		return snd, true
	}
	if n := len(s.Sounds); n > 0 && v.IsNumeric() {
		i := (v.AsInt() - 1) % n
		if i < 0 {
			i += n
		}
		return s.Sounds[i], true
	}
	log.Debugf("%s: no sound %q", s.Name, v.AsString())
	return Sound{}, false
}

func (r *Runtime) setVolume(s *Sprite, volume float64) {
	s.Volume = clampFloat(volume, 0, 100)
	if r.audio != nil {
		r.audio.SetVolume(s.ID, s.Volume)
	}
}
