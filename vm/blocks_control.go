package vm

func (e *Executor) registerControl() {
	e.Statement("control_wait", controlWait)
	e.Statement("control_repeat", controlRepeat)
	e.Statement("control_forever", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		f.State = FrameRunning
		return e.enterLoop(t, f, b)
	})
	e.Statement("control_if", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if e.condition(t, b, "CONDITION") {
			return e.enterBranch(t, b.Substack("SUBSTACK"))
		}
		return ResultContinue
	})
	e.Statement("control_if_else", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if e.condition(t, b, "CONDITION") {
			return e.enterBranch(t, b.Substack("SUBSTACK"))
		}
		return e.enterBranch(t, b.Substack("SUBSTACK2"))
	})
	e.Statement("control_wait_until", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		if e.condition(t, b, "CONDITION") {
			return ResultContinue
		}
		f.State = FrameWaitingCondition
		return ResultYield
	})
	e.Statement("control_repeat_until", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		if e.condition(t, b, "CONDITION") {
			return ResultContinue
		}
		f.State = FrameRunning
		return e.enterLoop(t, f, b)
	})
	e.Statement("control_while", func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
		if !e.condition(t, b, "CONDITION") {
			return ResultContinue
		}
		f.State = FrameRunning
		return e.enterLoop(t, f, b)
	})
	e.Statement("control_stop", controlStop)
	e.Statement("control_create_clone_of", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		opt := e.InputValue(t, b, "CLONE_OPTION").AsString()
		of := t.Sprite
		if opt != "_myself_" {
			of = e.rt.SpriteByName(opt)
		}
		if of != nil {
			e.rt.CreateClone(of)
		}
		return ResultContinue
	})
	e.Statement("control_delete_this_clone", func(e *Executor, t *Thread, _ *Frame, _ *Block) BlockResult {
		if !t.Sprite.IsClone {
			return ResultContinue
		}
		e.rt.DeleteClone(t.Sprite)
		return ResultStopScript
	})

	e.Reporter("control_create_clone_of_menu", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("CLONE_OPTION"))
	})
}

func controlWait(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
	now := e.rt.clock.Now()
	if f.State == FrameFresh {
		f.Deadline = now.Add(seconds(e.InputValue(t, b, "DURATION").AsDouble()))
		f.State = FrameWaitingTimer
		return ResultYield
	}
	if now.Before(f.Deadline) {
		return ResultYield
	}
	return ResultContinue
}

func controlRepeat(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
	if f.State == FrameFresh {
		f.Counter = roundToInt(e.InputValue(t, b, "TIMES").AsDouble())
		f.State = FrameWaitingIterations
	}
	if f.Counter <= 0 {
		return ResultContinue
	}
	f.Counter--
	return e.enterLoop(t, f, b)
}

func controlStop(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
	switch opt := b.Field("STOP_OPTION"); opt {
	case "all":
		return ResultStopAll
	case "this script":
		return ResultStopScript
	case "other scripts in sprite", "other scripts in stage":
		e.stopSprite(t.Sprite, t)
		return ResultContinue
	default:
		log.Warningf("unknown stop option %q", opt)
		return ResultContinue
	}
}

// enterLoop runs one iteration of a loop body. An empty body still yields
// between iterations unless the thread is warping.
func (e *Executor) enterLoop(t *Thread, f *Frame, b *Block) BlockResult {
	body := b.Substack("SUBSTACK")
	if body == NoBlock {
		return e.loopYield(t, f)
	}
	t.push(body, frameLoop)
	return ResultSubstack
}

// enterBranch runs the body of an if; execution resumes after the if block.
func (e *Executor) enterBranch(t *Thread, body BlockRef) BlockResult {
	if body == NoBlock {
		return ResultContinue
	}
	t.push(body, frameBranch)
	return ResultSubstack
}
