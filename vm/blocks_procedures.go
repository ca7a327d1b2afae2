package vm

func (e *Executor) registerProcedures() {
	e.Statement("procedures_call", proceduresCall)
	e.Reporter("argument_reporter_string_number", func(e *Executor, t *Thread, b *Block) Value {
		if v, ok := t.Param(b.Field("VALUE")); ok {
			return v
		}
		return FromInt(0)
	})
	e.Reporter("argument_reporter_boolean", func(e *Executor, t *Thread, b *Block) Value {
		if v, ok := t.Param(b.Field("VALUE")); ok {
			return v
		}
		return FromBool(false)
	})
}

// proceduresCall enters a custom block body with its arguments bound. A
// recursive call outside warp yields once first so runaway recursion still
// lets frames render.
func proceduresCall(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
	if b.Mutation == nil {
		return ResultContinue
	}
	cb := t.Sprite.CustomBlocks[b.Mutation.ProcCode]
	if cb == nil {
		log.Debugf("%s: no definition for %q", t.Sprite.Name, b.Mutation.ProcCode)
		return ResultContinue
	}
	def := e.rt.graph.Block(cb.Definition)
	if def == nil || def.Next == NoBlock {
		return ResultContinue
	}
	warp := f.Warp || cb.Warp
	if !warp && f.State == FrameFresh && t.inProcedure(cb.Name) {
		f.State = FrameRunning
		return ResultYield
	}

	params := make(map[string]Value, len(cb.ArgumentIDs))
	for i, id := range cb.ArgumentIDs {
		name := id
		if i < len(cb.ArgumentNames) {
			name = cb.ArgumentNames[i]
		}
		switch {
		case hasInput(b, id):
			params[name] = e.InputValue(t, b, id)
		case i < len(cb.ArgumentDefaults):
			params[name] = ParseLiteral(cb.ArgumentDefaults[i])
		default:
			params[name] = Value{}
		}
	}

	body := t.push(def.Next, frameProcedure)
	body.Params = params
	body.ProcCode = cb.Name
	body.Warp = warp
	return ResultSubstack
}

func hasInput(b *Block, name string) bool {
	_, ok := b.Inputs[name]
	return ok
}
