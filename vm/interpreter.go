package vm

import (
	"time"
)

// StatementFunc runs a statement (or hat) block in thread t. f is the frame
// parked at b.
type StatementFunc func(e *Executor, t *Thread, f *Frame, b *Block) BlockResult

// ReporterFunc evaluates a reporter block.
type ReporterFunc func(e *Executor, t *Thread, b *Block) Value

// warpLimit bounds how long a no-refresh thread may run within one tick.
const warpLimit = 500 * time.Millisecond

// ---------------------------------------------------------------------------
// Executor: runs threads over the block graph
// ---------------------------------------------------------------------------

// Executor owns the thread list and the opcode tables. It is driven by its
// Runtime, one tick at a time.
type Executor struct {
	rt         *Runtime
	threads    []*Thread
	statements map[string]StatementFunc
	reporters  map[string]ReporterFunc
	unknown    map[string]bool

	// running is the thread inside runThread, if any.
	running *Thread
}

func newExecutor(rt *Runtime) *Executor {
	e := &Executor{
		rt:         rt,
		statements: make(map[string]StatementFunc),
		reporters:  make(map[string]ReporterFunc),
		unknown:    make(map[string]bool),
	}
	e.registerMotion()
	e.registerLooks()
	e.registerSound()
	e.registerEvents()
	e.registerControl()
	e.registerSensing()
	e.registerOperators()
	e.registerData()
	e.registerProcedures()
	e.registerPen()
	return e
}

// Statement registers a statement handler.
func (e *Executor) Statement(opcode string, fn StatementFunc) {
	e.statements[opcode] = fn
}

// Reporter registers a reporter handler.
func (e *Executor) Reporter(opcode string, fn ReporterFunc) {
	e.reporters[opcode] = fn
}

// Runtime returns the owning runtime.
func (e *Executor) Runtime() *Runtime { return e.rt }

// Threads returns the live threads in registration order.
func (e *Executor) Threads() []*Thread {
	out := make([]*Thread, 0, len(e.threads))
	for _, t := range e.threads {
		if !t.done {
			out = append(out, t)
		}
	}
	return out
}

func (e *Executor) unknownOpcode(opcode string) {
	if !e.unknown[opcode] {
		e.unknown[opcode] = true
		log.Warningf("unsupported opcode %s", opcode)
	}
}

// ---------------------------------------------------------------------------
// Thread management
// ---------------------------------------------------------------------------

// start launches (or restarts) the script headed by top on sprite s.
// A thread already running the same script is rewound in place and keeps
// its position in the run order. The thread currently executing is only
// marked, and rewinds on its next turn.
func (e *Executor) start(s *Sprite, top BlockRef) *Thread {
	for _, t := range e.threads {
		if t.Sprite == s && t.Top == top && !t.done {
			if t == e.running {
				t.rewind = true
			} else {
				t.restart()
			}
			return t
		}
	}
	chain := ""
	if b := e.rt.graph.Block(top); b != nil {
		chain = b.ChainID
	}
	t := newThread(s, top, chain)
	e.threads = append(e.threads, t)
	return t
}

// startHats starts every script whose hat has the given opcode and passes
// match, walking sprites in order and each sprite's scripts in
// registration order.
func (e *Executor) startHats(opcode string, match func(s *Sprite, b *Block) bool) []*Thread {
	var started []*Thread
	for _, s := range e.rt.sprites {
		started = append(started, e.startHatsFor(s, opcode, match)...)
	}
	return started
}

func (e *Executor) startHatsFor(s *Sprite, opcode string, match func(s *Sprite, b *Block) bool) []*Thread {
	if s.IsDeleted || s.ToDelete {
		return nil
	}
	var started []*Thread
	for _, top := range s.Scripts {
		b := e.rt.graph.Block(top)
		if b == nil || b.Opcode != opcode {
			continue
		}
		if match != nil && !match(s, b) {
			continue
		}
		started = append(started, e.start(s, top))
	}
	return started
}

// stopSprite ends every thread of s except keep.
func (e *Executor) stopSprite(s *Sprite, keep *Thread) {
	for _, t := range e.threads {
		if t.Sprite == s && t != keep {
			t.Stop()
		}
	}
}

func (e *Executor) stopAll() {
	for _, t := range e.threads {
		t.Stop()
	}
	e.threads = e.threads[:0]
}

// compact drops finished threads.
func (e *Executor) compact() {
	live := e.threads[:0]
	for _, t := range e.threads {
		if !t.done {
			live = append(live, t)
		}
	}
	clear(e.threads[len(live):])
	e.threads = live
}

// ---------------------------------------------------------------------------
// Scheduling
// ---------------------------------------------------------------------------

// runThreads gives every live thread one turn, in registration order.
// Threads started during the pass are appended and run in the same pass.
func (e *Executor) runThreads() {
	for i := 0; i < len(e.threads); i++ {
		t := e.threads[i]
		if t.done || t.Sprite.ToDelete || t.Sprite.IsDeleted {
			continue
		}
		e.runThread(t)
		if e.rt.stopRequested {
			return
		}
	}
	e.compact()
}

// runThread executes t until it yields, finishes, or is stopped.
func (e *Executor) runThread(t *Thread) {
	prev := e.running
	e.running = t
	defer func() { e.running = prev }()

	if t.rewind {
		t.restart()
	}
	t.warpStart = e.rt.clock.Now()
	for !t.done && !t.Sprite.ToDelete {
		f := t.frame()
		if f == nil {
			t.done = true
			return
		}
		if f.PC == NoBlock {
			if e.endOfStack(t) {
				return
			}
			continue
		}
		b := e.rt.graph.Block(f.PC)
		if b == nil {
			f.PC = NoBlock
			continue
		}
		result := e.execute(t, f, b)
		if t.rewind && result != ResultStopAll {
			return
		}
		switch result {
		case ResultContinue:
			f.advance(b.Next)
		case ResultYield:
			return
		case ResultSubstack:
			if len(t.stack) > maxFrames {
				log.Warningf("%s: stack overflow in script %s", t.Sprite.Name, t.ChainID)
				t.Stop()
				return
			}
		case ResultStopScript:
			e.stopScript(t)
		case ResultStopAll:
			e.rt.StopAll()
			return
		}
	}
}

// endOfStack handles a frame that ran off the end of its stack. It
// reports whether the thread should yield.
func (e *Executor) endOfStack(t *Thread) bool {
	finished := t.pop()
	parent := t.frame()
	if parent == nil {
		t.done = true
		return true
	}
	if finished.kind != frameLoop {
		// Branches and procedure bodies resume after the block that entered them.
		if b := e.rt.graph.Block(parent.PC); b != nil {
			parent.advance(b.Next)
		} else {
			parent.PC = NoBlock
		}
		return false
	}
	// The loop block runs again; without warp the thread yields first so
	// the iteration gets drawn.
	return !e.warping(t, parent)
}

// stopScript unwinds to the innermost procedure call, or ends the thread
// when the script is not inside a procedure.
func (e *Executor) stopScript(t *Thread) {
	for len(t.stack) > 0 {
		f := t.pop()
		if f.kind == frameProcedure {
			if parent := t.frame(); parent != nil {
				if b := e.rt.graph.Block(parent.PC); b != nil {
					parent.advance(b.Next)
					return
				}
				parent.PC = NoBlock
				return
			}
		}
	}
	t.done = true
}

// warping reports whether f runs without screen refresh and the warp
// budget for this tick is not yet spent.
func (e *Executor) warping(t *Thread, f *Frame) bool {
	if !f.Warp {
		return false
	}
	return e.rt.clock.Now().Sub(t.warpStart) < warpLimit
}

// loopYield is returned by loop blocks between iterations of an empty body.
func (e *Executor) loopYield(t *Thread, f *Frame) BlockResult {
	if e.warping(t, f) {
		return ResultSubstack
	}
	return ResultYield
}

func (e *Executor) execute(t *Thread, f *Frame, b *Block) BlockResult {
	if fn, ok := e.statements[b.Opcode]; ok {
		return fn(e, t, f, b)
	}
	if fn, ok := e.reporters[b.Opcode]; ok {
		fn(e, t, b)
		return ResultContinue
	}
	e.unknownOpcode(b.Opcode)
	return ResultContinue
}

// ---------------------------------------------------------------------------
// Expression evaluation
// ---------------------------------------------------------------------------

// InputValue evaluates the named input of b. Missing inputs and dangling
// block references evaluate to the empty value.
func (e *Executor) InputValue(t *Thread, b *Block, name string) Value {
	in, ok := b.Inputs[name]
	if !ok {
		return Value{}
	}
	switch in.Kind {
	case InputLiteral:
		return in.Literal
	case InputVariable:
		if v := e.rt.lookupVariable(t.Sprite, in.VariableID, ""); v != nil {
			return v.Value
		}
		return Value{}
	case InputBlock, InputBoolean:
		return e.Evaluate(t, in.Block)
	}
	return Value{}
}

// Evaluate runs the reporter at ref synchronously.
func (e *Executor) Evaluate(t *Thread, ref BlockRef) Value {
	b := e.rt.graph.Block(ref)
	if b == nil {
		return Value{}
	}
	if fn, ok := e.reporters[b.Opcode]; ok {
		return fn(e, t, b)
	}
	// Menus are shadow blocks with a single field.
	if b.Shadow && len(b.Fields) == 1 {
		for _, f := range b.Fields {
			return FromString(f.Value)
		}
	}
	e.unknownOpcode(b.Opcode)
	return Value{}
}

// condition evaluates a boolean input.
func (e *Executor) condition(t *Thread, b *Block, name string) bool {
	return e.InputValue(t, b, name).AsBool()
}
