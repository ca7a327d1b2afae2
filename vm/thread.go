package vm

import "time"

// ---------------------------------------------------------------------------
// Block results
// ---------------------------------------------------------------------------

// BlockResult tells the executor what to do after a statement block ran.
type BlockResult uint8

const (
	// ResultContinue advances to the block's successor.
	ResultContinue BlockResult = iota
	// ResultYield parks the thread at this block until the next tick.
	ResultYield
	// ResultSubstack means the handler pushed a frame; keep executing.
	ResultSubstack
	// ResultStopScript ends the script (or returns from the procedure).
	ResultStopScript
	// ResultStopAll stops the whole project.
	ResultStopAll
)

func (r BlockResult) String() string {
	switch r {
	case ResultContinue:
		return "continue"
	case ResultYield:
		return "yield"
	case ResultSubstack:
		return "substack"
	case ResultStopScript:
		return "stop-script"
	case ResultStopAll:
		return "stop-all"
	}
	return "unknown"
}

// ---------------------------------------------------------------------------
// Frame: resumable position within one stack of blocks
// ---------------------------------------------------------------------------

// FrameState is the progress of the block a frame is parked at.
type FrameState uint8

const (
	FrameFresh FrameState = iota
	FrameRunning
	FrameWaitingTimer
	FrameWaitingIterations
	FrameWaitingCondition
	FrameWaitingThreads
	FrameDone
)

type frameKind uint8

const (
	frameScript frameKind = iota
	frameBranch
	frameLoop
	frameProcedure
)

// Frame is a position in a stack of blocks plus the state of the block at
// that position. Loop counters, wait deadlines and glide endpoints live
// here so a parked block resumes where it left off on the next tick.
type Frame struct {
	PC    BlockRef
	State FrameState
	kind  frameKind

	// Per-block state, cleared when PC advances.
	Counter  int
	Started  time.Time
	Deadline time.Time
	Duration time.Duration
	From, To Point
	Text     string // bubble text or awaited broadcast

	// Procedure scope, inherited by nested frames.
	Params   map[string]Value
	ProcCode string
	Warp     bool
}

// advance moves to next and clears the per-block state.
func (f *Frame) advance(next BlockRef) {
	f.PC = next
	f.State = FrameFresh
	f.Counter = 0
	f.Started = time.Time{}
	f.Deadline = time.Time{}
	f.Duration = 0
	f.From, f.To = Point{}, Point{}
	f.Text = ""
}

// ---------------------------------------------------------------------------
// Thread: one running script
// ---------------------------------------------------------------------------

// maxFrames bounds recursion in custom blocks.
const maxFrames = 1024

// Thread is one running script, started from a hat block.
type Thread struct {
	Sprite  *Sprite
	Top     BlockRef
	ChainID string

	// Broadcast is the message that started the thread, if any.
	Broadcast string

	stack     []*Frame
	done      bool
	warpStart time.Time

	// rewind is set when the thread's own hat fired while it was running;
	// the restart happens at the start of its next turn.
	rewind bool
}

func newThread(s *Sprite, top BlockRef, chainID string) *Thread {
	t := &Thread{Sprite: s, Top: top, ChainID: chainID}
	t.restart()
	return t
}

// restart rewinds the thread to its hat block.
func (t *Thread) restart() {
	t.stack = append(t.stack[:0], &Frame{PC: t.Top, kind: frameScript})
	t.done = false
	t.rewind = false
}

// Done reports whether the thread has finished.
func (t *Thread) Done() bool { return t.done }

// Stop ends the thread.
func (t *Thread) Stop() {
	t.done = true
	t.stack = t.stack[:0]
}

func (t *Thread) frame() *Frame {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// push enters a nested stack starting at pc. The new frame shares the
// procedure scope of its parent.
func (t *Thread) push(pc BlockRef, kind frameKind) *Frame {
	parent := t.frame()
	f := &Frame{PC: pc, kind: kind}
	if parent != nil {
		f.Params, f.ProcCode, f.Warp = parent.Params, parent.ProcCode, parent.Warp
	}
	t.stack = append(t.stack, f)
	return f
}

func (t *Thread) pop() *Frame {
	f := t.frame()
	if f != nil {
		t.stack = t.stack[:len(t.stack)-1]
	}
	return f
}

// inProcedure reports whether proccode is already on the stack.
func (t *Thread) inProcedure(proccode string) bool {
	for _, f := range t.stack {
		if f.kind == frameProcedure && f.ProcCode == proccode {
			return true
		}
	}
	return false
}

// Param returns the value of a procedure argument in the current scope.
func (t *Thread) Param(name string) (Value, bool) {
	f := t.frame()
	if f == nil || f.Params == nil {
		return Value{}, false
	}
	v, ok := f.Params[name]
	return v, ok
}
