package vm

// hatOpcodes start scripts; executing one just moves on to the body.
var hatOpcodes = []string{
	"event_whenflagclicked",
	"event_whenkeypressed",
	"event_whenthisspriteclicked",
	"event_whenstageclicked",
	"event_whenbroadcastreceived",
	"event_whenbackdropswitchesto",
	"control_start_as_clone",
	"procedures_definition",
	"procedures_prototype",
}

func hat(*Executor, *Thread, *Frame, *Block) BlockResult { return ResultContinue }

func (e *Executor) registerEvents() {
	for _, op := range hatOpcodes {
		e.Statement(op, hat)
	}
	e.Statement("event_broadcast", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.Broadcast(e.InputValue(t, b, "BROADCAST_INPUT").AsString())
		return ResultContinue
	})
	e.Statement("event_broadcastandwait", eventBroadcastAndWait)

	e.Reporter("event_broadcast_menu", func(e *Executor, _ *Thread, b *Block) Value {
		return FromString(b.Field("BROADCAST_OPTION"))
	})
}

// eventBroadcastAndWait queues the message, then waits until every script
// it started has finished.
func eventBroadcastAndWait(e *Executor, t *Thread, f *Frame, b *Block) BlockResult {
	if f.State == FrameFresh {
		f.Text = e.InputValue(t, b, "BROADCAST_INPUT").AsString()
		e.rt.Broadcast(f.Text)
		f.State = FrameWaitingThreads
		return ResultYield
	}
	if e.rt.broadcastRunning(f.Text) {
		return ResultYield
	}
	return ResultContinue
}
