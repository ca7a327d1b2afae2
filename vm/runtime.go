package vm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrProjectStopped is returned by Step once a stop-all ended the project.
	ErrProjectStopped = errors.New("project stopped")
	// ErrHardExit is returned instead of ErrProjectStopped when the host
	// platform cannot survive a teardown and must exit the process.
	ErrHardExit = errors.New("project stopped: host requires exit")
)

// cloudUpdateBuffer is how many inbound cloud updates may queue between ticks.
const cloudUpdateBuffer = 256

type cloudUpdate struct {
	name  string
	value Value
}

type dragState struct {
	sprite *Sprite
	dx, dy float64
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(r *Runtime) { r.clock = c } }

// WithInput sets the input source polled every tick.
func WithInput(in InputSource) Option { return func(r *Runtime) { r.input = in } }

// WithRenderer sets the renderer handed a snapshot every tick.
func WithRenderer(rd Renderer) Option { return func(r *Runtime) { r.renderer = rd } }

// WithAudio sets the audio sink.
func WithAudio(a AudioSink) Option { return func(r *Runtime) { r.audio = a } }

// WithCloud sets the hook told about cloud variable writes.
func WithCloud(h CloudHook) Option { return func(r *Runtime) { r.cloud = h } }

// WithPrompter sets the collaborator answering "ask and wait".
func WithPrompter(p Prompter) Option { return func(r *Runtime) { r.prompter = p } }

// WithRand sets the random source used by random blocks.
func WithRand(rnd *rand.Rand) Option { return func(r *Runtime) { r.rand = rnd } }

// WithProfile sets the host platform profile.
func WithProfile(p Profile) Option { return func(r *Runtime) { r.profile = p } }

// WithUsername sets the value of the username reporter.
func WithUsername(name string) Option { return func(r *Runtime) { r.username = name } }

// ---------------------------------------------------------------------------
// Runtime: everything a running project owns
// ---------------------------------------------------------------------------

// Runtime is the execution context of one project: sprite list, block
// graph, clone pool, thread list and broadcast queue. It is driven from a
// single goroutine; only QueueCloudUpdate may be called from others.
type Runtime struct {
	graph    *Graph
	settings Settings
	profile  Profile

	// sprites is the live target list in draw order, back to front.
	sprites  []*Sprite
	stage    *Sprite
	pool     *ClonePool
	exec     *Executor
	monitors []*Monitor

	clock    Clock
	input    InputSource
	renderer Renderer
	audio    AudioSink
	prompter Prompter
	cloud    CloudHook
	rand     *rand.Rand
	username string

	broadcasts   []string
	cloudUpdates chan cloudUpdate

	mouse      Point
	mouseDown  bool
	keys       map[string]bool
	drag       *dragState
	timerStart time.Time
	question   string
	answer     string
	pen        []PenCommand

	frame         uint64
	started       bool
	stopRequested bool
	tornDown      bool
}

// NewRuntime prepares p for execution. The graph is linked, chains are
// indexed and the clone pool is allocated here.
func NewRuntime(p *Project, opts ...Option) *Runtime {
	r := &Runtime{
		graph:        p.Graph,
		settings:     p.Settings,
		profile:      Profile{Name: "pc", CloneLimit: platformCloneLimits["pc"]},
		clock:        systemClock{},
		keys:         make(map[string]bool),
		cloudUpdates: make(chan cloudUpdate, cloudUpdateBuffer),
		monitors:     p.Monitors,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.graph == nil {
		r.graph = NewGraph()
	}
	if r.rand == nil {
		seed := uint64(time.Now().UnixNano())
		r.rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	def := DefaultSettings()
	if r.settings.Width <= 0 || r.settings.Height <= 0 {
		r.settings.Width, r.settings.Height = def.Width, def.Height
	}
	if r.settings.FPS <= 0 {
		r.settings.FPS = def.FPS
	}

	r.graph.Link()
	r.sprites = slices.Clone(p.Sprites)
	for i, s := range r.sprites {
		if s.IsStage && r.stage == nil {
			r.stage = s
		}
		s.IndexChains(r.graph)
		if len(s.Costumes) > 0 {
			s.SetCostume(s.CurrentCostume)
		}
		s.Layer = i
	}
	if r.stage != nil && r.sprites[0] != r.stage {
		r.moveToIndex(r.stage, 0)
	}

	capacity := DefaultCloneLimit
	if r.settings.InfiniteClones {
		capacity = r.profile.CloneLimit
	}
	r.pool = NewClonePool(capacity)
	r.exec = newExecutor(r)
	log.Infof("runtime ready: %d sprites, %d blocks, %d clone slots", len(r.sprites), r.graph.Len(), capacity)
	return r
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Settings returns the effective project settings.
func (r *Runtime) Settings() Settings { return r.settings }

// Graph returns the block graph.
func (r *Runtime) Graph() *Graph { return r.graph }

// Sprites returns the live targets, back to front.
func (r *Runtime) Sprites() []*Sprite { return r.sprites }

// Stage returns the stage target.
func (r *Runtime) Stage() *Sprite { return r.stage }

// Pool returns the clone pool.
func (r *Runtime) Pool() *ClonePool { return r.pool }

// Executor returns the block executor.
func (r *Runtime) Executor() *Executor { return r.exec }

// Monitors returns the project's monitors.
func (r *Runtime) Monitors() []*Monitor { return r.monitors }

// Frame returns the number of ticks run so far.
func (r *Runtime) Frame() uint64 { return r.frame }

// Answer returns the latest "ask and wait" answer.
func (r *Runtime) Answer() string { return r.answer }

// Timer returns the project timer in seconds.
func (r *Runtime) Timer() float64 {
	return r.clock.Now().Sub(r.timerStart).Seconds()
}

// SpriteByName returns the original (non-clone) sprite with the given name.
func (r *Runtime) SpriteByName(name string) *Sprite {
	for _, s := range r.sprites {
		if !s.IsClone && !s.IsStage && s.Name == name {
			return s
		}
	}
	return nil
}

// target resolves a menu value naming a sprite or the stage.
func (r *Runtime) target(name string) *Sprite {
	if name == "_stage_" {
		return r.stage
	}
	return r.SpriteByName(name)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Start runs the green-flag scripts' hats and resets the timer.
func (r *Runtime) Start() {
	r.timerStart = r.clock.Now()
	r.started = true
	r.exec.startHats("event_whenflagclicked", nil)
}

// Step runs one tick: input, scripts, broadcasts, clone cleanup, monitors
// and rendering. After a stop-all it returns ErrProjectStopped (having torn
// the project down) or ErrHardExit.
func (r *Runtime) Step() error {
	if r.tornDown {
		return ErrProjectStopped
	}
	if !r.started {
		r.Start()
	}
	r.frame++

	r.drainCloudUpdates()
	r.pollInput()
	r.exec.runThreads()
	r.drainBroadcasts()
	r.sweepClones()
	r.refreshMonitors()
	r.render()

	if r.stopRequested {
		if r.profile.HardExitOnStop {
			return ErrHardExit
		}
		r.Teardown()
		return ErrProjectStopped
	}
	return nil
}

// Run steps the project at the configured frame rate until it stops or ctx
// is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Limit(r.settings.FPS), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			r.Teardown()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("frame limiter: %w", err)
		}
		if err := r.Step(); err != nil {
			return err
		}
	}
}

// StopAll stops every script and ends the project at the end of the tick.
func (r *Runtime) StopAll() {
	r.stopRequested = true
	r.exec.stopAll()
	r.broadcasts = nil
	if r.audio != nil {
		r.audio.StopAll()
	}
}

// Teardown releases every clone, drops the originals and clears the
// thread list, broadcast queue and block graph together.
func (r *Runtime) Teardown() {
	if r.tornDown {
		return
	}
	r.exec.stopAll()
	r.pool.Reset()
	r.sprites = nil
	r.stage = nil
	r.broadcasts = nil
	r.monitors = nil
	r.drag = nil
	r.pen = nil
	r.graph.Reset()
	r.tornDown = true
	log.Info("project torn down")
}

// ---------------------------------------------------------------------------
// Broadcasts
// ---------------------------------------------------------------------------

// Broadcast queues a message for the next drain.
func (r *Runtime) Broadcast(name string) {
	r.broadcasts = append(r.broadcasts, name)
}

// drainBroadcasts dispatches the messages queued so far, in order. Each
// message's receivers start and run immediately; messages they raise wait
// for the next drain.
func (r *Runtime) drainBroadcasts() {
	if len(r.broadcasts) == 0 || r.stopRequested {
		return
	}
	pending := r.broadcasts
	r.broadcasts = nil
	for _, name := range pending {
		started := r.exec.startHats("event_whenbroadcastreceived", func(_ *Sprite, b *Block) bool {
			return strings.EqualFold(b.Field("BROADCAST_OPTION"), name)
		})
		for _, t := range started {
			t.Broadcast = name
			r.exec.runThread(t)
			if r.stopRequested {
				return
			}
		}
	}
	r.exec.compact()
}

// broadcastRunning reports whether any thread started by name is alive.
func (r *Runtime) broadcastRunning(name string) bool {
	for _, t := range r.exec.threads {
		if !t.done && strings.EqualFold(t.Broadcast, name) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Variables and cloud
// ---------------------------------------------------------------------------

// QueueCloudUpdate records an inbound cloud variable change. It is safe to
// call from any goroutine; the update is applied at the start of the next
// tick. Updates beyond the buffer are dropped.
func (r *Runtime) QueueCloudUpdate(name string, value Value) {
	select {
	case r.cloudUpdates <- cloudUpdate{name: name, value: value}:
	default:
		log.Warningf("cloud update for %s dropped: queue full", name)
	}
}

func (r *Runtime) drainCloudUpdates() {
	for {
		select {
		case u := <-r.cloudUpdates:
			if r.stage == nil {
				continue
			}
			v := r.stage.VariableByName(u.name)
			if v == nil || !v.Cloud {
				log.Debugf("cloud update for unknown variable %s", u.name)
				continue
			}
			v.Value = u.value
		default:
			return
		}
	}
}

// lookupVariable finds a variable by id in s, then the stage; name is the
// fallback key.
func (r *Runtime) lookupVariable(s *Sprite, id, name string) *Variable {
	if s != nil {
		if v, ok := s.Variables[id]; ok {
			return v
		}
	}
	if r.stage != nil {
		if v, ok := r.stage.Variables[id]; ok {
			return v
		}
	}
	if name != "" {
		if s != nil {
			if v := s.VariableByName(name); v != nil {
				return v
			}
		}
		if r.stage != nil {
			return r.stage.VariableByName(name)
		}
	}
	return nil
}

// lookupList finds a list by id in s, then the stage; name is the fallback key.
func (r *Runtime) lookupList(s *Sprite, id, name string) *List {
	if s != nil {
		if l, ok := s.Lists[id]; ok {
			return l
		}
	}
	if r.stage != nil {
		if l, ok := r.stage.Lists[id]; ok {
			return l
		}
	}
	if name != "" {
		if s != nil {
			if l := s.ListByName(name); l != nil {
				return l
			}
		}
		if r.stage != nil {
			return r.stage.ListByName(name)
		}
	}
	return nil
}

// setVariable writes v and reports cloud variables to the cloud hook.
func (r *Runtime) setVariable(v *Variable, value Value) {
	v.Value = value
	if v.Cloud && r.cloud != nil {
		r.cloud.CloudVariableChanged(v.Name, value)
	}
}

// ---------------------------------------------------------------------------
// Clones
// ---------------------------------------------------------------------------

// CreateClone clones of into a pool slot, places it just behind of and
// starts its "when I start as a clone" scripts. It returns nil when the
// pool is exhausted.
func (r *Runtime) CreateClone(of *Sprite) *Sprite {
	if of == nil || of.IsStage {
		return nil
	}
	slot, ok := r.pool.Acquire()
	if !ok {
		log.Debugf("clone limit reached, not cloning %s", of.Name)
		return nil
	}
	c := r.pool.Get(slot)
	of.copyInto(c)
	idx := slices.Index(r.sprites, of)
	if idx < 0 {
		idx = len(r.sprites)
	}
	r.sprites = slices.Insert(r.sprites, idx, c)
	r.renumberLayers()
	r.exec.startHatsFor(c, "control_start_as_clone", nil)
	return c
}

// DeleteClone marks a clone for release at the end of the tick.
func (r *Runtime) DeleteClone(s *Sprite) {
	if s != nil && s.IsClone {
		s.ToDelete = true
	}
}

// sweepClones releases clones marked for deletion and drops their threads.
func (r *Runtime) sweepClones() {
	doomed := false
	for _, s := range r.sprites {
		if s.IsClone && s.ToDelete {
			doomed = true
			r.exec.stopSprite(s, nil)
		}
	}
	if !doomed {
		return
	}
	live := r.sprites[:0]
	for _, s := range r.sprites {
		if s.IsClone && s.ToDelete {
			if r.drag != nil && r.drag.sprite == s {
				r.drag = nil
			}
			r.pool.Release(s.slot)
			continue
		}
		live = append(live, s)
	}
	clear(r.sprites[len(live):])
	r.sprites = live
	r.renumberLayers()
	r.exec.compact()
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

func (r *Runtime) renumberLayers() {
	for i, s := range r.sprites {
		s.Layer = i
	}
}

// moveToIndex moves s to position i of the sprite list. The stage always
// stays at the back.
func (r *Runtime) moveToIndex(s *Sprite, i int) {
	cur := slices.Index(r.sprites, s)
	if cur < 0 {
		return
	}
	r.sprites = slices.Delete(r.sprites, cur, cur+1)
	lo := 0
	if r.stage != nil && s != r.stage {
		lo = 1
	}
	i = max(lo, min(i, len(r.sprites)))
	r.sprites = slices.Insert(r.sprites, i, s)
	r.renumberLayers()
}
