package vm

import (
	"maps"
)

// RotationStyle controls how a sprite's direction is drawn.
type RotationStyle uint8

const (
	AllAround RotationStyle = iota
	LeftRight
	DontRotate
)

// ParseRotationStyle maps the project-file spelling of a rotation style.
// Unknown names log a warning and return AllAround.
func ParseRotationStyle(name string) RotationStyle {
	switch name {
	case "all around":
		return AllAround
	case "left-right":
		return LeftRight
	case "don't rotate":
		return DontRotate
	}
	log.Warningf("unknown rotation style %q", name)
	return AllAround
}

func (r RotationStyle) String() string {
	switch r {
	case LeftRight:
		return "left-right"
	case DontRotate:
		return "don't rotate"
	default:
		return "all around"
	}
}

// ---------------------------------------------------------------------------
// Sprite-owned data
// ---------------------------------------------------------------------------

// Variable is a named scalar owned by a sprite (or the stage, for globals).
type Variable struct {
	ID    string
	Name  string
	Value Value
	Cloud bool
}

// List is a named sequence of values.
type List struct {
	ID    string
	Name  string
	Items []Value
}

// Costume describes one costume. Width and Height are in stage units.
type Costume struct {
	ID               string
	Name             string
	DataFormat       string
	BitmapResolution int
	RotationCenterX  float64
	RotationCenterY  float64
	Width            float64
	Height           float64
}

// Sound describes one sound asset.
type Sound struct {
	ID          string
	Name        string
	DataFormat  string
	Rate        int
	SampleCount int
}

// Comment is a workspace comment. Stage comments may carry settings.
type Comment struct {
	ID        string
	BlockID   string
	Text      string
	X, Y      float64
	Width     float64
	Height    float64
	Minimized bool
}

// CustomBlock is a procedure defined with "make a block".
type CustomBlock struct {
	Name             string // proccode
	BlockID          string // prototype block
	Definition       BlockRef
	ArgumentNames    []string
	ArgumentIDs      []string
	ArgumentDefaults []string
	Warp             bool
}

// Bubble is the speech or thought bubble shown above a sprite.
type Bubble struct {
	Text  string
	Think bool
}

// PenState is a sprite's pen.
type PenState struct {
	Down         bool
	Color        Color
	Size         float64
	Transparency float64
}

// DefaultPen is the pen every sprite starts with.
var DefaultPen = PenState{
	Color: Color{Hue: 240, Saturation: 100, Brightness: 100},
	Size:  1,
}

// ---------------------------------------------------------------------------
// Sprite
// ---------------------------------------------------------------------------

// Sprite is a project target: the stage, an original sprite, or a clone
// borrowed from the ClonePool.
type Sprite struct {
	ID      string
	Name    string
	IsStage bool

	X, Y          float64
	Direction     float64
	Size          float64
	Layer         int
	RotationStyle RotationStyle
	Visible       bool
	Draggable     bool

	Width, Height   float64
	RotationCenterX float64
	RotationCenterY float64
	CurrentCostume  int
	Volume          float64
	Effects         map[string]float64
	Bubble          Bubble
	Pen             PenState

	Variables    map[string]*Variable
	Lists        map[string]*List
	Costumes     []Costume
	Sounds       []Sound
	Broadcasts   map[string]string // id -> name
	Comments     map[string]Comment
	CustomBlocks map[string]*CustomBlock

	// Scripts holds the sprite's top-level blocks in registration order.
	Scripts     []BlockRef
	BlockChains map[string][]BlockRef

	IsClone   bool
	ToDelete  bool
	IsDeleted bool
	Origin    *Sprite

	slot int
}

// NewSprite returns an original sprite with Scratch's default state.
func NewSprite(id, name string) *Sprite {
	return &Sprite{
		ID:           id,
		Name:         name,
		Direction:    90,
		Size:         100,
		Visible:      true,
		Volume:       100,
		Effects:      make(map[string]float64),
		Pen:          DefaultPen,
		Variables:    make(map[string]*Variable),
		Lists:        make(map[string]*List),
		Broadcasts:   make(map[string]string),
		Comments:     make(map[string]Comment),
		CustomBlocks: make(map[string]*CustomBlock),
		BlockChains:  make(map[string][]BlockRef),
		slot:         -1,
	}
}

// SetCostume switches to costume i (wrapping around) and adopts its geometry.
func (s *Sprite) SetCostume(i int) {
	n := len(s.Costumes)
	if n == 0 {
		return
	}
	i %= n
	if i < 0 {
		i += n
	}
	s.CurrentCostume = i
	c := s.Costumes[i]
	res := float64(c.BitmapResolution)
	if res <= 0 {
		res = 1
	}
	s.Width, s.Height = c.Width, c.Height
	s.RotationCenterX, s.RotationCenterY = c.RotationCenterX/res, c.RotationCenterY/res
}

// CostumeIndex returns the index of the named costume, or -1.
func (s *Sprite) CostumeIndex(name string) int {
	for i, c := range s.Costumes {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// SoundByName returns the named sound.
func (s *Sprite) SoundByName(name string) (Sound, bool) {
	for _, snd := range s.Sounds {
		if snd.Name == name {
			return snd, true
		}
	}
	return Sound{}, false
}

// VariableByName returns the first variable with the given name, or nil.
func (s *Sprite) VariableByName(name string) *Variable {
	for _, v := range s.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// ListByName returns the first list with the given name, or nil.
func (s *Sprite) ListByName(name string) *List {
	for _, l := range s.Lists {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Slot returns the pool slot backing a clone, or -1 for originals.
func (s *Sprite) Slot() int { return s.slot }

// IndexChains computes BlockChains for every script and registers the
// sprite's procedure definitions.
func (s *Sprite) IndexChains(g *Graph) {
	s.BlockChains = make(map[string][]BlockRef, len(s.Scripts))
	for _, top := range s.Scripts {
		b := g.Block(top)
		if b == nil {
			continue
		}
		s.BlockChains[b.ID] = g.Chain(top)
		if b.Opcode != "procedures_definition" {
			continue
		}
		proto := g.Block(b.Substack("custom_block"))
		if proto == nil || proto.Mutation == nil {
			log.Warningf("%s: procedure definition %s has no prototype", s.Name, b.ID)
			continue
		}
		m := proto.Mutation
		s.CustomBlocks[m.ProcCode] = &CustomBlock{
			Name:             m.ProcCode,
			BlockID:          proto.ID,
			Definition:       top,
			ArgumentNames:    m.ArgumentNames,
			ArgumentIDs:      m.ArgumentIDs,
			ArgumentDefaults: m.ArgumentDefaults,
			Warp:             m.Warp,
		}
	}
}

// copyInto turns dst into a clone of s. Variables and lists are deep
// copied; costumes, sounds, scripts and procedures are shared.
func (s *Sprite) copyInto(dst *Sprite) {
	dst.Name = s.Name
	dst.IsStage = false
	dst.X, dst.Y = s.X, s.Y
	dst.Direction = s.Direction
	dst.Size = s.Size
	dst.Layer = s.Layer
	dst.RotationStyle = s.RotationStyle
	dst.Visible = s.Visible
	dst.Draggable = s.Draggable

	dst.Width, dst.Height = s.Width, s.Height
	dst.RotationCenterX, dst.RotationCenterY = s.RotationCenterX, s.RotationCenterY
	dst.CurrentCostume = s.CurrentCostume
	dst.Volume = s.Volume
	dst.Effects = maps.Clone(s.Effects)
	if dst.Effects == nil {
		dst.Effects = make(map[string]float64)
	}
	dst.Bubble = Bubble{}
	dst.Pen = s.Pen

	dst.Variables = make(map[string]*Variable, len(s.Variables))
	for id, v := range s.Variables {
		cp := *v
		dst.Variables[id] = &cp
	}
	dst.Lists = make(map[string]*List, len(s.Lists))
	for id, l := range s.Lists {
		dst.Lists[id] = &List{ID: l.ID, Name: l.Name, Items: append([]Value(nil), l.Items...)}
	}

	dst.Costumes = s.Costumes
	dst.Sounds = s.Sounds
	dst.Broadcasts = s.Broadcasts
	dst.Comments = s.Comments
	dst.CustomBlocks = s.CustomBlocks
	dst.Scripts = s.Scripts
	dst.BlockChains = s.BlockChains

	dst.IsClone = true
	dst.Origin = s.original()
}

// original follows Origin links back to the project's original sprite.
func (s *Sprite) original() *Sprite {
	for s.Origin != nil {
		s = s.Origin
	}
	return s
}

// ---------------------------------------------------------------------------
// Monitors
// ---------------------------------------------------------------------------

// Monitor is an on-screen watcher for a variable, list, or reporter.
type Monitor struct {
	ID         string
	Mode       string
	Opcode     string
	Params     map[string]string
	SpriteName string
	Value      Value
	Items      []Value
	X, Y       float64
	Width      float64
	Height     float64
	Visible    bool
	IsDiscrete bool
	SliderMin  float64
	SliderMax  float64
}
