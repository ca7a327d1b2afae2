package vm

// ---------------------------------------------------------------------------
// Block handles and inputs
// ---------------------------------------------------------------------------

// BlockRef is a stable handle into a Graph's block arena.
type BlockRef int32

// NoBlock marks an absent block reference.
const NoBlock BlockRef = -1

// InputKind says how a ParsedInput produces its value.
type InputKind uint8

const (
	// InputLiteral holds a constant value.
	InputLiteral InputKind = iota
	// InputVariable reads a variable by id from the executing sprite.
	InputVariable
	// InputBlock evaluates a reporter (or names a substack).
	InputBlock
	// InputBoolean evaluates a boolean-slot reporter.
	InputBoolean
)

// ParsedInput is one decoded block input.
type ParsedInput struct {
	Kind       InputKind
	Literal    Value
	VariableID string
	BlockID    string
	Block      BlockRef // resolved from BlockID by Graph.Link
}

// LiteralInput returns an input holding a constant.
func LiteralInput(v Value) ParsedInput {
	return ParsedInput{Kind: InputLiteral, Literal: v, Block: NoBlock}
}

// VariableInput returns an input reading the variable with the given id.
func VariableInput(id string) ParsedInput {
	return ParsedInput{Kind: InputVariable, VariableID: id, Block: NoBlock}
}

// BlockInput returns an input evaluating (or entering) the block with the given id.
func BlockInput(id string) ParsedInput {
	return ParsedInput{Kind: InputBlock, BlockID: id, Block: NoBlock}
}

// BooleanInput returns a boolean-slot input evaluating the block with the given id.
func BooleanInput(id string) ParsedInput {
	return ParsedInput{Kind: InputBoolean, BlockID: id, Block: NoBlock}
}

// ParsedField is a block field: its display value and, for variable, list
// and broadcast fields, the id it refers to.
type ParsedField struct {
	Value string
	ID    string
}

// Mutation carries the procedure metadata of prototype and call blocks.
type Mutation struct {
	ProcCode         string
	ArgumentIDs      []string
	ArgumentNames    []string
	ArgumentDefaults []string
	Warp             bool
}

// ---------------------------------------------------------------------------
// Block
// ---------------------------------------------------------------------------

// Block is one node of the program graph.
type Block struct {
	ID       string
	Opcode   string
	NextID   string
	ParentID string
	Next     BlockRef
	Parent   BlockRef

	Fields   map[string]ParsedField
	Inputs   map[string]ParsedInput
	TopLevel bool
	Shadow   bool
	Mutation *Mutation

	// Resolved by Graph.Link.
	ChainID        string
	TopLevelParent BlockRef
}

// Field returns the value of the named field, or "" if absent.
func (b *Block) Field(name string) string {
	return b.Fields[name].Value
}

// FieldID returns the id stored with the named field, or "" if absent.
func (b *Block) FieldID(name string) string {
	return b.Fields[name].ID
}

// Substack returns the block entered through the named input, or NoBlock.
func (b *Block) Substack(name string) BlockRef {
	in, ok := b.Inputs[name]
	if !ok || in.Kind != InputBlock {
		return NoBlock
	}
	return in.Block
}

// substackInputs are the inputs that hold nested statement stacks.
var substackInputs = [...]string{"SUBSTACK", "SUBSTACK2"}

// ---------------------------------------------------------------------------
// Graph: the project-wide block arena
// ---------------------------------------------------------------------------

// Graph owns every block of a project and the id lookup table. Blocks are
// addressed by BlockRef; the structure is fixed once Link has run.
type Graph struct {
	blocks []Block
	index  map[string]BlockRef
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]BlockRef)}
}

// Add appends b to the arena and returns its handle. A repeated id replaces
// the earlier entry in the lookup table.
func (g *Graph) Add(b Block) BlockRef {
	ref := BlockRef(len(g.blocks))
	b.Next, b.Parent, b.TopLevelParent = NoBlock, NoBlock, NoBlock
	if _, dup := g.index[b.ID]; dup {
		log.Warningf("duplicate block id %q", b.ID)
	}
	g.blocks = append(g.blocks, b)
	g.index[b.ID] = ref
	return ref
}

// Len returns the number of blocks in the arena.
func (g *Graph) Len() int { return len(g.blocks) }

// Lookup returns the handle for id, or NoBlock.
func (g *Graph) Lookup(id string) BlockRef {
	if id == "" {
		return NoBlock
	}
	if ref, ok := g.index[id]; ok {
		return ref
	}
	return NoBlock
}

// Block returns the block behind ref, or nil for NoBlock and stale handles.
func (g *Graph) Block(ref BlockRef) *Block {
	if ref < 0 || int(ref) >= len(g.blocks) {
		return nil
	}
	return &g.blocks[ref]
}

// Find returns the block with the given id, or nil.
func (g *Graph) Find(id string) *Block {
	return g.Block(g.Lookup(id))
}

// Link resolves next/parent/input ids into handles and computes every
// block's top-level parent and chain id. Dangling ids resolve to NoBlock.
func (g *Graph) Link() {
	for i := range g.blocks {
		b := &g.blocks[i]
		b.Next = g.resolve(b.ID, b.NextID)
		b.Parent = g.resolve(b.ID, b.ParentID)
		for name, in := range b.Inputs {
			if in.Kind == InputBlock || in.Kind == InputBoolean {
				in.Block = g.resolve(b.ID, in.BlockID)
				b.Inputs[name] = in
			}
		}
	}
	for i := range g.blocks {
		top := g.topOf(BlockRef(i))
		g.blocks[i].TopLevelParent = top
		if top != NoBlock {
			g.blocks[i].ChainID = g.blocks[top].ID
		}
	}
}

func (g *Graph) resolve(from, id string) BlockRef {
	ref := g.Lookup(id)
	if ref == NoBlock && id != "" {
		log.Debugf("block %s references missing block %s", from, id)
	}
	return ref
}

// topOf walks parent links up to the top-level block. A parent cycle
// yields NoBlock.
func (g *Graph) topOf(ref BlockRef) BlockRef {
	for steps := 0; steps <= len(g.blocks); steps++ {
		b := &g.blocks[ref]
		if b.TopLevel || b.Parent == NoBlock {
			return ref
		}
		ref = b.Parent
	}
	log.Warningf("parent cycle at block %s", g.blocks[ref].ID)
	return NoBlock
}

// Chain flattens the blocks reachable from top through next and substack
// edges, depth first.
func (g *Graph) Chain(top BlockRef) []BlockRef {
	var out []BlockRef
	seen := make(map[BlockRef]bool)
	var walk func(ref BlockRef)
	walk = func(ref BlockRef) {
		for {
			b := g.Block(ref)
			if b == nil || seen[ref] {
				return
			}
			seen[ref] = true
			out = append(out, ref)
			for _, name := range substackInputs {
				walk(b.Substack(name))
			}
			ref = b.Next
		}
	}
	walk(top)
	return out
}

// Reset drops every block. Handles issued before Reset must not be used.
func (g *Graph) Reset() {
	g.blocks = nil
	g.index = make(map[string]BlockRef)
}
