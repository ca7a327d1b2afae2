package vm

import (
	"strings"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ClonePool: fixed-capacity arena of clone slots
// ---------------------------------------------------------------------------

// ClonePool preallocates every clone sprite up front. Slots are handed out
// by index and recycled through a LIFO free list, so a slot released and
// immediately re-acquired keeps its identity. A slot is available exactly
// when its sprite IsDeleted.
type ClonePool struct {
	slots []*Sprite
	free  []int
}

// NewClonePool allocates capacity clone slots.
func NewClonePool(capacity int) *ClonePool {
	if capacity < 0 {
		capacity = 0
	}
	p := &ClonePool{
		slots: make([]*Sprite, capacity),
		free:  make([]int, 0, capacity),
	}
	for i := range p.slots {
		s := NewSprite(uuid.NewString(), "")
		s.IsClone = true
		s.IsDeleted = true
		s.slot = i
		p.slots[i] = s
	}
	// Lowest index on top of the stack.
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

// Acquire takes a free slot. ok is false when the pool is exhausted.
func (p *ClonePool) Acquire() (slot int, ok bool) {
	n := len(p.free)
	if n == 0 {
		return -1, false
	}
	slot = p.free[n-1]
	p.free = p.free[:n-1]
	s := p.slots[slot]
	s.IsDeleted = false
	s.ToDelete = false
	return slot, true
}

// Get returns the sprite in slot, or nil for an out-of-range index.
func (p *ClonePool) Get(slot int) *Sprite {
	if slot < 0 || slot >= len(p.slots) {
		return nil
	}
	return p.slots[slot]
}

// Release returns slot to the pool and clears the visual state the next
// user must not inherit. Releasing a free slot is a no-op.
func (p *ClonePool) Release(slot int) {
	s := p.Get(slot)
	if s == nil || s.IsDeleted {
		return
	}
	s.IsDeleted = true
	s.ToDelete = false
	s.Origin = nil
	s.Pen.Down = false
	clear(s.Effects)
	s.Bubble = Bubble{}
	p.free = append(p.free, slot)
}

// Cap returns the number of slots.
func (p *ClonePool) Cap() int { return len(p.slots) }

// Available returns the number of free slots.
func (p *ClonePool) Available() int { return len(p.free) }

// Live calls fn for every slot currently in use.
func (p *ClonePool) Live(fn func(slot int, s *Sprite)) {
	for i, s := range p.slots {
		if !s.IsDeleted {
			fn(i, s)
		}
	}
}

// Reset releases every live slot.
func (p *ClonePool) Reset() {
	for i, s := range p.slots {
		if !s.IsDeleted {
			p.Release(i)
		}
	}
}

// ---------------------------------------------------------------------------
// Platform capacities
// ---------------------------------------------------------------------------

// DefaultCloneLimit is the finite clone limit Scratch enforces.
const DefaultCloneLimit = 300

var platformCloneLimits = map[string]int{
	"3ds":      300,
	"new3ds":   450,
	"wii":      450,
	"vita":     450,
	"wiiu":     800,
	"gamecube": 300,
	"switch":   1500,
	"pc":       2000,
}

// PlatformCloneLimit returns how many clones a platform can hold. Unknown
// platforms log a warning and get DefaultCloneLimit.
func PlatformCloneLimit(platform string) int {
	if n, ok := platformCloneLimits[strings.ToLower(platform)]; ok {
		return n
	}
	log.Warningf("unknown platform %q, using %d clone slots", platform, DefaultCloneLimit)
	return DefaultCloneLimit
}
