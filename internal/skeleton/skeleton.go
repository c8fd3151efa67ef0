package skeleton

import (
	"fmt"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/mathutil"
)

// Pose is a published, read-only snapshot of one tick.
type Pose struct {
	// Tick counts finished ticks; the rest pose published at creation is 0.
	Tick uint64

	// Local holds the finalized per-bone local transforms, without pivots.
	Local []mathutil.Transform

	// World holds the per-bone world transforms, indexed by bone.
	World []mathutil.Transform
}

func newPose(n int) *Pose {
	return &Pose{
		Local: make([]mathutil.Transform, n),
		World: make([]mathutil.Transform, n),
	}
}

// Skeleton owns one actor's blend state on top of a shared Hierarchy.
//
// A tick is BeginTick, any number of Accumulate calls, then EndTick. The
// pose is built in a back buffer and swapped in by EndTick, so the pose
// returned by Pose never changes until the second EndTick after it was
// published.
type Skeleton struct {
	h       *Hierarchy
	slots   []Accumulator
	front   *Pose
	back    *Pose
	ticking bool
	ticks   uint64
}

// New creates a Skeleton and publishes its rest pose.
func New(h *Hierarchy) *Skeleton {
	s := &Skeleton{
		h:     h,
		slots: make([]Accumulator, h.Len()),
		front: newPose(h.Len()),
		back:  newPose(h.Len()),
	}
	s.compose(s.front)
	return s
}

// Hierarchy returns the bone arena.
func (s *Skeleton) Hierarchy() *Hierarchy { return s.h }

// Len returns the number of bones.
func (s *Skeleton) Len() int { return s.h.Len() }

// Validate reports whether clip can be played on this skeleton.
func (s *Skeleton) Validate(clip *keyframe.Clip) error {
	return clip.Validate(s.h.Len())
}

// BeginTick empties every bone's accumulation slot.
func (s *Skeleton) BeginTick() {
	if s.h.Len() == 0 {
		panic(fmt.Sprintf("skeleton: tick on %q with zero bones", s.h.Name()))
	}
	for i := range s.slots {
		s.slots[i].Reset()
	}
	s.ticking = true
}

// Accumulate adds one chore's sample for bone. It must be called between
// BeginTick and EndTick.
func (s *Skeleton) Accumulate(bone int, sample keyframe.Sample, priority int, weight float64) {
	if !s.ticking {
		panic("skeleton: Accumulate outside of a tick")
	}
	if bone < 0 || bone >= len(s.slots) {
		panic(fmt.Sprintf("skeleton: bone %d out of range on %q (%d bones)", bone, s.h.Name(), len(s.slots)))
	}
	s.slots[bone].Accumulate(sample, priority, weight)
}

// Slot returns the accumulation state of bone for inspection.
func (s *Skeleton) Slot(bone int) *Accumulator { return &s.slots[bone] }

// EndTick finalizes every slot, composes world transforms root to leaves
// and publishes the result.
func (s *Skeleton) EndTick() *Pose {
	if !s.ticking {
		panic("skeleton: EndTick without BeginTick")
	}
	s.ticking = false
	p := s.back
	for i := range s.slots {
		p.Local[i] = s.slots[i].Finalize()
	}
	s.compose(p)
	s.ticks++
	p.Tick = s.ticks
	s.back, s.front = s.front, p
	return p
}

// compose computes p.World from p.Local: world = world(parent) ∘ (pivot + local).
func (s *Skeleton) compose(p *Pose) {
	for _, i := range s.h.Order() {
		b := s.h.Bone(i)
		l := p.Local[i]
		if l.Rot == (mathutil.Quat{}) {
			l.Rot = mathutil.QuatIdentity()
			p.Local[i] = l
		}
		l.Pos = b.Pivot.Add(l.Pos)
		if b.Parent < 0 {
			p.World[i] = mathutil.Compose(mathutil.Identity(), l)
			continue
		}
		p.World[i] = mathutil.Compose(p.World[b.Parent], l)
	}
}

// Pose returns the most recently published pose.
func (s *Skeleton) Pose() *Pose { return s.front }
