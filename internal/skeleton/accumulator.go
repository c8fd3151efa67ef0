package skeleton

import (
	"fmt"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/mathutil"
)

// Accumulator collects the contributions to one bone during one tick.
//
// The highest priority seen so far owns the bone. Contributions at that
// priority are summed with their weights, and Finalize divides by the total
// weight. Lower priorities are dropped. Quaternions are summed as outer
// products, so neither the order nor the sign of the inputs changes the
// blended rotation beyond rounding.
type Accumulator struct {
	touched    bool
	priority   int
	weight     float64
	count      int
	eulerCount int
	pos        mathutil.Vec3
	euler      mathutil.Vec3
	moment     mathutil.QuatMoment
}

// Reset empties the slot. An empty slot accepts any priority.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Touched reports whether any contribution was accepted since Reset.
func (a *Accumulator) Touched() bool { return a.touched }

// Priority returns the owning priority; meaningless when not touched.
func (a *Accumulator) Priority() int { return a.priority }

// Weight returns the accumulated weight.
func (a *Accumulator) Weight() float64 { return a.weight }

// Accumulate folds one sample into the slot. Samples with a non-positive
// weight are dropped and never claim the bone.
func (a *Accumulator) Accumulate(s keyframe.Sample, priority int, weight float64) {
	if weight <= 0 {
		return
	}
	switch {
	case !a.touched || priority > a.priority:
		*a = Accumulator{touched: true, priority: priority}
	case priority < a.priority:
		return
	}

	a.weight += weight
	a.count++
	a.pos = a.pos.Add(s.Pos.Scale(weight))
	a.moment.Add(s.Rot, weight)
	if s.HasEuler {
		a.eulerCount++
		a.euler = a.euler.Add(s.Euler.Scale(weight))
	}
}

// Finalize returns the blended local transform. An untouched slot yields
// the identity (the bone's rest pose once the pivot is applied).
//
// When every contribution carried Euler angles the rotation is the
// weighted mean of the angles, otherwise the weighted average quaternion.
func (a *Accumulator) Finalize() mathutil.Transform {
	if !a.touched {
		return mathutil.Identity()
	}
	if a.weight <= 0 {
		panic(fmt.Sprintf("skeleton: finalize with weight %v at priority %d", a.weight, a.priority))
	}
	inv := 1 / a.weight
	t := mathutil.Transform{Pos: a.pos.Scale(inv)}
	if a.eulerCount == a.count {
		e := mathutil.WrapEuler(a.euler.Scale(inv))
		t.Rot = mathutil.PitchYawRollToQuat(e[0], e[1], e[2])
	} else {
		t.Rot = a.moment.Mean()
	}
	return t
}
