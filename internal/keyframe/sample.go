package keyframe

import "github.com/decker502/chore/internal/mathutil"

// Sample is the local transform of one bone evaluated from one track.
type Sample struct {
	Pos mathutil.Vec3

	// Rot is always set. For delta tracks it is derived from Euler.
	Rot mathutil.Quat

	// Euler is pitch/yaw/roll in degrees, valid only when HasEuler is true.
	Euler    mathutil.Vec3
	HasEuler bool
}

// Bracket returns the indices of the entries surrounding frame t, such that
// entries[low].Frame <= t < entries[high].Frame and high == low+1.
//
// When t lies before the first entry, low is 0. When t lies at or after the
// last entry, low and high are both the last index. entries must be non-empty.
func Bracket(entries []Entry, t float64) (low, high int) {
	last := len(entries) - 1
	if last <= 0 || t >= entries[last].Frame {
		return last, last
	}
	if t < entries[0].Frame {
		return 0, 1
	}
	low, high = 0, last
	for high > low+1 {
		mid := (low + high) / 2
		if entries[mid].Frame <= t {
			low = mid
		} else {
			high = mid
		}
	}
	return low, high
}

// Evaluate evaluates the track at frame t. The track must have at least one
// entry.
func (tr *Track) Evaluate(t float64) Sample {
	low, high := Bracket(tr.Entries, t)
	e := &tr.Entries[low]

	switch tr.Kind {
	case KindQuat:
		if high == low || t <= e.Frame {
			return Sample{Pos: e.Pos, Rot: e.Rot.Normalize()}
		}
		n := &tr.Entries[high]
		u := (t - e.Frame) / (n.Frame - e.Frame)
		return Sample{
			Pos: e.Pos.Lerp(n.Pos, u),
			Rot: mathutil.Slerp(e.Rot, n.Rot, u).Normalize(),
		}
	default:
		// The derivative encodes the local slope; the next entry is never read.
		dt := t - e.Frame
		euler := mathutil.WrapEuler(e.Euler.Add(e.DEuler.Scale(dt)))
		return Sample{
			Pos:      e.Pos.Add(e.DPos.Scale(dt)),
			Rot:      mathutil.PitchYawRollToQuat(euler[0], euler[1], euler[2]),
			Euler:    euler,
			HasEuler: true,
		}
	}
}

// Sample evaluates the clip's track for bone at frame t, with t clamped to
// [0, Duration]. ok is false when the clip has no track for the bone.
func (c *Clip) Sample(bone int, t float64) (s Sample, ok bool) {
	if bone < 0 || bone >= len(c.Tracks) || c.Tracks[bone] == nil {
		return Sample{}, false
	}
	if t < 0 {
		t = 0
	}
	if d := c.Duration(); t > d {
		t = d
	}
	return c.Tracks[bone].Evaluate(t), true
}
