// Package keyframe provides the animation clip data model, the pose
// evaluator and the binary and text clip codecs.
//
// A clip holds at most one track per bone. Each track is an ordered list of
// timed entries in one of two encodings:
//   - Delta: absolute position and pitch/yaw/roll plus first derivatives,
//     evaluated by extrapolating forward from the entry at or before the
//     requested frame.
//   - Quat: absolute position and rotation quaternion, evaluated by
//     interpolating between the two bracketing entries.
//
// Clips are immutable once loaded and may be shared by any number of chores.
package keyframe

import (
	"errors"
	"fmt"

	"github.com/decker502/chore/internal/mathutil"
)

// Errors reported by the codecs and by clip validation.
var (
	ErrBadMagic        = errors.New("keyframe: bad magic")
	ErrTruncated       = errors.New("keyframe: truncated stream")
	ErrBoneOutOfRange  = errors.New("keyframe: bone index out of range")
	ErrDuplicateTrack  = errors.New("keyframe: duplicate track for bone")
	ErrUnsortedEntries = errors.New("keyframe: entries not strictly increasing")
	ErrUnknownKind     = errors.New("keyframe: unknown track kind")
	ErrSyntax          = errors.New("keyframe: syntax error")
)

// TrackKind selects how a track's entries are evaluated.
type TrackKind uint32

const (
	// KindDelta tracks store absolute values plus linear deltas.
	KindDelta TrackKind = iota
	// KindQuat tracks store quaternions and are slerped between entries.
	KindQuat
)

// String returns the kind name used by the text format.
func (k TrackKind) String() string {
	switch k {
	case KindDelta:
		return "delta"
	case KindQuat:
		return "quat"
	default:
		return fmt.Sprintf("TrackKind(%d)", uint32(k))
	}
}

func parseKind(s string) (TrackKind, error) {
	switch s {
	case "delta":
		return KindDelta, nil
	case "quat":
		return KindQuat, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Entry is one timed sample on a track.
type Entry struct {
	// Frame is the entry time in clip frames.
	Frame float64

	// Flags is carried through from the source data untouched.
	Flags uint32

	// Pos is the bone position offset.
	Pos mathutil.Vec3

	// Euler holds pitch, yaw and roll in degrees (delta tracks only).
	Euler mathutil.Vec3

	// DPos and DEuler are per-frame derivatives (delta tracks only).
	DPos   mathutil.Vec3
	DEuler mathutil.Vec3

	// Rot is the rotation (quat tracks only).
	Rot mathutil.Quat
}

// Track owns the entries of one bone in one clip.
type Track struct {
	Bone     int
	BoneName string
	Kind     TrackKind
	Entries  []Entry
}

// Marker is a frame-stamped event code fired while a clip plays.
type Marker struct {
	Frame float64
	Value uint32
}

// Clip is an immutable animation resource.
type Clip struct {
	Name      string
	Flags     uint32
	Type      uint32
	FPS       float64
	NumFrames int
	NumJoints int
	Markers   []Marker

	// Tracks has NumJoints slots indexed by bone; bones without a track are nil.
	Tracks []*Track
}

// Duration returns the clip length in frames.
func (c *Clip) Duration() float64 {
	if c == nil {
		return 0
	}
	return float64(c.NumFrames)
}

// Empty reports whether the clip has nothing to play.
func (c *Clip) Empty() bool {
	if c == nil || c.NumFrames <= 0 {
		return true
	}
	for _, t := range c.Tracks {
		if t != nil {
			return false
		}
	}
	return true
}

// TrackCount returns the number of bones that have a track.
func (c *Clip) TrackCount() int {
	n := 0
	for _, t := range c.Tracks {
		if t != nil {
			n++
		}
	}
	return n
}

// Validate checks that every track addresses a bone below boneCount.
func (c *Clip) Validate(boneCount int) error {
	for i, t := range c.Tracks {
		if t == nil {
			continue
		}
		if t.Bone != i {
			return fmt.Errorf("clip %q: track in slot %d claims bone %d", c.Name, i, t.Bone)
		}
		if t.Bone < 0 || t.Bone >= boneCount {
			return fmt.Errorf("clip %q: %w: bone %d (skeleton has %d)", c.Name, ErrBoneOutOfRange, t.Bone, boneCount)
		}
	}
	return nil
}

// addTrack installs t into its bone slot, enforcing per-track invariants.
func (c *Clip) addTrack(t *Track) error {
	if t.Bone < 0 || t.Bone >= c.NumJoints {
		return fmt.Errorf("%w: node %d (joints %d)", ErrBoneOutOfRange, t.Bone, c.NumJoints)
	}
	if c.Tracks[t.Bone] != nil {
		return fmt.Errorf("%w: node %d", ErrDuplicateTrack, t.Bone)
	}
	for i := 1; i < len(t.Entries); i++ {
		if t.Entries[i].Frame <= t.Entries[i-1].Frame {
			return fmt.Errorf("%w: node %d entry %d (%v after %v)",
				ErrUnsortedEntries, t.Bone, i, t.Entries[i].Frame, t.Entries[i-1].Frame)
		}
	}
	// Tracks without entries leave the bone untouched, same as no track.
	if len(t.Entries) == 0 {
		return nil
	}
	c.Tracks[t.Bone] = t
	return nil
}
