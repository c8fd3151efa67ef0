package chore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/decker502/chore/internal/keyframe"
)

// NameSize is the fixed width of the name fields of a persisted State.
const NameSize = 64

// StateSize is the encoded size of one State.
var StateSize = binary.Size(wireState{})

var (
	ErrNameTooLong  = errors.New("chore: name too long")
	ErrStateSize    = errors.New("chore: bad state record size")
	ErrClipMismatch = errors.New("chore: clip cannot be resolved")
)

// ClipResolver looks a clip up by name when restoring a saved chore.
type ClipResolver interface {
	ResolveClip(name string) (*keyframe.Clip, error)
}

// State is the persistent playback state of a chore. Clips are bound by
// name and resolved again on load.
type State struct {
	Chore        string
	Clip         string
	Time         float64
	Playing      bool
	Looping      bool
	Hold         bool
	Fade         FadeMode
	Priority     int32
	FadeElapsed  float64
	FadeDuration float64
}

// wireState is State in its on-disk layout: fixed-size fields in
// declaration order, little endian.
type wireState struct {
	Chore        [NameSize]byte
	Clip         [NameSize]byte
	Time         float64
	Playing      uint8
	Looping      uint8
	Hold         uint8
	Fade         uint8
	Priority     int32
	FadeElapsed  float64
	FadeDuration float64
}

// State captures the chore's playback state.
func (c *Chore) State() State {
	st := State{
		Chore:        c.name,
		Time:         c.time,
		Playing:      c.playing,
		Looping:      c.looping,
		Hold:         c.hold,
		Fade:         c.fade.mode,
		Priority:     int32(c.priority),
		FadeElapsed:  c.fade.elapsed,
		FadeDuration: c.fade.duration,
	}
	if c.clip != nil {
		st.Clip = c.clip.Name
	}
	return st
}

// SetState restores st onto c. When st names a different clip than the one
// bound to c it is looked up through r. The time is wrapped or clamped to
// the clip like SetTime, and a fade with a non-finite or negative timing
// is dropped.
func (c *Chore) SetState(st State, r ClipResolver) error {
	clip := c.clip
	if st.Clip == "" {
		clip = nil
	} else if clip == nil || clip.Name != st.Clip {
		if r == nil {
			return fmt.Errorf("%w: %q for chore %q: no resolver", ErrClipMismatch, st.Clip, st.Chore)
		}
		var err error
		if clip, err = r.ResolveClip(st.Clip); err != nil {
			return fmt.Errorf("%w: %q for chore %q: %v", ErrClipMismatch, st.Clip, st.Chore, err)
		}
	}

	c.clip = clip
	c.name = st.Chore
	c.playing = st.Playing
	c.looping = st.Looping
	c.hold = st.Hold
	c.SetTime(st.Time)
	c.priority = int(st.Priority)
	c.fade = fade{mode: st.Fade, elapsed: st.FadeElapsed, duration: st.FadeDuration}
	if st.Fade > FadeModeOut || !validFadeTiming(st.FadeElapsed) || !validFadeTiming(st.FadeDuration) {
		c.fade = fade{}
	}
	return nil
}

func validFadeTiming(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// Restore builds a new chore from st, resolving its clip through r.
func Restore(id int, st State, r ClipResolver) (*Chore, error) {
	c := New(id, st.Chore, nil, int(st.Priority))
	if err := c.SetState(st, r); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalBinary encodes st as a StateSize record.
func (st State) MarshalBinary() ([]byte, error) {
	var w wireState
	if err := putName(w.Chore[:], st.Chore); err != nil {
		return nil, err
	}
	if err := putName(w.Clip[:], st.Clip); err != nil {
		return nil, err
	}
	w.Time = st.Time
	w.Playing = boolByte(st.Playing)
	w.Looping = boolByte(st.Looping)
	w.Hold = boolByte(st.Hold)
	w.Fade = uint8(st.Fade)
	w.Priority = st.Priority
	w.FadeElapsed = st.FadeElapsed
	w.FadeDuration = st.FadeDuration

	var buf bytes.Buffer
	buf.Grow(StateSize)
	if err := binary.Write(&buf, binary.LittleEndian, &w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes one StateSize record.
func (st *State) UnmarshalBinary(data []byte) error {
	if len(data) != StateSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrStateSize, len(data), StateSize)
	}
	var w wireState
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &w); err != nil {
		return err
	}
	*st = State{
		Chore:        getName(w.Chore[:]),
		Clip:         getName(w.Clip[:]),
		Time:         w.Time,
		Playing:      w.Playing != 0,
		Looping:      w.Looping != 0,
		Hold:         w.Hold != 0,
		Fade:         FadeMode(w.Fade),
		Priority:     w.Priority,
		FadeElapsed:  w.FadeElapsed,
		FadeDuration: w.FadeDuration,
	}
	return nil
}

// MarshalStates encodes a count followed by the records.
func MarshalStates(states []State) ([]byte, error) {
	out := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(states)*StateSize), uint32(len(states)))
	for i, st := range states {
		b, err := st.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalStates decodes the output of MarshalStates.
func UnmarshalStates(data []byte) ([]State, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: missing count", ErrStateSize)
	}
	n := int(binary.LittleEndian.Uint32(data))
	data = data[4:]
	if len(data) != n*StateSize {
		return nil, fmt.Errorf("%w: %d bytes for %d records", ErrStateSize, len(data), n)
	}
	states := make([]State, n)
	for i := range states {
		if err := states[i].UnmarshalBinary(data[i*StateSize : (i+1)*StateSize]); err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
	}
	return states, nil
}

func putName(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("%w: %q (%d > %d bytes)", ErrNameTooLong, s, len(s), len(dst))
	}
	copy(dst, s)
	return nil
}

func getName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
