package keyframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/decker502/chore/internal/mathutil"
)

// BinaryMagic starts every binary clip.
const BinaryMagic = "FYEK"

const (
	nameFieldSize  = 32
	maxJoints      = 1 << 16
	deltaEntrySize = 4 * 14
	quatEntrySize  = 4 * 8
	blockHeadSize  = 4 + nameFieldSize + 4 + 4
)

// IsBinary reports whether data starts with the binary clip magic.
func IsBinary(data []byte) bool {
	return len(data) >= len(BinaryMagic) && string(data[:len(BinaryMagic)]) == BinaryMagic
}

// ParseBinary decodes a binary clip. Track blocks follow the marker table
// until the end of the stream.
func ParseBinary(name string, data []byte) (*Clip, error) {
	if !IsBinary(data) {
		return nil, fmt.Errorf("clip %q: %w", name, ErrBadMagic)
	}
	r := &reader{data: data, off: len(BinaryMagic)}

	c := &Clip{Name: name}
	c.Flags = r.u32()
	c.Type = r.u32()
	c.FPS = r.f32()
	c.NumFrames = int(r.u32())
	joints := r.u32()
	markerCount := r.u32()
	if r.err != nil {
		return nil, fmt.Errorf("clip %q: header: %w", name, r.err)
	}
	if joints > maxJoints {
		return nil, fmt.Errorf("clip %q: joint count %d exceeds %d", name, joints, maxJoints)
	}
	if !r.has(int(markerCount) * 8) {
		return nil, fmt.Errorf("clip %q: markers: %w", name, ErrTruncated)
	}
	c.NumJoints = int(joints)
	c.Tracks = make([]*Track, c.NumJoints)

	if markerCount > 0 {
		c.Markers = make([]Marker, markerCount)
		for i := range c.Markers {
			c.Markers[i].Frame = r.f32()
			c.Markers[i].Value = r.u32()
		}
	}

	for r.off < len(r.data) {
		t, err := r.track()
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", name, err)
		}
		if err := c.addTrack(t); err != nil {
			return nil, fmt.Errorf("clip %q: %w", name, err)
		}
	}
	return c, nil
}

type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) has(n int) bool {
	return n >= 0 && r.off+n <= len(r.data)
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if !r.has(4) {
		r.err = ErrTruncated
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) f32() float64 {
	return float64(math.Float32frombits(r.u32()))
}

func (r *reader) vec3() mathutil.Vec3 {
	return mathutil.Vec3{r.f32(), r.f32(), r.f32()}
}

func (r *reader) name() string {
	if r.err != nil {
		return ""
	}
	if !r.has(nameFieldSize) {
		r.err = ErrTruncated
		r.off = len(r.data)
		return ""
	}
	s := r.data[r.off : r.off+nameFieldSize]
	r.off += nameFieldSize
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

func (r *reader) track() (*Track, error) {
	if !r.has(blockHeadSize) {
		return nil, fmt.Errorf("track block at offset %d: %w", r.off, ErrTruncated)
	}
	t := &Track{}
	t.Bone = int(r.u32())
	t.BoneName = r.name()
	kind := TrackKind(r.u32())
	count := int(r.u32())

	var size int
	switch kind {
	case KindDelta:
		size = deltaEntrySize
	case KindQuat:
		size = quatEntrySize
	default:
		return nil, fmt.Errorf("node %d: %w: %d", t.Bone, ErrUnknownKind, uint32(kind))
	}
	t.Kind = kind
	if !r.has(count * size) {
		return nil, fmt.Errorf("node %d: %d entries: %w", t.Bone, count, ErrTruncated)
	}

	t.Entries = make([]Entry, count)
	for i := range t.Entries {
		e := &t.Entries[i]
		e.Frame = r.f32()
		if kind == KindQuat {
			e.Pos = r.vec3()
			e.Rot = mathutil.Quat{r.f32(), r.f32(), r.f32(), r.f32()}
			continue
		}
		e.Flags = r.u32()
		e.Pos = r.vec3()
		e.Euler = r.vec3()
		e.DPos = r.vec3()
		e.DEuler = r.vec3()
	}
	return t, r.err
}

// EncodeBinary writes c in the binary clip format. Values are stored as
// float32, so encoding is lossless only for clips that were decoded from
// either format.
func EncodeBinary(c *Clip) ([]byte, error) {
	w := &writer{}
	w.buf = append(w.buf, BinaryMagic...)
	w.u32(c.Flags)
	w.u32(c.Type)
	w.f32(c.FPS)
	w.u32(uint32(c.NumFrames))
	w.u32(uint32(c.NumJoints))
	w.u32(uint32(len(c.Markers)))
	for _, m := range c.Markers {
		w.f32(m.Frame)
		w.u32(m.Value)
	}
	for _, t := range c.Tracks {
		if t == nil {
			continue
		}
		if len(t.BoneName) >= nameFieldSize {
			return nil, fmt.Errorf("clip %q: bone name %q longer than %d bytes", c.Name, t.BoneName, nameFieldSize-1)
		}
		w.u32(uint32(t.Bone))
		var name [nameFieldSize]byte
		copy(name[:], t.BoneName)
		w.buf = append(w.buf, name[:]...)
		w.u32(uint32(t.Kind))
		w.u32(uint32(len(t.Entries)))
		for _, e := range t.Entries {
			w.f32(e.Frame)
			if t.Kind == KindQuat {
				w.vec3(e.Pos)
				for _, v := range e.Rot {
					w.f32(v)
				}
				continue
			}
			w.u32(e.Flags)
			w.vec3(e.Pos)
			w.vec3(e.Euler)
			w.vec3(e.DPos)
			w.vec3(e.DEuler)
		}
	}
	return w.buf, nil
}

type writer struct {
	buf []byte
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) f32(v float64) {
	w.u32(math.Float32bits(float32(v)))
}

func (w *writer) vec3(v mathutil.Vec3) {
	for _, x := range v {
		w.f32(x)
	}
}
