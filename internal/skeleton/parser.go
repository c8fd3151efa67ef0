package skeleton

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/decker502/chore/internal/mathutil"
)

// BinaryMagic starts every binary skeleton.
const BinaryMagic = "SKEL"

const maxBones = 1 << 16

// Parse decodes a binary skeleton: bone count, then per bone a
// length-prefixed name, the pivot and the child index list.
func Parse(name string, data []byte) (*Hierarchy, error) {
	if len(data) < len(BinaryMagic) || string(data[:len(BinaryMagic)]) != BinaryMagic {
		return nil, fmt.Errorf("skeleton %q: %w", name, ErrBadMagic)
	}
	r := &reader{data: data, off: len(BinaryMagic)}

	count := r.u32()
	if r.err != nil {
		return nil, fmt.Errorf("skeleton %q: header: %w", name, r.err)
	}
	if count > maxBones {
		return nil, fmt.Errorf("skeleton %q: bone count %d exceeds %d", name, count, maxBones)
	}

	defs := make([]BoneDef, 0, count)
	for i := uint32(0); i < count; i++ {
		var d BoneDef
		d.Name = r.str()
		d.Pivot = mathutil.Vec3{r.f32(), r.f32(), r.f32()}
		n := r.u32()
		if r.err == nil && !r.has(int(n)*4) {
			r.err = ErrTruncated
		}
		if r.err != nil {
			return nil, fmt.Errorf("skeleton %q: bone %d: %w", name, i, r.err)
		}
		d.Children = make([]int, n)
		for j := range d.Children {
			d.Children[j] = int(r.u32())
		}
		defs = append(defs, d)
	}
	if r.off != len(r.data) {
		return nil, fmt.Errorf("skeleton %q: %d trailing bytes", name, len(r.data)-r.off)
	}
	return NewHierarchy(name, defs)
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
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) f32() float64 {
	return float64(math.Float32frombits(r.u32()))
}

func (r *reader) str() string {
	n := int(r.u32())
	if r.err != nil {
		return ""
	}
	if !r.has(n) {
		r.err = ErrTruncated
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

// Encode writes h in the binary skeleton format.
func Encode(h *Hierarchy) []byte {
	buf := append([]byte(nil), BinaryMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.Len()))
	for i := range h.bones {
		b := &h.bones[i]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Name)))
		buf = append(buf, b.Name...)
		for _, v := range b.Pivot {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Children)))
		for _, c := range b.Children {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(c))
		}
	}
	return buf
}
