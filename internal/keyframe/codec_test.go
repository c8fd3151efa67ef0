package keyframe

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/decker502/chore/internal/mathutil"
)

const walkText = `
# walk cycle exported for tests
section: header
flags 0x2
type 0x1
frames 10
fps 15
joints 3

section: markers
markers 2
0 1
5.5 7

section: keyframe nodes
nodes 2

node 0
name hip
kind quat
entries 2
0: 0 0 0 0 0 0 0 1
1: 10 0 0 10 0 0 0.70710677 0.70710677

node 2
name spine
kind delta
entries 2
0: 0 0x0 1 2 3 10 20 30
   0 1 0 0.5 0 -0.25
1: 6 0x4 1 8 3 13 20 28.5
   0 0 0 0 0 0
`

func walkClip() *Clip {
	h := float64(float32(0.70710677))
	return &Clip{
		Name:      "walk",
		Flags:     2,
		Type:      1,
		FPS:       15,
		NumFrames: 10,
		NumJoints: 3,
		Markers:   []Marker{{Frame: 0, Value: 1}, {Frame: 5.5, Value: 7}},
		Tracks: []*Track{
			{Bone: 0, BoneName: "hip", Kind: KindQuat, Entries: []Entry{
				{Frame: 0, Rot: mathutil.Quat{0, 0, 0, 1}},
				{Frame: 10, Pos: mathutil.Vec3{0, 0, 10}, Rot: mathutil.Quat{0, 0, h, h}},
			}},
			nil,
			{Bone: 2, BoneName: "spine", Kind: KindDelta, Entries: []Entry{
				{Frame: 0, Pos: mathutil.Vec3{1, 2, 3}, Euler: mathutil.Vec3{10, 20, 30},
					DPos: mathutil.Vec3{0, 1, 0}, DEuler: mathutil.Vec3{0.5, 0, -0.25}},
				{Frame: 6, Flags: 4, Pos: mathutil.Vec3{1, 8, 3}, Euler: mathutil.Vec3{13, 20, 28.5}},
			}},
		},
	}
}

func TestParseText(t *testing.T) {
	got, err := ParseText("walk", []byte(walkText))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if want := walkClip(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseText mismatch\nhave %+v\nwant %+v", got, want)
	}
}

// TestBinaryAndTextAgree checks both encodings produce the same clip.
func TestBinaryAndTextAgree(t *testing.T) {
	want := walkClip()

	bin, err := EncodeBinary(want)
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	fromBin, err := ParseBinary("walk", bin)
	if err != nil {
		t.Fatalf("ParseBinary: %v", err)
	}
	fromText, err := ParseText("walk", FormatText(want))
	if err != nil {
		t.Fatalf("ParseText(FormatText): %v", err)
	}

	if !reflect.DeepEqual(fromBin, want) {
		t.Errorf("binary form mismatch\nhave %+v\nwant %+v", fromBin, want)
	}
	if !reflect.DeepEqual(fromText, fromBin) {
		t.Errorf("text and binary forms differ\ntext   %+v\nbinary %+v", fromText, fromBin)
	}

	// Parse picks the codec by magic.
	if c, err := Parse("walk", bin); err != nil || !reflect.DeepEqual(c, want) {
		t.Errorf("Parse(binary) = %v, %v", c, err)
	}
	if c, err := Parse("walk", []byte(walkText)); err != nil || !reflect.DeepEqual(c, want) {
		t.Errorf("Parse(text) = %v, %v", c, err)
	}
}

func TestParseBinary_Errors(t *testing.T) {
	good, err := EncodeBinary(walkClip())
	if err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}

	badBone, _ := EncodeBinary(walkClip())
	// Rewrite the joint count in the header from 3 to 2: node 2 is now out of range.
	badBone[4+4+4+4+4] = 2

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", append([]byte("KEYF"), good[4:]...), ErrBadMagic},
		{"empty", nil, ErrBadMagic},
		{"truncated header", good[:10], ErrTruncated},
		{"truncated track", good[:len(good)-3], ErrTruncated},
		{"bone out of range", badBone, ErrBoneOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseBinary("walk", tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseBinary error = %v, want %v", err, tt.want)
			}
			if c != nil {
				t.Errorf("expected nil clip on error, got %+v", c)
			}
		})
	}
}

func TestParseText_Errors(t *testing.T) {
	unsorted := strings.Replace(walkText, "1: 6 0x4", "1: 0 0x4", 1)
	dup := strings.Replace(walkText, "node 2\n", "node 0\n", 1)
	tests := []struct {
		name string
		text string
		want error
	}{
		{"no header", "section: markers\nmarkers 0\n", ErrSyntax},
		{"unknown section", "section: header\njoints 1\nsection: bogus\n", ErrSyntax},
		{"bad kind", strings.Replace(walkText, "kind delta", "kind euler", 1), ErrUnknownKind},
		{"unsorted", unsorted, ErrUnsortedEntries},
		{"duplicate node", dup, ErrDuplicateTrack},
		{"out of range", strings.Replace(walkText, "joints 3", "joints 2", 1), ErrBoneOutOfRange},
		{"short entries", strings.Replace(walkText, "entries 2\n0: 0 0x0", "entries 3\n0: 0 0x0", 1), ErrTruncated},
		{"bad number", strings.Replace(walkText, "fps 15", "fps fast", 1), ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseText("walk", []byte(tt.text)); !errors.Is(err, tt.want) {
				t.Fatalf("ParseText error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClipValidate(t *testing.T) {
	c := walkClip()
	if err := c.Validate(3); err != nil {
		t.Fatalf("Validate(3): %v", err)
	}
	if err := c.Validate(2); !errors.Is(err, ErrBoneOutOfRange) {
		t.Fatalf("Validate(2) = %v, want ErrBoneOutOfRange", err)
	}
}

func TestClipEmpty(t *testing.T) {
	c, err := ParseText("idle", []byte("section: header\nframes 0\njoints 4\n"))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if !c.Empty() {
		t.Error("clip without tracks should be empty")
	}
	if c.TrackCount() != 0 {
		t.Errorf("TrackCount = %d, want 0", c.TrackCount())
	}
	if walkClip().Empty() {
		t.Error("walk clip should not be empty")
	}
}
