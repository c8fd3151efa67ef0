package skeleton

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/mathutil"
)

const eps = 1e-9

// humanoid builds: 0 root -> 1 hip -> {2 spine -> 3 head, 4 leg}.
func humanoid(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := NewHierarchy("humanoid", []BoneDef{
		{Name: "root", Children: []int{1}},
		{Name: "hip", Pivot: mathutil.Vec3{0, 0, 1}, Children: []int{2, 4}},
		{Name: "spine", Pivot: mathutil.Vec3{0, 0, 0.5}, Children: []int{3}},
		{Name: "head", Pivot: mathutil.Vec3{0, 0, 0.25}},
		{Name: "leg", Pivot: mathutil.Vec3{0.25, 0, -0.5}},
	})
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	return h
}

func TestNewHierarchy_Parents(t *testing.T) {
	h := humanoid(t)

	wantParents := []int{-1, 0, 1, 2, 1}
	for i, want := range wantParents {
		if got := h.Bone(i).Parent; got != want {
			t.Errorf("bone %d parent = %d, want %d", i, got, want)
		}
	}
	if i, ok := h.Index("spine"); !ok || i != 2 {
		t.Errorf("Index(spine) = %d, %v", i, ok)
	}

	// Parents precede children in the composition order.
	seen := make(map[int]bool)
	for _, b := range h.Order() {
		if p := h.Bone(b).Parent; p >= 0 && !seen[p] {
			t.Fatalf("bone %d visited before its parent %d (order %v)", b, p, h.Order())
		}
		seen[b] = true
	}
	if len(h.Order()) != h.Len() {
		t.Fatalf("order has %d bones, want %d", len(h.Order()), h.Len())
	}
}

func TestNewHierarchy_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs []BoneDef
	}{
		{"child out of range", []BoneDef{{Name: "a", Children: []int{3}}}},
		{"self child", []BoneDef{{Name: "a", Children: []int{0}}}},
		{"two parents", []BoneDef{{Name: "a", Children: []int{2}}, {Name: "b", Children: []int{2}}, {Name: "c"}}},
		{"cycle", []BoneDef{{Name: "root"}, {Name: "a", Children: []int{2}}, {Name: "b", Children: []int{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHierarchy("bad", tt.defs); !errors.Is(err, ErrBadHierarchy) {
				t.Fatalf("NewHierarchy error = %v, want ErrBadHierarchy", err)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	h := humanoid(t)
	data := Encode(h)

	got, err := Parse("humanoid", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Len() != h.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), h.Len())
	}
	for i := 0; i < h.Len(); i++ {
		a, b := got.Bone(i), h.Bone(i)
		if a.Name != b.Name || a.Parent != b.Parent || a.Pivot != b.Pivot || len(a.Children) != len(b.Children) {
			t.Errorf("bone %d\nhave %+v\nwant %+v", i, *a, *b)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	good := Encode(humanoid(t))
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", append([]byte("LEKS"), good[4:]...), ErrBadMagic},
		{"short", good[:6], ErrTruncated},
		{"truncated bone", good[:len(good)-2], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse("humanoid", tt.data); !errors.Is(err, tt.want) {
				t.Fatalf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Parse("humanoid", append(good, 0)); err == nil {
		t.Error("Parse with trailing bytes should fail")
	}
}

func sampleAt(x float64, yawDeg float64) keyframe.Sample {
	return keyframe.Sample{
		Pos:      mathutil.Vec3{x, 0, 0},
		Rot:      mathutil.PitchYawRollToQuat(0, yawDeg, 0),
		Euler:    mathutil.Vec3{0, yawDeg, 0},
		HasEuler: true,
	}
}

func TestAccumulator_PriorityOverride(t *testing.T) {
	wave := sampleAt(7, 30)
	lows := []keyframe.Sample{sampleAt(1, 10), sampleAt(2, 20), sampleAt(3, -40)}

	// The single high-priority sample wins wherever it lands in the order.
	for at := 0; at <= len(lows); at++ {
		var a Accumulator
		for i, s := range lows {
			if i == at {
				a.Accumulate(wave, 2, 1)
			}
			a.Accumulate(s, 1, 1)
		}
		if at == len(lows) {
			a.Accumulate(wave, 2, 1)
		}
		got := a.Finalize()
		if got.Pos != wave.Pos {
			t.Errorf("insert at %d: pos %v, want %v", at, got.Pos, wave.Pos)
		}
		if !got.Rot.ApproxEqual(wave.Rot, eps) {
			t.Errorf("insert at %d: rot %v, want %v", at, got.Rot, wave.Rot)
		}
		if a.Priority() != 2 || a.Weight() != 1 {
			t.Errorf("insert at %d: priority %d weight %v", at, a.Priority(), a.Weight())
		}
	}
}

func TestAccumulator_EqualPriorityMean(t *testing.T) {
	var a Accumulator
	a.Accumulate(sampleAt(2, 10), 1, 1)
	a.Accumulate(sampleAt(4, 30), 1, 1)
	got := a.Finalize()
	if got.Pos != (mathutil.Vec3{3, 0, 0}) {
		t.Fatalf("mean pos %v, want [3 0 0]", got.Pos)
	}
	want := mathutil.PitchYawRollToQuat(0, 20, 0)
	if !got.Rot.ApproxEqual(want, eps) {
		t.Fatalf("mean rot %v, want %v", got.Rot, want)
	}
}

func TestAccumulator_WeightedQuat(t *testing.T) {
	a0 := mathutil.QuatIdentity()
	a1 := mathutil.QuatAxisAngle(mathutil.Vec3{0, 0, 1}, math.Pi/2)

	var a Accumulator
	// -a1 is the same rotation and must not cancel a1 out.
	a.Accumulate(keyframe.Sample{Rot: a0}, 0, 1)
	a.Accumulate(keyframe.Sample{Rot: a1.Scale(-1)}, 0, 1)
	got := a.Finalize()
	want := mathutil.QuatAxisAngle(mathutil.Vec3{0, 0, 1}, math.Pi/4)
	if !got.Rot.ApproxEqual(want, 1e-9) {
		t.Fatalf("quat mean %v, want %v", got.Rot, want)
	}
}

func TestAccumulator_ZeroWeightDropped(t *testing.T) {
	var a Accumulator
	a.Accumulate(sampleAt(1, 0), 1, 1)
	a.Accumulate(sampleAt(9, 0), 5, 0)
	if a.Priority() != 1 {
		t.Fatalf("zero-weight sample claimed priority %d", a.Priority())
	}
	if got := a.Finalize(); got.Pos != (mathutil.Vec3{1, 0, 0}) {
		t.Fatalf("pos %v, want [1 0 0]", got.Pos)
	}
}

func TestAccumulator_OppositeHemispheres(t *testing.T) {
	y := mathutil.Vec3{0, 1, 0}
	var a Accumulator
	a.Accumulate(keyframe.Sample{Rot: mathutil.QuatAxisAngle(y, mathutil.Deg2Rad(179.9))}, 2, 1)
	a.Accumulate(keyframe.Sample{Rot: mathutil.QuatAxisAngle(y, mathutil.Deg2Rad(180.1))}, 2, 1)
	got := a.Finalize().Rot
	want := mathutil.QuatAxisAngle(y, math.Pi)
	if !got.ApproxEqual(want, 1e-9) {
		t.Fatalf("blend across 180° = %v, want %v", got, want)
	}
}

// TestAccumulator_OrderIndependence shuffles equal-priority contributions.
// Dyadic positions sum exactly. Other values may differ by rounding, so
// they are compared within a tolerance.
func TestAccumulator_OrderIndependence(t *testing.T) {
	tests := []struct {
		name   string
		pos    func(*rand.Rand) mathutil.Vec3
		weight func(*rand.Rand) float64
		posTol float64
	}{
		{
			name: "dyadic",
			pos: func(r *rand.Rand) mathutil.Vec3 {
				return mathutil.Vec3{float64(r.Intn(64)) / 8, float64(r.Intn(64)) / 8, 0}
			},
			weight: func(*rand.Rand) float64 { return 1 },
		},
		{
			name: "arbitrary",
			pos: func(r *rand.Rand) mathutil.Vec3 {
				return mathutil.Vec3{r.NormFloat64() * 37, r.NormFloat64() * 0.3, r.Float64()*1e3 - 500}
			},
			weight: func(r *rand.Rand) float64 { return 0.05 + r.Float64()*3 },
			posTol: 1e-9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			base := mathutil.QuatAxisAngle(mathutil.Vec3{0, 1, 0}, rng.Float64()*2*math.Pi)
			samples := make([]keyframe.Sample, 7)
			weights := make([]float64, len(samples))
			for i := range samples {
				axis := mathutil.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
				axis = axis.Scale(1 / axis.Len())
				samples[i] = keyframe.Sample{
					Pos: tt.pos(rng),
					Rot: base.Mul(mathutil.QuatAxisAngle(axis, rng.Float64()-0.5)),
				}
				if i%2 == 0 {
					samples[i].Rot = samples[i].Rot.Scale(-1)
				}
				weights[i] = tt.weight(rng)
			}

			var ref Accumulator
			for i, s := range samples {
				ref.Accumulate(s, 3, weights[i])
			}
			want := ref.Finalize()

			idx := rng.Perm(len(samples))
			for k := 0; k < 50; k++ {
				rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
				var a Accumulator
				for _, i := range idx {
					a.Accumulate(samples[i], 3, weights[i])
				}
				got := a.Finalize()
				if !got.Pos.ApproxEqual(want.Pos, tt.posTol) {
					t.Fatalf("shuffle %d: pos %v, want %v", k, got.Pos, want.Pos)
				}
				for i := range got.Rot {
					if math.Abs(got.Rot[i]-want.Rot[i]) > 1e-12 {
						t.Fatalf("shuffle %d: rot %v, want %v", k, got.Rot, want.Rot)
					}
				}
			}
		})
	}
}

func TestSkeleton_RestPoseIdempotent(t *testing.T) {
	s := New(humanoid(t))
	rest := append([]mathutil.Transform(nil), s.Pose().World...)

	if got := rest[3].Pos; !got.ApproxEqual(mathutil.Vec3{0, 0, 1.75}, eps) {
		t.Fatalf("head rest world pos %v, want [0 0 1.75]", got)
	}

	for tick := 0; tick < 5; tick++ {
		s.BeginTick()
		p := s.EndTick()
		for i := range rest {
			if p.World[i] != rest[i] {
				t.Fatalf("tick %d bone %d drifted\nhave %v\nwant %v", tick, i, p.World[i], rest[i])
			}
			if p.Local[i] != mathutil.Identity() {
				t.Fatalf("tick %d bone %d local %v, want identity", tick, i, p.Local[i])
			}
		}
	}
}

// TestSkeleton_PriorityScenario: "walk" (priority 1) and "wave" (priority 2)
// both drive the spine; the spine follows wave exactly.
func TestSkeleton_PriorityScenario(t *testing.T) {
	s := New(humanoid(t))
	walk := sampleAt(1, 15)
	wave := sampleAt(0.5, -45)

	s.BeginTick()
	s.Accumulate(2, wave, 2, 1)
	s.Accumulate(2, walk, 1, 1)
	s.Accumulate(1, walk, 1, 1)
	p := s.EndTick()

	if p.Local[2].Pos != wave.Pos || !p.Local[2].Rot.ApproxEqual(wave.Rot, eps) {
		t.Fatalf("spine local %v, want wave sample %v", p.Local[2], wave)
	}
	// Spine world = hip world ∘ (pivot + local).
	want := mathutil.Compose(p.World[1], mathutil.Transform{
		Pos: mathutil.Vec3{0, 0, 0.5}.Add(wave.Pos),
		Rot: p.Local[2].Rot,
	})
	if !p.World[2].Pos.ApproxEqual(want.Pos, eps) {
		t.Fatalf("spine world %v, want %v", p.World[2].Pos, want.Pos)
	}
	// The untouched head still sits at rest relative to the spine.
	if got, want := p.World[3].Pos, p.World[2].Apply(mathutil.Vec3{0, 0, 0.25}); !got.ApproxEqual(want, eps) {
		t.Fatalf("head world %v, want %v", got, want)
	}
}

func TestSkeleton_DoubleBuffer(t *testing.T) {
	s := New(humanoid(t))

	s.BeginTick()
	s.Accumulate(1, sampleAt(1, 0), 1, 1)
	first := s.EndTick()
	firstHip := first.World[1]

	// While the next tick accumulates the published pose is untouched.
	s.BeginTick()
	s.Accumulate(1, sampleAt(5, 0), 1, 1)
	if s.Pose() != first || first.World[1] != firstHip {
		t.Fatal("published pose changed during accumulation")
	}
	second := s.EndTick()
	if second == first {
		t.Fatal("EndTick must publish into the back buffer")
	}
	if first.World[1] != firstHip {
		t.Fatal("previous pose overwritten by the following tick")
	}
	if second.Tick != first.Tick+1 {
		t.Fatalf("tick counter %d after %d", second.Tick, first.Tick)
	}
}

func TestSkeleton_ContractViolations(t *testing.T) {
	empty, err := NewHierarchy("empty", nil)
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	mustPanic(t, "zero bones", func() { New(empty).BeginTick() })

	s := New(humanoid(t))
	mustPanic(t, "accumulate outside tick", func() { s.Accumulate(0, keyframe.Sample{}, 0, 1) })
	s.BeginTick()
	mustPanic(t, "bone out of range", func() { s.Accumulate(99, keyframe.Sample{}, 0, 1) })
}

func TestSkeleton_Validate(t *testing.T) {
	s := New(humanoid(t))
	clip := &keyframe.Clip{Name: "big", NumFrames: 1, NumJoints: 8, Tracks: make([]*keyframe.Track, 8)}
	clip.Tracks[6] = &keyframe.Track{Bone: 6, Entries: []keyframe.Entry{{}}}
	if err := s.Validate(clip); !errors.Is(err, keyframe.ErrBoneOutOfRange) {
		t.Fatalf("Validate = %v, want ErrBoneOutOfRange", err)
	}
}

func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}
