package chore

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/decker502/chore/internal/keyframe"
)

type clipSet map[string]*keyframe.Clip

func (s clipSet) ResolveClip(name string) (*keyframe.Clip, error) {
	c, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("clip %q not loaded", name)
	}
	return c, nil
}

func TestStateSize(t *testing.T) {
	if StateSize != 160 {
		t.Fatalf("StateSize = %d, want 160", StateSize)
	}
}

func TestState_RoundTrip(t *testing.T) {
	clip := testClip()
	c := New(4, "walk", clip, 2)
	c.PlayLooping()
	c.FadeOut(800)
	c.Advance(0.35, nil)

	st := c.State()
	data, err := st.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != StateSize {
		t.Fatalf("encoded %d bytes, want %d", len(data), StateSize)
	}

	var got State
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got != st {
		t.Fatalf("round trip\nhave %+v\nwant %+v", got, st)
	}

	r, err := Restore(4, got, clipSet{"walk": clip})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if r.Clip() != clip || r.Time() != c.Time() || r.Looping() != c.Looping() ||
		r.IsPlaying() != c.IsPlaying() || r.Weight() != c.Weight() || r.Priority() != 2 {
		t.Fatalf("restored chore differs\nhave %+v\nwant %+v", r.State(), c.State())
	}
}

func TestStates_RoundTrip(t *testing.T) {
	states := []State{
		{Chore: "walk", Clip: "walk.key", Time: 3.5, Playing: true, Looping: true, Priority: 1},
		{Chore: "wave", Clip: "wave.key", Time: 10, Playing: true, Hold: true, Priority: 2},
		{Chore: "blink"},
	}
	data, err := MarshalStates(states)
	if err != nil {
		t.Fatalf("MarshalStates: %v", err)
	}
	got, err := UnmarshalStates(data)
	if err != nil {
		t.Fatalf("UnmarshalStates: %v", err)
	}
	if len(got) != len(states) {
		t.Fatalf("got %d states, want %d", len(got), len(states))
	}
	for i := range states {
		if got[i] != states[i] {
			t.Errorf("state %d\nhave %+v\nwant %+v", i, got[i], states[i])
		}
	}

	if _, err := UnmarshalStates(data[:len(data)-1]); !errors.Is(err, ErrStateSize) {
		t.Errorf("truncated stream error = %v, want ErrStateSize", err)
	}
}

func TestState_Errors(t *testing.T) {
	long := State{Chore: strings.Repeat("x", NameSize+1)}
	if _, err := long.MarshalBinary(); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("MarshalBinary(long name) = %v, want ErrNameTooLong", err)
	}

	var st State
	if err := st.UnmarshalBinary(make([]byte, StateSize-1)); !errors.Is(err, ErrStateSize) {
		t.Errorf("UnmarshalBinary(short) = %v, want ErrStateSize", err)
	}

	c := New(0, "walk", testClip(), 1)
	err := c.SetState(State{Chore: "walk", Clip: "missing.key"}, clipSet{})
	if !errors.Is(err, ErrClipMismatch) {
		t.Errorf("SetState(missing clip) = %v, want ErrClipMismatch", err)
	}
	if c.Clip().Name != "walk" {
		t.Error("failed SetState must leave the chore untouched")
	}
}

func TestSetState_SanitizesTiming(t *testing.T) {
	clip := testClip()
	tests := []struct {
		name    string
		st      State
		want    float64
		fadeOff bool
	}{
		{"nan time", State{Clip: "walk", Time: math.NaN(), Playing: true}, 0, false},
		{"negative time", State{Clip: "walk", Time: -50, Playing: true}, 0, false},
		{"past end", State{Clip: "walk", Time: 1e6, Playing: true}, clip.Duration(), false},
		{"looping inf", State{Clip: "walk", Time: math.Inf(1), Playing: true, Looping: true}, 0, false},
		{"looping wraps", State{Clip: "walk", Time: clip.Duration() + 2, Playing: true, Looping: true}, 2, false},
		{"nan fade", State{Clip: "walk", Fade: FadeModeIn, FadeElapsed: math.NaN(), FadeDuration: 1}, 0, true},
		{"negative fade", State{Clip: "walk", Fade: FadeModeOut, FadeDuration: -3}, 0, true},
		{"inf fade", State{Clip: "walk", Fade: FadeModeIn, FadeDuration: math.Inf(1)}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(0, "walk", clip, 1)
			if err := c.SetState(tt.st, nil); err != nil {
				t.Fatalf("SetState: %v", err)
			}
			if got := c.Time(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
			if w := c.Weight(); math.IsNaN(w) || w < 0 || w > 1 {
				t.Errorf("Weight() = %v, want within [0, 1]", w)
			}
			if tt.fadeOff && c.State().Fade != FadeModeNone {
				t.Errorf("fade mode = %v, want none", c.State().Fade)
			}

			rec := &recorder{}
			c.Contribute(rec)
			for i, s := range rec.samples {
				if !finite(s.Pos[0]) || !finite(s.Pos[1]) || !finite(s.Pos[2]) {
					t.Errorf("sample %d position %v not finite", i, s.Pos)
				}
			}
		})
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
