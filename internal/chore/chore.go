// Package chore implements the playback state of one clip bound to an
// actor: play, loop, stop, fades, hold-at-last-frame and marker events.
package chore

import (
	"math"

	"github.com/decker502/chore/internal/keyframe"
)

// FadeMode selects how the fade overlay scales the contribution weight.
type FadeMode uint8

const (
	FadeModeNone FadeMode = iota
	FadeModeIn
	FadeModeOut
)

func (m FadeMode) String() string {
	switch m {
	case FadeModeIn:
		return "in"
	case FadeModeOut:
		return "out"
	default:
		return "none"
	}
}

// Target receives a chore's per-bone samples. *skeleton.Skeleton
// implements it.
type Target interface {
	Accumulate(bone int, sample keyframe.Sample, priority int, weight float64)
}

type fade struct {
	mode     FadeMode
	elapsed  float64 // seconds
	duration float64 // seconds
}

// Chore is a stateful playback instance of one clip.
//
// Time is measured in clip frames. A Chore is owned by a single actor and
// must not be used from more than one goroutine.
type Chore struct {
	id       int
	name     string
	clip     *keyframe.Clip
	priority int

	time    float64
	playing bool
	looping bool
	hold    bool
	// fresh is set by Play so the first advance also fires markers at the
	// start frame.
	fresh bool

	fade fade
}

// New returns a stopped chore playing clip at the given priority. clip may
// be nil, in which case the chore never contributes.
func New(id int, name string, clip *keyframe.Clip, priority int) *Chore {
	return &Chore{id: id, name: name, clip: clip, priority: priority}
}

func (c *Chore) ID() int              { return c.id }
func (c *Chore) Name() string         { return c.name }
func (c *Chore) Clip() *keyframe.Clip { return c.clip }
func (c *Chore) Priority() int        { return c.priority }
func (c *Chore) SetPriority(p int)    { c.priority = p }
func (c *Chore) Time() float64        { return c.time }
func (c *Chore) IsPlaying() bool      { return c.playing }
func (c *Chore) Looping() bool        { return c.looping }
func (c *Chore) HoldsLastFrame() bool { return c.hold }
func (c *Chore) FadeMode() FadeMode   { return c.fade.mode }
func (c *Chore) Duration() float64    { return c.clip.Duration() }

// Play starts the chore from frame 0 with looping off.
func (c *Chore) Play() {
	c.start(false)
}

// PlayLooping starts the chore from frame 0 with looping on.
func (c *Chore) PlayLooping() {
	c.start(true)
}

func (c *Chore) start(looping bool) {
	c.playing = true
	c.looping = looping
	c.hold = false
	c.time = 0
	c.fresh = true
}

// Stop halts the chore. It stops contributing at the next tick and any
// fade in progress is dropped.
func (c *Chore) Stop() {
	c.playing = false
	c.hold = false
	c.fresh = false
	c.fade = fade{}
}

// SetLooping changes the looping flag without touching the time.
func (c *Chore) SetLooping(looping bool) {
	c.looping = looping
}

// SetLastFrame jumps to the end of the clip and holds there until the
// chore is stopped. It is used to complete a chore.
func (c *Chore) SetLastFrame() {
	c.time = c.clip.Duration()
	c.playing = true
	c.looping = false
	c.hold = true
	c.fresh = false
}

// SetTime moves the playhead to frames, wrapped for looping chores and
// clamped to [0, Duration] otherwise. A non-finite time rewinds to 0.
func (c *Chore) SetTime(frames float64) {
	d := c.clip.Duration()
	switch {
	case d <= 0 || math.IsNaN(frames) || math.IsInf(frames, 0):
		c.time = 0
	case c.looping:
		c.time = wrap(frames, d)
	default:
		c.time = math.Max(0, math.Min(frames, d))
	}
	c.fresh = false
}

// FadeIn ramps the weight from 0 to 1 over ms milliseconds. A non-positive
// duration completes the fade at once.
func (c *Chore) FadeIn(ms float64) {
	if ms <= 0 {
		c.fade = fade{}
		return
	}
	c.fade = fade{mode: FadeModeIn, duration: ms / 1000}
}

// FadeOut ramps the weight from 1 to 0 over ms milliseconds and stops the
// chore when it reaches 0. A non-positive duration stops at once.
func (c *Chore) FadeOut(ms float64) {
	if ms <= 0 {
		c.Stop()
		return
	}
	c.fade = fade{mode: FadeModeOut, duration: ms / 1000}
}

// Weight returns the contribution weight implied by the fade state.
func (c *Chore) Weight() float64 {
	switch c.fade.mode {
	case FadeModeIn:
		return c.fadeProgress()
	case FadeModeOut:
		return 1 - c.fadeProgress()
	default:
		return 1
	}
}

func (c *Chore) fadeProgress() float64 {
	if c.fade.duration <= 0 {
		return 1
	}
	return math.Max(0, math.Min(c.fade.elapsed/c.fade.duration, 1))
}

// Advance moves the chore forward by dt seconds.
//
// Looping chores wrap at the end of the clip. A chore holding its last
// frame stays there. Any other chore clamps to the end and stops. Markers
// whose frame is crossed are passed to fire in the order they are crossed;
// fire may be nil. Advancing a chore whose clip is empty does nothing.
func (c *Chore) Advance(dt float64, fire func(keyframe.Marker)) {
	if !c.playing || dt <= 0 || c.clip.Empty() || c.clip.FPS <= 0 {
		return
	}
	c.advanceFade(dt)
	if !c.playing {
		return
	}
	if c.hold {
		return
	}

	d := c.clip.Duration()
	prev := c.time
	cur := prev + dt*c.clip.FPS
	if fire != nil {
		c.fireMarkers(prev, cur, d, fire)
	}
	c.fresh = false

	switch {
	case cur < d:
		c.time = cur
	case c.looping:
		c.time = wrap(cur, d)
	default:
		c.time = d
		c.playing = false
	}
}

func (c *Chore) advanceFade(dt float64) {
	if c.fade.mode == FadeModeNone {
		return
	}
	c.fade.elapsed += dt
	if c.fade.elapsed < c.fade.duration {
		return
	}
	if c.fade.mode == FadeModeOut {
		c.Stop()
		return
	}
	c.fade = fade{}
}

// fireMarkers reports markers in the unwrapped interval (prev, cur]. For a
// non-looping chore the interval ends at d. The first advance after Play
// includes prev itself.
func (c *Chore) fireMarkers(prev, cur, d float64, fire func(keyframe.Marker)) {
	markers := c.clip.Markers
	if len(markers) == 0 {
		return
	}
	if !c.looping {
		cur = math.Min(cur, d)
		for _, m := range markers {
			if c.crossed(m.Frame, prev, cur) {
				fire(m)
			}
		}
		return
	}
	first := math.Floor(prev / d)
	last := math.Floor(cur / d)
	for k := first; k <= last; k++ {
		base := k * d
		for _, m := range markers {
			if m.Frame >= d {
				continue
			}
			if c.crossed(base+m.Frame, prev, cur) {
				fire(m)
			}
		}
	}
}

func (c *Chore) crossed(at, prev, cur float64) bool {
	if at == prev {
		return c.fresh
	}
	return at > prev && at <= cur
}

// Contribute feeds the sample of every track of the clip into target at
// the chore's priority and current weight. Stopped chores contribute
// nothing.
func (c *Chore) Contribute(target Target) {
	if !c.playing || c.clip == nil {
		return
	}
	w := c.Weight()
	if w <= 0 {
		return
	}
	t := c.time
	for _, tr := range c.clip.Tracks {
		if tr == nil {
			continue
		}
		target.Accumulate(tr.Bone, tr.Evaluate(t), c.priority, w)
	}
}

// wrap returns t modulo d in [0, d).
func wrap(t, d float64) float64 {
	r := math.Mod(t, d)
	if r < 0 {
		r += d
	}
	if r >= d {
		r = 0
	}
	return r
}
