// Package snapshot rasterizes a skeleton pose into an image, for offline
// inspection of clips without opening the viewer.
//
// The pose is drawn at Supersample times the output size and scaled down
// with a Catmull-Rom filter.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/decker502/chore/internal/chore"
	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/mathutil"
	"github.com/decker502/chore/internal/skeleton"
)

// ErrUnknownFormat is returned for an output extension other than .png or .webp.
var ErrUnknownFormat = errors.New("snapshot: unknown image format")

// Options controls framing and colors.
type Options struct {
	Width, Height int
	Supersample   int

	// Yaw rotates the view about the vertical (z) axis, in degrees.
	Yaw float64

	// Margin is the fraction of the image left empty around the pose.
	Margin float64

	Background color.RGBA
	Bone       color.RGBA
	Joint      color.RGBA
	Root       color.RGBA

	// BoneWidth and JointSize are in output pixels.
	BoneWidth float64
	JointSize float64
}

// DefaultOptions returns a 512×512 front-ish view matching the viewer colors.
func DefaultOptions() Options {
	return Options{
		Width:       512,
		Height:      512,
		Supersample: 2,
		Yaw:         30,
		Margin:      0.1,
		Background:  color.RGBA{R: 32, G: 36, B: 44, A: 255},
		Bone:        color.RGBA{R: 230, G: 220, B: 190, A: 255},
		Joint:       color.RGBA{R: 240, G: 120, B: 80, A: 255},
		Root:        color.RGBA{R: 120, G: 200, B: 255, A: 255},
		BoneWidth:   3,
		JointSize:   6,
	}
}

// PoseAt evaluates clip at frame on a fresh skeleton of h. A nil clip gives
// the rest pose.
func PoseAt(h *skeleton.Hierarchy, clip *keyframe.Clip, frame float64) (*skeleton.Pose, error) {
	sk := skeleton.New(h)
	sk.BeginTick()
	if clip != nil {
		if err := sk.Validate(clip); err != nil {
			return nil, err
		}
		c := chore.New(0, clip.Name, clip, 0)
		c.Play()
		c.SetTime(frame)
		c.Contribute(sk)
	}
	return sk.EndTick(), nil
}

// Render draws every bone of pose as a segment from its parent's origin to
// its own, plus a square per joint. The pose is fitted to the image.
func Render(h *skeleton.Hierarchy, pose *skeleton.Pose, o Options) *image.RGBA {
	ss := max(o.Supersample, 1)
	w, hgt := o.Width*ss, o.Height*ss

	big := image.NewRGBA(image.Rect(0, 0, w, hgt))
	stddraw.Draw(big, big.Bounds(), image.NewUniform(o.Background), image.Point{}, stddraw.Src)

	pts := fit(project(pose.World, o.Yaw), float64(w), float64(hgt), o.Margin)
	z := vector.NewRasterizer(w, hgt)
	fill := func(c color.RGBA) {
		z.Draw(big, big.Bounds(), image.NewUniform(c), image.Point{})
	}

	for i := 0; i < h.Len(); i++ {
		if p := h.Bone(i).Parent; p >= 0 {
			z.Reset(w, hgt)
			segment(z, pts[p], pts[i], o.BoneWidth*float64(ss))
			fill(o.Bone)
		}
	}
	for i := 0; i < h.Len(); i++ {
		z.Reset(w, hgt)
		square(z, pts[i], o.JointSize*float64(ss))
		if h.Bone(i).Parent < 0 {
			fill(o.Root)
		} else {
			fill(o.Joint)
		}
	}

	if ss == 1 {
		return big
	}
	out := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), draw.Src, nil)
	return out
}

type point struct{ x, y float64 }

// project drops depth after rotating by yaw; screen y grows downwards.
func project(world []mathutil.Transform, yaw float64) []point {
	s, c := math.Sincos(mathutil.Deg2Rad(yaw))
	pts := make([]point, len(world))
	for i, t := range world {
		pts[i] = point{t.Pos[0]*c + t.Pos[1]*s, -t.Pos[2]}
	}
	return pts
}

// fit scales and centers pts into a w×h box, keeping the aspect ratio.
func fit(pts []point, w, h, margin float64) []point {
	if len(pts) == 0 {
		return pts
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	const eps = 1e-9
	scale := 1.0
	if dx, dy := maxX-minX, maxY-minY; dx > eps || dy > eps {
		avail := 1 - 2*margin
		scale = math.Min(w*avail/math.Max(dx, eps), h*avail/math.Max(dy, eps))
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	out := make([]point, len(pts))
	for i, p := range pts {
		out[i] = point{w/2 + (p.x-cx)*scale, h/2 + (p.y-cy)*scale}
	}
	return out
}

// segment adds a quad of the given width around a→b.
func segment(z *vector.Rasterizer, a, b point, width float64) {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	z.MoveTo(float32(a.x+nx), float32(a.y+ny))
	z.LineTo(float32(b.x+nx), float32(b.y+ny))
	z.LineTo(float32(b.x-nx), float32(b.y-ny))
	z.LineTo(float32(a.x-nx), float32(a.y-ny))
	z.ClosePath()
}

func square(z *vector.Rasterizer, c point, size float64) {
	r := size / 2
	z.MoveTo(float32(c.x-r), float32(c.y-r))
	z.LineTo(float32(c.x+r), float32(c.y-r))
	z.LineTo(float32(c.x+r), float32(c.y+r))
	z.LineTo(float32(c.x-r), float32(c.y+r))
	z.ClosePath()
}

// FormatFromPath returns "png" or "webp" from the file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".webp":
		return "webp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Encode writes img in the given format ("png" or "webp", lossless).
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "webp":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("webp encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
