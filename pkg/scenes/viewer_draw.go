package scenes

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/chore/internal/chore"
	"github.com/decker502/chore/internal/mathutil"
	"github.com/decker502/chore/pkg/components"
	"github.com/decker502/chore/pkg/ecs"
)

// 查看器逻辑分辨率
const (
	ScreenWidth  = 960
	ScreenHeight = 640
)

// 地面线所在的屏幕高度 (世界坐标 z=0)
const groundY = ScreenHeight - 80

var (
	backgroundColor = color.RGBA{R: 32, G: 36, B: 44, A: 255}
	groundColor     = color.RGBA{R: 70, G: 80, B: 90, A: 255}
	boneColor       = color.RGBA{R: 230, G: 220, B: 190, A: 255}
	jointColor      = color.RGBA{R: 240, G: 120, B: 80, A: 255}
	rootColor       = color.RGBA{R: 120, G: 200, B: 255, A: 255}
)

// viewProjection 把世界坐标 (z 向上) 投影到屏幕
//
// 观察方向绕 z 轴旋转 yaw 度, 正交投影
type viewProjection struct {
	cos, sin float64
	scale    float64
	cx, cy   float64
}

func newViewProjection(yawDeg, pixelsPerMeter float64) viewProjection {
	s, c := math.Sincos(mathutil.Deg2Rad(yawDeg))
	return viewProjection{cos: c, sin: s, scale: pixelsPerMeter, cx: ScreenWidth / 2, cy: groundY}
}

func (p viewProjection) project(v mathutil.Vec3) (float32, float32) {
	x := v[0]*p.cos + v[1]*p.sin
	return float32(p.cx + x*p.scale), float32(p.cy - v[2]*p.scale)
}

// Draw 绘制地面、骨骼和状态信息
func (s *ViewerScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	vector.StrokeLine(screen, 40, groundY, ScreenWidth-40, groundY, 1, groundColor, true)

	s.drawSkeleton(screen)
	ebitenutil.DebugPrint(screen, s.statusText())
}

// drawSkeleton 绘制已发布的姿态: 每根骨骼从父骨骼原点连线到自身原点
func (s *ViewerScene) drawSkeleton(screen *ebiten.Image) {
	costume, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, s.actor)
	if !ok {
		return
	}
	skc, ok := ecs.GetComponent[*components.SkeletonComponent](s.entityManager, s.actor)
	if !ok || skc.Pose == nil {
		return
	}
	settings := s.settingsManager.GetSettings()
	proj := newViewProjection(settings.ViewYaw, settings.Zoom*skc.Scale)

	h := costume.Skeleton.Hierarchy()
	world := skc.Pose.World
	for i := 0; i < h.Len(); i++ {
		b := h.Bone(i)
		x, y := proj.project(world[i].Pos)
		if b.Parent >= 0 {
			px, py := proj.project(world[b.Parent].Pos)
			vector.StrokeLine(screen, px, py, x, y, 3, boneColor, true)
		}
		clr := color.Color(jointColor)
		if b.Parent < 0 {
			clr = rootColor
		}
		vector.DrawFilledRect(screen, x-3, y-3, 6, 6, clr, true)
		if settings.ShowBoneNames {
			ebitenutil.DebugPrintAt(screen, b.Name, int(x)+6, int(y)-8)
		}
	}
}

// statusText 状态栏: chore 列表、模拟参数和最近的标记事件
func (s *ViewerScene) statusText() string {
	var b strings.Builder
	settings := s.settingsManager.GetSettings()

	state := "running"
	if s.paused {
		state = "paused"
	}
	fmt.Fprintf(&b, "costume %s  t=%.2fs  x%.2f  %s  yaw %.0f\n",
		s.costumeID, s.simTime, settings.TimeScale, state, settings.ViewYaw)

	for i, c := range s.choreSystem.Chores(s.actor) {
		cursor := " "
		if i == s.selected {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s[%d] %s\n", cursor, i+1, choreLine(c))
	}

	if len(s.markerLog) > 0 {
		b.WriteString("\nmarkers:\n")
		for _, line := range s.markerLog {
			b.WriteString("  " + line + "\n")
		}
	}
	if s.statusLine != "" {
		b.WriteString("\n" + s.statusLine + "\n")
	}
	b.WriteString("\n1-9 play  L loop  I/F fade  C complete  S stop all  Space pause\n")
	b.WriteString("Up/Down speed  Left/Right rotate  N names  -/= cue volume  Tab costume  F5/F9 save/load")
	return b.String()
}

// choreLine 单个 chore 的状态描述
func choreLine(c *chore.Chore) string {
	flags := "-"
	if c.IsPlaying() {
		flags = "play"
		if c.HoldsLastFrame() {
			flags = "hold"
		}
	}
	if c.Looping() {
		flags += " loop"
	}
	if m := c.FadeMode(); m != chore.FadeModeNone {
		flags += " fade-" + m.String()
	}
	return fmt.Sprintf("%-8s prio %d  %5.1f/%-4.0f  w %.2f  %s",
		c.Name(), c.Priority(), c.Time(), c.Duration(), c.Weight(), flags)
}
