package scenes

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/mathutil"
	"github.com/decker502/chore/pkg/components"
	"github.com/decker502/chore/pkg/config"
	"github.com/decker502/chore/pkg/ecs"
	"github.com/decker502/chore/pkg/embedded"
	"github.com/decker502/chore/pkg/game"
)

// viewerFixture 使用仓库中的演示资源
type viewerFixture struct {
	rm       *game.ResourceManager
	sm       *game.SceneManager
	cm       *config.CostumeConfigManager
	settings *game.SettingsManager
}

func newViewerFixture(t *testing.T) *viewerFixture {
	t.Helper()
	root := os.DirFS("../..")
	fsys := embedded.New(root, root)

	engine, err := config.LoadEngineConfig(fsys, "data/engine.yaml")
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	rm := game.NewResourceManager(fsys)
	if err := rm.LoadResourceConfig("assets/config/resources.yaml"); err != nil {
		t.Fatalf("LoadResourceConfig: %v", err)
	}
	cm, err := config.NewCostumeConfigManager(fsys, "data/costumes", engine)
	if err != nil {
		t.Fatalf("NewCostumeConfigManager: %v", err)
	}

	f := &viewerFixture{rm: rm, sm: game.NewSceneManager(), cm: cm, settings: game.NewSettingsManager(nil)}
	saves := game.NewChoreSaveManager(nil)
	f.sm.SetSceneFactory(func(id string) (game.Scene, error) {
		return NewViewerScene(rm, f.sm, cm, saves, f.settings, nil, id)
	})
	return f
}

func (f *viewerFixture) open(t *testing.T, id string) *ViewerScene {
	t.Helper()
	s, err := NewViewerScene(f.rm, f.sm, f.cm, game.NewChoreSaveManager(nil), f.settings, game.NewAudioManager(nil, f.settings), id)
	if err != nil {
		t.Fatalf("NewViewerScene(%s): %v", id, err)
	}
	return s
}

func (s *ViewerScene) poseTick(t *testing.T) uint64 {
	t.Helper()
	skc, ok := ecs.GetComponent[*components.SkeletonComponent](s.entityManager, s.actor)
	if !ok {
		t.Fatal("missing SkeletonComponent")
	}
	return skc.Pose.Tick
}

func TestViewerScene_DemoCostume(t *testing.T) {
	f := newViewerFixture(t)
	s := f.open(t, "humanoid")

	chores := s.choreSystem.Chores(s.actor)
	if len(chores) != 4 {
		t.Fatalf("got %d chores, want all 4 demo chores", len(chores))
	}
	if !s.choreSystem.IsChorePlaying(s.actor, "idle") {
		t.Error("idle should autoplay")
	}
	if f.settings.GetSettings().LastCostume != "humanoid" {
		t.Errorf("LastCostume = %q", f.settings.GetSettings().LastCostume)
	}

	for i := 0; i < 10; i++ {
		s.Update(1.0 / 60)
	}
	if got := s.poseTick(t); got != 10 {
		t.Errorf("pose tick = %d, want 10", got)
	}

	s.paused = true
	s.Update(1.0 / 60)
	if got := s.poseTick(t); got != 10 {
		t.Errorf("paused scene advanced to tick %d", got)
	}
}

func TestViewerScene_EnqueueMerges(t *testing.T) {
	s := newViewerFixture(t).open(t, "humanoid")

	s.enqueue(components.ChoreCommand{Op: components.ChoreOpPlayLooping, Chore: "walk"})
	s.enqueue(components.ChoreCommand{Op: components.ChoreOpPlay, Chore: "wave"})
	s.Update(1.0 / 60)

	for _, name := range []string{"walk", "wave"} {
		if !s.choreSystem.IsChorePlaying(s.actor, name) {
			t.Errorf("%s should be playing", name)
		}
	}

	// 已处理的命令组件被替换而不是追加
	s.enqueue(components.ChoreCommand{Op: components.ChoreOpStopAll})
	cmd, _ := ecs.GetComponent[*components.ChoreCommandComponent](s.entityManager, s.actor)
	if len(cmd.Commands) != 1 || cmd.Processed {
		t.Errorf("commands = %+v, processed = %v", cmd.Commands, cmd.Processed)
	}
	s.Update(1.0 / 60)
	if _, ok := s.choreSystem.IsChoring(s.actor, "", false); ok {
		t.Error("stop all left a chore playing")
	}
}

func TestViewerScene_WalkMarkers(t *testing.T) {
	s := newViewerFixture(t).open(t, "humanoid")
	_ = s.choreSystem.PlayChoreLooping(s.actor, "walk")

	// walk 40 帧 @ 20 fps; 130 tick 越过帧 0、20 和回绕后的帧 0
	for i := 0; i < 130; i++ {
		s.Update(1.0 / 60)
	}
	if len(s.markerLog) != 3 {
		t.Fatalf("marker log = %q, want 3 entries", s.markerLog)
	}
	for i, want := range []string{"value 1", "value 2", "value 1"} {
		if !strings.Contains(s.markerLog[i], "walk") || !strings.HasSuffix(s.markerLog[i], want) {
			t.Errorf("marker %d = %q, want walk ... %s", i, s.markerLog[i], want)
		}
	}
}

func TestViewerScene_MarkerLogBounded(t *testing.T) {
	s := newViewerFixture(t).open(t, "humanoid")
	for i := 0; i < maxMarkerLines+4; i++ {
		s.onMarker(s.actor, "walk", keyframeMarker(i))
	}
	if len(s.markerLog) != maxMarkerLines {
		t.Errorf("marker log has %d lines, want %d", len(s.markerLog), maxMarkerLines)
	}
}

func TestViewerScene_NextCostume(t *testing.T) {
	f := newViewerFixture(t)
	if err := f.sm.LoadCostume("humanoid"); err != nil {
		t.Fatalf("LoadCostume: %v", err)
	}
	first := f.sm.GetCurrentScene().(*ViewerScene)

	first.nextCostume()
	if f.sm.CurrentCostume() != "humanoid_chatty" {
		t.Fatalf("current costume = %q, want humanoid_chatty", f.sm.CurrentCostume())
	}
	if ecs.HasComponent[*components.CostumeComponent](first.entityManager, first.actor) {
		t.Error("previous scene should release its costume")
	}
	if got := f.rm.ClipRefs("CLIP_IDLE"); got != 0 {
		t.Errorf("idle refs = %d after switching away, want 0", got)
	}
	if got := f.rm.ClipRefs("CLIP_WALK"); got != 1 {
		t.Errorf("walk refs = %d, want 1 (held by the new costume)", got)
	}
}

func TestLoadingScene_SwitchesWhenDone(t *testing.T) {
	f := newViewerFixture(t)
	ls := NewLoadingScene(f.rm, f.sm, "humanoid")
	f.sm.SwitchTo(ls)

	<-ls.done
	if ls.Progress() != 1 {
		t.Errorf("progress = %v, want 1", ls.Progress())
	}
	if len(f.rm.CachedClips()) != 4 {
		t.Errorf("cached clips = %v, want all 4 demo clips", f.rm.CachedClips())
	}

	f.sm.Update(1.0 / 60)
	if _, ok := f.sm.GetCurrentScene().(*ViewerScene); !ok {
		t.Fatalf("current scene is %T, want *ViewerScene", f.sm.GetCurrentScene())
	}
}

func TestLoadingScene_BadCostumeStays(t *testing.T) {
	f := newViewerFixture(t)
	ls := NewLoadingScene(f.rm, f.sm, "robot")
	f.sm.SwitchTo(ls)
	<-ls.done

	f.sm.Update(1.0 / 60)
	if f.sm.GetCurrentScene() != ls || ls.err == nil {
		t.Error("loading scene should stay and report the error")
	}
}

func TestViewProjection(t *testing.T) {
	const scale = 100
	tests := []struct {
		name   string
		yaw    float64
		v      mathutil.Vec3
		dx, dy float64
	}{
		{"front x", 0, mathutil.Vec3{1, 0, 0}, 100, 0},
		{"front hides depth", 0, mathutil.Vec3{0, 1, 0}, 0, 0},
		{"side shows depth", 90, mathutil.Vec3{0, 1, 0}, 100, 0},
		{"z up", 45, mathutil.Vec3{0, 0, 2}, 0, -200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newViewProjection(tt.yaw, scale)
			x, y := p.project(tt.v)
			if math.Abs(float64(x)-(ScreenWidth/2+tt.dx)) > 1e-3 || math.Abs(float64(y)-(groundY+tt.dy)) > 1e-3 {
				t.Errorf("project(%v) = (%v, %v), want offset (%v, %v)", tt.v, x, y, tt.dx, tt.dy)
			}
		})
	}
}

func TestStatusText(t *testing.T) {
	s := newViewerFixture(t).open(t, "humanoid")
	s.Update(1.0 / 60)
	text := s.statusText()
	for _, want := range []string{"costume humanoid", ">[1] idle", "loop", "[4] nod"} {
		if !strings.Contains(text, want) {
			t.Errorf("status text missing %q:\n%s", want, text)
		}
	}
}

func keyframeMarker(i int) keyframe.Marker {
	return keyframe.Marker{Frame: float64(i), Value: uint32(i)}
}
