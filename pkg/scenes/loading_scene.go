package scenes

import (
	"fmt"
	"image/color"
	"log"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/chore/pkg/game"
)

// 进度条布局
const (
	progressBarWidth  = 480
	progressBarHeight = 16
)

var (
	progressBackColor = color.RGBA{R: 60, G: 64, B: 72, A: 255}
	progressFillColor = color.RGBA{R: 120, G: 200, B: 120, A: 255}
)

// LoadingScene 在后台预加载全部资源组, 完成后进入查看场景
//
// 资源组在单独的 goroutine 中加载; ResourceManager 内部加锁,
// 场景只通过原子计数读取进度。
type LoadingScene struct {
	resourceManager *game.ResourceManager
	sceneManager    *game.SceneManager
	costumeID       string

	groups []string
	loaded atomic.Int32
	failed atomic.Int32
	done   chan struct{}

	switched bool
	err      error
}

// NewLoadingScene 创建加载场景并立即开始后台加载
//
// 参数：
//   - rm: 资源管理器（必须已调用 LoadResourceConfig）
//   - sm: 场景管理器
//   - costumeID: 加载完成后查看的服装
func NewLoadingScene(rm *game.ResourceManager, sm *game.SceneManager, costumeID string) *LoadingScene {
	s := &LoadingScene{
		resourceManager: rm,
		sceneManager:    sm,
		costumeID:       costumeID,
		groups:          rm.GroupNames(),
		done:            make(chan struct{}),
	}
	go s.preload()
	return s
}

// preload 逐个加载资源组; 单个组失败只记录警告
func (s *LoadingScene) preload() {
	defer close(s.done)
	for _, g := range s.groups {
		if err := s.resourceManager.LoadResourceGroup(g); err != nil {
			log.Printf("[LoadingScene] Warning: 资源组 %s 加载失败: %v", g, err)
			s.failed.Add(1)
		}
		s.loaded.Add(1)
	}
	log.Printf("[LoadingScene] 预加载完成: %d 个资源组, %d 个失败", len(s.groups), s.failed.Load())
}

// Progress 返回加载进度 (0.0 - 1.0)
func (s *LoadingScene) Progress() float64 {
	if len(s.groups) == 0 {
		return 1
	}
	return float64(s.loaded.Load()) / float64(len(s.groups))
}

// Done 返回后台加载是否结束
func (s *LoadingScene) Done() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Update 加载结束后切换到查看场景
func (s *LoadingScene) Update(deltaTime float64) {
	if s.switched || !s.Done() {
		return
	}
	s.switched = true
	if err := s.sceneManager.LoadCostume(s.costumeID); err != nil {
		// 停留在加载场景显示错误
		s.err = err
	}
}

// Draw 绘制进度条
func (s *LoadingScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	x := float32(ScreenWidth-progressBarWidth) / 2
	y := float32(ScreenHeight) / 2
	vector.DrawFilledRect(screen, x, y, progressBarWidth, progressBarHeight, progressBackColor, false)
	vector.DrawFilledRect(screen, x, y, float32(progressBarWidth*s.Progress()), progressBarHeight, progressFillColor, false)

	msg := fmt.Sprintf("loading %d/%d resource groups", s.loaded.Load(), len(s.groups))
	if s.err != nil {
		msg = fmt.Sprintf("failed to open costume %s: %v", s.costumeID, s.err)
	}
	ebitenutil.DebugPrintAt(screen, msg, int(x), int(y)+progressBarHeight+8)
}
