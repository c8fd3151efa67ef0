package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene is one screen of the viewer.
type Scene interface {
	// Update advances the scene by deltaTime seconds of wall time.
	Update(deltaTime float64)

	// Draw renders the scene to screen.
	Draw(screen *ebiten.Image)
}

// Saveable 可选接口: 场景在程序退出时保存状态
//
// 调用时机：
//   - 窗口关闭
//   - SceneManager 切换到另一个场景之前
type Saveable interface {
	// SaveOnExit 返回 false 表示保存失败（但程序仍会正常退出）
	SaveOnExit() bool
}
