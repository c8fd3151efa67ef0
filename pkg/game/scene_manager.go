package game

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// SceneFactory 场景工厂函数类型
// 为指定服装创建查看场景，避免 game 包依赖 scenes 包
type SceneFactory func(costumeID string) (Scene, error)

// SceneManager controls which scene is active. Only the active scene's
// Update and Draw are called.
type SceneManager struct {
	currentScene Scene
	currentID    string
	sceneFactory SceneFactory
}

// NewSceneManager creates a SceneManager with no active scene.
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene. The previous scene is saved first if
// it implements Saveable.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if sm.currentScene != nil && sm.currentScene != scene {
		sm.SaveCurrent()
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景，没有则返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// CurrentCostume 返回当前场景对应的服装 ID
func (sm *SceneManager) CurrentCostume() string {
	return sm.currentID
}

// LoadCostume 通过工厂创建指定服装的场景并切换过去
//
// 创建失败时保留当前场景
func (sm *SceneManager) LoadCostume(costumeID string) error {
	log.Printf("[SceneManager] 加载服装: %s", costumeID)
	if sm.sceneFactory == nil {
		return fmt.Errorf("scene factory not set")
	}
	scene, err := sm.sceneFactory(costumeID)
	if err != nil {
		log.Printf("[SceneManager] 错误: 无法创建服装场景 %s: %v", costumeID, err)
		return fmt.Errorf("load costume %s: %w", costumeID, err)
	}
	sm.SwitchTo(scene)
	sm.currentID = costumeID
	log.Printf("[SceneManager] 成功切换到服装: %s", costumeID)
	return nil
}

// SaveCurrent 保存当前场景的状态（如果场景支持）
//
// 返回：
//   - bool: 保存成功或无需保存时为 true
func (sm *SceneManager) SaveCurrent() bool {
	s, ok := sm.currentScene.(Saveable)
	if !ok {
		return true
	}
	return s.SaveOnExit()
}

// Update updates the active scene, if any.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the active scene, if any.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
