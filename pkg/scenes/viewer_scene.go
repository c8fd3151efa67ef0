package scenes

import (
	"fmt"
	"log"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/pkg/components"
	"github.com/decker502/chore/pkg/config"
	"github.com/decker502/chore/pkg/ecs"
	"github.com/decker502/chore/pkg/game"
	"github.com/decker502/chore/pkg/systems"
)

// maxMarkerLines 状态栏中保留的最近标记事件条数
const maxMarkerLines = 6

// ViewerScene 单个角色的 chore 查看场景
//
// 场景拥有自己的 ECS 世界: 一个带 CostumeComponent 的角色实体,
// 键盘输入转换为 ChoreCommandComponent, 由 ChoreSystem 在下一次
// Update 中执行。
type ViewerScene struct {
	resourceManager *game.ResourceManager
	sceneManager    *game.SceneManager
	configManager   *config.CostumeConfigManager
	saveManager     *game.ChoreSaveManager
	settingsManager *game.SettingsManager
	audioManager    *game.AudioManager

	entityManager *ecs.EntityManager
	choreSystem   *systems.ChoreSystem

	actor     ecs.EntityID
	costumeID string

	// 界面状态
	selected   int  // 当前选中的 chore 下标 (CostumeComponent.Chores)
	paused     bool // 暂停模拟
	simTime    float64
	markerLog  []string
	statusLine string
}

// NewViewerScene 创建查看场景并装配服装
//
// 参数：
//   - rm: 资源管理器
//   - sm: 场景管理器（用于切换服装）
//   - cm: 服装配置管理器
//   - saves: chore 存档管理器（降级模式下不读写存档）
//   - settings: 查看器设置
//   - audio: 标记提示音（可为 nil）
//   - costumeID: 要查看的服装
func NewViewerScene(
	rm *game.ResourceManager,
	sm *game.SceneManager,
	cm *config.CostumeConfigManager,
	saves *game.ChoreSaveManager,
	settings *game.SettingsManager,
	audio *game.AudioManager,
	costumeID string,
) (*ViewerScene, error) {
	em := ecs.NewEntityManager()
	s := &ViewerScene{
		resourceManager: rm,
		sceneManager:    sm,
		configManager:   cm,
		saveManager:     saves,
		settingsManager: settings,
		audioManager:    audio,
		entityManager:   em,
		choreSystem:     systems.NewChoreSystem(em, cm, rm),
		costumeID:       costumeID,
	}
	s.choreSystem.SetMarkerHandler(s.onMarker)

	s.actor = em.CreateEntity()
	if err := s.choreSystem.BuildCostume(s.actor, costumeID); err != nil {
		em.DestroyEntity(s.actor)
		return nil, fmt.Errorf("build costume %s: %w", costumeID, err)
	}

	if saves != nil && saves.Enabled() {
		found, err := s.choreSystem.LoadCostume(s.actor, saves)
		switch {
		case err != nil:
			log.Printf("[ViewerScene] Warning: 恢复 %s 的 chore 状态失败: %v", costumeID, err)
		case found:
			s.setStatus("已恢复上次的 chore 状态")
		}
	}
	if settings != nil {
		settings.SetLastCostume(costumeID)
	}

	log.Printf("[ViewerScene] 查看服装 %s (实体 %d)", costumeID, s.actor)
	return s, nil
}

// Update 处理输入并推进模拟
func (s *ViewerScene) Update(deltaTime float64) {
	s.handleInput()
	if s.paused {
		return
	}
	dt := deltaTime * s.settingsManager.GetSettings().TimeScale
	s.simTime += dt
	s.choreSystem.Update(dt)
}

// SaveOnExit 实现 game.Saveable: 保存 chore 状态和查看器设置
func (s *ViewerScene) SaveOnExit() bool {
	ok := true
	if s.saveManager != nil && s.saveManager.Enabled() {
		if err := s.choreSystem.SaveCostume(s.actor, s.saveManager); err != nil {
			log.Printf("[ViewerScene] Warning: 保存 chore 状态失败: %v", err)
			ok = false
		}
	}
	if err := s.settingsManager.Save(); err != nil {
		log.Printf("[ViewerScene] Warning: 保存设置失败: %v", err)
		ok = false
	}
	return ok
}

// Release 释放角色的服装, 让资源管理器可以回收片段
func (s *ViewerScene) Release() {
	s.choreSystem.ReleaseCostume(s.actor)
	s.entityManager.DestroyEntity(s.actor)
	s.entityManager.RemoveMarkedEntities()
}

// onMarker 记录标记事件并播放提示音
func (s *ViewerScene) onMarker(entity ecs.EntityID, choreName string, m keyframe.Marker) {
	s.audioManager.PlayMarkerCue(m.Value)

	line := fmt.Sprintf("%6.2fs  %-6s frame %-4g value %d", s.simTime, choreName, m.Frame, m.Value)
	s.markerLog = append(s.markerLog, line)
	if len(s.markerLog) > maxMarkerLines {
		s.markerLog = s.markerLog[len(s.markerLog)-maxMarkerLines:]
	}
}

// enqueue 把命令追加到角色的命令组件, 下一次 ChoreSystem.Update 执行
func (s *ViewerScene) enqueue(cmds ...components.ChoreCommand) {
	cmd, ok := ecs.GetComponent[*components.ChoreCommandComponent](s.entityManager, s.actor)
	if ok && !cmd.Processed {
		cmd.Commands = append(cmd.Commands, cmds...)
		return
	}
	ecs.AddComponent(s.entityManager, s.actor, &components.ChoreCommandComponent{
		Commands:  cmds,
		Timestamp: s.simTime,
	})
}

func (s *ViewerScene) setStatus(format string, args ...any) {
	s.statusLine = fmt.Sprintf(format, args...)
}
