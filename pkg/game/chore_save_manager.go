package game

import (
	"fmt"
	"log"

	"github.com/decker502/chore/internal/chore"
	"github.com/quasilyte/gdata/v2"
)

// 存储路径常量: 每个角色一个属性, 属性名为角色存档键
const choresObject = "chores"

// ChoreSaveManager chore 播放状态存档管理器
//
// 每个角色的全部 chore 状态编码为定长记录序列 (chore.MarshalStates),
// 片段按名称保存, 读档时通过资源管理器重新解析。
type ChoreSaveManager struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式，存档为空操作）
}

// NewChoreSaveManager 创建存档管理器
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式）
func NewChoreSaveManager(gdataManager *gdata.Manager) *ChoreSaveManager {
	if gdataManager == nil {
		log.Printf("[ChoreSaveManager] Warning: no gdata manager, chore state will not persist")
	}
	return &ChoreSaveManager{gdataManager: gdataManager}
}

// Enabled 返回是否可以持久化
func (m *ChoreSaveManager) Enabled() bool {
	return m.gdataManager != nil
}

// SaveActor 保存一个角色的全部 chore 状态
func (m *ChoreSaveManager) SaveActor(actorKey string, states []chore.State) error {
	if m.gdataManager == nil {
		return nil
	}
	if actorKey == "" {
		return fmt.Errorf("empty actor key")
	}
	data, err := chore.MarshalStates(states)
	if err != nil {
		return fmt.Errorf("failed to encode chores of %s: %w", actorKey, err)
	}
	if err := m.gdataManager.SaveObjectProp(choresObject, actorKey, data); err != nil {
		return fmt.Errorf("failed to save chores of %s: %w", actorKey, err)
	}
	log.Printf("[ChoreSaveManager] Saved %d chores for %s", len(states), actorKey)
	return nil
}

// LoadActor 读取一个角色的 chore 状态
//
// 返回：
//   - states: 已保存的状态
//   - found: 是否存在存档（降级模式下总是 false）
//   - error: 存档存在但无法读取或解码
func (m *ChoreSaveManager) LoadActor(actorKey string) ([]chore.State, bool, error) {
	if m.gdataManager == nil {
		return nil, false, nil
	}
	if !m.gdataManager.ObjectPropExists(choresObject, actorKey) {
		return nil, false, nil
	}
	data, err := m.gdataManager.LoadObjectProp(choresObject, actorKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load chores of %s: %w", actorKey, err)
	}
	states, err := chore.UnmarshalStates(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode chores of %s: %w", actorKey, err)
	}
	// 空记录视为已清除
	if len(states) == 0 {
		return nil, false, nil
	}
	return states, true, nil
}

// ClearActor 清除一个角色的存档
func (m *ChoreSaveManager) ClearActor(actorKey string) error {
	if m.gdataManager == nil || !m.gdataManager.ObjectPropExists(choresObject, actorKey) {
		return nil
	}
	return m.SaveActor(actorKey, nil)
}
