package systems

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/chore/internal/chore"
	"github.com/decker502/chore/pkg/ecs"
)

// ChoreStateStore 角色 chore 状态的持久化接口
//
// 由 game.ChoreSaveManager 实现
type ChoreStateStore interface {
	SaveActor(actorKey string, states []chore.State) error
	LoadActor(actorKey string) ([]chore.State, bool, error)
}

// ChoreStates 导出实体全部 chore 的播放状态 (按配置顺序)
func (s *ChoreSystem) ChoreStates(entity ecs.EntityID) ([]chore.State, error) {
	comp, err := s.costume(entity)
	if err != nil {
		return nil, err
	}
	states := make([]chore.State, len(comp.Chores))
	for i, c := range comp.Chores {
		states[i] = c.State()
	}
	return states, nil
}

// RestoreChoreStates 把状态写回实体服装上同名的 chore
//
// 服装上没有的 chore 名称会被跳过并记录警告; 状态中的片段与当前不同时
// 通过资源管理器重新获取。任一状态恢复失败时继续处理其余状态,
// 返回合并后的错误。
func (s *ChoreSystem) RestoreChoreStates(entity ecs.EntityID, states []chore.State) error {
	comp, err := s.costume(entity)
	if err != nil {
		return err
	}
	r := costumeResolver{s: s, comp: comp}

	var errs []error
	restored := 0
	for _, st := range states {
		i, ok := comp.ChoreIndex[st.Chore]
		if !ok {
			log.Printf("[ChoreSystem] Warning: 服装 %s 没有 chore %q, 跳过存档记录", comp.CostumeID, st.Chore)
			continue
		}
		if err := comp.Chores[i].SetState(st, r); err != nil {
			errs = append(errs, err)
			continue
		}
		restored++
	}
	log.Printf("[ChoreSystem] 实体 %d 恢复 %d/%d 个 chore 状态", entity, restored, len(states))
	return errors.Join(errs...)
}

// SaveCostume 将实体的 chore 状态写入存储
func (s *ChoreSystem) SaveCostume(entity ecs.EntityID, store ChoreStateStore) error {
	comp, err := s.costume(entity)
	if err != nil {
		return err
	}
	states, err := s.ChoreStates(entity)
	if err != nil {
		return err
	}
	if err := store.SaveActor(comp.ActorKey, states); err != nil {
		return fmt.Errorf("save costume %s: %w", comp.CostumeID, err)
	}
	return nil
}

// LoadCostume 从存储恢复实体的 chore 状态
//
// 返回：
//   - bool: 是否找到存档
func (s *ChoreSystem) LoadCostume(entity ecs.EntityID, store ChoreStateStore) (bool, error) {
	comp, err := s.costume(entity)
	if err != nil {
		return false, err
	}
	states, found, err := store.LoadActor(comp.ActorKey)
	if err != nil {
		return false, fmt.Errorf("load costume %s: %w", comp.CostumeID, err)
	}
	if !found {
		return false, nil
	}
	return true, s.RestoreChoreStates(entity, states)
}
