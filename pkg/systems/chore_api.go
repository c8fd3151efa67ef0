package systems

import (
	"fmt"
	"log"

	"github.com/decker502/chore/internal/chore"
	"github.com/decker502/chore/pkg/components"
	"github.com/decker502/chore/pkg/ecs"
)

// ==================================================================
// Chore 控制 API (Chore Control APIs)
// ==================================================================
//
// 未知的 chore 名称只记录警告并返回 ErrChoreNotFound, 不改变任何状态。

// costume 获取实体的服装组件
func (s *ChoreSystem) costume(entity ecs.EntityID) (*components.CostumeComponent, error) {
	comp, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, entity)
	if !ok {
		log.Printf("[ChoreSystem] Warning: 实体 %d 没有服装", entity)
		return nil, fmt.Errorf("%w: entity %d", ErrNoCostume, entity)
	}
	return comp, nil
}

// lookup 按名称查找 chore
func (s *ChoreSystem) lookup(entity ecs.EntityID, name string) (*chore.Chore, error) {
	comp, err := s.costume(entity)
	if err != nil {
		return nil, err
	}
	i, ok := comp.ChoreIndex[name]
	if !ok {
		log.Printf("[ChoreSystem] Warning: 服装 %s (实体 %d) 没有 chore %q", comp.CostumeID, entity, name)
		return nil, fmt.Errorf("%w: %q on costume %s", ErrChoreNotFound, name, comp.CostumeID)
	}
	return comp.Chores[i], nil
}

// PlayChore 从头播放 chore (不循环)
func (s *ChoreSystem) PlayChore(entity ecs.EntityID, name string) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.Play()
	return nil
}

// PlayChoreLooping 从头循环播放 chore
func (s *ChoreSystem) PlayChoreLooping(entity ecs.EntityID, name string) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.PlayLooping()
	return nil
}

// StopChore 立即停止 chore, 下一帧起不再贡献姿态
func (s *ChoreSystem) StopChore(entity ecs.EntityID, name string) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.Stop()
	return nil
}

// StopAllChores 停止服装上的全部 chore
func (s *ChoreSystem) StopAllChores(entity ecs.EntityID) error {
	comp, err := s.costume(entity)
	if err != nil {
		return err
	}
	for _, c := range comp.Chores {
		c.Stop()
	}
	return nil
}

// SetChoreLooping 修改循环标志, 不影响当前时间
func (s *ChoreSystem) SetChoreLooping(entity ecs.EntityID, name string, looping bool) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.SetLooping(looping)
	return nil
}

// FadeInChore 在 ms 毫秒内把 chore 权重从 0 提到 1; ms < 0 使用默认时长
func (s *ChoreSystem) FadeInChore(entity ecs.EntityID, name string, ms float64) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.FadeIn(s.fadeMS(ms))
	return nil
}

// FadeOutChore 在 ms 毫秒内把 chore 权重降到 0, 结束后自动停止; ms < 0 使用默认时长
func (s *ChoreSystem) FadeOutChore(entity ecs.EntityID, name string, ms float64) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.FadeOut(s.fadeMS(ms))
	return nil
}

func (s *ChoreSystem) fadeMS(ms float64) float64 {
	if ms < 0 {
		return s.engine.DefaultFadeMS
	}
	return ms
}

// CompleteChore 跳到最后一帧并停留, 直到被显式停止
func (s *ChoreSystem) CompleteChore(entity ecs.EntityID, name string) error {
	c, err := s.lookup(entity, name)
	if err != nil {
		return err
	}
	c.SetLastFrame()
	return nil
}

// IsChorePlaying 返回 chore 是否在播放; 未知 chore 返回 false
func (s *ChoreSystem) IsChorePlaying(entity ecs.EntityID, name string) bool {
	c, err := s.lookup(entity, name)
	if err != nil {
		return false
	}
	return c.IsPlaying()
}

// IsChoring 返回是否有 chore 在播放
//
// 参数：
//   - name: chore 名称, 为空时检查全部 chore
//   - excludeLooping: 为 true 时忽略循环播放的 chore
//
// 返回：
//   - 正在播放的 chore ID, 没有则为 -1
//   - bool: 是否有匹配的 chore 在播放
func (s *ChoreSystem) IsChoring(entity ecs.EntityID, name string, excludeLooping bool) (int, bool) {
	comp, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, entity)
	if !ok {
		return -1, false
	}
	if name != "" {
		i, ok := comp.ChoreIndex[name]
		if !ok {
			log.Printf("[ChoreSystem] Warning: 服装 %s (实体 %d) 没有 chore %q", comp.CostumeID, entity, name)
			return -1, false
		}
		return choring(comp.Chores[i], excludeLooping)
	}
	for _, c := range comp.Chores {
		if id, ok := choring(c, excludeLooping); ok {
			return id, true
		}
	}
	return -1, false
}

// IsChoringID 与 IsChoring 相同, 但按 chore ID 查找; id < 0 时检查全部 chore
func (s *ChoreSystem) IsChoringID(entity ecs.EntityID, id int, excludeLooping bool) (int, bool) {
	comp, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, entity)
	if !ok {
		return -1, false
	}
	if id < 0 {
		return s.IsChoring(entity, "", excludeLooping)
	}
	for _, c := range comp.Chores {
		if c.ID() == id {
			return choring(c, excludeLooping)
		}
	}
	log.Printf("[ChoreSystem] Warning: 服装 %s (实体 %d) 没有 chore #%d", comp.CostumeID, entity, id)
	return -1, false
}

func choring(c *chore.Chore, excludeLooping bool) (int, bool) {
	if !c.IsPlaying() || (excludeLooping && c.Looping()) {
		return -1, false
	}
	return c.ID(), true
}

// Chores 返回实体服装上的 chore 列表 (按配置顺序)
func (s *ChoreSystem) Chores(entity ecs.EntityID) []*chore.Chore {
	comp, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, entity)
	if !ok {
		return nil
	}
	return comp.Chores
}
