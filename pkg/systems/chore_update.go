package systems

import (
	"fmt"
	"log"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/pkg/components"
	"github.com/decker502/chore/pkg/ecs"
)

// Update 推进所有服装一帧
//
// 参数：
//   - deltaTime: 帧时长 (秒), 通常为 1/TPS
func (s *ChoreSystem) Update(deltaTime float64) {
	s.processChoreCommands()

	for _, id := range ecs.GetEntitiesWith1[*components.CostumeComponent](s.entityManager) {
		comp, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, id)
		if !ok || comp.Skeleton == nil {
			continue
		}
		s.tickCostume(id, comp, deltaTime)
	}
	s.publishPoses()
}

// tickCostume 对单个角色执行一次骨骼 tick
func (s *ChoreSystem) tickCostume(id ecs.EntityID, comp *components.CostumeComponent, dt float64) {
	sk := comp.Skeleton
	sk.BeginTick()
	for _, c := range comp.Chores {
		var fire func(keyframe.Marker)
		if s.markerHandler != nil {
			name := c.Name()
			fire = func(m keyframe.Marker) { s.markerHandler(id, name, m) }
		}
		c.Advance(dt, fire)
		c.Contribute(sk)
	}
	sk.EndTick()
}

// publishPoses 把每副骨骼最新的姿态交给对应的 SkeletonComponent
func (s *ChoreSystem) publishPoses() {
	for _, id := range ecs.GetEntitiesWith2[*components.CostumeComponent, *components.SkeletonComponent](s.entityManager) {
		comp, _ := ecs.GetComponent[*components.CostumeComponent](s.entityManager, id)
		skc, _ := ecs.GetComponent[*components.SkeletonComponent](s.entityManager, id)
		if comp.Skeleton == nil {
			continue
		}
		skc.Pose = comp.Skeleton.Pose()
	}
}

// processChoreCommands 处理所有待执行的 ChoreCommandComponent
//
// 错误处理：
//   - 记录错误日志但不中断处理流程
//   - 即使执行失败也标记 Processed = true（避免无限重试）
func (s *ChoreSystem) processChoreCommands() {
	entities := ecs.GetEntitiesWith1[*components.ChoreCommandComponent](s.entityManager)

	processedCount := 0
	errorCount := 0
	for _, id := range entities {
		cmd, ok := ecs.GetComponent[*components.ChoreCommandComponent](s.entityManager, id)
		if !ok || cmd.Processed {
			continue
		}
		for _, c := range cmd.Commands {
			if err := s.execute(id, c); err != nil {
				log.Printf("[ChoreSystem] 命令执行失败: entity=%d, op=%s, chore=%s, err=%v", id, c.Op, c.Chore, err)
				errorCount++
				continue
			}
			processedCount++
		}
		cmd.Processed = true
	}

	if processedCount > 0 || errorCount > 0 {
		log.Printf("[ChoreSystem] 命令处理完成: 成功=%d, 失败=%d", processedCount, errorCount)
	}
}

// execute 执行单条命令
func (s *ChoreSystem) execute(id ecs.EntityID, c components.ChoreCommand) error {
	switch c.Op {
	case components.ChoreOpPlay:
		return s.PlayChore(id, c.Chore)
	case components.ChoreOpPlayLooping:
		return s.PlayChoreLooping(id, c.Chore)
	case components.ChoreOpStop:
		return s.StopChore(id, c.Chore)
	case components.ChoreOpStopAll:
		return s.StopAllChores(id)
	case components.ChoreOpSetLooping:
		return s.SetChoreLooping(id, c.Chore, c.Looping)
	case components.ChoreOpFadeIn:
		return s.FadeInChore(id, c.Chore, c.FadeMS)
	case components.ChoreOpFadeOut:
		return s.FadeOutChore(id, c.Chore, c.FadeMS)
	case components.ChoreOpComplete:
		return s.CompleteChore(id, c.Chore)
	}
	return fmt.Errorf("invalid chore op %d", c.Op)
}
