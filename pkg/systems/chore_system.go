package systems

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/chore/internal/chore"
	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/skeleton"
	"github.com/decker502/chore/pkg/components"
	"github.com/decker502/chore/pkg/config"
	"github.com/decker502/chore/pkg/ecs"
)

var (
	// ErrChoreNotFound 请求的 chore 不在当前服装上
	ErrChoreNotFound = errors.New("chore not found")
	// ErrNoCostume 实体没有 CostumeComponent
	ErrNoCostume = errors.New("entity has no costume")
)

// ChoreResourceLoader 定义 ChoreSystem 所需的资源加载接口
//
// 由 game.ResourceManager 实现, 通过接口注入避免循环依赖
type ChoreResourceLoader interface {
	// LoadSkeleton 获取共享的骨骼层级
	LoadSkeleton(path string) (*skeleton.Hierarchy, error)
	// AcquireClip 获取片段并增加引用计数
	AcquireClip(path string) (*keyframe.Clip, error)
	// ReleaseClip 释放 AcquireClip 获取的引用
	ReleaseClip(path string)
}

// MarkerHandler 接收 chore 播放时越过的标记事件
//
// 角色实体 ID 显式传入, 回调中无需任何 "当前角色" 全局状态
type MarkerHandler func(entity ecs.EntityID, choreName string, marker keyframe.Marker)

// ChoreSystem 是 chore 驱动系统
//
// 每帧对每个带 CostumeComponent 的实体:
//
//	BeginTick → 每个 chore Advance + Contribute → EndTick → 发布姿态
//
// 同一骨骼上同优先级的贡献按权重平均, 高优先级覆盖低优先级,
// 与 chore 的遍历顺序无关。
type ChoreSystem struct {
	entityManager  *ecs.EntityManager
	configManager  *config.CostumeConfigManager
	resourceLoader ChoreResourceLoader
	engine         *config.EngineConfig

	markerHandler MarkerHandler
}

// NewChoreSystem 创建 chore 系统
//
// 参数：
//   - em: 实体管理器
//   - cm: 服装配置管理器
//   - loader: 资源加载器（通常是 game.ResourceManager）
func NewChoreSystem(em *ecs.EntityManager, cm *config.CostumeConfigManager, loader ChoreResourceLoader) *ChoreSystem {
	engine := config.DefaultEngineConfig()
	if cm != nil && cm.Engine() != nil {
		engine = cm.Engine()
	}
	return &ChoreSystem{
		entityManager:  em,
		configManager:  cm,
		resourceLoader: loader,
		engine:         engine,
	}
}

// SetMarkerHandler 设置标记事件回调, nil 表示忽略标记
func (s *ChoreSystem) SetMarkerHandler(h MarkerHandler) {
	s.markerHandler = h
}

// Engine 返回引擎配置
func (s *ChoreSystem) Engine() *config.EngineConfig {
	return s.engine
}

// BuildCostume 为实体装配服装: 加载骨骼和全部 chore 片段
//
// 片段加载或校验失败的 chore 会被跳过并记录警告, 角色只是缺少该 chore;
// 骨骼加载失败则整个服装装配失败。实体已有服装时先释放旧服装。
func (s *ChoreSystem) BuildCostume(entity ecs.EntityID, costumeID string) error {
	if !s.entityManager.IsAlive(entity) {
		return fmt.Errorf("entity %d does not exist", entity)
	}
	cfg, err := s.configManager.GetCostume(costumeID)
	if err != nil {
		return err
	}
	h, err := s.resourceLoader.LoadSkeleton(cfg.Skeleton)
	if err != nil {
		return fmt.Errorf("costume %s: %w", costumeID, err)
	}
	if h.Len() == 0 {
		return fmt.Errorf("costume %s: skeleton %s has no bones", costumeID, cfg.Skeleton)
	}

	if ecs.HasComponent[*components.CostumeComponent](s.entityManager, entity) {
		s.ReleaseCostume(entity)
	}

	sk := skeleton.New(h)
	comp := &components.CostumeComponent{
		CostumeID:    costumeID,
		ActorKey:     costumeID,
		SkeletonPath: cfg.Skeleton,
		Skeleton:     sk,
		ChoreIndex:   make(map[string]int, len(cfg.Chores)),
	}

	for i := range cfg.Chores {
		chc := &cfg.Chores[i]
		clip, err := s.acquireClip(comp, chc.Clip)
		if err != nil {
			log.Printf("[ChoreSystem] Warning: 服装 %s 跳过 chore %s: %v", costumeID, chc.Name, err)
			continue
		}
		c := chore.New(i, chc.Name, clip, chc.ResolvedPriority)
		c.SetLooping(chc.Looping)
		if chc.Autoplay {
			if chc.Looping {
				c.PlayLooping()
			} else {
				c.Play()
			}
			if chc.FadeInMS > 0 {
				c.FadeIn(chc.FadeInMS)
			}
		}
		comp.ChoreIndex[chc.Name] = len(comp.Chores)
		comp.Chores = append(comp.Chores, c)
	}

	ecs.AddComponent(s.entityManager, entity, comp)
	ecs.AddComponent(s.entityManager, entity, &components.SkeletonComponent{
		Pose:  sk.Pose(),
		Scale: cfg.Scale,
	})
	log.Printf("[ChoreSystem] 实体 %d 装配服装 %s: %d 根骨骼, %d/%d 个 chore",
		entity, costumeID, h.Len(), len(comp.Chores), len(cfg.Chores))
	return nil
}

// acquireClip 获取片段并校验骨骼索引, 成功时记录到 comp.ClipPaths
func (s *ChoreSystem) acquireClip(comp *components.CostumeComponent, path string) (*keyframe.Clip, error) {
	clip, err := s.resourceLoader.AcquireClip(path)
	if err != nil {
		return nil, err
	}
	if err := comp.Skeleton.Validate(clip); err != nil {
		s.resourceLoader.ReleaseClip(path)
		return nil, err
	}
	comp.ClipPaths = append(comp.ClipPaths, path)
	return clip, nil
}

// ReleaseCostume 移除实体的服装并释放全部片段引用
func (s *ChoreSystem) ReleaseCostume(entity ecs.EntityID) {
	comp, ok := ecs.GetComponent[*components.CostumeComponent](s.entityManager, entity)
	if !ok {
		return
	}
	for _, path := range comp.ClipPaths {
		s.resourceLoader.ReleaseClip(path)
	}
	comp.ClipPaths = nil
	for _, c := range comp.Chores {
		c.Stop()
	}
	ecs.RemoveComponent[*components.CostumeComponent](s.entityManager, entity)
	ecs.RemoveComponent[*components.SkeletonComponent](s.entityManager, entity)
	log.Printf("[ChoreSystem] 实体 %d 释放服装 %s", entity, comp.CostumeID)
}

// costumeResolver 读档时解析片段, 获取的引用记在服装上
type costumeResolver struct {
	s    *ChoreSystem
	comp *components.CostumeComponent
}

func (r costumeResolver) ResolveClip(name string) (*keyframe.Clip, error) {
	return r.s.acquireClip(r.comp, name)
}
