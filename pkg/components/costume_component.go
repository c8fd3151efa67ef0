package components

import (
	"github.com/decker502/chore/internal/chore"
	"github.com/decker502/chore/internal/skeleton"
)

// CostumeComponent 角色服装组件(纯数据)
//
// 一个 costume 是一副骨骼加上一组 chore。chore 的播放控制和每帧的
// 混合都由 ChoreSystem 完成, 组件只保存状态。
type CostumeComponent struct {
	// ==========================================================================
	// Definition (定义)
	// ==========================================================================

	// CostumeID 对应 costumes.yaml 中的 id
	CostumeID string

	// ActorKey 存档时使用的键(默认与 CostumeID 相同)
	ActorKey string

	// SkeletonPath 骨骼资源路径
	SkeletonPath string

	// ==========================================================================
	// Runtime State (运行时状态)
	// ==========================================================================

	// Skeleton 该角色独占的骨骼实例, 层级数据与其他角色共享
	Skeleton *skeleton.Skeleton

	// Chores 按配置顺序排列, chore.ID() 即下标
	Chores []*chore.Chore

	// ChoreIndex chore 名称 -> Chores 下标
	ChoreIndex map[string]int

	// ClipPaths 已从资源管理器获取的片段路径, ReleaseCostume 时逐一释放
	ClipPaths []string
}

// SkeletonComponent 只读的姿态快照引用, 供渲染使用
//
// ChoreSystem 每帧 EndTick 后更新 Pose; 渲染端读取期间不会被改写。
type SkeletonComponent struct {
	Pose *skeleton.Pose
	// Scale 渲染时的整体缩放
	Scale float64
}
