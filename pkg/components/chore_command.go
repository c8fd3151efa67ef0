package components

// ChoreOp 是 ChoreCommandComponent 中一条命令的操作类型
type ChoreOp int

const (
	ChoreOpPlay ChoreOp = iota
	ChoreOpPlayLooping
	ChoreOpStop
	ChoreOpStopAll
	ChoreOpSetLooping
	ChoreOpFadeIn
	ChoreOpFadeOut
	ChoreOpComplete
)

func (op ChoreOp) String() string {
	switch op {
	case ChoreOpPlay:
		return "play"
	case ChoreOpPlayLooping:
		return "play_looping"
	case ChoreOpStop:
		return "stop"
	case ChoreOpStopAll:
		return "stop_all"
	case ChoreOpSetLooping:
		return "set_looping"
	case ChoreOpFadeIn:
		return "fade_in"
	case ChoreOpFadeOut:
		return "fade_out"
	case ChoreOpComplete:
		return "complete"
	}
	return "unknown"
}

// ChoreCommand 一条 chore 控制命令
type ChoreCommand struct {
	Op ChoreOp

	// Chore 目标 chore 名称 (ChoreOpStopAll 时忽略)
	Chore string

	// Looping ChoreOpSetLooping 的参数
	Looping bool

	// FadeMS ChoreOpFadeIn / ChoreOpFadeOut 的时长 (毫秒)
	FadeMS float64
}

// ChoreCommandComponent chore 控制命令组件(纯数据)
//
// 设计目的:
//
//	脚本、AI 等其他系统不直接持有 ChoreSystem, 而是通过组件投递命令
//
// 生命周期:
//  1. 其他系统把命令追加到实体的 ChoreCommandComponent
//  2. ChoreSystem 在 Update() 开头按顺序执行所有命令
//  3. 执行后标记 Processed = true, 下次追加命令时需重置为 false
//
// 示例:
//
//	ecs.AddComponent(em, actorID, &components.ChoreCommandComponent{
//	    Commands: []components.ChoreCommand{
//	        {Op: components.ChoreOpPlayLooping, Chore: "walk"},
//	        {Op: components.ChoreOpFadeIn, Chore: "walk", FadeMS: 250},
//	    },
//	})
type ChoreCommandComponent struct {
	// Commands 按顺序执行
	Commands []ChoreCommand

	// Processed 是否已被 ChoreSystem 处理(即使执行失败也会标记, 避免无限重试)
	Processed bool

	// Timestamp 命令创建时间(游戏时间, 单位: 秒), 仅用于调试
	Timestamp float64
}
