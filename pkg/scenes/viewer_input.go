package scenes

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/chore/pkg/components"
)

// 观察角度旋转速度 (度/tick), 按住方向键时生效
const viewRotateStep = 1.5

const cueVolumeStep = 0.1

// handleInput 键盘控制
//
//	1-9    选中并播放 chore (按配置决定是否循环)
//	L      切换选中 chore 的循环标志
//	I / F  淡入 / 淡出选中 chore
//	C      跳到最后一帧并停留
//	S      停止全部 chore
//	Space  暂停 / 继续
//	↑ / ↓  时间倍率 ×2 / ÷2
//	← / →  旋转视角
//	N      显示 / 隐藏骨骼名
//	- / =  标记提示音音量
//	Tab    切换到下一套服装
//	F5/F9  保存 / 读取 chore 状态
func (s *ViewerScene) handleInput() {
	chores := s.choreSystem.Chores(s.actor)

	for i := 0; i < 9 && i < len(chores); i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key1 + ebiten.Key(i)) {
			s.selected = i
			s.enqueue(components.ChoreCommand{Op: playOp(chores[i].Looping()), Chore: chores[i].Name()})
		}
	}

	if s.selected < len(chores) {
		c := chores[s.selected]
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyL):
			s.enqueue(components.ChoreCommand{Op: components.ChoreOpSetLooping, Chore: c.Name(), Looping: !c.Looping()})
		case inpututil.IsKeyJustPressed(ebiten.KeyI):
			// 淡入不会启动播放, 先确保 chore 在播放
			if !c.IsPlaying() {
				s.enqueue(components.ChoreCommand{Op: playOp(c.Looping()), Chore: c.Name()})
			}
			s.enqueue(components.ChoreCommand{Op: components.ChoreOpFadeIn, Chore: c.Name(), FadeMS: -1})
		case inpututil.IsKeyJustPressed(ebiten.KeyF):
			s.enqueue(components.ChoreCommand{Op: components.ChoreOpFadeOut, Chore: c.Name(), FadeMS: -1})
		case inpututil.IsKeyJustPressed(ebiten.KeyC):
			s.enqueue(components.ChoreCommand{Op: components.ChoreOpComplete, Chore: c.Name()})
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		s.enqueue(components.ChoreCommand{Op: components.ChoreOpStopAll})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.paused = !s.paused
	}

	settings := s.settingsManager
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		settings.SetTimeScale(settings.GetSettings().TimeScale * 2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		settings.SetTimeScale(settings.GetSettings().TimeScale / 2)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		settings.RotateView(-viewRotateStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		settings.RotateView(viewRotateStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		settings.SetShowBoneNames(!settings.GetSettings().ShowBoneNames)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		settings.SetCueVolume(settings.GetSettings().CueVolume - cueVolumeStep)
		s.setStatus("提示音音量 %.1f", settings.GetSettings().CueVolume)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		settings.SetCueVolume(settings.GetSettings().CueVolume + cueVolumeStep)
		s.setStatus("提示音音量 %.1f", settings.GetSettings().CueVolume)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		s.saveChores()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		s.loadChores()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		s.nextCostume()
	}
}

func playOp(looping bool) components.ChoreOp {
	if looping {
		return components.ChoreOpPlayLooping
	}
	return components.ChoreOpPlay
}

func (s *ViewerScene) saveChores() {
	if s.saveManager == nil || !s.saveManager.Enabled() {
		s.setStatus("存档不可用")
		return
	}
	if err := s.choreSystem.SaveCostume(s.actor, s.saveManager); err != nil {
		s.setStatus("保存失败: %v", err)
		return
	}
	s.setStatus("已保存 %s", s.costumeID)
}

func (s *ViewerScene) loadChores() {
	if s.saveManager == nil || !s.saveManager.Enabled() {
		s.setStatus("存档不可用")
		return
	}
	found, err := s.choreSystem.LoadCostume(s.actor, s.saveManager)
	switch {
	case err != nil:
		s.setStatus("读取失败: %v", err)
	case !found:
		s.setStatus("%s 没有存档", s.costumeID)
	default:
		s.setStatus("已读取 %s", s.costumeID)
	}
}

// nextCostume 切换到配置中的下一套服装
func (s *ViewerScene) nextCostume() {
	ids := s.configManager.ListCostumeIDs()
	if len(ids) < 2 || s.sceneManager == nil {
		return
	}
	next := ids[0]
	for i, id := range ids {
		if id == s.costumeID {
			next = ids[(i+1)%len(ids)]
			break
		}
	}
	// 新场景创建成功后旧场景才释放
	if err := s.sceneManager.LoadCostume(next); err != nil {
		s.setStatus("切换失败: %v", err)
		return
	}
	s.Release()
	log.Printf("[ViewerScene] 切换服装 %s -> %s", s.costumeID, next)
}
