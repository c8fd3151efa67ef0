package game

import (
	"fmt"
	"log"
	"math"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// ViewerSettings 查看器设置
type ViewerSettings struct {
	// 显示设置
	ShowBoneNames bool    `yaml:"showBoneNames"` // 在关节旁显示骨骼名
	ViewYaw       float64 `yaml:"viewYaw"`       // 观察角度 (度), 绕竖直轴旋转
	Zoom          float64 `yaml:"zoom"`          // 每米像素数
	Fullscreen    bool    `yaml:"fullscreen"`    // 启动时是否全屏

	// 播放设置
	TimeScale   float64 `yaml:"timeScale"`   // 模拟时间倍率 0.1 ~ 4.0
	LastCostume string  `yaml:"lastCostume"` // 上次查看的服装, 启动时优先加载

	// 音频设置
	CueVolume float64 `yaml:"cueVolume"` // 标记提示音音量 0.0 ~ 1.0, 0 表示静音
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		ShowBoneNames: false,
		ViewYaw:       30,
		Zoom:          180,
		Fullscreen:    false,
		TimeScale:     1.0,
		CueVolume:     0.5,
	}
}

// SettingsManager 设置管理器
// 负责查看器设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager  // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *ViewerSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "viewer"
)

// 时间倍率范围
const (
	minTimeScale = 0.1
	maxTimeScale = 4.0
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 加载失败不是致命错误，使用默认设置
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}
	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return sm
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置
func (sm *SettingsManager) Load() error {
	sm.settings = DefaultSettings()
	if sm.gdataManager == nil {
		return nil
	}
	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 在默认值上反序列化, 旧存档缺少的字段保持默认
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.TimeScale = clampTimeScale(loaded.TimeScale)
	loaded.CueVolume = clampVolume(loaded.CueVolume)
	if loaded.Zoom <= 0 {
		loaded.Zoom = DefaultSettings().Zoom
	}

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *ViewerSettings {
	return sm.settings
}

// SetTimeScale 设置时间倍率, 限制在 0.1 ~ 4.0
//
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetTimeScale(scale float64) {
	sm.settings.TimeScale = clampTimeScale(scale)
}

// RotateView 旋转观察角度, 结果保持在 [0, 360)
func (sm *SettingsManager) RotateView(deltaDeg float64) {
	yaw := math.Mod(sm.settings.ViewYaw+deltaDeg, 360)
	if yaw < 0 {
		yaw += 360
	}
	sm.settings.ViewYaw = yaw
}

// SetShowBoneNames 设置是否显示骨骼名
func (sm *SettingsManager) SetShowBoneNames(show bool) {
	sm.settings.ShowBoneNames = show
}

// SetLastCostume 记录当前查看的服装
func (sm *SettingsManager) SetLastCostume(id string) {
	sm.settings.LastCostume = id
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// SetCueVolume 设置标记提示音音量, 限制在 0.0 ~ 1.0
func (sm *SettingsManager) SetCueVolume(volume float64) {
	sm.settings.CueVolume = clampVolume(volume)
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampTimeScale(scale float64) float64 {
	if scale < minTimeScale {
		return minTimeScale
	}
	if scale > maxTimeScale {
		return maxTimeScale
	}
	return scale
}
