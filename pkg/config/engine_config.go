package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"
)

// 内置优先级档位
const (
	TierBody = "body"
	TierTalk = "talk"
)

var (
	ErrUnknownTier     = errors.New("unknown priority tier")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrCostumeNotFound = errors.New("costume not found")
)

// EngineConfig 引擎全局配置
//
// 配置文件位置: data/engine.yaml
type EngineConfig struct {
	// TPS 模拟帧率, chore 时间按 1/TPS 秒推进
	TPS int `yaml:"tps"`

	// PriorityTiers 优先级档位名 -> 数值优先级, 数值越大越优先
	// 未配置时默认 body=1, talk=2
	PriorityTiers map[string]int `yaml:"priority_tiers"`

	// DefaultFadeMS 未指定时长的淡入淡出命令使用的时长 (毫秒)
	DefaultFadeMS float64 `yaml:"default_fade_ms"`

	// Save 存档配置
	Save SaveConfig `yaml:"save"`
}

// SaveConfig gdata 存档配置
type SaveConfig struct {
	// AppName gdata 的应用名, 决定存档目录
	AppName string `yaml:"app_name"`
}

// DefaultEngineConfig 返回默认配置
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		TPS:           60,
		PriorityTiers: map[string]int{TierBody: 1, TierTalk: 2},
		DefaultFadeMS: 250,
		Save:          SaveConfig{AppName: "chore_engine"},
	}
}

// LoadEngineConfig 从 fsys 加载引擎配置, 缺省字段使用默认值
func LoadEngineConfig(fsys fs.FS, path string) (*EngineConfig, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}
	cfg, err := ParseEngineConfig(data)
	if err != nil {
		return nil, fmt.Errorf("engine config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseEngineConfig 解析并验证 YAML
func ParseEngineConfig(data []byte) (*EngineConfig, error) {
	cfg := DefaultEngineConfig()
	// 配置中的档位整体替换默认档位, 但保留未提及的内置档位
	defaults := cfg.PriorityTiers
	cfg.PriorityTiers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}
	if cfg.PriorityTiers == nil {
		cfg.PriorityTiers = make(map[string]int, len(defaults))
	}
	for name, p := range defaults {
		if _, ok := cfg.PriorityTiers[name]; !ok {
			cfg.PriorityTiers[name] = p
		}
	}
	if cfg.Save.AppName == "" {
		cfg.Save.AppName = DefaultEngineConfig().Save.AppName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置有效性
func (c *EngineConfig) Validate() error {
	if c.TPS <= 0 {
		return fmt.Errorf("%w: tps must be positive, got %d", ErrInvalidConfig, c.TPS)
	}
	if c.DefaultFadeMS < 0 {
		return fmt.Errorf("%w: default_fade_ms must not be negative, got %v", ErrInvalidConfig, c.DefaultFadeMS)
	}
	for name := range c.PriorityTiers {
		if name == "" {
			return fmt.Errorf("%w: empty priority tier name", ErrInvalidConfig)
		}
	}
	return nil
}

// TickSeconds 返回一帧的时长 (秒)
func (c *EngineConfig) TickSeconds() float64 {
	return 1 / float64(c.TPS)
}

// ResolvePriority 把档位名解析为数值优先级
func (c *EngineConfig) ResolvePriority(tier string) (int, error) {
	p, ok := c.PriorityTiers[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %q (known: %v)", ErrUnknownTier, tier, c.TierNames())
	}
	return p, nil
}

// TierNames 返回排序后的档位名
func (c *EngineConfig) TierNames() []string {
	names := make([]string, 0, len(c.PriorityTiers))
	for name := range c.PriorityTiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
