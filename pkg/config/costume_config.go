package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CostumesFile costumes YAML 文件的顶层结构
type CostumesFile struct {
	Costumes []CostumeConfig `yaml:"costumes"`
}

// CostumeConfig 一套服装: 骨骼 + chore 列表
type CostumeConfig struct {
	ID       string  `yaml:"id"`
	Skeleton string  `yaml:"skeleton"`
	Scale    float64 `yaml:"scale,omitempty"` // 渲染缩放, 默认 1.0

	Chores []ChoreConfig `yaml:"chores"`
}

// ChoreConfig 单个 chore 的配置
type ChoreConfig struct {
	Name string `yaml:"name"`
	Clip string `yaml:"clip"`

	// Tier 优先级档位, 与 Priority 二选一; 都为空时使用 body 档
	Tier string `yaml:"tier,omitempty"`
	// Priority 显式数值优先级, 优先于 Tier
	Priority *int `yaml:"priority,omitempty"`

	Looping  bool `yaml:"looping,omitempty"`
	Autoplay bool `yaml:"autoplay,omitempty"` // BuildCostume 后立即播放

	// FadeInMS 自动播放时的淡入时长 (毫秒), 0 表示不淡入
	FadeInMS float64 `yaml:"fade_in_ms,omitempty"`

	// ResolvedPriority 加载时根据 Tier / Priority 计算
	ResolvedPriority int `yaml:"-"`
}

// ParseCostumes 解析 YAML 并计算每个 chore 的优先级
func ParseCostumes(data []byte, engine *EngineConfig) ([]CostumeConfig, error) {
	var file CostumesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse costumes: %w", err)
	}
	for i := range file.Costumes {
		if err := resolveCostume(&file.Costumes[i], engine); err != nil {
			return nil, err
		}
	}
	return file.Costumes, nil
}

// resolveCostume 补默认值并验证单个服装
func resolveCostume(c *CostumeConfig, engine *EngineConfig) error {
	if c.ID == "" {
		return fmt.Errorf("%w: costume missing 'id'", ErrInvalidConfig)
	}
	if c.Skeleton == "" {
		return fmt.Errorf("%w: costume %q missing 'skeleton'", ErrInvalidConfig, c.ID)
	}
	if c.Scale == 0 {
		c.Scale = 1.0
	}

	seen := make(map[string]bool, len(c.Chores))
	for i := range c.Chores {
		ch := &c.Chores[i]
		if ch.Name == "" {
			return fmt.Errorf("%w: costume %q chore #%d missing 'name'", ErrInvalidConfig, c.ID, i)
		}
		if seen[ch.Name] {
			return fmt.Errorf("%w: costume %q has duplicate chore %q", ErrInvalidConfig, c.ID, ch.Name)
		}
		seen[ch.Name] = true
		if ch.Clip == "" {
			return fmt.Errorf("%w: costume %q chore %q missing 'clip'", ErrInvalidConfig, c.ID, ch.Name)
		}
		if ch.FadeInMS < 0 {
			return fmt.Errorf("%w: costume %q chore %q has negative fade_in_ms", ErrInvalidConfig, c.ID, ch.Name)
		}

		switch {
		case ch.Priority != nil:
			ch.ResolvedPriority = *ch.Priority
		default:
			tier := ch.Tier
			if tier == "" {
				tier = TierBody
			}
			p, err := engine.ResolvePriority(tier)
			if err != nil {
				return fmt.Errorf("costume %q chore %q: %w", c.ID, ch.Name, err)
			}
			ch.ResolvedPriority = p
		}
	}
	return nil
}

// Chore 按名称查找 chore 配置
func (c *CostumeConfig) Chore(name string) (*ChoreConfig, bool) {
	for i := range c.Chores {
		if c.Chores[i].Name == name {
			return &c.Chores[i], true
		}
	}
	return nil, false
}
