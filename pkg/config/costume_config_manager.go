package config

import (
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"sync"
)

// CostumeConfigManager 服装配置管理器
// 负责加载和索引全部服装配置, 可并发读取
type CostumeConfigManager struct {
	fsys   fs.FS
	path   string
	engine *EngineConfig

	costumes map[string]*CostumeConfig // 按 id 索引
	mu       sync.RWMutex
}

// NewCostumeConfigManager 创建配置管理器
//
// 参数:
//   - fsys: 资源文件系统
//   - configPath: 单个 YAML 文件 (如 "data/costumes.yaml"),
//     或目录 (如 "data/costumes"), 目录模式下加载其中全部 *.yaml
//   - engine: 用于解析优先级档位, nil 时使用默认配置
func NewCostumeConfigManager(fsys fs.FS, configPath string, engine *EngineConfig) (*CostumeConfigManager, error) {
	if engine == nil {
		engine = DefaultEngineConfig()
	}
	m := &CostumeConfigManager{fsys: fsys, path: configPath, engine: engine}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload 重新读取配置; 失败时保留旧配置
func (m *CostumeConfigManager) Reload() error {
	files, err := m.files()
	if err != nil {
		return err
	}

	costumes := make(map[string]*CostumeConfig)
	for _, file := range files {
		data, err := fs.ReadFile(m.fsys, file)
		if err != nil {
			return fmt.Errorf("无法读取配置文件 %s: %w", file, err)
		}
		list, err := ParseCostumes(data, m.engine)
		if err != nil {
			return fmt.Errorf("配置文件 %s: %w", file, err)
		}
		for i := range list {
			c := &list[i]
			if _, dup := costumes[c.ID]; dup {
				return fmt.Errorf("%w: duplicate costume id %q in %s", ErrInvalidConfig, c.ID, file)
			}
			costumes[c.ID] = c
		}
	}

	m.mu.Lock()
	m.costumes = costumes
	m.mu.Unlock()
	log.Printf("[CostumeConfig] 已加载 %d 套服装 (来自 %d 个文件)", len(costumes), len(files))
	return nil
}

// files 返回需要加载的 YAML 文件列表
func (m *CostumeConfigManager) files() ([]string, error) {
	info, err := fs.Stat(m.fsys, m.path)
	if err != nil {
		return nil, fmt.Errorf("无法访问路径 %s: %w", m.path, err)
	}
	if !info.IsDir() {
		return []string{m.path}, nil
	}
	files, err := fs.Glob(m.fsys, path.Join(m.path, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("扫描目录 %s 失败: %w", m.path, err)
	}
	sort.Strings(files)
	return files, nil
}

// GetCostume 按 id 获取服装配置
func (m *CostumeConfigManager) GetCostume(id string) (*CostumeConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.costumes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCostumeNotFound, id)
	}
	return c, nil
}

// ListCostumeIDs 返回排序后的全部服装 id
func (m *CostumeConfigManager) ListCostumeIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.costumes))
	for id := range m.costumes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Engine 返回引擎配置
func (m *CostumeConfigManager) Engine() *EngineConfig {
	return m.engine
}
