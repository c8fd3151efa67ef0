// Package embedded 提供资源文件系统的统一访问接口
//
// 资源分为两棵树: "assets/" (骨骼与动画片段) 和 "data/" (YAML 配置)。
// 两棵树可以来自 embed.FS、os.DirFS 或测试用的 fstest.MapFS,
// 路径一律保留 "assets/" / "data/" 前缀。
//
// 包级函数使用 Init 注册的默认文件系统。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var (
	ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")
	ErrUnknownPrefix  = errors.New("unknown resource path prefix")
)

// FS 按路径前缀把请求分发到 assets 或 data 文件系统, 自身实现 fs.FS。
type FS struct {
	assets fs.FS
	data   fs.FS
}

// New 创建资源文件系统。assets 与 data 可以是同一个 fs.FS。
func New(assets, data fs.FS) *FS {
	return &FS{assets: assets, data: data}
}

// clean 标准化路径: 正斜杠, 去掉 "./" 前缀
func clean(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "./")
}

func (f *FS) route(path string) (fs.FS, string, error) {
	path = clean(path)
	switch {
	case path == "assets" || strings.HasPrefix(path, "assets/"):
		return f.assets, path, nil
	case path == "data" || strings.HasPrefix(path, "data/"):
		return f.data, path, nil
	}
	return nil, path, fmt.Errorf("%w: %s (must start with 'assets/' or 'data/')", ErrUnknownPrefix, path)
}

// Open 实现 fs.FS
func (f *FS) Open(path string) (fs.File, error) {
	sub, p, err := f.route(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return sub.Open(p)
}

// ReadFile 实现 fs.ReadFileFS
func (f *FS) ReadFile(path string) ([]byte, error) {
	sub, p, err := f.route(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(sub, p)
}

// ReadDir 实现 fs.ReadDirFS
func (f *FS) ReadDir(path string) ([]fs.DirEntry, error) {
	sub, p, err := f.route(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(sub, p)
}

// Glob 实现 fs.GlobFS
func (f *FS) Glob(pattern string) ([]string, error) {
	sub, p, err := f.route(pattern)
	if err != nil {
		return nil, err
	}
	return fs.Glob(sub, p)
}

var defaultFS *FS

// Init 注册默认资源文件系统
// 必须在 main() 开始时、任何资源加载之前调用
func Init(assets, data fs.FS) {
	defaultFS = New(assets, data)
}

// IsInitialized 返回是否已调用 Init
func IsInitialized() bool {
	return defaultFS != nil
}

// Default 返回默认资源文件系统, 未初始化时返回 nil
func Default() *FS {
	return defaultFS
}

// Open 在默认文件系统中打开文件
func Open(path string) (fs.File, error) {
	if defaultFS == nil {
		return nil, ErrNotInitialized
	}
	return defaultFS.Open(path)
}

// ReadFile 在默认文件系统中读取文件内容
func ReadFile(path string) ([]byte, error) {
	if defaultFS == nil {
		return nil, ErrNotInitialized
	}
	return defaultFS.ReadFile(path)
}

// Exists 检查文件是否存在
func Exists(path string) bool {
	file, err := Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// Glob 在默认文件系统中匹配文件
func Glob(pattern string) ([]string, error) {
	if defaultFS == nil {
		return nil, ErrNotInitialized
	}
	return defaultFS.Glob(pattern)
}

// ReadDir 读取目录内容
func ReadDir(path string) ([]fs.DirEntry, error) {
	if defaultFS == nil {
		return nil, ErrNotInitialized
	}
	return defaultFS.ReadDir(path)
}

// Sub 返回指定目录的子文件系统
func Sub(dir string) (fs.FS, error) {
	if defaultFS == nil {
		return nil, ErrNotInitialized
	}
	sub, p, err := defaultFS.route(dir)
	if err != nil {
		return nil, err
	}
	return fs.Sub(sub, p)
}
