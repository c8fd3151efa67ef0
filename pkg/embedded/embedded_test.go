package embedded

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
)

func testFS() (fstest.MapFS, fstest.MapFS) {
	assets := fstest.MapFS{
		"assets/skeletons/humanoid.skel": {Data: []byte("SKEL")},
		"assets/clips/walk.key":          {Data: []byte("section: header")},
	}
	data := fstest.MapFS{
		"data/engine.yaml":   {Data: []byte("tps: 60\n")},
		"data/costumes.yaml": {Data: []byte("costumes: []\n")},
	}
	return assets, data
}

// TestNotInitialized 测试未初始化时的包级函数
func TestNotInitialized(t *testing.T) {
	defaultFS = nil

	if IsInitialized() {
		t.Error("Expected IsInitialized() to return false before Init()")
	}
	if _, err := Open("assets/clips/walk.key"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Open error = %v, want ErrNotInitialized", err)
	}
	if _, err := ReadFile("data/engine.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ReadFile error = %v, want ErrNotInitialized", err)
	}
	if _, err := Glob("data/*.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Glob error = %v, want ErrNotInitialized", err)
	}
	if Exists("data/engine.yaml") {
		t.Error("Expected Exists() to return false before Init()")
	}
}

// TestRouting 测试按前缀分发
func TestRouting(t *testing.T) {
	Init(testFS())
	defer func() { defaultFS = nil }()

	data, err := ReadFile("./data/engine.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "tps: 60\n" {
		t.Errorf("ReadFile = %q", data)
	}

	if !Exists("assets/skeletons/humanoid.skel") {
		t.Error("skeleton should exist")
	}
	// data 树里没有 assets 文件
	if Exists("data/skeletons/humanoid.skel") {
		t.Error("path must not leak across trees")
	}

	files, err := Glob("data/*.yaml")
	if err != nil || len(files) != 2 {
		t.Errorf("Glob = %v, %v; want 2 files", files, err)
	}

	entries, err := ReadDir("assets/clips")
	if err != nil || len(entries) != 1 {
		t.Errorf("ReadDir = %v, %v", entries, err)
	}
}

// TestInvalidPrefix 测试无效路径前缀
func TestInvalidPrefix(t *testing.T) {
	Init(testFS())
	defer func() { defaultFS = nil }()

	if _, err := ReadFile("invalid/path/test.txt"); !errors.Is(err, ErrUnknownPrefix) {
		t.Errorf("ReadFile error = %v, want ErrUnknownPrefix", err)
	}
	if _, err := Glob("invalid/*.txt"); !errors.Is(err, ErrUnknownPrefix) {
		t.Errorf("Glob error = %v, want ErrUnknownPrefix", err)
	}
}

// TestFSInterface 测试 FS 可以直接交给 io/fs 使用
func TestFSInterface(t *testing.T) {
	f := New(testFS())
	var _ fs.ReadFileFS = f

	data, err := fs.ReadFile(f, "assets/clips/walk.key")
	if err != nil || string(data) != "section: header" {
		t.Fatalf("fs.ReadFile = %q, %v", data, err)
	}
	if _, err := fs.Stat(f, "data/costumes.yaml"); err != nil {
		t.Fatalf("fs.Stat: %v", err)
	}
}
