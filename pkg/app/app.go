// Package app 组装 chore 查看器: 资源、配置、存档和场景
//
// 该包把初始化逻辑从 main 包中提取出来, main.go 只负责解析参数、
// 注册资源文件系统和启动 ebiten 主循环。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/chore/pkg/config"
	"github.com/decker502/chore/pkg/embedded"
	"github.com/decker502/chore/pkg/game"
	"github.com/decker502/chore/pkg/scenes"
)

// 资源与配置路径 (相对于资源文件系统)
const (
	EngineConfigPath   = "data/engine.yaml"
	CostumeConfigPath  = "data/costumes"
	ResourceConfigPath = "assets/config/resources.yaml"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Costume 指定要查看的服装，为空则使用上次查看的或配置中的第一个
	Costume string
	// NoSave 禁用 gdata 存档（chore 状态和设置只保存在内存中）
	NoSave bool
	// Mute 不创建音频上下文, 标记提示音静音
	Mute bool
}

// App 实现 ebiten.Game 接口
type App struct {
	engine       *config.EngineConfig
	sceneManager *game.SceneManager
	audioManager *game.AudioManager
	verbose      bool
}

// NewApp 创建并初始化查看器
//
// 调用此函数前，必须先调用 embedded.Init() 注册资源文件系统。
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}
	if !embedded.IsInitialized() {
		return nil, embedded.ErrNotInitialized
	}
	fsys := embedded.Default()

	engine, err := config.LoadEngineConfig(fsys, EngineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("引擎配置加载失败: %w", err)
	}

	resourceManager := game.NewResourceManager(fsys)
	if err := resourceManager.LoadResourceConfig(ResourceConfigPath); err != nil {
		return nil, fmt.Errorf("资源配置加载失败: %w", err)
	}

	costumeManager, err := config.NewCostumeConfigManager(fsys, CostumeConfigPath, engine)
	if err != nil {
		return nil, fmt.Errorf("服装配置加载失败: %w", err)
	}
	ids := costumeManager.ListCostumeIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s 中没有服装", CostumeConfigPath)
	}
	log.Printf("[App] 加载 %d 套服装: %v", len(ids), ids)

	gdataManager := openSaveStorage(engine, cfg.NoSave)
	saveManager := game.NewChoreSaveManager(gdataManager)
	settingsManager := game.NewSettingsManager(gdataManager)
	ebiten.SetFullscreen(settingsManager.GetSettings().Fullscreen)

	var audioContext *audio.Context
	if !cfg.Mute {
		audioContext = audio.NewContext(game.CueSampleRate)
	}
	audioManager := game.NewAudioManager(audioContext, settingsManager)

	costumeID := pickCostume(cfg.Costume, settingsManager.GetSettings().LastCostume, ids)
	if !slices.Contains(ids, costumeID) {
		return nil, fmt.Errorf("%w: %s", config.ErrCostumeNotFound, costumeID)
	}

	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func(id string) (game.Scene, error) {
		return scenes.NewViewerScene(resourceManager, sceneManager, costumeManager, saveManager, settingsManager, audioManager, id)
	})
	sceneManager.SwitchTo(scenes.NewLoadingScene(resourceManager, sceneManager, costumeID))

	ebiten.SetTPS(engine.TPS)
	log.Printf("[App] Starting costume: %s (%d TPS)", costumeID, engine.TPS)

	return &App{
		engine:       engine,
		sceneManager: sceneManager,
		audioManager: audioManager,
		verbose:      cfg.Verbose,
	}, nil
}

// openSaveStorage 打开 gdata 存储; 失败时返回 nil 进入降级模式
func openSaveStorage(engine *config.EngineConfig, disabled bool) *gdata.Manager {
	if disabled {
		log.Printf("[App] Save storage disabled")
		return nil
	}
	m, err := gdata.Open(gdata.Config{AppName: engine.Save.AppName})
	if err != nil {
		log.Printf("[App] Warning: gdata 初始化失败, 存档不可用: %v", err)
		return nil
	}
	return m
}

// pickCostume 选择启动服装: 命令行参数 > 上次查看的服装 > 第一个
func pickCostume(requested, last string, ids []string) string {
	if requested != "" {
		return requested
	}
	if last != "" && slices.Contains(ids, last) {
		return last
	}
	return ids[0]
}

// Update 每个 tick 调用一次
func (a *App) Update() error {
	if ebiten.IsWindowBeingClosed() {
		a.Shutdown()
		return ebiten.Termination
	}
	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	a.sceneManager.Update(a.engine.TickSeconds())
	return nil
}

// Shutdown 保存当前场景的状态并关闭提示音播放器
func (a *App) Shutdown() {
	if !a.sceneManager.SaveCurrent() {
		log.Printf("[App] Warning: 退出时保存失败")
	}
	a.audioManager.Close()
}

// Draw 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return scenes.ScreenWidth, scenes.ScreenHeight
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
