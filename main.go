// chore 查看器: 加载服装, 用键盘驱动 chore 并绘制骨骼姿态
//
// 用法:
//
//	go run . [-costume humanoid] [-dir path/to/project] [-nosave] [-mute] [-verbose]
//
// -dir 指定包含 assets/ 和 data/ 的目录, 用于不重新编译即可查看新资源;
// 默认使用编译时嵌入的演示资源。
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/chore/pkg/app"
	"github.com/decker502/chore/pkg/embedded"
	"github.com/decker502/chore/pkg/scenes"
)

func main() {
	verbose := flag.Bool("verbose", false, "启用详细日志")
	costume := flag.String("costume", "", "要查看的服装 ID (默认: 上次查看的)")
	dir := flag.String("dir", "", "从目录加载 assets/ 和 data/，而不是使用嵌入资源")
	noSave := flag.Bool("nosave", false, "禁用存档")
	mute := flag.Bool("mute", false, "关闭标记提示音")
	flag.Parse()

	if *dir != "" {
		root := os.DirFS(*dir)
		embedded.Init(root, root)
	} else {
		embedded.Init(assetsFS, dataFS)
	}

	viewer, err := app.NewApp(app.Config{
		Verbose: *verbose,
		Costume: *costume,
		NoSave:  *noSave,
		Mute:    *mute,
	})
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("查看器初始化失败: %v", err)
	}

	ebiten.SetWindowSize(scenes.ScreenWidth, scenes.ScreenHeight)
	ebiten.SetWindowTitle("Chore Viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
