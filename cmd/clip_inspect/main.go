// clip_inspect - 关键帧片段和骨架文件检查工具
//
// 用法:
//
//	go run ./cmd/clip_inspect -clip assets/clips/walk.key [-skel assets/skeletons/humanoid.skel]
//	go run ./cmd/clip_inspect -skel assets/skeletons/humanoid.skel
//	go run ./cmd/clip_inspect -clip walk.key -convert binary -out walk.bin
//	go run ./cmd/clip_inspect -skel humanoid.skel -clip wave.key -frame 15 -snapshot wave.webp
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/chore/internal/keyframe"
	"github.com/decker502/chore/internal/skeleton"
	"github.com/decker502/chore/internal/snapshot"
)

var (
	clipPath = flag.String("clip", "", "要检查的片段文件 (.key, 文本或二进制)")
	skelPath = flag.String("skel", "", "骨架文件 (.skel); 与 -clip 一起使用时校验轨道骨骼")
	convert  = flag.String("convert", "", "转换片段格式: text 或 binary")
	outPath  = flag.String("out", "", "转换结果输出路径 (默认输出到标准输出)")
	verbose  = flag.Bool("verbose", false, "输出每条轨道的全部关键帧")

	snapshotPath = flag.String("snapshot", "", "把姿态渲染为图片 (.png 或 .webp), 需要 -skel; 未指定 -clip 时渲染静止姿态")
	frame        = flag.Float64("frame", 0, "快照使用的帧")
	yaw          = flag.Float64("yaw", 30, "快照观察角度 (度)")
	size         = flag.Int("size", 512, "快照边长 (像素)")
)

func main() {
	flag.Parse()
	if *clipPath == "" && *skelPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var h *skeleton.Hierarchy
	if *skelPath != "" {
		var err error
		h, err = loadSkeleton(*skelPath)
		if err != nil {
			log.Fatalf("[clip_inspect] %v", err)
		}
		fmt.Print(describeSkeleton(h))
	}

	var clip *keyframe.Clip
	if *clipPath != "" {
		data, err := os.ReadFile(*clipPath)
		if err != nil {
			log.Fatalf("[clip_inspect] 读取片段失败: %v", err)
		}
		clip, err = keyframe.Parse(filepath.Base(*clipPath), data)
		if err != nil {
			log.Fatalf("[clip_inspect] 解析片段失败: %v", err)
		}
	}

	if *snapshotPath != "" {
		if h == nil {
			log.Fatalf("[clip_inspect] -snapshot 需要 -skel")
		}
		if err := writeSnapshot(*snapshotPath, h, clip, *frame, *yaw, *size); err != nil {
			log.Fatalf("[clip_inspect] %v", err)
		}
		log.Printf("[clip_inspect] 已写入快照 %s", *snapshotPath)
		return
	}
	if clip == nil {
		return
	}

	if *convert != "" {
		out, err := convertClip(clip, *convert)
		if err != nil {
			log.Fatalf("[clip_inspect] %v", err)
		}
		if *outPath == "" {
			os.Stdout.Write(out)
			return
		}
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			log.Fatalf("[clip_inspect] 写入失败: %v", err)
		}
		log.Printf("[clip_inspect] 已写入 %s (%d 字节)", *outPath, len(out))
		return
	}

	fmt.Print(describeClip(clip, h, *verbose))
	if h != nil {
		if err := clip.Validate(h.Len()); err != nil {
			log.Fatalf("[clip_inspect] 片段与骨架 %s 不匹配: %v", h.Name(), err)
		}
		log.Printf("[clip_inspect] 片段与骨架 %s 匹配", h.Name())
	}
}

func loadSkeleton(path string) (*skeleton.Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取骨架失败: %w", err)
	}
	h, err := skeleton.Parse(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("解析骨架失败: %w", err)
	}
	return h, nil
}

// writeSnapshot 渲染 clip 在 frame 处的姿态并按扩展名编码
func writeSnapshot(path string, h *skeleton.Hierarchy, clip *keyframe.Clip, frame, yawDeg float64, px int) error {
	format, err := snapshot.FormatFromPath(path)
	if err != nil {
		return err
	}
	pose, err := snapshot.PoseAt(h, clip, frame)
	if err != nil {
		return fmt.Errorf("计算姿态失败: %w", err)
	}
	o := snapshot.DefaultOptions()
	o.Width, o.Height, o.Yaw = px, px, yawDeg

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建快照失败: %w", err)
	}
	defer f.Close()
	if err := snapshot.Encode(f, snapshot.Render(h, pose, o), format); err != nil {
		return fmt.Errorf("编码快照失败: %w", err)
	}
	return f.Close()
}

// convertClip 把片段编码为目标格式
func convertClip(c *keyframe.Clip, format string) ([]byte, error) {
	switch format {
	case "text":
		return keyframe.FormatText(c), nil
	case "binary":
		return keyframe.EncodeBinary(c)
	}
	return nil, fmt.Errorf("未知格式 %q (可选 text, binary)", format)
}

// describeClip 生成片段摘要; h 非 nil 时轨道按骨骼名显示
func describeClip(c *keyframe.Clip, h *skeleton.Hierarchy, verbose bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "clip %s\n", c.Name)
	fmt.Fprintf(&b, "  frames %d @ %g fps (%.2fs), joints %d, flags %#x, type %#x\n",
		c.NumFrames, c.FPS, seconds(c), c.NumJoints, c.Flags, c.Type)

	fmt.Fprintf(&b, "  markers %d\n", len(c.Markers))
	for _, m := range c.Markers {
		fmt.Fprintf(&b, "    frame %-6g value %d\n", m.Frame, m.Value)
	}

	fmt.Fprintf(&b, "  tracks %d\n", c.TrackCount())
	for _, t := range c.Tracks {
		if t == nil {
			continue
		}
		name := t.BoneName
		if h != nil && t.Bone < h.Len() {
			name = h.Bone(t.Bone).Name
		}
		fmt.Fprintf(&b, "    bone %-3d %-12s %-5s %3d entries", t.Bone, name, t.Kind, len(t.Entries))
		if n := len(t.Entries); n > 0 {
			fmt.Fprintf(&b, "  frames %g..%g", t.Entries[0].Frame, t.Entries[n-1].Frame)
		}
		b.WriteString("\n")
		if verbose {
			for _, e := range t.Entries {
				fmt.Fprintf(&b, "      %6g  pos %v\n", e.Frame, e.Pos)
			}
		}
	}
	return b.String()
}

func seconds(c *keyframe.Clip) float64 {
	if c.FPS <= 0 {
		return 0
	}
	return c.Duration() / c.FPS
}

// describeSkeleton 按父子关系缩进输出骨骼树
func describeSkeleton(h *skeleton.Hierarchy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "skeleton %s (%d bones)\n", h.Name(), h.Len())
	var walk func(i, depth int)
	walk = func(i, depth int) {
		bone := h.Bone(i)
		fmt.Fprintf(&b, "  %s%-3d %s %v\n", strings.Repeat("  ", depth), bone.Index, bone.Name, bone.Pivot)
		for _, c := range bone.Children {
			walk(c, depth+1)
		}
	}
	for i := 0; i < h.Len(); i++ {
		if h.Bone(i).Parent < 0 {
			walk(i, 0)
		}
	}
	return b.String()
}
