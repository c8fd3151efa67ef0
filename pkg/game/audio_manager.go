package game

import (
	"encoding/binary"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// CueSampleRate 提示音采样率, 创建 audio.Context 时使用
const CueSampleRate = 44100

// 提示音参数
const (
	cueDuration  = 0.06  // 秒
	cueBaseFreq  = 330.0 // 标记值 0 的频率 (Hz)
	cueSemitones = 12    // 标记值按半音升高, 每 12 个值回绕一个八度
	cueAmplitude = 0.6   // 峰值幅度 (满幅的比例)
)

// AudioManager 标记提示音播放器
// 职责：
//   - chore 播放中触发的标记 (脚步等) 播放一声短促的提示音
//   - 提示音按标记值合成, 不需要音频资源文件
//   - 音量从 SettingsManager 读取
//
// context 为 nil 时为静音模式, 所有播放调用直接返回 false
type AudioManager struct {
	context         *audio.Context           // 音频上下文（可为 nil）
	settingsManager *SettingsManager         // 设置管理器（用于读取音量，可为 nil）
	cuePlayers      map[uint32]*audio.Player // 提示音播放器缓存（标记值 -> 播放器）
}

// NewAudioManager 创建新的音频管理器
//
// 参数：
//   - ctx: ebiten 音频上下文, 采样率应为 CueSampleRate; nil 表示静音模式
//   - sm: SettingsManager 实例（用于读取音量设置，可为 nil）
func NewAudioManager(ctx *audio.Context, sm *SettingsManager) *AudioManager {
	return &AudioManager{
		context:         ctx,
		settingsManager: sm,
		cuePlayers:      make(map[uint32]*audio.Player),
	}
}

// Enabled 返回是否可以播放声音
func (am *AudioManager) Enabled() bool {
	return am != nil && am.context != nil
}

// PlayMarkerCue 播放标记值对应的提示音
//
// 返回：
//   - bool: 是否成功播放（静音模式或音量为 0 时返回 false）
func (am *AudioManager) PlayMarkerCue(value uint32) bool {
	if !am.Enabled() {
		return false
	}
	volume := am.getCueVolume()
	if volume <= 0 {
		return false
	}

	player := am.getCuePlayer(value)
	player.SetVolume(volume)
	if err := player.Rewind(); err != nil {
		log.Printf("[AudioManager] Warning: Failed to rewind cue %d: %v", value, err)
	}
	player.Play()
	return true
}

// Close 关闭所有缓存的播放器
func (am *AudioManager) Close() {
	for value, player := range am.cuePlayers {
		if err := player.Close(); err != nil {
			log.Printf("[AudioManager] Warning: Failed to close cue %d: %v", value, err)
		}
	}
	am.cuePlayers = make(map[uint32]*audio.Player)
}

// getCuePlayer 获取或合成提示音播放器
func (am *AudioManager) getCuePlayer(value uint32) *audio.Player {
	if player, exists := am.cuePlayers[value]; exists {
		return player
	}
	pcm := SynthesizeCue(am.context.SampleRate(), CueFrequency(value))
	player := am.context.NewPlayerFromBytes(pcm)
	am.cuePlayers[value] = player
	log.Printf("[AudioManager] Synthesized cue %d (%.1f Hz)", value, CueFrequency(value))
	return player
}

// getCueVolume 获取提示音音量设置
func (am *AudioManager) getCueVolume() float64 {
	if am.settingsManager != nil {
		return am.settingsManager.GetSettings().CueVolume
	}
	return DefaultSettings().CueVolume
}

// CueFrequency 返回标记值对应的提示音频率
func CueFrequency(value uint32) float64 {
	return cueBaseFreq * math.Pow(2, float64(value%cueSemitones)/cueSemitones)
}

// SynthesizeCue 合成一声带线性衰减包络的正弦提示音
//
// 返回 16 位小端双声道 PCM, 即 audio.Context.NewPlayerFromBytes 的输入格式
func SynthesizeCue(sampleRate int, freq float64) []byte {
	n := int(float64(sampleRate) * cueDuration)
	pcm := make([]byte, n*4)
	for i := 0; i < n; i++ {
		env := 1 - float64(i)/float64(n)
		v := cueAmplitude * env * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		s := uint16(int16(v * math.MaxInt16))
		binary.LittleEndian.PutUint16(pcm[i*4:], s)
		binary.LittleEndian.PutUint16(pcm[i*4+2:], s)
	}
	return pcm
}
