package config

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestParseEngineConfig(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantErr  error
		validate func(*testing.T, *EngineConfig)
	}{
		{
			name: "defaults",
			yaml: "",
			validate: func(t *testing.T, cfg *EngineConfig) {
				if cfg.TPS != 60 || cfg.DefaultFadeMS != 250 {
					t.Errorf("tps=%d fade=%v, want 60 and 250", cfg.TPS, cfg.DefaultFadeMS)
				}
				if cfg.PriorityTiers[TierBody] != 1 || cfg.PriorityTiers[TierTalk] != 2 {
					t.Errorf("tiers = %v", cfg.PriorityTiers)
				}
				if cfg.Save.AppName == "" {
					t.Error("expected default app name")
				}
			},
		},
		{
			name: "custom tiers keep builtins",
			yaml: `
tps: 30
priority_tiers:
  body: 5
  cutscene: 10
`,
			validate: func(t *testing.T, cfg *EngineConfig) {
				if cfg.TPS != 30 {
					t.Errorf("tps = %d, want 30", cfg.TPS)
				}
				want := map[string]int{TierBody: 5, TierTalk: 2, "cutscene": 10}
				for k, v := range want {
					if cfg.PriorityTiers[k] != v {
						t.Errorf("tier %s = %d, want %d", k, cfg.PriorityTiers[k], v)
					}
				}
				if got := strings.Join(cfg.TierNames(), ","); got != "body,cutscene,talk" {
					t.Errorf("TierNames = %s", got)
				}
			},
		},
		{name: "zero tps", yaml: "tps: 0\n", wantErr: ErrInvalidConfig},
		{name: "negative fade", yaml: "default_fade_ms: -1\n", wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseEngineConfig([]byte(tt.yaml))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestParseEngineConfig_BadYAML(t *testing.T) {
	if _, err := ParseEngineConfig([]byte("tps: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolvePriority(t *testing.T) {
	cfg := DefaultEngineConfig()
	if p, err := cfg.ResolvePriority(TierTalk); err != nil || p != 2 {
		t.Errorf("ResolvePriority(talk) = %d, %v", p, err)
	}
	if _, err := cfg.ResolvePriority("face"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("ResolvePriority(face) error = %v, want ErrUnknownTier", err)
	}
	if got := cfg.TickSeconds(); got != 1.0/60 {
		t.Errorf("TickSeconds = %v", got)
	}
}

func TestLoadEngineConfig(t *testing.T) {
	fsys := fstest.MapFS{"data/engine.yaml": {Data: []byte("tps: 120\n")}}
	cfg, err := LoadEngineConfig(fsys, "data/engine.yaml")
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	if cfg.TPS != 120 {
		t.Errorf("tps = %d, want 120", cfg.TPS)
	}
	if _, err := LoadEngineConfig(fsys, "data/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
