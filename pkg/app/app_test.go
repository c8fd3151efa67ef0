package app

import "testing"

func TestPickCostume(t *testing.T) {
	ids := []string{"humanoid", "humanoid_chatty"}
	tests := []struct {
		name      string
		requested string
		last      string
		want      string
	}{
		{"flag wins", "humanoid_chatty", "humanoid", "humanoid_chatty"},
		{"last viewed", "", "humanoid_chatty", "humanoid_chatty"},
		{"stale last falls back to first", "", "robot", "humanoid"},
		{"nothing set", "", "", "humanoid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickCostume(tt.requested, tt.last, ids); got != tt.want {
				t.Errorf("pickCostume(%q, %q) = %q, want %q", tt.requested, tt.last, got, tt.want)
			}
		})
	}
}
