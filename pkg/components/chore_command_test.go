package components

import "testing"

// TestChoreOpString 测试命令名称
func TestChoreOpString(t *testing.T) {
	tests := []struct {
		op   ChoreOp
		want string
	}{
		{ChoreOpPlay, "play"},
		{ChoreOpPlayLooping, "play_looping"},
		{ChoreOpStopAll, "stop_all"},
		{ChoreOpComplete, "complete"},
		{ChoreOp(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestChoreCommandComponent_Defaults 测试零值
func TestChoreCommandComponent_Defaults(t *testing.T) {
	cmd := &ChoreCommandComponent{
		Commands: []ChoreCommand{{Op: ChoreOpFadeOut, Chore: "wave", FadeMS: 300}},
	}
	if cmd.Processed {
		t.Error("Expected Processed to be false")
	}
	if got := cmd.Commands[0]; got.Chore != "wave" || got.FadeMS != 300 || got.Looping {
		t.Errorf("unexpected command %+v", got)
	}
}
