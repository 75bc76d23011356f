package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachine(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []bool
		chainLen int
		want     State
	}{
		{"primary succeeds", []bool{true}, 3, State{Phase: PhaseSucceeded, Index: 0}},
		{"second fallback succeeds", []bool{false, false, true}, 3, State{Phase: PhaseSucceeded, Index: 2}},
		{"all fail", []bool{false, false, false}, 3, State{Phase: PhaseFailed, Index: 2}},
		{"single model fails", []bool{false}, 1, State{Phase: PhaseFailed, Index: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Start()
			for _, ok := range tt.outcomes {
				assert.False(t, s.Terminal())
				s = Next(s, ok, tt.chainLen)
			}
			assert.Equal(t, tt.want, s)
			assert.True(t, s.Terminal())
		})
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	done := State{Phase: PhaseSucceeded, Index: 1}
	assert.Equal(t, done, Next(done, false, 3))

	failed := State{Phase: PhaseFailed, Index: 2}
	assert.Equal(t, failed, Next(failed, true, 3))
	assert.Equal(t, "failed", failed.Phase.String())
}
