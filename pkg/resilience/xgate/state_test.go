package xgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "TRIPPED", StateTripped.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestState_Code(t *testing.T) {
	// 状态码是对外稳定契约，用于 gauge 上报
	assert.Equal(t, 0, StateOpen.Code())
	assert.Equal(t, 1, StateTripped.Code())
	assert.Equal(t, 2, StateHalfOpen.Code())
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  State
	}{
		{"exact match", "TRIPPED", StateTripped},
		{"lowercase", "half_open", StateHalfOpen},
		{"mixed case", "Open", StateOpen},
		{"surrounding whitespace", "  tripped\n", StateTripped},
		{"unknown falls back to open", "bogus", StateOpen},
		{"empty falls back to open", "", StateOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseState(tt.input))
		})
	}
}
