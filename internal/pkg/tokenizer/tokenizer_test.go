package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiktokenCounter_Count(t *testing.T) {
	counter, err := NewTiktokenCounter()
	require.NoError(t, err)

	assert.Equal(t, 0, counter.Count(""))
	assert.Equal(t, 1, counter.Count("hello"))

	short := counter.Count("What is the minimum wage?")
	long := counter.Count("What is the minimum wage? The minimum wage is set by regional regulation.")
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}

func TestApproximate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single short word", text: "hi", want: 1},
		{name: "many short words", text: "a b c d e", want: 5},
		{name: "long word", text: "abcdefghijklmnop", want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Approximate(tt.text))
			assert.Equal(t, tt.want, ApproximateCounter{}.Count(tt.text))
		})
	}
}
