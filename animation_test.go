package spritecomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tanema/gween/ease"
)

func TestFramePlayerLoops(t *testing.T) {
	p := NewFramePlayer(2, 1, nil)

	assert.Equal(t, 0, p.Update(0.25))
	assert.Equal(t, 1, p.Update(0.5))
	assert.Equal(t, 0, p.Update(0.5), "wraps to the first frame")
	assert.False(t, p.Done)
}

func TestFramePlayerOneShot(t *testing.T) {
	p := NewFramePlayer(4, 1, ease.Linear)
	p.Loop = false

	p.Update(0.5)
	p.Update(0.5)
	p.Update(0.5)

	assert.True(t, p.Done)
	assert.Equal(t, 3, p.Frame())
	assert.Equal(t, 3, p.Update(1), "a finished player holds its last frame")

	p.Reset()
	assert.False(t, p.Done)
	assert.Equal(t, 0, p.Frame())
}

func TestFramePlayerClampsFrameCount(t *testing.T) {
	p := NewFramePlayer(0, 1, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, p.Update(0.3))
	}
}
