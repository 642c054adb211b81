package spritecomp

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// FramePlayer steps through the frames of one variant, e.g. the
// FramesPerIndex frames of a working machine. It plays like any external
// animator would: by offsetting the instance's frame field and letting the
// ledger fold the delta in.
//
// There is no global animation manager; call Update or Drive each frame.
type FramePlayer struct {
	tween  *gween.Tween
	frames int
	frame  int
	// Loop restarts the animation when it finishes.
	Loop bool
	Done bool
}

// NewFramePlayer creates a looping player over frames frames lasting
// duration seconds per cycle. A nil fn plays linearly.
func NewFramePlayer(frames int, duration float32, fn ease.TweenFunc) *FramePlayer {
	if fn == nil {
		fn = ease.Linear
	}
	frames = max(frames, 1)
	return &FramePlayer{
		tween:  gween.New(0, float32(frames), duration, fn),
		frames: frames,
		Loop:   true,
	}
}

// Frame returns the current frame offset in [0, frames).
func (p *FramePlayer) Frame() int { return p.frame }

// Update advances the player by dt seconds and returns the frame offset.
func (p *FramePlayer) Update(dt float32) int {
	if p.Done {
		return p.frame
	}
	val, finished := p.tween.Update(dt)
	if finished {
		if p.Loop {
			p.tween.Reset()
			val = 0
		} else {
			p.Done = true
			val = float32(p.frames - 1)
		}
	}
	p.frame = min(max(int(val), 0), p.frames-1)
	return p.frame
}

// Reset rewinds the player to its first frame.
func (p *FramePlayer) Reset() {
	p.tween.Reset()
	p.frame = 0
	p.Done = false
}

// Drive advances the player and applies the frame step to inst's field,
// notifying e so the instance's ledger keeps the offset across re-picks.
func (p *FramePlayer) Drive(e *Engine, inst Instance, dt float32) {
	before := p.frame
	after := p.Update(dt)
	if after == before {
		return
	}
	raw := inst.SpriteIndex() + after - before
	inst.SetSpriteIndex(raw)
	e.NotifyFieldChanged(inst, raw)
}
