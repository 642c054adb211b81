package spritecomp

import (
	"image"
	"slices"
)

// DefaultMaxWidth caps the composite texture width in pixels.
const DefaultMaxWidth = 4096

// LayoutParams are the target-side inputs to the layout planner.
type LayoutParams struct {
	FrameSize      image.Point
	FramesPerIndex int
	// ReservedFrames is where the planner's cursor starts: the item's own
	// frames occupy [0, ReservedFrames).
	ReservedFrames int
	MaxWidth       int
}

// Layout is the planner's output for one item type.
type Layout struct {
	FrameSize      image.Point
	FramesPerIndex int
	ReservedFrames int
	// NextFreeIndex is one past the last index any atlas may draw into.
	NextFreeIndex int
	TextureSize   image.Point

	identity []uint64
}

// samePixels reports whether a composite painted for o can be reused as-is
// for l.
func (l Layout) samePixels(o Layout) bool {
	return l.TextureSize == o.TextureSize &&
		l.FrameSize == o.FrameSize &&
		l.FramesPerIndex == o.FramesPerIndex &&
		l.ReservedFrames == o.ReservedFrames &&
		slices.Equal(l.identity, o.identity)
}

// effectiveMaxWidth rounds the width cap down to whole frames, never below
// one frame.
func effectiveMaxWidth(maxWidth, frameWidth int) int {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	w := maxWidth / frameWidth * frameWidth
	return max(w, frameWidth)
}

// PlanLayout assigns every atlas a contiguous, non-overlapping range of the
// shared index space and fills each rule's ActualIndices. Atlases are placed
// in slice order.
func PlanLayout(atlases []*RuleAtlas, p LayoutParams) Layout {
	fpi := max(p.FramesPerIndex, 1)
	out := Layout{
		FrameSize:      p.FrameSize,
		FramesPerIndex: fpi,
		ReservedFrames: max(p.ReservedFrames, 0),
		identity:       make([]uint64, 0, len(atlases)),
	}
	next := out.ReservedFrames

	for _, a := range atlases {
		out.identity = append(out.identity, a.fingerprint())

		// Pass 1: renumber the distinct local indices, spreading them out
		// when the source packs fewer frames per index than the target.
		var distinct []int
		for _, r := range a.Rules {
			distinct = append(distinct, r.Indices...)
		}
		slices.Sort(distinct)
		distinct = slices.Compact(distinct)
		if len(distinct) == 0 {
			continue
		}
		pad := max(fpi-a.sourceFPI(fpi), 0)
		renumbered := make(map[int]int, len(distinct))
		for rank, idx := range distinct {
			renumbered[idx] = idx + pad*rank
		}
		a.LocalMinIndex = renumbered[distinct[0]]
		a.LocalMaxIndex = renumbered[distinct[len(distinct)-1]]

		// Pass 2: place the atlas at the cursor.
		a.BaseOffset = next - a.LocalMinIndex
		for _, r := range a.Rules {
			r.ActualIndices = r.ActualIndices[:0]
			for _, idx := range r.Indices {
				r.ActualIndices = append(r.ActualIndices, a.BaseOffset+renumbered[idx])
			}
		}
		next = a.BaseOffset + a.LocalMaxIndex + fpi
	}

	out.NextFreeIndex = next
	fw, fh := p.FrameSize.X, p.FrameSize.Y
	if fw > 0 && fh > 0 {
		maxW := effectiveMaxWidth(p.MaxWidth, fw)
		span := next * fw
		out.TextureSize = image.Pt(min(span, maxW), (span/maxW+1)*fh)
	}
	return out
}

// FrameRect returns the rectangle of frame index within a sheet of the given
// width, laid out row-major like a standard sprite sheet.
func FrameRect(index, sheetWidth int, frameSize image.Point) image.Rectangle {
	if sheetWidth <= 0 {
		return image.Rectangle{}
	}
	x := index * frameSize.X % sheetWidth
	y := index * frameSize.X / sheetWidth * frameSize.Y
	return image.Rect(x, y, x+frameSize.X, y+frameSize.Y)
}
