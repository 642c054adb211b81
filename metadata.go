package spritecomp

import "image"

// FrameHints carries the item-definition facts that decide how many frames
// make up one logical sprite index.
type FrameHints struct {
	// ColorOverlayFromNextIndex means the frame after each index holds a
	// color overlay (objects).
	ColorOverlayFromNextIndex bool
	// Seasonal items keep one frame per season.
	Seasonal bool
	// ShowNextIndexWhileWorking / ShowNextIndexWhenReady switch machines to
	// the next frame while processing or when output is ready.
	ShowNextIndexWhileWorking bool
	ShowNextIndexWhenReady    bool
	// EffectFrames lists frame offsets used by load/working effects.
	EffectFrames []int
	// IncrementIndex lists per-output index increments a machine may apply.
	IncrementIndex []int
}

// ItemMetadata is what the host knows about one item type.
type ItemMetadata struct {
	Key ItemTypeKey
	// Texture is the asset name of the item's own sprite sheet.
	Texture string
	// BaseFrame is the item's unmodified frame index within Texture.
	BaseFrame int
	// ReservedFrames is the number of the item's own frames placed at the
	// start of the composite, copied from Texture starting at BaseFrame.
	ReservedFrames int
	// FramesPerIndex, when positive, overrides the derived value.
	FramesPerIndex int
	// FrameSize overrides the per-type frame size when non-zero.
	FrameSize image.Point
	Hints     FrameHints
}

// ItemResolver resolves item metadata and sample instances from the host.
type ItemResolver interface {
	// ResolveMetadata returns the metadata for a qualified item id.
	ResolveMetadata(qualifiedID string) (ItemMetadata, bool)
	// Sample returns a representative instance for a qualified item id, used
	// to evaluate preserve predicates.
	Sample(qualifiedID string) (Instance, bool)
}

// DefaultFrameSize returns the frame size used for a type identifier.
func DefaultFrameSize(typeID string) image.Point {
	if typeID == TypeBigCraftable {
		return image.Pt(16, 32)
	}
	return image.Pt(16, 16)
}

// ResolvedFrameSize returns m.FrameSize, or the per-type default when unset.
func (m ItemMetadata) ResolvedFrameSize() image.Point {
	if m.FrameSize.X > 0 && m.FrameSize.Y > 0 {
		return m.FrameSize
	}
	return DefaultFrameSize(m.Key.TypeID)
}

// ResolvedFramesPerIndex derives the target frames-per-index for the item.
func (m ItemMetadata) ResolvedFramesPerIndex() int {
	fpi := 1
	if m.FramesPerIndex > 0 {
		fpi = m.FramesPerIndex
	} else {
		if m.Hints.Seasonal {
			fpi = max(fpi, 4)
		}
		if m.Hints.ColorOverlayFromNextIndex {
			fpi = max(fpi, 2)
		}
	}
	if m.Hints.ShowNextIndexWhileWorking || m.Hints.ShowNextIndexWhenReady {
		fpi = max(fpi, 2)
	}
	for _, f := range m.Hints.EffectFrames {
		fpi = max(fpi, f)
	}
	if len(m.Hints.IncrementIndex) > 0 {
		inc := m.Hints.IncrementIndex[0]
		for _, v := range m.Hints.IncrementIndex[1:] {
			inc = max(inc, v)
		}
		fpi += inc
	}
	return max(fpi, 1)
}
