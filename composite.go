package spritecomp

import (
	"image"

	"golang.org/x/image/draw"
)

// CompositeSources are the decoded images a composite is painted from.
type CompositeSources struct {
	// Base is the item's own sprite sheet, used for reserved frames. May be
	// nil.
	Base      image.Image
	BaseFrame int
	// Atlases pairs 1:1 with the atlases passed to Compose. A nil entry
	// contributes no frames.
	Atlases []image.Image
}

// Compose paints the layout into dst and returns the surface actually used.
// dst only ever grows: when it is too small a larger surface is allocated,
// keeping the bigger of the old and new dimensions. The surface is cleared
// to transparent before painting.
func Compose(dst *image.RGBA, l Layout, atlases []*RuleAtlas, src CompositeSources) *image.RGBA {
	dst = ensureSurface(dst, l.TextureSize, l.FrameSize.X)
	clear(dst.Pix)
	if l.FrameSize.X <= 0 || l.FrameSize.Y <= 0 {
		return dst
	}

	if src.Base != nil && l.ReservedFrames > 0 {
		base := toRGBA(src.Base)
		for k := 0; k < l.ReservedFrames; k++ {
			copyFrame(dst, k, base, src.BaseFrame+k, l.FrameSize)
		}
	}

	for i, a := range atlases {
		if i >= len(src.Atlases) || src.Atlases[i] == nil {
			continue
		}
		s := toRGBA(src.Atlases[i])
		// Source frames past the target's framesPerIndex have no slot and
		// are dropped; missing ones stay transparent.
		n := min(a.sourceFPI(l.FramesPerIndex), l.FramesPerIndex)
		for _, r := range a.Rules {
			for k, local := range r.Indices {
				if k >= len(r.ActualIndices) {
					break
				}
				actual := r.ActualIndices[k]
				for j := 0; j < n; j++ {
					copyFrame(dst, actual+j, s, local+j, l.FrameSize)
				}
			}
		}
	}
	return dst
}

// ensureSurface returns dst when it already covers size, otherwise a new
// surface covering both. A surface whose width is not a whole number of
// frames is replaced outright.
func ensureSurface(dst *image.RGBA, size image.Point, frameWidth int) *image.RGBA {
	w, h := max(size.X, 1), max(size.Y, 1)
	if dst != nil && frameWidth > 0 && dst.Rect.Dx()%frameWidth == 0 {
		if dst.Rect.Dx() >= w && dst.Rect.Dy() >= h {
			return dst
		}
		w = max(w, dst.Rect.Dx())
		h = max(h, dst.Rect.Dy())
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// toRGBA returns img as a tightly packed, origin-anchored premultiplied
// RGBA image, converting when necessary.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// copyFrame copies frame srcIdx of src into frame dstIdx of dst row by row.
// A row whose source range would run past the end of the source pixels is
// filled transparent instead.
func copyFrame(dst *image.RGBA, dstIdx int, src *image.RGBA, srcIdx int, fs image.Point) {
	srcW, dstW := src.Rect.Dx(), dst.Rect.Dx()
	if dstW < fs.X || dstIdx < 0 {
		return
	}
	sr := FrameRect(srcIdx, srcW, fs)
	dr := FrameRect(dstIdx, dstW, fs)
	srcPixels := len(src.Pix) / 4
	dstPixels := len(dst.Pix) / 4
	rowBytes := 4 * fs.X

	for r := 0; r < fs.Y; r++ {
		dstStart := dr.Min.X + (dr.Min.Y+r)*dstW
		if dstStart+fs.X > dstPixels {
			return
		}
		dstRow := dst.Pix[4*dstStart : 4*dstStart+rowBytes]

		srcStart := sr.Min.X + (sr.Min.Y+r)*srcW
		if srcW < fs.X || srcIdx < 0 || srcStart+fs.X > srcPixels {
			clear(dstRow)
			continue
		}
		copy(dstRow, src.Pix[4*srcStart:4*srcStart+rowBytes])
	}
}
