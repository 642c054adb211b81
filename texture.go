package spritecomp

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// compositeTexture is the GPU-side copy of a composite surface. Uploads are
// lazy: the pixels are written on the first Image call after they change.
// Like the surface it mirrors, it only ever grows.
type compositeTexture struct {
	image *ebiten.Image
	w, h  int
	dirty bool
}

// markDirty schedules an upload on next access.
func (t *compositeTexture) markDirty() {
	t.dirty = true
}

// Image returns the texture for pix, uploading first if pix changed since
// the last call. Returns nil when pix is nil.
func (t *compositeTexture) Image(pix *image.RGBA) *ebiten.Image {
	if pix == nil {
		return t.image
	}
	if !t.dirty && t.image != nil {
		return t.image
	}
	w, h := pix.Rect.Dx(), pix.Rect.Dy()
	if t.image == nil || t.w != w || t.h != h {
		if t.image != nil {
			t.image.Deallocate()
		}
		t.image = ebiten.NewImage(w, h)
		t.w, t.h = w, h
	}
	t.image.WritePixels(pix.Pix)
	t.dirty = false
	return t.image
}

// Dispose deallocates the underlying image. The texture may be reused; the
// next Image call allocates again.
func (t *compositeTexture) Dispose() {
	if t.image != nil {
		t.image.Deallocate()
		t.image = nil
	}
	t.w, t.h = 0, 0
	t.dirty = true
}
