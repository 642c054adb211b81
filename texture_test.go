package spritecomp

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeTextureUploadsLazily(t *testing.T) {
	var tex compositeTexture
	assert.Nil(t, tex.Image(nil))

	pix := strip(2, fs4, 1)
	tex.markDirty()
	first := tex.Image(pix)
	require.NotNil(t, first)
	assert.Equal(t, image.Pt(8, 4), first.Bounds().Size())
	assert.False(t, tex.dirty)
	assert.Same(t, first, tex.Image(pix), "clean texture is reused")

	tex.markDirty()
	assert.Same(t, first, tex.Image(pix), "same size reuses the image")

	tex.markDirty()
	bigger := tex.Image(strip(3, fs4, 1))
	assert.Equal(t, image.Pt(12, 4), bigger.Bounds().Size())

	tex.Dispose()
	assert.Nil(t, tex.image)
	assert.NotNil(t, tex.Image(pix), "disposed texture allocates again")
}
