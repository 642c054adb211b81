package spritecomp

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportComposites(t *testing.T) {
	f := newFixture(t, Options{})
	f.register()
	_, ok := f.engine.TryResolve(machineID)
	require.True(t, ok)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, f.engine.Export(ExportOptions{Dir: dir}))

	file, err := os.Open(filepath.Join(dir, "(BC)9.png"))
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 4), img.Bounds().Size())
	assert.Equal(t, color.NRGBA{R: 10, G: 1, A: 255}, color.NRGBAModel.Convert(img.At(8, 0)))

	data, err := os.ReadFile(filepath.Join(dir, "(BC)9.json"))
	require.NoError(t, err)
	var atlases []map[string]any
	require.NoError(t, json.Unmarshal(data, &atlases))
	require.Len(t, atlases, 2)
	assert.Equal(t, "tinted", atlases[0]["key"])
	assert.Equal(t, "bob", atlases[1]["contributor"])
}

func TestExportPerContributor(t *testing.T) {
	f := newFixture(t, Options{})
	f.register()

	dir := t.TempDir()
	require.NoError(t, f.engine.Export(ExportOptions{Dir: dir, PerContributor: true}))

	assert.FileExists(t, filepath.Join(dir, "alice", "tinted.json"))
	assert.FileExists(t, filepath.Join(dir, "bob", "spots.json"))
	_, err := os.Stat(filepath.Join(dir, "(BC)9.png"))
	assert.True(t, os.IsNotExist(err), "composites are not written in this mode")
}

func TestExportDefaultsToConfigDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExportDir = filepath.Join(t.TempDir(), "cfg-export")
	f := newFixture(t, Options{Config: cfg})
	f.register()
	f.engine.TryResolve(machineID)

	require.NoError(t, f.engine.Export(ExportOptions{}))
	assert.FileExists(t, filepath.Join(cfg.ExportDir, "(BC)9.png"))
}

func TestUnpremultiply(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 64, G: 32, A: 128})
	src.SetRGBA(1, 0, color.RGBA{})

	got := unpremultiply(src)
	assert.Equal(t, color.NRGBA{R: 127, G: 63, A: 128}, got.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, got.NRGBAAt(1, 0))
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"(BC)9":        "(BC)9",
		"a/b c":        "a_b_c",
		"  ":           "unnamed",
		"jelly-1.test": "jelly-1.test",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}
