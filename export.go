package spritecomp

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// ExportOptions selects where and how Export writes composites.
type ExportOptions struct {
	// Dir defaults to Config.ExportDir.
	Dir string
	// PerContributor writes one JSON dump of every validated atlas per
	// contributor under Dir/<contributor>/ instead of one image per
	// composite.
	PerContributor bool
}

// Export writes debugging output for inspection. By default every built
// composite is written as <qualified id>.png (straight alpha) next to a
// <qualified id>.json dump of its resolved atlases. Export is not needed for
// correct rendering.
func (e *Engine) Export(opts ExportOptions) error {
	dir := opts.Dir
	if dir == "" {
		dir = e.cfg.ExportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("spritecomp: export: mkdir %s: %w", dir, err)
	}

	if opts.PerContributor {
		for _, c := range e.contributors {
			sub := filepath.Join(dir, sanitizeName(c.id))
			if err := os.MkdirAll(sub, 0o755); err != nil {
				return fmt.Errorf("spritecomp: export: mkdir %s: %w", sub, err)
			}
			for _, a := range c.atlases {
				path := filepath.Join(sub, sanitizeName(a.Key)+".json")
				if err := writeJSON(path, a); err != nil {
					return err
				}
			}
		}
		e.log.WithField("dir", dir).Info("exported contributor atlases")
		return nil
	}

	keys := make([]ItemTypeKey, 0, len(e.composites))
	for k, c := range e.composites {
		if c.built {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b ItemTypeKey) int {
		return strings.Compare(a.QualifiedID(), b.QualifiedID())
	})
	for _, k := range keys {
		c := e.composites[k]
		name := sanitizeName(k.QualifiedID())
		if err := writePNG(filepath.Join(dir, name+".png"), unpremultiply(c.pix)); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(dir, name+".json"), c.atlases); err != nil {
			return err
		}
		e.log.WithFields(logrus.Fields{"item": k.QualifiedID(), "dir": dir}).Info("exported composite")
	}
	return nil
}

// unpremultiply converts premultiplied RGBA to straight-alpha NRGBA.
func unpremultiply(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := img.PixOffset(0, y)
		for x := 0; x < 4*b.Dx(); x += 4 {
			r, g, bl, a := src.Pix[si+x], src.Pix[si+x+1], src.Pix[si+x+2], src.Pix[si+x+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			img.Pix[di+x] = r
			img.Pix[di+x+1] = g
			img.Pix[di+x+2] = bl
			img.Pix[di+x+3] = a
		}
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spritecomp: export: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("spritecomp: export: encode %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("spritecomp: export: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("spritecomp: export: write %s: %w", path, err)
	}
	return nil
}

// sanitizeName replaces characters that are unsafe in file names with
// underscores and falls back to "unnamed" for empty strings.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.', r == '(', r == ')':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
