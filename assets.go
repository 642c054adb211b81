package spritecomp

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrAssetNotFound is returned by asset providers for unknown names.
var ErrAssetNotFound = errors.New("spritecomp: asset not found")

// AssetProvider is the authoritative, read-only source of textures and
// contributor rule data.
type AssetProvider interface {
	Exists(name string) bool
	LoadTexture(name string) (image.Image, error)
	// LoadRuleAtlases returns a freshly decoded atlas map on every call.
	LoadRuleAtlases(name string) (map[string]*RuleAtlas, error)
}

// InvalidationSource is implemented by providers that announce reloaded
// assets. The engine subscribes to it when present.
type InvalidationSource interface {
	OnAssetsInvalidated(fn func(names []string))
}

// RuleDataFormat selects the rule data decoder.
type RuleDataFormat uint8

const (
	FormatJSON RuleDataFormat = iota // encoding/json
	FormatYAML                       // gopkg.in/yaml.v3
)

// DecodeRuleAtlases decodes a contributor rule data document: a map from
// atlas key to atlas.
func DecodeRuleAtlases(data []byte, format RuleDataFormat) (map[string]*RuleAtlas, error) {
	var out map[string]*RuleAtlas
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("spritecomp: parse rule data: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("spritecomp: parse rule data: %w", err)
		}
	}
	if out == nil {
		out = make(map[string]*RuleAtlas)
	}
	return out, nil
}

type invalidationListeners []func(names []string)

func (l *invalidationListeners) OnAssetsInvalidated(fn func(names []string)) {
	*l = append(*l, fn)
}

func (l invalidationListeners) fire(names []string) {
	for _, fn := range l {
		fn(names)
	}
}

// --- in-memory provider ---

type memRuleData struct {
	data   []byte
	format RuleDataFormat
}

// MemAssets is an in-memory AssetProvider. Textures are stored as decoded
// images; rule data is stored encoded and decoded on each load so callers
// never share atlas values.
type MemAssets struct {
	textures map[string]image.Image
	data     map[string]memRuleData
	invalidationListeners
}

// NewMemAssets returns an empty in-memory provider.
func NewMemAssets() *MemAssets {
	return &MemAssets{
		textures: make(map[string]image.Image),
		data:     make(map[string]memRuleData),
	}
}

// PutTexture stores a texture under name.
func (m *MemAssets) PutTexture(name string, img image.Image) {
	m.textures[name] = img
}

// PutRuleData stores an encoded rule data document under name.
func (m *MemAssets) PutRuleData(name string, data []byte, format RuleDataFormat) {
	m.data[name] = memRuleData{data: slices.Clone(data), format: format}
}

// Remove deletes any asset stored under name.
func (m *MemAssets) Remove(name string) {
	delete(m.textures, name)
	delete(m.data, name)
}

// Invalidate announces that the named assets changed.
func (m *MemAssets) Invalidate(names ...string) {
	m.fire(names)
}

// Exists implements AssetProvider.
func (m *MemAssets) Exists(name string) bool {
	if _, ok := m.textures[name]; ok {
		return true
	}
	_, ok := m.data[name]
	return ok
}

// LoadTexture implements AssetProvider.
func (m *MemAssets) LoadTexture(name string) (image.Image, error) {
	img, ok := m.textures[name]
	if !ok {
		return nil, fmt.Errorf("%w: texture %q", ErrAssetNotFound, name)
	}
	return img, nil
}

// LoadRuleAtlases implements AssetProvider.
func (m *MemAssets) LoadRuleAtlases(name string) (map[string]*RuleAtlas, error) {
	d, ok := m.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: rule data %q", ErrAssetNotFound, name)
	}
	return DecodeRuleAtlases(d.data, d.format)
}

// --- filesystem provider ---

// DirAssets serves assets from a directory. An asset name maps to a
// slash-separated path under Root plus an extension: ".png" for textures,
// ".json", ".yaml" or ".yml" for rule data.
type DirAssets struct {
	Root string
	invalidationListeners
}

// NewDirAssets returns a provider rooted at dir.
func NewDirAssets(dir string) *DirAssets {
	return &DirAssets{Root: dir}
}

var ruleDataExts = []struct {
	ext    string
	format RuleDataFormat
}{
	{".json", FormatJSON},
	{".yaml", FormatYAML},
	{".yml", FormatYAML},
}

func (d *DirAssets) path(name, ext string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name)) + ext
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Invalidate announces that the named assets changed on disk.
func (d *DirAssets) Invalidate(names ...string) {
	d.fire(names)
}

// Exists implements AssetProvider.
func (d *DirAssets) Exists(name string) bool {
	if fileExists(d.path(name, ".png")) {
		return true
	}
	for _, e := range ruleDataExts {
		if fileExists(d.path(name, e.ext)) {
			return true
		}
	}
	return false
}

// LoadTexture implements AssetProvider.
func (d *DirAssets) LoadTexture(name string) (image.Image, error) {
	f, err := os.Open(d.path(name, ".png"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: texture %q", ErrAssetNotFound, name)
		}
		return nil, fmt.Errorf("spritecomp: open texture %q: %w", name, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("spritecomp: decode texture %q: %w", name, err)
	}
	return img, nil
}

// LoadRuleAtlases implements AssetProvider.
func (d *DirAssets) LoadRuleAtlases(name string) (map[string]*RuleAtlas, error) {
	for _, e := range ruleDataExts {
		data, err := os.ReadFile(d.path(name, e.ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("spritecomp: read rule data %q: %w", name, err)
		}
		return DecodeRuleAtlases(data, e.format)
	}
	return nil, fmt.Errorf("%w: rule data %q", ErrAssetNotFound, name)
}
