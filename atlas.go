package spritecomp

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// RuleAtlas is one contributor's variant set for one item type: the source
// images it may be drawn from and the rules that pick its frames.
type RuleAtlas struct {
	TypeID         string             `json:"typeIdentifier" yaml:"typeIdentifier"`
	LocalID        string             `json:"localItemId" yaml:"localItemId"`
	Name           string             `json:"name,omitempty" yaml:"name,omitempty"`
	SourceTextures TextureList        `json:"sourceTextures" yaml:"sourceTextures"`
	// SourceFramesPerIndex is the frame count per logical index in the
	// source image; nil means "same as the target".
	SourceFramesPerIndex *int               `json:"sourceFramesPerIndex,omitempty" yaml:"sourceFramesPerIndex,omitempty"`
	Rules                []*SpriteIndexRule `json:"rules" yaml:"rules"`

	// Assigned by the validator.
	Key         string   `json:"key" yaml:"-"`
	Contributor string   `json:"contributor" yaml:"-"`
	SourceAsset string   `json:"sourceAsset" yaml:"-"`
	Options     []string `json:"textureOptions" yaml:"-"`
	Chosen      int      `json:"chosen" yaml:"-"`
	Enabled     bool     `json:"enabled" yaml:"-"`

	// Assigned by the layout planner.
	BaseOffset    int `json:"baseOffset" yaml:"-"`
	LocalMinIndex int `json:"localMinIndex" yaml:"-"`
	LocalMaxIndex int `json:"localMaxIndex" yaml:"-"`
}

// ItemKey returns the item type this atlas contributes to.
func (a *RuleAtlas) ItemKey() ItemTypeKey {
	return ItemTypeKey{TypeID: a.TypeID, LocalID: a.LocalID}
}

// ChosenTexture returns the asset name of the currently chosen source
// texture, or "" when the atlas has no options.
func (a *RuleAtlas) ChosenTexture() string {
	if a.Chosen < 0 || a.Chosen >= len(a.Options) {
		return ""
	}
	return a.Options[a.Chosen]
}

// sourceFPI returns the declared source frames-per-index, or target when
// undeclared.
func (a *RuleAtlas) sourceFPI(target int) int {
	if a.SourceFramesPerIndex == nil {
		return target
	}
	return *a.SourceFramesPerIndex
}

// fingerprint hashes everything that decides where and what this atlas
// draws: its identity, declared indices, spacing and chosen texture.
// Runtime-assigned offsets are excluded.
func (a *RuleAtlas) fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(a.Contributor)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(a.Key)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(a.ChosenTexture())
	_, _ = d.WriteString("\x00")
	if a.SourceFramesPerIndex != nil {
		_, _ = d.WriteString(strconv.Itoa(*a.SourceFramesPerIndex))
	}
	for _, r := range a.Rules {
		_, _ = d.WriteString("|")
		for _, idx := range r.Indices {
			_, _ = d.WriteString(strconv.Itoa(idx))
			_, _ = d.WriteString(",")
		}
	}
	return d.Sum64()
}

// TextureOption is the persisted user choice for one atlas.
type TextureOption struct {
	Enabled bool   `yaml:"enabled"`
	Texture string `yaml:"texture"`
}
