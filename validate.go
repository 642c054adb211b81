package spritecomp

import (
	"errors"
	"fmt"
	"slices"
)

// Validator diagnostics. A Diagnostic wraps one of these.
var (
	ErrNoItem          = errors.New("atlas names no item")
	ErrNoRules         = errors.New("atlas has no valid rules")
	ErrNoSourceTexture = errors.New("atlas has no existing source texture")
	ErrFramesPerIndex  = errors.New("sourceFramesPerIndex must be at least 1")
	ErrIndexSpacing    = errors.New("declared indices are closer together than sourceFramesPerIndex")
	ErrEmptyRule       = errors.New("rule declares no indices")
	ErrNegativeIndex   = errors.New("rule declares a negative index")
	ErrBadColor        = errors.New("rule requires an unparseable color")
)

// Diagnostic explains why an atlas or one of its rules was dropped.
type Diagnostic struct {
	Contributor string
	Asset       string
	Key         string
	Rule        string // empty when the whole atlas was discarded
	Err         error
}

func (d Diagnostic) Error() string {
	if d.Rule != "" {
		return fmt.Sprintf("spritecomp: atlas %q rule %q from %q: %v", d.Key, d.Rule, d.Asset, d.Err)
	}
	return fmt.Sprintf("spritecomp: atlas %q from %q: %v", d.Key, d.Asset, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

// ValidationResult is the outcome of validating one contributor asset.
type ValidationResult struct {
	// Atlases holds the surviving atlases ordered by key.
	Atlases     []*RuleAtlas
	Diagnostics []Diagnostic
	// Missing lists declared source textures that do not exist, so a later
	// reload of any of them can re-run validation.
	Missing []string
	// OptionsRewritten is set when a persisted texture choice no longer
	// matched any offered texture and was reset to the first option.
	OptionsRewritten bool
}

// ValidateAtlases normalizes the raw atlases of one contributor asset. Bad
// rules are dropped; an atlas left with no rules, no existing texture or
// inconsistent spacing is discarded wholesale. raw is modified in place.
func ValidateAtlases(contributor, asset string, raw map[string]*RuleAtlas, exists func(name string) bool, options map[string]TextureOption) ValidationResult {
	var res ValidationResult
	missing := make(map[string]struct{})

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		a := raw[key]
		diag := func(rule string, err error) {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Contributor: contributor, Asset: asset, Key: key, Rule: rule, Err: err,
			})
		}
		if a == nil || a.TypeID == "" || a.LocalID == "" {
			diag("", ErrNoItem)
			continue
		}

		kept := a.Rules[:0]
		for i, r := range a.Rules {
			if r == nil {
				continue
			}
			if r.ID == "" {
				r.ID = r.defaultID()
			}
			name := r.ID
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			switch {
			case len(r.Indices) == 0:
				diag(name, ErrEmptyRule)
			case slices.Min(r.Indices) < 0:
				diag(name, ErrNegativeIndex)
			case badColor(r):
				diag(name, ErrBadColor)
			default:
				kept = append(kept, r)
			}
		}
		clear(a.Rules[len(kept):])
		a.Rules = kept
		if len(a.Rules) == 0 {
			diag("", ErrNoRules)
			continue
		}

		if a.SourceFramesPerIndex != nil {
			spi := *a.SourceFramesPerIndex
			if spi < 1 {
				diag("", ErrFramesPerIndex)
				continue
			}
			if !spacedBy(a.Rules, spi) {
				diag("", ErrIndexSpacing)
				continue
			}
		}

		a.Options = a.Options[:0]
		for _, tex := range a.SourceTextures {
			if tex == "" {
				continue
			}
			if !exists(tex) {
				missing[tex] = struct{}{}
				continue
			}
			a.Options = append(a.Options, tex)
		}
		if len(a.Options) == 0 {
			diag("", ErrNoSourceTexture)
			continue
		}

		a.Key = key
		a.Contributor = contributor
		a.SourceAsset = asset
		a.Enabled = true
		a.Chosen = 0
		if opt, ok := options[key]; ok {
			a.Enabled = opt.Enabled
			a.Chosen = slices.Index(a.Options, opt.Texture)
			if a.Chosen < 0 {
				a.Chosen = 0
				res.OptionsRewritten = true
			}
		}
		res.Atlases = append(res.Atlases, a)
	}

	for tex := range missing {
		res.Missing = append(res.Missing, tex)
	}
	slices.Sort(res.Missing)
	return res
}

func badColor(r *SpriteIndexRule) bool {
	for _, req := range []*Requirements{&r.Requirements, r.HeldObject, r.Preserve} {
		if req != nil && req.Color != nil && !req.Color.Valid() {
			return true
		}
	}
	return false
}

// spacedBy reports whether all distinct declared indices are at least spi
// apart.
func spacedBy(rules []*SpriteIndexRule, spi int) bool {
	var all []int
	for _, r := range rules {
		all = append(all, r.Indices...)
	}
	slices.Sort(all)
	all = slices.Compact(all)
	for i := 1; i < len(all); i++ {
		if all[i]-all[i-1] < spi {
			return false
		}
	}
	return true
}
