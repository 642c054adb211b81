package spritecomp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Rule data is authored by hand, so the scalar-or-list fields below accept
// several spellings in both JSON and YAML.

// IndexList is a list of sprite indices. Accepts 3, "3,4" or [3, 4].
type IndexList []int

// UnmarshalJSON implements json.Unmarshaler.
func (l *IndexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = parseIndexString(s)
	case len(data) > 0 && data[0] == '[':
		var v []int
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*l = v
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("spritecomp: index list: %w", err)
		}
		*l = IndexList{n}
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *IndexList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var v []int
		if err := value.Decode(&v); err != nil {
			return err
		}
		*l = v
	case yaml.ScalarNode:
		switch value.Tag {
		case "!!null":
			*l = nil
		case "!!int":
			n, err := strconv.Atoi(value.Value)
			if err != nil {
				return fmt.Errorf("spritecomp: index list: %w", err)
			}
			*l = IndexList{n}
		default:
			*l = parseIndexString(value.Value)
		}
	default:
		return fmt.Errorf("spritecomp: index list: unexpected yaml node kind %d", value.Kind)
	}
	return nil
}

// parseIndexString parses "1, 2,3"; parts that are not integers are skipped.
func parseIndexString(s string) IndexList {
	var out IndexList
	for _, part := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// TagSet is a set of lower-cased context tags. Accepts "a, b" or [a, b].
type TagSet []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = normalizeTags(strings.Split(s, ","))
	default:
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("spritecomp: context tags: %w", err)
		}
		*t = normalizeTags(v)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TagSet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var v []string
		if err := value.Decode(&v); err != nil {
			return err
		}
		*t = normalizeTags(v)
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*t = nil
			return nil
		}
		*t = normalizeTags(strings.Split(value.Value, ","))
	default:
		return fmt.Errorf("spritecomp: context tags: unexpected yaml node kind %d", value.Kind)
	}
	return nil
}

func normalizeTags(parts []string) TagSet {
	seen := make(map[string]struct{}, len(parts))
	var out TagSet
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// TextureList lists source texture asset names. Accepts "a" or ["a", "b"].
type TextureList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TextureList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TextureList{s}
	default:
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("spritecomp: source textures: %w", err)
		}
		*t = v
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TextureList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var v []string
		if err := value.Decode(&v); err != nil {
			return err
		}
		*t = v
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*t = nil
			return nil
		}
		*t = TextureList{value.Value}
	default:
		return fmt.Errorf("spritecomp: source textures: unexpected yaml node kind %d", value.Kind)
	}
	return nil
}

// Color is a required item color. A value that failed to parse is kept
// (Valid reports false) so the validator can drop just the owning rule.
type Color struct {
	value color.RGBA
	raw   string
	valid bool
}

// NewColor returns a valid Color.
func NewColor(c color.RGBA) Color {
	return Color{value: c, valid: true}
}

// Valid reports whether the color parsed.
func (c Color) Valid() bool { return c.valid }

// Value returns the parsed color.
func (c Color) Value() color.RGBA { return c.value }

func (c Color) String() string {
	if !c.valid {
		return c.raw
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.value.R, c.value.G, c.value.B, c.value.A)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("spritecomp: color: %w", err)
	}
	*c = parseColor(s)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("spritecomp: color: unexpected yaml node kind %d", value.Kind)
	}
	*c = parseColor(value.Value)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// parseColor accepts "#rrggbb", "#rrggbbaa", "r g b [a]" (spaces or commas)
// and CSS color names.
func parseColor(s string) Color {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	bad := Color{raw: raw}
	if s == "" {
		return bad
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return bad
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return bad
		}
		if len(hex) == 6 {
			v = v<<8 | 0xff
		}
		return NewColor(color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)})
	}
	if named, ok := colornames.Map[s]; ok {
		return NewColor(named)
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 3 && len(fields) != 4 {
		return bad
	}
	ch := [4]uint8{0, 0, 0, 255}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 255 {
			return bad
		}
		ch[i] = uint8(n)
	}
	return NewColor(color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]})
}
