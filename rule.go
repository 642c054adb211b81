package spritecomp

import (
	"image/color"
	"slices"
	"strconv"
	"strings"
)

// FrameField is the host-owned, freely mutable displayed-frame field of an
// item instance. Code outside this package may write it at any time.
type FrameField interface {
	SpriteIndex() int
	SetSpriteIndex(index int)
}

// Instance is one item instance as seen by the rule matcher. Implementations
// must be comparable (typically a pointer) because ledgers are keyed by
// instance identity.
type Instance interface {
	FrameField
	QualifiedItemID() string
	HasContextTag(tag string) bool
}

// Colored is implemented by colorable instances.
type Colored interface {
	ItemColor() (color.RGBA, bool)
}

// Holder is implemented by instances that can hold another object.
type Holder interface {
	HeldObject() Instance
}

// Preserver is implemented by instances that reference a preserved item,
// e.g. the fruit a jar of jelly was made from.
type Preserver interface {
	PreservedItemID() string
}

// ConditionChecker evaluates a game-state condition string against a target
// instance.
type ConditionChecker func(condition string, target Instance) bool

// Requirements is the predicate half of a rule. Every present requirement
// must hold.
type Requirements struct {
	ContextTags TagSet `json:"requiredContextTags,omitempty" yaml:"requiredContextTags,omitempty"`
	Color       *Color `json:"requiredColor,omitempty" yaml:"requiredColor,omitempty"`
	Condition   string `json:"requiredCondition,omitempty" yaml:"requiredCondition,omitempty"`
}

// precedenceMod scores only the most specific requirement present.
func (r *Requirements) precedenceMod() int {
	switch {
	case r == nil:
		return 0
	case len(r.ContextTags) > 0:
		return -100
	case r.Color != nil:
		return -50
	case r.Condition != "":
		return -20
	}
	return 0
}

// SpriteIndexRule is one rule of a RuleAtlas: a predicate plus the local
// indices it selects from.
type SpriteIndexRule struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Requirements `yaml:",inline"`

	Indices        IndexList     `json:"indices" yaml:"indices"`
	IncludeDefault bool          `json:"includeDefault,omitempty" yaml:"includeDefault,omitempty"`
	HeldObject     *Requirements `json:"heldObject,omitempty" yaml:"heldObject,omitempty"`
	Preserve       *Requirements `json:"preserve,omitempty" yaml:"preserve,omitempty"`

	// ActualIndices is filled by the layout planner and pairs 1:1 with
	// Indices.
	ActualIndices []int `json:"actualIndices,omitempty" yaml:"-"`
}

// Precedence scores the rule's specificity; lower wins. Nested requirements
// are scaled down so top-level specificity always dominates.
func (r *SpriteIndexRule) Precedence() int {
	return 100 + r.Requirements.precedenceMod() + r.HeldObject.precedenceMod()/10 + r.Preserve.precedenceMod()/5
}

// defaultID joins the sorted indices with "|".
func (r *SpriteIndexRule) defaultID() string {
	sorted := slices.Clone([]int(r.Indices))
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, idx := range sorted {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "|")
}

// Matches reports whether inst satisfies the rule, including its held-object
// and preserve predicates.
func (r *SpriteIndexRule) Matches(inst Instance, m *Matcher) bool {
	if !checkRequirements(&r.Requirements, inst, m) {
		return false
	}
	if r.HeldObject != nil {
		h, ok := inst.(Holder)
		if !ok {
			return false
		}
		held := h.HeldObject()
		if held == nil || !checkRequirements(r.HeldObject, held, m) {
			return false
		}
	}
	if r.Preserve != nil {
		p, ok := inst.(Preserver)
		if !ok {
			return false
		}
		qid := p.PreservedItemID()
		if qid == "" || m.Sample == nil {
			return false
		}
		preserved, ok := m.Sample(qid)
		if !ok || !checkRequirements(r.Preserve, preserved, m) {
			return false
		}
	}
	return true
}

func checkRequirements(req *Requirements, inst Instance, m *Matcher) bool {
	if req.Color != nil {
		c, ok := inst.(Colored)
		if !ok || !req.Color.Valid() {
			return false
		}
		got, has := c.ItemColor()
		if !has || got != req.Color.Value() {
			return false
		}
	}
	for _, tag := range req.ContextTags {
		if !inst.HasContextTag(tag) {
			return false
		}
	}
	if req.Condition != "" {
		if m.Conditions == nil || !m.Conditions(req.Condition, inst) {
			return false
		}
	}
	return true
}
