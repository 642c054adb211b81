package spritecomp

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func colorPtr(c color.RGBA) *Color {
	v := NewColor(c)
	return &v
}

func TestRulePrecedence(t *testing.T) {
	red := colorPtr(color.RGBA{R: 255, A: 255})
	tests := []struct {
		name string
		rule SpriteIndexRule
		want int
	}{
		{"no requirements", SpriteIndexRule{}, 100},
		{"context tags", SpriteIndexRule{Requirements: Requirements{ContextTags: TagSet{"a"}}}, 0},
		{"color", SpriteIndexRule{Requirements: Requirements{Color: red}}, 50},
		{"condition", SpriteIndexRule{Requirements: Requirements{Condition: "RAINING"}}, 80},
		{"only the most specific counts", SpriteIndexRule{Requirements: Requirements{ContextTags: TagSet{"a"}, Color: red, Condition: "X"}}, 0},
		{"held object tags", SpriteIndexRule{HeldObject: &Requirements{ContextTags: TagSet{"a"}}}, 90},
		{"held object condition", SpriteIndexRule{HeldObject: &Requirements{Condition: "X"}}, 98},
		{"preserve color", SpriteIndexRule{Preserve: &Requirements{Color: red}}, 90},
		{"preserve tags", SpriteIndexRule{Preserve: &Requirements{ContextTags: TagSet{"a"}}}, 80},
		{"all levels", SpriteIndexRule{
			Requirements: Requirements{Color: red},
			HeldObject:   &Requirements{ContextTags: TagSet{"a"}},
			Preserve:     &Requirements{ContextTags: TagSet{"b"}},
		}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Precedence())
		})
	}
}

func TestRuleMatchesTopLevel(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	m := &Matcher{Conditions: func(cond string, _ Instance) bool { return cond == "SUNNY" }}

	tests := []struct {
		name string
		req  Requirements
		inst Instance
		want bool
	}{
		{"no requirements", Requirements{}, newItem("(O)1"), true},
		{"all tags present", Requirements{ContextTags: TagSet{"a", "b"}}, newItem("(O)1", "a", "b", "c"), true},
		{"a tag missing", Requirements{ContextTags: TagSet{"a", "b"}}, newItem("(O)1", "a"), false},
		{"color matches", Requirements{Color: colorPtr(red)}, &fakeItem{qid: "(O)1", color: &red}, true},
		{"color differs", Requirements{Color: colorPtr(color.RGBA{B: 255, A: 255})}, &fakeItem{qid: "(O)1", color: &red}, false},
		{"uncolored item", Requirements{Color: colorPtr(red)}, newItem("(O)1"), false},
		{"not colorable", Requirements{Color: colorPtr(red)}, &plainItem{qid: "(O)1"}, false},
		{"condition holds", Requirements{Condition: "SUNNY"}, newItem("(O)1"), true},
		{"condition fails", Requirements{Condition: "RAINING"}, newItem("(O)1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &SpriteIndexRule{Requirements: tt.req}
			assert.Equal(t, tt.want, r.Matches(tt.inst, m))
		})
	}
}

func TestRuleConditionWithoutChecker(t *testing.T) {
	r := &SpriteIndexRule{Requirements: Requirements{Condition: "ANY"}}
	assert.False(t, r.Matches(newItem("(O)1"), &Matcher{}))
}

func TestRuleMatchesHeldObject(t *testing.T) {
	r := &SpriteIndexRule{HeldObject: &Requirements{ContextTags: TagSet{"fruit"}}}
	m := &Matcher{}

	holder := newItem("(BC)1")
	assert.False(t, r.Matches(holder, m), "holds nothing")

	holder.held = newItem("(O)2", "fruit")
	assert.True(t, r.Matches(holder, m))

	holder.held = newItem("(O)3", "vegetable")
	assert.False(t, r.Matches(holder, m))

	assert.False(t, r.Matches(&plainItem{qid: "(BC)1"}, m), "cannot hold")
}

func TestRuleMatchesPreserve(t *testing.T) {
	samples := map[string]Instance{"(O)613": newItem("(O)613", "color_red")}
	m := &Matcher{Sample: func(qid string) (Instance, bool) {
		inst, ok := samples[qid]
		return inst, ok
	}}
	r := &SpriteIndexRule{Preserve: &Requirements{ContextTags: TagSet{"color_red"}}}

	jelly := newItem("(O)344")
	assert.False(t, r.Matches(jelly, m), "no preserved item")

	jelly.preserved = "(O)613"
	assert.True(t, r.Matches(jelly, m))

	jelly.preserved = "(O)999"
	assert.False(t, r.Matches(jelly, m), "unknown preserved item")

	assert.False(t, r.Matches(jelly, &Matcher{}), "no sample source")
}

func TestRuleDefaultID(t *testing.T) {
	r := &SpriteIndexRule{Indices: IndexList{4, 0, 2}}
	assert.Equal(t, "0|2|4", r.defaultID())
}
