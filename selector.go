package spritecomp

import "math/rand/v2"

// Rand is the random source used to pick among a winning rule's indices.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Matcher evaluates rules against instances and picks the frame to show.
type Matcher struct {
	// Conditions evaluates RequiredCondition strings. A nil checker fails
	// every rule that declares a condition.
	Conditions ConditionChecker
	// Sample resolves the preserved item of an instance.
	Sample func(qualifiedID string) (Instance, bool)
	// Rand defaults to the math/rand/v2 global source.
	Rand Rand
}

// Selection is the outcome of a successful match.
type Selection struct {
	Atlas *RuleAtlas
	Rule  *SpriteIndexRule
	// Frame is the composite frame index; meaningless when Default is set.
	Frame int
	// Default is set when the winning rule drew its "no override" outcome.
	Default bool
	// Slot is the position of Frame within Rule.ActualIndices, or -1 for
	// the default outcome.
	Slot int
}

// Winner returns the enabled rule with the lowest precedence that inst
// satisfies. Ties go to the earliest rule in atlas order.
func (m *Matcher) Winner(atlases []*RuleAtlas, inst Instance) (*RuleAtlas, *SpriteIndexRule) {
	var (
		bestAtlas *RuleAtlas
		bestRule  *SpriteIndexRule
		bestPrec  int
	)
	for _, a := range atlases {
		if !a.Enabled {
			continue
		}
		for _, r := range a.Rules {
			if len(r.ActualIndices) == 0 {
				continue
			}
			p := r.Precedence()
			if bestRule != nil && p >= bestPrec {
				continue
			}
			if r.Matches(inst, m) {
				bestAtlas, bestRule, bestPrec = a, r, p
			}
		}
	}
	return bestAtlas, bestRule
}

// Select picks the winning rule for inst and draws one of its outcomes.
// Reports false when no rule matches.
func (m *Matcher) Select(atlases []*RuleAtlas, inst Instance) (Selection, bool) {
	a, r := m.Winner(atlases, inst)
	if r == nil {
		return Selection{}, false
	}
	return m.Pick(a, r), true
}

// Pick draws uniformly among r's actual indices, plus the "no override"
// outcome when the rule includes the default variant.
func (m *Matcher) Pick(a *RuleAtlas, r *SpriteIndexRule) Selection {
	rnd := m.Rand
	if rnd == nil {
		rnd = globalRand{}
	}
	n := len(r.ActualIndices)
	if r.IncludeDefault {
		n++
	}
	if n == 0 {
		return Selection{Atlas: a, Rule: r, Default: true, Slot: -1}
	}
	pick := rnd.IntN(n)
	if r.IncludeDefault {
		if pick == 0 {
			return Selection{Atlas: a, Rule: r, Default: true, Slot: -1}
		}
		pick--
	}
	return Selection{Atlas: a, Rule: r, Frame: r.ActualIndices[pick], Slot: pick}
}
