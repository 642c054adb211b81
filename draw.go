package spritecomp

import (
	"image"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// Drawable is implemented by instances whose texture and source rectangle
// the engine may swap for the duration of a draw.
type Drawable interface {
	DrawTexture() (*ebiten.Image, image.Rectangle)
	SetDrawTexture(tex *ebiten.Image, src image.Rectangle)
}

// SelectFrame matches inst against its item's rules and brings its ledger
// up to date. It returns the composite frame the instance displays and true
// when an override is active. A ledger keeps its pick while the same rule
// keeps winning; a different winner draws again, and no winner releases the
// ledger so the instance reverts to its own frame.
func (e *Engine) SelectFrame(inst Instance) (int, bool) {
	if inst == nil {
		return 0, false
	}
	entry := e.ledgers[inst]
	key, ok := ParseQualifiedID(inst.QualifiedItemID())
	var c *composite
	if ok {
		c = e.resolve(key)
	}
	if entry != nil && (c == nil || entry.key != key) {
		e.release(inst, entry)
		entry = nil
	}
	if c == nil {
		return 0, false
	}

	a, r := e.matcher.Winner(c.atlases, inst)
	if r == nil {
		if entry != nil {
			e.release(inst, entry)
		}
		return 0, false
	}
	if entry == nil {
		entry = &ledgerEntry{key: key}
		e.ledgers[inst] = entry
	}
	if entry.ledger.anchored && entry.sameRule(a, r) {
		entry.atlas, entry.rule = a, r
	} else {
		e.pick(inst, entry, c, a, r, false)
	}
	return entry.ledger.Effective(), entry.override
}

func (l *ledgerEntry) sameRule(a *RuleAtlas, r *SpriteIndexRule) bool {
	if l.rule == r {
		return true
	}
	return l.atlas != nil && l.rule != nil &&
		l.atlas.Contributor == a.Contributor &&
		l.atlas.Key == a.Key &&
		l.rule.ID == r.ID
}

// pick draws a new outcome from the winning rule and applies it. The
// "no override" outcome applies the item's own base frame.
func (e *Engine) pick(inst Instance, entry *ledgerEntry, c *composite, a *RuleAtlas, r *SpriteIndexRule, reset bool) {
	sel := e.matcher.Pick(a, r)
	e.apply(inst, entry, c, a, r, sel.Slot, reset)
	e.log.WithFields(logrus.Fields{
		"item":  inst.QualifiedItemID(),
		"atlas": a.Key,
		"rule":  r.ID,
		"frame": entry.ledger.Effective(),
	}).Trace("picked frame")
}

// keep re-applies the outcome entry already drew when the same rule still
// wins, mapping its slot onto the rule's current actual indices. Reports
// false when a new draw is needed.
func (e *Engine) keep(inst Instance, entry *ledgerEntry, c *composite, a *RuleAtlas, r *SpriteIndexRule, reset bool) bool {
	if !entry.ledger.anchored || !entry.sameRule(a, r) {
		return false
	}
	if entry.slot >= len(r.ActualIndices) || (entry.slot < 0 && !r.IncludeDefault) {
		return false
	}
	e.apply(inst, entry, c, a, r, entry.slot, reset)
	return true
}

func (e *Engine) apply(inst Instance, entry *ledgerEntry, c *composite, a *RuleAtlas, r *SpriteIndexRule, slot int, reset bool) {
	base := c.meta.BaseFrame
	picked := base
	if slot >= 0 {
		picked = r.ActualIndices[slot]
	}
	entry.ledger.Apply(inst, picked, base, reset)
	entry.atlas, entry.rule = a, r
	entry.override, entry.slot = slot >= 0, slot
}

// release writes the instance's un-overridden frame back and forgets the
// ledger.
func (e *Engine) release(inst Instance, entry *ledgerEntry) {
	entry.ledger.Release(inst)
	delete(e.ledgers, inst)
	e.emit(Event{Type: EventLedgerDiscarded, Key: entry.key})
}

// repickKey re-runs selection for every ledger of key after a rebuild,
// keeping each ledger's anchor. A ledger whose rule still wins keeps the
// outcome it drew, moved to wherever the layout now places it.
func (e *Engine) repickKey(key ItemTypeKey) {
	c := e.composites[key]
	for inst, entry := range e.ledgers {
		if entry.key != key {
			continue
		}
		a, r := e.matcher.Winner(c.atlases, inst)
		if r == nil {
			e.release(inst, entry)
			continue
		}
		if !e.keep(inst, entry, c, a, r, false) {
			e.pick(inst, entry, c, a, r, false)
		}
	}
}

// NotifyFieldChanged folds an external write of an instance's frame field
// into its ledger. Instances without a ledger are ignored.
func (e *Engine) NotifyFieldChanged(inst Instance, newRaw int) {
	if entry := e.ledgers[inst]; entry != nil {
		entry.ledger.Reconcile(inst, newRaw)
	}
}

// Reanchor re-anchors an instance's ledger on the item's base frame, keeping
// any external delta already present in the field. The drawn outcome is
// kept while the same rule wins. Call after the instance was loaded from a
// save.
func (e *Engine) Reanchor(inst Instance) {
	entry := e.ledgers[inst]
	if entry == nil {
		e.SelectFrame(inst)
		return
	}
	c := e.composites[entry.key]
	if c == nil || !c.built {
		e.release(inst, entry)
		return
	}
	a, r := e.matcher.Winner(c.atlases, inst)
	if r == nil {
		e.release(inst, entry)
		return
	}
	if !e.keep(inst, entry, c, a, r, true) {
		e.pick(inst, entry, c, a, r, true)
	}
}

// ReanchorAll re-anchors every live ledger.
func (e *Engine) ReanchorAll() {
	insts := make([]Instance, 0, len(e.ledgers))
	for inst := range e.ledgers {
		insts = append(insts, inst)
	}
	for _, inst := range insts {
		e.Reanchor(inst)
	}
}

// Forget drops an instance's ledger without touching its field, e.g. when
// the instance was destroyed.
func (e *Engine) Forget(inst Instance) {
	delete(e.ledgers, inst)
	delete(e.drawing, inst)
}

// Ledger returns a copy of an instance's ledger.
func (e *Engine) Ledger(inst Instance) (Ledger, bool) {
	if entry := e.ledgers[inst]; entry != nil {
		return entry.ledger, true
	}
	return Ledger{}, false
}

// DrawScope restores every texture swapped by BeginDraw.
type DrawScope struct {
	e       *Engine
	entered []drawEntry
}

type drawEntry struct {
	inst    Instance
	d       Drawable
	tex     *ebiten.Image
	src     image.Rectangle
	swapped bool
}

// BeginDraw prepares inst and every object it holds for drawing. Each
// instance gets its frame selected and, when it is Drawable and has an
// override, its texture swapped to the composite. Instances already inside
// an open scope are left alone. Call End on the returned scope once the
// host finished drawing.
func (e *Engine) BeginDraw(inst Instance) *DrawScope {
	s := &DrawScope{e: e}
	var seen []Instance
	for cur := inst; cur != nil && !slices.Contains(seen, cur); cur = heldObject(cur) {
		seen = append(seen, cur)
		if _, busy := e.drawing[cur]; busy {
			continue
		}
		e.drawing[cur] = struct{}{}
		de := drawEntry{inst: cur}
		frame, ok := e.SelectFrame(cur)
		if d, isDrawable := cur.(Drawable); ok && isDrawable {
			if key, valid := ParseQualifiedID(cur.QualifiedItemID()); valid {
				if c := e.composites[key]; c != nil && c.built {
					res := e.resolved(c)
					de.d = d
					de.tex, de.src = d.DrawTexture()
					d.SetDrawTexture(res.Texture, res.FrameRect(frame))
					de.swapped = true
				}
			}
		}
		s.entered = append(s.entered, de)
	}
	return s
}

func heldObject(inst Instance) Instance {
	if h, ok := inst.(Holder); ok {
		return h.HeldObject()
	}
	return nil
}

// End restores swapped textures in reverse order. Calling End twice is a
// no-op.
func (s *DrawScope) End() {
	for i := len(s.entered) - 1; i >= 0; i-- {
		de := s.entered[i]
		if de.swapped {
			de.d.SetDrawTexture(de.tex, de.src)
		}
		delete(s.e.drawing, de.inst)
	}
	s.entered = nil
}
