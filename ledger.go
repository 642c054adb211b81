package spritecomp

// Ledger reconciles the engine's chosen frame for one instance with a raw
// frame field that other code may overwrite at any time. The field is never
// treated as owned state: the ledger keeps its own three integers and folds
// external writes in as deltas.
//
// The displayed frame is Picked + Changed - Base.
type Ledger struct {
	picked   int
	base     int
	changed  int
	anchored bool
}

// Picked returns the engine's current chosen frame.
func (l *Ledger) Picked() int { return l.picked }

// Base returns the anchor frame recorded at the last reset.
func (l *Ledger) Base() int { return l.base }

// Changed returns the anchor plus all external deltas folded in since.
func (l *Ledger) Changed() int { return l.changed }

// Effective returns the frame the raw field should hold.
func (l *Ledger) Effective() int {
	return l.picked + l.changed - l.base
}

// Apply records a new pick and writes the effective frame to field. With
// reset, the ledger re-anchors on baseAnchor, carrying over only the
// external part of the field's current value; a ledger that was never
// anchored always anchors, starting from a zero delta.
func (l *Ledger) Apply(field FrameField, picked, baseAnchor int, reset bool) {
	switch {
	case !l.anchored:
		l.base = baseAnchor
		l.changed = baseAnchor
		l.anchored = true
	case reset:
		// Strip our own pick offset, then move the delta onto the new anchor.
		raw := field.SpriteIndex() - (l.picked - l.base)
		l.changed = raw - l.base + baseAnchor
		l.base = baseAnchor
	}
	l.picked = picked
	field.SetSpriteIndex(l.Effective())
}

// Reconcile folds an external write of newRaw into the ledger and leaves the
// field holding the recomputed effective frame. A write of the value the
// ledger itself produced is a no-op.
func (l *Ledger) Reconcile(field FrameField, newRaw int) {
	if !l.anchored {
		return
	}
	if diff := newRaw - l.Effective(); diff != 0 {
		l.changed += diff
	}
	if field.SpriteIndex() != l.Effective() {
		field.SetSpriteIndex(l.Effective())
	}
}

// Release writes the frame the field would hold without an override: the
// anchor plus every external delta.
func (l *Ledger) Release(field FrameField) {
	if !l.anchored {
		return
	}
	field.SetSpriteIndex(l.changed)
	l.anchored = false
}
