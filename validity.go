package spritecomp

import (
	"slices"
	"strings"
)

// Validity is the two-level dirty state of one composite. Layout validity
// covers index placement and everything derived from item metadata; pixel
// validity covers only the painted surface. A texture-only change clears
// just PixelsValid.
type Validity struct {
	LayoutValid bool
	PixelsValid bool
}

// Valid reports whether both levels are valid.
func (v Validity) Valid() bool {
	return v.LayoutValid && v.PixelsValid
}

// tracker holds per-key validity and the set of keys awaiting the next
// tick. Invalidating a key that is already pending coalesces into the
// existing entry.
type tracker struct {
	states  map[ItemTypeKey]*Validity
	pending map[ItemTypeKey]struct{}
}

func newTracker() *tracker {
	return &tracker{
		states:  make(map[ItemTypeKey]*Validity),
		pending: make(map[ItemTypeKey]struct{}),
	}
}

func (t *tracker) state(key ItemTypeKey) *Validity {
	v, ok := t.states[key]
	if !ok {
		v = &Validity{}
		t.states[key] = v
	}
	return v
}

// invalidateLayout clears layout validity and schedules the key for the
// next tick. Reports whether the flag changed; re-applying is a no-op.
func (t *tracker) invalidateLayout(key ItemTypeKey) bool {
	t.pending[key] = struct{}{}
	v := t.state(key)
	changed := v.LayoutValid
	v.LayoutValid = false
	return changed
}

// invalidatePixels clears pixel validity only and schedules the key.
// Reports whether the flag changed.
func (t *tracker) invalidatePixels(key ItemTypeKey) bool {
	t.pending[key] = struct{}{}
	v := t.state(key)
	changed := v.PixelsValid
	v.PixelsValid = false
	return changed
}

func (t *tracker) setLayoutValid(key ItemTypeKey) {
	t.state(key).LayoutValid = true
}

func (t *tracker) setPixelsValid(key ItemTypeKey) {
	t.state(key).PixelsValid = true
}

func (t *tracker) isPending(key ItemTypeKey) bool {
	_, ok := t.pending[key]
	return ok
}

// drain returns the pending keys in qualified-id order and empties the set.
func (t *tracker) drain() []ItemTypeKey {
	if len(t.pending) == 0 {
		return nil
	}
	keys := make([]ItemTypeKey, 0, len(t.pending))
	for k := range t.pending {
		keys = append(keys, k)
	}
	clear(t.pending)
	slices.SortFunc(keys, func(a, b ItemTypeKey) int {
		return strings.Compare(a.QualifiedID(), b.QualifiedID())
	})
	return keys
}

func (t *tracker) forget(key ItemTypeKey) {
	delete(t.states, key)
	delete(t.pending, key)
}

func (t *tracker) reset() {
	clear(t.states)
	clear(t.pending)
}

// settle removes key from the pending set after an out-of-tick rebuild.
func (t *tracker) settle(key ItemTypeKey) {
	delete(t.pending, key)
}
