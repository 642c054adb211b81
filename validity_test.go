package spritecomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerStartsInvalid(t *testing.T) {
	tr := newTracker()
	k := ItemTypeKey{TypeID: TypeObject, LocalID: "1"}
	assert.Equal(t, Validity{}, *tr.state(k))
	assert.False(t, tr.state(k).Valid())
	assert.False(t, tr.isPending(k))
}

func TestTrackerTransitions(t *testing.T) {
	tr := newTracker()
	k := ItemTypeKey{TypeID: TypeObject, LocalID: "1"}
	tr.setLayoutValid(k)
	tr.setPixelsValid(k)
	assert.True(t, tr.state(k).Valid())

	assert.True(t, tr.invalidatePixels(k))
	assert.Equal(t, Validity{LayoutValid: true}, *tr.state(k), "texture changes leave the layout alone")
	assert.False(t, tr.invalidatePixels(k), "re-applying is a no-op")

	tr.setPixelsValid(k)
	assert.True(t, tr.invalidateLayout(k))
	assert.Equal(t, Validity{PixelsValid: true}, *tr.state(k))
	assert.False(t, tr.invalidateLayout(k))
}

func TestTrackerPendingCoalesces(t *testing.T) {
	tr := newTracker()
	a := ItemTypeKey{TypeID: TypeObject, LocalID: "b"}
	b := ItemTypeKey{TypeID: TypeBigCraftable, LocalID: "a"}
	c := ItemTypeKey{TypeID: TypeObject, LocalID: "a"}

	tr.invalidateLayout(a)
	tr.invalidatePixels(a)
	tr.invalidateLayout(a)
	tr.invalidatePixels(b)
	tr.invalidateLayout(c)
	assert.True(t, tr.isPending(a))

	keys := tr.drain()
	assert.Equal(t, []ItemTypeKey{b, c, a}, keys, "one entry per key in qualified-id order")
	assert.False(t, tr.isPending(a))
	assert.Nil(t, tr.drain())
}

func TestTrackerFailedBuildCanBeRescheduled(t *testing.T) {
	tr := newTracker()
	k := ItemTypeKey{TypeID: TypeObject, LocalID: "1"}
	tr.invalidatePixels(k)
	tr.drain()

	// The rebuild failed, so the flag is still false; a later reload must
	// still schedule it.
	assert.False(t, tr.invalidatePixels(k))
	assert.True(t, tr.isPending(k))
}

func TestTrackerForgetAndReset(t *testing.T) {
	tr := newTracker()
	a := ItemTypeKey{TypeID: TypeObject, LocalID: "1"}
	b := ItemTypeKey{TypeID: TypeObject, LocalID: "2"}
	tr.invalidateLayout(a)
	tr.invalidateLayout(b)

	tr.forget(a)
	assert.False(t, tr.isPending(a))
	assert.True(t, tr.isPending(b))

	tr.settle(b)
	assert.False(t, tr.isPending(b))

	tr.setLayoutValid(b)
	tr.reset()
	assert.Empty(t, tr.states)
	assert.Empty(t, tr.pending)
}
