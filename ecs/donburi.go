// Package ecs provides ECS adapters for spritecomp.
package ecs

import (
	"github.com/phanxgames/spritecomp"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// CompositorEventType is the Donburi event type for spritecomp engine events.
var CompositorEventType = events.NewEventType[spritecomp.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Engine
// events are published to CompositorEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) spritecomp.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event spritecomp.Event) {
	CompositorEventType.Publish(s.world, event)
}
