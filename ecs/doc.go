// Package ecs provides ECS adapters for spritecomp.
//
// The primary adapter is [NewDonburiSink], which publishes spritecomp engine
// events (invalidations, rebuilt composites, discarded atlases and ledgers)
// into a [Donburi] world as typed events. Subscribe to [CompositorEventType]
// in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine, err := spritecomp.NewEngine(assets, items, spritecomp.Options{Events: sink})
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
