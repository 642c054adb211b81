// Package spritecomp packs sprite variants from many contributors into one
// texture per item type and picks which variant each item instance shows,
// for [Ebitengine] games.
//
// Each contributor ships rule data: a map of [RuleAtlas] values, one per item
// type, each naming source textures and ordered [SpriteIndexRule] entries
// that select frames by context tag, color, condition, held object or
// preserved item. The engine validates the data, lays every atlas of an item
// out in one shared index space, paints the result into a composite texture
// and, on draw, matches an instance against the rules.
//
// # Quick start
//
//	assets := spritecomp.NewDirAssets("assets")
//	engine, err := spritecomp.NewEngine(assets, resolver, spritecomp.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine.RegisterContributor("alice.flowers", "alice/flowers")
//
// Call [Engine.Update] once per tick so invalidated composites are rebuilt,
// and wrap each item draw in a scope:
//
//	scope := engine.BeginDraw(item)
//	drawItem(screen, item)
//	scope.End()
//
// # Frame fields
//
// An instance's frame field belongs to the host: anything may write it. The
// engine never treats it as its own state. A [Ledger] per instance keeps the
// engine's pick apart from external deltas, so an animator that adds one to
// the field keeps its "+1" after the engine picks a different variant.
// Report external writes with [Engine.NotifyFieldChanged].
//
// # Invalidation
//
// Composites carry two validity flags. A reloaded texture only repaints
// pixels; reloaded rule data or item definitions re-plan the layout. Both
// are deferred to the next [Engine.Update] and coalesce, while a pending
// composite keeps serving its previous state.
//
// Events can be observed through an [EventSink]; the spritecomp/ecs module
// publishes them into a [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package spritecomp
