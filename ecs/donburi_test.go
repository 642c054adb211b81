package ecs

import (
	"testing"

	"github.com/phanxgames/spritecomp"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []spritecomp.Event
	CompositorEventType.Subscribe(world, func(w donburi.World, e spritecomp.Event) {
		received = append(received, e)
	})

	key := spritecomp.ItemTypeKey{TypeID: spritecomp.TypeBigCraftable, LocalID: "12"}
	sink.EmitEvent(spritecomp.Event{Type: spritecomp.EventLayoutInvalidated, Key: key, Contributor: "alice"})
	sink.EmitEvent(spritecomp.Event{Type: spritecomp.EventComposited, Key: key})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("expected no events before processing, got %d", len(received))
	}
	CompositorEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != spritecomp.EventLayoutInvalidated || received[0].Contributor != "alice" {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Type != spritecomp.EventComposited || received[1].Key != key {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiSink_EngineEvents(t *testing.T) {
	world := donburi.NewWorld()

	assets := spritecomp.NewMemAssets()
	assets.PutRuleData("alice/rules", []byte(`{"bad": {"typeIdentifier": "(O)", "localItemId": "1", "sourceTextures": "missing", "rules": [{"indices": [0]}]}}`), spritecomp.FormatJSON)

	engine, err := spritecomp.NewEngine(assets, nopResolver{}, spritecomp.Options{Events: NewDonburiSink(world)})
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	var discarded int
	CompositorEventType.Subscribe(world, func(w donburi.World, e spritecomp.Event) {
		if e.Type == spritecomp.EventAtlasDiscarded {
			discarded++
		}
	})
	engine.RegisterContributor("alice", "alice/rules")
	events.ProcessAllEvents(world)

	if discarded != 1 {
		t.Errorf("expected 1 discarded atlas event, got %d", discarded)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	CompositorEventType.Subscribe(world, func(w donburi.World, e spritecomp.Event) {
		count1++
	})
	CompositorEventType.Subscribe(world, func(w donburi.World, e spritecomp.Event) {
		count2++
	})

	sink.EmitEvent(spritecomp.Event{Type: spritecomp.EventPixelsInvalidated})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

type nopResolver struct{}

func (nopResolver) ResolveMetadata(string) (spritecomp.ItemMetadata, bool) {
	return spritecomp.ItemMetadata{}, false
}

func (nopResolver) Sample(string) (spritecomp.Instance, bool) { return nil, false }
