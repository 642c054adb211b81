package spritecomp

// EventType identifies what happened to a composite.
type EventType uint8

const (
	EventLayoutInvalidated EventType = iota // layout and pixels must be rebuilt
	EventPixelsInvalidated                  // only pixels must be repainted
	EventComposited                         // a composite was rebuilt on tick
	EventAtlasDiscarded                     // the validator rejected an atlas or rule
	EventLedgerDiscarded                    // an instance lost its override
)

var eventTypeNames = [...]string{
	EventLayoutInvalidated: "layout-invalidated",
	EventPixelsInvalidated: "pixels-invalidated",
	EventComposited:        "composited",
	EventAtlasDiscarded:    "atlas-discarded",
	EventLedgerDiscarded:   "ledger-discarded",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// Event is published to an EventSink as the engine changes state.
type Event struct {
	Type        EventType
	Key         ItemTypeKey
	Contributor string
	Atlas       string
	// Message carries the diagnostic for EventAtlasDiscarded.
	Message string
}

// EventSink receives engine events synchronously, on the caller's goroutine.
type EventSink interface {
	EmitEvent(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// EmitEvent implements EventSink.
func (f EventSinkFunc) EmitEvent(e Event) { f(e) }
