package events

import "time"

// Event is one host notification delivered on the world thread.
// The set of events is closed; Type() is used for listener lookup.
type Event interface {
	Type() string
}

type ListenerReturn int8

const (
	Continue ListenerReturn = iota // let later listeners see the event
	Cancel                         // stop dispatching this event
)

type Listener func(e Event) ListenerReturn

// WorldLoaded fires when a save is loaded or the world is reloaded.
type WorldLoaded struct{}

func (e WorldLoaded) Type() string { return `WorldLoaded` }

// ButtonPressed is a raw action press resolved to a target character.
type ButtonPressed struct {
	ActorId           string
	TargetCharacterId string
	Button            string
	HeldItemRef       string
	Timestamp         time.Time
}

func (e ButtonPressed) Type() string { return `ButtonPressed` }

// NewTick marks a tick boundary. Tick is monotonically increasing.
type NewTick struct {
	Tick uint64
}

func (e NewTick) Type() string { return `NewTick` }

// CursorMoved is the low-frequency event that drives the gate watchdog.
type CursorMoved struct {
	Timestamp time.Time
}

func (e CursorMoved) Type() string { return `CursorMoved` }

// DisplayClosed means the host finished showing a character's message.
type DisplayClosed struct {
	CharacterId string
}

func (e DisplayClosed) Type() string { return `DisplayClosed` }

// ChoiceSelected carries the key of the choice the player picked.
type ChoiceSelected struct {
	CharacterId string
	Key         string
}

func (e ChoiceSelected) Type() string { return `ChoiceSelected` }
