package hostinterfaces

import "github.com/pkg/errors"

// World is the read side of the host simulation. Every call happens on the
// world thread and must reflect the state at the moment of the call.
type World interface {
	// Character looks up a character in the loaded world by id
	Character(id string) (CharacterInfo, bool)
	// Player returns the local player
	Player() PlayerInfo
	Calendar() Calendar
	Weather() Weather
	// Language returns the host's language setting in whatever form the host uses
	Language() string
	// HeldItem returns the item the player is actively holding, if any
	HeldItem() (Item, bool)
}

// Ledger is the host-owned relationship store.
type Ledger interface {
	// Points returns the friendship points with a character, 0 when unknown
	Points(characterId string) int
	// GiftCounters returns false when there is no relationship record yet
	GiftCounters(characterId string) (GiftCounters, bool)
	SetGiftCounters(characterId string, counters GiftCounters)
	// ApplyFriendship adds a signed delta to the friendship points
	ApplyFriendship(characterId string, delta int)
}

// Inventory removes and restores items held by the player.
type Inventory interface {
	Remove(item Item) error
	Restore(item Item) error
}

// Presenter is the host UI. Calls never block on the player.
type Presenter interface {
	// Suppress stops the host's native handling of a raw input
	Suppress(button string)
	ShowMessage(characterId string, text string)
	ShowChoices(characterId string, prompt string, choices []Choice)
	// Notify shows a short non-conversational notice
	Notify(text string)
}

// Host bundles every collaborator the engine needs.
type Host struct {
	World     World
	Ledger    Ledger
	Inventory Inventory
	Presenter Presenter
}

func (h Host) Validate() error {
	if h.World == nil {
		return errors.New(`host: missing World`)
	}
	if h.Ledger == nil {
		return errors.New(`host: missing Ledger`)
	}
	if h.Inventory == nil {
		return errors.New(`host: missing Inventory`)
	}
	if h.Presenter == nil {
		return errors.New(`host: missing Presenter`)
	}
	return nil
}
