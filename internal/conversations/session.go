package conversations

import (
	"github.com/StardewEchoes/echoes/internal/gifts"
)

// State is where a character's conversation stands. Every transition is
// made on the world thread by the Manager.
type State uint8

const (
	StateIdle State = iota
	// StateRequestPending owns the character's history until the request resolves.
	StateRequestPending
	// StateAwaitingDisplay waits for the host to close the message box.
	StateAwaitingDisplay
	// StatePresentingOptions waits for the player to pick a response or exit.
	StatePresentingOptions
	// StateErrorRetryPrompt waits for retry or exit after a failed request.
	StateErrorRetryPrompt
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return `idle`
	case StateRequestPending:
		return `request-pending`
	case StateAwaitingDisplay:
		return `awaiting-display`
	case StatePresentingOptions:
		return `presenting-options`
	case StateErrorRetryPrompt:
		return `error-retry-prompt`
	case StateClosed:
		return `closed`
	}
	return `unknown`
}

// waitingOnHost reports states that only move when the host or the player
// does something.
func (s State) waitingOnHost() bool {
	return s == StateAwaitingDisplay || s == StatePresentingOptions || s == StateErrorRetryPrompt
}

// turnArgs are the arguments of a turn request, kept so a retry can send
// the same request again.
type turnArgs struct {
	playerResponse *string
	gift           *gifts.Envelope
}

func (a turnArgs) isGift() bool {
	return a.gift != nil
}

type Session struct {
	CharacterId         string
	State               State
	PendingOptions      []string
	LastFriendshipDelta int

	args         turnArgs
	generation   uint64
	lastActivity uint64 // tick of the last transition
}

// Info is a read-only view of a session.
type Info struct {
	CharacterId         string `json:"character_id"`
	State               string `json:"state"`
	PendingOptions      int    `json:"pending_options"`
	LastFriendshipDelta int    `json:"last_friendship_delta"`
	LastActivityTick    uint64 `json:"last_activity_tick"`
}

func (s *Session) info() Info {
	return Info{
		CharacterId:         s.CharacterId,
		State:               s.State.String(),
		PendingOptions:      len(s.PendingOptions),
		LastFriendshipDelta: s.LastFriendshipDelta,
		LastActivityTick:    s.lastActivity,
	}
}
