package history

import (
	"encoding/json"

	"github.com/StardewEchoes/echoes/internal/echolog"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const (
	DefaultCapacity   = 10
	DefaultCharacters = 64
)

// Speaker is a closed set: a turn is said either by the character or by
// the player.
type Speaker uint8

const (
	SpeakerCharacter Speaker = iota + 1
	SpeakerPlayer
)

func (s Speaker) String() string {
	switch s {
	case SpeakerCharacter:
		return `npc`
	case SpeakerPlayer:
		return `player`
	}
	return `unknown`
}

func (s Speaker) MarshalJSON() ([]byte, error) {
	if s != SpeakerCharacter && s != SpeakerPlayer {
		return nil, errors.Errorf("invalid speaker %d", s)
	}
	return json.Marshal(s.String())
}

func (s *Speaker) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch str {
	case `npc`:
		*s = SpeakerCharacter
	case `player`:
		*s = SpeakerPlayer
	default:
		return errors.Errorf("invalid speaker %q", str)
	}
	return nil
}

// Turn is one line of a conversation. Turns are values and never change
// once appended.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"message"`
}

// Store keeps the last few turns for each character. The number of
// characters remembered is bounded too; the least recently used is
// forgotten first. All calls come from the world thread.
type Store struct {
	capacity int
	logs     *lru.Cache[string, []Turn]
}

func New(capacity int, maxCharacters int) (*Store, error) {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if maxCharacters < 1 {
		maxCharacters = DefaultCharacters
	}

	logs, err := lru.NewWithEvict[string, []Turn](maxCharacters, func(characterId string, turns []Turn) {
		echolog.Debug("History", "info", "forgetting least recently used history", "characterId", characterId, "turns", len(turns))
	})
	if err != nil {
		return nil, errors.Wrap(err, "history")
	}

	return &Store{
		capacity: capacity,
		logs:     logs,
	}, nil
}

func (s *Store) Capacity() int {
	return s.capacity
}

// Append adds a turn, evicting the oldest turns beyond capacity.
func (s *Store) Append(characterId string, speaker Speaker, text string) {
	turns, _ := s.logs.Get(characterId)

	// Copy on write so snapshots handed out earlier stay intact.
	next := make([]Turn, 0, len(turns)+1)
	next = append(next, turns...)
	next = append(next, Turn{Speaker: speaker, Text: text})

	if len(next) > s.capacity {
		next = next[len(next)-s.capacity:]
	}
	s.logs.Add(characterId, next)
}

// Snapshot returns a copy of the character's turns, oldest first. It never
// returns nil so an empty history still encodes as [].
func (s *Store) Snapshot(characterId string) []Turn {
	turns, _ := s.logs.Peek(characterId)
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (s *Store) Len(characterId string) int {
	turns, _ := s.logs.Peek(characterId)
	return len(turns)
}

func (s *Store) Clear(characterId string) {
	s.logs.Remove(characterId)
}

// Characters returns the ids with any retained history, oldest use first.
func (s *Store) Characters() []string {
	return s.logs.Keys()
}

func (s *Store) Reset() {
	s.logs.Purge()
}
