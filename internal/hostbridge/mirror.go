package hostbridge

import (
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
)

// mirror is the engine's view of a remote host: reads come from the last
// snapshot, writes are sent as frames and applied to the snapshot so later
// reads in the same tick see them.
type mirror struct {
	snap       Snapshot
	characters map[string]hostinterfaces.CharacterInfo
	send       func(Frame)
}

func newMirror(send func(Frame)) *mirror {
	return &mirror{
		snap:       Snapshot{Friendship: map[string]LedgerRow{}},
		characters: map[string]hostinterfaces.CharacterInfo{},
		send:       send,
	}
}

func (m *mirror) host() hostinterfaces.Host {
	return hostinterfaces.Host{World: m, Ledger: m, Inventory: m, Presenter: m}
}

func (m *mirror) apply(s Snapshot) {
	if s.Friendship == nil {
		s.Friendship = map[string]LedgerRow{}
	}
	m.snap = s
	m.characters = make(map[string]hostinterfaces.CharacterInfo, len(s.Characters))
	for _, c := range s.Characters {
		m.characters[c.Id] = c
	}
}

func (m *mirror) emit(frameType string, data any) {
	f, err := newFrame(frameType, data)
	if err != nil {
		echolog.Error("Bridge", "error", err)
		return
	}
	m.send(f)
}

func (m *mirror) Character(id string) (hostinterfaces.CharacterInfo, bool) {
	c, ok := m.characters[id]
	return c, ok
}

func (m *mirror) Player() hostinterfaces.PlayerInfo {
	return m.snap.Player
}

func (m *mirror) Calendar() hostinterfaces.Calendar {
	return m.snap.Calendar
}

func (m *mirror) Weather() hostinterfaces.Weather {
	return hostinterfaces.WeatherFromFlags(m.snap.Raining, m.snap.Lightning, m.snap.Snowing, m.snap.Debris)
}

func (m *mirror) Language() string {
	return m.snap.Language
}

func (m *mirror) HeldItem() (hostinterfaces.Item, bool) {
	if m.snap.Held == nil {
		return hostinterfaces.Item{}, false
	}
	return *m.snap.Held, true
}

func (m *mirror) Points(characterId string) int {
	return m.snap.Friendship[characterId].Points
}

func (m *mirror) GiftCounters(characterId string) (hostinterfaces.GiftCounters, bool) {
	row, ok := m.snap.Friendship[characterId]
	if !ok {
		return hostinterfaces.GiftCounters{}, false
	}
	return hostinterfaces.GiftCounters{Today: row.GiftsToday, ThisWeek: row.GiftsThisWeek}, true
}

func (m *mirror) SetGiftCounters(characterId string, counters hostinterfaces.GiftCounters) {
	row := m.snap.Friendship[characterId]
	row.GiftsToday = counters.Today
	row.GiftsThisWeek = counters.ThisWeek
	m.snap.Friendship[characterId] = row

	m.emit(FrameGiftCounters, countersData{CharacterId: characterId, Today: counters.Today, ThisWeek: counters.ThisWeek})
}

// ApplyFriendship leaves clamping to the host; the mirror only tracks
// the unclamped value until the next snapshot.
func (m *mirror) ApplyFriendship(characterId string, delta int) {
	row := m.snap.Friendship[characterId]
	row.Points += delta
	m.snap.Friendship[characterId] = row

	m.emit(FrameFriendship, friendshipData{CharacterId: characterId, Delta: delta})
}

func (m *mirror) Remove(item hostinterfaces.Item) error {
	if m.snap.Held != nil && m.snap.Held.Ref == item.Ref {
		m.snap.Held = nil
	}
	m.emit(FrameRemoveItem, itemData{Item: item})
	return nil
}

func (m *mirror) Restore(item hostinterfaces.Item) error {
	if m.snap.Held == nil {
		held := item
		m.snap.Held = &held
	}
	m.emit(FrameRestoreItem, itemData{Item: item})
	return nil
}

func (m *mirror) Suppress(button string) {
	m.emit(FrameSuppress, suppressData{Button: button})
}

func (m *mirror) ShowMessage(characterId string, text string) {
	m.emit(FrameShowMessage, messageData{CharacterId: characterId, Text: text})
}

func (m *mirror) ShowChoices(characterId string, prompt string, choices []hostinterfaces.Choice) {
	m.emit(FrameShowChoices, choicesData{CharacterId: characterId, Prompt: prompt, Choices: choices})
}

func (m *mirror) Notify(text string) {
	m.emit(FrameNotify, notifyData{Text: text})
}
