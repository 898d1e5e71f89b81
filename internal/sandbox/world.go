package sandbox

import (
	"sort"
	"strings"

	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/pkg/errors"
)

var (
	ErrNoSuchItem = errors.New("no such item in inventory")
)

// World is an in-memory host. It implements World, Ledger and Inventory
// and is driven from a single goroutine like a real host.
type World struct {
	player     hostinterfaces.PlayerInfo
	calendar   hostinterfaces.Calendar
	weather    hostinterfaces.Weather
	language   string
	characters map[string]hostinterfaces.CharacterInfo
	friendship map[string]*FriendshipRecord
	inventory  []Stack
	held       string
}

func New(wf WorldFile) *World {
	w := &World{
		player:     wf.Player,
		calendar:   wf.Calendar,
		weather:    hostinterfaces.ParseWeather(wf.Weather),
		language:   wf.Language,
		characters: map[string]hostinterfaces.CharacterInfo{},
		friendship: map[string]*FriendshipRecord{},
		held:       wf.Held,
	}

	for _, c := range wf.Characters {
		w.characters[c.Id] = c
	}
	for id, rec := range wf.Friendship {
		r := rec
		w.friendship[id] = &r
	}
	for _, s := range wf.Inventory {
		if s.Count < 1 {
			s.Count = 1
		}
		w.inventory = append(w.inventory, s)
	}
	return w
}

func (w *World) Character(id string) (hostinterfaces.CharacterInfo, bool) {
	c, ok := w.characters[id]
	return c, ok
}

// Characters lists everyone in the player's location, sorted by id.
func (w *World) Characters() []hostinterfaces.CharacterInfo {
	out := []hostinterfaces.CharacterInfo{}
	for _, c := range w.characters {
		if c.Location == w.player.Location {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (w *World) PutCharacter(c hostinterfaces.CharacterInfo) {
	w.characters[c.Id] = c
}

func (w *World) Player() hostinterfaces.PlayerInfo {
	return w.player
}

func (w *World) MovePlayer(location string, tile hostinterfaces.Tile) {
	w.player.Location = location
	w.player.Tile = tile
}

func (w *World) Calendar() hostinterfaces.Calendar {
	return w.calendar
}

func (w *World) SetCalendar(c hostinterfaces.Calendar) {
	w.calendar = c
}

func (w *World) Weather() hostinterfaces.Weather {
	return w.weather
}

func (w *World) Language() string {
	return w.language
}

func (w *World) HeldItem() (hostinterfaces.Item, bool) {
	if w.held == `` {
		return hostinterfaces.Item{}, false
	}
	for _, s := range w.inventory {
		if s.Item.Ref == w.held && s.Count > 0 {
			return s.Item, true
		}
	}
	return hostinterfaces.Item{}, false
}

// Hold selects an item by ref or case-insensitive name. An empty string
// puts everything away.
func (w *World) Hold(refOrName string) bool {
	if refOrName == `` {
		w.held = ``
		return true
	}
	for _, s := range w.inventory {
		if s.Item.Ref == refOrName || strings.EqualFold(s.Item.Name, refOrName) {
			w.held = s.Item.Ref
			return true
		}
	}
	return false
}

// Count returns how many of an item the player carries.
func (w *World) Count(ref string) int {
	for _, s := range w.inventory {
		if s.Item.Ref == ref {
			return s.Count
		}
	}
	return 0
}

func (w *World) Inventory() []Stack {
	out := make([]Stack, len(w.inventory))
	copy(out, w.inventory)
	return out
}

func (w *World) Remove(item hostinterfaces.Item) error {
	for i := range w.inventory {
		if w.inventory[i].Item.Ref != item.Ref {
			continue
		}
		if w.inventory[i].Count < 1 {
			break
		}
		w.inventory[i].Count--
		return nil
	}
	return errors.Wrap(ErrNoSuchItem, item.Ref)
}

func (w *World) Restore(item hostinterfaces.Item) error {
	for i := range w.inventory {
		if w.inventory[i].Item.Ref == item.Ref {
			w.inventory[i].Count++
			return nil
		}
	}
	w.inventory = append(w.inventory, Stack{Item: item, Count: 1})
	return nil
}

func (w *World) Points(characterId string) int {
	if r, ok := w.friendship[characterId]; ok {
		return r.Points
	}
	return 0
}

func (w *World) GiftCounters(characterId string) (hostinterfaces.GiftCounters, bool) {
	r, ok := w.friendship[characterId]
	if !ok {
		return hostinterfaces.GiftCounters{}, false
	}
	return hostinterfaces.GiftCounters{Today: r.GiftsToday, ThisWeek: r.GiftsThisWeek}, true
}

func (w *World) SetGiftCounters(characterId string, counters hostinterfaces.GiftCounters) {
	r := w.record(characterId)
	r.GiftsToday = counters.Today
	r.GiftsThisWeek = counters.ThisWeek
}

// ApplyFriendship clamps points to the host's 0..2500 range (10 hearts).
func (w *World) ApplyFriendship(characterId string, delta int) {
	r := w.record(characterId)
	r.Points += delta
	if r.Points < 0 {
		r.Points = 0
	} else if r.Points > 10*hostinterfaces.PointsPerHeart {
		r.Points = 10 * hostinterfaces.PointsPerHeart
	}
}

func (w *World) record(characterId string) *FriendshipRecord {
	r, ok := w.friendship[characterId]
	if !ok {
		r = &FriendshipRecord{}
		w.friendship[characterId] = r
	}
	return r
}

// NewDay zeroes the daily gift counters, and the weekly ones on day 0.
func (w *World) NewDay() {
	w.calendar.DayOfMonth++
	w.calendar.DayOfWeek = (w.calendar.DayOfWeek + 1) % 7
	w.calendar.TimeOfDay = 600
	if w.calendar.DayOfMonth > daysPerSeason {
		w.calendar.DayOfMonth = 1
		w.calendar.Season = nextSeason(w.calendar.Season)
		if w.calendar.Season == seasons[0] {
			w.calendar.Year++
		}
	}
	for _, r := range w.friendship {
		r.GiftsToday = 0
		if w.calendar.DayOfWeek == 0 {
			r.GiftsThisWeek = 0
		}
	}
}

const daysPerSeason = 28

var seasons = []string{`spring`, `summer`, `fall`, `winter`}

func nextSeason(season string) string {
	for i, s := range seasons {
		if strings.EqualFold(s, season) {
			return seasons[(i+1)%len(seasons)]
		}
	}
	return seasons[0]
}
