package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	w, err := Load("testdata/world.yaml")
	require.NoError(t, err)

	require.Equal(t, "Farmer", w.Player().Id)
	require.Equal(t, hostinterfaces.WeatherRain, w.Weather())
	require.Equal(t, "es-ES", w.Language())

	abigail, ok := w.Character("Abigail")
	require.True(t, ok)
	require.True(t, abigail.IsMarriageCandidate)
	require.True(t, abigail.Conversational())

	_, ok = w.Character("Nobody")
	require.False(t, ok)

	ids := []string{}
	for _, c := range w.Characters() {
		ids = append(ids, c.Id)
	}
	require.Equal(t, []string{"Abigail", "Lewis"}, ids)

	held, ok := w.HeldItem()
	require.True(t, ok)
	require.Equal(t, "Amethyst", held.Name)
}

func TestLoadRejectsBadWorld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("player: {name: Farmer}\nheld: nowhere\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLedger(t *testing.T) {
	w := New(WorldFile{Player: hostinterfaces.PlayerInfo{Name: "Farmer"}})

	_, ok := w.GiftCounters("Sam")
	require.False(t, ok)
	require.Equal(t, 0, w.Points("Sam"))

	w.ApplyFriendship("Sam", 300)
	require.Equal(t, 300, w.Points("Sam"))
	counters, ok := w.GiftCounters("Sam")
	require.True(t, ok)
	require.Equal(t, hostinterfaces.GiftCounters{}, counters)

	w.ApplyFriendship("Sam", -1000)
	require.Equal(t, 0, w.Points("Sam"))
	w.ApplyFriendship("Sam", 99999)
	require.Equal(t, 2500, w.Points("Sam"))

	w.SetGiftCounters("Sam", hostinterfaces.GiftCounters{Today: 1, ThisWeek: 2})
	counters, _ = w.GiftCounters("Sam")
	require.Equal(t, hostinterfaces.GiftCounters{Today: 1, ThisWeek: 2}, counters)
}

func TestInventory(t *testing.T) {
	w, err := Load("testdata/world.yaml")
	require.NoError(t, err)

	item, _ := w.HeldItem()
	require.NoError(t, w.Remove(item))
	require.NoError(t, w.Remove(item))
	require.Equal(t, 0, w.Count("slot-0"))

	_, ok := w.HeldItem()
	require.False(t, ok)

	err = w.Remove(item)
	require.True(t, errors.Is(err, ErrNoSuchItem))

	require.NoError(t, w.Restore(item))
	require.Equal(t, 1, w.Count("slot-0"))

	require.True(t, w.Hold("scythe"))
	held, _ := w.HeldItem()
	require.True(t, held.IsTool)
	require.False(t, w.Hold("Diamond"))
	require.True(t, w.Hold(""))
	_, ok = w.HeldItem()
	require.False(t, ok)

	require.NoError(t, w.Restore(hostinterfaces.Item{Ref: "slot-9", Name: "Diamond"}))
	require.Len(t, w.Inventory(), 3)
}

func TestNewDay(t *testing.T) {
	w, err := Load("testdata/world.yaml")
	require.NoError(t, err)

	w.NewDay()
	cal := w.Calendar()
	require.Equal(t, "summer", cal.Season)
	require.Equal(t, 1, cal.DayOfMonth)
	require.Equal(t, 0, cal.DayOfWeek)

	counters, _ := w.GiftCounters("Abigail")
	require.Equal(t, hostinterfaces.GiftCounters{}, counters)
}

func TestRecorder(t *testing.T) {
	inner := &Recorder{}
	r := &Recorder{Next: inner}

	r.Suppress("action")
	r.ShowMessage("Lewis", "Hello")
	r.ShowChoices("Lewis", "Pick", []hostinterfaces.Choice{{Key: "exit", Label: "Exit"}})
	r.Notify("friendship up")

	require.Equal(t, 4, len(inner.Shown))
	last, ok := r.Last("message")
	require.True(t, ok)
	require.Equal(t, "Hello", last.Text)
	require.Equal(t, 1, r.Count("choices"))
	_, ok = r.Last("nothing")
	require.False(t, ok)
}
