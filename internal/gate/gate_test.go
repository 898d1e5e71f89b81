package gate

import (
	"testing"
	"time"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/events"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/sandbox"
	"github.com/StardewEchoes/echoes/internal/scheduler"
	"github.com/stretchr/testify/require"
)

type routerFunc func(characterId string) Outcome

func (f routerFunc) Route(characterId string) Outcome { return f(characterId) }

type fixture struct {
	gate   *Gate
	sched  *scheduler.Queue
	shown  *sandbox.Recorder
	routed []string
	result Outcome
	clock  time.Time
	tick   uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	world := sandbox.New(sandbox.WorldFile{
		Player: hostinterfaces.PlayerInfo{Name: "Farmer", Location: "Town"},
		Characters: []hostinterfaces.CharacterInfo{
			{Id: "Abigail", Name: "Abigail", Location: "Town", IsVillager: true},
			{Id: "Sam", Name: "Sam", Location: "Town", IsVillager: true},
			{Id: "Slime", Name: "Green Slime", Location: "Mine", IsMonster: true},
			{Id: "Crate", Name: "Crate", Location: "Town"},
		},
	})

	f := &fixture{
		sched: scheduler.New(),
		shown: &sandbox.Recorder{},
		clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	f.gate = New(configs.Default().Gate, Deps{
		World:     world,
		Presenter: f.shown,
		Scheduler: f.sched,
		Router: routerFunc(func(characterId string) Outcome {
			f.routed = append(f.routed, characterId)
			return f.result
		}),
		Now: func() time.Time { return f.clock },
	})

	return f
}

func (f *fixture) press(targetId string) bool {
	return f.gate.Admit(events.ButtonPressed{TargetCharacterId: targetId, Button: "MouseRight"})
}

func (f *fixture) wait(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) advance(ticks int) {
	for i := 0; i < ticks; i++ {
		f.tick++
		f.sched.Advance(f.tick)
	}
}

func TestAdmitSchedulesValidation(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.press("Abigail"))
	require.Equal(t, 1, f.shown.Count("suppress"))

	id, busy := f.gate.Processing()
	require.True(t, busy)
	require.Equal(t, "Abigail", id)

	due, found := f.sched.Due("Abigail", scheduler.KindValidate)
	require.True(t, found)
	require.Equal(t, uint64(3), due)

	f.advance(2)
	require.Empty(t, f.routed)

	f.advance(1)
	require.Equal(t, []string{"Abigail"}, f.routed)

	// Routed means the conversation owns the gate until it settles
	_, busy = f.gate.Processing()
	require.True(t, busy)
}

func TestNonConversationalTargetsPassThrough(t *testing.T) {
	f := newFixture(t)

	require.False(t, f.press("Slime"))
	require.False(t, f.press("Crate"))
	require.False(t, f.press("Nobody"))

	require.Zero(t, f.shown.Count("suppress"))
	require.Zero(t, f.sched.Len())
}

func TestDuplicateSuppressed(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.press("Abigail"))

	// A second press while busy is still suppressed but goes nowhere
	f.wait(100 * time.Millisecond)
	require.False(t, f.press("Sam"))
	require.Equal(t, 2, f.shown.Count("suppress"))
	require.Equal(t, 1, f.sched.Len())

	require.True(t, f.gate.Release("Abigail"))

	// Same target inside the debounce window
	f.wait(100 * time.Millisecond)
	require.False(t, f.press("Abigail"))

	// A different target is fine
	require.True(t, f.press("Sam"))
	require.True(t, f.gate.Release("Sam"))

	// The debounce window has passed
	f.wait(600 * time.Millisecond)
	require.True(t, f.press("Sam"))

	stats := f.gate.Stats()
	require.Equal(t, 5, stats.Suppressed)
	require.Equal(t, 3, stats.Admitted)
	require.Equal(t, 2, stats.Duplicates)
}

func TestRouteFailureReleases(t *testing.T) {
	for _, outcome := range []Outcome{InvalidTarget, Ineligible, DispatchFailed} {
		t.Run(outcome.String(), func(t *testing.T) {
			f := newFixture(t)
			f.result = outcome

			require.True(t, f.press("Abigail"))
			f.advance(3)

			_, busy := f.gate.Processing()
			require.False(t, busy)
		})
	}
}

func TestReleaseIgnoresOtherCharacters(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.press("Abigail"))
	require.False(t, f.gate.Release("Sam"))

	_, busy := f.gate.Processing()
	require.True(t, busy)

	require.True(t, f.gate.Release("Abigail"))
	require.False(t, f.gate.Release("Abigail"))
}

func TestWatchdogClearsTracking(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.press("Abigail"))
	require.True(t, f.gate.Release("Abigail"))

	f.wait(300 * time.Millisecond)
	f.gate.Watchdog(f.clock)
	require.False(t, f.press("Abigail"))

	// Tracking goes stale after a second of inactivity
	f.wait(800 * time.Millisecond)
	f.gate.Watchdog(f.clock)
	require.Equal(t, ``, f.gate.lastTarget)
}

func TestWatchdogForceReset(t *testing.T) {
	f := newFixture(t)

	var abandoned []string
	f.gate.OnForceReset(func(characterId string) {
		abandoned = append(abandoned, characterId)
	})

	require.True(t, f.press("Abigail"))

	f.wait(1500 * time.Millisecond)
	f.gate.Watchdog(time.Time{})
	_, busy := f.gate.Processing()
	require.True(t, busy)
	require.Empty(t, abandoned)

	f.wait(600 * time.Millisecond)
	f.gate.Watchdog(time.Time{})
	_, busy = f.gate.Processing()
	require.False(t, busy)
	require.Equal(t, []string{"Abigail"}, abandoned)

	// The pending validation went with it
	f.advance(5)
	require.Empty(t, f.routed)
	require.Equal(t, 1, f.gate.Stats().ForceResets)

	require.True(t, f.press("Sam"))
}

func TestReset(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.press("Abigail"))
	f.gate.Reset()

	_, busy := f.gate.Processing()
	require.False(t, busy)
	require.Zero(t, f.sched.Len())
	require.Equal(t, Stats{}, f.gate.Stats())

	require.True(t, f.press("Abigail"))
}
