package gate

import (
	"time"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/events"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/scheduler"
)

// Outcome is how an interaction attempt ended. None of them are shown
// to the player.
type Outcome uint8

const (
	Routed Outcome = iota
	DuplicateSuppressed
	InvalidTarget
	Ineligible
	DispatchFailed
)

func (o Outcome) String() string {
	switch o {
	case Routed:
		return `Routed`
	case DuplicateSuppressed:
		return `DuplicateSuppressed`
	case InvalidTarget:
		return `InvalidTarget`
	case Ineligible:
		return `Ineligible`
	case DispatchFailed:
		return `DispatchFailed`
	}
	return `Unknown`
}

// Router decides what an admitted interaction turns into. Anything other
// than Routed releases the gate straight away.
type Router interface {
	Route(characterId string) Outcome
}

type Deps struct {
	World     hostinterfaces.World
	Presenter hostinterfaces.Presenter
	Scheduler *scheduler.Queue
	Router    Router
	// Now defaults to time.Now
	Now func() time.Time
}

// Stats counts what the gate has done since the last reset.
type Stats struct {
	Suppressed  int `json:"suppressed"`
	Admitted    int `json:"admitted"`
	Duplicates  int `json:"duplicates"`
	ForceResets int `json:"force_resets"`
}

// Gate admits at most one interaction at a time. It lives on the world
// thread and is not safe for concurrent use.
type Gate struct {
	cfg       configs.Gate
	world     hostinterfaces.World
	presenter hostinterfaces.Presenter
	sched     *scheduler.Queue
	router    Router
	now       func() time.Time

	lastTarget      string
	lastInteraction time.Time

	processing      bool
	processingId    string
	processingSince time.Time

	onForceReset func(characterId string)
	stats        Stats
}

func New(cfg configs.Gate, deps Deps) *Gate {
	cfg.Validate()

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Gate{
		cfg:       cfg,
		world:     deps.World,
		presenter: deps.Presenter,
		sched:     deps.Scheduler,
		router:    deps.Router,
		now:       now,
	}
}

// OnForceReset registers what to do with the tracked character when the
// watchdog has to reopen a stuck gate.
func (g *Gate) OnForceReset(fn func(characterId string)) {
	g.onForceReset = fn
}

// Admit takes a raw press. The host's native handling is suppressed for
// every conversational target, even when the press is then dropped.
// Returns true when routing has been scheduled.
func (g *Gate) Admit(press events.ButtonPressed) bool {

	targetId := press.TargetCharacterId

	ch, ok := g.world.Character(targetId)
	if !ok || !ch.Conversational() {
		return false
	}

	g.presenter.Suppress(press.Button)
	g.stats.Suppressed++

	at := press.Timestamp
	if at.IsZero() {
		at = g.now()
	}

	if g.processing {
		g.stats.Duplicates++
		echolog.Debug("Gate", "characterId", targetId, "outcome", DuplicateSuppressed.String(), "reason", "busy", "inFlight", g.processingId)
		return false
	}

	if targetId == g.lastTarget && at.Sub(g.lastInteraction) < g.cfg.Debounce() {
		g.stats.Duplicates++
		echolog.Debug("Gate", "characterId", targetId, "outcome", DuplicateSuppressed.String(), "reason", "debounce", "sinceLast", at.Sub(g.lastInteraction))
		return false
	}

	g.lastTarget = targetId
	g.lastInteraction = at
	g.processing = true
	g.processingId = targetId
	g.processingSince = at
	g.stats.Admitted++

	g.sched.Schedule(targetId, scheduler.KindValidate, uint64(g.cfg.ValidationDelayTicks), func() {
		g.route(targetId)
	})

	echolog.Debug("Gate", "characterId", targetId, "info", "admitted", "validateInTicks", int(g.cfg.ValidationDelayTicks))

	return true
}

func (g *Gate) route(characterId string) {
	if g.router == nil {
		g.Release(characterId)
		return
	}

	outcome := g.router.Route(characterId)
	if outcome == Routed {
		return
	}

	echolog.Debug("Gate", "characterId", characterId, "outcome", outcome.String())
	g.Release(characterId)
}

// Release reopens the gate if characterId is the interaction in flight.
// Releases for any other character are ignored.
func (g *Gate) Release(characterId string) bool {
	if !g.processing || g.processingId != characterId {
		return false
	}
	g.processing = false
	g.processingId = ``
	g.processingSince = time.Time{}
	return true
}

// Watchdog is driven by a low frequency host event. It forgets the last
// target once tracking has gone stale and reopens a gate that has been
// held too long.
func (g *Gate) Watchdog(at time.Time) {
	if at.IsZero() {
		at = g.now()
	}

	if g.lastTarget != `` && at.Sub(g.lastInteraction) > g.cfg.TrackingReset() {
		g.lastTarget = ``
		g.lastInteraction = time.Time{}
	}

	if !g.processing || at.Sub(g.processingSince) <= g.cfg.ProcessingReset() {
		return
	}

	stuck := g.processingId
	echolog.Warn("Gate", "characterId", stuck, "info", "force-releasing stuck interaction", "heldFor", at.Sub(g.processingSince))

	g.sched.Cancel(stuck, scheduler.KindValidate)
	g.Release(stuck)
	g.stats.ForceResets++

	if g.onForceReset != nil {
		g.onForceReset(stuck)
	}
}

// Processing reports the character whose interaction is in flight.
func (g *Gate) Processing() (string, bool) {
	return g.processingId, g.processing
}

func (g *Gate) Stats() Stats {
	return g.stats
}

// Reset drops all tracking, e.g. when a new world is loaded.
func (g *Gate) Reset() {
	if g.processing {
		g.sched.Cancel(g.processingId, scheduler.KindValidate)
	}
	g.lastTarget = ``
	g.lastInteraction = time.Time{}
	g.processing = false
	g.processingId = ``
	g.processingSince = time.Time{}
	g.stats = Stats{}
}
