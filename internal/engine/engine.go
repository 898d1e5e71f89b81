package engine

import (
	"context"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/conversations"
	"github.com/StardewEchoes/echoes/internal/dialogue"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/events"
	"github.com/StardewEchoes/echoes/internal/gate"
	"github.com/StardewEchoes/echoes/internal/gifts"
	"github.com/StardewEchoes/echoes/internal/history"
	"github.com/StardewEchoes/echoes/internal/hooks"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/interactions"
	"github.com/StardewEchoes/echoes/internal/language"
	"github.com/StardewEchoes/echoes/internal/scheduler"
	"github.com/pkg/errors"
)

type Deps struct {
	Host   hostinterfaces.Host
	Client dialogue.Generator
	// Text defaults to the embedded catalog
	Text language.Localizer
}

// Engine is everything one loaded world needs: gate, router, sessions,
// history and the tick scheduler. Nothing in it is global. Handle must
// only be called from the host's world thread.
type Engine struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    configs.Config

	host          hostinterfaces.Host
	client        dialogue.Generator
	sched         *scheduler.Queue
	history       *history.Store
	conversations *conversations.Manager
	router        *interactions.Router
	gate          *gate.Gate
	registry      *events.Registry

	tick uint64
}

func New(parent context.Context, cfg configs.Config, deps Deps) (*Engine, error) {

	if err := deps.Host.Validate(); err != nil {
		return nil, err
	}
	if deps.Client == nil {
		return nil, errors.New(`engine: missing dialogue client`)
	}

	text := deps.Text
	if text == nil {
		catalog, err := language.NewCatalog()
		if err != nil {
			return nil, errors.Wrap(err, `loading message catalog`)
		}
		text = catalog
	}

	store, err := history.New(int(cfg.Conversations.HistoryCapacity), int(cfg.Conversations.MaxTrackedCharacters))
	if err != nil {
		return nil, errors.Wrap(err, `creating history store`)
	}

	ctx, cancel := context.WithCancel(parent)

	e := &Engine{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		host:     deps.Host,
		client:   deps.Client,
		sched:    scheduler.New(),
		history:  store,
		registry: events.NewRegistry(),
	}

	e.conversations = conversations.NewManager(ctx, conversations.Deps{
		Host:      deps.Host,
		Client:    deps.Client,
		History:   store,
		Text:      text,
		Scheduler: e.sched,
	}, cfg.Conversations)

	e.router = interactions.NewRouter(deps.Host, e.conversations, cfg.Gate)
	if script := cfg.Gifts.FilterScript.String(); script != `` {
		filter, err := gifts.LoadFilter(script, cfg.Gifts.FilterTimeout())
		if err != nil {
			cancel()
			return nil, err
		}
		e.router.UseFilter(filter)
		echolog.Info("Engine", "info", "gift filter loaded", "script", script)
	}

	e.gate = gate.New(cfg.Gate, gate.Deps{
		World:     deps.Host.World,
		Presenter: deps.Host.Presenter,
		Scheduler: e.sched,
		Router:    e.router,
	})

	e.conversations.OnSettled(func(characterId string) {
		e.gate.Release(characterId)
	})
	e.gate.OnForceReset(func(characterId string) {
		e.conversations.Abandon(characterId)
	})

	e.registerListeners()

	return e, nil
}

func (e *Engine) registerListeners() {
	e.registry.RegisterListener(events.WorldLoaded{}, e.onWorldLoaded)
	e.registry.RegisterListener(events.ButtonPressed{}, e.onButtonPressed)
	e.registry.RegisterListener(events.NewTick{}, e.onNewTick)
	e.registry.RegisterListener(events.NewTick{}, hooks.IdleSessions(e.conversations, uint64(e.cfg.Conversations.IdleTeardownTicks)))
	e.registry.RegisterListener(events.CursorMoved{}, e.onCursorMoved)
	e.registry.RegisterListener(events.DisplayClosed{}, e.onDisplayClosed)
	e.registry.RegisterListener(events.ChoiceSelected{}, e.onChoiceSelected)
}

// Handle delivers one host event. Returns how many listeners ran.
func (e *Engine) Handle(evt events.Event) int {
	if e.ctx.Err() != nil {
		return 0
	}
	return e.registry.Dispatch(evt)
}

func (e *Engine) onWorldLoaded(evt events.Event) events.ListenerReturn {
	e.Reset()
	echolog.Info("Engine", "info", "world loaded, state reset")
	return events.Continue
}

func (e *Engine) onButtonPressed(evt events.Event) events.ListenerReturn {
	press, typeOk := evt.(events.ButtonPressed)
	if !typeOk {
		echolog.Error("Event", "Expected Type", "ButtonPressed", "Actual Type", evt.Type())
		return events.Cancel
	}
	e.gate.Admit(press)
	return events.Continue
}

// onNewTick applies finished requests before running due tasks, so a
// completion that arrived during the last tick is visible to them.
func (e *Engine) onNewTick(evt events.Event) events.ListenerReturn {
	t, typeOk := evt.(events.NewTick)
	if !typeOk {
		echolog.Error("Event", "Expected Type", "NewTick", "Actual Type", evt.Type())
		return events.Cancel
	}
	if t.Tick > e.tick {
		e.tick = t.Tick
	}

	e.conversations.Tick()
	e.sched.Advance(e.tick)

	return events.Continue
}

func (e *Engine) onCursorMoved(evt events.Event) events.ListenerReturn {
	moved, typeOk := evt.(events.CursorMoved)
	if !typeOk {
		echolog.Error("Event", "Expected Type", "CursorMoved", "Actual Type", evt.Type())
		return events.Cancel
	}
	e.gate.Watchdog(moved.Timestamp)
	return events.Continue
}

func (e *Engine) onDisplayClosed(evt events.Event) events.ListenerReturn {
	closed, typeOk := evt.(events.DisplayClosed)
	if !typeOk {
		echolog.Error("Event", "Expected Type", "DisplayClosed", "Actual Type", evt.Type())
		return events.Cancel
	}
	if !e.conversations.DisplayClosed(closed.CharacterId) {
		echolog.Debug("Engine", "characterId", closed.CharacterId, "info", "display closed with no session waiting")
	}
	return events.Continue
}

func (e *Engine) onChoiceSelected(evt events.Event) events.ListenerReturn {
	choice, typeOk := evt.(events.ChoiceSelected)
	if !typeOk {
		echolog.Error("Event", "Expected Type", "ChoiceSelected", "Actual Type", evt.Type())
		return events.Cancel
	}
	if !e.conversations.ChoiceSelected(choice.CharacterId, choice.Key) {
		echolog.Debug("Engine", "characterId", choice.CharacterId, "info", "choice ignored", "key", choice.Key)
	}
	return events.Continue
}

// Reset forgets all gate, session and history state and drops every
// scheduled task. Requests already in flight are ignored when they land.
func (e *Engine) Reset() {
	e.sched.Reset()
	e.gate.Reset()
	e.conversations.Reset()
}

// Close cancels outstanding requests and waits for them to finish.
func (e *Engine) Close() {
	e.cancel()
	e.conversations.Wait()
	if w, ok := e.client.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// Settle waits for in-flight requests to deliver their completions. Only
// useful where the host controls time, such as tests and the sandbox.
func (e *Engine) Settle() {
	e.conversations.Wait()
}

func (e *Engine) Tick() uint64 {
	return e.tick
}

type Stats struct {
	Tick     uint64                    `json:"tick"`
	Gate     gate.Stats                `json:"gate"`
	Sessions []conversations.Info      `json:"sessions"`
	History  map[string]int            `json:"history_turns"`
	Usage    map[string]dialogue.Usage `json:"usage,omitempty"` // by character id
}

// Stats is a snapshot for diagnostics. World thread only.
func (e *Engine) Stats() Stats {
	s := Stats{
		Tick:     e.tick,
		Gate:     e.gate.Stats(),
		Sessions: e.conversations.Sessions(),
		History:  map[string]int{},
	}
	for _, characterId := range e.history.Characters() {
		s.History[characterId] = e.history.Len(characterId)
	}
	if u, ok := e.client.(interface{ Usage() *dialogue.UsageTracker }); ok {
		s.Usage = u.Usage().Snapshot()
	}
	return s
}

func (e *Engine) Conversations() *conversations.Manager {
	return e.conversations
}

func (e *Engine) Gate() *gate.Gate {
	return e.gate
}
