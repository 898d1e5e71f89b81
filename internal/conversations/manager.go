package conversations

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/dialogue"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/gifts"
	"github.com/StardewEchoes/echoes/internal/history"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/language"
	"github.com/StardewEchoes/echoes/internal/scheduler"
	"github.com/pkg/errors"
)

var (
	ErrRequestPending   = errors.New("a request for this character is already pending")
	ErrUnknownCharacter = errors.New("character is not in the loaded world")
)

// Choice keys sent to the host. Response options are option_0..option_2.
const (
	KeyExit         = `exit`
	KeyRetry        = `retry`
	keyOptionPrefix = `option_`

	completionBuffer = 64
)

func OptionKey(i int) string {
	return keyOptionPrefix + strconv.Itoa(i)
}

func parseOptionKey(key string) (int, bool) {
	if !strings.HasPrefix(key, keyOptionPrefix) {
		return 0, false
	}
	i, err := strconv.Atoi(key[len(keyOptionPrefix):])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

type Deps struct {
	Host      hostinterfaces.Host
	Client    dialogue.Generator
	History   *history.Store
	Text      language.Localizer
	Scheduler *scheduler.Queue
}

// completion carries a finished request back to the world thread.
type completion struct {
	characterId string
	generation  uint64
	epoch       uint64
	result      dialogue.Result
	err         error
}

// Manager owns every conversation session. All methods except Wait must be
// called from the world thread; request goroutines only ever send on the
// completions channel.
type Manager struct {
	ctx     context.Context
	host    hostinterfaces.Host
	client  dialogue.Generator
	history *history.Store
	text    language.Localizer
	sched   *scheduler.Queue
	cfg     configs.Conversations

	sessions    map[string]*Session
	completions chan completion
	generation  uint64
	epoch       uint64
	inFlight    sync.WaitGroup

	onSettled func(characterId string)
}

// NewManager builds a manager whose requests live as long as ctx.
func NewManager(ctx context.Context, deps Deps, cfg configs.Conversations) *Manager {
	cfg.Validate()
	return &Manager{
		ctx:         ctx,
		host:        deps.Host,
		client:      deps.Client,
		history:     deps.History,
		text:        deps.Text,
		sched:       deps.Scheduler,
		cfg:         cfg,
		sessions:    map[string]*Session{},
		completions: make(chan completion, completionBuffer),
	}
}

// OnSettled registers a callback run after a request resolves and its
// transition has finished, whether it succeeded or not.
func (m *Manager) OnSettled(fn func(characterId string)) {
	m.onSettled = fn
}

// RequestTurn starts the next turn with a character. It fails without side
// effects if the character is unknown or already has a request pending.
// Any other existing session for the character is replaced.
func (m *Manager) RequestTurn(characterId string, playerResponse *string, gift *gifts.Envelope) error {

	if sess, ok := m.sessions[characterId]; ok && sess.State == StateRequestPending {
		echolog.Debug("Conversation", "characterId", characterId, "info", "turn rejected, request already pending")
		return errors.Wrap(ErrRequestPending, characterId)
	}

	sess := &Session{CharacterId: characterId}
	if err := m.dispatch(sess, turnArgs{playerResponse: playerResponse, gift: gift}); err != nil {
		return err
	}

	if old, ok := m.sessions[characterId]; ok {
		echolog.Debug("Conversation", "characterId", characterId, "info", "replacing session", "oldState", old.State.String())
		m.sched.Cancel(characterId, scheduler.KindContinue)
	}
	m.sessions[characterId] = sess

	return nil
}

func (m *Manager) dispatch(sess *Session, args turnArgs) error {

	req, err := m.buildRequest(sess.CharacterId, args)
	if err != nil {
		return err
	}

	m.generation++

	sess.args = args
	sess.generation = m.generation
	sess.State = StateRequestPending
	sess.PendingOptions = nil
	sess.lastActivity = m.sched.Now()

	c := completion{
		characterId: sess.CharacterId,
		generation:  m.generation,
		epoch:       m.epoch,
	}

	echolog.Debug("Conversation", "characterId", sess.CharacterId, "info", "requesting turn", "generation", c.generation, "gift", args.isGift(), "response", args.playerResponse != nil)

	m.inFlight.Add(1)
	go func() {
		defer m.inFlight.Done()

		c.result, c.err = m.client.Generate(m.ctx, req)

		select {
		case m.completions <- c:
		case <-m.ctx.Done():
		}
	}()

	return nil
}

func (m *Manager) buildRequest(characterId string, args turnArgs) (dialogue.Request, error) {
	world := m.host.World

	ch, ok := world.Character(characterId)
	if !ok {
		return dialogue.Request{}, errors.Wrap(ErrUnknownCharacter, characterId)
	}

	player := world.Player()
	cal := world.Calendar()

	return dialogue.Request{
		CharacterId:         characterId,
		NpcName:             displayName(ch),
		NpcLocation:         orUnknown(ch.Location),
		PlayerName:          player.Name,
		FriendshipHearts:    hostinterfaces.Hearts(m.host.Ledger.Points(characterId)),
		Season:              cal.Season,
		DayOfMonth:          cal.DayOfMonth,
		DayOfWeek:           cal.DayOfWeek,
		TimeOfDay:           cal.TimeOfDay,
		Year:                cal.Year,
		Weather:             world.Weather(),
		PlayerLocation:      orUnknown(player.Location),
		Language:            m.languageCode(),
		ConversationHistory: m.history.Snapshot(characterId),
		PlayerResponse:      args.playerResponse,
		GiftGiven:           args.gift,
	}, nil
}

// Tick applies every completion that has arrived. Returns how many.
func (m *Manager) Tick() int {
	applied := 0
	for {
		select {
		case c := <-m.completions:
			m.complete(c)
			applied++
		default:
			return applied
		}
	}
}

func (m *Manager) complete(c completion) {

	if c.epoch != m.epoch {
		echolog.Debug("Conversation", "characterId", c.characterId, "info", "dropping completion from a previous world")
		return
	}

	sess, ok := m.sessions[c.characterId]
	if !ok || sess.generation != c.generation || sess.State != StateRequestPending {
		echolog.Debug("Conversation", "characterId", c.characterId, "info", "dropping stale completion", "generation", c.generation)
		return
	}

	sess.lastActivity = m.sched.Now()

	switch {
	case errors.Is(c.err, dialogue.ErrTimeout):
		m.fail(sess, `timeout`, c.err)
	case c.err != nil:
		m.fail(sess, `unreachable`, c.err)
	case c.result.Status == dialogue.StatusDegraded:
		m.fail(sess, `degraded`, errors.Errorf("status %d", c.result.HTTPStatus))
	case c.result.Status == dialogue.StatusFallback:
		echolog.Info("Conversation", "characterId", sess.CharacterId, "info", "using fallback turn", "request", c.result.RequestId)
		m.succeed(sess, m.fallbackResult())
	default:
		m.succeed(sess, c.result)
	}

	m.settle(sess.CharacterId)
}

func (m *Manager) fail(sess *Session, kind string, err error) {
	echolog.Warn("Conversation", "characterId", sess.CharacterId, "failure", kind, "error", err, "gift", sess.args.isGift())

	code := m.languageCode()

	sess.State = StateErrorRetryPrompt
	sess.PendingOptions = nil

	m.host.Presenter.ShowChoices(sess.CharacterId, m.text.Text(code, language.MsgConnectionError, nil), []hostinterfaces.Choice{
		{Key: KeyRetry, Label: m.text.Text(code, language.MsgTryAgain, nil)},
		{Key: KeyExit, Label: m.text.Text(code, language.MsgExit, nil)},
	})
}

func (m *Manager) succeed(sess *Session, result dialogue.Result) {
	ch := m.character(sess.CharacterId)

	if sess.args.isGift() {
		m.countGift(ch, sess.args.gift)
	}

	m.history.Append(sess.CharacterId, history.SpeakerCharacter, result.Message)
	m.applyFriendship(ch, result.FriendshipDelta, sess.args)

	sess.PendingOptions = result.Options
	sess.LastFriendshipDelta = result.FriendshipDelta
	sess.State = StateAwaitingDisplay

	m.host.Presenter.ShowMessage(sess.CharacterId, result.Message)
}

func (m *Manager) countGift(ch hostinterfaces.CharacterInfo, gift *gifts.Envelope) {
	counters, _ := m.host.Ledger.GiftCounters(ch.Id)
	counters.Today++
	counters.ThisWeek++
	m.host.Ledger.SetGiftCounters(ch.Id, counters)

	echolog.Info("Conversation", "characterId", ch.Id, "info", "gift delivered", "item", gift.ItemName, "today", counters.Today, "week", counters.ThisWeek)
}

func (m *Manager) fallbackResult() dialogue.Result {
	code := m.languageCode()

	options := []string{
		m.text.Text(code, language.MsgFallbackFriendly, nil),
		m.text.Text(code, language.MsgFallbackNeutral, nil),
		m.text.Text(code, language.MsgFallbackProvocative, nil),
	}
	if limit := int(m.cfg.MaxOptions); len(options) > limit {
		options = options[:limit]
	}

	return dialogue.Result{
		Status:  dialogue.StatusFallback,
		Message: m.text.Text(code, language.MsgFallbackGreeting, nil),
		Options: options,
	}
}

// DisplayClosed moves a session from showing its message to showing the
// response options plus exit. Returns false when nothing was waiting.
func (m *Manager) DisplayClosed(characterId string) bool {
	sess, ok := m.sessions[characterId]
	if !ok || sess.State != StateAwaitingDisplay {
		return false
	}

	code := m.languageCode()

	choices := make([]hostinterfaces.Choice, 0, len(sess.PendingOptions)+1)
	for i, option := range sess.PendingOptions {
		choices = append(choices, hostinterfaces.Choice{Key: OptionKey(i), Label: option})
	}
	choices = append(choices, hostinterfaces.Choice{Key: KeyExit, Label: m.text.Text(code, language.MsgExit, nil)})

	sess.State = StatePresentingOptions
	sess.lastActivity = m.sched.Now()

	m.host.Presenter.ShowChoices(characterId, m.text.Text(code, language.MsgChooseOption, nil), choices)
	return true
}

// ChoiceSelected handles a key picked from the options or the retry prompt.
// Returns false when the key means nothing in the session's current state.
func (m *Manager) ChoiceSelected(characterId string, key string) bool {
	sess, ok := m.sessions[characterId]
	if !ok {
		return false
	}

	switch sess.State {

	case StatePresentingOptions:
		if key == KeyExit {
			m.end(sess, true)
			return true
		}

		i, ok := parseOptionKey(key)
		if !ok || i >= len(sess.PendingOptions) {
			echolog.Warn("Conversation", "characterId", characterId, "info", "unknown choice", "key", key)
			return false
		}

		text := sess.PendingOptions[i]
		m.history.Append(characterId, history.SpeakerPlayer, text)
		m.continueWith(sess, turnArgs{playerResponse: &text})
		return true

	case StateErrorRetryPrompt:
		switch key {
		case KeyRetry:
			echolog.Info("Conversation", "characterId", characterId, "info", "retrying turn")
			m.continueWith(sess, sess.args)
			return true
		case KeyExit:
			m.end(sess, false)
			return true
		}
	}

	return false
}

// continueWith parks the session in RequestPending and sends the request
// once the host has had a tick to close its menu.
func (m *Manager) continueWith(sess *Session, args turnArgs) {
	sess.State = StateRequestPending
	sess.PendingOptions = nil
	sess.args = args
	sess.generation = 0
	sess.lastActivity = m.sched.Now()

	characterId := sess.CharacterId
	m.sched.Schedule(characterId, scheduler.KindContinue, uint64(m.cfg.ContinueDelayTicks), func() {
		if cur, ok := m.sessions[characterId]; !ok || cur != sess {
			return
		}
		if err := m.dispatch(sess, args); err != nil {
			echolog.Warn("Conversation", "characterId", characterId, "info", "could not continue conversation", "error", err)
			m.history.Clear(characterId)
			m.discard(characterId)
		}
	})
}

// end closes a session at the player's request.
func (m *Manager) end(sess *Session, notify bool) {
	ch := m.character(sess.CharacterId)

	m.history.Clear(sess.CharacterId)
	m.discard(sess.CharacterId)

	if notify {
		m.client.NotifyEnded(displayName(ch), m.host.World.Player().Name)
	}
	echolog.Debug("Conversation", "characterId", sess.CharacterId, "info", "conversation closed", "notified", notify)
}

// Teardown ends a session the player walked away from.
func (m *Manager) Teardown(characterId string) bool {
	sess, ok := m.sessions[characterId]
	if !ok || sess.State == StateRequestPending {
		return false
	}
	m.end(sess, true)
	return true
}

// Abandon discards whatever session the character has, including one with a
// request in flight. A completion arriving afterwards finds no session and is
// dropped, so it never touches history, friendship or gift counters. History
// already recorded is kept. A gift handed over for the dropped request is not
// returned.
func (m *Manager) Abandon(characterId string) bool {
	sess, ok := m.sessions[characterId]
	if !ok {
		return false
	}
	echolog.Debug("Conversation", "characterId", characterId, "info", "abandoning session", "state", sess.State.String())
	m.discard(characterId)
	return true
}

func (m *Manager) discard(characterId string) {
	if sess, ok := m.sessions[characterId]; ok {
		sess.State = StateClosed
	}
	delete(m.sessions, characterId)
	m.sched.Cancel(characterId, scheduler.KindContinue)
}

// IdleSessions lists sessions waiting on the host or the player for at
// least limit ticks.
func (m *Manager) IdleSessions(now uint64, limit uint64) []string {
	idle := []string{}
	for id, sess := range m.sessions {
		if !sess.State.waitingOnHost() {
			continue
		}
		if now >= sess.lastActivity && now-sess.lastActivity >= limit {
			idle = append(idle, id)
		}
	}
	sort.Strings(idle)
	return idle
}

// State returns StateIdle when the character has no session.
func (m *Manager) State(characterId string) State {
	if sess, ok := m.sessions[characterId]; ok {
		return sess.State
	}
	return StateIdle
}

func (m *Manager) Session(characterId string) (Info, bool) {
	if sess, ok := m.sessions[characterId]; ok {
		return sess.info(), true
	}
	return Info{}, false
}

func (m *Manager) Sessions() []Info {
	out := make([]Info, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CharacterId < out[j].CharacterId })
	return out
}

// Reset forgets every session and all history. Completions of requests
// already in flight are ignored when they arrive.
func (m *Manager) Reset() {
	m.epoch++
	for id := range m.sessions {
		m.sched.Cancel(id, scheduler.KindContinue)
	}
	m.sessions = map[string]*Session{}
	m.history.Reset()
}

// Wait blocks until every request goroutine has delivered its completion.
// Safe from any goroutine.
func (m *Manager) Wait() {
	m.inFlight.Wait()
}

func (m *Manager) settle(characterId string) {
	if m.onSettled != nil {
		m.onSettled(characterId)
	}
}

func (m *Manager) languageCode() string {
	return language.Normalize(m.host.World.Language())
}

func (m *Manager) character(characterId string) hostinterfaces.CharacterInfo {
	if ch, ok := m.host.World.Character(characterId); ok {
		return ch
	}
	return hostinterfaces.CharacterInfo{Id: characterId, Name: characterId}
}

func displayName(ch hostinterfaces.CharacterInfo) string {
	if ch.Name == `` {
		return ch.Id
	}
	return ch.Name
}

func orUnknown(s string) string {
	if s == `` {
		return `Unknown`
	}
	return s
}
