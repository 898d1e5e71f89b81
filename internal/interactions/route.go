package interactions

import (
	"strings"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/gate"
	"github.com/StardewEchoes/echoes/internal/gifts"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
)

// Turns starts conversation turns. conversations.Manager satisfies it.
type Turns interface {
	RequestTurn(characterId string, playerResponse *string, gift *gifts.Envelope) error
}

// Router turns an admitted interaction into a plain conversation or a
// gift, after checking the world again.
type Router struct {
	host     hostinterfaces.Host
	turns    Turns
	distance int
	filter   *gifts.Filter
}

func NewRouter(host hostinterfaces.Host, turns Turns, cfg configs.Gate) *Router {
	cfg.Validate()
	return &Router{
		host:     host,
		turns:    turns,
		distance: int(cfg.InteractionDistance),
	}
}

// UseFilter installs a gift filter script. nil removes it.
func (r *Router) UseFilter(f *gifts.Filter) {
	r.filter = f
}

// Route runs on the world thread once the validation delay has passed.
func (r *Router) Route(characterId string) gate.Outcome {

	ch, ok := r.host.World.Character(characterId)
	if !ok {
		echolog.Debug("Interaction", "characterId", characterId, "outcome", gate.InvalidTarget.String(), "reason", "no longer in the world")
		return gate.InvalidTarget
	}

	if reason := r.unreachable(ch); reason != `` {
		echolog.Debug("Interaction", "characterId", characterId, "outcome", gate.InvalidTarget.String(), "reason", reason)
		return gate.InvalidTarget
	}

	item, holding := r.host.World.HeldItem()
	if !holding {
		return r.talk(ch)
	}
	if !gifts.Giftable(item) || !r.scriptAllows(ch.Id, item) {
		echolog.Debug("Interaction", "characterId", characterId, "info", "held item is not a gift", "item", item.Name)
		return r.talk(ch)
	}

	return r.give(ch, item)
}

// unreachable returns why a character can't be talked to right now, or an
// empty string if they can.
func (r *Router) unreachable(ch hostinterfaces.CharacterInfo) string {
	if !ch.IsVillager {
		return `not a villager`
	}
	if ch.IsMonster {
		return `monster`
	}
	if ch.IsInvisible {
		return `invisible`
	}
	if !validName(ch.Name) {
		return `placeholder name`
	}

	player := r.host.World.Player()
	if ch.Location != player.Location {
		return `different location`
	}
	if d := ch.Tile.Distance(player.Tile); d > r.distance {
		return `too far away`
	}
	return ``
}

func (r *Router) scriptAllows(characterId string, item hostinterfaces.Item) bool {
	ok, err := r.filter.Allows(characterId, item)
	if err != nil {
		echolog.Warn("Interaction", "characterId", characterId, "info", "gift filter failed, allowing", "item", item.Name, "error", err)
	}
	return ok
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 2 && !strings.HasPrefix(name, `???`)
}

func (r *Router) talk(ch hostinterfaces.CharacterInfo) gate.Outcome {
	if err := r.turns.RequestTurn(ch.Id, nil, nil); err != nil {
		echolog.Debug("Interaction", "characterId", ch.Id, "outcome", gate.DispatchFailed.String(), "error", err)
		return gate.DispatchFailed
	}
	echolog.Debug("Interaction", "characterId", ch.Id, "info", "conversation started")
	return gate.Routed
}

func (r *Router) give(ch hostinterfaces.CharacterInfo, item hostinterfaces.Item) gate.Outcome {
	ledger := r.host.Ledger

	var counters *hostinterfaces.GiftCounters
	if c, found := ledger.GiftCounters(ch.Id); found {
		counters = &c
	}

	decision := gifts.Evaluate(ch.Id, counters, gifts.Facts{
		IsBirthday:          ch.IsBirthday,
		IsSpouse:            r.host.World.Player().Spouse == ch.Id,
		IsMarriageCandidate: ch.IsMarriageCandidate,
	})

	if !decision.Allowed() {
		echolog.Debug("Interaction", "characterId", ch.Id, "outcome", gate.Ineligible.String(), "rule", string(decision.Rule), "item", item.Name)
		return gate.Ineligible
	}

	// The item leaves the inventory before the request so a failed request
	// can never leave the player with a duplicate.
	if err := r.host.Inventory.Remove(item); err != nil {
		echolog.Warn("Interaction", "characterId", ch.Id, "info", "could not take gift from inventory", "item", item.Name, "error", err)
		return gate.DispatchFailed
	}

	envelope := gifts.NewEnvelope(item, ch.IsBirthday)

	if err := r.turns.RequestTurn(ch.Id, nil, &envelope); err != nil {
		if rerr := r.host.Inventory.Restore(item); rerr != nil {
			echolog.Error("Interaction", "characterId", ch.Id, "info", "gift lost, restore failed", "item", item.Name, "error", rerr)
		}
		echolog.Debug("Interaction", "characterId", ch.Id, "outcome", gate.DispatchFailed.String(), "item", item.Name, "error", err)
		return gate.DispatchFailed
	}

	// Only once the gift is really on its way. The completion is applied on a
	// later tick, so it counts on top of the zeroed values.
	if decision.ResetCounters {
		ledger.SetGiftCounters(ch.Id, hostinterfaces.GiftCounters{})
	}

	echolog.Info("Interaction", "characterId", ch.Id, "info", "gift handed over", "item", envelope.ItemName, "quality", envelope.ItemQuality, "rule", string(decision.Rule))
	return gate.Routed
}
