package conversations

import (
	"fmt"

	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/language"
)

// applyFriendship writes a non-zero delta to the ledger, logs the before
// and after values and shows the player a notice.
func (m *Manager) applyFriendship(ch hostinterfaces.CharacterInfo, delta int, args turnArgs) {
	if delta == 0 {
		return
	}

	name := displayName(ch)

	beforePoints := m.host.Ledger.Points(ch.Id)
	beforeHearts := hostinterfaces.Hearts(beforePoints)

	m.host.Ledger.ApplyFriendship(ch.Id, delta)

	afterPoints := m.host.Ledger.Points(ch.Id)
	afterHearts := hostinterfaces.Hearts(afterPoints)

	echolog.Info("Friendship",
		"npc", name,
		"change", fmt.Sprintf("%+d", delta),
		"points", fmt.Sprintf("%d -> %d", beforePoints, afterPoints),
		"hearts", fmt.Sprintf("%d -> %d", beforeHearts, afterHearts),
		"reason", friendshipReason(name, delta, args),
	)

	m.host.Presenter.Notify(m.friendshipNotice(name, delta, beforeHearts, afterHearts, args))
}

func friendshipReason(name string, delta int, args turnArgs) string {
	if delta > 0 {
		switch {
		case args.gift != nil:
			return fmt.Sprintf("%s loved the %s gift!", name, args.gift.ItemName)
		case args.playerResponse != nil:
			return fmt.Sprintf("%s liked your response: %q", name, *args.playerResponse)
		}
		return fmt.Sprintf("%s appreciated the interaction", name)
	}

	switch {
	case args.gift != nil:
		return fmt.Sprintf("%s didn't like the %s gift...", name, args.gift.ItemName)
	case args.playerResponse != nil:
		return fmt.Sprintf("%s didn't appreciate your response: %q", name, *args.playerResponse)
	}
	return fmt.Sprintf("%s was displeased with the interaction", name)
}

// friendshipNotice prefers a heart change over the raw point delta.
func (m *Manager) friendshipNotice(name string, delta int, beforeHearts int, afterHearts int, args turnArgs) string {
	code := m.languageCode()

	if afterHearts > beforeHearts {
		return m.text.Plural(code, language.MsgHeartsIncreased, afterHearts, map[string]any{"Name": name})
	}
	if afterHearts < beforeHearts {
		return m.text.Plural(code, language.MsgHeartsDecreased, afterHearts, map[string]any{"Name": name})
	}

	data := map[string]any{"Name": name, "Delta": delta}
	switch {
	case delta > 0 && args.isGift():
		return m.text.Text(code, language.MsgGiftLiked, data)
	case delta > 0:
		return m.text.Text(code, language.MsgResponseLiked, data)
	case args.isGift():
		return m.text.Text(code, language.MsgGiftDisliked, data)
	}
	return m.text.Text(code, language.MsgResponseDisliked, data)
}
