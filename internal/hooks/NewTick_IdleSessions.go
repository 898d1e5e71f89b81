// Tick sweeps for conversations
package hooks

import (
	"time"

	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/events"
)

// Sessions is the part of the conversation manager the sweep needs.
type Sessions interface {
	IdleSessions(now uint64, limit uint64) []string
	Teardown(characterId string) bool
}

//
// Tear down conversations the player walked away from
//

func IdleSessions(sessions Sessions, limitTicks uint64) events.Listener {

	return func(e events.Event) events.ListenerReturn {

		evt, typeOk := e.(events.NewTick)
		if !typeOk {
			echolog.Error("Event", "Expected Type", "NewTick", "Actual Type", e.Type())
			return events.Cancel
		}

		idle := sessions.IdleSessions(evt.Tick, limitTicks)
		if len(idle) == 0 {
			return events.Continue
		}

		tStart := time.Now()
		torn := 0
		for _, characterId := range idle {
			if sessions.Teardown(characterId) {
				torn++
				echolog.Info("IdleSessions", "characterId", characterId, "info", "conversation timed out", "idleTicks", limitTicks)
			}
		}

		echolog.Debug("IdleSessions", "checked", len(idle), "torndown", torn, "took", time.Since(tStart))

		return events.Continue
	}
}
