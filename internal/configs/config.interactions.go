package configs

import "time"

// Gate holds the arbitration timings. Ms values are wall clock,
// Ticks are world-simulation ticks.
type Gate struct {
	DebounceMs           ConfigInt `yaml:"DebounceMs"`           // Same target within this window is dropped
	TrackingResetMs      ConfigInt `yaml:"TrackingResetMs"`      // Watchdog clears last-target tracking after this much inactivity
	ProcessingResetMs    ConfigInt `yaml:"ProcessingResetMs"`    // Watchdog force-releases a stuck in-flight interaction
	ValidationDelayTicks ConfigInt `yaml:"ValidationDelayTicks"` // Ticks between admission and routing
	InteractionDistance  ConfigInt `yaml:"InteractionDistance"`  // Max Manhattan tile distance to talk
}

func (g *Gate) Validate() {
	if g.DebounceMs < 1 {
		g.DebounceMs = 500
	}
	if g.TrackingResetMs < g.DebounceMs {
		g.TrackingResetMs = 1000
		if g.TrackingResetMs < g.DebounceMs {
			g.TrackingResetMs = g.DebounceMs
		}
	}
	if g.ProcessingResetMs < g.TrackingResetMs {
		g.ProcessingResetMs = 2000
		if g.ProcessingResetMs < g.TrackingResetMs {
			g.ProcessingResetMs = g.TrackingResetMs
		}
	}
	if g.ValidationDelayTicks < 1 {
		g.ValidationDelayTicks = 3
	} else if g.ValidationDelayTicks > 60 {
		g.ValidationDelayTicks = 60
	}
	if g.InteractionDistance < 1 {
		g.InteractionDistance = 4
	}
}

func (g Gate) Debounce() time.Duration {
	return time.Duration(g.DebounceMs) * time.Millisecond
}

func (g Gate) TrackingReset() time.Duration {
	return time.Duration(g.TrackingResetMs) * time.Millisecond
}

func (g Gate) ProcessingReset() time.Duration {
	return time.Duration(g.ProcessingResetMs) * time.Millisecond
}

// Conversations holds the per-character session settings.
type Conversations struct {
	HistoryCapacity      ConfigInt `yaml:"HistoryCapacity"`      // Turns kept per character, oldest evicted first
	MaxOptions           ConfigInt `yaml:"MaxOptions"`           // Response options presented, plus the exit choice
	ContinueDelayTicks   ConfigInt `yaml:"ContinueDelayTicks"`   // Ticks between a choice and the follow-up request
	IdleTeardownTicks    ConfigInt `yaml:"IdleTeardownTicks"`    // Session waiting on the host longer than this is discarded
	MaxTrackedCharacters ConfigInt `yaml:"MaxTrackedCharacters"` // Characters with retained history
}

func (c *Conversations) Validate() {
	if c.HistoryCapacity < 1 {
		c.HistoryCapacity = 10
	} else if c.HistoryCapacity > 50 {
		c.HistoryCapacity = 50 // Cap at 50 turns
	}
	if c.MaxOptions < 1 || c.MaxOptions > 3 {
		c.MaxOptions = 3
	}
	if c.ContinueDelayTicks < 1 {
		c.ContinueDelayTicks = 1
	}
	if c.IdleTeardownTicks < 60 {
		c.IdleTeardownTicks = 3600
	}
	if c.MaxTrackedCharacters < 1 {
		c.MaxTrackedCharacters = 64
	}
}

// Gifts configures the optional gift filter script. The script defines
// giftable(item, characterId) and can refuse items the built-in rules accept.
type Gifts struct {
	FilterScript    ConfigString `yaml:"FilterScript" env:"ECHOES_GIFT_FILTER"`
	FilterTimeoutMs ConfigInt    `yaml:"FilterTimeoutMs"` // A script running longer than this is interrupted and the item allowed
}

func (g *Gifts) Validate() {
	if g.FilterTimeoutMs < 1 {
		g.FilterTimeoutMs = 50
	}
}

func (g Gifts) FilterTimeout() time.Duration {
	return time.Duration(g.FilterTimeoutMs) * time.Millisecond
}
