package gifts

import (
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
)

type Verdict uint8

const (
	Denied Verdict = iota
	Allowed
)

func (v Verdict) String() string {
	if v == Allowed {
		return `allowed`
	}
	return `denied`
}

// Rule names the rule that produced a decision.
type Rule string

const (
	RuleBirthday     Rule = `birthday`
	RuleNoRecord     Rule = `no-record`
	RuleCounterReset Rule = `counter-reset`
	RuleSpouse       Rule = `spouse`
	RuleLimits       Rule = `limits`
)

const (
	MaxGiftsPerDay  = 1
	MaxGiftsPerWeek = 2
)

// Facts are the calendar and relationship facts about a character at the
// moment a gift is offered.
type Facts struct {
	IsBirthday          bool
	IsSpouse            bool
	IsMarriageCandidate bool
}

type Decision struct {
	Verdict Verdict
	Rule    Rule
	// ResetCounters asks the caller to zero the character's counters before
	// the gift goes through. Only RuleCounterReset sets it.
	ResetCounters bool
}

func (d Decision) Allowed() bool {
	return d.Verdict == Allowed
}

// Evaluate decides whether a character may receive a gift right now.
// counters is nil when the ledger has no record for the character.
// The result depends on the arguments alone.
func Evaluate(characterId string, counters *hostinterfaces.GiftCounters, facts Facts) Decision {

	if facts.IsBirthday {
		return Decision{Verdict: Allowed, Rule: RuleBirthday}
	}

	if counters == nil {
		return Decision{Verdict: Allowed, Rule: RuleNoRecord}
	}

	if d, ok := prematureIncrement(characterId, *counters, facts); ok {
		return d
	}

	if facts.IsSpouse {
		return verdict(counters.Today < MaxGiftsPerDay, RuleSpouse)
	}

	return verdict(counters.Today < MaxGiftsPerDay && counters.ThisWeek < MaxGiftsPerWeek, RuleLimits)
}

// prematureIncrement covers unmarried marriage candidates whose counters
// read exactly {1,1} when a gift is offered. The host appears to count the
// gift before we see it. Counters are reset and the gift allowed.
//
// TODO: confirm the trigger against the host's gift bookkeeping order; other
// counter values may be affected too. Our own count after a delivered gift
// also leaves {1,1}, so an unmarried candidate's second gift on the first
// gifting day of a week passes here and the daily and weekly limits never
// bite for that day.
func prematureIncrement(characterId string, counters hostinterfaces.GiftCounters, facts Facts) (Decision, bool) {
	if !facts.IsMarriageCandidate || facts.IsSpouse {
		return Decision{}, false
	}
	if counters.Today != 1 || counters.ThisWeek != 1 {
		return Decision{}, false
	}

	echolog.Warn("Gifts", "info", "suspected premature counter increment, resetting", "characterId", characterId, "today", counters.Today, "week", counters.ThisWeek)

	return Decision{Verdict: Allowed, Rule: RuleCounterReset, ResetCounters: true}, true
}

func verdict(ok bool, rule Rule) Decision {
	if ok {
		return Decision{Verdict: Allowed, Rule: rule}
	}
	return Decision{Verdict: Denied, Rule: rule}
}
