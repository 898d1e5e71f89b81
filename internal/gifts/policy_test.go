package gifts

import (
	"testing"

	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/stretchr/testify/require"
)

func counters(today, week int) *hostinterfaces.GiftCounters {
	return &hostinterfaces.GiftCounters{Today: today, ThisWeek: week}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		counters *hostinterfaces.GiftCounters
		facts    Facts
		verdict  Verdict
		rule     Rule
		reset    bool
	}{
		{"no record", nil, Facts{}, Allowed, RuleNoRecord, false},
		{"fresh counters", counters(0, 0), Facts{}, Allowed, RuleLimits, false},
		{"one this week", counters(0, 1), Facts{}, Allowed, RuleLimits, false},
		{"already today", counters(1, 1), Facts{}, Denied, RuleLimits, false},
		{"weekly limit", counters(0, 2), Facts{}, Denied, RuleLimits, false},
		{"birthday beats limits", counters(1, 2), Facts{IsBirthday: true}, Allowed, RuleBirthday, false},
		{"birthday without record", nil, Facts{IsBirthday: true}, Allowed, RuleBirthday, false},
		{"spouse ignores week", counters(0, 5), Facts{IsSpouse: true, IsMarriageCandidate: true}, Allowed, RuleSpouse, false},
		{"spouse daily limit", counters(1, 1), Facts{IsSpouse: true, IsMarriageCandidate: true}, Denied, RuleSpouse, false},
		{"candidate premature increment", counters(1, 1), Facts{IsMarriageCandidate: true}, Allowed, RuleCounterReset, true},
		{"candidate real limit", counters(1, 2), Facts{IsMarriageCandidate: true}, Denied, RuleLimits, false},
		{"candidate weekly limit", counters(0, 2), Facts{IsMarriageCandidate: true}, Denied, RuleLimits, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := Evaluate("Haley", test.counters, test.facts)
			require.Equal(t, test.verdict, d.Verdict)
			require.Equal(t, test.rule, d.Rule)
			require.Equal(t, test.reset, d.ResetCounters)
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	c := counters(1, 1)
	first := Evaluate("Maru", c, Facts{IsMarriageCandidate: true})
	second := Evaluate("Maru", c, Facts{IsMarriageCandidate: true})

	require.Equal(t, first, second)
	// The reset is the caller's job.
	require.Equal(t, counters(1, 1), c)
}

func TestScenarioB(t *testing.T) {
	d := Evaluate("Pierre", counters(1, 0), Facts{})
	require.False(t, d.Allowed())
}

func TestGiftable(t *testing.T) {
	tests := []struct {
		item     hostinterfaces.Item
		expected bool
	}{
		{hostinterfaces.Item{Name: "Parsnip"}, true},
		{hostinterfaces.Item{Name: "  Amethyst "}, true},
		{hostinterfaces.Item{Name: ""}, false},
		{hostinterfaces.Item{Name: "   "}, false},
		{hostinterfaces.Item{Name: "X"}, false},
		{hostinterfaces.Item{Name: "???"}, false},
		{hostinterfaces.Item{Name: "Weird ??? Thing"}, false},
		{hostinterfaces.Item{Name: "Scythe"}, false},
		{hostinterfaces.Item{Name: "Golden Scythe"}, false},
		{hostinterfaces.Item{Name: "Toolbox"}, false},
		{hostinterfaces.Item{Name: "Watering Can", IsTool: true}, false},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, Giftable(test.item), "item %q", test.item.Name)
	}
}

func TestNewEnvelope(t *testing.T) {
	e := NewEnvelope(hostinterfaces.Item{Name: " Diamond ", Category: "Mineral", Quality: 7}, true)
	require.Equal(t, Envelope{
		ItemName:       "Diamond",
		ItemCategory:   "Mineral",
		ItemQuality:    3,
		GiftPreference: "unknown",
		IsBirthday:     true,
	}, e)

	require.Equal(t, 0, NewEnvelope(hostinterfaces.Item{Name: "Clay", Quality: -1}, false).ItemQuality)
}
