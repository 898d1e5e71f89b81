package sandbox

import (
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
)

// Shown is one thing the engine asked the host to display.
type Shown struct {
	Kind        string // suppress, message, choices, notify
	CharacterId string
	Text        string
	Choices     []hostinterfaces.Choice
}

// Recorder is a Presenter that remembers every call. Wrap another
// Presenter with Next to display as well as record.
type Recorder struct {
	Next  hostinterfaces.Presenter
	Shown []Shown
}

func (r *Recorder) Suppress(button string) {
	r.Shown = append(r.Shown, Shown{Kind: `suppress`, Text: button})
	if r.Next != nil {
		r.Next.Suppress(button)
	}
}

func (r *Recorder) ShowMessage(characterId string, text string) {
	r.Shown = append(r.Shown, Shown{Kind: `message`, CharacterId: characterId, Text: text})
	if r.Next != nil {
		r.Next.ShowMessage(characterId, text)
	}
}

func (r *Recorder) ShowChoices(characterId string, prompt string, choices []hostinterfaces.Choice) {
	cp := make([]hostinterfaces.Choice, len(choices))
	copy(cp, choices)
	r.Shown = append(r.Shown, Shown{Kind: `choices`, CharacterId: characterId, Text: prompt, Choices: cp})
	if r.Next != nil {
		r.Next.ShowChoices(characterId, prompt, choices)
	}
}

func (r *Recorder) Notify(text string) {
	r.Shown = append(r.Shown, Shown{Kind: `notify`, Text: text})
	if r.Next != nil {
		r.Next.Notify(text)
	}
}

// Last returns the most recent call of a kind.
func (r *Recorder) Last(kind string) (Shown, bool) {
	for i := len(r.Shown) - 1; i >= 0; i-- {
		if r.Shown[i].Kind == kind {
			return r.Shown[i], true
		}
	}
	return Shown{}, false
}

func (r *Recorder) Count(kind string) int {
	ct := 0
	for _, s := range r.Shown {
		if s.Kind == kind {
			ct++
		}
	}
	return ct
}

// Host bundles the world with a presenter.
func (w *World) Host(p hostinterfaces.Presenter) hostinterfaces.Host {
	return hostinterfaces.Host{
		World:     w,
		Ledger:    w,
		Inventory: w,
		Presenter: p,
	}
}
