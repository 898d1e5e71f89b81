package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/GoMudEngine/ansitags"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/mattn/go-runewidth"
)

const defaultWidth = 78

// Prompt is the last set of choices put in front of the player.
type Prompt struct {
	CharacterId string
	Text        string
	Choices     []hostinterfaces.Choice
}

// Console is a Presenter that draws to a terminal. It also remembers which
// message box and which choice menu are open so a line based host can
// answer them.
type Console struct {
	out   io.Writer
	width int
	color bool

	lock        sync.Mutex
	openMessage string // character whose message box is open
	prompt      *Prompt
	suppressed  int
}

func New(out io.Writer, width int, color bool) *Console {
	if width < 20 {
		width = defaultWidth
	}
	return &Console{out: out, width: width, color: color}
}

// Suppress only counts; there is no native terminal handling to stop.
func (c *Console) Suppress(button string) {
	c.lock.Lock()
	c.suppressed++
	c.lock.Unlock()
}

func (c *Console) ShowMessage(characterId string, text string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.openMessage = characterId
	c.prompt = nil

	c.printf(`<ansi fg="yellow">%s</ansi>`, escape(characterId))
	for _, line := range strings.Split(runewidth.Wrap(text, c.width-2), "\n") {
		c.printf(`  %s`, escape(line))
	}
	c.printf(`<ansi fg="black" bg="white"> close </ansi>`)
}

func (c *Console) ShowChoices(characterId string, prompt string, choices []hostinterfaces.Choice) {
	c.lock.Lock()
	defer c.lock.Unlock()

	cp := make([]hostinterfaces.Choice, len(choices))
	copy(cp, choices)

	c.openMessage = ``
	c.prompt = &Prompt{CharacterId: characterId, Text: prompt, Choices: cp}

	c.printf(`<ansi fg="cyan">%s</ansi>`, escape(runewidth.Wrap(prompt, c.width)))
	for i, choice := range cp {
		label := runewidth.Truncate(choice.Label, c.width-6, `...`)
		c.printf(`  <ansi fg="green">%d</ansi>) %s`, i+1, escape(label))
	}
}

func (c *Console) Notify(text string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.printf(`<ansi fg="magenta">* %s</ansi>`, escape(text))
}

// Print writes a line of host chatter, such as command feedback.
func (c *Console) Print(format string, args ...any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.printf(`%s`, escape(fmt.Sprintf(format, args...)))
}

// OpenMessage returns the character whose message box is showing.
func (c *Console) OpenMessage() (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.openMessage, c.openMessage != ``
}

// CloseMessage marks the open message box as dismissed.
func (c *Console) CloseMessage() (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	id := c.openMessage
	c.openMessage = ``
	return id, id != ``
}

// Choose resolves a 1-based menu number and closes the menu.
func (c *Console) Choose(n int) (characterId string, key string, ok bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.prompt == nil || n < 1 || n > len(c.prompt.Choices) {
		return ``, ``, false
	}
	p := c.prompt
	c.prompt = nil
	return p.CharacterId, p.Choices[n-1].Key, true
}

func (c *Console) Prompt() (Prompt, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.prompt == nil {
		return Prompt{}, false
	}
	return *c.prompt, true
}

func (c *Console) Suppressed() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.suppressed
}

// printf expects the lock to be held.
func (c *Console) printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if c.color {
		line = ansitags.Parse(line)
	} else {
		line = ansitags.Parse(line, ansitags.StripTags)
	}
	fmt.Fprintln(c.out, line)
}

var unmarkup = strings.NewReplacer(`<`, `‹`, `>`, `›`)

// escape keeps text from the service from being read as markup.
func escape(s string) string {
	return unmarkup.Replace(s)
}
