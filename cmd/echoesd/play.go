package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/console"
	"github.com/StardewEchoes/echoes/internal/dialogue"
	"github.com/StardewEchoes/echoes/internal/engine"
	"github.com/StardewEchoes/echoes/internal/events"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/sandbox"
	"github.com/spf13/cobra"
)

const playHelp = `commands:
  look                  who is here, what you hold
  talk <id>             talk with empty hands
  give <id> [item]      give the held item, or pick one first
  hold [item]           hold an item, or put it away
  close                 close the open message
  choose <n>            pick a numbered choice
  tick [n]              let n ticks pass (default 1)
  move <location> [x y] walk somewhere
  day                   sleep until tomorrow
  stats                 engine diagnostics
  quit`

func runPlay(cmd *cobra.Command, args []string) error {
	world, err := sandbox.Load(worldFlag)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	con := console.New(cmd.OutOrStdout(), widthFlag, colorFlag)
	client := dialogue.NewClient(cfg.DialogueService, int(cfg.Conversations.MaxOptions))

	return play(ctx, cfg, world, con, client, cmd.InOrStdin())
}

// session is a terminal host: each line read is one batch of host events.
type session struct {
	cfg   configs.Config
	world *sandbox.World
	con   *console.Console
	eng   *engine.Engine
	now   func() time.Time
}

func play(ctx context.Context, cfg configs.Config, world *sandbox.World, con *console.Console, client dialogue.Generator, in io.Reader) error {

	eng, err := engine.New(ctx, cfg, engine.Deps{
		Host:   world.Host(con),
		Client: client,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	s := &session{cfg: cfg, world: world, con: con, eng: eng, now: time.Now}

	eng.Handle(events.WorldLoaded{})
	con.Print("%s", playHelp)
	s.look()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if !s.command(strings.Fields(scanner.Text())) {
			return nil
		}
	}
	return scanner.Err()
}

// command runs one line. Returns false to quit.
func (s *session) command(words []string) bool {
	if len(words) == 0 {
		return true
	}

	s.eng.Handle(events.CursorMoved{Timestamp: s.now()})

	verb, rest := strings.ToLower(words[0]), words[1:]

	switch verb {

	case `quit`, `exit`:
		return false

	case `help`, `?`:
		s.con.Print("%s", playHelp)

	case `look`:
		s.look()

	case `talk`:
		if len(rest) < 1 {
			s.con.Print("talk to whom?")
			return true
		}
		s.world.Hold(``)
		s.press(rest[0])

	case `give`:
		if len(rest) < 1 {
			s.con.Print("give to whom?")
			return true
		}
		if len(rest) > 1 && !s.world.Hold(strings.Join(rest[1:], ` `)) {
			s.con.Print("you don't have that")
			return true
		}
		if _, holding := s.world.HeldItem(); !holding {
			s.con.Print("you aren't holding anything")
			return true
		}
		s.press(rest[0])

	case `hold`:
		name := strings.Join(rest, ` `)
		if !s.world.Hold(name) {
			s.con.Print("you don't have that")
			return true
		}
		s.look()

	case `close`:
		characterId, open := s.con.CloseMessage()
		if !open {
			s.con.Print("nothing to close")
			return true
		}
		s.eng.Handle(events.DisplayClosed{CharacterId: characterId})

	case `choose`:
		n := 0
		if len(rest) > 0 {
			n, _ = strconv.Atoi(rest[0])
		}
		characterId, key, ok := s.con.Choose(n)
		if !ok {
			s.con.Print("no such choice")
			return true
		}
		s.eng.Handle(events.ChoiceSelected{CharacterId: characterId, Key: key})
		s.run(int(s.cfg.Conversations.ContinueDelayTicks) + 2)

	case `tick`:
		n := 1
		if len(rest) > 0 {
			if v, err := strconv.Atoi(rest[0]); err == nil && v > 0 {
				n = v
			}
		}
		s.run(n)

	case `move`:
		if len(rest) < 1 {
			s.con.Print("move where?")
			return true
		}
		tile := s.world.Player().Tile
		if len(rest) >= 3 {
			x, errX := strconv.Atoi(rest[1])
			y, errY := strconv.Atoi(rest[2])
			if errX == nil && errY == nil {
				tile = hostinterfaces.Tile{X: x, Y: y}
			}
		}
		s.world.MovePlayer(rest[0], tile)
		s.look()

	case `day`:
		s.world.NewDay()
		cal := s.world.Calendar()
		s.con.Print("%s %d, year %d", cal.Season, cal.DayOfMonth, cal.Year)

	case `stats`:
		b, _ := json.MarshalIndent(s.eng.Stats(), ``, `  `)
		s.con.Print("%s", b)

	default:
		s.con.Print("unknown command %q, try help", verb)
	}

	return true
}

// press is a right click on a character, followed by enough ticks for the
// reply to come back.
func (s *session) press(characterId string) {
	s.eng.Handle(events.ButtonPressed{
		ActorId:           s.world.Player().Id,
		TargetCharacterId: characterId,
		Button:            `MouseRight`,
		Timestamp:         s.now(),
	})
	s.run(int(s.cfg.Gate.ValidationDelayTicks) + 2)
}

// run advances n ticks, waiting for the dialogue service between ticks.
func (s *session) run(n int) {
	for i := 0; i < n; i++ {
		s.eng.Settle()
		s.eng.Handle(events.NewTick{Tick: s.eng.Tick() + 1})
	}
}

func (s *session) look() {
	player := s.world.Player()
	s.con.Print("%s is in %s at %d,%d", player.Name, player.Location, player.Tile.X, player.Tile.Y)

	for _, c := range s.world.Characters() {
		hearts := hostinterfaces.Hearts(s.world.Points(c.Id))
		s.con.Print("  %-10s %s  %d hearts, %d tiles away", c.Id, c.Name, hearts, c.Tile.Distance(player.Tile))
	}

	if item, holding := s.world.HeldItem(); holding {
		s.con.Print("holding %s (%d)", item.Name, s.world.Count(item.Ref))
	} else {
		s.con.Print("empty handed")
	}
}
