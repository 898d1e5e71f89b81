package sandbox

import (
	"path/filepath"
	"strings"

	"github.com/StardewEchoes/echoes/internal/fileloader"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/pkg/errors"
)

// FriendshipRecord is one row of the relationship ledger. A character
// without a row has never been met.
type FriendshipRecord struct {
	Points        int `yaml:"points"`
	GiftsToday    int `yaml:"giftstoday"`
	GiftsThisWeek int `yaml:"giftsthisweek"`
}

type Stack struct {
	Item  hostinterfaces.Item `yaml:"item"`
	Count int                 `yaml:"count"`
}

// WorldFile is the yaml shape of a sandbox world.
type WorldFile struct {
	Player     hostinterfaces.PlayerInfo      `yaml:"player"`
	Calendar   hostinterfaces.Calendar        `yaml:"calendar"`
	Weather    string                         `yaml:"weather"`
	Language   string                         `yaml:"language"`
	Characters []hostinterfaces.CharacterInfo `yaml:"characters"`
	Friendship map[string]FriendshipRecord    `yaml:"friendship"`
	Inventory  []Stack                        `yaml:"inventory"`
	Held       string                         `yaml:"held"` // item ref

	fileName string
}

func (w WorldFile) Filepath() string {
	return w.fileName
}

func (w WorldFile) Validate() error {
	if w.Player.Name == `` {
		return errors.New(`player.name is required`)
	}

	seen := map[string]struct{}{}
	for _, c := range w.Characters {
		if c.Id == `` {
			return errors.New(`character without id`)
		}
		if _, ok := seen[c.Id]; ok {
			return errors.Errorf(`duplicate character id %q`, c.Id)
		}
		seen[c.Id] = struct{}{}
	}

	refs := map[string]struct{}{}
	for _, s := range w.Inventory {
		if s.Item.Ref == `` {
			return errors.Errorf(`inventory item %q has no ref`, s.Item.Name)
		}
		refs[s.Item.Ref] = struct{}{}
	}
	if w.Held != `` {
		if _, ok := refs[w.Held]; !ok {
			return errors.Errorf(`held item %q is not in the inventory`, w.Held)
		}
	}
	return nil
}

// Load reads a world file and builds a World from it.
func Load(path string) (*World, error) {
	wf, err := fileloader.LoadFlatFile[WorldFile](path)
	if err != nil {
		return nil, errors.Wrap(err, `loading world`)
	}
	wf.fileName = filepath.Base(path)

	if strings.TrimSpace(wf.Player.Id) == `` {
		wf.Player.Id = wf.Player.Name
	}
	return New(wf), nil
}
