package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/console"
	"github.com/StardewEchoes/echoes/internal/dialogue"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/StardewEchoes/echoes/internal/sandbox"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestPlayScript(t *testing.T) {
	var lock sync.Mutex
	replies := []string{
		`{"npc_message":"Oh! Hi there, farmer.","response_options":["Hello Abigail"],"friendship_change":5}`,
		`{"npc_message":"See you around.","response_options":[],"friendship_change":0}`,
	}
	ended := 0

	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		if r.URL.Path == dialogue.PathEnd {
			ended++
			return
		}
		w.Write([]byte(replies[0]))
		if len(replies) > 1 {
			replies = replies[1:]
		}
	}))
	defer svc.Close()

	c := configs.Default()
	c.DialogueService.BaseURL = configs.ConfigString(svc.URL)

	world := sandbox.New(sandbox.WorldFile{
		Player:   hostinterfaces.PlayerInfo{Id: "farmer", Name: "Farmer", Location: "Town", Tile: hostinterfaces.Tile{X: 4, Y: 4}},
		Calendar: hostinterfaces.Calendar{Season: "spring", DayOfMonth: 1, Year: 1, TimeOfDay: 800},
		Language: "en",
		Characters: []hostinterfaces.CharacterInfo{
			{Id: "Abigail", Name: "Abigail", Location: "Town", Tile: hostinterfaces.Tile{X: 5, Y: 4}, IsVillager: true},
		},
	})

	var out bytes.Buffer
	con := console.New(&out, 78, false)
	client := dialogue.NewClient(c.DialogueService, int(c.Conversations.MaxOptions))

	script := strings.Join([]string{
		"look",
		"talk Abigail",
		"close",
		"choose 1",
		"close",
		"choose 1",
		"dance",
		"quit",
	}, "\n")

	require.NoError(t, play(context.Background(), c, world, con, client, strings.NewReader(script)))
	client.Wait()

	text := out.String()
	require.Contains(t, text, "Farmer is in Town")
	require.Contains(t, text, "Oh! Hi there, farmer.")
	require.Contains(t, text, "1) Hello Abigail")
	require.Contains(t, text, "See you around.")
	require.Contains(t, text, `unknown command "dance"`)
	require.Equal(t, 5, world.Points("Abigail"))

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, 1, ended)
}

func TestCheckConfig(t *testing.T) {
	saved, savedWrite := cfg, writeFlag
	defer func() { cfg, writeFlag = saved, savedWrite }()

	cfg = configs.Default()
	cfg.DialogueService.APIKey = "hunter2"
	writeFlag = t.TempDir()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runCheckConfig(cmd, nil))
	require.Contains(t, out.String(), "DialogueService")
	require.NotContains(t, out.String(), "hunter2")

	written, err := os.ReadFile(filepath.Join(writeFlag, configs.DefaultConfigFile))
	require.NoError(t, err)
	require.Contains(t, string(written), "hunter2")

	loaded, err := configs.Load(filepath.Join(writeFlag, configs.DefaultConfigFile), false)
	require.NoError(t, err)
	require.Equal(t, cfg.Gate, loaded.Gate)
}
