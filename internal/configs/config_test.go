package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()

	require.Equal(t, `http://127.0.0.1:8000`, string(c.DialogueService.BaseURL))
	require.Equal(t, 30*time.Second, c.DialogueService.Timeout())
	require.Equal(t, 5*time.Second, c.DialogueService.EndTimeout())

	require.Equal(t, 500*time.Millisecond, c.Gate.Debounce())
	require.Equal(t, time.Second, c.Gate.TrackingReset())
	require.Equal(t, 2*time.Second, c.Gate.ProcessingReset())
	require.Equal(t, ConfigInt(3), c.Gate.ValidationDelayTicks)
	require.Equal(t, ConfigInt(4), c.Gate.InteractionDistance)

	require.Equal(t, ConfigInt(10), c.Conversations.HistoryCapacity)
	require.Equal(t, ConfigInt(3), c.Conversations.MaxOptions)
	require.Equal(t, ConfigInt(1), c.Conversations.ContinueDelayTicks)

	require.Equal(t, `info`, string(c.Logging.Level))
	require.Equal(t, `text`, string(c.Logging.Format))
	require.Equal(t, `127.0.0.1:7777`, string(c.Bridge.ListenAddr))
}

func TestValidateClamps(t *testing.T) {
	c := Config{
		DialogueService: DialogueService{BaseURL: `http://svc:9000/`, TimeoutSeconds: 1000, EndTimeoutSeconds: 900},
		Gate:            Gate{DebounceMs: 800, TrackingResetMs: 100, ValidationDelayTicks: 500},
		Conversations:   Conversations{HistoryCapacity: 99, MaxOptions: 7},
		Logging:         Logging{Level: `LOUD`, Format: `JSON`},
	}
	c.validate()

	require.Equal(t, `http://svc:9000`, string(c.DialogueService.BaseURL))
	require.Equal(t, ConfigInt(300), c.DialogueService.TimeoutSeconds)
	require.Equal(t, ConfigInt(300), c.DialogueService.EndTimeoutSeconds)

	require.Equal(t, ConfigInt(1000), c.Gate.TrackingResetMs)
	require.Equal(t, ConfigInt(2000), c.Gate.ProcessingResetMs)
	require.Equal(t, ConfigInt(60), c.Gate.ValidationDelayTicks)

	require.Equal(t, ConfigInt(50), c.Conversations.HistoryCapacity)
	require.Equal(t, ConfigInt(3), c.Conversations.MaxOptions)

	require.Equal(t, `info`, string(c.Logging.Level))
	require.Equal(t, `json`, string(c.Logging.Format))
}

func TestLoadWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `echoes.yaml`)

	yamlData := `
DialogueService:
  BaseURL: http://from-file:8000
  APIKey: file-key
Gate:
  DebounceMs: 250
Conversations:
  HistoryCapacity: 6
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0644))

	t.Setenv(`ECHOES_DIALOGUE_URL`, `http://from-env:8001/`)
	t.Setenv(`ECHOES_LOG_LEVEL`, `debug`)

	c, err := Load(path, false)
	require.NoError(t, err)

	require.Equal(t, `http://from-env:8001`, string(c.DialogueService.BaseURL))
	require.Equal(t, `file-key`, string(c.DialogueService.APIKey))
	require.Equal(t, `*** REDACTED ***`, c.DialogueService.APIKey.String())
	require.Equal(t, ConfigInt(250), c.Gate.DebounceMs)
	require.Equal(t, ConfigInt(6), c.Conversations.HistoryCapacity)
	require.Equal(t, `debug`, string(c.Logging.Level))
	require.Equal(t, `echoes.yaml`, c.Filepath())

	require.Equal(t, c.DialogueService, Get().DialogueService)
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), `nope.yaml`)

	_, err := Load(missing, false)
	require.Error(t, err)

	c, err := Load(missing, true)
	require.NoError(t, err)
	require.Equal(t, Default().Gate, c.Gate)
}
