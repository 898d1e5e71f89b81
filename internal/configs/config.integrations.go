package configs

import (
	"strings"
	"time"
)

// DialogueService points at the external dialogue generator.
type DialogueService struct {
	BaseURL           ConfigString `yaml:"BaseURL" env:"ECHOES_DIALOGUE_URL"`     // Base URL, /generate_dialogue and /end_conversation are appended
	APIKey            ConfigSecret `yaml:"APIKey" env:"ECHOES_DIALOGUE_API_KEY"`  // Optional bearer token
	TimeoutSeconds    ConfigInt    `yaml:"TimeoutSeconds"`                        // Budget for a single generate call
	EndTimeoutSeconds ConfigInt    `yaml:"EndTimeoutSeconds"`                     // Budget for the fire-and-forget end notification
}

func (d *DialogueService) Validate() {

	if d.BaseURL == `` {
		d.BaseURL = `http://127.0.0.1:8000`
	}
	d.BaseURL = ConfigString(strings.TrimSuffix(string(d.BaseURL), `/`))

	if d.TimeoutSeconds < 1 {
		d.TimeoutSeconds = 30
	} else if d.TimeoutSeconds > 300 {
		d.TimeoutSeconds = 300
	}

	if d.EndTimeoutSeconds < 1 {
		d.EndTimeoutSeconds = 5
	} else if d.EndTimeoutSeconds > d.TimeoutSeconds {
		d.EndTimeoutSeconds = d.TimeoutSeconds
	}
}

func (d DialogueService) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func (d DialogueService) EndTimeout() time.Duration {
	return time.Duration(d.EndTimeoutSeconds) * time.Second
}

// Bridge is the websocket endpoint an out-of-process host connects to.
type Bridge struct {
	ListenAddr ConfigString `yaml:"ListenAddr" env:"ECHOES_BRIDGE_ADDR"`
	// Outbound frames buffered per host connection before the connection is dropped
	SendBuffer ConfigInt `yaml:"SendBuffer"`
}

func (b *Bridge) Validate() {
	if b.ListenAddr == `` {
		b.ListenAddr = `127.0.0.1:7777`
	}
	if b.SendBuffer < 16 {
		b.SendBuffer = 256
	}
}
