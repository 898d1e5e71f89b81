package configs

import (
	"strings"

	"github.com/StardewEchoes/echoes/internal/echolog"
)

type Logging struct {
	Level      ConfigString `yaml:"Level" env:"ECHOES_LOG_LEVEL"` // debug, info, warn, error
	Format     ConfigString `yaml:"Format"`                       // text or json
	File       ConfigString `yaml:"File"`                         // Optional rotated log file
	MaxSizeMB  ConfigInt    `yaml:"MaxSizeMB"`
	MaxBackups ConfigInt    `yaml:"MaxBackups"`
	MaxAgeDays ConfigInt    `yaml:"MaxAgeDays"`
	AddSource  ConfigBool   `yaml:"AddSource" env:"ECHOES_LOG_SOURCE"` // Include file:line in each record
}

func (l *Logging) Validate() {
	switch strings.ToLower(string(l.Level)) {
	case `debug`, `info`, `warn`, `error`:
		l.Level = ConfigString(strings.ToLower(string(l.Level)))
	default:
		l.Level = `info`
	}

	if !strings.EqualFold(string(l.Format), `json`) {
		l.Format = `text`
	} else {
		l.Format = `json`
	}

	if l.MaxSizeMB < 1 {
		l.MaxSizeMB = 50
	}
	if l.MaxBackups < 0 {
		l.MaxBackups = 0
	}
	if l.MaxAgeDays < 0 {
		l.MaxAgeDays = 0
	}
}

// Options converts the section into echolog settings.
func (l Logging) Options() echolog.Options {
	return echolog.Options{
		Level:      string(l.Level),
		Format:     string(l.Format),
		File:       string(l.File),
		MaxSizeMB:  int(l.MaxSizeMB),
		MaxBackups: int(l.MaxBackups),
		MaxAgeDays: int(l.MaxAgeDays),
		AddSource:  bool(l.AddSource),
	}
}
