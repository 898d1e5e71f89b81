package configs

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/StardewEchoes/echoes/internal/fileloader"
	"github.com/pkg/errors"
)

const DefaultConfigFile = `echoes.yaml`

type Config struct {
	DialogueService DialogueService `yaml:"DialogueService"`
	Gate            Gate            `yaml:"Gate"`
	Conversations   Conversations   `yaml:"Conversations"`
	Gifts           Gifts           `yaml:"Gifts"`
	Logging         Logging         `yaml:"Logging"`
	Bridge          Bridge          `yaml:"Bridge"`

	// where this config was loaded from, used when saving it back out
	fileName string
}

var (
	configDataLock sync.RWMutex
	configData     = Default()
)

// Default returns a fully validated config with every default applied.
func Default() Config {
	c := Config{fileName: DefaultConfigFile}
	c.validate()
	return c
}

func (c *Config) validate() {
	c.DialogueService.Validate()
	c.Gate.Validate()
	c.Conversations.Validate()
	c.Gifts.Validate()
	c.Logging.Validate()
	c.Bridge.Validate()
}

// Validate satisfies fileloader.LoadableSimple. Bad values are clamped
// later rather than rejected, so it never fails.
func (c Config) Validate() error {
	return nil
}

func (c Config) Filepath() string {
	return c.fileName
}

// WithFilepath returns a copy that saves to a different file name.
func (c Config) WithFilepath(name string) Config {
	c.fileName = name
	return c
}

// Load reads a yaml config file, applies env overrides and defaults, and
// installs it as the process config. A missing file is not an error when
// allowMissing is set; defaults plus env overrides are used instead.
func Load(path string, allowMissing bool) (Config, error) {

	var c Config

	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && allowMissing {
		c = Config{}
	} else {
		loaded, err := fileloader.LoadFlatFile[Config](path)
		if err != nil {
			return Default(), errors.Wrap(err, `loading config`)
		}
		c = loaded
	}

	c.fileName = filepath.Base(path)
	applyEnvOverrides(&c)
	c.validate()

	configDataLock.Lock()
	configData = c
	configDataLock.Unlock()

	return c, nil
}

// Set installs an already built config as the process config.
func Set(c Config) {
	c.validate()

	configDataLock.Lock()
	configData = c
	configDataLock.Unlock()
}

func Get() Config {
	configDataLock.RLock()
	defer configDataLock.RUnlock()

	return configData
}

type envSetter interface {
	Set(raw string)
}

// applyEnvOverrides walks every section and sets fields that carry an
// `env` tag whose variable is present in the environment.
func applyEnvOverrides(c *Config) {
	root := reflect.ValueOf(c).Elem()

	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		if section.Kind() != reflect.Struct || !section.CanSet() {
			continue
		}

		sectionType := section.Type()
		for j := 0; j < section.NumField(); j++ {
			envName := sectionType.Field(j).Tag.Get(`env`)
			if envName == `` {
				continue
			}
			raw, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			field := section.Field(j)
			if !field.CanAddr() {
				continue
			}
			if setter, ok := field.Addr().Interface().(envSetter); ok {
				setter.Set(raw)
			}
		}
	}
}
