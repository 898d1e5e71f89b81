package configs

import (
	"strconv"
	"strings"
)

type ConfigBool bool
type ConfigString string
type ConfigSecret string
type ConfigInt int

func (c ConfigString) String() string {
	return string(c)
}

// ConfigSecret never prints its value.
func (c ConfigSecret) String() string {
	if c == `` {
		return ``
	}
	return `*** REDACTED ***`
}

func (c ConfigInt) String() string {
	return strconv.Itoa(int(c))
}

func (c ConfigBool) String() string {
	return strconv.FormatBool(bool(c))
}

// Set parses a raw string (from an env override) into the value.
// Unparseable input leaves the value untouched.
func (c *ConfigBool) Set(raw string) {
	if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
		*c = ConfigBool(b)
	}
}

func (c *ConfigInt) Set(raw string) {
	if i, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		*c = ConfigInt(i)
	}
}

func (c *ConfigString) Set(raw string) {
	*c = ConfigString(strings.TrimSpace(raw))
}

func (c *ConfigSecret) Set(raw string) {
	*c = ConfigSecret(strings.TrimSpace(raw))
}
