package language

import (
	"embed"
	"path"
	"sync"

	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

// Message ids used by the engine. The text lives in locales/active.<code>.yaml.
const (
	MsgExit                = `Exit`
	MsgTryAgain            = `TryAgain`
	MsgConnectionError     = `ConnectionError`
	MsgFallbackGreeting    = `FallbackGreeting`
	MsgFallbackFriendly    = `FallbackFriendly`
	MsgFallbackNeutral     = `FallbackNeutral`
	MsgFallbackProvocative = `FallbackProvocative`
	MsgChooseOption        = `ChooseOption`
	MsgHeartsIncreased     = `HeartsIncreased`
	MsgHeartsDecreased     = `HeartsDecreased`
	MsgGiftLiked           = `GiftLiked`
	MsgGiftDisliked        = `GiftDisliked`
	MsgResponseLiked       = `ResponseLiked`
	MsgResponseDisliked    = `ResponseDisliked`
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Localizer resolves a message id for a language code.
type Localizer interface {
	Text(code string, messageId string, data map[string]any) string
	Plural(code string, messageId string, count int, data map[string]any) string
}

// Catalog is the go-i18n backed Localizer. Localizers are cached per code.
type Catalog struct {
	bundle     *i18n.Bundle
	lock       sync.Mutex
	localizers map[string]*i18n.Localizer
}

// NewCatalog loads the embedded message files.
func NewCatalog() (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc(`yaml`, yaml.Unmarshal)

	entries, err := localeFiles.ReadDir(`locales`)
	if err != nil {
		return nil, errors.Wrap(err, `reading embedded locales`)
	}

	for _, entry := range entries {
		filePath := path.Join(`locales`, entry.Name())
		buf, err := localeFiles.ReadFile(filePath)
		if err != nil {
			return nil, errors.Wrap(err, filePath)
		}
		if _, err := bundle.ParseMessageFileBytes(buf, filePath); err != nil {
			return nil, errors.Wrap(err, filePath)
		}
	}

	return &Catalog{
		bundle:     bundle,
		localizers: map[string]*i18n.Localizer{},
	}, nil
}

// MustCatalog panics if the embedded files are broken, which is a build defect.
func MustCatalog() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) localizer(code string) *i18n.Localizer {
	code = Normalize(code)

	c.lock.Lock()
	defer c.lock.Unlock()

	if l, ok := c.localizers[code]; ok {
		return l
	}
	l := i18n.NewLocalizer(c.bundle, code, DefaultCode)
	c.localizers[code] = l
	return l
}

func (c *Catalog) Text(code string, messageId string, data map[string]any) string {
	return c.localize(code, &i18n.LocalizeConfig{
		MessageID:    messageId,
		TemplateData: data,
	})
}

func (c *Catalog) Plural(code string, messageId string, count int, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data[`Count`]; !ok {
		data[`Count`] = count
	}
	return c.localize(code, &i18n.LocalizeConfig{
		MessageID:    messageId,
		TemplateData: data,
		PluralCount:  count,
	})
}

func (c *Catalog) localize(code string, cfg *i18n.LocalizeConfig) string {
	text, err := c.localizer(code).Localize(cfg)
	if err != nil {
		// A missing translation still yields the English text when one exists.
		if text != `` {
			return text
		}
		echolog.Warn("language", "error", "missing message", "code", code, "messageId", cfg.MessageID, "err", err)
		return cfg.MessageID
	}
	return text
}
