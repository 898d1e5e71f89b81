package language

import (
	"strings"

	"golang.org/x/text/language"
)

const DefaultCode = `en`

// Codes the dialogue service understands. Index 0 is the fallback.
var supportedCodes = []string{`en`, `es`, `fr`, `de`, `it`, `pt`, `ru`, `ja`, `zh`, `ko`}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(supportedCodes))
	for _, code := range supportedCodes {
		tags = append(tags, language.Make(code))
	}
	return language.NewMatcher(tags)
}()

// Normalize turns whatever the host reports ("es-ES", "pt_BR", "ZH", "")
// into a lowercase ISO-639-1 code from the supported set, defaulting to en.
func Normalize(code string) string {

	code = strings.TrimSpace(strings.ReplaceAll(code, `_`, `-`))
	if code == `` {
		return DefaultCode
	}

	tag, err := language.Parse(code)
	if err != nil {
		return DefaultCode
	}

	_, index, confidence := matcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(supportedCodes) {
		return DefaultCode
	}

	return supportedCodes[index]
}
