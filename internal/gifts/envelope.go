package gifts

import (
	"strings"

	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
)

const PreferenceUnknown = `unknown`

// Envelope describes a gift for the dialogue service. The service works out
// whether the character likes it.
type Envelope struct {
	ItemName       string `json:"item_name"`
	ItemCategory   string `json:"item_category"`
	ItemQuality    int    `json:"item_quality"`
	GiftPreference string `json:"gift_preference"`
	IsBirthday     bool   `json:"is_birthday"`
}

func NewEnvelope(item hostinterfaces.Item, isBirthday bool) Envelope {
	quality := item.Quality
	if quality < 0 {
		quality = 0
	} else if quality > 3 {
		quality = 3
	}

	return Envelope{
		ItemName:       strings.TrimSpace(item.Name),
		ItemCategory:   item.Category,
		ItemQuality:    quality,
		GiftPreference: PreferenceUnknown,
		IsBirthday:     isBirthday,
	}
}

// Giftable rejects placeholder names and tools.
func Giftable(item hostinterfaces.Item) bool {
	name := strings.TrimSpace(item.Name)
	if name == `` || len(name) < 2 || strings.Contains(name, `???`) {
		return false
	}
	if item.IsTool {
		return false
	}

	lower := strings.ToLower(name)
	if strings.Contains(lower, `scythe`) || strings.Contains(lower, `tool`) {
		return false
	}
	return true
}
