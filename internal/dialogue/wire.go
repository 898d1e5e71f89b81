package dialogue

import (
	"github.com/StardewEchoes/echoes/internal/gifts"
	"github.com/StardewEchoes/echoes/internal/history"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
)

// Request is the body of POST /generate_dialogue.
type Request struct {
	// CharacterId keys usage stats. It is not sent.
	CharacterId string `json:"-"`

	NpcName             string                 `json:"npc_name"`
	NpcLocation         string                 `json:"npc_location"`
	PlayerName          string                 `json:"player_name"`
	FriendshipHearts    int                    `json:"friendship_hearts"`
	Season              string                 `json:"season"`
	DayOfMonth          int                    `json:"day_of_month"`
	DayOfWeek           int                    `json:"day_of_week"`
	TimeOfDay           int                    `json:"time_of_day"`
	Year                int                    `json:"year"`
	Weather             hostinterfaces.Weather `json:"weather"`
	PlayerLocation      string                 `json:"player_location"`
	Language            string                 `json:"language"`
	ConversationHistory []history.Turn         `json:"conversation_history"`
	PlayerResponse      *string                `json:"player_response"`
	GiftGiven           *gifts.Envelope        `json:"gift_given"`
}

// response is what the service sends back from /generate_dialogue.
type response struct {
	NpcMessage       string   `json:"npc_message"`
	ResponseOptions  []string `json:"response_options"`
	FriendshipChange int      `json:"friendship_change"`
}

type endRequest struct {
	PlayerName string `json:"player_name"`
	NpcName    string `json:"npc_name"`
}

type Status uint8

const (
	// StatusOK carries a generated turn.
	StatusOK Status = iota
	// StatusDegraded means the service answered with a non-2xx status.
	StatusDegraded
	// StatusFallback means a 2xx answer with nothing usable in it.
	StatusFallback
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return `ok`
	case StatusDegraded:
		return `degraded`
	case StatusFallback:
		return `fallback`
	}
	return `unknown`
}

type Result struct {
	Status          Status
	Message         string
	Options         []string
	FriendshipDelta int

	HTTPStatus int
	RequestId  string
}
