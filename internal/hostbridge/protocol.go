package hostbridge

import (
	"encoding/json"
	"time"

	"github.com/StardewEchoes/echoes/internal/events"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/pkg/errors"
)

// Frame is one websocket text message in either direction.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// host -> engine
const (
	FrameSnapshot      = `snapshot`
	FrameWorldLoaded   = `world_loaded`
	FrameButton        = `button`
	FrameTick          = `tick`
	FrameCursorMoved   = `cursor_moved`
	FrameDisplayClosed = `display_closed`
	FrameChoice        = `choice`
)

// engine -> host
const (
	FrameSuppress     = `suppress`
	FrameShowMessage  = `show_message`
	FrameShowChoices  = `show_choices`
	FrameNotify       = `notify`
	FrameRemoveItem   = `remove_item`
	FrameRestoreItem  = `restore_item`
	FrameFriendship   = `friendship`
	FrameGiftCounters = `gift_counters`
	FrameError        = `error`
)

var ErrUnknownFrame = errors.New("unknown frame type")

// LedgerRow is the host's relationship record for one character.
type LedgerRow struct {
	Points        int `json:"points"`
	GiftsToday    int `json:"gifts_today"`
	GiftsThisWeek int `json:"gifts_this_week"`
}

// Snapshot is the world as the host sees it. Hosts send one whenever
// anything the engine reads may have changed, at most once per tick.
type Snapshot struct {
	Player     hostinterfaces.PlayerInfo      `json:"player"`
	Characters []hostinterfaces.CharacterInfo `json:"characters"`
	Calendar   hostinterfaces.Calendar        `json:"calendar"`
	Raining    bool                           `json:"raining"`
	Lightning  bool                           `json:"lightning"`
	Snowing    bool                           `json:"snowing"`
	Debris     bool                           `json:"debris"`
	Language   string                         `json:"language"`
	Held       *hostinterfaces.Item           `json:"held,omitempty"`
	Friendship map[string]LedgerRow           `json:"friendship"`
}

type buttonData struct {
	ActorId     string `json:"actor_id"`
	Target      string `json:"target"`
	Button      string `json:"button"`
	HeldItemRef string `json:"held_item_ref"`
	TimestampMs int64  `json:"timestamp_ms"`
}

type tickData struct {
	Tick uint64 `json:"tick"`
}

type cursorData struct {
	TimestampMs int64 `json:"timestamp_ms"`
}

type characterData struct {
	CharacterId string `json:"character_id"`
}

type choiceData struct {
	CharacterId string `json:"character_id"`
	Key         string `json:"key"`
}

type suppressData struct {
	Button string `json:"button"`
}

type messageData struct {
	CharacterId string `json:"character_id"`
	Text        string `json:"text"`
}

type choicesData struct {
	CharacterId string                  `json:"character_id"`
	Prompt      string                  `json:"prompt"`
	Choices     []hostinterfaces.Choice `json:"choices"`
}

type notifyData struct {
	Text string `json:"text"`
}

type itemData struct {
	Item hostinterfaces.Item `json:"item"`
}

type friendshipData struct {
	CharacterId string `json:"character_id"`
	Delta       int    `json:"delta"`
}

type countersData struct {
	CharacterId string `json:"character_id"`
	Today       int    `json:"today"`
	ThisWeek    int    `json:"this_week"`
}

type errorData struct {
	Message string `json:"message"`
}

func newFrame(frameType string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, errors.Wrapf(err, "encoding %s frame", frameType)
	}
	return Frame{Type: frameType, Data: raw}, nil
}

func millis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// decodeEvent turns a host frame into an engine event. Snapshots are not
// events and are handled by the caller.
func decodeEvent(f Frame) (events.Event, error) {
	switch f.Type {

	case FrameWorldLoaded:
		return events.WorldLoaded{}, nil

	case FrameButton:
		var d buttonData
		if err := unmarshal(f, &d); err != nil {
			return nil, err
		}
		return events.ButtonPressed{
			ActorId:           d.ActorId,
			TargetCharacterId: d.Target,
			Button:            d.Button,
			HeldItemRef:       d.HeldItemRef,
			Timestamp:         millis(d.TimestampMs),
		}, nil

	case FrameTick:
		var d tickData
		if err := unmarshal(f, &d); err != nil {
			return nil, err
		}
		return events.NewTick{Tick: d.Tick}, nil

	case FrameCursorMoved:
		var d cursorData
		if err := unmarshal(f, &d); err != nil {
			return nil, err
		}
		return events.CursorMoved{Timestamp: millis(d.TimestampMs)}, nil

	case FrameDisplayClosed:
		var d characterData
		if err := unmarshal(f, &d); err != nil {
			return nil, err
		}
		return events.DisplayClosed{CharacterId: d.CharacterId}, nil

	case FrameChoice:
		var d choiceData
		if err := unmarshal(f, &d); err != nil {
			return nil, err
		}
		return events.ChoiceSelected{CharacterId: d.CharacterId, Key: d.Key}, nil
	}

	return nil, errors.Wrap(ErrUnknownFrame, f.Type)
}

func unmarshal(f Frame, v any) error {
	if len(f.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return errors.Wrapf(err, "decoding %s frame", f.Type)
	}
	return nil
}
