package dialogue

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/gifts"
	"github.com/StardewEchoes/echoes/internal/history"
	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := configs.DialogueService{
		BaseURL:        configs.ConfigString(srv.URL + "/"),
		APIKey:         "secret",
		TimeoutSeconds: 2,
	}
	return NewClient(cfg, 3), srv
}

func sampleRequest() Request {
	return Request{
		NpcName:          "Abigail",
		NpcLocation:      "SeedShop",
		PlayerName:       "Farmer",
		FriendshipHearts: 4,
		Season:           "spring",
		DayOfMonth:       13,
		DayOfWeek:        6,
		TimeOfDay:        1330,
		Year:             1,
		Weather:          hostinterfaces.WeatherRain,
		PlayerLocation:   "SeedShop",
		Language:         "en",
	}
}

func TestGenerateWireFormat(t *testing.T) {
	var got map[string]any
	var headers http.Header

	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathGenerate, r.URL.Path)
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"npc_message":"Oh, hi!","response_options":["Hey"," ","Nice weather","Bye","Extra"],"friendship_change":15}`))
	})

	res, err := c.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	require.Equal(t, StatusOK, res.Status)
	require.Equal(t, "Oh, hi!", res.Message)
	require.Equal(t, []string{"Hey", "Nice weather", "Bye"}, res.Options)
	require.Equal(t, 15, res.FriendshipDelta)
	require.NotEmpty(t, res.RequestId)

	require.Equal(t, res.RequestId, headers.Get("X-Request-Id"))
	require.Equal(t, "Bearer secret", headers.Get("Authorization"))

	require.Equal(t, "Abigail", got["npc_name"])
	require.Equal(t, "Rain", got["weather"])
	require.Equal(t, float64(1330), got["time_of_day"])
	require.Equal(t, []any{}, got["conversation_history"])
	require.Contains(t, got, "player_response")
	require.Nil(t, got["player_response"])
	require.Contains(t, got, "gift_given")
	require.Nil(t, got["gift_given"])
}

func TestGenerateWithGiftAndHistory(t *testing.T) {
	var got Request
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"npc_message":"Thanks!","response_options":[],"friendship_change":0}`))
	})

	answer := "Sure"
	envelope := gifts.NewEnvelope(hostinterfaces.Item{Name: "Amethyst", Category: "Mineral", Quality: 2}, false)
	req := sampleRequest()
	req.PlayerResponse = &answer
	req.GiftGiven = &envelope
	req.ConversationHistory = []history.Turn{
		{Speaker: history.SpeakerCharacter, Text: "Want to hang out?"},
		{Speaker: history.SpeakerPlayer, Text: "Sure"},
	}

	res, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	require.Empty(t, res.Options)

	require.Equal(t, "Sure", *got.PlayerResponse)
	require.Equal(t, "unknown", got.GiftGiven.GiftPreference)
	require.Equal(t, 2, got.GiftGiven.ItemQuality)
	require.Len(t, got.ConversationHistory, 2)
	require.Equal(t, history.SpeakerPlayer, got.ConversationHistory[1].Speaker)
}

func TestGenerateDegraded(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"model loading"}`))
	})

	res, err := c.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, StatusDegraded, res.Status)
	require.Equal(t, http.StatusServiceUnavailable, res.HTTPStatus)
	require.Empty(t, res.Message)

	u := c.Usage().Get("Abigail")
	require.Equal(t, 1, u.TotalCalls)
	require.Equal(t, 1, u.Failures)
}

func TestUsageKeyedByCharacterId(t *testing.T) {
	var body map[string]any
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"npc_message":"Hm?","response_options":[],"friendship_change":0}`))
	})

	req := sampleRequest()
	req.CharacterId = "Dwarf"
	req.NpcName = "???"

	_, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 1, c.Usage().Get("Dwarf").TotalCalls)
	require.Zero(t, c.Usage().Get("???").TotalCalls)
	require.NotContains(t, body, "CharacterId")
	require.Equal(t, "???", body["npc_name"])
}

func TestGenerateFallback(t *testing.T) {
	bodies := []string{``, `   `, `not json`, `{}`, `{"npc_message":"  ","response_options":["a"]}`}

	for _, body := range bodies {
		c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		res, err := c.Generate(context.Background(), sampleRequest())
		require.NoError(t, err, "body %q", body)
		require.Equal(t, StatusFallback, res.Status, "body %q", body)
	}
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(configs.DialogueService{BaseURL: configs.ConfigString(url), TimeoutSeconds: 1}, 3)
	_, err := c.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnreachable))
	require.False(t, errors.Is(err, ErrTimeout))
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, sampleRequest())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestNotifyEnded(t *testing.T) {
	var lock sync.Mutex
	var got endRequest

	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathEnd, r.URL.Path)
		lock.Lock()
		defer lock.Unlock()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	c.NotifyEnded("Sebastian", "Farmer")
	c.Wait()

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, endRequest{PlayerName: "Farmer", NpcName: "Sebastian"}, got)
}

func TestNotifyEndedFailureIsSilent(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c.NotifyEnded("Sebastian", "Farmer")
	c.Wait()
}

func TestUsageTracker(t *testing.T) {
	u := NewUsageTracker()
	u.Record("Leah", 100, 20, false)
	u.Record("Leah", 50, 0, true)

	got := u.Get("Leah")
	require.Equal(t, 2, got.TotalCalls)
	require.Equal(t, 1, got.Failures)
	require.Equal(t, 150, got.InputTokens)
	require.Equal(t, 20, got.OutputTokens)
	require.False(t, got.LastUsed.IsZero())

	require.Equal(t, Usage{}, u.Get("Nobody"))
	require.Len(t, u.Snapshot(), 1)
	require.Equal(t, 3, EstimateTokenCount("twelve chars"))
}
