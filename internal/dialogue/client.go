package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/history"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
)

var (
	ErrTimeout     = errors.New("dialogue service timed out")
	ErrUnreachable = errors.New("dialogue service unreachable")
)

const (
	PathGenerate = `/generate_dialogue`
	PathEnd      = `/end_conversation`

	maxBodyBytes = 1 << 20
	snippetWidth = 160
)

// Generator is the part of the client the conversation engine depends on.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
	NotifyEnded(npcName string, playerName string)
}

type Client struct {
	baseURL    string
	apiKey     string
	maxOptions int
	endTimeout time.Duration
	http       *http.Client
	usage      *UsageTracker

	detached sync.WaitGroup
}

func NewClient(cfg configs.DialogueService, maxOptions int) *Client {
	cfg.Validate()
	if maxOptions < 1 || maxOptions > 3 {
		maxOptions = 3
	}

	c := &Client{
		baseURL:    string(cfg.BaseURL),
		apiKey:     string(cfg.APIKey),
		maxOptions: maxOptions,
		endTimeout: cfg.EndTimeout(),
		http: &http.Client{
			Timeout: cfg.Timeout(),
		},
		usage: NewUsageTracker(),
	}

	echolog.Info("Dialogue", "info", "client initialized", "baseURL", c.baseURL, "timeout", cfg.Timeout())
	return c
}

func (c *Client) Usage() *UsageTracker {
	return c.usage
}

// Generate asks the service for the next turn. Transport failures come back
// as ErrTimeout or ErrUnreachable. A non-2xx reply is not an error: the
// Result has StatusDegraded. A 2xx reply without a message has StatusFallback.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {

	if req.ConversationHistory == nil {
		req.ConversationHistory = []history.Turn{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, errors.Wrap(err, "encoding dialogue request")
	}

	requestId := uuid.NewString()
	start := time.Now()

	echolog.Debug("Dialogue", "request", requestId, "npc", req.NpcName, "historyTurns", len(req.ConversationHistory), "gift", req.GiftGiven != nil)

	respBody, status, err := c.post(ctx, PathGenerate, requestId, body)
	if err != nil {
		c.usage.Record(usageKey(req), EstimateTokenCount(string(body)), 0, true)
		echolog.Warn("Dialogue", "request", requestId, "npc", req.NpcName, "error", err, "elapsed", time.Since(start))
		return Result{RequestId: requestId}, err
	}

	result := Result{
		HTTPStatus: status,
		RequestId:  requestId,
	}

	if status < 200 || status > 299 {
		c.usage.Record(usageKey(req), EstimateTokenCount(string(body)), 0, true)
		echolog.Error("Dialogue", "request", requestId, "npc", req.NpcName, "status", status, "body", snippet(respBody))
		result.Status = StatusDegraded
		return result, nil
	}

	c.usage.Record(usageKey(req), EstimateTokenCount(string(body)), EstimateTokenCount(string(respBody)), false)

	var r response
	if len(bytes.TrimSpace(respBody)) == 0 {
		echolog.Warn("Dialogue", "request", requestId, "npc", req.NpcName, "info", "empty response body")
		result.Status = StatusFallback
		return result, nil
	}
	if err := json.Unmarshal(respBody, &r); err != nil {
		echolog.Warn("Dialogue", "request", requestId, "npc", req.NpcName, "error", err, "body", snippet(respBody))
		result.Status = StatusFallback
		return result, nil
	}

	result.Message = strings.TrimSpace(r.NpcMessage)
	if result.Message == `` {
		echolog.Warn("Dialogue", "request", requestId, "npc", req.NpcName, "info", "response has no message")
		result.Status = StatusFallback
		return result, nil
	}

	result.Status = StatusOK
	result.Options = c.trimOptions(r.ResponseOptions)
	result.FriendshipDelta = r.FriendshipChange

	echolog.Info("Dialogue", "request", requestId, "npc", req.NpcName, "options", len(result.Options), "friendshipChange", result.FriendshipDelta, "elapsed", time.Since(start))
	echolog.Debug("Dialogue", "request", requestId, "message", snippet([]byte(result.Message)))

	return result, nil
}

// NotifyEnded tells the service a conversation is over. It returns
// immediately; the call runs on its own goroutine with its own short
// timeout and failures are only logged.
func (c *Client) NotifyEnded(npcName string, playerName string) {
	body, err := json.Marshal(endRequest{PlayerName: playerName, NpcName: npcName})
	if err != nil {
		echolog.Error("Dialogue", "error", err)
		return
	}

	c.detached.Add(1)
	go func() {
		defer c.detached.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.endTimeout)
		defer cancel()

		requestId := uuid.NewString()
		_, status, err := c.post(ctx, PathEnd, requestId, body)
		if err != nil {
			echolog.Warn("Dialogue", "request", requestId, "npc", npcName, "info", "end notification failed", "error", err)
			return
		}
		if status < 200 || status > 299 {
			echolog.Warn("Dialogue", "request", requestId, "npc", npcName, "info", "end notification rejected", "status", status)
			return
		}
		echolog.Debug("Dialogue", "request", requestId, "npc", npcName, "info", "conversation ended")
	}()
}

// Wait blocks until detached notifications have finished.
func (c *Client) Wait() {
	c.detached.Wait()
}

func (c *Client) post(ctx context.Context, path string, requestId string, body []byte) ([]byte, int, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, errors.Wrap(ErrUnreachable, err.Error())
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Request-Id", requestId)
	if c.apiKey != `` {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, classify(err)
	}

	return respBody, resp.StatusCode, nil
}

func (c *Client) trimOptions(options []string) []string {
	out := make([]string, 0, c.maxOptions)
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == `` {
			continue
		}
		out = append(out, o)
		if len(out) == c.maxOptions {
			break
		}
	}
	return out
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(ErrTimeout, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(ErrTimeout, err.Error())
	}
	return errors.Wrap(ErrUnreachable, err.Error())
}

func snippet(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	return runewidth.Truncate(s, snippetWidth, "...")
}

func usageKey(req Request) string {
	if req.CharacterId != `` {
		return req.CharacterId
	}
	return req.NpcName
}
