package dialogue

import (
	"sync"
	"time"
)

// Usage holds request stats for one character
type Usage struct {
	TotalCalls   int       `json:"total_calls"`
	Failures     int       `json:"failures"`
	InputTokens  int       `json:"input_tokens"`  // estimated
	OutputTokens int       `json:"output_tokens"` // estimated
	LastUsed     time.Time `json:"last_used"`
}

// UsageTracker is safe for concurrent use; requests record from their own goroutines.
type UsageTracker struct {
	lock  sync.RWMutex
	usage map[string]*Usage
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{usage: map[string]*Usage{}}
}

func (t *UsageTracker) Record(characterId string, inputTokens int, outputTokens int, failed bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	u, ok := t.usage[characterId]
	if !ok {
		u = &Usage{}
		t.usage[characterId] = u
	}

	u.TotalCalls++
	if failed {
		u.Failures++
	}
	u.InputTokens += inputTokens
	u.OutputTokens += outputTokens
	u.LastUsed = time.Now()
}

// Get returns a copy. Unknown characters get a zero Usage.
func (t *UsageTracker) Get(characterId string) Usage {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if u, ok := t.usage[characterId]; ok {
		return *u
	}
	return Usage{}
}

func (t *UsageTracker) Snapshot() map[string]Usage {
	t.lock.RLock()
	defer t.lock.RUnlock()

	out := make(map[string]Usage, len(t.usage))
	for id, u := range t.usage {
		out[id] = *u
	}
	return out
}

// EstimateTokenCount is a rough 4 bytes per token guess.
func EstimateTokenCount(text string) int {
	return len(text) / 4
}
