package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Replay serves pre-recorded exchanges from a JSON script, in order. It
// exists for offline runs and deterministic tests and is only ever used when
// the configuration selects it explicitly; a missing or exhausted script is
// an error, never a reason to invent text.
type Replay struct {
	mu        sync.Mutex
	exchanges []Exchange
	next      int
}

func NewReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failf(KindConfig, "read replay script", err)
	}
	var exchanges []Exchange
	if err := json.Unmarshal(data, &exchanges); err != nil {
		return nil, failf(KindConfig, "parse replay script", err)
	}
	if len(exchanges) == 0 {
		return nil, failf(KindConfig, "parse replay script", fmt.Errorf("script contains no exchanges"))
	}
	return &Replay{exchanges: exchanges}, nil
}

// NewScripted builds a replay adapter directly from exchanges.
func NewScripted(exchanges ...Exchange) *Replay {
	return &Replay{exchanges: exchanges}
}

func (r *Replay) Name() string {
	return "replay"
}

func (r *Replay) Generate(ctx context.Context, p Prompt) (Exchange, error) {
	if err := ctx.Err(); err != nil {
		return Exchange{}, failf(KindTransport, "replay", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.exchanges) {
		return Exchange{}, failf(KindMalformed, "replay", fmt.Errorf("script exhausted after %d exchanges", len(r.exchanges)))
	}
	exch := r.exchanges[r.next]
	r.next++
	return exch, nil
}
