// Package console keeps the latest diagnostic payload reported by the
// session, for display on the /console endpoint.
package console

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Console holds the most recent payload passed to Print
type Console struct {
	mu     sync.RWMutex
	latest []any
	logger *zap.Logger
}

// New creates a Console logging through logger
func New(logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{logger: logger, latest: []any{}}
}

// Print replaces the latest payload with args. Errors are kept as their message.
func (c *Console) Print(args ...any) {
	payload := make([]any, len(args))
	for i, a := range args {
		if err, ok := a.(error); ok {
			payload[i] = err.Error()
			continue
		}
		payload[i] = a
	}

	c.mu.Lock()
	c.latest = payload
	c.mu.Unlock()

	c.logger.Info("console", zap.Any("payload", payload))
}

// Latest returns a copy of the latest payload
func (c *Console) Latest() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]any, len(c.latest))
	copy(out, c.latest)
	return out
}

// Render returns the latest payload as 2-space indented JSON
func (c *Console) Render() (string, error) {
	raw, err := json.MarshalIndent(c.Latest(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render console payload: %w", err)
	}
	return string(raw), nil
}
