// Package redis stores computed quotes in Redis, keyed by catalog version
// and request.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storal-pricer/internal/engine"
	redisclient "storal-pricer/pkg/redis"
)

const defaultQuoteTTL = 24 * time.Hour

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// QuoteCache implements quote.Cache.
type QuoteCache struct {
	client store
	ttl    time.Duration
}

func NewQuoteCache(client *redisclient.Client, ttl time.Duration) *QuoteCache {
	return newQuoteCache(client, ttl)
}

func newQuoteCache(client store, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = defaultQuoteTTL
	}
	return &QuoteCache{client: client, ttl: ttl}
}

// GetQuote returns false without error when the key is absent.
func (c *QuoteCache) GetQuote(ctx context.Context, key string) (*engine.Quote, bool, error) {
	data, err := c.client.Get(ctx, key)
	if redisclient.IsNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get quote: %w", err)
	}

	var q engine.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, false, fmt.Errorf("unmarshal quote: %w", err)
	}
	return &q, true, nil
}

func (c *QuoteCache) SetQuote(ctx context.Context, key string, q *engine.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl)
}
