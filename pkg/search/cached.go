package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/store"
)

// Cached wraps a Searcher with a short-TTL result cache. Identical queries
// within the TTL see the same hit set, which also keeps repeated arbitrations
// grounded identically.
type Cached struct {
	Inner Searcher
	Cache store.Cache
	TTL   time.Duration
}

func NewCached(inner Searcher, cache store.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cached{Inner: inner, Cache: cache, TTL: ttl}
}

func (c *Cached) SearchPolicies(ctx context.Context, queryText string, topK int) ([]models.PolicyCandidate, error) {
	key := cacheKey("p", fmt.Sprintf("%s|%d", queryText, topK))
	if raw, err := c.Cache.Get(ctx, key); err == nil {
		var hits []models.PolicyCandidate
		if json.Unmarshal([]byte(raw), &hits) == nil {
			return hits, nil
		}
	}
	hits, err := c.Inner.SearchPolicies(ctx, queryText, topK)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(hits); err == nil {
		_ = c.Cache.Set(ctx, key, string(raw), c.TTL)
	}
	return hits, nil
}

func (c *Cached) SearchClauses(ctx context.Context, policyID, queryText string) ([]models.Clause, error) {
	key := cacheKey("c", policyID+"|"+queryText)
	if raw, err := c.Cache.Get(ctx, key); err == nil {
		var hits []models.Clause
		if json.Unmarshal([]byte(raw), &hits) == nil {
			return hits, nil
		}
	}
	hits, err := c.Inner.SearchClauses(ctx, policyID, queryText)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(hits); err == nil {
		_ = c.Cache.Set(ctx, key, string(raw), c.TTL)
	}
	return hits, nil
}

func cacheKey(kind, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "search:" + kind + ":" + hex.EncodeToString(sum[:])
}
