// Package cache holds the Redis-backed cache for generated answers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"propertyrag/internal/models"
	"propertyrag/pkg/logger"
)

// AnswerCache stores full query responses keyed by question and filters.
// Cache failures are logged and otherwise ignored; answering never depends
// on Redis being up.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *AnswerCache {
	return &AnswerCache{rdb: rdb, ttl: ttl, log: log}
}

// Key derives a stable cache key from the question and its filters.
func Key(req *models.QueryRequest) string {
	parts := []string{strings.TrimSpace(req.Question)}
	if req.ProjectID != nil {
		parts = append(parts, "project:"+*req.ProjectID)
	}
	if len(req.DocumentIDs) > 0 {
		ids := append([]string(nil), req.DocumentIDs...)
		sort.Strings(ids)
		parts = append(parts, "documents:"+strings.Join(ids, ","))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "answer:" + hex.EncodeToString(sum[:])
}

// Get returns the cached response for the request, or nil on a miss.
func (c *AnswerCache) Get(ctx context.Context, req *models.QueryRequest) *models.QueryResponse {
	raw, err := c.rdb.Get(ctx, Key(req)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.log.WithField("error", err.Error()).Warn("Answer cache read failed")
		return nil
	}
	var resp models.QueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.WithField("error", err.Error()).Warn("Discarding malformed cached answer")
		return nil
	}
	return &resp
}

// Set stores the response under the request's key for the configured TTL.
func (c *AnswerCache) Set(ctx context.Context, req *models.QueryRequest, resp *models.QueryResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		c.log.WithField("error", err.Error()).Warn("Failed to marshal answer for cache")
		return
	}
	if err := c.rdb.Set(ctx, Key(req), raw, c.ttl).Err(); err != nil {
		c.log.WithField("error", err.Error()).Warn("Answer cache write failed")
	}
}
