// Package normalize maps arbitrary food-item text to a canonical singular
// key. The heavy lifting is delegated to an LLM; results are cached so a
// reconciliation batch normalizes each distinct name at most once.
package normalize

import (
	"context"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scrypster/sous/internal/llm"
)

// defaultCacheSize bounds the normalization cache. Food vocabularies are
// small; 1024 entries covers any realistic household inventory many times over.
const defaultCacheSize = 1024

// Normalizer converts raw ingredient names to canonical singular lowercase
// keys. Inventory entry identity is this key, not the display name.
type Normalizer struct {
	gen   llm.TextGenerator
	cache *lru.Cache[string, string]
}

// New creates a Normalizer backed by the given text generator.
func New(gen llm.TextGenerator) *Normalizer {
	cache, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Normalizer{gen: gen, cache: cache}
}

// Normalize returns the canonical singular lowercase key for a raw item name.
//
// On provider failure it falls back to a plain lowercase of the raw name.
// This is a deliberate degraded mode, not a hidden error: degraded keys may
// fail to merge synonyms ("taters" will not match "potato"), so the miss is
// logged. The fallback is never cached, so a recovered provider repairs
// merging on the next call.
func (n *Normalizer) Normalize(ctx context.Context, rawName string) string {
	key := strings.ToLower(strings.TrimSpace(rawName))
	if key == "" {
		return key
	}

	if cached, ok := n.cache.Get(key); ok {
		return cached
	}

	response, err := n.gen.Complete(ctx, llm.NormalizeItemPrompt(rawName))
	if err != nil {
		log.Printf("normalize: falling back to lowercase for %q: %v", rawName, err)
		return key
	}

	normalized := strings.ToLower(strings.TrimSpace(response))
	if normalized == "" {
		log.Printf("normalize: empty response for %q, falling back to lowercase", rawName)
		return key
	}

	n.cache.Add(key, normalized)
	return normalized
}
