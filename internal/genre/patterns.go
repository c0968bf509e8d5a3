package genre

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// PatternStore returns the style pattern text for a genre. An unknown genre
// yields an empty string and no error.
type PatternStore interface {
	Lookup(ctx context.Context, genre string) (string, error)
}

//go:embed patterns.yaml
var defaultPatternsYAML []byte

type patternFile struct {
	Patterns map[string]string `yaml:"patterns"`
}

// StaticPatterns is an in-memory pattern table.
type StaticPatterns struct {
	byGenre map[string]string
}

// ParsePatterns decodes a YAML document of the form
//
//	patterns:
//	  history: |
//	    ...
func ParsePatterns(data []byte) (*StaticPatterns, error) {
	var f patternFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}
	out := &StaticPatterns{byGenre: make(map[string]string, len(f.Patterns))}
	for g, text := range f.Patterns {
		g = strings.ToLower(strings.TrimSpace(g))
		if !IsKnown(g) {
			return nil, fmt.Errorf("parse patterns: unknown genre %q", g)
		}
		out.byGenre[g] = strings.TrimSpace(text)
	}
	return out, nil
}

// DefaultPatterns returns the patterns bundled with the binary.
func DefaultPatterns() *StaticPatterns {
	p, err := ParsePatterns(defaultPatternsYAML)
	if err != nil {
		panic(err)
	}
	return p
}

func (s *StaticPatterns) Lookup(_ context.Context, genre string) (string, error) {
	if s == nil {
		return "", nil
	}
	return s.byGenre[genre], nil
}

// Genres lists the genres that have a pattern, sorted.
func (s *StaticPatterns) Genres() []string {
	out := make([]string, 0, len(s.byGenre))
	for g := range s.byGenre {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Chain consults stores in order and returns the first non-empty pattern.
// A failing store is skipped; its error is returned only when no later
// store produced a pattern.
type Chain []PatternStore

func (c Chain) Lookup(ctx context.Context, genre string) (string, error) {
	var firstErr error
	for _, s := range c {
		if s == nil {
			continue
		}
		text, err := s.Lookup(ctx, genre)
		if err != nil {
			log.Printf("pattern lookup (%s) failed: %v", genre, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", firstErr
}

// CachedPatterns keeps recent lookups in an LRU and collapses concurrent
// lookups of the same genre into one origin call.
type CachedPatterns struct {
	origin PatternStore
	cache  *lru.Cache[string, string]
	group  singleflight.Group
}

func NewCachedPatterns(origin PatternStore, size int) (*CachedPatterns, error) {
	if origin == nil {
		return nil, fmt.Errorf("pattern origin is nil")
	}
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedPatterns{origin: origin, cache: cache}, nil
}

func (c *CachedPatterns) Lookup(ctx context.Context, genre string) (string, error) {
	if text, ok := c.cache.Get(genre); ok {
		return text, nil
	}
	v, err, _ := c.group.Do(genre, func() (any, error) {
		text, err := c.origin.Lookup(ctx, genre)
		if err != nil {
			return "", err
		}
		c.cache.Add(genre, text)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Purge drops every cached entry.
func (c *CachedPatterns) Purge() {
	c.cache.Purge()
}
