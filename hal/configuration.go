package hal

import (
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// RenderSingleLinks determines how a relation with a single link is rendered.
type RenderSingleLinks int

const (
	// Render a single link as an object: {"self": {"href": "/employees/42"}}
	AsSingle RenderSingleLinks = iota

	// Render a single link as an array: {"item": [{"href": "/employees/1"}]}
	AsArray
)

func (r RenderSingleLinks) String() string {
	switch r {
	case AsSingle:
		return "single"
	case AsArray:
		return "array"
	}
	return fmt.Sprintf("RenderSingleLinks(%d)", int(r))
}

// ParseRenderSingleLinks parses "single" or "array".
func ParseRenderSingleLinks(s string) (RenderSingleLinks, error) {
	switch s {
	case "single":
		return AsSingle, nil
	case "array":
		return AsArray, nil
	}
	return AsSingle, errors.Errorf("invalid render mode %q", s)
}

// ValidateRelationPattern returns an error if the pattern is malformed. See
// Configuration.WithRenderSingleLinksFor for the syntax.
func ValidateRelationPattern(pattern string) error {
	for _, piece := range strings.Split(pattern, "**") {
		if _, err := path.Match(piece, ""); err != nil {
			return errors.Wrapf(err, "invalid relation pattern %q", pattern)
		}
	}
	return nil
}

// matchRelation matches path.Match patterns in which "**" may also span slashes.
func matchRelation(pattern, rel string) bool {
	i := strings.Index(pattern, "**")
	if i < 0 {
		ok, _ := path.Match(pattern, rel)
		return ok
	}
	prefix, rest := pattern[:i], pattern[i+2:]
	for j := 0; j <= len(rel); j++ {
		if ok, _ := path.Match(prefix, rel[:j]); !ok {
			continue
		}
		for k := j; k <= len(rel); k++ {
			if matchRelation(rest, rel[k:]) {
				return true
			}
		}
	}
	return false
}

type relationPattern struct {
	pattern string
	mode    RenderSingleLinks
}

// Configuration controls HAL rendering. The zero value renders single links as objects and always
// renders embedded resources as arrays. Configurations are immutable; the With* methods return
// modified copies.
type Configuration struct {
	renderSingleLinks    RenderSingleLinks
	patterns             []relationPattern
	allowSingleEmbeddeds bool
}

// WithRenderSingleLinks sets the default mode for relations without a specific mode.
func (c Configuration) WithRenderSingleLinks(mode RenderSingleLinks) Configuration {
	c.renderSingleLinks = mode
	return c
}

// WithRenderSingleLinksFor sets the mode for a relation or a relation pattern. Patterns use
// path.Match syntax, e.g. "ex:*", where "*" stops at slashes. "**" matches any sequence including
// slashes, e.g. "https://example.com/rels/**". Setting the same pattern twice replaces the earlier mode but keeps
// its position. It panics if the pattern is malformed.
func (c Configuration) WithRenderSingleLinksFor(pattern string, mode RenderSingleLinks) Configuration {
	if err := ValidateRelationPattern(pattern); err != nil {
		panic(err)
	}
	patterns := append([]relationPattern(nil), c.patterns...)
	for i := range patterns {
		if patterns[i].pattern == pattern {
			patterns[i].mode = mode
			c.patterns = patterns
			return c
		}
	}
	c.patterns = append(patterns, relationPattern{
		pattern: pattern,
		mode:    mode,
	})
	return c
}

// WithEnforceEmbeddedCollections determines whether embedded relations with a single resource are
// rendered as arrays. The default is true.
func (c Configuration) WithEnforceEmbeddedCollections(enforce bool) Configuration {
	c.allowSingleEmbeddeds = !enforce
	return c
}

func (c Configuration) RenderSingleLinks() RenderSingleLinks {
	return c.renderSingleLinks
}

func (c Configuration) EnforceEmbeddedCollections() bool {
	return !c.allowSingleEmbeddeds
}

// RenderSingleLinksFor returns the mode for the given relation. An exact match wins over patterns,
// patterns are tried in the order they were added, and the default applies if nothing matches.
func (c Configuration) RenderSingleLinksFor(rel string) RenderSingleLinks {
	for _, p := range c.patterns {
		if p.pattern == rel {
			return p.mode
		}
	}
	for _, p := range c.patterns {
		if matchRelation(p.pattern, rel) {
			return p.mode
		}
	}
	return c.renderSingleLinks
}
