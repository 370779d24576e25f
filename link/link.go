package link

import (
	"fmt"
	"strings"

	"github.com/ccbrown/hyperfu/uritemplate"
)

// Link represents a web link: a URI or URI template plus one or more relations and optional target
// attributes. Links are values; the With* methods return modified copies.
type Link struct {
	// A URI-reference or, if Templated returns true, a URI template.
	Href string

	// The relation types. There is always at least one for links built with New.
	Rels []string

	// A human-readable label for the link target.
	Title string

	// A hint indicating the media type of the target resource.
	Type string

	// A secondary key for selecting links that share a relation.
	Name string

	// A hint indicating the media the target resource is designed for.
	Media string

	// A URL that provides further information about the deprecation of the link.
	Deprecation string

	// A URI hinting about the profile of the target resource.
	Profile string

	// The languages of the target resource.
	Hreflang []string

	// The operations that can be performed on the target resource.
	Affordances []Affordance
}

// New creates a link with the given href and relation. It panics if the relation is empty.
func New(href, rel string) Link {
	return Link{Href: href}.WithRel(rel)
}

// Rel returns the first relation of the link, or an empty string if it has none.
func (l Link) Rel() string {
	if len(l.Rels) == 0 {
		return ""
	}
	return l.Rels[0]
}

// HasRel returns true if the link carries the given relation.
func (l Link) HasRel(rel string) bool {
	for _, r := range l.Rels {
		if strings.EqualFold(r, rel) {
			return true
		}
	}
	return false
}

// WithRel returns a copy of the link with the relation added. Relations accumulate; the href is
// not affected.
func (l Link) WithRel(rel string) Link {
	if rel == "" {
		panic("link relations must not be empty")
	}
	if l.HasRel(rel) {
		return l
	}
	l.Rels = append(append([]string(nil), l.Rels...), rel)
	return l
}

// WithOnlyRel returns a copy of the link whose only relation is the given one.
func (l Link) WithOnlyRel(rel string) Link {
	l.Rels = nil
	return l.WithRel(rel)
}

func (l Link) WithTitle(title string) Link {
	l.Title = title
	return l
}

func (l Link) WithType(mediaType string) Link {
	l.Type = mediaType
	return l
}

func (l Link) WithName(name string) Link {
	l.Name = name
	return l
}

func (l Link) WithMedia(media string) Link {
	l.Media = media
	return l
}

func (l Link) WithDeprecation(deprecation string) Link {
	l.Deprecation = deprecation
	return l
}

func (l Link) WithProfile(profile string) Link {
	l.Profile = profile
	return l
}

// WithHreflang returns a copy of the link with the language added.
func (l Link) WithHreflang(hreflang string) Link {
	l.Hreflang = append(append([]string(nil), l.Hreflang...), hreflang)
	return l
}

// AndAffordances returns a copy of the link with the given affordances appended.
func (l Link) AndAffordances(affordances ...Affordance) Link {
	l.Affordances = append(append([]Affordance(nil), l.Affordances...), affordances...)
	return l
}

// Templated returns true if the href still contains template variables.
func (l Link) Templated() bool {
	return uritemplate.IsTemplate(l.Href)
}

// Variables returns the template variables of the href.
func (l Link) Variables() ([]uritemplate.Variable, error) {
	t, err := uritemplate.Parse(l.Href)
	if err != nil {
		return nil, err
	}
	return t.Variables(), nil
}

// Expand returns a copy of the link with the given values expanded into the href. Variables
// without a value remain in the template.
func (l Link) Expand(values map[string]interface{}) (Link, error) {
	t, err := uritemplate.Parse(l.Href)
	if err != nil {
		return l, err
	}
	l.Href = t.Expand(values).String()
	return l, nil
}

func (l Link) String() string {
	return fmt.Sprintf("%v; rel=%q", l.Href, strings.Join(l.Rels, " "))
}
