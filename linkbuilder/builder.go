package linkbuilder

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/uritemplate"
)

// LinkBuilder builds a link from a resolved invocation. Builders are immutable: every method returns
// a modified copy, so a builder may be shared and extended in different directions.
type LinkBuilder struct {
	components  uritemplate.Components
	rels        []string
	title       string
	mediaType   string
	name        string
	media       string
	deprecation string
	profile     string
	hreflang    []string
	affordances []link.Affordance
}

// NewLinkBuilder creates a builder for an arbitrary href or URI template.
func NewLinkBuilder(href string) (*LinkBuilder, error) {
	t, err := uritemplate.Parse(href)
	if err != nil {
		return nil, err
	}
	return &LinkBuilder{
		components: t.Components(),
	}, nil
}

func (b *LinkBuilder) clone() *LinkBuilder {
	ret := *b
	ret.rels = append([]string(nil), b.rels...)
	ret.hreflang = append([]string(nil), b.hreflang...)
	ret.affordances = append([]link.Affordance(nil), b.affordances...)
	ret.components.Variables = append([]uritemplate.Variable(nil), b.components.Variables...)
	return &ret
}

// Components returns the components of the href.
func (b *LinkBuilder) Components() uritemplate.Components {
	return b.clone().components
}

// Slash appends a path segment. Identifiable values are appended by their identifier, pointers are
// followed, and nil or empty values leave the builder as is. The segment may carry its own query or fragment, and may
// itself be a template.
func (b *LinkBuilder) Slash(v interface{}) *LinkBuilder {
	v, ok := uritemplate.Indirect(v)
	if !ok {
		return b
	}
	if id, ok := v.(Identifiable); ok {
		v = id.Identifier()
	}
	segment, _ := uritemplate.Format(v)
	path := strings.TrimSuffix(segment, "#")
	if path == "" {
		return b
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	c := uritemplate.Components{BaseURI: path}
	if t, err := uritemplate.Parse(path); err == nil {
		c = t.Components()
	}
	ret := b.clone()
	ret.components = ret.components.Append(c)
	return ret
}

// WithQuery binds a query parameter. If the href declares an open variable of the same name, it is
// replaced. Pointers are followed; nil, nil pointers, and Unbound leave the builder as is.
func (b *LinkBuilder) WithQuery(name string, value interface{}) *LinkBuilder {
	value, ok := uritemplate.Indirect(value)
	if !ok {
		return b
	}
	if id, ok := value.(Identifiable); ok {
		value = id.Identifier()
	}
	formatted, ok := uritemplate.Format(value)
	if !ok {
		return b
	}
	ret := b.clone()

	var tail []string
	for _, n := range strings.Split(ret.components.QueryTail, ",") {
		if n != "" && n != name {
			tail = append(tail, n)
		}
	}
	ret.components.QueryTail = strings.Join(tail, ",")

	variables := ret.components.Variables[:0]
	for _, v := range ret.components.Variables {
		if !(v.Type.IsQuery() && v.Name == name) {
			variables = append(variables, v)
		}
	}
	ret.components.Variables = variables

	pair := url.QueryEscape(name) + "=" + url.QueryEscape(formatted)
	if ret.components.QueryHead == "" {
		ret.components.QueryHead = "?" + pair
	} else {
		ret.components.QueryHead += "&" + pair
	}
	return ret
}

// WithoutQueryVariables drops all open query variables. Bound query parameters are kept.
func (b *LinkBuilder) WithoutQueryVariables() *LinkBuilder {
	ret := b.clone()
	ret.components.QueryTail = ""
	variables := ret.components.Variables[:0]
	for _, v := range ret.components.Variables {
		if !v.Type.IsQuery() {
			variables = append(variables, v)
		}
	}
	ret.components.Variables = variables
	return ret
}

// Rel adds a relation. Relations accumulate; empty relations are ignored.
func (b *LinkBuilder) Rel(rel string) *LinkBuilder {
	if rel == "" {
		return b
	}
	ret := b.clone()
	ret.rels = append(ret.rels, rel)
	return ret
}

func (b *LinkBuilder) WithTitle(title string) *LinkBuilder {
	ret := b.clone()
	ret.title = title
	return ret
}

func (b *LinkBuilder) WithType(mediaType string) *LinkBuilder {
	ret := b.clone()
	ret.mediaType = mediaType
	return ret
}

func (b *LinkBuilder) WithName(name string) *LinkBuilder {
	ret := b.clone()
	ret.name = name
	return ret
}

func (b *LinkBuilder) WithMedia(media string) *LinkBuilder {
	ret := b.clone()
	ret.media = media
	return ret
}

func (b *LinkBuilder) WithDeprecation(deprecation string) *LinkBuilder {
	ret := b.clone()
	ret.deprecation = deprecation
	return ret
}

func (b *LinkBuilder) WithProfile(profile string) *LinkBuilder {
	ret := b.clone()
	ret.profile = profile
	return ret
}

// WithHreflang adds a language. Languages accumulate.
func (b *LinkBuilder) WithHreflang(hreflang string) *LinkBuilder {
	ret := b.clone()
	ret.hreflang = append(ret.hreflang, hreflang)
	return ret
}

// And adds the affordances of another resolution. The href is not affected.
func (b *LinkBuilder) And(other *LinkBuilder) *LinkBuilder {
	if other == nil {
		return b
	}
	ret := b.clone()
	ret.affordances = append(ret.affordances, other.affordances...)
	return ret
}

// Affordances returns the affordances collected so far.
func (b *LinkBuilder) Affordances() []link.Affordance {
	return append([]link.Affordance(nil), b.affordances...)
}

// Build creates the link. At least one relation is required.
func (b *LinkBuilder) Build() (link.Link, error) {
	if len(b.rels) == 0 {
		return link.Link{}, errors.Errorf("link to %v has no relation", b.String())
	}
	l := link.Link{
		Href:        b.String(),
		Title:       b.title,
		Type:        b.mediaType,
		Name:        b.name,
		Media:       b.media,
		Deprecation: b.deprecation,
		Profile:     b.profile,
		Hreflang:    append([]string(nil), b.hreflang...),
	}
	if len(l.Hreflang) == 0 {
		l.Hreflang = nil
	}
	for _, rel := range b.rels {
		l = l.WithRel(rel)
	}
	return l.AndAffordances(b.affordances...), nil
}

// WithRel builds the link with the given relation added. It panics if the relation is empty.
func (b *LinkBuilder) WithRel(rel string) link.Link {
	if rel == "" {
		panic("link relations must not be empty")
	}
	l, err := b.Rel(rel).Build()
	if err != nil {
		panic(err)
	}
	return l
}

// WithSelfRel builds the link with the "self" relation added.
func (b *LinkBuilder) WithSelfRel() link.Link {
	return b.WithRel(link.Self)
}

// ToURI returns the href as a URI. Open query variables are dropped, but open path variables make
// this fail.
func (b *LinkBuilder) ToURI() (string, error) {
	if b.components.HasRequiredVariables() || strings.Contains(b.components.Fragment, "{") {
		return "", errors.Errorf("%v is a template and cannot be converted to a uri", b.String())
	}
	return b.components.BaseURI + b.components.QueryHead + b.components.Fragment, nil
}

// String returns the href, which may be a template.
func (b *LinkBuilder) String() string {
	return b.components.String()
}
