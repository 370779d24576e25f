package hal

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/uritemplate"
)

// CuriesRel is the relation under which curie definitions are rendered.
const CuriesRel = "curies"

// Curie is a compact URI definition. Href must be a template with exactly one variable, which is
// replaced with the local part of a curied relation, e.g. "https://example.com/rels/{rel}".
type Curie struct {
	Name string
	Href string
}

// CurieProvider namespaces relations. Relations that are neither curied already nor registered with
// IANA are prefixed with the default curie.
type CurieProvider struct {
	defaultName string
	curies      []Curie
}

// NewCurieProvider creates a provider for the given curies. If defaultName is empty and there is
// exactly one curie, that curie is the default. Without a default, relations are never prefixed,
// but curie definitions are still rendered for relations that use them.
func NewCurieProvider(defaultName string, curies ...Curie) (*CurieProvider, error) {
	for _, c := range curies {
		if c.Name == "" {
			return nil, errors.New("curie names must not be empty")
		}
		t, err := uritemplate.Parse(c.Href)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid href for curie %v", c.Name)
		} else if n := len(t.Variables()); n != 1 {
			return nil, errors.Errorf("curie %v must have exactly one template variable, but %v has %d", c.Name, c.Href, n)
		}
	}
	if defaultName == "" && len(curies) == 1 {
		defaultName = curies[0].Name
	}
	return &CurieProvider{
		defaultName: defaultName,
		curies:      append([]Curie(nil), curies...),
	}, nil
}

func curieOf(rel string) string {
	if strings.Contains(rel, "://") {
		return ""
	}
	if i := strings.IndexByte(rel, ':'); i > 0 {
		return rel[:i]
	}
	return ""
}

// NamespacedRel returns the relation with the default curie applied, if applicable.
func (p *CurieProvider) NamespacedRel(rel string) string {
	if p.defaultName == "" || curieOf(rel) != "" || link.IsIANA(rel) || strings.Contains(rel, "://") {
		return rel
	}
	return p.defaultName + ":" + rel
}

func (p *CurieProvider) defines(rel string) bool {
	name := curieOf(rel)
	if name == "" {
		return false
	}
	for _, c := range p.curies {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Links returns the curie definitions as links with the "curies" relation.
func (p *CurieProvider) Links() []link.Link {
	ret := make([]link.Link, len(p.curies))
	for i, c := range p.curies {
		ret[i] = link.New(c.Href, CuriesRel).WithName(c.Name)
	}
	return ret
}
