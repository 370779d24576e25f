package hal

import (
	"github.com/pkg/errors"

	"github.com/ccbrown/hyperfu/link"
)

// ErrMissingRelation is returned for links without a relation. Links built by the link builder
// always have one, so this indicates a bug in whatever produced the link.
var ErrMissingRelation = errors.New("link has no relation")

// RelationGroup is the set of links sharing a relation.
type RelationGroup struct {
	Rel   string
	Links []link.Link
}

// RelationGroups maps relations to links. It maintains the order in which relations were first
// seen, so that serialization is deterministic.
type RelationGroups struct {
	groups []RelationGroup
	index  map[string]int
}

// GroupByRelation groups links by relation. Links with multiple relations are added to each of their
// relations' groups.
func GroupByRelation(links []link.Link) (*RelationGroups, error) {
	return groupByRelation(links, nil)
}

func groupByRelation(links []link.Link, mapRel func(string) string) (*RelationGroups, error) {
	ret := &RelationGroups{}
	for _, l := range links {
		if len(l.Rels) == 0 {
			return nil, errors.Wrapf(ErrMissingRelation, "invalid link to %v", l.Href)
		}
		for _, rel := range l.Rels {
			if rel == "" {
				return nil, errors.Wrapf(ErrMissingRelation, "invalid link to %v", l.Href)
			}
			if mapRel != nil {
				rel = mapRel(rel)
			}
			ret.Append(rel, l)
		}
	}
	return ret, nil
}

// Append adds a link to the group for the given relation, creating the group if needed.
func (g *RelationGroups) Append(rel string, l link.Link) {
	if i, ok := g.index[rel]; ok {
		g.groups[i].Links = append(g.groups[i].Links, l)
		return
	}
	if g.index == nil {
		g.index = map[string]int{}
	}
	g.index[rel] = len(g.groups)
	g.groups = append(g.groups, RelationGroup{
		Rel:   rel,
		Links: []link.Link{l},
	})
}

// Len returns the number of relations.
func (g *RelationGroups) Len() int {
	return len(g.groups)
}

// Groups provides the groups in the order their relations were first seen.
func (g *RelationGroups) Groups() []RelationGroup {
	return g.groups
}

// Rels returns the relations in the order they were first seen.
func (g *RelationGroups) Rels() []string {
	ret := make([]string, len(g.groups))
	for i, group := range g.groups {
		ret[i] = group.Rel
	}
	return ret
}

// Get returns the links with the given relation.
func (g *RelationGroups) Get(rel string) []link.Link {
	if i, ok := g.index[rel]; ok {
		return g.groups[i].Links
	}
	return nil
}

// Flatten returns one link per relation and link, each carrying only the relation of its group.
// Grouping the result again yields the same groups.
func (g *RelationGroups) Flatten() []link.Link {
	var ret []link.Link
	for _, group := range g.groups {
		for _, l := range group.Links {
			ret = append(ret, l.WithOnlyRel(group.Rel))
		}
	}
	return ret
}
