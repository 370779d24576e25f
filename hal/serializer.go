package hal

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/ccbrown/hyperfu/link"
)

// Sink receives JSON values as they are serialized. *jsoniter.Stream is the usual implementation.
type Sink interface {
	WriteObjectStart()
	WriteObjectField(field string)
	WriteObjectEnd()
	WriteArrayStart()
	WriteArrayEnd()
	WriteMore()
	WriteString(s string)
	WriteBool(b bool)
	WriteVal(v interface{})
}

var _ Sink = (*jsoniter.Stream)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Serializer writes HAL representations. The zero value uses the default configuration and doesn't
// curie relations. Serializers are safe for concurrent use.
type Serializer struct {
	Configuration Configuration

	// If given, relations are namespaced and curie definitions are rendered at the top level.
	Curies *CurieProvider
}

func writeStringField(sink Sink, name, value string, first bool) bool {
	if value == "" {
		return first
	}
	if !first {
		sink.WriteMore()
	}
	sink.WriteObjectField(name)
	sink.WriteString(value)
	return false
}

// WriteLink writes the object form of a single link. The relation isn't part of it, and absent
// attributes are omitted.
func WriteLink(sink Sink, l link.Link) {
	sink.WriteObjectStart()
	sink.WriteObjectField("href")
	sink.WriteString(l.Href)
	if l.Templated() {
		sink.WriteMore()
		sink.WriteObjectField("templated")
		sink.WriteBool(true)
	}
	first := false
	first = writeStringField(sink, "type", l.Type, first)
	first = writeStringField(sink, "deprecation", l.Deprecation, first)
	first = writeStringField(sink, "name", l.Name, first)
	first = writeStringField(sink, "profile", l.Profile, first)
	first = writeStringField(sink, "title", l.Title, first)
	switch len(l.Hreflang) {
	case 0:
	case 1:
		first = writeStringField(sink, "hreflang", l.Hreflang[0], first)
	default:
		sink.WriteMore()
		sink.WriteObjectField("hreflang")
		sink.WriteArrayStart()
		for i, lang := range l.Hreflang {
			if i > 0 {
				sink.WriteMore()
			}
			sink.WriteString(lang)
		}
		sink.WriteArrayEnd()
	}
	writeStringField(sink, "media", l.Media, first)
	sink.WriteObjectEnd()
}

// WriteGroup writes the links of a relation. A single link is written as an object unless
// forceArray is true. Multiple links are always written as an array, in order.
func WriteGroup(sink Sink, links []link.Link, forceArray bool) {
	if len(links) == 1 && !forceArray {
		WriteLink(sink, links[0])
		return
	}
	sink.WriteArrayStart()
	for i, l := range links {
		if i > 0 {
			sink.WriteMore()
		}
		WriteLink(sink, l)
	}
	sink.WriteArrayEnd()
}

// RenderGroup is like WriteGroup, but returns the JSON.
func RenderGroup(links []link.Link, forceArray bool) ([]byte, error) {
	return render(func(stream *jsoniter.Stream) error {
		WriteGroup(stream, links, forceArray)
		return nil
	})
}

func render(f func(stream *jsoniter.Stream) error) ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)
	if err := f(stream); err != nil {
		return nil, err
	} else if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// Groups groups the links as they'll be rendered, applying the curie provider if there is one.
// Curie definitions are added if root is true and any relation uses a defined curie.
func (s *Serializer) Groups(links []link.Link, root bool) (*RelationGroups, error) {
	if s.Curies == nil {
		return GroupByRelation(links)
	}
	groups, err := groupByRelation(links, s.Curies.NamespacedRel)
	if err != nil {
		return nil, err
	}
	if root && groups.Get(CuriesRel) == nil {
		for _, rel := range groups.Rels() {
			if s.Curies.defines(rel) {
				for _, c := range s.Curies.Links() {
					groups.Append(CuriesRel, c)
				}
				break
			}
		}
	}
	return groups, nil
}

func (s *Serializer) writeGroups(sink Sink, groups *RelationGroups) {
	sink.WriteObjectStart()
	for i, group := range groups.Groups() {
		if i > 0 {
			sink.WriteMore()
		}
		sink.WriteObjectField(group.Rel)
		forceArray := group.Rel == CuriesRel || s.Configuration.RenderSingleLinksFor(group.Rel) == AsArray
		WriteGroup(sink, group.Links, forceArray)
	}
	sink.WriteObjectEnd()
}

// WriteLinks writes a "_links" object: relations in first-seen order, each mapped to an object or
// array according to the configuration.
func (s *Serializer) WriteLinks(sink Sink, links []link.Link) error {
	groups, err := s.Groups(links, true)
	if err != nil {
		return err
	}
	s.writeGroups(sink, groups)
	return nil
}

// MarshalLinks returns the "_links" object for the given links.
func (s *Serializer) MarshalLinks(links []link.Link) ([]byte, error) {
	return render(func(stream *jsoniter.Stream) error {
		return s.WriteLinks(stream, links)
	})
}
