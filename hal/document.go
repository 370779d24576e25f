package hal

import (
	"net/http"
	"strconv"
	"unsafe"

	jsoniter "github.com/json-iterator/go"

	"github.com/ccbrown/hyperfu/link"
)

// MediaType is the media type of HAL documents.
const MediaType = "application/hal+json"

// Property is a single property of a document's state.
type Property struct {
	Name  string
	Value interface{}
}

type embeddedGroup struct {
	rel       string
	documents []*Document
}

// Document is a HAL resource: state properties in the order they were set, links, and embedded
// resources grouped by relation.
type Document struct {
	properties []Property
	links      []link.Link
	embedded   []embeddedGroup
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Set sets a property, replacing any previous value. It panics for the reserved "_links" and
// "_embedded" names.
func (d *Document) Set(name string, value interface{}) *Document {
	if name == "_links" || name == "_embedded" {
		panic("the " + name + " property is reserved")
	}
	for i := range d.properties {
		if d.properties[i].Name == name {
			d.properties[i].Value = value
			return d
		}
	}
	d.properties = append(d.properties, Property{
		Name:  name,
		Value: value,
	})
	return d
}

// Properties provides the properties in the order they were first set.
func (d *Document) Properties() []Property {
	return d.properties
}

// AddLinks adds links to the document.
func (d *Document) AddLinks(links ...link.Link) *Document {
	d.links = append(d.links, links...)
	return d
}

func (d *Document) Links() []link.Link {
	return d.links
}

// Embed embeds resources under the given relation.
func (d *Document) Embed(rel string, documents ...*Document) *Document {
	for i := range d.embedded {
		if d.embedded[i].rel == rel {
			d.embedded[i].documents = append(d.embedded[i].documents, documents...)
			return d
		}
	}
	d.embedded = append(d.embedded, embeddedGroup{
		rel:       rel,
		documents: documents,
	})
	return d
}

// Embedded returns the resources embedded under the given relation.
func (d *Document) Embedded(rel string) []*Document {
	for _, group := range d.embedded {
		if group.rel == rel {
			return group.documents
		}
	}
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d)
}

// WriteDocument writes a document. Curie definitions are only written for the outermost document.
func (s *Serializer) WriteDocument(sink Sink, d *Document) error {
	return s.writeDocument(sink, d, true)
}

func (s *Serializer) writeDocument(sink Sink, d *Document, root bool) error {
	sink.WriteObjectStart()
	first := true
	next := func(field string) {
		if !first {
			sink.WriteMore()
		}
		first = false
		sink.WriteObjectField(field)
	}

	if len(d.links) > 0 {
		groups, err := s.Groups(d.links, root)
		if err != nil {
			return err
		}
		next("_links")
		s.writeGroups(sink, groups)
	}

	for _, p := range d.properties {
		next(p.Name)
		sink.WriteVal(p.Value)
	}

	if len(d.embedded) > 0 {
		next("_embedded")
		sink.WriteObjectStart()
		for i, group := range d.embedded {
			if i > 0 {
				sink.WriteMore()
			}
			rel := group.rel
			if s.Curies != nil {
				rel = s.Curies.NamespacedRel(rel)
			}
			sink.WriteObjectField(rel)
			asArray := len(group.documents) != 1 || s.Configuration.EnforceEmbeddedCollections()
			if asArray {
				sink.WriteArrayStart()
			}
			for j, embedded := range group.documents {
				if j > 0 {
					sink.WriteMore()
				}
				if err := s.writeDocument(sink, embedded, false); err != nil {
					return err
				}
			}
			if asArray {
				sink.WriteArrayEnd()
			}
		}
		sink.WriteObjectEnd()
	}

	sink.WriteObjectEnd()
	return nil
}

// MarshalDocument returns the JSON representation of a document.
func (s *Serializer) MarshalDocument(d *Document) ([]byte, error) {
	return render(func(stream *jsoniter.Stream) error {
		return s.WriteDocument(stream, d)
	})
}

// WriteResponse writes a document as an HTTP response.
func (s *Serializer) WriteResponse(w http.ResponseWriter, status int, d *Document) error {
	body, err := s.MarshalDocument(d)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

var defaultSerializer = &Serializer{}

// Write writes a document as an HTTP response using the default configuration.
func Write(w http.ResponseWriter, status int, d *Document) error {
	return defaultSerializer.WriteResponse(w, status, d)
}

type documentEncoder struct{}

func (e *documentEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	d := (*Document)(ptr)
	return len(d.properties) == 0 && len(d.links) == 0 && len(d.embedded) == 0
}

func (e *documentEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	if err := defaultSerializer.WriteDocument(stream, (*Document)(ptr)); err != nil {
		stream.Error = err
	}
}

func init() {
	jsoniter.RegisterTypeEncoder("hal.Document", &documentEncoder{})
}
