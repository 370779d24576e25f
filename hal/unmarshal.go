package hal

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/ccbrown/hyperfu/link"
)

// UnmarshalLinks decodes a "_links" object. Each relation may map to a single link object or to an
// array of them. The relation of each link is taken from its key. Unknown attributes are ignored.
func UnmarshalLinks(data []byte) ([]link.Link, error) {
	iter := jsoniter.ParseBytes(json, data)
	links := readLinks(iter)
	if iter.Error != nil {
		return nil, errors.Wrap(iter.Error, "unable to decode hal links")
	}
	return links, nil
}

func readLinks(iter *jsoniter.Iterator) []link.Link {
	var ret []link.Link
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		iter.ReportError("read links", "expected an object")
		return nil
	}
	iter.ReadMapCB(func(iter *jsoniter.Iterator, rel string) bool {
		if rel == "" {
			iter.ReportError("read links", "empty relation")
			return false
		}
		switch iter.WhatIsNext() {
		case jsoniter.ObjectValue:
			ret = append(ret, readLink(iter, rel))
		case jsoniter.ArrayValue:
			iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
				ret = append(ret, readLink(iter, rel))
				return iter.Error == nil
			})
		default:
			iter.ReportError("read links", "expected an object or array for relation "+rel)
		}
		return iter.Error == nil
	})
	return ret
}

func readLink(iter *jsoniter.Iterator, rel string) link.Link {
	l := link.New("", rel)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		iter.ReportError("read link", "expected an object")
		return l
	}
	iter.ReadObjectCB(func(iter *jsoniter.Iterator, field string) bool {
		switch field {
		case "href":
			l.Href = iter.ReadString()
		case "type":
			l.Type = iter.ReadString()
		case "deprecation":
			l.Deprecation = iter.ReadString()
		case "name":
			l.Name = iter.ReadString()
		case "profile":
			l.Profile = iter.ReadString()
		case "title":
			l.Title = iter.ReadString()
		case "media":
			l.Media = iter.ReadString()
		case "hreflang":
			if iter.WhatIsNext() == jsoniter.ArrayValue {
				iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
					l.Hreflang = append(l.Hreflang, iter.ReadString())
					return true
				})
			} else {
				l.Hreflang = []string{iter.ReadString()}
			}
		default:
			// "templated" is derived from the href.
			iter.Skip()
		}
		return iter.Error == nil
	})
	if l.Href == "" && iter.Error == nil {
		iter.ReportError("read link", "link for relation "+rel+" has no href")
	}
	return l
}
