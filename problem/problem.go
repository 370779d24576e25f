// Package problem implements RFC 7807 problem details, used to report errors from HAL APIs.
package problem

import (
	"net/http"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const MediaType = "application/problem+json"

// The type of problems that carry no more meaning than their HTTP status.
const AboutBlank = "about:blank"

// Problem describes an error in a machine-readable way.
type Problem struct {
	// A URI reference that identifies the problem type.
	Type string

	// A short, human-readable summary of the problem type. It should not change from occurrence to
	// occurrence of the problem, except for purposes of localization.
	Title string

	// The HTTP status code generated by the origin server for this occurrence of the problem.
	Status int

	// A human-readable explanation specific to this occurrence of the problem.
	Detail string

	// A URI reference that identifies the specific occurrence of the problem.
	Instance string

	// Additional members. They're rendered alongside the standard members, in sorted order.
	Extensions map[string]interface{}
}

var reservedMembers = map[string]struct{}{
	"type":     {},
	"title":    {},
	"status":   {},
	"detail":   {},
	"instance": {},
}

// ForStatus returns a problem that only conveys the given status.
func ForStatus(status int) Problem {
	return Problem{
		Type:   AboutBlank,
		Title:  http.StatusText(status),
		Status: status,
	}
}

func (p Problem) WithType(t string) Problem {
	p.Type = t
	return p
}

func (p Problem) WithTitle(title string) Problem {
	p.Title = title
	return p
}

func (p Problem) WithDetail(detail string) Problem {
	p.Detail = detail
	return p
}

func (p Problem) WithInstance(instance string) Problem {
	p.Instance = instance
	return p
}

// With returns a copy of the problem with an extension member added. It panics if the name is one
// of the standard members.
func (p Problem) With(name string, value interface{}) Problem {
	if _, ok := reservedMembers[name]; ok {
		panic("problem extensions must not use the standard member name " + strconv.Quote(name))
	}
	extensions := make(map[string]interface{}, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[name] = value
	p.Extensions = extensions
	return p
}

func (p Problem) Error() string {
	if p.Detail != "" {
		return p.Title + ": " + p.Detail
	}
	return p.Title
}

func (p Problem) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteObjectStart()
	first := true
	field := func(name string) {
		if !first {
			stream.WriteMore()
		}
		first = false
		stream.WriteObjectField(name)
	}
	for _, member := range []struct {
		name  string
		value string
	}{
		{"type", p.Type},
		{"title", p.Title},
	} {
		if member.value != "" {
			field(member.name)
			stream.WriteString(member.value)
		}
	}
	if p.Status != 0 {
		field("status")
		stream.WriteInt(p.Status)
	}
	if p.Detail != "" {
		field("detail")
		stream.WriteString(p.Detail)
	}
	if p.Instance != "" {
		field("instance")
		stream.WriteString(p.Instance)
	}

	names := make([]string, 0, len(p.Extensions))
	for name := range p.Extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field(name)
		stream.WriteVal(p.Extensions[name])
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func (p *Problem) UnmarshalJSON(data []byte) error {
	*p = Problem{}
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	iter.ReadObjectCB(func(iter *jsoniter.Iterator, field string) bool {
		switch field {
		case "type":
			p.Type = iter.ReadString()
		case "title":
			p.Title = iter.ReadString()
		case "status":
			p.Status = iter.ReadInt()
		case "detail":
			p.Detail = iter.ReadString()
		case "instance":
			p.Instance = iter.ReadString()
		default:
			if p.Extensions == nil {
				p.Extensions = map[string]interface{}{}
			}
			p.Extensions[field] = iter.Read()
		}
		return iter.Error == nil
	})
	if iter.Error != nil {
		return errors.Wrap(iter.Error, "malformed problem document")
	}
	return nil
}

// Write writes the problem as an HTTP response. If the problem has no status, 500 is used.
func Write(w http.ResponseWriter, p Problem) error {
	status := p.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body, err := p.MarshalJSON()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}
