package hyperfu

import (
	"encoding/base64"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/linkbuilder"
	"github.com/ccbrown/hyperfu/pagination"
)

// Query parameters used for cursor pagination.
const (
	FirstParameter  = "first"
	LastParameter   = "last"
	AfterParameter  = "after"
	BeforeParameter = "before"
)

// SerializeCursor encodes a cursor for use in a URI. The cursor must be serializable with msgpack.
func SerializeCursor(cursor interface{}) (string, error) {
	b, err := msgpack.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeserializeCursor decodes a cursor encoded by SerializeCursor.
func DeserializeCursor[C any](s string) (*C, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "malformed cursor")
	}
	var ret C
	if err := msgpack.Unmarshal(b, &ret); err != nil {
		return nil, errors.Wrap(err, "malformed cursor")
	}
	return &ret, nil
}

func parseLimit(query url.Values, name string, max int) (*int, error) {
	s := query.Get(name)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, errors.Errorf("%v must be a non-negative integer", name)
	} else if max > 0 && n > max {
		return nil, errors.Errorf("%v must not exceed %d", name, max)
	}
	return &n, nil
}

// ParsePageRequest parses the pagination parameters of a request. If neither "first" nor "last" is
// given, defaultSize is used as "first". If max is positive, larger sizes are rejected.
func ParsePageRequest[C pagination.Cursor[C]](query url.Values, defaultSize, max int) (pagination.Request[C], error) {
	var req pagination.Request[C]
	var err error
	if req.First, err = parseLimit(query, FirstParameter, max); err != nil {
		return req, err
	}
	if req.Last, err = parseLimit(query, LastParameter, max); err != nil {
		return req, err
	}
	if req.First == nil && req.Last == nil && defaultSize > 0 {
		req.First = &defaultSize
	}
	if s := query.Get(AfterParameter); s != "" {
		if req.After, err = DeserializeCursor[C](s); err != nil {
			return req, errors.Wrapf(err, "invalid %v parameter", AfterParameter)
		}
	}
	if s := query.Get(BeforeParameter); s != "" {
		if req.Before, err = DeserializeCursor[C](s); err != nil {
			return req, errors.Wrapf(err, "invalid %v parameter", BeforeParameter)
		}
	}
	return req, nil
}

// PageLinks returns the "first", "prev", "next", and "last" links for a page of a collection. The
// base builder should point to the collection. Open pagination variables it may declare are
// dropped. The "prev" and "next" links are only returned if there are such pages.
func PageLinks[C pagination.Cursor[C]](base *linkbuilder.LinkBuilder, info pagination.PageInfo[C], size int) ([]link.Link, error) {
	base = base.WithoutQueryVariables()

	ret := []link.Link{
		base.WithQuery(FirstParameter, size).WithRel(link.First),
	}
	if info.HasPreviousPage && info.StartCursor != nil {
		cursor, err := SerializeCursor(*info.StartCursor)
		if err != nil {
			return nil, errors.Wrap(err, "unable to serialize start cursor")
		}
		ret = append(ret, base.WithQuery(LastParameter, size).WithQuery(BeforeParameter, cursor).WithRel(link.Prev))
	}
	if info.HasNextPage && info.EndCursor != nil {
		cursor, err := SerializeCursor(*info.EndCursor)
		if err != nil {
			return nil, errors.Wrap(err, "unable to serialize end cursor")
		}
		ret = append(ret, base.WithQuery(FirstParameter, size).WithQuery(AfterParameter, cursor).WithRel(link.Next))
	}
	return append(ret, base.WithQuery(LastParameter, size).WithRel(link.Last)), nil
}
