package uritemplate

import (
	"regexp"
	"strings"
)

// Components is the result of a (partial) template expansion, split the way it's needed for
// further composition.
type Components struct {
	// Everything before the query, including unexpanded path variables.
	BaseURI string

	// The expanded part of the query, e.g. "?page=1". Empty or beginning with '?'.
	QueryHead string

	// Comma-separated names of query variables that remain unexpanded.
	QueryTail string

	// The fragment, including the leading '#', or an unexpanded fragment variable.
	Fragment string

	// The variables that remain unexpanded, in template order.
	Variables []Variable
}

// Query returns the query, including an expression for any unexpanded query variables.
func (c Components) Query() string {
	if c.QueryTail == "" {
		return c.QueryHead
	} else if c.QueryHead == "" {
		return "{?" + c.QueryTail + "}"
	}
	return c.QueryHead + "{&" + c.QueryTail + "}"
}

func (c Components) String() string {
	return c.BaseURI + c.Query() + c.Fragment
}

// HasVariables returns true if any variables remain unexpanded.
func (c Components) HasVariables() bool {
	return len(c.Variables) > 0 || strings.Contains(c.BaseURI, "{") || c.QueryTail != "" || strings.Contains(c.Fragment, "{")
}

// HasRequiredVariables returns true if any path variables remain unexpanded.
func (c Components) HasRequiredVariables() bool {
	for _, v := range c.Variables {
		if v.IsRequired() {
			return true
		}
	}
	return strings.Contains(c.BaseURI, "{")
}

// VariableNames returns the names of the unexpanded variables.
func (c Components) VariableNames() []string {
	ret := make([]string, len(c.Variables))
	for i, v := range c.Variables {
		ret[i] = v.Name
	}
	return ret
}

// Append appends another set of components as a path extension. The paths are joined with exactly
// one slash, the queries are concatenated, and the fragment of other wins if present. Open query
// variables that both sides declare are only kept once.
func (c Components) Append(other Components) Components {
	ret := Components{
		BaseURI:   Join(c.BaseURI, other.BaseURI),
		QueryHead: c.QueryHead,
		QueryTail: c.QueryTail,
		Fragment:  c.Fragment,
		Variables: append([]Variable(nil), c.Variables...),
	}

	openQuery := map[string]struct{}{}
	for _, name := range strings.Split(c.QueryTail, ",") {
		if name != "" {
			openQuery[name] = struct{}{}
		}
	}
	for _, v := range other.Variables {
		if _, ok := openQuery[v.Name]; ok && v.Type.IsQuery() {
			continue
		}
		ret.Variables = append(ret.Variables, v)
	}
	var tail []string
	for _, name := range strings.Split(other.QueryTail, ",") {
		if _, ok := openQuery[name]; !ok && name != "" {
			tail = append(tail, name)
			openQuery[name] = struct{}{}
		}
	}
	other.QueryTail = strings.Join(tail, ",")

	if other.QueryHead != "" {
		if ret.QueryHead == "" {
			ret.QueryHead = other.QueryHead
		} else {
			ret.QueryHead += "&" + other.QueryHead[1:]
		}
	}
	if other.QueryTail != "" {
		if ret.QueryTail == "" {
			ret.QueryTail = other.QueryTail
		} else {
			ret.QueryTail += "," + other.QueryTail
		}
	}
	if other.Fragment != "" {
		ret.Fragment = other.Fragment
	}
	return ret
}

var multipleSlashes = regexp.MustCompile(`/{2,}`)

// Join concatenates path fragments with slashes, collapsing duplicate slashes. A scheme separator
// ("https://") in the first fragment is preserved.
func Join(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		if f == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasPrefix(f, "/") && !strings.HasPrefix(f, "?") && !strings.HasPrefix(f, "#") {
			b.WriteByte('/')
		}
		b.WriteString(f)
	}
	joined := b.String()

	prefix := ""
	if i := strings.Index(joined, "://"); i >= 0 && !strings.ContainsAny(joined[:i], "/{?") {
		prefix, joined = joined[:i+3], joined[i+3:]
	}
	return prefix + multipleSlashes.ReplaceAllString(joined, "/")
}
