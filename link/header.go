package link

import (
	"strings"

	"github.com/pkg/errors"
)

// HeaderName returns "Link-Template" for templated links and "Link" otherwise.
func (l Link) HeaderName() string {
	if l.Templated() {
		return "Link-Template"
	}
	return "Link"
}

// Header formats the link as an RFC 8288 header value, e.g. `</employees/42>; rel="self"`.
func (l Link) Header() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(l.Href)
	b.WriteString(">")
	if len(l.Rels) > 0 {
		writeParam(&b, "rel", strings.Join(l.Rels, " "))
	}
	for _, lang := range l.Hreflang {
		writeParam(&b, "hreflang", lang)
	}
	for _, p := range [][2]string{
		{"media", l.Media},
		{"title", l.Title},
		{"type", l.Type},
		{"deprecation", l.Deprecation},
		{"profile", l.Profile},
		{"name", l.Name},
	} {
		if p[1] != "" {
			writeParam(&b, p[0], p[1])
		}
	}
	return b.String()
}

func writeParam(b *strings.Builder, name, value string) {
	b.WriteString("; ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(strings.ReplaceAll(value, `"`, `\"`))
	b.WriteString(`"`)
}

// FormatHeader formats multiple links as a single header value.
func FormatHeader(links []Link) string {
	values := make([]string, len(links))
	for i, l := range links {
		values[i] = l.Header()
	}
	return strings.Join(values, ", ")
}

// ParseHeader parses an RFC 8288 header value into links. Links without a relation are rejected.
func ParseHeader(header string) ([]Link, error) {
	var ret []Link
	p := headerParser{s: header}
	for {
		p.skipSpace()
		if p.done() {
			return ret, nil
		}
		l, err := p.parseLink()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid link header at offset %d", p.pos)
		}
		ret = append(ret, l)
		p.skipSpace()
		if !p.done() {
			if p.s[p.pos] != ',' {
				return nil, errors.Errorf("invalid link header at offset %d: expected ','", p.pos)
			}
			p.pos++
		}
	}
}

type headerParser struct {
	s   string
	pos int
}

func (p *headerParser) done() bool {
	return p.pos >= len(p.s)
}

func (p *headerParser) skipSpace() {
	for !p.done() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *headerParser) parseLink() (Link, error) {
	var ret Link
	if p.s[p.pos] != '<' {
		return ret, errors.New("expected '<'")
	}
	end := strings.IndexByte(p.s[p.pos:], '>')
	if end < 0 {
		return ret, errors.New("unterminated uri reference")
	}
	ret.Href = p.s[p.pos+1 : p.pos+end]
	p.pos += end + 1

	for {
		p.skipSpace()
		if p.done() || p.s[p.pos] == ',' {
			break
		}
		if p.s[p.pos] != ';' {
			return ret, errors.New("expected ';'")
		}
		p.pos++
		p.skipSpace()
		name, value, err := p.parseParam()
		if err != nil {
			return ret, err
		}
		switch strings.ToLower(name) {
		case "rel":
			for _, rel := range strings.Fields(value) {
				ret = ret.WithRel(rel)
			}
		case "hreflang":
			ret.Hreflang = append(ret.Hreflang, value)
		case "media":
			ret.Media = value
		case "title":
			ret.Title = value
		case "type":
			ret.Type = value
		case "deprecation":
			ret.Deprecation = value
		case "profile":
			ret.Profile = value
		case "name":
			ret.Name = value
		}
	}

	if len(ret.Rels) == 0 {
		return ret, errors.Errorf("link to %v has no relation", ret.Href)
	}
	return ret, nil
}

func (p *headerParser) parseParam() (string, string, error) {
	start := p.pos
	for !p.done() && p.s[p.pos] != '=' && p.s[p.pos] != ';' && p.s[p.pos] != ',' {
		p.pos++
	}
	name := strings.TrimSpace(p.s[start:p.pos])
	if name == "" {
		return "", "", errors.New("expected parameter name")
	}
	if p.done() || p.s[p.pos] != '=' {
		return name, "", nil
	}
	p.pos++
	p.skipSpace()

	if !p.done() && p.s[p.pos] == '"' {
		var b strings.Builder
		p.pos++
		for !p.done() && p.s[p.pos] != '"' {
			if p.s[p.pos] == '\\' && p.pos+1 < len(p.s) {
				p.pos++
			}
			b.WriteByte(p.s[p.pos])
			p.pos++
		}
		if p.done() {
			return "", "", errors.New("unterminated quoted string")
		}
		p.pos++
		return name, b.String(), nil
	}

	start = p.pos
	for !p.done() && p.s[p.pos] != ';' && p.s[p.pos] != ',' {
		p.pos++
	}
	return name, strings.TrimSpace(p.s[start:p.pos]), nil
}
