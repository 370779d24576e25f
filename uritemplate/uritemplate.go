package uritemplate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
)

// VariableType determines how a variable is expanded. The types correspond to the RFC 6570
// operators supported by link templates.
type VariableType int

const (
	// {name}
	PathVariable VariableType = iota
	// {/name}
	Segment
	// {?name}
	RequestParam
	// {&name}
	RequestParamContinued
	// {#name}
	Fragment
)

func variableTypeFromOperator(op byte) (VariableType, bool) {
	switch op {
	case '/':
		return Segment, true
	case '?':
		return RequestParam, true
	case '&':
		return RequestParamContinued, true
	case '#':
		return Fragment, true
	}
	return PathVariable, false
}

func (t VariableType) operator() string {
	switch t {
	case Segment:
		return "/"
	case RequestParam:
		return "?"
	case RequestParamContinued:
		return "&"
	case Fragment:
		return "#"
	}
	return ""
}

// IsQuery returns true for request parameter variables.
func (t VariableType) IsQuery() bool {
	return t == RequestParam || t == RequestParamContinued
}

// Variable is a single named template variable.
type Variable struct {
	Name string
	Type VariableType
}

// IsRequired returns true if the variable must be given a value for the template to become a URI.
// Query and fragment variables are optional.
func (v Variable) IsRequired() bool {
	return v.Type == PathVariable || v.Type == Segment
}

func (v Variable) String() string {
	return "{" + v.Type.operator() + v.Name + "}"
}

// SyntaxError is returned when a template can't be parsed.
type SyntaxError struct {
	Template string
	Offset   int
	Message  string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("malformed uri template %q at offset %d: %v", err.Template, err.Offset, err.Message)
}

type part struct {
	literal   string
	variables []int
}

// Template is a parsed URI template. Templates are immutable once parsed.
type Template struct {
	raw       string
	parts     []part
	variables []Variable
}

func isNameCharacter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-'
}

// Parse parses a template such as "/things/{id}{?page,size}". Variables may carry a pattern
// restriction ("{id:[0-9]+}"), which is dropped.
func Parse(template string) (*Template, error) {
	ret := &Template{
		raw: template,
	}

	literalStart := 0
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '}':
			return nil, &SyntaxError{Template: template, Offset: i, Message: "unexpected '}'"}
		case '{':
			end, err := findClosingBrace(template, i)
			if err != nil {
				return nil, err
			}
			if literalStart < i {
				ret.parts = append(ret.parts, part{literal: template[literalStart:i]})
			}
			p, err := ret.parseExpression(template, i, end)
			if err != nil {
				return nil, err
			}
			ret.parts = append(ret.parts, p)
			i = end
			literalStart = end + 1
		}
	}
	if literalStart < len(template) {
		ret.parts = append(ret.parts, part{literal: template[literalStart:]})
	}
	return ret, nil
}

// Regex restrictions may contain nested braces, e.g. "{id:[0-9]{3}}".
func findClosingBrace(template string, start int) (int, error) {
	depth := 0
	for i := start; i < len(template); i++ {
		switch template[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, &SyntaxError{Template: template, Offset: start, Message: "unclosed '{'"}
}

func (t *Template) parseExpression(template string, start, end int) (part, error) {
	expr := template[start+1 : end]
	if expr == "" {
		return part{}, &SyntaxError{Template: template, Offset: start, Message: "empty expression"}
	}

	varType, hasOperator := variableTypeFromOperator(expr[0])
	if hasOperator {
		expr = expr[1:]
	}
	if colon := strings.IndexByte(expr, ':'); colon >= 0 {
		if varType != PathVariable {
			return part{}, &SyntaxError{Template: template, Offset: start, Message: "pattern restrictions are only allowed on path variables"}
		}
		expr = expr[:colon]
	}

	var ret part
	for _, name := range strings.Split(expr, ",") {
		if name == "" {
			return part{}, &SyntaxError{Template: template, Offset: start, Message: "empty variable name"}
		} else if strings.IndexFunc(name, func(r rune) bool { return !isNameCharacter(r) }) >= 0 {
			return part{}, &SyntaxError{Template: template, Offset: start, Message: fmt.Sprintf("invalid variable name %q", name)}
		}
		ret.variables = append(ret.variables, len(t.variables))
		t.variables = append(t.variables, Variable{
			Name: name,
			Type: varType,
		})
	}
	return ret, nil
}

// MustParse is like Parse, but panics on error.
func MustParse(template string) *Template {
	ret, err := Parse(template)
	if err != nil {
		panic(err)
	}
	return ret
}

var variableRegex = regexp.MustCompile(`\{[\?&#/]?[\w\.\-,]+(:[^}]*)?\}`)

// IsTemplate returns true if the given string contains at least one template variable.
func IsTemplate(s string) bool {
	return variableRegex.MatchString(s)
}

// Variables returns the template's variables in the order they appear.
func (t *Template) Variables() []Variable {
	return append([]Variable(nil), t.variables...)
}

// VariableNames returns the names of the template's variables in the order they appear.
func (t *Template) VariableNames() []string {
	ret := make([]string, len(t.variables))
	for i, v := range t.variables {
		ret[i] = v.Name
	}
	return ret
}

// HasVariable returns true if the template contains a variable with the given name.
func (t *Template) HasVariable(name string) bool {
	for _, v := range t.variables {
		if v.Name == name {
			return true
		}
	}
	return false
}

func (t *Template) String() string {
	return t.Components().String()
}

// WithQueryVariables returns a copy of the template with the given names added as request
// parameter variables. Names already present in the template are skipped.
func (t *Template) WithQueryVariables(names ...string) *Template {
	ret := &Template{
		raw:       t.raw,
		parts:     append([]part(nil), t.parts...),
		variables: append([]Variable(nil), t.variables...),
	}
	var added part
	for _, name := range names {
		if ret.HasVariable(name) {
			continue
		}
		added.variables = append(added.variables, len(ret.variables))
		ret.variables = append(ret.variables, Variable{
			Name: name,
			Type: RequestParam,
		})
	}
	if len(added.variables) > 0 {
		ret.parts = append(ret.parts, added)
	}
	return ret
}

// Components returns the unexpanded template split into its components.
func (t *Template) Components() Components {
	return t.Expand(nil)
}

// Expand performs a partial expansion. Pointers are expanded to the values they point to. Variables
// without a value (missing, nil, a nil pointer, or Unbound) are kept: path and fragment variables
// remain literal, and query variables are collected into the query tail.
func (t *Template) Expand(values map[string]interface{}) Components {
	var ret Components
	var base, queryHead, queryTail, fragment strings.Builder

	for _, p := range t.parts {
		if len(p.variables) == 0 {
			lit := p.literal
			fragmentLiteral := ""
			if i := strings.IndexByte(lit, '#'); i >= 0 {
				lit, fragmentLiteral = lit[:i], lit[i:]
			}
			if queryHead.Len() > 0 {
				queryHead.WriteString(lit)
			} else if i := strings.IndexByte(lit, '?'); i >= 0 {
				base.WriteString(lit[:i])
				queryHead.WriteString(lit[i:])
			} else {
				base.WriteString(lit)
			}
			fragment.WriteString(fragmentLiteral)
			continue
		}

		for _, idx := range p.variables {
			variable := t.variables[idx]
			value, ok := lookup(values, variable.Name)
			if !ok {
				switch {
				case variable.Type.IsQuery():
					if queryTail.Len() > 0 {
						queryTail.WriteByte(',')
					}
					queryTail.WriteString(variable.Name)
				case variable.Type == Fragment:
					fragment.WriteString(variable.String())
				case queryHead.Len() > 0:
					queryHead.WriteString(variable.String())
				default:
					base.WriteString(variable.String())
				}
				ret.Variables = append(ret.Variables, variable)
				continue
			}

			switch variable.Type {
			case RequestParam, RequestParamContinued:
				if queryHead.Len() == 0 {
					queryHead.WriteByte('?')
				} else {
					queryHead.WriteByte('&')
				}
				queryHead.WriteString(url.QueryEscape(variable.Name))
				queryHead.WriteByte('=')
				queryHead.WriteString(url.QueryEscape(value))
			case Segment:
				base.WriteByte('/')
				base.WriteString(url.PathEscape(value))
			case PathVariable:
				if queryHead.Len() > 0 {
					queryHead.WriteString(url.QueryEscape(value))
				} else {
					base.WriteString(url.PathEscape(value))
				}
			case Fragment:
				fragment.WriteByte('#')
				fragment.WriteString(url.PathEscape(value))
			}
		}
	}

	ret.BaseURI = base.String()
	ret.QueryHead = queryHead.String()
	ret.QueryTail = queryTail.String()
	ret.Fragment = fragment.String()
	return ret
}

// Unbound may be given as a value to leave a variable unexpanded.
var Unbound = unbound{}

type unbound struct{}

func (unbound) String() string {
	return "<unbound>"
}

// Indirect follows pointers to the values they point to. Pointers implementing fmt.Stringer are
// kept as is. It returns false for nil, Unbound, and nil pointers, none of which bind a variable.
func Indirect(v interface{}) (interface{}, bool) {
	for v != nil && v != Unbound {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr {
			return v, true
		} else if rv.IsNil() {
			return nil, false
		} else if _, ok := v.(fmt.Stringer); ok {
			return v, true
		}
		v = rv.Elem().Interface()
	}
	return nil, false
}

// Format renders a variable value. It returns false if the value leaves the variable unbound.
func Format(v interface{}) (string, bool) {
	v, ok := Indirect(v)
	if !ok {
		return "", false
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), true
	}
	return fmt.Sprint(v), true
}

func lookup(values map[string]interface{}, name string) (string, bool) {
	return Format(values[name])
}
