package linkbuilder

import (
	"fmt"
	"strings"

	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/uritemplate"
)

// ParameterKind classifies how a handler method receives a parameter.
type ParameterKind int

const (
	// The parameter is bound to a variable of the same name in the URI template.
	PathVariable ParameterKind = iota

	// The parameter is a query parameter. If the mapping's template doesn't declare it, it is
	// added as a "{?name}" variable.
	QueryParameter

	// The parameter is read from a request header. It doesn't contribute to links.
	HeaderParameter

	// The parameter is the request body. Its fields become affordance inputs.
	BodyParameter

	// The parameter doesn't come from the request at all.
	IgnoredParameter
)

var parameterKindNames = map[ParameterKind]string{
	PathVariable:     "path",
	QueryParameter:   "query",
	HeaderParameter:  "header",
	BodyParameter:    "body",
	IgnoredParameter: "ignored",
}

func (k ParameterKind) String() string {
	if name, ok := parameterKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ParameterKind(%d)", int(k))
}

// ParseParameterKind parses the names used by String, e.g. "path" or "query".
func ParseParameterKind(s string) (ParameterKind, error) {
	for k, name := range parameterKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter kind %q", s)
}

// Parameter describes a formal parameter of a handler method.
type Parameter struct {
	Name string

	// A type hint such as "int" or "string". Parameter types distinguish overloaded methods.
	Type string

	Kind ParameterKind

	Required bool

	// Constraints in go-playground/validator tag syntax, e.g. "min=1".
	Constraints string

	// For body parameters, the fields of the body.
	Fields []Parameter
}

func (p Parameter) inputs() []link.InputParameter {
	if p.Kind == BodyParameter && len(p.Fields) > 0 {
		var ret []link.InputParameter
		for _, f := range p.Fields {
			ret = append(ret, f.inputs()...)
		}
		return ret
	}
	return []link.InputParameter{{
		Name:        p.Name,
		Type:        p.Type,
		Required:    p.Required,
		Constraints: p.Constraints,
	}}
}

// MethodReference identifies a handler method. Method references replace reflective method
// lookups: declare them once, register them with a Registry, and record calls against them.
type MethodReference struct {
	// The name of the declaring type, e.g. "EmployeeController".
	Type string

	Name string

	Parameters []Parameter
}

// Key uniquely identifies the method, including its parameter types.
func (m MethodReference) Key() string {
	types := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = p.Type
	}
	return m.Type + "." + m.Name + "(" + strings.Join(types, ",") + ")"
}

func (m MethodReference) String() string {
	return m.Key()
}

func (m MethodReference) queryParameterNames() []string {
	var ret []string
	for _, p := range m.Parameters {
		if p.Kind == QueryParameter {
			ret = append(ret, p.Name)
		}
	}
	return ret
}

// Inputs returns the affordance inputs derived from the method's parameters. Path variables are
// part of the href and header or ignored parameters aren't client inputs, so only query and body
// parameters are included.
func (m MethodReference) Inputs() []link.InputParameter {
	var ret []link.InputParameter
	for _, p := range m.Parameters {
		switch p.Kind {
		case QueryParameter, BodyParameter:
			ret = append(ret, p.inputs()...)
		}
	}
	return ret
}

// Identifiable values are rendered using their identifier when used as arguments or path segments.
type Identifiable interface {
	Identifier() interface{}
}

// Unbound may be used as an argument to leave the corresponding template variable open. A nil
// argument or a nil pointer has the same effect.
var Unbound = uritemplate.Unbound

func bindArguments(inv *Invocation) (map[string]interface{}, error) {
	params := inv.Method.Parameters
	if len(inv.Arguments) != len(params) {
		return nil, fmt.Errorf("%v expects %d arguments, got %d", inv.Method, len(params), len(inv.Arguments))
	}
	values := make(map[string]interface{}, len(params))
	for i, p := range params {
		if p.Kind != PathVariable && p.Kind != QueryParameter {
			continue
		}
		arg, ok := uritemplate.Indirect(inv.Arguments[i])
		if !ok {
			values[p.Name] = Unbound
			continue
		}
		if id, ok := arg.(Identifiable); ok {
			arg = id.Identifier()
		}
		values[p.Name] = arg
	}
	return values, nil
}
