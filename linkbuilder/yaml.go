package linkbuilder

import (
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// patternList accepts either a single pattern or a list of patterns.
type patternList []string

func (l *patternList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = patternList{s}
		return nil
	case yaml.SequenceNode:
		var s []string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = s
		return nil
	}
	return errors.Errorf("line %d: patterns must be a string or a list of strings", value.Line)
}

type yamlParameter struct {
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	In          string          `yaml:"in"`
	Required    bool            `yaml:"required"`
	Constraints string          `yaml:"constraints"`
	Fields      []yamlParameter `yaml:"fields"`
}

func (p yamlParameter) parameter() (Parameter, error) {
	ret := Parameter{
		Name:        p.Name,
		Type:        p.Type,
		Required:    p.Required,
		Constraints: p.Constraints,
	}
	if p.In != "" {
		kind, err := ParseParameterKind(p.In)
		if err != nil {
			return ret, err
		}
		ret.Kind = kind
	}
	for _, f := range p.Fields {
		field, err := f.parameter()
		if err != nil {
			return ret, err
		}
		ret.Fields = append(ret.Fields, field)
	}
	return ret, nil
}

type yamlMethod struct {
	Name       string          `yaml:"name"`
	HTTP       string          `yaml:"http"`
	Path       patternList     `yaml:"path"`
	Parameters []yamlParameter `yaml:"parameters"`
}

type yamlType struct {
	Name    string       `yaml:"name"`
	Prefix  *patternList `yaml:"prefix"`
	Methods []yamlMethod `yaml:"methods"`
}

type yamlRoutes struct {
	Types []yamlType `yaml:"types"`
}

// Load adds the routes of a YAML route table to the registry. For example:
//
//	types:
//	  - name: EmployeeController
//	    prefix: /employees
//	    methods:
//	      - name: FindOne
//	        path: /{id}
//	        parameters:
//	          - {name: id, type: int, in: path, required: true}
//	      - name: All
//	        parameters:
//	          - {name: page, type: int, in: query, constraints: min=0}
//
// Parameters default to path variables and methods default to GET. All invalid mappings are
// reported, not just the first.
func (r *Registry) Load(reader io.Reader) error {
	var routes yamlRoutes
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&routes); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrap(err, "unable to decode route table")
	}

	var result *multierror.Error
	for _, t := range routes.Types {
		if t.Prefix != nil {
			if err := r.MapType(t.Name, (*t.Prefix)...); err != nil {
				result = multierror.Append(result, err)
			}
		}
		for _, m := range t.Methods {
			method := MethodReference{
				Type: t.Name,
				Name: m.Name,
			}
			var paramErr error
			for _, p := range m.Parameters {
				param, err := p.parameter()
				if err != nil {
					paramErr = errors.Wrapf(err, "invalid parameter %v of %v.%v", p.Name, t.Name, m.Name)
					break
				}
				method.Parameters = append(method.Parameters, param)
			}
			if paramErr != nil {
				result = multierror.Append(result, paramErr)
				continue
			}
			if err := r.MapMethod(method, m.HTTP, m.Path...); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

// LoadRegistry creates a registry from a YAML route table. See Registry.Load for the format.
func LoadRegistry(reader io.Reader) (*Registry, error) {
	r := NewRegistry()
	if err := r.Load(reader); err != nil {
		return nil, err
	}
	return r, nil
}
