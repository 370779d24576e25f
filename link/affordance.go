package link

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Affordance describes an operation a client may perform on a link's target.
type Affordance struct {
	// The name of the operation, typically the name of the handler method.
	Name string

	// The HTTP method used for the operation, e.g. "PUT".
	HTTPMethod string

	// The inputs expected by the operation.
	Inputs []InputParameter
}

// InputParameter describes a single input of an affordance.
type InputParameter struct {
	Name string

	// A type hint, e.g. "string" or "int".
	Type string

	Required bool

	// Constraints in go-playground/validator tag syntax, e.g. "min=1,max=100". These are used both
	// for documentation (see ConstraintSet) and for Validate.
	Constraints string
}

// Constraint is a single parsed constraint such as {Name: "max", Value: "100"}.
type Constraint struct {
	Name  string
	Value string
}

// ConstraintSet returns the parsed constraints of the parameter.
func (p InputParameter) ConstraintSet() []Constraint {
	if p.Constraints == "" {
		return nil
	}
	var ret []Constraint
	for _, c := range strings.Split(p.Constraints, ",") {
		if c == "" {
			continue
		}
		name, value, _ := strings.Cut(c, "=")
		ret = append(ret, Constraint{
			Name:  name,
			Value: value,
		})
	}
	return ret
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

func (p InputParameter) tag() string {
	var tags []string
	if p.Required {
		tags = append(tags, "required")
	} else {
		tags = append(tags, "omitempty")
	}
	if p.Constraints != "" {
		tags = append(tags, p.Constraints)
	}
	return strings.Join(tags, ",")
}

// Validate checks the given value against the parameter's constraints.
func (p InputParameter) Validate(value interface{}) error {
	if err := inputValidator().Var(value, p.tag()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Errorf("invalid value for %v: failed %q constraint", p.Name, verrs[0].Tag())
		}
		return errors.Wrapf(err, "unable to validate %v", p.Name)
	}
	return nil
}
