package linkbuilder

import (
	"fmt"
	"strings"
)

// MappingNotFoundError is returned when neither a method nor its declaring type has a URI mapping.
type MappingNotFoundError struct {
	Type string

	// Empty if the error refers to the type as a whole.
	Method string
}

func (err *MappingNotFoundError) Error() string {
	if err.Method == "" {
		return fmt.Sprintf("no uri mapping found for type %v", err.Type)
	}
	return fmt.Sprintf("no uri mapping found for %v or its declaring type %v", err.Method, err.Type)
}

// AmbiguousMappingError is returned when a method or type declares more than one URI pattern.
type AmbiguousMappingError struct {
	Type string

	// Empty if the ambiguous mapping is the type's.
	Method string

	Patterns []string
}

func (err *AmbiguousMappingError) Error() string {
	target := err.Type
	if err.Method != "" {
		target = err.Method
	}
	return fmt.Sprintf("multiple uri mappings found for %v, only one is supported: [%v]", target, strings.Join(err.Patterns, ", "))
}

// RecorderStateError indicates a recording was misused, e.g. started while another was active.
type RecorderStateError struct {
	Message string
}

func (err *RecorderStateError) Error() string {
	return err.Message
}
