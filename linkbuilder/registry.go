package linkbuilder

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hyperfu/uritemplate"
)

// Route is the URI mapping of a single handler method.
type Route struct {
	Method MethodReference

	// The HTTP method of the handler, e.g. "GET". Used for affordances.
	HTTPMethod string

	// The method-level patterns, relative to the type's prefix. Exactly one is expected, but
	// conflicting declarations are only reported when a link is built.
	Patterns []string
}

// Registry is the lookup table from method references to URI templates. It is typically populated
// once at startup by whatever registers the application's routes, and is safe for concurrent use
// afterwards.
type Registry struct {
	// If given, registrations are logged at debug level.
	Logger logrus.FieldLogger

	mutex  sync.RWMutex
	types  map[string][]string
	routes map[string]*Route
	byType map[string][]*Route
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  map[string][]string{},
		routes: map[string]*Route{},
		byType: map[string][]*Route{},
	}
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := uritemplate.Parse(pattern); err != nil {
			return err
		}
	}
	return nil
}

// MapType declares the type-level prefix of a type's routes. Malformed patterns are rejected
// immediately.
func (r *Registry) MapType(typeName string, patterns ...string) error {
	if typeName == "" {
		return errors.New("type name must not be empty")
	} else if err := validatePatterns(patterns); err != nil {
		return errors.Wrapf(err, "invalid mapping for type %v", typeName)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.types[typeName]; ok {
		return errors.Errorf("type %v is already mapped", typeName)
	}
	r.types[typeName] = append([]string(nil), patterns...)
	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{
			"type":     typeName,
			"patterns": patterns,
		}).Debug("mapped type")
	}
	return nil
}

// MapMethod declares the route of a handler method. Malformed patterns are rejected immediately. A
// method may be mapped without patterns, in which case links to it use the type's prefix.
func (r *Registry) MapMethod(method MethodReference, httpMethod string, patterns ...string) error {
	if method.Type == "" || method.Name == "" {
		return errors.New("method references must have a type and a name")
	} else if err := validatePatterns(patterns); err != nil {
		return errors.Wrapf(err, "invalid mapping for %v", method)
	}
	for i, p := range method.Parameters {
		if p.Name == "" {
			return errors.Errorf("parameter %d of %v has no name", i, method)
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := method.Key()
	if _, ok := r.routes[key]; ok {
		return errors.Errorf("%v is already mapped", key)
	}
	if httpMethod == "" {
		httpMethod = "GET"
	}
	route := &Route{
		Method:     method,
		HTTPMethod: httpMethod,
		Patterns:   append([]string(nil), patterns...),
	}
	r.routes[key] = route
	r.byType[method.Type] = append(r.byType[method.Type], route)
	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{
			"method":   key,
			"http":     httpMethod,
			"patterns": patterns,
		}).Debug("mapped method")
	}
	return nil
}

// HasType returns true if the type has a prefix or at least one mapped method.
func (r *Registry) HasType(typeName string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, hasPrefix := r.types[typeName]
	return hasPrefix || len(r.byType[typeName]) > 0
}

// Route returns the route of the given method, if it was mapped.
func (r *Registry) Route(method MethodReference) (*Route, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	route, ok := r.routes[method.Key()]
	return route, ok
}

// Methods returns the mapped methods of a type in registration order.
func (r *Registry) Methods(typeName string) []MethodReference {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	var ret []MethodReference
	for _, route := range r.byType[typeName] {
		ret = append(ret, route.Method)
	}
	return ret
}

// Method looks up a mapped method by type and name. If the method is overloaded, the first one
// registered is returned.
func (r *Registry) Method(typeName, name string) (MethodReference, bool) {
	for _, m := range r.Methods(typeName) {
		if m.Name == name {
			return m, true
		}
	}
	return MethodReference{}, false
}

// Types returns the names of all types known to the registry, sorted.
func (r *Registry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	seen := map[string]struct{}{}
	for t := range r.types {
		seen[t] = struct{}{}
	}
	for t := range r.byType {
		seen[t] = struct{}{}
	}
	ret := make([]string, 0, len(seen))
	for t := range seen {
		ret = append(ret, t)
	}
	sort.Strings(ret)
	return ret
}

// Template resolves the full URI template of a method: the type's prefix joined with the method's
// pattern, plus "{?name}" variables for query parameters the pattern doesn't declare.
func (r *Registry) Template(method MethodReference) (*uritemplate.Template, *Route, error) {
	r.mutex.RLock()
	typePatterns, hasType := r.types[method.Type]
	route := r.routes[method.Key()]
	r.mutex.RUnlock()

	if route == nil && (!hasType || len(typePatterns) == 0) {
		return nil, nil, &MappingNotFoundError{
			Type:   method.Type,
			Method: method.Key(),
		}
	}
	if len(typePatterns) > 1 {
		return nil, nil, &AmbiguousMappingError{
			Type:     method.Type,
			Patterns: typePatterns,
		}
	}

	var fragments []string
	if len(typePatterns) == 1 {
		fragments = append(fragments, typePatterns[0])
	}
	if route != nil {
		if len(route.Patterns) > 1 {
			return nil, nil, &AmbiguousMappingError{
				Type:     method.Type,
				Method:   method.Key(),
				Patterns: route.Patterns,
			}
		} else if len(route.Patterns) == 1 {
			fragments = append(fragments, route.Patterns[0])
		}
	}

	joined := uritemplate.Join(fragments...)
	if joined == "" {
		joined = "/"
	}
	template, err := uritemplate.Parse(joined)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid mapping for %v", method)
	}
	return template.WithQueryVariables(method.queryParameterNames()...), route, nil
}
