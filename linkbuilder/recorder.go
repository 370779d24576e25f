package linkbuilder

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/uritemplate"
)

type RecorderConfig struct {
	// If given, every href is prefixed with this, e.g. "https://example.com/api". See BaseURI for
	// deriving it from a request.
	BaseURI string

	// If given, resolutions are logged at debug level. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// Recorder is the context in which invocations are recorded and resolved. Recorders are cheap and
// meant to be created per request. They are not safe for concurrent use.
type Recorder struct {
	registry *Registry
	baseURI  string
	logger   logrus.FieldLogger
	active   *recording
}

type recording struct {
	typeName string
}

func NewRecorder(registry *Registry, cfg RecorderConfig) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{
		registry: registry,
		baseURI:  cfg.BaseURI,
		logger:   logger,
	}
}

// Registry returns the registry the recorder resolves against.
func (r *Recorder) Registry() *Registry {
	return r.registry
}

// Active returns true if a recording was started and not yet consumed.
func (r *Recorder) Active() bool {
	return r.active != nil
}

// MethodOn starts a recording and returns a stand-in for the given type. Only one recording may be
// active at a time. The recording is consumed by LinkTo or released by Reset.
func (r *Recorder) MethodOn(typeName string) (*Proxy, error) {
	if r.active != nil {
		return nil, &RecorderStateError{
			Message: fmt.Sprintf("cannot record an invocation on %v while a recording on %v is active", typeName, r.active.typeName),
		}
	}
	if !r.registry.HasType(typeName) {
		return nil, &MappingNotFoundError{
			Type: typeName,
		}
	}
	r.active = &recording{
		typeName: typeName,
	}
	return &Proxy{
		typeName:  typeName,
		recording: r.active,
	}, nil
}

// Reset releases the active recording, if any.
func (r *Recorder) Reset() {
	r.active = nil
}

// LinkTo resolves a recorded invocation to a link builder. The active recording is released
// regardless of the outcome.
func (r *Recorder) LinkTo(inv *Invocation) (*LinkBuilder, error) {
	defer r.Reset()

	if inv == nil {
		return nil, &RecorderStateError{
			Message: "no invocation was recorded",
		}
	} else if r.active == nil || inv.recording != r.active {
		return nil, &RecorderStateError{
			Message: fmt.Sprintf("invocation of %v does not belong to the active recording", inv.Method),
		}
	}

	components := uritemplate.Components{
		BaseURI: r.baseURI,
	}
	for _, level := range inv.Chain() {
		c, err := r.expand(level)
		if err != nil {
			return nil, err
		}
		components = components.Append(c)
	}

	builder := &LinkBuilder{
		components:  components,
		affordances: []link.Affordance{r.affordance(inv.Method)},
	}
	r.logger.WithFields(logrus.Fields{
		"type":   inv.target,
		"method": inv.Method.Key(),
		"href":   builder.String(),
	}).Debug("resolved invocation")
	return builder, nil
}

func (r *Recorder) expand(inv *Invocation) (uritemplate.Components, error) {
	if inv.Method.Type != inv.target {
		return uritemplate.Components{}, errors.Errorf("%v was invoked on %v, which does not declare it", inv.Method, inv.target)
	}
	template, _, err := r.registry.Template(inv.Method)
	if err != nil {
		return uritemplate.Components{}, err
	}
	values, err := bindArguments(inv)
	if err != nil {
		return uritemplate.Components{}, err
	}
	return template.Expand(values), nil
}

func (r *Recorder) affordance(method MethodReference) link.Affordance {
	httpMethod := "GET"
	if route, ok := r.registry.Route(method); ok {
		httpMethod = route.HTTPMethod
	}
	return link.Affordance{
		Name:       method.Name,
		HTTPMethod: httpMethod,
		Inputs:     method.Inputs(),
	}
}

// ResolveToLink resolves a recorded invocation to a link with the given relation.
func (r *Recorder) ResolveToLink(inv *Invocation, rel string) (link.Link, error) {
	builder, err := r.LinkTo(inv)
	if err != nil {
		return link.Link{}, err
	}
	return builder.Rel(rel).Build()
}

// Record starts a recording on the given type, invokes fn with the stand-in, and resolves the
// invocation it returns. The recording is released even if fn panics.
func (r *Recorder) Record(typeName string, fn func(p *Proxy) *Invocation) (*LinkBuilder, error) {
	proxy, err := r.MethodOn(typeName)
	if err != nil {
		return nil, err
	}
	defer r.Reset()
	return r.LinkTo(fn(proxy))
}
