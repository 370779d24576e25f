package hyperfu

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hyperfu/hal"
	"github.com/ccbrown/hyperfu/linkbuilder"
)

// Config defines the routes and rendering parameters for an API.
type Config struct {
	Logger logrus.FieldLogger

	// Controls how links and embedded resources are rendered.
	HAL hal.Configuration

	// If given, relations are namespaced with these curies. If DefaultCurie is empty and there is
	// only one curie, it is the default.
	Curies       []hal.Curie
	DefaultCurie string

	// If given, every href is prefixed with this. Otherwise hrefs are prefixed with the base URI
	// of the request being served, unless RelativeLinks is true.
	BaseURI       string
	RelativeLinks bool

	// If true, X-Forwarded-* headers are used to determine the base URI of requests. Only enable
	// this behind a proxy that sets them.
	TrustForwardedHeaders bool

	// If true, the links of documents served by ServeHAL are also sent as Link and Link-Template
	// headers.
	LinkHeaders bool

	initOnce sync.Once
	registry *linkbuilder.Registry
}

func (cfg *Config) init() {
	cfg.initOnce.Do(func() {
		cfg.registry = linkbuilder.NewRegistry()
		cfg.registry.Logger = cfg.Logger
	})
}

// Registry returns the route registry links are resolved against.
func (cfg *Config) Registry() *linkbuilder.Registry {
	cfg.init()
	return cfg.registry
}

// MapType declares the path prefix of a handler type. It panics if the type is already mapped or a
// pattern is malformed.
func (cfg *Config) MapType(typeName string, patterns ...string) {
	if err := cfg.Registry().MapType(typeName, patterns...); err != nil {
		panic(err)
	}
}

// MapMethod declares the route of a handler method. It panics if the method is already mapped or a
// pattern is malformed.
func (cfg *Config) MapMethod(method linkbuilder.MethodReference, httpMethod string, patterns ...string) {
	if err := cfg.Registry().MapMethod(method, httpMethod, patterns...); err != nil {
		panic(err)
	}
}

// LoadRoutes adds the routes of a YAML route table. See linkbuilder.Registry.Load for the format.
func (cfg *Config) LoadRoutes(r io.Reader) error {
	return cfg.Registry().Load(r)
}
