package hyperfu

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hyperfu/hal"
	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/linkbuilder"
	"github.com/ccbrown/hyperfu/problem"
)

type API struct {
	config     *Config
	registry   *linkbuilder.Registry
	serializer *hal.Serializer
	logger     logrus.FieldLogger
}

func NewAPI(cfg *Config) (*API, error) {
	serializer := &hal.Serializer{
		Configuration: cfg.HAL,
	}
	if len(cfg.Curies) > 0 {
		curies, err := hal.NewCurieProvider(cfg.DefaultCurie, cfg.Curies...)
		if err != nil {
			return nil, errors.Wrap(err, "error building curie provider")
		}
		serializer.Curies = curies
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &API{
		config:     cfg,
		registry:   cfg.Registry(),
		serializer: serializer,
		logger:     logger,
	}, nil
}

// Serializer returns the HAL serializer used by ServeHAL.
func (api *API) Serializer() *hal.Serializer {
	return api.serializer
}

// NewRecorder creates a recorder for building links in response to the given request. The request
// may be nil if links should not be prefixed with its base URI.
func (api *API) NewRecorder(r *http.Request) *linkbuilder.Recorder {
	baseURI := api.config.BaseURI
	if baseURI == "" && !api.config.RelativeLinks && r != nil {
		baseURI = linkbuilder.BaseURI(r, api.config.TrustForwardedHeaders)
	}
	return linkbuilder.NewRecorder(api.registry, linkbuilder.RecorderConfig{
		BaseURI: baseURI,
		Logger:  api.logger,
	})
}

type recorderContextKeyType int

var recorderContextKey recorderContextKeyType

// RecorderFromContext returns the recorder installed by Middleware, or nil if there is none.
func RecorderFromContext(ctx context.Context) *linkbuilder.Recorder {
	recorder, _ := ctx.Value(recorderContextKey).(*linkbuilder.Recorder)
	return recorder
}

// Middleware installs a recorder for each request, which handlers can retrieve with
// RecorderFromContext or use via LinkTo. Recordings left active by the handler are released when it
// returns.
func (api *API) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := api.NewRecorder(r)
		defer func() {
			if recorder.Active() {
				api.logger.WithField("path", r.URL.Path).Warn("handler returned with an active link recording")
				recorder.Reset()
			}
		}()
		ctx := context.WithValue(r.Context(), recorderContextKey, recorder)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LinkTo records an invocation on the given type with the context's recorder and resolves it.
func LinkTo(ctx context.Context, typeName string, fn func(p *linkbuilder.Proxy) *linkbuilder.Invocation) (*linkbuilder.LinkBuilder, error) {
	recorder := RecorderFromContext(ctx)
	if recorder == nil {
		return nil, errors.New("no link recorder in context, is the api middleware installed?")
	}
	return recorder.Record(typeName, fn)
}

// ServeHAL writes a HAL document as the response. If the document can't be serialized, the error is
// logged and a 500 problem is sent instead.
func (api *API) ServeHAL(w http.ResponseWriter, r *http.Request, status int, doc *hal.Document) {
	body, err := api.serializer.MarshalDocument(doc)
	if err != nil {
		api.logger.WithError(err).WithField("path", r.URL.Path).Error("unable to serialize hal document")
		api.ServeProblem(w, r, problem.ForStatus(http.StatusInternalServerError))
		return
	}

	if api.config.LinkHeaders {
		for _, l := range doc.Links() {
			w.Header().Add(l.HeaderName(), l.Header())
		}
	}
	w.Header().Set("Content-Type", hal.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		api.logger.WithError(err).WithField("path", r.URL.Path).Error("unable to write hal response")
	}
}

// ServeProblem writes a problem details response. Problems with server error statuses are logged.
func (api *API) ServeProblem(w http.ResponseWriter, r *http.Request, p problem.Problem) {
	if p.Instance == "" {
		p.Instance = r.URL.Path
	}
	if p.Status == 0 || p.Status >= 500 {
		api.logger.WithFields(logrus.Fields{
			"path":   r.URL.Path,
			"status": p.Status,
		}).Warn(p.Error())
	}
	if err := problem.Write(w, p); err != nil {
		api.logger.WithError(err).WithField("path", r.URL.Path).Error("unable to write problem response")
	}
}

// ParseLinks returns the links of a response's Link and Link-Template headers.
func ParseLinks(h http.Header) ([]link.Link, error) {
	var ret []link.Link
	for _, name := range []string{"Link", "Link-Template"} {
		for _, value := range h.Values(name) {
			links, err := link.ParseHeader(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid %v header", name)
			}
			ret = append(ret, links...)
		}
	}
	return ret, nil
}
