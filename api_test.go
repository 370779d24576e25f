package hyperfu

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbrown/hyperfu/hal"
	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/linkbuilder"
	"github.com/ccbrown/hyperfu/problem"
)

var (
	findEmployee = linkbuilder.MethodReference{
		Type: "EmployeeController",
		Name: "Find",
		Parameters: []linkbuilder.Parameter{
			{Name: "id", Type: "int", Kind: linkbuilder.PathVariable, Required: true},
		},
	}
	listEmployees = linkbuilder.MethodReference{
		Type: "EmployeeController",
		Name: "List",
		Parameters: []linkbuilder.Parameter{
			{Name: "first", Type: "int", Kind: linkbuilder.QueryParameter},
			{Name: "after", Type: "string", Kind: linkbuilder.QueryParameter},
		},
	}
)

func newTestConfig() *Config {
	cfg := &Config{}
	cfg.MapType("EmployeeController", "/employees")
	cfg.MapMethod(findEmployee, "GET", "/{id}")
	cfg.MapMethod(listEmployees, "GET")
	return cfg
}

func employeeHandler(api *API) http.Handler {
	return api.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		self, err := LinkTo(r.Context(), "EmployeeController", func(p *linkbuilder.Proxy) *linkbuilder.Invocation {
			return p.Call(findEmployee, 42)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		all, err := LinkTo(r.Context(), "EmployeeController", func(p *linkbuilder.Proxy) *linkbuilder.Invocation {
			return p.Call(listEmployees, nil, nil)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		doc := hal.NewDocument().
			AddLinks(self.WithSelfRel(), all.WithRel("employees")).
			Set("id", 42)
		api.ServeHAL(w, r, http.StatusOK, doc)
	}))
}

func TestServeHAL(t *testing.T) {
	cfg := newTestConfig()
	cfg.LinkHeaders = true
	cfg.Curies = []hal.Curie{{Name: "ex", Href: "https://example.com/rels/{rel}"}}
	api, err := NewAPI(cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	employeeHandler(api).ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/employees/42", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, hal.MediaType, w.Header().Get("Content-Type"))
	assert.Equal(t, `{"_links":{`+
		`"self":{"href":"http://example.com/employees/42"},`+
		`"ex:employees":{"href":"http://example.com/employees{?first,after}","templated":true},`+
		`"curies":[{"href":"https://example.com/rels/{rel}","templated":true,"name":"ex"}]`+
		`},"id":42}`, w.Body.String())

	assert.Equal(t, `<http://example.com/employees/42>; rel="self"`, w.Header().Get("Link"))
	assert.Equal(t, `<http://example.com/employees{?first,after}>; rel="employees"`, w.Header().Get("Link-Template"))

	links, err := ParseLinks(w.Header())
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, link.New("http://example.com/employees/42", link.Self), links[0])
	assert.True(t, links[1].Templated())
}

func TestBaseURIs(t *testing.T) {
	for name, tc := range map[string]*struct {
		Config   Config
		Headers  map[string]string
		Expected string
	}{
		"Request": {
			Expected: "http://internal:8080/employees/42",
		},
		"Forwarded": {
			Config: Config{TrustForwardedHeaders: true},
			Headers: map[string]string{
				"X-Forwarded-Proto": "https",
				"X-Forwarded-Host":  "api.example.com",
			},
			Expected: "https://api.example.com/employees/42",
		},
		"UntrustedForwarded": {
			Headers: map[string]string{
				"X-Forwarded-Host": "api.example.com",
			},
			Expected: "http://internal:8080/employees/42",
		},
		"Fixed": {
			Config:   Config{BaseURI: "https://example.com/v1"},
			Expected: "https://example.com/v1/employees/42",
		},
		"Relative": {
			Config:   Config{RelativeLinks: true},
			Expected: "/employees/42",
		},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := &tc.Config
			cfg.MapType("EmployeeController", "/employees")
			cfg.MapMethod(findEmployee, "GET", "/{id}")
			api, err := NewAPI(cfg)
			require.NoError(t, err)

			r := httptest.NewRequest("GET", "http://internal:8080/employees/42", nil)
			for k, v := range tc.Headers {
				r.Header.Set(k, v)
			}
			l, err := api.NewRecorder(r).Record("EmployeeController", func(p *linkbuilder.Proxy) *linkbuilder.Invocation {
				return p.Call(findEmployee, 42)
			})
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, l.String())
		})
	}
}

func TestServeHALError(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	cfg := newTestConfig()
	cfg.Logger = logger
	api, err := NewAPI(cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	api.ServeHAL(w, httptest.NewRequest("GET", "/employees", nil), http.StatusOK, hal.NewDocument().AddLinks(link.Link{Href: "/employees"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, problem.MediaType, w.Header().Get("Content-Type"))
	assert.Equal(t, `{"type":"about:blank","title":"Internal Server Error","status":500,"instance":"/employees"}`, w.Body.String())

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "/employees", entries[0].Data["path"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
}

type failingResponseWriter struct {
	*httptest.ResponseRecorder
}

func (w failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestServeHALWriteError(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	cfg := newTestConfig()
	cfg.Logger = logger
	api, err := NewAPI(cfg)
	require.NoError(t, err)

	w := failingResponseWriter{httptest.NewRecorder()}
	api.ServeHAL(w, httptest.NewRequest("GET", "/employees/42", nil), http.StatusOK, hal.NewDocument().Set("id", 42))
	assert.Equal(t, http.StatusOK, w.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "/employees/42", entry.Data["path"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "connection reset")
}

func TestServeProblem(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	cfg := newTestConfig()
	cfg.Logger = logger
	api, err := NewAPI(cfg)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/employees?first=-1", nil)
	_, err = ParsePageRequest[employeeCursor](r.URL.Query(), 20, 100)
	require.Error(t, err)

	w := httptest.NewRecorder()
	api.ServeProblem(w, r, problem.ForStatus(http.StatusBadRequest).WithDetail(err.Error()).With("parameter", FirstParameter))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `{"type":"about:blank","title":"Bad Request","status":400,`+
		`"detail":"first must be a non-negative integer","instance":"/employees","parameter":"first"}`, w.Body.String())
	assert.Empty(t, hook.AllEntries())
}

func TestMiddleware(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	cfg := newTestConfig()
	cfg.Logger = logger
	api, err := NewAPI(cfg)
	require.NoError(t, err)

	var recorders []*linkbuilder.Recorder
	handler := api.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := RecorderFromContext(r.Context())
		require.NotNil(t, recorder)
		recorders = append(recorders, recorder)
		_, err := recorder.MethodOn("EmployeeController")
		require.NoError(t, err)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/employees", nil))
	}
	require.Len(t, recorders, 2)
	assert.NotSame(t, recorders[0], recorders[1])
	assert.False(t, recorders[0].Active())
	assert.False(t, recorders[1].Active())

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLinkToWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest("GET", "/employees", nil)
	assert.Nil(t, RecorderFromContext(r.Context()))
	_, err := LinkTo(r.Context(), "EmployeeController", func(p *linkbuilder.Proxy) *linkbuilder.Invocation {
		return p.Call(findEmployee, 42)
	})
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	t.Run("DuplicateMapping", func(t *testing.T) {
		cfg := newTestConfig()
		assert.Panics(t, func() {
			cfg.MapType("EmployeeController", "/staff")
		})
		assert.Panics(t, func() {
			cfg.MapMethod(findEmployee, "GET", "/{id}")
		})
	})

	t.Run("MalformedPattern", func(t *testing.T) {
		cfg := &Config{}
		assert.Panics(t, func() {
			cfg.MapType("EmployeeController", "/employees/{")
		})
	})

	t.Run("InvalidCurie", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Curies = []hal.Curie{{Name: "ex", Href: "https://example.com/rels"}}
		_, err := NewAPI(cfg)
		assert.Error(t, err)
	})

	t.Run("LoadRoutes", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, cfg.LoadRoutes(strings.NewReader(`
types:
  - name: EmployeeController
    prefix: /employees
    methods:
      - {name: Find, path: "/{id}", parameters: [{name: id, type: int}]}
`)))
		api, err := NewAPI(cfg)
		require.NoError(t, err)
		l, err := api.NewRecorder(nil).Record("EmployeeController", func(p *linkbuilder.Proxy) *linkbuilder.Invocation {
			return p.Call(findEmployee, 7)
		})
		require.NoError(t, err)
		assert.Equal(t, "/employees/7", l.String())
	})
}
