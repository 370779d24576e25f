package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/tidwall/pretty"

	"github.com/ccbrown/hyperfu/hal"
	"github.com/ccbrown/hyperfu/link"
	"github.com/ccbrown/hyperfu/linkbuilder"
)

var json = jsoniter.Config{
	UseNumber:             true,
	DisallowUnknownFields: true,
}.Froze()

type invocationStep struct {
	Type   string        `json:"type"`
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
}

// An invocation is either a single step or a chain of steps, root first.
type invocation struct {
	invocationStep
	Chain []invocationStep `json:"chain"`
	Rel   string           `json:"rel"`
	Title string           `json:"title"`
	Name  string           `json:"name"`
}

func (inv invocation) steps() []invocationStep {
	if len(inv.Chain) > 0 {
		return inv.Chain
	}
	return []invocationStep{inv.invocationStep}
}

// LoadInvocations reads a JSON array of invocations.
func LoadInvocations(path string) ([]invocation, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ret []invocation
	if err := json.Unmarshal(b, &ret); err != nil {
		return nil, errors.Wrapf(err, "unable to decode %v", path)
	}
	return ret, nil
}

// LoadRoutes reads a YAML route table.
func LoadRoutes(path string) (*linkbuilder.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return linkbuilder.LoadRegistry(f)
}

// Resolve records the invocation and builds its link. If no relation is given, "self" is used.
func Resolve(recorder *linkbuilder.Recorder, inv invocation) (link.Link, error) {
	steps := inv.steps()
	proxy, err := recorder.MethodOn(steps[0].Type)
	if err != nil {
		return link.Link{}, err
	}
	defer recorder.Reset()

	var last *linkbuilder.Invocation
	for i, step := range steps {
		if i > 0 {
			proxy = last.On(step.Type)
		}
		method, ok := recorder.Registry().Method(step.Type, step.Method)
		if !ok {
			return link.Link{}, &linkbuilder.MappingNotFoundError{
				Type:   step.Type,
				Method: step.Method,
			}
		}
		last = proxy.Call(method, step.Args...)
	}

	builder, err := recorder.LinkTo(last)
	if err != nil {
		return link.Link{}, err
	}
	if inv.Title != "" {
		builder = builder.WithTitle(inv.Title)
	}
	if inv.Name != "" {
		builder = builder.WithName(inv.Name)
	}
	rel := inv.Rel
	if rel == "" {
		rel = link.Self
	}
	return builder.Rel(rel).Build()
}

func parseCuries(defs []string) ([]hal.Curie, error) {
	var ret []hal.Curie
	for _, def := range defs {
		parts := strings.SplitN(def, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid curie %q, expected name=href", def)
		}
		ret = append(ret, hal.Curie{Name: parts[0], Href: parts[1]})
	}
	return ret, nil
}

// Run resolves the invocations of a file against a route table and writes the resulting "_links"
// object.
func Run(w io.Writer, args ...string) []error {
	flags := pflag.NewFlagSet("hal-links", pflag.ContinueOnError)
	flags.SetOutput(ioutil.Discard)
	routesPath := flags.String("routes", "", "the path to the yaml route table")
	invocationsPath := flags.StringP("invocations", "i", "", "the path to the json invocations file")
	baseURI := flags.String("base-uri", "", "the base uri to prefix links with")
	arrayRels := flags.StringArray("array-rel", nil, "a relation or glob whose links are always rendered as an array")
	renderSingle := flags.String("render-single-links", "single", "how to render relations with one link: single or array")
	curieDefs := flags.StringArray("curie", nil, "a curie definition of the form name=href")
	defaultCurie := flags.String("default-curie", "", "the curie to namespace relations with")
	indent := flags.Bool("pretty", false, "indent the output")
	if err := flags.Parse(args); err != nil {
		return []error{err}
	}

	if *routesPath == "" {
		return []error{errors.New("the --routes flag is required")}
	}
	if *invocationsPath == "" {
		return []error{errors.New("the --invocations flag is required")}
	}

	mode, err := hal.ParseRenderSingleLinks(*renderSingle)
	if err != nil {
		return []error{err}
	}
	config := hal.Configuration{}.WithRenderSingleLinks(mode)
	for _, pattern := range *arrayRels {
		if err := hal.ValidateRelationPattern(pattern); err != nil {
			return []error{err}
		}
		config = config.WithRenderSingleLinksFor(pattern, hal.AsArray)
	}
	serializer := &hal.Serializer{
		Configuration: config,
	}
	if len(*curieDefs) > 0 {
		curies, err := parseCuries(*curieDefs)
		if err != nil {
			return []error{err}
		}
		if serializer.Curies, err = hal.NewCurieProvider(*defaultCurie, curies...); err != nil {
			return []error{err}
		}
	}

	registry, err := LoadRoutes(*routesPath)
	if err != nil {
		return []error{errors.Wrap(err, "error loading routes")}
	}
	invocations, err := LoadInvocations(*invocationsPath)
	if err != nil {
		return []error{errors.Wrap(err, "error loading invocations")}
	}

	recorder := linkbuilder.NewRecorder(registry, linkbuilder.RecorderConfig{
		BaseURI: strings.TrimSuffix(*baseURI, "/"),
	})
	var links []link.Link
	var errs []error
	for i, inv := range invocations {
		if len(inv.steps()) == 0 || inv.steps()[0].Type == "" {
			errs = append(errs, errors.Errorf("invocation %d: no type given", i))
			continue
		}
		l, err := Resolve(recorder, inv)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "invocation %d", i))
			continue
		}
		links = append(links, l)
	}
	if len(errs) > 0 {
		return errs
	}

	output, err := serializer.MarshalLinks(links)
	if err != nil {
		return []error{err}
	}
	if *indent {
		output = pretty.Pretty(output)
	} else {
		output = append(output, '\n')
	}
	if _, err := w.Write(output); err != nil {
		return []error{err}
	}
	return nil
}

func main() {
	if errs := Run(os.Stdout, os.Args[1:]...); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}
