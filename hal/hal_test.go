package hal

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ccbrown/hyperfu/link"
)

func TestGroupByRelation(t *testing.T) {
	links := []link.Link{
		link.New("/employees/42", link.Self).WithRel(link.Item),
		link.New("/employees/1", link.Item),
		link.New("/employees", link.Collection),
		link.New("/employees/2", link.Item),
	}
	groups, err := GroupByRelation(links)
	require.NoError(t, err)
	assert.Equal(t, []string{"self", "item", "collection"}, groups.Rels())

	var hrefs []string
	for _, l := range groups.Get(link.Item) {
		hrefs = append(hrefs, l.Href)
	}
	assert.Equal(t, []string{"/employees/42", "/employees/1", "/employees/2"}, hrefs)
	assert.Nil(t, groups.Get("next"))

	flattened := groups.Flatten()
	assert.Len(t, flattened, 5)
	regrouped, err := GroupByRelation(flattened)
	require.NoError(t, err)
	assert.Equal(t, groups.Rels(), regrouped.Rels())
	assert.Equal(t, flattened, regrouped.Flatten())

	_, err = GroupByRelation([]link.Link{{Href: "/employees"}})
	assert.True(t, errors.Is(err, ErrMissingRelation))

	_, err = GroupByRelation([]link.Link{{Href: "/employees", Rels: []string{""}}})
	assert.True(t, errors.Is(err, ErrMissingRelation))
}

func TestRenderGroup(t *testing.T) {
	one := []link.Link{link.New("/employees/1", link.Item)}
	two := []link.Link{link.New("/employees/1", link.Item), link.New("/employees/2", link.Item)}

	for name, tc := range map[string]struct {
		Links      []link.Link
		ForceArray bool
		Expected   string
	}{
		"Single": {
			Links:    one,
			Expected: `{"href":"/employees/1"}`,
		},
		"SingleForced": {
			Links:      one,
			ForceArray: true,
			Expected:   `[{"href":"/employees/1"}]`,
		},
		"Multiple": {
			Links:    two,
			Expected: `[{"href":"/employees/1"},{"href":"/employees/2"}]`,
		},
		"MultipleForced": {
			Links:      two,
			ForceArray: true,
			Expected:   `[{"href":"/employees/1"},{"href":"/employees/2"}]`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			b, err := RenderGroup(tc.Links, tc.ForceArray)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, string(b))
		})
	}
}

func TestWriteLink(t *testing.T) {
	for name, tc := range map[string]struct {
		Link     link.Link
		Expected string
	}{
		"HrefOnly": {
			Link:     link.New("/employees/42", link.Self),
			Expected: `{"href":"/employees/42"}`,
		},
		"Templated": {
			Link:     link.New("/employees{?page,size}", link.Self),
			Expected: `{"href":"/employees{?page,size}","templated":true}`,
		},
		"AllAttributes": {
			Link: link.New("/employees/42", link.Self).
				WithType("application/hal+json").
				WithDeprecation("https://example.com/deprecated").
				WithName("bob").
				WithProfile("https://example.com/profiles/employee").
				WithTitle("Bob").
				WithHreflang("en").
				WithMedia("screen"),
			Expected: `{"href":"/employees/42","type":"application/hal+json","deprecation":"https://example.com/deprecated","name":"bob","profile":"https://example.com/profiles/employee","title":"Bob","hreflang":"en","media":"screen"}`,
		},
		"MultipleHreflangs": {
			Link:     link.New("/employees/42", link.Self).WithHreflang("en").WithHreflang("de"),
			Expected: `{"href":"/employees/42","hreflang":["en","de"]}`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			b, err := render(func(stream *jsoniter.Stream) error {
				WriteLink(stream, tc.Link)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, string(b))
		})
	}
}

func TestMarshalLinks(t *testing.T) {
	for name, tc := range map[string]struct {
		Configuration Configuration
		Links         []link.Link
		Expected      string
	}{
		"Self": {
			Links:    []link.Link{link.New("/employees/42", link.Self)},
			Expected: `{"self":{"href":"/employees/42"}}`,
		},
		"Items": {
			Links: []link.Link{
				link.New("/employees/1", link.Item),
				link.New("/employees/2", link.Item),
			},
			Expected: `{"item":[{"href":"/employees/1"},{"href":"/employees/2"}]}`,
		},
		"AlwaysArrayForRelation": {
			Configuration: Configuration{}.WithRenderSingleLinksFor(link.Item, AsArray),
			Links: []link.Link{
				link.New("/employees", link.Self),
				link.New("/employees/1", link.Item),
			},
			Expected: `{"self":{"href":"/employees"},"item":[{"href":"/employees/1"}]}`,
		},
		"AlwaysArray": {
			Configuration: Configuration{}.WithRenderSingleLinks(AsArray),
			Links:         []link.Link{link.New("/employees/42", link.Self)},
			Expected:      `{"self":[{"href":"/employees/42"}]}`,
		},
		"MultipleRels": {
			Links: []link.Link{
				link.New("/employees/42", link.Self).WithRel(link.Item),
				link.New("/employees", link.Collection),
			},
			Expected: `{"self":{"href":"/employees/42"},"item":{"href":"/employees/42"},"collection":{"href":"/employees"}}`,
		},
		"OrderFollowsFirstOccurrence": {
			Links: []link.Link{
				link.New("/b", "b"),
				link.New("/a", "a"),
				link.New("/b2", "b"),
			},
			Expected: `{"b":[{"href":"/b"},{"href":"/b2"}],"a":{"href":"/a"}}`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			s := &Serializer{Configuration: tc.Configuration}
			b, err := s.MarshalLinks(tc.Links)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, string(b))

			again, err := s.MarshalLinks(tc.Links)
			require.NoError(t, err)
			assert.Equal(t, b, again)
		})
	}

	_, err := (&Serializer{}).MarshalLinks([]link.Link{{Href: "/x"}})
	assert.True(t, errors.Is(err, ErrMissingRelation))
}

func TestConfiguration(t *testing.T) {
	c := Configuration{}
	assert.Equal(t, AsSingle, c.RenderSingleLinks())
	assert.True(t, c.EnforceEmbeddedCollections())

	c = c.WithRenderSingleLinksFor("ex:*", AsArray).
		WithRenderSingleLinksFor("ex:orders", AsSingle).
		WithRenderSingleLinksFor("*", AsArray)

	for rel, expected := range map[string]RenderSingleLinks{
		"ex:orders":   AsSingle,
		"ex:invoices": AsArray,
		"self":        AsArray,
		"a/b":         AsSingle,
	} {
		assert.Equal(t, expected, c.RenderSingleLinksFor(rel), rel)
	}

	replaced := c.WithRenderSingleLinksFor("ex:*", AsSingle)
	assert.Equal(t, AsSingle, replaced.RenderSingleLinksFor("ex:invoices"))
	assert.Equal(t, AsArray, c.RenderSingleLinksFor("ex:invoices"))

	assert.False(t, c.WithEnforceEmbeddedCollections(false).EnforceEmbeddedCollections())

	uris := Configuration{}.
		WithRenderSingleLinksFor("https://example.com/rels/**", AsArray).
		WithRenderSingleLinksFor("urn:**:item", AsArray)
	for rel, expected := range map[string]RenderSingleLinks{
		"https://example.com/rels/orders":         AsArray,
		"https://example.com/rels/orders/pending": AsArray,
		"https://example.com/other/orders":        AsSingle,
		"urn:a/b:item":                            AsArray,
		"urn:a/b:items":                           AsSingle,
	} {
		assert.Equal(t, expected, uris.RenderSingleLinksFor(rel), rel)
	}
	assert.Equal(t, AsSingle, c.RenderSingleLinksFor("https://example.com/rels/orders"))
	assert.Error(t, ValidateRelationPattern("ex/**/[a"))
	assert.NoError(t, ValidateRelationPattern("ex/**/[a]"))

	assert.Panics(t, func() {
		c.WithRenderSingleLinksFor("[", AsArray)
	})
}

func TestCuries(t *testing.T) {
	_, err := NewCurieProvider("ex", Curie{Name: "ex", Href: "https://example.com/rels"})
	assert.Error(t, err)
	_, err = NewCurieProvider("ex", Curie{Href: "https://example.com/rels/{rel}"})
	assert.Error(t, err)

	curies, err := NewCurieProvider("", Curie{Name: "ex", Href: "https://example.com/rels/{rel}"})
	require.NoError(t, err)
	assert.Equal(t, "ex:orders", curies.NamespacedRel("orders"))
	assert.Equal(t, "self", curies.NamespacedRel("self"))
	assert.Equal(t, "other:orders", curies.NamespacedRel("other:orders"))
	assert.Equal(t, "https://example.com/rels/orders", curies.NamespacedRel("https://example.com/rels/orders"))

	s := &Serializer{Curies: curies}

	b, err := s.MarshalLinks([]link.Link{
		link.New("/employees/42", link.Self),
		link.New("/employees/42/orders", "orders"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"self":{"href":"/employees/42"},"ex:orders":{"href":"/employees/42/orders"},"curies":[{"href":"https://example.com/rels/{rel}","templated":true,"name":"ex"}]}`, string(b))

	b, err = s.MarshalLinks([]link.Link{link.New("/employees/42", link.Self)})
	require.NoError(t, err)
	assert.Equal(t, `{"self":{"href":"/employees/42"}}`, string(b))
}

func TestUnmarshalLinks(t *testing.T) {
	links := []link.Link{
		link.New("/employees/42", link.Self).WithTitle("Bob").WithHreflang("en").WithHreflang("de"),
		link.New("/employees/1", link.Item),
		link.New("/employees/2", link.Item).WithName("two"),
		link.New("/employees{?page}", "search").WithType("application/hal+json"),
	}
	b, err := (&Serializer{}).MarshalLinks(links)
	require.NoError(t, err)

	decoded, err := UnmarshalLinks(b)
	require.NoError(t, err)
	assert.Equal(t, links, decoded)

	decoded, err = UnmarshalLinks([]byte(`{"self":{"href":"/a","hreflang":"en","unknown":{"x":[1,2]}}}`))
	require.NoError(t, err)
	assert.Equal(t, []link.Link{link.New("/a", link.Self).WithHreflang("en")}, decoded)

	for name, in := range map[string]string{
		"NotAnObject":  `[]`,
		"BadGroup":     `{"self":"/a"}`,
		"MissingHref":  `{"self":{"title":"x"}}`,
		"EmptyRel":     `{"":{"href":"/a"}}`,
		"Malformed":    `{"self":{"href":`,
		"BadArrayItem": `{"item":[{"href":"/a"},"b"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalLinks([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestDocument(t *testing.T) {
	curies, err := NewCurieProvider("ex", Curie{Name: "ex", Href: "https://example.com/rels/{rel}"})
	require.NoError(t, err)

	order := func(id int) *Document {
		return NewDocument().
			Set("id", id).
			AddLinks(link.New("/orders/"+strconv.Itoa(id), link.Self), link.New("/customers/7", "customer"))
	}
	doc := NewDocument().
		AddLinks(link.New("/orders", link.Self)).
		Set("total", 2).
		Set("currency", "EUR").
		Set("total", 3).
		Embed("orders", order(1), order(2)).
		Embed("featured", order(3))

	t.Run("Default", func(t *testing.T) {
		b, err := (&Serializer{}).MarshalDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, `{"_links":{"self":{"href":"/orders"}},"total":3,"currency":"EUR","_embedded":{`+
			`"orders":[{"_links":{"self":{"href":"/orders/1"},"customer":{"href":"/customers/7"}},"id":1},`+
			`{"_links":{"self":{"href":"/orders/2"},"customer":{"href":"/customers/7"}},"id":2}],`+
			`"featured":[{"_links":{"self":{"href":"/orders/3"},"customer":{"href":"/customers/7"}},"id":3}]}}`, string(b))

		viaMarshaler, err := doc.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, b, viaMarshaler)
	})

	t.Run("SingleEmbeddeds", func(t *testing.T) {
		s := &Serializer{Configuration: Configuration{}.WithEnforceEmbeddedCollections(false)}
		b, err := s.MarshalDocument(doc)
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(b, "_embedded.orders").IsArray())
		assert.True(t, gjson.GetBytes(b, "_embedded.featured").IsObject())
		assert.Equal(t, int64(3), gjson.GetBytes(b, "_embedded.featured.id").Int())
	})

	t.Run("Curies", func(t *testing.T) {
		b, err := (&Serializer{Curies: curies}).MarshalDocument(doc)
		require.NoError(t, err)
		assert.False(t, gjson.GetBytes(b, "_links.curies").Exists(), "no relation of the outer document is curied")
		assert.Equal(t, "/customers/7", gjson.GetBytes(b, `_embedded.ex:orders.0._links.ex:customer.href`).String())
		assert.False(t, gjson.GetBytes(b, `_embedded.ex:orders.0._links.curies`).Exists())

		b, err = (&Serializer{Curies: curies}).MarshalDocument(order(4))
		require.NoError(t, err)
		assert.Equal(t, "ex", gjson.GetBytes(b, "_links.curies.0.name").String())
	})

	t.Run("Nested", func(t *testing.T) {
		b, err := jsoniter.Marshal(map[string]interface{}{
			"doc": order(5),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), gjson.GetBytes(b, "doc.id").Int())
	})

	t.Run("Accessors", func(t *testing.T) {
		assert.Len(t, doc.Properties(), 2)
		assert.Len(t, doc.Links(), 1)
		assert.Len(t, doc.Embedded("orders"), 2)
		assert.Nil(t, doc.Embedded("customers"))
		assert.Panics(t, func() {
			NewDocument().Set("_links", nil)
		})
	})
}

func TestWrite(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Write(w, http.StatusCreated, NewDocument().Set("id", 42).AddLinks(link.New("/employees/42", link.Self))))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, MediaType, w.Header().Get("Content-Type"))
	assert.Equal(t, `{"_links":{"self":{"href":"/employees/42"}},"id":42}`, w.Body.String())

	w = httptest.NewRecorder()
	assert.Error(t, Write(w, http.StatusOK, NewDocument().AddLinks(link.Link{Href: "/x"})))
}
