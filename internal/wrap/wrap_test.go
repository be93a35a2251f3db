package wrap

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/graphstitch/internal/executor"
	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
	transform "github.com/hanpama/graphstitch/internal/transform"
)

const brewerySDL = `
type Query {
  brewery(identifier: ID!): Brewery
  breweries: [Brewery!]!
  node(id: ID!): Node
}

interface Node { id: ID! }

type Brewery implements Node {
  id: ID!
  identifier: ID!
  name: String!
}

enum Country { DE BE }
`

const beerSDL = `
type Query {
  beersByBrewery(breweryIds: [ID!]!): [[Beer!]!]!
  beer(name: String!): Beer
}

type Beer {
  name: String!
}

enum Country { DE BE }
`

var (
	breweryA = map[string]any{"__typename": "Brewery", "id": "1", "identifier": "a", "name": "Alpha"}
	breweryB = map[string]any{"__typename": "Brewery", "id": "2", "identifier": "b", "name": "Beta"}
)

func mustSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	return s
}

func breweriesSubschema(t *testing.T, resolvers map[string]executor.MockResolver) (subschema.Subschema, *subschema.DataRuntime) {
	t.Helper()
	if resolvers == nil {
		resolvers = map[string]executor.MockResolver{
			"Query.breweries": executor.NewMockValueResolver([]any{breweryA, breweryB}),
			"Query.node":      executor.NewMockValueResolver(breweryA),
			"Query.brewery": func(ctx context.Context, source any, args map[string]any) (any, error) {
				switch args["identifier"] {
				case "a":
					return breweryA, nil
				case "b":
					return breweryB, nil
				}
				return nil, nil
			},
		}
	}
	rt := subschema.NewDataRuntime(resolvers)
	return subschema.Subschema{
		Name:      "breweries",
		Schema:    mustSchema(t, brewerySDL),
		Runtime:   rt,
		Transform: transform.RenameTypesMap(map[string]string{"Brewery": "Company"}),
	}, rt
}

func beersSubschema(t *testing.T) (subschema.Subschema, *subschema.DataRuntime) {
	t.Helper()
	beers := map[string][]any{
		"a": {map[string]any{"name": "Alpha Pils"}, map[string]any{"name": "Alpha Dunkel"}},
	}
	rt := subschema.NewDataRuntime(map[string]executor.MockResolver{
		"Query.beersByBrewery": func(ctx context.Context, source any, args map[string]any) (any, error) {
			ids := args["breweryIds"].([]any)
			out := make([]any, len(ids))
			for i, id := range ids {
				list := beers[id.(string)]
				if list == nil {
					list = []any{}
				}
				out[i] = list
			}
			return out, nil
		},
	})
	return subschema.Subschema{Name: "beers", Schema: mustSchema(t, beerSDL), Runtime: rt}, rt
}

var beersLink = Link{
	Type:      "Company",
	Field:     "beers",
	Subschema: "beers",
	RootField: "beersByBrewery",
	KeyField:  "identifier",
	Argument:  "breweryIds",
	List:      true,
}

func execute(t *testing.T, gw *Gateway, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	rt, s := gw.Executable()
	return executor.NewExecutor(rt, s).ExecuteRequest(context.Background(), doc, "", vars, nil)
}

func TestWrap_Schema(t *testing.T) {
	breweries, _ := breweriesSubschema(t, nil)
	beers, _ := beersSubschema(t)
	gw, err := Wrap([]subschema.Subschema{breweries, beers}, []Link{beersLink})
	require.NoError(t, err)

	query := gw.Schema.GetQueryType()
	require.NotNil(t, query)
	for _, name := range []string{"brewery", "breweries", "node", "beersByBrewery", "beer"} {
		f := query.GetField(name)
		require.NotNil(t, f, name)
		assert.True(t, f.Async, name)
	}
	require.Nil(t, gw.Schema.Types["Brewery"])
	company := gw.Schema.Types["Company"]
	require.NotNil(t, company)
	link := company.GetField("beers")
	require.NotNil(t, link)
	assert.True(t, link.Async)
	assert.Equal(t, schema.ListType(schema.NonNullType(schema.NamedType("Beer"))), link.Type)
	assert.False(t, company.GetField("name").Async)
	require.NotNil(t, gw.Schema.Types["Country"], "identical types are shared")

	assert.NotNil(t, gw.Subschema("beers"))
	assert.Nil(t, gw.Subschema("wines"))
}

func TestWrap_RootDelegation(t *testing.T) {
	breweries, _ := breweriesSubschema(t, nil)
	gw, err := Wrap([]subschema.Subschema{breweries}, nil)
	require.NoError(t, err)

	res := execute(t, gw, `query ($id: ID!) { company: brewery(identifier: $id) { identifier title: name } }`, map[string]any{"id": "b"})
	require.Empty(t, res.Errors)
	want := map[string]any{
		"company": map[string]any{"identifier": "b", "title": "Beta"},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestWrap_AbstractTypes(t *testing.T) {
	breweries, _ := breweriesSubschema(t, nil)
	gw, err := Wrap([]subschema.Subschema{breweries}, nil)
	require.NoError(t, err)

	res := execute(t, gw, `{ node(id: "1") { id __typename ... on Company { name } } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"node": map[string]any{"id": "1", "__typename": "Company", "name": "Alpha"},
	}, res.Data)
}

func TestWrap_LinkBatchesOneQueryPerDepth(t *testing.T) {
	breweries, _ := breweriesSubschema(t, nil)
	beers, beerRuntime := beersSubschema(t)
	gw, err := Wrap([]subschema.Subschema{breweries, beers}, []Link{beersLink})
	require.NoError(t, err)

	res := execute(t, gw, `{ breweries { name beers { name } } }`, nil)
	require.Empty(t, res.Errors)
	want := map[string]any{
		"breweries": []any{
			map[string]any{"name": "Alpha", "beers": []any{
				map[string]any{"name": "Alpha Pils"},
				map[string]any{"name": "Alpha Dunkel"},
			}},
			map[string]any{"name": "Beta", "beers": []any{}},
		},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	calls := beerRuntime.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "beersByBrewery", calls[0].Field)
	assert.Equal(t, []any{"a", "b"}, calls[0].Args["breweryIds"])
}

func TestWrap_LinkWithoutKeyResolvesNull(t *testing.T) {
	breweries, _ := breweriesSubschema(t, map[string]executor.MockResolver{
		"Query.breweries": executor.NewMockValueResolver([]any{
			map[string]any{"id": "9", "identifier": nil, "name": "Ghost"},
		}),
	})
	breweries.Schema = mustSchema(t, `
		type Query { breweries: [Brewery!]! }
		type Brewery { id: ID! identifier: ID name: String! }
	`)
	beers, beerRuntime := beersSubschema(t)
	gw, err := Wrap([]subschema.Subschema{breweries, beers}, []Link{beersLink})
	require.NoError(t, err)

	res := execute(t, gw, `{ breweries { name beers { name } } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"breweries": []any{map[string]any{"name": "Ghost", "beers": nil}},
	}, res.Data)
	assert.Empty(t, beerRuntime.Calls())
}

func TestWrap_UpstreamErrorsAreLocated(t *testing.T) {
	breweries, _ := breweriesSubschema(t, map[string]executor.MockResolver{
		"Query.brewery": executor.NewMockErrorResolver(errors.New("brewery store unavailable")),
	})
	gw, err := Wrap([]subschema.Subschema{breweries}, nil)
	require.NoError(t, err)

	res := execute(t, gw, `{ brewery(identifier: "a") { name } }`, nil)
	assert.Equal(t, map[string]any{"brewery": nil}, res.Data)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "brewery store unavailable", res.Errors[0].Message)
	assert.Equal(t, executor.Path{"brewery"}, res.Errors[0].Path)
	assert.Equal(t, "breweries", res.Errors[0].Extensions["subschema"])
	assert.Equal(t, executor.Path{"brewery"}, res.Errors[0].Extensions["upstreamPath"])
}

func TestWrap_Introspection(t *testing.T) {
	breweries, _ := breweriesSubschema(t, nil)
	gw, err := Wrap([]subschema.Subschema{breweries}, nil)
	require.NoError(t, err)

	res := execute(t, gw, `{ __type(name: "Company") { name } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"__type": map[string]any{"name": "Company"}}, res.Data)
}

func TestWrap_MergeErrors(t *testing.T) {
	_, err := Wrap(nil, nil)
	require.ErrorIs(t, err, ErrNoSubschemas)

	breweries, _ := breweriesSubschema(t, nil)
	dup := breweries
	_, err = Wrap([]subschema.Subschema{breweries, dup}, nil)
	require.ErrorContains(t, err, `duplicate subschema name "breweries"`)

	dup.Name = "breweries2"
	_, err = Wrap([]subschema.Subschema{breweries, dup}, nil)
	require.ErrorContains(t, err, "root field")

	conflicting := subschema.Subschema{
		Name:    "other",
		Schema:  mustSchema(t, `type Query { other: Company } type Company { code: Int }`),
		Runtime: subschema.NewDataRuntime(nil),
	}
	_, err = Wrap([]subschema.Subschema{breweries, conflicting}, nil)
	require.ErrorContains(t, err, `type "Company" of other conflicts with the definition of breweries`)
}

func TestWrap_LinkErrors(t *testing.T) {
	cases := []struct {
		name   string
		modify func(l *Link)
		want   string
	}{
		{"unknown type", func(l *Link) { l.Type = "Winery" }, `object type "Winery" not found`},
		{"existing field", func(l *Link) { l.Field = "name" }, `field "name" already exists`},
		{"unknown key field", func(l *Link) { l.KeyField = "code" }, `key field "code" not found`},
		{"unknown subschema", func(l *Link) { l.Subschema = "wines" }, `unknown subschema "wines"`},
		{"unknown root field", func(l *Link) { l.RootField = "wines" }, `root field "wines" not found in beers`},
		{"unknown argument", func(l *Link) { l.Argument = "ids" }, `has no argument "ids"`},
		{"non-list root field", func(l *Link) { l.RootField = "beer"; l.Argument = "name" }, `must return a list`},
		{"list mismatch", func(l *Link) { l.List = false }, `returns a list of lists`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			breweries, _ := breweriesSubschema(t, nil)
			beers, _ := beersSubschema(t)
			l := beersLink
			tc.modify(&l)
			_, err := Wrap([]subschema.Subschema{breweries, beers}, []Link{l})
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLinkFields_StripsLinkAndSelectsKey(t *testing.T) {
	s := mustSchema(t, brewerySDL)
	c, err := (&linkFields{links: []Link{{Type: "Brewery", Field: "beers", KeyField: "identifier"}}}).TransformSchema(s)
	require.NoError(t, err)

	doc, err := language.ParseQuery(`{ breweries { name beers { name } } node(id: "1") { ... on Brewery { beers { name } } } }`)
	require.NoError(t, err)
	var sent string
	_, err = c.TransformRequest(context.Background(), transform.NewRequest("breweries", doc.Operations[0].SelectionSet),
		func(ctx context.Context, req transform.Request) (transform.Result, error) {
			sent = language.PrintCompact(req.Operation(""))
			return transform.Result{Context: req.Context}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, `{breweries {name identifier} node(id:"1") {... on Brewery {identifier}}}`, sent)
}

func TestWrap_HoistedFieldThroughNullAncestor(t *testing.T) {
	const sdl = `
type Query { breweries: [Brewery!]! }
type Brewery { id: ID! founder: Person owners: [Person!]! }
type Person { name: String! }
`
	ann := map[string]any{"__typename": "Person", "name": "Ann"}
	bob := map[string]any{"__typename": "Person", "name": "Bob"}
	rt := subschema.NewDataRuntime(map[string]executor.MockResolver{
		"Query.breweries": executor.NewMockValueResolver([]any{
			map[string]any{"__typename": "Brewery", "id": "1", "founder": ann, "owners": []any{ann, bob}},
			map[string]any{"__typename": "Brewery", "id": "2", "founder": nil, "owners": []any{}},
		}),
	})
	founderName, err := transform.HoistField("Brewery", "founderName", []string{"founder", "name"})
	require.NoError(t, err)
	ownerNames, err := transform.HoistField("Brewery", "ownerNames", []string{"owners", "name"})
	require.NoError(t, err)

	gw, err := Wrap([]subschema.Subschema{{
		Name:      "breweries",
		Schema:    mustSchema(t, sdl),
		Runtime:   rt,
		Transform: transform.Chain(founderName, ownerNames),
	}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "String", gw.Schema.Types["Brewery"].GetField("founderName").Type.String())

	res := execute(t, gw, `{ breweries { id ownerNames founderName } }`, nil)
	require.Empty(t, res.Errors)
	want := map[string]any{
		"breweries": []any{
			map[string]any{"id": "1", "ownerNames": []any{"Ann", "Bob"}, "founderName": "Ann"},
			map[string]any{"id": "2", "ownerNames": []any{}, "founderName": nil},
		},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}
