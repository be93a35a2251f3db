package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

const brewerySDL = `
type Query {
  brewery(identifier: ID!): Brewery
  breweries: [Brewery!]!
  node(id: ID!): Node
  search(term: String!): [SearchResult!]!
}

interface Node {
  id: ID!
}

type Brewery implements Node {
  id: ID!
  identifier: ID!
  name: String!
  internalCode: String
  founder: Person
  owners: [Person!]!
  sister: Brewery
}

type Person implements Node {
  id: ID!
  name: String!
  emails: [String!]!
  address: Address
}

type Address {
  city: String
  country: String!
}

union SearchResult = Brewery | Person
`

func mustBrewerySchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(brewerySDL)
	require.NoError(t, err)
	return s
}

func mustCompile(t *testing.T, tr Transform, s *schema.Schema) Compiled {
	t.Helper()
	c, err := tr.TransformSchema(s)
	require.NoError(t, err)
	return c
}

// mustRequest parses an anonymous query into a request.
func mustRequest(t *testing.T, query string) Request {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 1)
	op := doc.Operations[0]
	return NewRequest("breweries", op.SelectionSet).WithVariables(op.VariableDefinitions, nil)
}

// recorder is a Next that stores the request it received and answers with
// data.
type recorder struct {
	data     map[string]any
	err      error
	requests []Request
}

func (r *recorder) next(ctx context.Context, req Request) (Result, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{Data: r.data, Context: req.Context}, nil
}

func (r *recorder) sent(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.requests)
	return language.PrintCompact(r.requests[len(r.requests)-1].Operation(""))
}
