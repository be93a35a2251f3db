package executor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

func TestCoerceVariableValues_InputObjectValidation(t *testing.T) {
	sch := schema.NewSchema("")

	input := schema.NewType("FilterInput", schema.TypeKindInputObject, "")
	input.AddInputField(schema.NewInputValue("required", "", schema.NonNullType(schema.NamedType("String"))))
	input.AddInputField(schema.NewInputValue("optional", "", schema.NamedType("Int")))
	sch.AddType(input)

	op := &language.OperationDefinition{
		Operation: language.Query,
		VariableDefinitions: ast.VariableDefinitionList{
			&ast.VariableDefinition{
				Variable: "input",
				Type:     &ast.Type{NamedType: "FilterInput", NonNull: true},
			},
		},
	}

	_, err := coerceVariableValues(sch, op, map[string]any{
		"input": map[string]any{
			"optional": 10,
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "required field 'required'")
}

func TestCoerceVariableValues_ScalarTypeMismatch(t *testing.T) {
	sch := schema.NewSchema("")

	op := &language.OperationDefinition{
		Operation: language.Query,
		VariableDefinitions: ast.VariableDefinitionList{
			&ast.VariableDefinition{
				Variable: "count",
				Type:     &ast.Type{NamedType: "Int", NonNull: true},
			},
		},
	}

	_, err := coerceVariableValues(sch, op, map[string]any{
		"count": "42",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot coerce")
}

func TestCoerceValue_Int(t *testing.T) {
	intType := schema.NonNullType(schema.NamedType("Int"))
	for _, v := range []any{42, int64(42), float64(42), json.Number("42")} {
		got, err := coerceValue(nil, v, intType)
		require.NoError(t, err, "%T", v)
		require.Equal(t, 42, got)
	}
	for _, v := range []any{"42", 1.5, json.Number("1.5"), float64(math.MaxInt32) + 1, true} {
		_, err := coerceValue(nil, v, intType)
		require.Error(t, err, "%v", v)
		require.Contains(t, err.Error(), "cannot coerce")
	}
}

func TestCoerceValue_OtherScalars(t *testing.T) {
	got, err := coerceValue(nil, 3, schema.NamedType("Float"))
	require.NoError(t, err)
	require.Equal(t, float64(3), got)

	got, err = coerceValue(nil, json.Number("9007199254740993"), schema.NamedType("ID"))
	require.NoError(t, err)
	require.Equal(t, "9007199254740993", got)

	got, err = coerceValue(nil, float64(7), schema.NamedType("ID"))
	require.NoError(t, err)
	require.Equal(t, "7", got)

	_, err = coerceValue(nil, 2.5, schema.NamedType("ID"))
	require.Error(t, err)
	_, err = coerceValue(nil, 10, schema.NamedType("String"))
	require.Error(t, err)
	_, err = coerceValue(nil, "true", schema.NamedType("Boolean"))
	require.Error(t, err)

	// custom scalars pass through untouched
	got, err = coerceValue(nil, json.Number("1e400"), schema.NamedType("BigDecimal"))
	require.NoError(t, err)
	require.Equal(t, json.Number("1e400"), got)
}

func TestCoerceValue_InputObjectsAndEnums(t *testing.T) {
	sch := schema.NewSchema("")
	country := schema.NewType("Country", schema.TypeKindEnum, "")
	country.AddEnumValue(schema.NewEnumValue("DE", ""))
	country.AddEnumValue(schema.NewEnumValue("BE", ""))
	sch.AddType(country)

	filter := schema.NewType("BreweryFilter", schema.TypeKindInputObject, "")
	filter.AddInputField(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType("String"))))
	filter.AddInputField(schema.NewInputValue("country", "", schema.NamedType("Country")).SetDefault("DE"))
	filter.AddInputField(schema.NewInputValue("first", "", schema.NamedType("Int")))
	sch.AddType(filter)

	by := schema.NewType("BreweryBy", schema.TypeKindInputObject, "").SetOneOf(true)
	by.AddInputField(schema.NewInputValue("id", "", schema.NamedType("ID")))
	by.AddInputField(schema.NewInputValue("name", "", schema.NamedType("String")))
	sch.AddType(by)

	got, err := coerceValue(sch, map[string]any{"name": "Alpha", "first": float64(2)}, schema.NamedType("BreweryFilter"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Alpha", "country": "DE", "first": 2}, got)

	cases := []struct {
		name  string
		value any
		typ   string
		want  string
	}{
		{"unknown field", map[string]any{"name": "Alpha", "city": "Gent"}, "BreweryFilter", "field 'city' is not defined by input object BreweryFilter"},
		{"nested mismatch", map[string]any{"name": "Alpha", "first": 1.5}, "BreweryFilter", "field 'first': cannot coerce"},
		{"unknown enum value", map[string]any{"name": "Alpha", "country": "US"}, "BreweryFilter", "cannot coerce US (string) to enum Country"},
		{"not an object", "Alpha", "BreweryFilter", "to input object BreweryFilter"},
		{"oneOf with two fields", map[string]any{"id": "1", "name": "Alpha"}, "BreweryBy", "exactly one field"},
		{"oneOf with none", map[string]any{}, "BreweryBy", "exactly one field"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coerceValue(sch, tc.value, schema.NamedType(tc.typ))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAstValueToGo_IntOverflow(t *testing.T) {
	require.Equal(t, 42, astValueToGo(&language.Value{Kind: language.IntValue, Raw: "42"}))
	require.Equal(t, json.Number("99999999999999999999"), astValueToGo(&language.Value{Kind: language.IntValue, Raw: "99999999999999999999"}))
}
