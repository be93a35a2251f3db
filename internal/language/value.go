package language

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// NewValue converts a Go value into a GraphQL literal. Maps become input
// objects with keys in sorted order; unsupported types are rejected.
func NewValue(v any) (*Value, error) {
	switch x := v.(type) {
	case nil:
		return &Value{Kind: ast.NullValue, Raw: "null"}, nil
	case *Value:
		return x, nil
	case string:
		return &Value{Kind: ast.StringValue, Raw: x}, nil
	case bool:
		return &Value{Kind: ast.BooleanValue, Raw: strconv.FormatBool(x)}, nil
	case int:
		return &Value{Kind: ast.IntValue, Raw: strconv.Itoa(x)}, nil
	case int32:
		return &Value{Kind: ast.IntValue, Raw: strconv.FormatInt(int64(x), 10)}, nil
	case int64:
		return &Value{Kind: ast.IntValue, Raw: strconv.FormatInt(x, 10)}, nil
	case json.Number:
		// the literal keeps every digit the upstream sent
		if x == "" {
			return nil, fmt.Errorf("cannot convert empty json.Number to a GraphQL value")
		}
		if strings.ContainsAny(string(x), ".eE") {
			return &Value{Kind: ast.FloatValue, Raw: x.String()}, nil
		}
		return &Value{Kind: ast.IntValue, Raw: x.String()}, nil
	case float32:
		return &Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(float64(x), 'g', -1, 32)}, nil
	case float64:
		return &Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(x, 'g', -1, 64)}, nil
	case []any:
		out := &Value{Kind: ast.ListValue}
		for _, elem := range x {
			child, err := NewValue(elem)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, &ChildValue{Value: child})
		}
		return out, nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return NewValue(items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := &Value{Kind: ast.ObjectValue}
		for _, k := range keys {
			child, err := NewValue(x[k])
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, &ChildValue{Name: k, Value: child})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a GraphQL value", v)
	}
}

// UsedVariables returns the names of the variables referenced by arguments
// and directives anywhere in ss.
func UsedVariables(ss SelectionSet) map[string]bool {
	used := map[string]bool{}
	collectVariables(ss, used)
	return used
}

func collectVariables(ss SelectionSet, used map[string]bool) {
	for _, sel := range ss {
		switch s := sel.(type) {
		case *Field:
			for _, arg := range s.Arguments {
				valueVariables(arg.Value, used)
			}
			directiveVariables(s.Directives, used)
			collectVariables(s.SelectionSet, used)
		case *InlineFragment:
			directiveVariables(s.Directives, used)
			collectVariables(s.SelectionSet, used)
		case *FragmentSpread:
			directiveVariables(s.Directives, used)
		}
	}
}

func directiveVariables(dirs DirectiveList, used map[string]bool) {
	for _, d := range dirs {
		for _, arg := range d.Arguments {
			valueVariables(arg.Value, used)
		}
	}
}

func valueVariables(v *Value, used map[string]bool) {
	if v == nil {
		return
	}
	if v.Kind == ast.Variable {
		used[v.Raw] = true
		return
	}
	for _, child := range v.Children {
		valueVariables(child.Value, used)
	}
}
