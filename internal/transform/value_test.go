package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestGetFieldValue(t *testing.T) {
	data := map[string]any{
		"brewery": map[string]any{
			"founder": map[string]any{"name": "Ann"},
			"owners": []any{
				map[string]any{"name": "a"},
				nil,
				map[string]any{"name": "c"},
			},
			"sister": nil,
		},
	}

	cases := []struct {
		name string
		path []string
		want any
	}{
		{"empty path", nil, data},
		{"nested object", []string{"brewery", "founder", "name"}, "Ann"},
		{"through list", []string{"brewery", "owners", "name"}, []any{"a", nil, "c"}},
		{"null ancestor", []string{"brewery", "sister", "name"}, nil},
		{"absent ancestor", []string{"brewery", "partner", "name"}, nil},
		{"scalar ancestor", []string{"brewery", "founder", "name", "length"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, GetFieldValue(data, tc.path)); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPutFieldValue(t *testing.T) {
	founder := map[string]any{"name": "Ann"}
	data := map[string]any{
		"brewery": map[string]any{"founder": founder},
	}

	got := PutFieldValue(data, []string{"brewery", "founderName"}, "Ann")
	want := map[string]any{
		"brewery": map[string]any{"founder": founder, "founderName": "Ann"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	// copy on write: the input is untouched and untouched branches are shared
	assert.NotContains(t, data["brewery"], "founderName")
	gotFounder := got.(map[string]any)["brewery"].(map[string]any)["founder"].(map[string]any)
	gotFounder["probe"] = true
	assert.Equal(t, true, founder["probe"])
}

func TestPutFieldValue_Lists(t *testing.T) {
	data := map[string]any{
		"breweries": []any{
			map[string]any{"id": "1"},
			nil,
			map[string]any{"id": "3"},
		},
	}

	got := PutFieldValue(data, []string{"breweries", "rank"}, []any{1, 2, 3})
	want := map[string]any{
		"breweries": []any{
			map[string]any{"id": "1", "rank": 1},
			nil,
			map[string]any{"id": "3", "rank": 3},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	// a short value list leaves the remaining elements with nil
	got = PutFieldValue(data, []string{"breweries", "rank"}, []any{1})
	assert.Equal(t, nil, GetFieldValue(got, []string{"breweries"}).([]any)[2].(map[string]any)["rank"])
}

func TestPutFieldValue_NullAncestor(t *testing.T) {
	data := map[string]any{"brewery": nil}
	assert.Equal(t, data, PutFieldValue(data, []string{"brewery", "founderName"}, "Ann"))
	assert.Equal(t, data, PutFieldValue(data, []string{"partner", "founderName"}, "Ann"))
}

func TestGetPutRoundTrip(t *testing.T) {
	data := map[string]any{
		"breweries": []any{
			map[string]any{"founder": map[string]any{"name": "a"}},
			map[string]any{"founder": nil},
		},
	}
	v := GetFieldValue(data, []string{"breweries", "founder", "name"})
	got := PutFieldValue(data, []string{"breweries", "founderName"}, v)
	assert.Equal(t, []any{"a", nil}, GetFieldValue(got, []string{"breweries", "founderName"}))
}
