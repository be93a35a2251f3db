package transform

import (
	language "github.com/hanpama/graphstitch/internal/language"
)

// IncludeFieldPath returns ss extended with a nested selection chain for
// path. Existing unaliased selections of a segment are merged into. leaf is
// merged under the final segment.
func IncludeFieldPath(ss language.SelectionSet, path []string, leaf language.SelectionSet) language.SelectionSet {
	if len(path) == 0 {
		return mergeSelections(ss, leaf)
	}
	name := path[0]
	out := make(language.SelectionSet, 0, len(ss)+1)
	found := false
	for _, sel := range ss {
		f, ok := sel.(*language.Field)
		if !ok || found || f.Name != name || language.ResponseKey(f) != name {
			out = append(out, sel)
			continue
		}
		found = true
		cp := *f
		cp.SelectionSet = IncludeFieldPath(f.SelectionSet, path[1:], leaf)
		out = append(out, &cp)
	}
	if !found {
		out = append(out, &language.Field{
			Alias:        name,
			Name:         name,
			SelectionSet: IncludeFieldPath(nil, path[1:], leaf),
		})
	}
	return out
}

// ExcludeField returns ss without the field selections named name.
func ExcludeField(ss language.SelectionSet, name string) language.SelectionSet {
	out := make(language.SelectionSet, 0, len(ss))
	for _, sel := range ss {
		if f, ok := sel.(*language.Field); ok && f.Name == name {
			continue
		}
		out = append(out, sel)
	}
	return out
}

// mergeSelections appends extra to ss. Fields already selected under the same
// response key and name have their sub-selections merged instead.
func mergeSelections(ss, extra language.SelectionSet) language.SelectionSet {
	if len(extra) == 0 {
		return ss
	}
	out := append(language.SelectionSet(nil), ss...)
	for _, sel := range extra {
		f, ok := sel.(*language.Field)
		if !ok {
			out = append(out, sel)
			continue
		}
		merged := false
		for i, existing := range out {
			e, ok := existing.(*language.Field)
			if !ok || e.Name != f.Name || language.ResponseKey(e) != language.ResponseKey(f) {
				continue
			}
			cp := *e
			cp.SelectionSet = mergeSelections(e.SelectionSet, f.SelectionSet)
			out[i] = &cp
			merged = true
			break
		}
		if !merged {
			out = append(out, f)
		}
	}
	return out
}

func hasResponseKey(ss language.SelectionSet, key string) bool {
	for _, sel := range ss {
		if f, ok := sel.(*language.Field); ok && language.ResponseKey(f) == key {
			return true
		}
	}
	return false
}
