package language

// ResponseKey returns the key under which a field's value appears in a response.
func ResponseKey(f *Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// InlineFragmentSpreads replaces every fragment spread in ss with an inline
// fragment carrying the referenced fragment's type condition and selections.
// The input is left untouched; spreads referencing unknown fragments are
// dropped.
func InlineFragmentSpreads(ss SelectionSet, fragments FragmentList) SelectionSet {
	if len(ss) == 0 {
		return ss
	}
	return inlineSpreads(ss, fragments, map[string]bool{})
}

func inlineSpreads(ss SelectionSet, fragments FragmentList, visiting map[string]bool) SelectionSet {
	out := make(SelectionSet, 0, len(ss))
	for _, sel := range ss {
		switch s := sel.(type) {
		case *Field:
			if len(s.SelectionSet) == 0 {
				out = append(out, s)
				continue
			}
			cp := *s
			cp.SelectionSet = inlineSpreads(s.SelectionSet, fragments, visiting)
			out = append(out, &cp)
		case *InlineFragment:
			cp := *s
			cp.SelectionSet = inlineSpreads(s.SelectionSet, fragments, visiting)
			out = append(out, &cp)
		case *FragmentSpread:
			def := fragments.ForName(s.Name)
			if def == nil || visiting[s.Name] {
				continue
			}
			visiting[s.Name] = true
			out = append(out, &InlineFragment{
				TypeCondition: def.TypeCondition,
				Directives:    append(DirectiveList(nil), s.Directives...),
				SelectionSet:  inlineSpreads(def.SelectionSet, fragments, visiting),
				Position:      s.Position,
			})
			delete(visiting, s.Name)
		}
	}
	return out
}
