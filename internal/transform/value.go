package transform

// GetFieldValue reads the value at path in nested response data. Lists are
// distributed over: a list encountered before the path ends yields a list
// holding the value for each element. Absent or null ancestors yield nil.
func GetFieldValue(data any, path []string) any {
	if len(path) == 0 {
		return data
	}
	switch d := data.(type) {
	case map[string]any:
		return GetFieldValue(d[path[0]], path[1:])
	case []any:
		out := make([]any, len(d))
		for i, elem := range d {
			out[i] = GetFieldValue(elem, path)
		}
		return out
	}
	return nil
}

// PutFieldValue returns a copy of data with value stored at path. Every list
// crossed by the path consumes a list value aligned with its elements. Only
// the maps and lists along the path are copied. An absent or null ancestor
// leaves data unchanged.
func PutFieldValue(data any, path []string, value any) any {
	if len(path) == 0 {
		return value
	}
	switch d := data.(type) {
	case map[string]any:
		if len(path) > 1 {
			child := d[path[0]]
			if child == nil {
				return d
			}
			value = PutFieldValue(child, path[1:], value)
		}
		out := make(map[string]any, len(d)+1)
		for k, v := range d {
			out[k] = v
		}
		out[path[0]] = value
		return out
	case []any:
		values, _ := value.([]any)
		out := make([]any, len(d))
		for i, elem := range d {
			var v any
			if i < len(values) {
				v = values[i]
			}
			out[i] = PutFieldValue(elem, path, v)
		}
		return out
	}
	return data
}
