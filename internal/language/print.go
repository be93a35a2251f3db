package language

import (
	"bytes"
	"strings"

	"github.com/vektah/gqlparser/v2/formatter"
)

// Print renders a query document as GraphQL text suitable for the wire.
func Print(doc *QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatQueryDocument(doc)
	return buf.String()
}

// PrintOperation renders a single operation together with the given fragments.
func PrintOperation(op *OperationDefinition, fragments FragmentList) string {
	return Print(&QueryDocument{Operations: OperationList{op}, Fragments: fragments})
}

// PrintCompact renders an operation on one line.
//
// Anonymous queries without variables or directives print as a bare selection
// set, e.g. {brewery(identifier:"foo") {identifier label:name}}.
func PrintCompact(op *OperationDefinition) string {
	var b strings.Builder
	if op.Name != "" || len(op.VariableDefinitions) > 0 || len(op.Directives) > 0 || (op.Operation != "" && op.Operation != Query) {
		operation := op.Operation
		if operation == "" {
			operation = Query
		}
		b.WriteString(string(operation))
		if op.Name != "" {
			b.WriteString(" ")
			b.WriteString(op.Name)
		}
		if len(op.VariableDefinitions) > 0 {
			b.WriteString("(")
			for i, v := range op.VariableDefinitions {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString("$")
				b.WriteString(v.Variable)
				b.WriteString(":")
				b.WriteString(v.Type.String())
				if v.DefaultValue != nil {
					b.WriteString("=")
					b.WriteString(v.DefaultValue.String())
				}
			}
			b.WriteString(")")
		}
		writeDirectives(&b, op.Directives)
		b.WriteString(" ")
	}
	writeSelectionSet(&b, op.SelectionSet)
	return b.String()
}

// PrintSelectionSet renders a selection set on one line.
func PrintSelectionSet(ss SelectionSet) string {
	var b strings.Builder
	writeSelectionSet(&b, ss)
	return b.String()
}

func writeSelectionSet(b *strings.Builder, ss SelectionSet) {
	b.WriteString("{")
	for i, sel := range ss {
		if i > 0 {
			b.WriteString(" ")
		}
		switch s := sel.(type) {
		case *Field:
			writeField(b, s)
		case *InlineFragment:
			b.WriteString("...")
			if s.TypeCondition != "" {
				b.WriteString(" on ")
				b.WriteString(s.TypeCondition)
			}
			writeDirectives(b, s.Directives)
			b.WriteString(" ")
			writeSelectionSet(b, s.SelectionSet)
		case *FragmentSpread:
			b.WriteString("...")
			b.WriteString(s.Name)
			writeDirectives(b, s.Directives)
		}
	}
	b.WriteString("}")
}

func writeField(b *strings.Builder, f *Field) {
	if f.Alias != "" && f.Alias != f.Name {
		b.WriteString(f.Alias)
		b.WriteString(":")
	}
	b.WriteString(f.Name)
	if len(f.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range f.Arguments {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(arg.Name)
			b.WriteString(":")
			b.WriteString(arg.Value.String())
		}
		b.WriteString(")")
	}
	writeDirectives(b, f.Directives)
	if len(f.SelectionSet) > 0 {
		b.WriteString(" ")
		writeSelectionSet(b, f.SelectionSet)
	}
}

func writeDirectives(b *strings.Builder, dirs DirectiveList) {
	for _, d := range dirs {
		b.WriteString(" @")
		b.WriteString(d.Name)
		if len(d.Arguments) > 0 {
			b.WriteString("(")
			for i, arg := range d.Arguments {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(arg.Name)
				b.WriteString(":")
				b.WriteString(arg.Value.String())
			}
			b.WriteString(")")
		}
	}
}
