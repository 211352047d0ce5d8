package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"

	"github.com/mcncl/gridcall/internal/analyzer"
	"github.com/mcncl/gridcall/internal/errors"
)

// Generator is responsible for generating Go record types from analysis results
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateStructs generates gofmt-formatted Go type definitions for result.
func (g *Generator) GenerateStructs(result analyzer.AnalysisResult, packageName string) (string, error) {
	var buf bytes.Buffer

	// Write package declaration
	buf.WriteString(fmt.Sprintf("package %s\n", packageName))

	// A root that is not a struct gets a named type of its own
	if result.Root.Kind != analyzer.Struct {
		buf.WriteString(fmt.Sprintf("\n// %s is the response root.\ntype %s %s\n", result.RootName, result.RootName, result.Root.String()))
	}

	// Sort structs to ensure root structs come first
	sortedStructs := sortStructs(result.Structs)

	for _, structDef := range sortedStructs {
		buf.WriteString("\n")
		buf.WriteString(fmt.Sprintf("type %s struct {\n", structDef.Name))

		// Sort fields alphabetically by GoName for consistent output
		sortedFields := make([]analyzer.FieldInfo, len(structDef.Fields))
		copy(sortedFields, structDef.Fields)
		sort.Slice(sortedFields, func(i, j int) bool {
			return sortedFields[i].GoName < sortedFields[j].GoName
		})

		for _, field := range sortedFields {
			buf.WriteString(fmt.Sprintf("\t%s %s %s", field.GoName, field.Type.String(), field.JSONTag()))
			if c := field.Comment(); c != "" {
				buf.WriteString(" " + c)
			}
			buf.WriteString("\n")
		}

		buf.WriteString("}\n")
	}

	// gofmt aligns the fields
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return "", errors.NewOutputError("failed to format generated code", err)
	}
	return string(formatted), nil
}

// sortStructs sorts structs to ensure root structs come first, followed by nested structs
func sortStructs(structs []analyzer.StructDef) []analyzer.StructDef {
	sorted := make([]analyzer.StructDef, len(structs))
	copy(sorted, structs)

	sort.Slice(sorted, func(i, j int) bool {
		// If one is root and the other is not, root comes first
		if sorted[i].IsRoot != sorted[j].IsRoot {
			return sorted[i].IsRoot
		}
		// Otherwise, sort alphabetically by name
		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}
