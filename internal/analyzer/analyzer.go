package analyzer

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/schema"
)

// DefaultRootName is the default name for the root struct if not specified.
const DefaultRootName = "Response"

// Kind classifies a Go type produced by the analyzer
type Kind int

const (
	Basic Kind = iota
	Struct
	Slice
	Array
	Map
	Interface
)

// TypeInfo describes the Go type chosen for one schema position
type TypeInfo struct {
	Kind Kind
	// Name is the basic type name or the struct name.
	Name string
	// Elem is the element type of slices and fixed arrays.
	Elem *TypeInfo
	// Len is the length of a fixed array.
	Len       int
	IsPointer bool
	// Tags lists the accepted tags when several map to one interface{} type.
	Tags []models.Tag
}

// String renders the Go type expression.
func (t TypeInfo) String() string {
	var s string
	switch t.Kind {
	case Struct, Basic:
		s = t.Name
	case Slice:
		s = "[]" + t.Elem.String()
	case Array:
		s = fmt.Sprintf("[%d]%s", t.Len, t.Elem.String())
	case Map:
		s = "map[string]interface{}"
	default:
		s = "interface{}"
	}
	if t.IsPointer {
		return "*" + s
	}
	return s
}

// FieldInfo describes one struct field
type FieldInfo struct {
	GoName   string
	JSONName string
	Type     TypeInfo
	Optional bool
}

// JSONTag returns the struct tag for the field.
func (f FieldInfo) JSONTag() string {
	if f.Optional {
		return fmt.Sprintf("`json:\"%s,omitempty\"`", f.JSONName)
	}
	return fmt.Sprintf("`json:\"%s\"`", f.JSONName)
}

// Comment returns a trailing comment for fields whose type loses information.
func (f FieldInfo) Comment() string {
	if f.Type.Kind != Interface || len(f.Type.Tags) < 2 {
		return ""
	}
	names := make([]string, len(f.Type.Tags))
	for i, t := range f.Type.Tags {
		names[i] = string(t)
	}
	return "// " + strings.Join(names, " or ")
}

// StructDef is a struct to be generated
type StructDef struct {
	Name   string
	Fields []FieldInfo
	IsRoot bool

	// base is the name requested before collisions were resolved
	base string
}

// AnalysisResult holds the discovered structs and the root type
type AnalysisResult struct {
	RootName string
	Root     TypeInfo
	Structs  []StructDef
}

// Analyzer maps response schemas onto Go types and struct definitions
type Analyzer struct {
	// structNames tracks generated struct names to avoid collisions
	structNames map[string]int
	result      AnalysisResult
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		structNames: make(map[string]int),
		result: AnalysisResult{
			Structs: make([]StructDef, 0),
		},
	}
}

// Analyze walks s and returns the struct definitions needed to hold a value
// it accepts. rootName names the root struct, or the root type when the root
// is not an object.
func (a *Analyzer) Analyze(s schema.Schema, rootName string) (AnalysisResult, error) {
	if rootName == "" {
		rootName = DefaultRootName
	}
	rootName = typeName(rootName)

	a.structNames = make(map[string]int)
	a.result = AnalysisResult{RootName: rootName, Structs: make([]StructDef, 0)}

	root, err := a.analyzeNode(s, rootName, "", true)
	if err != nil {
		return AnalysisResult{}, err
	}
	root.IsPointer = false
	a.result.Root = root
	return a.result, nil
}

func (a *Analyzer) analyzeNode(s schema.Schema, suggestedName, path string, isRoot bool) (TypeInfo, error) {
	var tags []models.Tag
	for _, t := range s.Tags() {
		if t != models.Null {
			tags = append(tags, t)
		}
	}

	switch len(tags) {
	case 0:
		if s.Null == nil {
			return TypeInfo{}, fmt.Errorf("schema at %s accepts no values", displayPath(path))
		}
		return TypeInfo{Kind: Interface, Tags: []models.Tag{models.Null}}, nil
	case 1:
	default:
		return TypeInfo{Kind: Interface, Tags: tags}, nil
	}

	var info TypeInfo
	switch tags[0] {
	case models.Boolean:
		info = TypeInfo{Kind: Basic, Name: "bool"}
	case models.Integer:
		info = TypeInfo{Kind: Basic, Name: "int64"}
	case models.Float:
		info = TypeInfo{Kind: Basic, Name: "float64"}
	case models.String:
		info = TypeInfo{Kind: Basic, Name: "string"}
	case models.ArrayT:
		arr, err := a.analyzeArray(s.Array, singularize(suggestedName), path)
		if err != nil {
			return TypeInfo{}, err
		}
		return arr, nil
	case models.ObjectT:
		if s.Object.Shape == nil {
			return TypeInfo{Kind: Map}, nil
		}
		obj, err := a.analyzeObject(s.Object.Shape, suggestedName, path, isRoot)
		if err != nil {
			return TypeInfo{}, err
		}
		info = obj
	}

	// Absent and null both decode to the zero pointer
	if s.IsOptional() {
		info.IsPointer = true
	}
	return info, nil
}

func (a *Analyzer) analyzeArray(rule *schema.ArrayRule, elemName, path string) (TypeInfo, error) {
	if elem, ok := rule.Elem(); ok {
		elemType, err := a.analyzeNode(elem, elemName, path+"[]", false)
		if err != nil {
			return TypeInfo{}, err
		}
		return TypeInfo{Kind: Slice, Elem: &elemType}, nil
	}

	if tuple, ok := rule.Tuple(); ok {
		types := make([]TypeInfo, len(tuple))
		for i, e := range tuple {
			t, err := a.analyzeNode(e, fmt.Sprintf("%s%d", elemName, i), fmt.Sprintf("%s[%d]", path, i), false)
			if err != nil {
				return TypeInfo{}, err
			}
			types[i] = t
		}
		if len(types) > 0 && sameTypes(types) {
			return TypeInfo{Kind: Array, Len: len(types), Elem: &types[0]}, nil
		}
		return TypeInfo{Kind: Slice, Elem: &TypeInfo{Kind: Interface}}, nil
	}

	// Heterogeneous array - default to []interface{}
	return TypeInfo{Kind: Slice, Elem: &TypeInfo{Kind: Interface}}, nil
}

func (a *Analyzer) analyzeObject(shape schema.Shape, suggestedName, path string, isRoot bool) (TypeInfo, error) {
	def := StructDef{IsRoot: isRoot}
	used := make(map[string]int)

	for _, key := range shape.Keys() {
		goName := jsonKeyToPascalCase(key)
		if n := used[goName]; n > 0 {
			used[goName] = n + 1
			goName = fmt.Sprintf("%s%d", goName, n+1)
		} else {
			used[goName] = 1
		}

		prop := shape[key]
		fieldType, err := a.analyzeNode(prop, goName, path+"."+key, false)
		if err != nil {
			return TypeInfo{}, err
		}
		def.Fields = append(def.Fields, FieldInfo{
			GoName:   goName,
			JSONName: key,
			Type:     fieldType,
			Optional: prop.IsOptional(),
		})
	}

	return TypeInfo{Kind: Struct, Name: a.findOrAddStructDef(def, suggestedName)}, nil
}

// findOrAddStructDef reuses an identical struct generated under the same
// base name, or registers def under a fresh name.
func (a *Analyzer) findOrAddStructDef(def StructDef, baseName string) string {
	for _, existing := range a.result.Structs {
		if existing.base == baseName && areStructDefsEquivalent(existing, def) {
			return existing.Name
		}
	}
	def.Name = a.generateUniqueStructName(baseName)
	def.base = baseName
	a.result.Structs = append(a.result.Structs, def)
	return def.Name
}

// generateUniqueStructName ensures that the struct name is unique by appending a number if needed.
func (a *Analyzer) generateUniqueStructName(baseName string) string {
	name := baseName
	count := a.structNames[baseName]
	if count > 0 {
		name = fmt.Sprintf("%s%d", baseName, count)
	}
	a.structNames[baseName] = count + 1
	return name
}

func areStructDefsEquivalent(s1, s2 StructDef) bool {
	if s1.IsRoot != s2.IsRoot || len(s1.Fields) != len(s2.Fields) {
		return false
	}
	for i := range s1.Fields {
		f1, f2 := s1.Fields[i], s2.Fields[i]
		if f1.JSONName != f2.JSONName || f1.Optional != f2.Optional || f1.Type.String() != f2.Type.String() {
			return false
		}
	}
	return true
}

func sameTypes(types []TypeInfo) bool {
	for _, t := range types[1:] {
		if t.String() != types[0].String() {
			return false
		}
	}
	return true
}

// jsonKeyToPascalCase converts a JSON key to a Go-style PascalCase identifier.
func jsonKeyToPascalCase(jsonKey string) string {
	// Keys that already are exported identifiers keep their acronyms
	if token.IsIdentifier(jsonKey) && token.IsExported(jsonKey) {
		return jsonKey
	}

	name := strcase.ToCamel(jsonKey)
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, name)

	// Purely symbolic keys and keys starting with a digit need a prefix
	if name == "" {
		return "Field"
	}
	if !unicode.IsLetter([]rune(name)[0]) {
		return "Field" + name
	}
	return name
}

func typeName(name string) string {
	return jsonKeyToPascalCase(name)
}

// singularize attempts to convert a plural name to a singular one.
var knownSingulars = map[string]string{
	"series":    "series",
	"status":    "status",
	"news":      "news",
	"children":  "child",
	"people":    "person",
	"data":      "data",
	"media":     "media",
	"addresses": "address",
	"aliases":   "alias",
}

func singularize(plural string) string {
	if singular, ok := knownSingulars[strings.ToLower(plural)]; ok {
		// Preserve original casing if the first letter was capitalized
		if len(plural) > 0 && strings.ToUpper(plural[:1]) == plural[:1] && len(singular) > 0 {
			return strings.ToUpper(singular[:1]) + singular[1:]
		}
		return singular
	}

	lowerPlural := strings.ToLower(plural)

	if strings.HasSuffix(lowerPlural, "ies") && len(lowerPlural) > 3 {
		return plural[:len(plural)-3] + "y"
	}

	// Avoid removing 's' from words like 'bus', 'gas', 'class', 'address'
	if strings.HasSuffix(lowerPlural, "ss") ||
		strings.HasSuffix(lowerPlural, "us") ||
		strings.HasSuffix(lowerPlural, "is") {
		return plural
	}

	if strings.HasSuffix(lowerPlural, "s") && len(lowerPlural) > 1 {
		return plural[:len(plural)-1]
	}

	return plural // Default to original if no simple rule applies
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
