package schema

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
)

// optionalKey marks a schema node as optional in documents.
const optionalKey = "optional"

// Parse decodes a single schema node written in tag notation:
//
//	{boolean: [false], integer: []}
//
// JSON is accepted as well since it is a subset of YAML.
func Parse(data []byte) (Schema, error) {
	node, err := documentRoot(data)
	if err != nil {
		return Schema{}, err
	}
	return decodeNode(node, "")
}

// ParseShape decodes a property mapping, the form endpoint response schemas
// are written in, and returns Object(shape).
func ParseShape(data []byte) (Schema, error) {
	node, err := documentRoot(data)
	if err != nil {
		return Schema{}, err
	}
	shape, err := decodeShape(node, "")
	if err != nil {
		return Schema{}, err
	}
	return Object(shape), nil
}

// LoadShapeFile reads a response schema document from disk.
func LoadShapeFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, errors.NewInputError(fmt.Sprintf("failed to read schema file '%s'", path), err)
	}
	return ParseShape(data)
}

func documentRoot(data []byte) (*yaml.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewSchemaError("schema document is empty", errors.ErrEmptyInput)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewSchemaError("failed to parse schema document", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errors.NewSchemaError("schema document must hold exactly one node", nil)
	}
	return doc.Content[0], nil
}

func nodeError(node *yaml.Node, path, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return errors.NewSchemaError(fmt.Sprintf("line %d, %s: %s", node.Line, displayPath(path), msg), nil)
}

func decodeShape(node *yaml.Node, path string) (Shape, error) {
	if node.Kind != yaml.MappingNode {
		return nil, nodeError(node, path, "object shape must be a mapping of property names to schemas")
	}
	shape := make(Shape, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if _, dup := shape[key.Value]; dup {
			return nil, nodeError(key, path, "property %q listed twice", key.Value)
		}
		s, err := decodeNode(value, path+"."+key.Value)
		if err != nil {
			return nil, err
		}
		shape[key.Value] = s
	}
	return shape, nil
}

func decodeNode(node *yaml.Node, path string) (Schema, error) {
	if node.Kind != yaml.MappingNode {
		return Schema{}, nodeError(node, path, "schema must be a mapping of tags to constraint lists")
	}

	var s Schema
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if key.Value == optionalKey {
			var optional bool
			if err := value.Decode(&optional); err != nil {
				return Schema{}, nodeError(value, path, "optional must be a boolean")
			}
			s.optional = optional
			continue
		}

		tag, ok := models.ParseTag(key.Value)
		if !ok {
			return Schema{}, nodeError(key, path, "unknown tag %q", key.Value)
		}
		if s.Has(tag) {
			return Schema{}, nodeError(key, path, "tag %q listed twice", key.Value)
		}
		if value.Kind != yaml.SequenceNode {
			return Schema{}, nodeError(value, path, "constraints for %s must be a list", tag)
		}

		if err := decodeRule(&s, tag, value, path); err != nil {
			return Schema{}, err
		}
	}

	if len(s.Tags()) == 0 {
		return Schema{}, nodeError(node, path, "schema accepts no tags")
	}
	return s, nil
}

func decodeRule(s *Schema, tag models.Tag, list *yaml.Node, path string) error {
	items := list.Content
	switch tag {
	case models.Null:
		if len(items) > 0 {
			return nodeError(list, path, "null takes no constraints")
		}
		s.Null = &NullRule{}

	case models.Boolean:
		rule := &BooleanRule{}
		for _, item := range items {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!bool" {
				return nodeError(item, path, "boolean literal expected, got %q", item.Value)
			}
			var b bool
			if err := item.Decode(&b); err != nil {
				return nodeError(item, path, "invalid boolean literal %q", item.Value)
			}
			rule.Literals = append(rule.Literals, b)
		}
		s.Boolean = rule

	case models.Integer:
		rule := &IntegerRule{}
		for _, item := range items {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!int" {
				return nodeError(item, path, "integer literal expected, got %q", item.Value)
			}
			var n int64
			if err := item.Decode(&n); err != nil {
				return nodeError(item, path, "integer literal %q out of range", item.Value)
			}
			rule.Literals = append(rule.Literals, n)
		}
		s.Integer = rule

	case models.Float:
		rule := &FloatRule{}
		for _, item := range items {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!float" {
				return nodeError(item, path, "float literal expected, got %q", item.Value)
			}
			var f float64
			if err := item.Decode(&f); err != nil {
				return nodeError(item, path, "invalid float literal %q", item.Value)
			}
			rule.Literals = append(rule.Literals, f)
		}
		s.Float = rule

	case models.String:
		rule := &StringRule{}
		for _, item := range items {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return nodeError(item, path, "string literal expected, got %q", item.Value)
			}
			rule.Literals = append(rule.Literals, item.Value)
		}
		s.String = rule

	case models.ArrayT:
		switch {
		case len(items) == 0:
			s.Array = &ArrayRule{}
		case len(items) > 1:
			return nodeError(list, path, "array takes one element schema or one tuple, got %d entries", len(items))
		case items[0].Kind == yaml.MappingNode:
			elem, err := decodeNode(items[0], path+"[]")
			if err != nil {
				return err
			}
			s.Array = &ArrayRule{elem: &elem}
		case items[0].Kind == yaml.SequenceNode:
			tuple := make([]Schema, 0, len(items[0].Content))
			for i, item := range items[0].Content {
				e, err := decodeNode(item, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return err
				}
				tuple = append(tuple, e)
			}
			s.Array = &ArrayRule{tuple: tuple}
		default:
			return nodeError(items[0], path, "array constraint must be a schema or a tuple of schemas")
		}

	case models.ObjectT:
		switch len(items) {
		case 0:
			s.Object = &ObjectRule{}
		case 1:
			shape, err := decodeShape(items[0], path)
			if err != nil {
				return err
			}
			s.Object = &ObjectRule{Shape: shape}
		default:
			return nodeError(list, path, "object takes exactly one shape, got %d", len(items))
		}
	}
	return nil
}

// Marshal writes s in document notation. Object schemas with a shape and no
// other tag are written as a bare property mapping, matching ParseShape;
// everything else is written as a schema node, matching Parse.
func Marshal(s Schema) ([]byte, error) {
	var root *yaml.Node
	if IsShapeOnly(s) {
		root = encodeShape(s.Object.Shape)
	} else {
		root = encodeNode(s)
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, errors.NewOutputError("failed to encode schema document", err)
	}
	return out, nil
}

// IsShapeOnly reports whether s is exactly Object(shape).
func IsShapeOnly(s Schema) bool {
	return s.Object != nil && s.Object.Shape != nil && len(s.Tags()) == 1 && !s.optional
}

func encodeShape(shape Shape) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range shape.Keys() {
		m.Content = append(m.Content, scalar("!!str", k), encodeNode(shape[k]))
	}
	return m
}

func encodeNode(s Schema) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	seq := func(items ...*yaml.Node) *yaml.Node {
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		n.Content = items
		return n
	}
	add := func(tag models.Tag, list *yaml.Node) {
		m.Content = append(m.Content, scalar("!!str", string(tag)), list)
	}

	if s.Null != nil {
		add(models.Null, seq())
	}
	if s.Boolean != nil {
		var items []*yaml.Node
		for _, l := range s.Boolean.Literals {
			items = append(items, scalar("!!bool", strconv.FormatBool(l)))
		}
		add(models.Boolean, seq(items...))
	}
	if s.Integer != nil {
		var items []*yaml.Node
		for _, l := range s.Integer.Literals {
			items = append(items, scalar("!!int", strconv.FormatInt(l, 10)))
		}
		add(models.Integer, seq(items...))
	}
	if s.Float != nil {
		var items []*yaml.Node
		for _, l := range s.Float.Literals {
			items = append(items, scalar("!!float", formatFloat(l)))
		}
		add(models.Float, seq(items...))
	}
	if s.String != nil {
		var items []*yaml.Node
		for _, l := range s.String.Literals {
			items = append(items, scalar("!!str", l))
		}
		add(models.String, seq(items...))
	}
	if s.Array != nil {
		switch {
		case s.Array.elem != nil:
			add(models.ArrayT, seq(encodeNode(*s.Array.elem)))
		case s.Array.tuple != nil:
			var items []*yaml.Node
			for _, e := range s.Array.tuple {
				items = append(items, encodeNode(e))
			}
			add(models.ArrayT, seq(seq(items...)))
		default:
			add(models.ArrayT, seq())
		}
	}
	if s.Object != nil {
		if s.Object.Shape == nil {
			add(models.ObjectT, seq())
		} else {
			shape := encodeShape(s.Object.Shape)
			shape.Style = yaml.FlowStyle
			add(models.ObjectT, seq(shape))
		}
	}
	if s.optional {
		m.Content = append(m.Content, scalar("!!str", optionalKey), scalar("!!bool", "true"))
	}
	return m
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// formatFloat always keeps a fraction or exponent so the literal reads back
// as a float. NaN and the infinities use the YAML spellings.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !bytes.ContainsAny([]byte(s), ".eE") {
		s += ".0"
	}
	return s
}
