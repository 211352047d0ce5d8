package schema

import (
	"fmt"
	"sort"

	"github.com/mcncl/gridcall/internal/models"
)

// Infer derives a schema that accepts sample. Elements of one array are
// merged into a single element schema: properties seen in only some objects
// become optional and differing tags become unions.
func Infer(sample models.Value) (Schema, error) {
	return inferNode(sample, "")
}

func inferNode(v models.Value, path string) (Schema, error) {
	tag, ok := models.TagOf(v)
	if !ok {
		return Schema{}, fmt.Errorf("unexpected value type %T at %s", v, displayPath(path))
	}

	switch tag {
	case models.Null:
		return Null(), nil
	case models.Boolean:
		return Boolean(), nil
	case models.Integer:
		return Integer(), nil
	case models.Float:
		return Float(), nil
	case models.String:
		return String(), nil
	case models.ObjectT:
		obj, _ := models.AsObject(v)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		shape := make(Shape, len(obj))
		for _, k := range keys {
			s, err := inferNode(obj[k], path+"."+k)
			if err != nil {
				return Schema{}, err
			}
			shape[k] = s
		}
		return Object(shape), nil
	default:
		arr, _ := models.AsArray(v)
		if len(arr) == 0 {
			return AnyArray(), nil
		}
		var elem Schema
		for i, e := range arr {
			s, err := inferNode(e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return Schema{}, err
			}
			if i == 0 {
				elem = s
				continue
			}
			elem = mergeSchemas(elem, s)
		}
		return ArrayOf(elem), nil
	}
}

// mergeSchemas returns a schema accepting everything a or b accepts.
// Literal whitelists are dropped since inferred schemas never carry any.
func mergeSchemas(a, b Schema) Schema {
	m := a
	m.optional = a.optional || b.optional

	if m.Null == nil {
		m.Null = b.Null
	}
	if m.Boolean == nil {
		m.Boolean = b.Boolean
	}
	if m.Integer == nil {
		m.Integer = b.Integer
	}
	if m.Float == nil {
		m.Float = b.Float
	}
	if m.String == nil {
		m.String = b.String
	}

	switch {
	case a.Array == nil:
		m.Array = b.Array
	case b.Array != nil:
		m.Array = mergeArrays(a.Array, b.Array)
	}

	switch {
	case a.Object == nil:
		m.Object = b.Object
	case b.Object != nil:
		m.Object = &ObjectRule{Shape: mergeShapes(a.Object.Shape, b.Object.Shape)}
	}
	return m
}

func mergeArrays(a, b *ArrayRule) *ArrayRule {
	if a.elem == nil {
		return b
	}
	if b.elem == nil {
		return a
	}
	elem := mergeSchemas(*a.elem, *b.elem)
	return &ArrayRule{elem: &elem}
}

func mergeShapes(a, b Shape) Shape {
	merged := make(Shape, len(a)+len(b))
	for k, sa := range a {
		if sb, ok := b[k]; ok {
			merged[k] = mergeSchemas(sa, sb)
		} else {
			merged[k] = sa.Optional()
		}
	}
	for k, sb := range b {
		if _, ok := a[k]; !ok {
			merged[k] = sb.Optional()
		}
	}
	return merged
}
