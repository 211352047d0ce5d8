// Package schema describes the shapes a response value may take.
//
// A Schema is a closed set of rule slots, one per tag. A value matches a
// Schema when its runtime tag has a rule and the value satisfies that rule.
// Schemas are immutable once built and safe to share between goroutines.
package schema

import (
	"fmt"
	"sort"

	"github.com/mcncl/gridcall/internal/models"
)

// Schema lists the accepted tags at one position of a value tree.
type Schema struct {
	Null    *NullRule
	Boolean *BooleanRule
	Integer *IntegerRule
	Float   *FloatRule
	String  *StringRule
	Array   *ArrayRule
	Object  *ObjectRule

	optional bool
}

// NullRule accepts null.
type NullRule struct{}

// BooleanRule accepts booleans, or only the listed literals when any are given.
type BooleanRule struct {
	Literals []bool
}

// IntegerRule accepts integers, or only the listed literals when any are given.
type IntegerRule struct {
	Literals []int64
}

// FloatRule accepts floats, or only the listed literals when any are given.
type FloatRule struct {
	Literals []float64
}

// StringRule accepts strings, or only the listed literals when any are given.
type StringRule struct {
	Literals []string
}

// ArrayRule accepts arrays. It holds either nothing (any array), one element
// schema applied to every element, or a fixed tuple of per-position schemas.
type ArrayRule struct {
	elem  *Schema
	tuple []Schema
}

// Elem returns the element schema of a homogeneous array rule.
func (r *ArrayRule) Elem() (Schema, bool) {
	if r.elem == nil {
		return Schema{}, false
	}
	return *r.elem, true
}

// Tuple returns the per-position schemas of a tuple rule.
func (r *ArrayRule) Tuple() ([]Schema, bool) {
	if r.tuple == nil {
		return nil, false
	}
	return r.tuple, true
}

// Shape maps property names to the schema of their values.
type Shape map[string]Schema

// Keys returns the property names in sorted order.
func (s Shape) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ObjectRule accepts objects. A nil Shape accepts every object; otherwise
// every listed property must be present (unless optional or nullable) and
// match. Properties not listed are ignored.
type ObjectRule struct {
	Shape Shape
}

// Null accepts only null.
func Null() Schema { return Schema{Null: &NullRule{}} }

// Boolean accepts any boolean, or only the given literals.
func Boolean(literals ...bool) Schema { return Schema{Boolean: &BooleanRule{Literals: literals}} }

// Integer accepts any integer, or only the given literals.
func Integer(literals ...int64) Schema { return Schema{Integer: &IntegerRule{Literals: literals}} }

// Float accepts any float, or only the given literals.
func Float(literals ...float64) Schema { return Schema{Float: &FloatRule{Literals: literals}} }

// String accepts any string, or only the given literals.
func String(literals ...string) Schema { return Schema{String: &StringRule{Literals: literals}} }

// AnyArray accepts every array without looking at its elements.
func AnyArray() Schema { return Schema{Array: &ArrayRule{}} }

// ArrayOf accepts arrays whose every element matches elem.
func ArrayOf(elem Schema) Schema {
	return Schema{Array: &ArrayRule{elem: &elem}}
}

// Tuple accepts arrays of exactly len(elems) elements, each matching the
// schema at the same position.
func Tuple(elems ...Schema) Schema {
	tuple := make([]Schema, len(elems))
	copy(tuple, elems)
	return Schema{Array: &ArrayRule{tuple: tuple}}
}

// AnyObject accepts every object without looking at its properties.
func AnyObject() Schema { return Schema{Object: &ObjectRule{}} }

// Object accepts objects matching shape.
func Object(shape Shape) Schema {
	copied := make(Shape, len(shape))
	for k, v := range shape {
		copied[k] = v
	}
	return Schema{Object: &ObjectRule{Shape: copied}}
}

// Optional returns a copy of s that may be absent when used as an object
// property.
func (s Schema) Optional() Schema {
	s.optional = true
	return s
}

// IsOptional reports whether s may be absent as an object property, either
// because it was marked Optional or because it accepts null.
func (s Schema) IsOptional() bool {
	return s.optional || s.Null != nil
}

// Or returns the union of s and other. Each tag may appear on one side only;
// listing a tag twice is a programming error and panics.
func (s Schema) Or(other Schema) Schema {
	u := s
	conflict := func(tag models.Tag, a, b bool) {
		if a && b {
			panic(fmt.Sprintf("schema: tag %q listed twice in union", tag))
		}
	}
	conflict(models.Null, s.Null != nil, other.Null != nil)
	conflict(models.Boolean, s.Boolean != nil, other.Boolean != nil)
	conflict(models.Integer, s.Integer != nil, other.Integer != nil)
	conflict(models.Float, s.Float != nil, other.Float != nil)
	conflict(models.String, s.String != nil, other.String != nil)
	conflict(models.ArrayT, s.Array != nil, other.Array != nil)
	conflict(models.ObjectT, s.Object != nil, other.Object != nil)

	if other.Null != nil {
		u.Null = other.Null
	}
	if other.Boolean != nil {
		u.Boolean = other.Boolean
	}
	if other.Integer != nil {
		u.Integer = other.Integer
	}
	if other.Float != nil {
		u.Float = other.Float
	}
	if other.String != nil {
		u.String = other.String
	}
	if other.Array != nil {
		u.Array = other.Array
	}
	if other.Object != nil {
		u.Object = other.Object
	}
	u.optional = s.optional || other.optional
	return u
}

// Union folds Or over schemas.
func Union(first Schema, rest ...Schema) Schema {
	u := first
	for _, s := range rest {
		u = u.Or(s)
	}
	return u
}

// Has reports whether s lists tag.
func (s Schema) Has(tag models.Tag) bool {
	switch tag {
	case models.Null:
		return s.Null != nil
	case models.Boolean:
		return s.Boolean != nil
	case models.Integer:
		return s.Integer != nil
	case models.Float:
		return s.Float != nil
	case models.String:
		return s.String != nil
	case models.ArrayT:
		return s.Array != nil
	case models.ObjectT:
		return s.Object != nil
	}
	return false
}

// Tags returns the accepted tags in canonical order.
func (s Schema) Tags() []models.Tag {
	tags := make([]models.Tag, 0, len(models.AllTags))
	for _, t := range models.AllTags {
		if s.Has(t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// Literals returns the literal whitelist for a scalar tag, or nil when the tag
// accepts every value of its type.
func (s Schema) Literals(tag models.Tag) []interface{} {
	var out []interface{}
	switch tag {
	case models.Boolean:
		if s.Boolean != nil {
			for _, l := range s.Boolean.Literals {
				out = append(out, l)
			}
		}
	case models.Integer:
		if s.Integer != nil {
			for _, l := range s.Integer.Literals {
				out = append(out, l)
			}
		}
	case models.Float:
		if s.Float != nil {
			for _, l := range s.Float.Literals {
				out = append(out, l)
			}
		}
	case models.String:
		if s.String != nil {
			for _, l := range s.String.Literals {
				out = append(out, l)
			}
		}
	}
	return out
}

// Check verifies that s and every nested schema accept at least one tag.
// Schemas built with the constructors always pass; Check exists for schemas
// assembled by hand or decoded from documents.
func Check(s Schema) error {
	return check(s, "")
}

func check(s Schema, path string) error {
	if len(s.Tags()) == 0 {
		return fmt.Errorf("schema at %s accepts no tags", displayPath(path))
	}
	if s.Array != nil {
		if s.Array.elem != nil && s.Array.tuple != nil {
			return fmt.Errorf("array schema at %s has both an element schema and a tuple", displayPath(path))
		}
		if s.Array.elem != nil {
			if err := check(*s.Array.elem, path+"[]"); err != nil {
				return err
			}
		}
		for i, e := range s.Array.tuple {
			if err := check(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	if s.Object != nil {
		for _, k := range s.Object.Shape.Keys() {
			if err := check(s.Object.Shape[k], path+"."+k); err != nil {
				return err
			}
		}
	}
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
