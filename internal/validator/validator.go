// Package validator checks decoded values against schemas.
package validator

import (
	"fmt"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/schema"
)

// Validator checks values against schemas. The zero value is ready to use.
type Validator struct {
	root string
}

// Option configures a Validator.
type Option func(*Validator)

// WithRootPath prefixes every reported path, e.g. "Regions[2]" when a caller
// validates one element of a larger response.
func WithRootPath(path string) Option {
	return func(v *Validator) {
		v.root = path
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks value against s and returns value unchanged on success.
func (v *Validator) Validate(value models.Value, s schema.Schema) (models.Value, error) {
	return Validate(value, s, v.root)
}

// Validate checks value against s. The first mismatch is returned as a
// *errors.ValidationError whose path is relative to path; on success value is
// returned unchanged.
func Validate(value models.Value, s schema.Schema, path string) (models.Value, error) {
	if err := validate(value, s, path); err != nil {
		return nil, err
	}
	return value, nil
}

func validate(value models.Value, s schema.Schema, path string) error {
	tag, ok := models.TagOf(value)
	if !ok {
		return &errors.ValidationError{
			Path:     path,
			Expected: s.Tags(),
			Value:    value,
			Reason:   fmt.Sprintf("unsupported value type %T", value),
		}
	}
	if !s.Has(tag) {
		return &errors.ValidationError{Path: path, Expected: s.Tags(), Actual: tag, Value: value}
	}

	switch tag {
	case models.Boolean, models.Integer, models.Float, models.String:
		return checkLiteral(value, s, tag, path)
	case models.ArrayT:
		arr, _ := models.AsArray(value)
		return checkArray(arr, s.Array, path)
	case models.ObjectT:
		obj, _ := models.AsObject(value)
		return checkObject(obj, s.Object, path)
	}
	return nil
}

func checkLiteral(value models.Value, s schema.Schema, tag models.Tag, path string) error {
	if literalMatch(value, s, tag) {
		return nil
	}
	return &errors.ValidationError{
		Path:     path,
		Expected: []models.Tag{tag},
		Actual:   tag,
		Literals: s.Literals(tag),
		Value:    value,
	}
}

// literalMatch reports whether value is allowed by the literal whitelist of
// its tag. An empty whitelist allows every value.
func literalMatch(value models.Value, s schema.Schema, tag models.Tag) bool {
	switch tag {
	case models.Boolean:
		if len(s.Boolean.Literals) == 0 {
			return true
		}
		b := value.(bool)
		for _, l := range s.Boolean.Literals {
			if l == b {
				return true
			}
		}
	case models.Integer:
		if len(s.Integer.Literals) == 0 {
			return true
		}
		n, ok := models.AsInt64(value)
		if !ok {
			return false
		}
		for _, l := range s.Integer.Literals {
			if l == n {
				return true
			}
		}
	case models.Float:
		if len(s.Float.Literals) == 0 {
			return true
		}
		f, _ := models.AsFloat64(value)
		for _, l := range s.Float.Literals {
			if l == f {
				return true
			}
		}
	case models.String:
		if len(s.String.Literals) == 0 {
			return true
		}
		str := value.(string)
		for _, l := range s.String.Literals {
			if l == str {
				return true
			}
		}
	}
	return false
}

func checkArray(arr models.Array, rule *schema.ArrayRule, path string) error {
	if elem, ok := rule.Elem(); ok {
		for i, e := range arr {
			if err := validate(e, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}

	tuple, ok := rule.Tuple()
	if !ok {
		return nil
	}
	if len(arr) != len(tuple) {
		return &errors.ValidationError{
			Path:     path,
			Expected: []models.Tag{models.ArrayT},
			Actual:   models.ArrayT,
			Value:    arr,
			Reason:   fmt.Sprintf("expected a tuple of %d elements, got %d", len(tuple), len(arr)),
		}
	}
	for i, e := range arr {
		if err := validate(e, tuple[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func checkObject(obj models.Object, rule *schema.ObjectRule, path string) error {
	for _, key := range rule.Shape.Keys() {
		prop := rule.Shape[key]
		propPath := path + "." + key

		value, present := obj[key]
		if !present {
			if prop.IsOptional() {
				continue
			}
			return &errors.ValidationError{Path: propPath, Expected: prop.Tags(), Actual: models.Missing}
		}
		if err := validate(value, prop, propPath); err != nil {
			return err
		}
	}
	return nil
}
