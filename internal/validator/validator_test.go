package validator

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
	"github.com/mcncl/gridcall/internal/schema"
)

func requireValidationError(t *testing.T, err error) *errors.ValidationError {
	t.Helper()
	require.Error(t, err)
	ve, ok := errors.AsValidation(err)
	require.True(t, ok, "expected *errors.ValidationError, got %T: %v", err, err)
	return ve
}

func TestValidate_Scalars(t *testing.T) {
	lastLogin := schema.Integer().Or(schema.Boolean(false))

	tests := []struct {
		name    string
		value   models.Value
		schema  schema.Schema
		wantErr bool
		actual  models.Tag
	}{
		{name: "integer in union", value: int64(7), schema: lastLogin},
		{name: "false literal in union", value: false, schema: lastLogin},
		{name: "true rejected by literal", value: true, schema: lastLogin, wantErr: true, actual: models.Boolean},
		{name: "numeric string is not coerced", value: "7", schema: lastLogin, wantErr: true, actual: models.String},
		{name: "float is not integer", value: 7.0, schema: schema.Integer(), wantErr: true, actual: models.Float},
		{name: "integer is not float", value: int64(7), schema: schema.Float(), wantErr: true, actual: models.Integer},
		{name: "null", value: nil, schema: schema.Null()},
		{name: "null rejected", value: nil, schema: schema.String(), wantErr: true, actual: models.Null},
		{name: "string literal", value: "Active", schema: schema.String("Active", "Disabled")},
		{name: "string literal rejected", value: "Unknown", schema: schema.String("Active", "Disabled"), wantErr: true, actual: models.String},
		{name: "float literal", value: 0.5, schema: schema.Float(0.5)},
		{name: "int widths widen", value: 3, schema: schema.Integer(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.value, tt.schema, "")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.value, got)
				return
			}
			ve := requireValidationError(t, err)
			assert.Equal(t, "", ve.Path)
			assert.Equal(t, tt.actual, ve.Actual)
			assert.Nil(t, got)
		})
	}
}

func TestValidate_LiteralFailureListsAllowedValues(t *testing.T) {
	_, err := Validate(true, schema.Boolean(false), ".LastLogin")
	ve := requireValidationError(t, err)

	assert.Equal(t, ".LastLogin", ve.Path)
	assert.Equal(t, []interface{}{false}, ve.Literals)
	assert.Equal(t, "validation failed at .LastLogin: expected boolean in [false], got true", ve.Error())
}

func TestValidate_TagMismatchReportsExpected(t *testing.T) {
	_, err := Validate("7", schema.Integer().Or(schema.Boolean(false)), "")
	ve := requireValidationError(t, err)

	assert.Equal(t, []models.Tag{models.Boolean, models.Integer}, ve.Expected)
	assert.Equal(t, "validation failed at (root): expected boolean|integer, got string", ve.Error())
}

func TestValidate_Object(t *testing.T) {
	online := schema.Object(schema.Shape{
		"Online":       schema.Boolean(),
		"LoginEnabled": schema.Boolean(),
	})

	t.Run("extra properties are ignored", func(t *testing.T) {
		value := models.Object{"Online": true, "LoginEnabled": false, "Extra": "x"}
		got, err := Validate(value, online, "")
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("missing property", func(t *testing.T) {
		_, err := Validate(models.Object{"Online": true}, online, "")
		ve := requireValidationError(t, err)
		assert.Equal(t, ".LoginEnabled", ve.Path)
		assert.Equal(t, models.Missing, ve.Actual)
		assert.Equal(t, []models.Tag{models.Boolean}, ve.Expected)
	})

	t.Run("optional and nullable properties may be absent", func(t *testing.T) {
		s := schema.Object(schema.Shape{
			"Note":  schema.String().Optional(),
			"Owner": schema.String().Or(schema.Null()),
		})
		_, err := Validate(models.Object{}, s, "")
		require.NoError(t, err)

		_, err = Validate(models.Object{"Note": int64(1)}, s, "")
		ve := requireValidationError(t, err)
		assert.Equal(t, ".Note", ve.Path)
	})

	t.Run("first failure in sorted key order", func(t *testing.T) {
		s := schema.Object(schema.Shape{
			"b": schema.String(),
			"a": schema.String(),
			"c": schema.String(),
		})
		_, err := Validate(models.Object{"a": int64(1), "b": int64(2)}, s, "")
		ve := requireValidationError(t, err)
		assert.Equal(t, ".a", ve.Path)
	})

	t.Run("any object", func(t *testing.T) {
		_, err := Validate(map[string]interface{}{"anything": []interface{}{1}}, schema.AnyObject(), "")
		require.NoError(t, err)
	})
}

func TestValidate_Arrays(t *testing.T) {
	t.Run("homogeneous failure reports index", func(t *testing.T) {
		_, err := Validate(models.Array{"a", int64(1), "c"}, schema.ArrayOf(schema.String()), "")
		ve := requireValidationError(t, err)
		assert.Equal(t, "[1]", ve.Path)
		assert.Equal(t, models.Integer, ve.Actual)
	})

	t.Run("empty homogeneous array", func(t *testing.T) {
		_, err := Validate(models.Array{}, schema.ArrayOf(schema.String()), "")
		require.NoError(t, err)
	})

	t.Run("tuple", func(t *testing.T) {
		vec := schema.Tuple(schema.Float(), schema.Float(), schema.Float())

		_, err := Validate(models.Array{1.0, 2.0, 3.0}, vec, ".UserLookAt")
		require.NoError(t, err)

		_, err = Validate(models.Array{1.0, 2.0}, vec, ".UserLookAt")
		ve := requireValidationError(t, err)
		assert.Equal(t, ".UserLookAt", ve.Path)
		assert.Contains(t, ve.Error(), "expected a tuple of 3 elements, got 2")

		_, err = Validate(models.Array{1.0, 2.0, 3.0, 4.0}, vec, "")
		requireValidationError(t, err)

		_, err = Validate(models.Array{1.0, int64(2), 3.0}, vec, ".UserLookAt")
		ve = requireValidationError(t, err)
		assert.Equal(t, ".UserLookAt[1]", ve.Path)
	})

	t.Run("any array", func(t *testing.T) {
		_, err := Validate([]interface{}{nil, "x", 1.5}, schema.AnyArray(), "")
		require.NoError(t, err)
	})

	t.Run("nested path", func(t *testing.T) {
		s := schema.Object(schema.Shape{
			"Regions": schema.ArrayOf(schema.Object(schema.Shape{"owner_uuid": schema.String()})),
		})
		value := models.Object{"Regions": models.Array{
			models.Object{"owner_uuid": "a"},
			models.Object{"owner_uuid": "b"},
			models.Object{"owner_uuid": "c"},
			models.Object{"owner_uuid": false},
		}}
		_, err := Validate(value, s, "")
		ve := requireValidationError(t, err)
		assert.Equal(t, ".Regions[3].owner_uuid", ve.Path)
	})
}

func TestValidate_PlainGoContainers(t *testing.T) {
	s := schema.Object(schema.Shape{
		"Regions": schema.ArrayOf(schema.Object(schema.Shape{"locX": schema.Integer()})),
	})

	value := map[string]interface{}{
		"Regions": []interface{}{
			map[string]interface{}{"locX": 1000},
			map[string]interface{}{"locX": int64(1256)},
		},
	}
	got, err := Validate(value, s, "")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	value["Regions"] = []interface{}{map[string]interface{}{"locX": "1000"}}
	_, err = Validate(value, s, "")
	ve := requireValidationError(t, err)
	assert.Equal(t, ".Regions[0].locX", ve.Path)
	assert.Equal(t, models.String, ve.Actual)
}

func TestValidate_UnsupportedGoType(t *testing.T) {
	_, err := Validate(struct{}{}, schema.AnyObject(), "")
	ve := requireValidationError(t, err)
	assert.Contains(t, ve.Error(), "unsupported value type")
}

func TestValidate_ReturnsInputUnchanged(t *testing.T) {
	doc := `{"Regions":[{"uuid":"a","locX":1000,"size":256.5}],"Total":1,"Flags":[true,false]}`
	value, err := parser.ParseString(doc)
	require.NoError(t, err)
	before, err := parser.ParseString(doc)
	require.NoError(t, err)

	s := schema.Object(schema.Shape{
		"Regions": schema.ArrayOf(schema.Object(schema.Shape{
			"uuid": schema.String(),
			"locX": schema.Integer(),
			"size": schema.Float(),
		})),
		"Total": schema.Integer(),
		"Flags": schema.ArrayOf(schema.Boolean()),
	})

	got, err := Validate(value.Root, s, "")
	require.NoError(t, err)
	if diff := cmp.Diff(before.Root, got); diff != "" {
		t.Errorf("validated value changed (-want +got):\n%s", diff)
	}

	again, err := Validate(got, s, "")
	require.NoError(t, err)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("validation is not idempotent (-first +second):\n%s", diff)
	}
}

func TestValidator_RootPath(t *testing.T) {
	v := New(WithRootPath("Regions[2]"))
	_, err := v.Validate(models.Object{}, schema.Object(schema.Shape{"uuid": schema.String()}))
	ve := requireValidationError(t, err)
	assert.Equal(t, "Regions[2].uuid", ve.Path)

	var zero Validator
	_, err = zero.Validate(int64(1), schema.String())
	ve = requireValidationError(t, err)
	assert.Equal(t, "", ve.Path)
}

func TestValidate_Concurrent(t *testing.T) {
	s := schema.Object(schema.Shape{"Online": schema.Boolean(), "LoginEnabled": schema.Boolean()})
	good := models.Object{"Online": true, "LoginEnabled": true}
	bad := models.Object{"Online": true}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := Validate(good, s, "")
				assert.NoError(t, err)
				return
			}
			_, err := Validate(bad, s, "")
			assert.Error(t, err)
		}(i)
	}
	wg.Wait()
}
