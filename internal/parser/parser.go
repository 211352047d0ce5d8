package parser

import (
	"bytes"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mcncl/gridcall/internal/errors" // Custom errors package
	"github.com/mcncl/gridcall/internal/models"
)

// Parse converts JSON data from an io.Reader into an IntermediateRepresentation.
// Numbers keep their wire distinction: literals without a fraction or exponent
// become int64, everything else float64.
func Parse(reader io.Reader) (models.IntermediateRepresentation, error) {
	counter := &countingReader{r: reader}
	decoder := json.NewDecoder(counter)
	decoder.UseNumber() // Ensure numbers are read as json.Number

	var rootValue interface{}
	if err := decoder.Decode(&rootValue); err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.IntermediateRepresentation{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		if stderrors.As(err, &syntaxError) {
			return models.IntermediateRepresentation{}, errors.NewParsingError(
				fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
				errors.ErrInvalidJSON,
			)
		}
		if stderrors.As(err, &unmarshalTypeError) {
			return models.IntermediateRepresentation{}, errors.NewParsingError(
				fmt.Sprintf("JSON type error at offset %d for type %s", unmarshalTypeError.Offset, unmarshalTypeError.Type),
				errors.ErrInvalidJSON,
			)
		}
		return models.IntermediateRepresentation{}, errors.NewParsingError("failed to decode JSON", err)
	}

	// Only whitespace may follow the first value. More reports false in
	// front of a stray ']' or '}', so the remainder is read and checked.
	if err := checkTrailing(io.MultiReader(decoder.Buffered(), counter)); err != nil {
		return models.IntermediateRepresentation{}, err
	}

	root, err := normalizeJSONValue(rootValue)
	if err != nil {
		return models.IntermediateRepresentation{}, err
	}

	_, isArray := root.(models.Array)
	return models.IntermediateRepresentation{
		Root:        root,
		RootIsArray: isArray,
		Size:        counter.n,
	}, nil
}

// checkTrailing fails unless r holds only JSON whitespace.
func checkTrailing(r io.Reader) error {
	rest, err := io.ReadAll(r)
	if err != nil {
		return errors.NewInputError("failed to read input", err)
	}
	rest = bytes.Trim(rest, " \t\r\n")
	if len(rest) == 0 {
		return nil
	}

	var trailingValue interface{}
	if json.Unmarshal(rest, &trailingValue) == nil {
		return errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}
	return errors.NewParsingError("invalid trailing data after first JSON value", errors.ErrInvalidJSON)
}

// Decode parses a complete JSON document held in memory and returns its root.
func Decode(data []byte) (models.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParsingError("payload is empty", errors.ErrEmptyInput)
	}
	ir, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ir.Root, nil
}

// Encode serializes an argument map for the wire.
func Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewParsingError("failed to encode JSON", err)
	}
	return data, nil
}

// normalizeJSONValue converts raw decoder output into model types
func normalizeJSONValue(val interface{}) (models.Value, error) {
	switch v := val.(type) {
	case map[string]interface{}:
		obj := make(models.Object, len(v))
		for key, value := range v {
			n, err := normalizeJSONValue(value)
			if err != nil {
				return nil, err
			}
			obj[key] = n
		}
		return obj, nil
	case []interface{}:
		arr := make(models.Array, len(v))
		for i, value := range v {
			n, err := normalizeJSONValue(value)
			if err != nil {
				return nil, err
			}
			arr[i] = n
		}
		return arr, nil
	case json.Number:
		return normalizeNumber(v)
	default:
		return v, nil // string, bool and nil are returned as is
	}
}

func normalizeNumber(num json.Number) (models.Value, error) {
	s := string(num)
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("integer %s does not fit in 64 bits", s), errors.ErrInvalidJSON)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("invalid number %s", s), errors.ErrInvalidJSON)
	}
	return f, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.IntermediateRepresentation{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file)
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
