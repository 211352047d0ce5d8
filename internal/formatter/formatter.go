package formatter

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
)

// Part names a piece of rendered output that is not a scalar value.
type Part int

const (
	KeyPart Part = iota
	PunctPart
	PathPart
	LabelPart
)

// Colors maps tags and parts to paint functions. The zero value paints nothing.
type Colors struct {
	tags  map[models.Tag]func(a ...interface{}) string
	parts map[Part]func(a ...interface{}) string
}

// NewColors returns the default palette. Colors are forced on, so callers
// decide whether to use them (see ColorEnabled).
func NewColors() *Colors {
	paint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return &Colors{
		tags: map[models.Tag]func(a ...interface{}) string{
			models.Null:    paint(color.FgMagenta),
			models.Boolean: paint(color.FgCyan),
			models.Integer: paint(color.FgBlue),
			models.Float:   paint(color.FgBlue),
			models.String:  paint(color.FgGreen),
			models.Missing: paint(color.FgRed, color.Italic),
		},
		parts: map[Part]func(a ...interface{}) string{
			KeyPart:   paint(color.FgYellow),
			PunctPart: paint(color.FgHiBlack),
			PathPart:  paint(color.FgRed, color.Bold),
			LabelPart: paint(color.Bold),
		},
	}
}

func (c *Colors) tag(t models.Tag, s string) string {
	if c == nil {
		return s
	}
	if f := c.tags[t]; f != nil {
		return f(s)
	}
	return s
}

func (c *Colors) part(p Part, s string) string {
	if c == nil {
		return s
	}
	if f := c.parts[p]; f != nil {
		return f(s)
	}
	return s
}

// ColorEnabled resolves a color mode (auto, always or never) for w. In auto
// mode colors are used only when w is a terminal and NO_COLOR is unset.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Formatter renders decoded values as indented text with object keys in
// sorted order.
type Formatter struct {
	colors *Colors
	indent string
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithColors paints the output with c.
func WithColors(c *Colors) Option {
	return func(f *Formatter) {
		f.colors = c
	}
}

// WithIndent sets the indentation unit (two spaces by default).
func WithIndent(indent string) Option {
	return func(f *Formatter) {
		f.indent = indent
	}
}

// NewFormatter creates a new Formatter instance
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{indent: "  "}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders v. It fails on values that cannot appear in a decoded tree.
func (f *Formatter) Format(v models.Value) (string, error) {
	var b strings.Builder
	if err := f.write(&b, v, 0); err != nil {
		return "", err
	}
	b.WriteByte('\n')
	return b.String(), nil
}

func (f *Formatter) write(b *strings.Builder, v models.Value, depth int) error {
	t, ok := models.TagOf(v)
	if !ok {
		return errors.NewOutputError(fmt.Sprintf("cannot render value of type %T", v), nil)
	}

	switch t {
	case models.ArrayT:
		arr, _ := models.AsArray(v)
		if len(arr) == 0 {
			b.WriteString(f.colors.part(PunctPart, "[]"))
			return nil
		}
		b.WriteString(f.colors.part(PunctPart, "["))
		for i, elem := range arr {
			f.newline(b, depth+1)
			if err := f.write(b, elem, depth+1); err != nil {
				return err
			}
			if i < len(arr)-1 {
				b.WriteString(f.colors.part(PunctPart, ","))
			}
		}
		f.newline(b, depth)
		b.WriteString(f.colors.part(PunctPart, "]"))

	case models.ObjectT:
		obj, _ := models.AsObject(v)
		if len(obj) == 0 {
			b.WriteString(f.colors.part(PunctPart, "{}"))
			return nil
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(f.colors.part(PunctPart, "{"))
		for i, k := range keys {
			f.newline(b, depth+1)
			key, err := quote(k)
			if err != nil {
				return err
			}
			b.WriteString(f.colors.part(KeyPart, key))
			b.WriteString(f.colors.part(PunctPart, ": "))
			if err := f.write(b, obj[k], depth+1); err != nil {
				return err
			}
			if i < len(keys)-1 {
				b.WriteString(f.colors.part(PunctPart, ","))
			}
		}
		f.newline(b, depth)
		b.WriteString(f.colors.part(PunctPart, "}"))

	default:
		s, err := scalar(t, v)
		if err != nil {
			return err
		}
		b.WriteString(f.colors.tag(t, s))
	}
	return nil
}

func (f *Formatter) newline(b *strings.Builder, depth int) {
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(f.indent, depth))
}

// scalar renders a non-container value. Floats always carry a fraction or an
// exponent so they stay distinguishable from integers.
func scalar(t models.Tag, v models.Value) (string, error) {
	switch t {
	case models.Null:
		return "null", nil
	case models.Boolean:
		return strconv.FormatBool(v.(bool)), nil
	case models.Integer:
		if n, ok := models.AsInt64(v); ok {
			return strconv.FormatInt(n, 10), nil
		}
		return fmt.Sprint(v), nil
	case models.Float:
		n, _ := models.AsFloat64(v)
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return strconv.FormatFloat(n, 'g', -1, 64), nil
		}
		s := strconv.FormatFloat(n, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s, nil
	case models.String:
		return quote(v.(string))
	}
	return "", errors.NewOutputError(fmt.Sprintf("cannot render %s as a scalar", t), nil)
}

func quote(s string) (string, error) {
	data, err := parser.Encode(s)
	if err != nil {
		return "", errors.NewOutputError("failed to encode string", err)
	}
	return string(data), nil
}

// FormatValidationError renders ve over several lines with the failing path
// highlighted and, when present, the offending value.
func (f *Formatter) FormatValidationError(ve *errors.ValidationError) string {
	var b strings.Builder
	b.WriteString(f.colors.part(LabelPart, "response did not match schema"))
	b.WriteByte('\n')

	f.line(&b, "at", f.colors.part(PathPart, errors.DisplayPath(ve.Path)))

	switch {
	case ve.Reason != "":
		f.line(&b, "reason", ve.Reason)
	case len(ve.Literals) > 0:
		allowed := make([]string, 0, len(ve.Literals))
		for _, lit := range ve.Literals {
			s, err := scalar(ve.Actual, lit)
			if err != nil {
				s = fmt.Sprint(lit)
			}
			allowed = append(allowed, f.colors.tag(ve.Actual, s))
		}
		f.line(&b, "expected", fmt.Sprintf("%s in [%s]", ve.Actual, strings.Join(allowed, ", ")))
	default:
		expected := make([]string, len(ve.Expected))
		for i, t := range ve.Expected {
			expected[i] = string(t)
		}
		f.line(&b, "expected", strings.Join(expected, " | "))
		f.line(&b, "got", f.colors.tag(ve.Actual, string(ve.Actual)))
	}

	if ve.Actual != models.Missing {
		if rendered, err := f.Format(ve.Value); err == nil {
			f.line(&b, "value", strings.TrimSuffix(rendered, "\n"))
		}
	}
	return b.String()
}

func (f *Formatter) line(b *strings.Builder, label, text string) {
	b.WriteString(f.indent)
	b.WriteString(f.colors.part(LabelPart, label+":"))
	b.WriteByte(' ')
	// continuation lines of a multi-line value line up under the label
	b.WriteString(strings.ReplaceAll(text, "\n", "\n"+f.indent))
	b.WriteByte('\n')
}
