package webui

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mcncl/gridcall/internal/models"
)

// CoerceInt accepts an integer of any Go width or a string of decimal digits
// and returns it as int64. Anything else, including floats and signed or
// padded strings, is rejected.
func CoerceInt(v models.Value) (int64, bool) {
	if n, ok := models.AsInt64(v); ok {
		return n, true
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsUUID reports whether s is a UUID in canonical hyphenated form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// NilUUID is the all-zero UUID the service uses for "none".
var NilUUID = uuid.Nil.String()

// isGraphic reports whether s is non-empty and made of printable characters
// other than space.
func isGraphic(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r > '~'
	})
}
