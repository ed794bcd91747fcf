// internal/domain/reminder/parse.go
package reminder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseTimes turns free text or a stored custom-times value into times of day.
//
// Two shapes are accepted: a list of tokens separated by commas, semicolons or
// whitespace, and a JSON array of tokens (detected by a leading '['). A token is
// "H:MM", "HH:MM" or a bare four-digit "HHMM". Tokens that do not parse or are
// out of range are dropped; the order of the remaining tokens is kept.
// ParseTimes never fails: empty or unusable input yields an empty slice.
func ParseTimes(text string) []TimeOfDay {
	text = strings.TrimSpace(text)
	if text == "" {
		return []TimeOfDay{}
	}

	var tokens []string
	if strings.HasPrefix(text, "[") {
		tokens = jsonTokens(text)
	} else {
		tokens = strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ';' || unicode.IsSpace(r)
		})
	}

	out := make([]TimeOfDay, 0, len(tokens))
	for _, tok := range tokens {
		if t, ok := parseToken(tok); ok {
			out = append(out, t)
		}
	}
	return out
}

// jsonTokens decodes a JSON array and coerces every element to a string.
// A malformed document yields no tokens at all.
func jsonTokens(text string) []string {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	// Trailing garbage after the array makes the whole value unusable.
	if dec.More() {
		return nil
	}

	tokens := make([]string, 0, len(raw))
	for _, el := range raw {
		switch v := el.(type) {
		case string:
			tokens = append(tokens, v)
		case json.Number:
			tokens = append(tokens, v.String())
		case nil:
			// null elements carry nothing to parse
		default:
			tokens = append(tokens, fmt.Sprint(v))
		}
	}
	return tokens
}

func parseToken(tok string) (TimeOfDay, bool) {
	tok = strings.TrimSpace(tok)

	var hh, mm string
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		hh, mm = tok[:i], tok[i+1:]
		if len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
			return TimeOfDay{}, false
		}
	} else {
		if len(tok) != 4 {
			return TimeOfDay{}, false
		}
		hh, mm = tok[:2], tok[2:]
	}
	if !allDigits(hh) || !allDigits(mm) {
		return TimeOfDay{}, false
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, false
	}

	t := TimeOfDay{Hour: h, Minute: m}
	if !t.Valid() {
		return TimeOfDay{}, false
	}
	return t, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatTimesJSON serializes times the way custom times are persisted: a JSON
// array of "HH:MM" strings.
func FormatTimesJSON(times []TimeOfDay) string {
	items := make([]string, 0, len(times))
	for _, t := range times {
		items = append(items, t.String())
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
