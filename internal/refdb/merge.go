package refdb

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

// Fields that describe bookkeeping rather than the mineral. They are ignored
// when scoring completeness.
var metadataFields = map[string]struct{}{
	"id": {}, "createdAt": {}, "updatedAt": {}, "isUserDefined": {}, "source": {},
}

// Fields never copied between duplicates during a merge.
var identityFields = map[string]struct{}{
	"id": {}, "createdAt": {}, "updatedAt": {},
}

// FilledFields counts non-metadata fields holding a value: non-blank text,
// non-zero numbers, any boolean, or any other non-null value.
func FilledFields(e Entry) int {
	n := 0
	for k, v := range e {
		if _, skip := metadataFields[k]; skip {
			continue
		}
		if !isEmpty(v) {
			n++
		}
	}
	return n
}

// TextLength is the total number of characters across trimmed text fields.
func TextLength(e Entry) int {
	n := 0
	for _, v := range e {
		if s, ok := v.(string); ok {
			n += utf8.RuneCountInString(strings.TrimSpace(s))
		}
	}
	return n
}

// Rank orders duplicates from most to least complete: filled field count
// descending, then text length descending, then input position ascending.
// The returned slice holds the entries in that order.
func Rank(entries []Entry) []Entry {
	type scored struct {
		e       Entry
		filled  int
		textLen int
		pos     int
	}
	s := make([]scored, len(entries))
	for i, e := range entries {
		s[i] = scored{e: e, filled: FilledFields(e), textLen: TextLength(e), pos: i}
	}
	slices.SortFunc(s, func(a, b scored) int {
		if a.filled != b.filled {
			return b.filled - a.filled
		}
		if a.textLen != b.textLen {
			return b.textLen - a.textLen
		}
		return a.pos - b.pos
	})

	out := make([]Entry, len(s))
	for i, x := range s {
		out[i] = x.e
	}
	return out
}

// Merge combines duplicates into one entry. The highest ranked entry is the
// base; lower ranked entries fill its empty fields (null, blank text, zero
// numbers) and replace text only when theirs is strictly longer. Identity fields come from
// the base alone. Inputs are not modified.
func Merge(entries []Entry) Entry {
	if len(entries) == 0 {
		return nil
	}
	ranked := Rank(entries)
	merged := maps.Clone(ranked[0])

	for _, e := range ranked[1:] {
		for k, v := range e {
			if _, skip := identityFields[k]; skip {
				continue
			}
			if isEmpty(v) {
				continue
			}
			cur, ok := merged[k]
			switch {
			case !ok || isEmpty(cur):
				merged[k] = v
			default:
				cs, curIsText := cur.(string)
				vs, vIsText := v.(string)
				if curIsText && vIsText &&
					utf8.RuneCountInString(strings.TrimSpace(vs)) > utf8.RuneCountInString(strings.TrimSpace(cs)) {
					merged[k] = v
				}
			}
		}
	}
	return merged
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return isZeroNumber(v)
	}
}

func isZeroNumber(v any) bool {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	}
	return false
}
