// Package refdb reads, merges and enriches the reference mineral database:
// a JSON document whose entries are loosely typed field maps keyed by a
// display-name field.
package refdb

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/filex"
)

// Entry is one reference mineral. Numbers decode as json.Number so they are
// written back exactly as read.
type Entry map[string]any

// Document is the reference database file.
//
// Fields is the first-seen order of entry keys across the input. Marshal
// writes every entry's keys in that order; keys it does not list follow in
// alphabetical order.
type Document struct {
	Version       string   `json:"version"`
	Source        string   `json:"source"`
	TotalMinerals int      `json:"total_minerals"`
	CreatedDate   string   `json:"created_date"`
	Changelog     []string `json:"changelog,omitempty"`
	Minerals      []Entry  `json:"minerals"`

	Fields []string `json:"-"`
}

// Load reads the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes document bytes and records the entry key order.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse reference database: %w", err)
	}

	var raw struct {
		Minerals []json.RawMessage `json:"minerals"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse reference database: %w", err)
	}
	for _, m := range raw.Minerals {
		keys, err := objectKeys(m)
		if err != nil {
			return nil, fmt.Errorf("parse reference database: %w", err)
		}
		doc.Fields = appendFields(doc.Fields, keys...)
	}
	return &doc, nil
}

// objectKeys returns the keys of a JSON object in document order. Non-object
// values have no keys.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// appendFields adds the keys not yet in fields, keeping their order.
func appendFields(fields []string, keys ...string) []string {
	out := slices.Clone(fields)
	for _, k := range keys {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// orderedEntry encodes an Entry with its keys ranked by rank.
type orderedEntry struct {
	entry Entry
	rank  map[string]int
}

func (o orderedEntry) MarshalJSON() ([]byte, error) {
	if o.entry == nil {
		return []byte("null"), nil
	}
	keys := slices.Collect(maps.Keys(o.entry))
	slices.SortFunc(keys, func(a, b string) int {
		ra, okA := o.rank[a]
		rb, okB := o.rank[b]
		switch {
		case okA && okB:
			return cmp.Compare(ra, rb)
		case okA:
			return -1
		case okB:
			return 1
		}
		return strings.Compare(a, b)
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		vb, err := encodeValue(o.entry[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Marshal encodes doc with two-space indentation and unescaped non-ASCII and
// HTML characters. Entry keys follow doc.Fields.
func Marshal(doc *Document) ([]byte, error) {
	rank := make(map[string]int, len(doc.Fields))
	for i, f := range doc.Fields {
		rank[f] = i
	}
	minerals := make([]orderedEntry, len(doc.Minerals))
	for i, e := range doc.Minerals {
		minerals[i] = orderedEntry{entry: e, rank: rank}
	}
	wire := struct {
		Version       string         `json:"version"`
		Source        string         `json:"source"`
		TotalMinerals int            `json:"total_minerals"`
		CreatedDate   string         `json:"created_date"`
		Changelog     []string       `json:"changelog,omitempty"`
		Minerals      []orderedEntry `json:"minerals"`
	}{doc.Version, doc.Source, doc.TotalMinerals, doc.CreatedDate, doc.Changelog, minerals}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wire); err != nil {
		return nil, fmt.Errorf("encode reference database: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes doc to path atomically.
func Save(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(path, data, 0o644)
}

// Name returns the trimmed value of field, or "" when it is absent or not a
// string.
func (e Entry) Name(field string) string {
	s, _ := e[field].(string)
	return strings.TrimSpace(s)
}

// NormalizeName is the merge key: trimmed and lower-cased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
