package refdb

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/mineralog/internal/common"
	"gopkg.in/yaml.v3"
)

// Seed is curated reference data kept outside the code. Minerals are upserted
// by name; Corrections patch existing entries first.
type Seed struct {
	Minerals    []Entry      `yaml:"minerals"`
	Corrections []Correction `yaml:"corrections"`
}

// Correction sets fields on every entry whose name contains Contains and,
// when When is given, whose When fields contain the given substrings.
type Correction struct {
	Contains string            `yaml:"contains"`
	When     map[string]string `yaml:"when"`
	Set      map[string]any    `yaml:"set"`
}

func (c Correction) matches(e Entry, name string) bool {
	if !strings.Contains(name, c.Contains) {
		return false
	}
	for field, sub := range c.When {
		v, ok := e[field]
		if !ok || v == nil || !strings.Contains(fmt.Sprint(v), sub) {
			return false
		}
	}
	return true
}

// apply writes c.Set into e and reports whether any value changed.
func (c Correction) apply(e Entry) bool {
	changed := false
	for k, v := range c.Set {
		if old, ok := e[k]; !ok || !sameValue(old, v) {
			changed = true
		}
		e[k] = v
	}
	return changed
}

// sameValue compares values decoded from JSON and YAML, where the same number
// may be a json.Number on one side and an int or float64 on the other.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aStr || bStr {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// EnrichReport lists the names touched by an Enrich run. Unnamed counts
// input entries dropped for lacking the name field.
type EnrichReport struct {
	Corrected []string
	Collapsed int
	Updated   []string
	Created   []string
	Unnamed   int
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &s, nil
}

// Enricher applies a Seed to a Document.
type Enricher struct {
	NameField string
	Now       func() time.Time
	NewID     func() string
}

// Enrich applies corrections, collapses duplicate names with Merge, then
// upserts seed minerals: existing entries keep their id and get the seed
// fields plus a fresh updatedAt; new entries get a new id and matching
// createdAt/updatedAt. doc is not modified.
func (en *Enricher) Enrich(doc *Document, seed *Seed) (*Document, EnrichReport, error) {
	var report EnrichReport
	now := en.Now().UTC()
	stamp := now.Format(common.TimestampLayout)

	for i, s := range seed.Minerals {
		if s.Name(en.NameField) == "" {
			return nil, report, fmt.Errorf("seed mineral %d has no %s", i+1, en.NameField)
		}
	}
	for i, c := range seed.Corrections {
		if strings.TrimSpace(c.Contains) == "" || len(c.Set) == 0 {
			return nil, report, fmt.Errorf("seed correction %d needs contains and set", i+1)
		}
	}

	byKey := make(map[string][]Entry)
	var keys []string
	for _, src := range doc.Minerals {
		e := maps.Clone(src)
		name := e.Name(en.NameField)
		if name == "" {
			report.Unnamed++
			continue
		}
		corrected := false
		for _, c := range seed.Corrections {
			if c.matches(e, name) && c.apply(e) {
				corrected = true
			}
		}
		if corrected {
			report.Corrected = append(report.Corrected, name)
		}
		key := NormalizeName(name)
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], e)
	}

	index := make(map[string]Entry, len(keys))
	for _, key := range keys {
		g := byKey[key]
		if len(g) > 1 {
			report.Collapsed += len(g) - 1
		}
		index[key] = Merge(g)
	}

	for _, s := range seed.Minerals {
		name := s.Name(en.NameField)
		key := NormalizeName(name)
		if target, ok := index[key]; ok {
			id := target["id"]
			maps.Copy(target, s)
			if id != nil {
				target["id"] = id
			}
			target["updatedAt"] = stamp
			report.Updated = append(report.Updated, name)
			continue
		}
		e := maps.Clone(s)
		e["id"] = en.NewID()
		e["createdAt"] = stamp
		e["updatedAt"] = stamp
		index[key] = e
		keys = append(keys, key)
		report.Created = append(report.Created, name)
	}

	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		out = append(out, index[key])
	}
	sortByName(out, en.NameField)

	changelog := append([]string(nil), doc.Changelog...)
	changelog = append(changelog, fmt.Sprintf("Enriched from seed: %d updated, %d created, %d corrected",
		len(report.Updated), len(report.Created), len(report.Corrected)))

	version := doc.Version
	if version == "" {
		version = DedupeVersion
	}
	return &Document{
		Version:       version,
		Source:        "MineraLog - Enriched reference library",
		TotalMinerals: len(out),
		CreatedDate:   now.Format(time.DateOnly),
		Changelog:     changelog,
		Minerals:      out,
		Fields:        appendFields(doc.Fields, "id", "createdAt", "updatedAt"),
	}, report, nil
}
