// Package records converts tabular rows into catalog records.
//
// Blank cells become the unset marker (nil) rather than zero values, and a
// populated numeric cell that does not parse aborts the whole build.
package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/models"
	"github.com/google/uuid"
)

var (
	provenanceColumns = []string{
		"site", "locality", "country", "lat", "lon",
		"acquiredAt", "source", "price", "estimatedValue",
	}
	storageColumns = []string{"place", "container", "box", "slot"}

	truthy = map[string]struct{}{"true": {}, "1": {}, "yes": {}}
)

// RowError reports the input line and column that could not be converted.
// It matches common.ErrMalformedRow with errors.Is.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{common.ErrMalformedRow, e.Err}
}

// Builder turns rows into records. The zero value is not usable; call
// NewBuilder.
type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Build converts rows in order. The first failing row stops the build and no
// records are returned.
func (b *Builder) Build(rows []Row) ([]models.Record, error) {
	stamp := b.now().UTC().Format(common.TimestampLayout)

	out := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		// header is line 1
		rec, err := b.buildRow(i+2, row, stamp)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (b *Builder) buildRow(line int, row Row, stamp string) (models.Record, error) {
	p := parser{line: line, row: row}

	name := p.text("name")
	if name == nil {
		return models.Record{}, &RowError{Line: line, Column: "name", Err: common.ErrMissingName}
	}

	rec := models.Record{
		ID:              b.idOr(p.text("id")),
		Name:            *name,
		Group:           p.text("group"),
		Formula:         p.text("formula"),
		CrystalSystem:   p.text("crystalSystem"),
		MohsMin:         p.number("mohsMin"),
		MohsMax:         p.number("mohsMax"),
		Cleavage:        p.text("cleavage"),
		Fracture:        p.text("fracture"),
		Luster:          p.text("luster"),
		Streak:          p.text("streak"),
		Diaphaneity:     p.text("diaphaneity"),
		Habit:           p.text("habit"),
		SpecificGravity: p.number("specificGravity"),
		Fluorescence:    p.text("fluorescence"),
		Magnetic:        p.flag("magnetic"),
		Radioactive:     p.flag("radioactive"),
		DimensionsMm:    p.text("dimensionsMm"),
		WeightGr:        p.number("weightGr"),
		Notes:           p.text("notes"),
		Tags:            splitTags(row["tags"]),
		Status:          valueOr(p.text("status"), common.DefaultStatus),
		CreatedAt:       valueOr(p.text("createdAt"), stamp),
		UpdatedAt:       valueOr(p.text("updatedAt"), stamp),
		Photos:          []models.Photo{},
	}

	if anyPopulated(row, provenanceColumns) {
		rec.Provenance = &models.Provenance{
			ID:             b.newID(),
			MineralID:      rec.ID,
			Site:           p.text("site"),
			Locality:       p.text("locality"),
			Country:        p.text("country"),
			Latitude:       p.number("lat"),
			Longitude:      p.number("lon"),
			AcquiredAt:     p.text("acquiredAt"),
			Source:         p.text("source"),
			Price:          p.number("price"),
			EstimatedValue: p.number("estimatedValue"),
		}
	}

	if anyPopulated(row, storageColumns) {
		rec.Storage = &models.Storage{
			ID:        b.newID(),
			MineralID: rec.ID,
			Place:     p.text("place"),
			Container: p.text("container"),
			Box:       p.text("box"),
			Slot:      p.text("slot"),
			QRContent: common.QRScheme + rec.ID,
		}
	}

	if p.err != nil {
		return models.Record{}, p.err
	}
	return rec, nil
}

func (b *Builder) idOr(id *string) string {
	if id != nil {
		return *id
	}
	return b.newID()
}

// parser reads typed cells from one row and keeps the first conversion error.
type parser struct {
	line int
	row  Row
	err  error
}

func (p *parser) text(col string) *string {
	v := strings.TrimSpace(p.row[col])
	if v == "" {
		return nil
	}
	return &v
}

func (p *parser) number(col string) *float64 {
	raw := strings.TrimSpace(p.row[col])
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("not a finite number")
	}
	if err != nil {
		if p.err == nil {
			p.err = &RowError{Line: p.line, Column: col, Value: raw, Err: err}
		}
		return nil
	}
	return &f
}

func (p *parser) flag(col string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(p.row[col]))]
	return ok
}

// anyPopulated reports whether at least one of cols holds non-blank text.
func anyPopulated(row Row, cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(row[c]) != "" {
			return true
		}
	}
	return false
}

// splitTags splits a comma-separated cell, dropping blanks and repeats.
func splitTags(raw string) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

func valueOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
