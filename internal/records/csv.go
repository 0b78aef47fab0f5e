package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dmitrijs2005/mineralog/internal/common"
)

// Row maps a column name to the raw cell text.
type Row map[string]string

const utf8BOM = "\ufeff"

// ReadFile opens path, reads every row and closes the file before returning.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses comma-separated input with a header row, which must include a
// name column. Header names are trimmed and a leading UTF-8 byte order mark
// is dropped. Rows shorter than
// the header leave the missing columns absent.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input, header row expected", common.ErrMalformedRow)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}
	if !slices.Contains(header, "name") {
		return nil, fmt.Errorf("%w: header has no name column: %w", common.ErrMalformedRow, common.ErrMissingName)
	}

	rows := make([]Row, 0)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrMalformedRow, err)
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
