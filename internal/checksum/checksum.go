// Package checksum builds and checks the archive integrity listing: one
// "<path>;<sha256 hex>" line per member, in member order.
package checksum

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mineralog/internal/common"
)

const separator = ";"

// Member is a named blob of archive content.
type Member struct {
	Path string
	Data []byte
}

// Entry is one parsed listing line.
type Entry struct {
	Path   string
	Digest string
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Build renders the listing for members. Lines are joined with '\n' without a
// trailing newline. The output depends only on member paths, bytes and order.
func Build(members []Member) []byte {
	var buf bytes.Buffer
	for i, m := range members {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(m.Path)
		buf.WriteString(separator)
		buf.WriteString(Digest(m.Data))
	}
	return buf.Bytes()
}

// Parse reads a listing. Blank lines and CRLF endings are tolerated; any other
// malformed line or repeated path is an ErrInvalidArchive.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]struct{})

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		idx := strings.LastIndex(text, separator)
		if idx <= 0 {
			return nil, fmt.Errorf("%w: checksum line %d has no path", common.ErrInvalidArchive, line)
		}
		path, digest := text[:idx], strings.ToLower(text[idx+1:])
		if raw, err := hex.DecodeString(digest); err != nil || len(raw) != sha256.Size {
			return nil, fmt.Errorf("%w: checksum line %d has a malformed digest", common.ErrInvalidArchive, line)
		}
		if _, dup := seen[path]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", common.ErrInvalidArchive, path)
		}
		seen[path] = struct{}{}
		entries = append(entries, Entry{Path: path, Digest: digest})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArchive, err)
	}
	return entries, nil
}

// Verify checks every entry against the bytes returned by lookup. A listed
// path that lookup cannot find fails the same way as a digest mismatch.
func Verify(entries []Entry, lookup func(path string) ([]byte, bool)) error {
	for _, e := range entries {
		data, ok := lookup(e.Path)
		if !ok {
			return fmt.Errorf("%w: %s is listed but missing", common.ErrChecksumMismatch, e.Path)
		}
		if got := Digest(data); got != e.Digest {
			return fmt.Errorf("%w: %s: want %s, got %s", common.ErrChecksumMismatch, e.Path, e.Digest, got)
		}
	}
	return nil
}
