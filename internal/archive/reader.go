package archive

import (
	"archive/zip"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dmitrijs2005/mineralog/internal/checksum"
	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/cryptox"
	"github.com/dmitrijs2005/mineralog/internal/models"
)

// Limits bound the resources spent opening an untrusted archive.
type Limits struct {
	MaxArchiveBytes      int64
	MaxDecompressedBytes int64
	MaxCompressionRatio  int
}

// Archive is an archive read fully into memory.
type Archive struct {
	Manifest  models.Manifest
	Checksums []checksum.Entry

	members map[string][]byte
	order   []string
}

// ReadFile opens and reads the archive at p.
func ReadFile(p string, limits Limits) (*Archive, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrInputNotFound, p)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	return Read(f, fi.Size(), limits)
}

// Read parses an archive of the given size. Unsafe member names, oversize
// input, suspicious compression ratios and missing required members are all
// ErrInvalidArchive.
func Read(r io.ReaderAt, size int64, limits Limits) (*Archive, error) {
	if limits.MaxArchiveBytes > 0 && size > limits.MaxArchiveBytes {
		return nil, fmt.Errorf("%w: archive is %d bytes, limit is %d", common.ErrInvalidArchive, size, limits.MaxArchiveBytes)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArchive, err)
	}
	registerInflate(zr)

	a := &Archive{members: make(map[string][]byte)}
	var total int64
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		name, ok := sanitizeName(f.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unsafe member path %q", common.ErrInvalidArchive, f.Name)
		}
		if _, dup := a.members[name]; dup {
			return nil, fmt.Errorf("%w: duplicate member %s", common.ErrInvalidArchive, name)
		}
		if limits.MaxCompressionRatio > 0 && f.CompressedSize64 > 0 &&
			f.UncompressedSize64/f.CompressedSize64 > uint64(limits.MaxCompressionRatio) {
			return nil, fmt.Errorf("%w: %s compression ratio exceeds %d:1", common.ErrInvalidArchive, name, limits.MaxCompressionRatio)
		}

		data, err := readMember(f, limits.MaxDecompressedBytes-total, limits.MaxDecompressedBytes > 0)
		if err != nil {
			return nil, err
		}
		total += int64(len(data))

		a.members[name] = data
		a.order = append(a.order, name)
	}

	for _, required := range []string{common.ManifestMember, common.ChecksumsMember, common.PayloadMember} {
		if _, ok := a.members[required]; !ok {
			return nil, fmt.Errorf("%w: missing %s", common.ErrInvalidArchive, required)
		}
	}

	if err := json.Unmarshal(a.members[common.ManifestMember], &a.Manifest); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", common.ErrInvalidArchive, err)
	}
	a.Checksums, err = checksum.Parse(a.members[common.ChecksumsMember])
	if err != nil {
		return nil, err
	}
	return a, nil
}

func readMember(f *zip.File, budget int64, limited bool) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	var src io.Reader = rc
	if limited {
		src = io.LimitReader(rc, budget+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrInvalidArchive, f.Name, err)
	}
	if limited && int64(len(data)) > budget {
		return nil, fmt.Errorf("%w: decompressed size exceeds limit", common.ErrInvalidArchive)
	}
	return data, nil
}

// sanitizeName rejects absolute paths, parent references and backslashes,
// and returns the cleaned slash path.
func sanitizeName(name string) (string, bool) {
	if name == "" || strings.Contains(name, `\`) || strings.HasPrefix(name, "/") {
		return "", false
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", false
		}
	}
	return clean, true
}

// Members returns member names in archive order.
func (a *Archive) Members() []string {
	return append([]string(nil), a.order...)
}

// Member returns the bytes of a member.
func (a *Archive) Member(name string) ([]byte, bool) {
	d, ok := a.members[name]
	return d, ok
}

// Media returns the media members keyed by their path below media/.
func (a *Archive) Media() map[string][]byte {
	out := make(map[string][]byte)
	for _, name := range a.order {
		if rel, ok := strings.CutPrefix(name, common.MediaPrefix); ok {
			out[rel] = a.members[name]
		}
	}
	return out
}

// Verify checks every checksum line against the member bytes.
func (a *Archive) Verify() error {
	return checksum.Verify(a.Checksums, a.Member)
}

// Unlisted returns members other than the listing itself that carry no
// checksum line.
func (a *Archive) Unlisted() []string {
	listed := make(map[string]struct{}, len(a.Checksums))
	for _, e := range a.Checksums {
		listed[e.Path] = struct{}{}
	}
	var out []string
	for _, name := range a.order {
		if name == common.ChecksumsMember {
			continue
		}
		if _, ok := listed[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// CheckSchema accepts manifests whose major schema version equals the major
// version of supported.
func (a *Archive) CheckSchema(supported string) error {
	if major(a.Manifest.SchemaVersion) != major(supported) {
		return fmt.Errorf("%w: archive has %q, this build reads %s.x", common.ErrUnsupportedSchema, a.Manifest.SchemaVersion, major(supported))
	}
	return nil
}

func major(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	m, _, _ := strings.Cut(v, ".")
	return m
}

// Payload returns the plaintext minerals.json bytes, decrypting with password
// when the manifest says the payload is encrypted.
func (a *Archive) Payload(password []byte) ([]byte, error) {
	data := a.members[common.PayloadMember]
	if !a.Manifest.Encrypted {
		return data, nil
	}
	if len(password) == 0 {
		return nil, common.ErrPasswordRequired
	}

	params, err := a.decryptParams()
	if err != nil {
		return nil, err
	}
	return cryptox.Decrypt(data, password, params)
}

func (a *Archive) decryptParams() (cryptox.Params, error) {
	m := a.Manifest
	if m.KDF != models.KDFPBKDF2SHA256 || m.Cipher != models.CipherAES256GCM {
		return cryptox.Params{}, fmt.Errorf("%w: unsupported kdf %q / cipher %q", common.ErrInvalidArchive, m.KDF, m.Cipher)
	}
	if m.KDFParams == nil {
		return cryptox.Params{}, fmt.Errorf("%w: missing kdfParams", common.ErrInvalidArchive)
	}
	salt, err := hex.DecodeString(m.KDFParams.SaltHex)
	if err != nil {
		return cryptox.Params{}, fmt.Errorf("%w: saltHex: %v", common.ErrInvalidArchive, err)
	}
	nonce, err := hex.DecodeString(m.IVHex)
	if err != nil {
		return cryptox.Params{}, fmt.Errorf("%w: ivHex: %v", common.ErrInvalidArchive, err)
	}
	return cryptox.Params{Iterations: m.KDFParams.Iterations, Salt: salt, Nonce: nonce}, nil
}

// Records decodes the payload into records.
func (a *Archive) Records(password []byte) ([]models.Record, error) {
	payload, err := a.Payload(password)
	if err != nil {
		return nil, err
	}
	return UnmarshalRecords(payload)
}

// UnmarshalRecords decodes a plaintext minerals.json payload.
func UnmarshalRecords(payload []byte) ([]models.Record, error) {
	var recs []models.Record
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidArchive, common.PayloadMember, err)
	}
	return recs, nil
}
