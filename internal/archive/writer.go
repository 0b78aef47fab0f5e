// Package archive assembles export archives and reads them back.
//
// An archive holds manifest.json, checksums.sha256, minerals.json and any
// media files under media/. The checksum listing covers every other member.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/mineralog/internal/checksum"
	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/cryptox"
	"github.com/dmitrijs2005/mineralog/internal/filex"
	"github.com/dmitrijs2005/mineralog/internal/logging"
	"github.com/dmitrijs2005/mineralog/internal/models"
)

// Options control how a Packager builds archives.
type Options struct {
	AppName          string
	SchemaVersion    string
	Iterations       int
	CompressionLevel int
}

// Bundle is a fully assembled archive held in memory. Members are in write
// order.
type Bundle struct {
	Manifest models.Manifest
	Members  []checksum.Member
}

// Packager turns records and media into a Bundle and writes it out.
type Packager struct {
	opts Options
	log  logging.Logger
	now  func() time.Time
}

func NewPackager(opts Options, log logging.Logger) *Packager {
	return &Packager{opts: opts, log: log, now: time.Now}
}

// Build serializes records, encrypts the payload when password is non-empty,
// and assembles the member set. Nothing is written to disk.
func (p *Packager) Build(ctx context.Context, records []models.Record, media []filex.File, password []byte) (*Bundle, error) {
	payload, err := MarshalRecords(records)
	if err != nil {
		return nil, err
	}

	exportedAt := p.now().UTC()
	manifest := models.Manifest{
		App:           p.opts.AppName,
		SchemaVersion: p.opts.SchemaVersion,
		ExportedAt:    exportedAt.Format(common.TimestampLayout),
		Counts:        models.Counts{Minerals: len(records), Photos: len(media)},
	}

	if len(password) > 0 {
		p.log.Info(ctx, "encrypting payload", "kdf", models.KDFPBKDF2SHA256, "iterations", p.opts.Iterations)
		ct, params, err := cryptox.Encrypt(payload, password, p.opts.Iterations)
		if err != nil {
			return nil, fmt.Errorf("encrypt payload: %w", err)
		}
		payload = ct
		manifest.Encrypted = true
		manifest.KDF = models.KDFPBKDF2SHA256
		manifest.KDFParams = &models.KDFParams{
			Iterations: params.Iterations,
			SaltHex:    hex.EncodeToString(params.Salt),
		}
		manifest.Cipher = models.CipherAES256GCM
		manifest.IVHex = hex.EncodeToString(params.Nonce)
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	covered := make([]checksum.Member, 0, len(media)+2)
	covered = append(covered,
		checksum.Member{Path: common.ManifestMember, Data: manifestJSON},
		checksum.Member{Path: common.PayloadMember, Data: payload},
	)
	for _, f := range media {
		covered = append(covered, checksum.Member{Path: common.MediaPrefix + f.Rel, Data: f.Data})
	}
	listing := checksum.Build(covered)

	members := make([]checksum.Member, 0, len(covered)+1)
	members = append(members, covered[0], checksum.Member{Path: common.ChecksumsMember, Data: listing})
	members = append(members, covered[1:]...)

	p.log.Debug(ctx, "bundle assembled", "members", len(members), "payload_bytes", len(payload))
	return &Bundle{Manifest: manifest, Members: members}, nil
}

// Write stores b at path. The archive appears at path only once it is
// complete; any failure leaves path as it was.
func (p *Packager) Write(ctx context.Context, path string, b *Bundle) error {
	mod := p.now().UTC()
	if t, err := time.Parse(common.TimestampLayout, b.Manifest.ExportedAt); err == nil {
		mod = t
	}

	err := filex.WriteAtomic(path, 0o600, func(w io.Writer) error {
		return writeZip(w, b.Members, mod, p.opts.CompressionLevel)
	})
	if err != nil {
		return err
	}
	p.log.Info(ctx, "archive written", "path", path, "members", len(b.Members))
	return nil
}

func writeZip(w io.Writer, members []checksum.Member, mod time.Time, level int) error {
	zw := zip.NewWriter(w)
	registerDeflate(zw, level)

	for _, m := range members {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     m.Path,
			Method:   zip.Deflate,
			Modified: mod,
		})
		if err != nil {
			return fmt.Errorf("add %s: %w", m.Path, err)
		}
		if _, err := fw.Write(m.Data); err != nil {
			return fmt.Errorf("write %s: %w", m.Path, err)
		}
	}
	return zw.Close()
}

// MarshalRecords renders records as an indented UTF-8 JSON array without
// HTML escaping or a trailing newline.
func MarshalRecords(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
