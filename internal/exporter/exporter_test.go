package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dmitrijs2005/mineralog/internal/archive"
	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/dmitrijs2005/mineralog/internal/logging"
	"github.com/dmitrijs2005/mineralog/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = archive.Limits{MaxArchiveBytes: 10 << 20, MaxDecompressedBytes: 50 << 20, MaxCompressionRatio: 100}

func newTestExporter() *Exporter {
	p := archive.NewPackager(archive.Options{
		AppName:          "MineraLog",
		SchemaVersion:    "1.0.0",
		Iterations:       1000,
		CompressionLevel: -1,
	}, logging.Discard())
	return New(records.NewBuilder(), p, logging.Discard())
}

func writeCSV(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "catalog.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRun_Plain(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "name,mohsMin,mohsMax,tags\nQuartz,7,7,\"clear, hexagonal\"\nCalcite,3,3,\n")
	media := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(filepath.Join(media, "quartz"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(media, "quartz", "front.jpg"), []byte("jpeg"), 0o600))
	out := filepath.Join(dir, "out.zip")

	e := newTestExporter()
	res, err := e.Run(context.Background(), Request{Input: in, Output: out, MediaDir: media})
	require.NoError(t, err)
	assert.Equal(t, StageDone, e.Stage())
	assert.Equal(t, out, res.Output)
	assert.Equal(t, 2, res.Manifest.Counts.Minerals)
	assert.Equal(t, 1, res.Manifest.Counts.Photos)
	assert.False(t, res.Manifest.Encrypted)

	arc, err := archive.ReadFile(out, limits)
	require.NoError(t, err)
	require.NoError(t, arc.Verify())
	recs, err := arc.Records(nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Quartz", recs[0].Name)
	assert.Equal(t, []string{"clear", "hexagonal"}, recs[0].Tags)
	assert.Contains(t, arc.Media(), "quartz/front.jpg")
}

func TestRun_Encrypted(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "name\nQuartz\n")
	out := filepath.Join(dir, "out.zip")

	res, err := newTestExporter().Run(context.Background(), Request{Input: in, Output: out, Encrypt: true, Password: []byte("secret")})
	require.NoError(t, err)
	assert.True(t, res.Manifest.Encrypted)
	require.NotNil(t, res.Manifest.KDFParams)
	assert.Len(t, res.Manifest.KDFParams.SaltHex, 32)
	assert.Len(t, res.Manifest.IVHex, 24)

	arc, err := archive.ReadFile(out, limits)
	require.NoError(t, err)
	_, err = arc.Records([]byte("wrong"))
	require.ErrorIs(t, err, common.ErrDecryptionFailed)
	recs, err := arc.Records([]byte("secret"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "name\nQuartz\n")
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("name,mohsMin\nQuartz,hard\n"), 0o600))
	noName := filepath.Join(dir, "noname.csv")
	require.NoError(t, os.WriteFile(noName, []byte("formula,notes\n"), 0o600))

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "missing input",
			req:     Request{Input: filepath.Join(dir, "nope.csv")},
			wantErr: common.ErrInputNotFound,
		},
		{
			name:    "malformed row",
			req:     Request{Input: bad},
			wantErr: common.ErrMalformedRow,
		},
		{
			name:    "header without name column",
			req:     Request{Input: noName},
			wantErr: common.ErrMissingName,
		},
		{
			name:    "encrypt without password",
			req:     Request{Input: good, Encrypt: true},
			wantErr: common.ErrPasswordRequired,
		},
		{
			name:    "missing media dir",
			req:     Request{Input: good, MediaDir: filepath.Join(dir, "no-media")},
			wantErr: common.ErrInputNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.zip")
			tt.req.Output = out

			e := newTestExporter()
			_, err := e.Run(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StageFailed, e.Stage())
			assert.NoFileExists(t, out)
		})
	}
}

func TestRun_MissingCapabilityFailsBeforeWrite(t *testing.T) {
	old := checkCapability
	t.Cleanup(func() { checkCapability = old })
	checkCapability = func() error {
		return fmt.Errorf("%w: built without encryption support", common.ErrMissingCapability)
	}

	dir := t.TempDir()
	in := writeCSV(t, dir, "name\nQuartz\n")
	out := filepath.Join(dir, "out.zip")

	e := newTestExporter()
	require.ErrorIs(t, e.Preflight(Request{Input: in, Encrypt: true}), common.ErrMissingCapability)
	require.NoError(t, e.Preflight(Request{Input: in}), "plain exports do not need the cipher")

	_, err := e.Run(context.Background(), Request{Input: in, Output: out, Encrypt: true, Password: []byte("pw")})
	require.ErrorIs(t, err, common.ErrMissingCapability)
	assert.Equal(t, StageFailed, e.Stage())
	assert.NoFileExists(t, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the input remains")
}

func TestRun_UnsafeMediaNameFailsBeforeWrite(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is the path separator on windows")
	}
	dir := t.TempDir()
	in := writeCSV(t, dir, "name\nQuartz\n")
	media := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(media, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(media, `we\ird.jpg`), []byte("jpeg"), 0o600))
	out := filepath.Join(dir, "out.zip")

	e := newTestExporter()
	_, err := e.Run(context.Background(), Request{Input: in, Output: out, MediaDir: media})
	require.ErrorIs(t, err, common.ErrUnsafeName)
	assert.Equal(t, StageFailed, e.Stage())
	assert.NoFileExists(t, out)
}

func TestRun_SymlinkedMediaDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	in := writeCSV(t, dir, "name\nQuartz\n")
	target := filepath.Join(dir, "photos")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.jpg"), []byte("jpeg"), 0o600))
	link := filepath.Join(dir, "media")
	require.NoError(t, os.Symlink(target, link))
	out := filepath.Join(dir, "out.zip")

	res, err := newTestExporter().Run(context.Background(), Request{Input: in, Output: out, MediaDir: link})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Manifest.Counts.Photos)

	arc, err := archive.ReadFile(out, limits)
	require.NoError(t, err)
	require.NoError(t, arc.Verify())
	assert.Contains(t, arc.Media(), "a.jpg")
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "parsing", StageParsing.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
