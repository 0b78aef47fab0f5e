package checksum

import (
	"testing"

	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256("abc")
const abcDigest = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

func sample() []Member {
	return []Member{
		{Path: "minerals.json", Data: []byte("abc")},
		{Path: "media/a/b.jpg", Data: []byte{}},
	}
}

func TestDigest_KnownVector(t *testing.T) {
	assert.Equal(t, abcDigest, Digest([]byte("abc")))
}

func TestBuild_FormatAndOrder(t *testing.T) {
	got := string(Build(sample()))
	want := "minerals.json;" + abcDigest + "\n" +
		"media/a/b.jpg;e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	assert.Equal(t, want, got)
}

func TestBuild_Idempotent(t *testing.T) {
	assert.Equal(t, Build(sample()), Build(sample()))
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil))
}

func TestParse_RoundTrip(t *testing.T) {
	entries, err := Parse(Build(sample()))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Path: "minerals.json", Digest: abcDigest}, entries[0])
	assert.Equal(t, "media/a/b.jpg", entries[1].Path)
}

func TestParse_ToleratesCRLFAndBlankLines(t *testing.T) {
	entries, err := Parse([]byte("\r\nminerals.json;" + abcDigest + "\r\n\r\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, abcDigest, entries[0].Digest)
}

func TestParse_PathWithSemicolon(t *testing.T) {
	entries, err := Parse([]byte("media/a;b.jpg;" + abcDigest))
	require.NoError(t, err)
	assert.Equal(t, "media/a;b.jpg", entries[0].Path)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"no separator": "minerals.json",
		"empty path":   ";" + abcDigest,
		"short digest": "minerals.json;abcd",
		"not hex":      "minerals.json;" + string(make([]byte, 64)),
		"duplicate":    "a;" + abcDigest + "\na;" + abcDigest,
	}
	for name, in := range tests {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, common.ErrInvalidArchive, name)
	}
}

func TestVerify(t *testing.T) {
	members := map[string][]byte{"minerals.json": []byte("abc"), "media/a/b.jpg": {}}
	lookup := func(p string) ([]byte, bool) {
		d, ok := members[p]
		return d, ok
	}
	entries, err := Parse(Build(sample()))
	require.NoError(t, err)

	require.NoError(t, Verify(entries, lookup))

	members["minerals.json"] = []byte("abd")
	assert.ErrorIs(t, Verify(entries, lookup), common.ErrChecksumMismatch)

	delete(members, "minerals.json")
	assert.ErrorIs(t, Verify(entries, lookup), common.ErrChecksumMismatch)
}
