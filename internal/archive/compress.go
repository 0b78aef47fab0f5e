package archive

import (
	"archive/zip"
	"io"

	"github.com/klauspost/compress/flate"
)

// registerDeflate swaps the standard deflate implementation for the faster
// klauspost one at the given level.
func registerDeflate(w *zip.Writer, level int) {
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
}

func registerInflate(r *zip.Reader) {
	r.RegisterDecompressor(zip.Deflate, func(in io.Reader) io.ReadCloser {
		return flate.NewReader(in)
	})
}
