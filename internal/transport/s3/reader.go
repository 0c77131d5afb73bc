package s3

import (
	"io"

	"freighter/internal/transport"
)

// progressReader counts bytes as the upload manager consumes them and
// reports the cumulative total. It deliberately implements only io.Reader so
// the manager streams parts sequentially instead of seeking, which keeps the
// byte count monotonic.
type progressReader struct {
	r          io.Reader
	onProgress transport.ProgressFunc
	total      int64
}

func newProgressReader(r io.Reader, onProgress transport.ProgressFunc) io.Reader {
	if onProgress == nil {
		return r
	}
	return &progressReader{r: r, onProgress: onProgress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.total += int64(n)
		p.onProgress(p.total)
	}
	return n, err
}
