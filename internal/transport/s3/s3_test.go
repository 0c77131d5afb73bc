package s3

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"

	smithyhttp "github.com/aws/smithy-go/transport/http"

	"freighter/internal/transport"
)

func TestObjectKeyComposition(t *testing.T) {
	cases := []struct {
		name     string
		prefix   string
		category string
		filename string
		want     string
	}{
		{"bare", "", "", "a.bin", "a.bin"},
		{"prefix only", "incoming", "", "a.bin", "incoming/a.bin"},
		{"category only", "", "image", "pic.png", "image/pic.png"},
		{"both", "incoming", "image", "pic.png", "incoming/image/pic.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &Transport{prefix: tc.prefix}
			got := tr.objectKey(transport.Request{Category: tc.category, Filename: tc.filename})
			if got != tc.want {
				t.Fatalf("objectKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProgressReaderReportsCumulativeBytes(t *testing.T) {
	payload := bytes.Repeat([]byte{0x1}, 100)
	var samples []int64
	reader := newProgressReader(bytes.NewReader(payload), func(uploaded int64) {
		samples = append(samples, uploaded)
	})

	buf := make([]byte, 30)
	for {
		if _, err := reader.Read(buf); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}

	if len(samples) == 0 {
		t.Fatal("no progress samples reported")
	}
	for i := 1; i < len(samples); i++ {
		if samples[i] <= samples[i-1] {
			t.Fatalf("samples not strictly increasing: %v", samples)
		}
	}
	if samples[len(samples)-1] != 100 {
		t.Fatalf("final sample = %d, want 100", samples[len(samples)-1])
	}
}

func TestProgressReaderNilCallbackPassthrough(t *testing.T) {
	src := bytes.NewReader([]byte("abc"))
	if reader := newProgressReader(src, nil); reader != io.Reader(src) {
		t.Fatal("nil callback should return the source reader unchanged")
	}
}

func TestWrapUploadErrorTranslatesResponseErrors(t *testing.T) {
	respErr := &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: 503}},
		Err:      errors.New("slow down"),
	}

	wrapped := wrapUploadError(respErr)
	var statusErr *transport.StatusError
	if !errors.As(wrapped, &statusErr) {
		t.Fatalf("expected StatusError, got %T", wrapped)
	}
	if statusErr.Code != 503 || !statusErr.Retryable() {
		t.Fatalf("StatusError = %+v", statusErr)
	}

	plain := errors.New("dial tcp: timeout")
	if wrapped := wrapUploadError(plain); !errors.Is(wrapped, plain) {
		t.Fatalf("plain error not preserved: %v", wrapped)
	}
}
