package catalog

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Source opens the raw catalog document. Each call returns a fresh reader
// that the caller must close.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

// Open calls f.
func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }

// Embedded returns a Source serving a document compiled into the binary.
func Embedded(data []byte) Source {
	return SourceFunc(func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FileSource reads the document from a local path. Paths ending in ".gz" are
// decompressed on the fly.
type FileSource struct {
	Path string
}

// Open implements Source.
func (s FileSource) Open(context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	if !strings.HasSuffix(s.Path, ".gz") {
		return f, nil
	}
	return gunzip(f)
}

// HTTPSource fetches the document from a URL. A single attempt is made per
// Open; there is no retry.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource whose requests are traced with tp and
// bounded by timeout.
func NewHTTPSource(url string, timeout time.Duration, tp trace.TracerProvider) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithTracerProvider(tp)),
		},
	}
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch catalog")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}
	if strings.HasSuffix(s.url, ".gz") || resp.Header.Get("Content-Type") == "application/gzip" {
		return gunzip(resp.Body)
	}
	return resp.Body, nil
}

type gzipReadCloser struct {
	*pgzip.Reader
	under io.Closer
}

func (g gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}

func gunzip(rc io.ReadCloser) (io.ReadCloser, error) {
	zr, err := pgzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, errors.Wrap(err, "open gzip catalog")
	}
	return gzipReadCloser{Reader: zr, under: rc}, nil
}

var (
	_ Source = FileSource{}
	_ Source = (*HTTPSource)(nil)
)
