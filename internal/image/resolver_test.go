package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/youruser/civiccert/internal/certificate"
	"github.com/youruser/civiccert/internal/util"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 0x20, G: 0x60, B: 0xa0, A: 0xff})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// countingBlob counts how often the references it hands out are closed.
type countingBlob struct {
	data   []byte
	closes *atomic.Int32
}

type countingReader struct {
	io.Reader
	closes *atomic.Int32
}

func (r countingReader) Close() error {
	r.closes.Add(1)
	return nil
}

func (b countingBlob) Open() (io.ReadCloser, error) {
	return countingReader{Reader: bytes.NewReader(b.data), closes: b.closes}, nil
}

// stalledBlob never produces data until closed.
type stalledBlob struct {
	closed *atomic.Int32
}

type stalledReader struct {
	*io.PipeReader
	closed *atomic.Int32
}

func (r stalledReader) Close() error {
	r.closed.Add(1)
	return r.PipeReader.Close()
}

func (b stalledBlob) Open() (io.ReadCloser, error) {
	pr, _ := io.Pipe()
	return stalledReader{PipeReader: pr, closed: b.closed}, nil
}

func TestResolveAssetPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "images", "seal.png"), pngBytes(t, 10, 12), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(ResolverOptions{AssetsDir: dir}, zap.NewNop())

	a := r.Resolve(context.Background(), "/images/seal.png")
	if !a.Ok() {
		t.Fatalf("expected asset to load, got %v", a.Err)
	}
	if b := a.Image.Bounds(); b.Dx() != 10 || b.Dy() != 12 {
		t.Fatalf("unexpected size %v", b)
	}

	missing := r.Resolve(context.Background(), "/images/nope.png")
	if missing.Ok() || missing.Err.Kind != FailNotFound {
		t.Fatalf("expected not_found, got %+v", missing.Err)
	}

	escaped := r.Resolve(context.Background(), "../../etc/passwd")
	if escaped.Ok() {
		t.Fatalf("expected traversal outside the assets dir to fail")
	}
}

func TestResolveDataURL(t *testing.T) {
	r := NewResolver(ResolverOptions{}, zap.NewNop())
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4))
	if a := r.Resolve(context.Background(), ref); !a.Ok() {
		t.Fatalf("expected data URL to decode, got %v", a.Err)
	}
	bad := r.Resolve(context.Background(), "data:image/png;base64,not-an-image")
	if bad.Ok() || bad.Err.Kind != FailDecode {
		t.Fatalf("expected decode failure, got %+v", bad.Err)
	}
}

func TestResolveHTTP(t *testing.T) {
	img := pngBytes(t, 6, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/missing" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	r := NewResolver(ResolverOptions{Client: srv.Client()}, zap.NewNop())
	if a := r.Resolve(context.Background(), srv.URL+"/leader.png"); !a.Ok() {
		t.Fatalf("expected remote image, got %v", a.Err)
	}
	a := r.Resolve(context.Background(), srv.URL+"/missing")
	if a.Ok() || a.Err.Kind != FailFetch {
		t.Fatalf("expected fetch failure, got %+v", a.Err)
	}
}

func TestResolveRefusesInternalHosts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		_, _ = w.Write(pngBytes(t, 6, 3))
	}))
	defer srv.Close()

	r := NewResolver(ResolverOptions{}, zap.NewNop())
	a := r.Resolve(context.Background(), srv.URL+"/leader.png")
	if a.Ok() || a.Err.Kind != FailFetch {
		t.Fatalf("expected fetch failure for a loopback host, got %+v", a.Err)
	}
	if !errors.Is(a.Err, util.ErrForbiddenAddress) {
		t.Fatalf("expected ErrForbiddenAddress, got %v", a.Err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected loopback server not to be contacted, got %d hits", hits.Load())
	}
}

type panickingBlob struct{}

func (panickingBlob) Open() (io.ReadCloser, error) { panic("reader gone") }

func TestIssuePhotoOpenPanics(t *testing.T) {
	r := NewResolver(ResolverOptions{}, zap.NewNop())
	for name, blob := range map[string]certificate.Blob{
		"panicking": panickingBlob{},
		"no header": certificate.Upload{},
	} {
		h := r.AcquireIssuePhoto(blob)
		a := h.Decode(context.Background(), time.Second)
		if a.Ok() || a.Err.Kind != FailNotFound {
			t.Fatalf("%s: expected not_found, got %+v", name, a.Err)
		}
		h.Release()
	}
}

func TestResolveEmptyAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewResolver(ResolverOptions{}, zap.New(core))
	a := r.Resolve(context.Background(), "  ")
	if a.Ok() || a.Err.Kind != FailEmpty {
		t.Fatalf("expected empty failure, got %+v", a.Err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
}

func TestIssuePhotoReleasedOnce(t *testing.T) {
	var closes atomic.Int32
	r := NewResolver(ResolverOptions{}, zap.NewNop())
	h := r.AcquireIssuePhoto(countingBlob{data: jpegBytes(t, 80, 60), closes: &closes})
	a := h.Decode(context.Background(), time.Second)
	if !a.Ok() {
		t.Fatalf("expected decode, got %v", a.Err)
	}
	h.Release()
	h.Release()
	if closes.Load() != 1 || h.Released() != 1 {
		t.Fatalf("expected exactly one release, got closes=%d released=%d", closes.Load(), h.Released())
	}
}

func TestIssuePhotoTimeout(t *testing.T) {
	var closed atomic.Int32
	r := NewResolver(ResolverOptions{}, zap.NewNop())
	h := r.AcquireIssuePhoto(stalledBlob{closed: &closed})
	a := h.Decode(context.Background(), 20*time.Millisecond)
	if a.Ok() || a.Err.Kind != FailTimeout {
		t.Fatalf("expected timeout, got %+v", a.Err)
	}
	h.Release()
	if closed.Load() != 1 {
		t.Fatalf("expected reference closed once, got %d", closed.Load())
	}
}

func TestIssuePhotoMissing(t *testing.T) {
	r := NewResolver(ResolverOptions{}, zap.NewNop())
	h := r.AcquireIssuePhoto(nil)
	a := h.Decode(context.Background(), time.Second)
	if a.Ok() || !errors.Is(a.Err, ErrNoIssuePhoto) {
		t.Fatalf("expected ErrNoIssuePhoto, got %v", a.Err)
	}
	h.Release()
}

func TestIssuePhotoGarbage(t *testing.T) {
	r := NewResolver(ResolverOptions{}, zap.NewNop())
	h := r.AcquireIssuePhoto(certificate.Bytes("definitely not an image"))
	defer h.Release()
	a := h.Decode(context.Background(), time.Second)
	if a.Ok() || a.Err.Kind != FailDecode {
		t.Fatalf("expected decode failure, got %+v", a.Err)
	}
}
