package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/certificate"
	"github.com/youruser/civiccert/internal/util"
)

type FailureKind int

const (
	FailEmpty FailureKind = iota
	FailNotFound
	FailFetch
	FailDecode
	FailTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailEmpty:
		return "empty"
	case FailNotFound:
		return "not_found"
	case FailFetch:
		return "fetch"
	case FailDecode:
		return "decode"
	case FailTimeout:
		return "timeout"
	}
	return "unknown"
}

// LoadError is the typed failure of a single image asset.
type LoadError struct {
	Ref  string
	Kind FailureKind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("image %q: %s", e.Ref, e.Kind)
	}
	return fmt.Sprintf("image %q: %s: %v", e.Ref, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var ErrNoIssuePhoto = errors.New("no issue photo provided")

// Asset is the outcome of loading one image: exactly one of Image and Err is
// set.
type Asset struct {
	Image image.Image
	Err   *LoadError
}

func (a Asset) Ok() bool { return a.Err == nil && a.Image != nil }

func failed(ref string, kind FailureKind, err error) Asset {
	return Asset{Err: &LoadError{Ref: ref, Kind: kind, Err: err}}
}

type ResolverOptions struct {
	// AssetsDir is the root for references like /images/gov-seal.png.
	AssetsDir string
	// Client fetches http(s) references. Nil selects a client that refuses
	// loopback, private and link-local addresses.
	Client *http.Client
	// MaxBytes caps remote downloads and data URLs.
	MaxBytes int64
}

// Resolver loads image references independently of each other. It never
// returns an error value or panics: failures are reported in the Asset.
type Resolver struct {
	assetsDir string
	client    *http.Client
	maxBytes  int64
	log       *zap.Logger
}

func NewResolver(opts ResolverOptions, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 20 << 20
	}
	if opts.Client == nil {
		opts.Client = util.DefaultClient
	}
	return &Resolver{
		assetsDir: opts.AssetsDir,
		client:    opts.Client,
		maxBytes:  opts.MaxBytes,
		log:       log,
	}
}

// Resolve loads ref, which may be a data URL, an http(s) URL or a path under
// the assets directory.
func (r *Resolver) Resolve(ctx context.Context, ref string) (a Asset) {
	ref = strings.TrimSpace(ref)
	defer func() {
		if !a.Ok() {
			r.log.Warn("image asset unavailable", zap.String("ref", shortRef(ref)), zap.Stringer("kind", a.Err.Kind), zap.Error(a.Err.Err))
		}
	}()
	if ref == "" {
		return failed(ref, FailEmpty, nil)
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err = decodeDataURL(ref, r.maxBytes)
		if err != nil {
			return failed(ref, FailDecode, err)
		}
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		// No cookies or credentials are attached to remote image requests.
		data, err = util.GetBytes(ctx, r.client, ref, r.maxBytes)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return failed(ref, FailTimeout, err)
			}
			return failed(ref, FailFetch, err)
		}
	default:
		p, err := r.assetPath(ref)
		if err != nil {
			return failed(ref, FailNotFound, err)
		}
		data, err = os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return failed(ref, FailNotFound, err)
			}
			return failed(ref, FailFetch, err)
		}
	}

	img, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		return failed(ref, FailDecode, err)
	}
	return Asset{Image: img}
}

// assetPath maps a site-relative reference into AssetsDir without letting it
// escape the directory.
func (r *Resolver) assetPath(ref string) (string, error) {
	if r.assetsDir == "" {
		return "", fmt.Errorf("no assets directory configured for %q", ref)
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	rel := filepath.Clean("/" + filepath.FromSlash(ref))
	return filepath.Join(r.assetsDir, rel), nil
}

func decodeDataURL(ref string, maxBytes int64) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, errors.New("malformed data URL")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if int64(len(payload)) > maxBytes*4/3+4 {
		return nil, fmt.Errorf("data URL exceeds %d bytes", maxBytes)
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// decodeImage decodes with EXIF orientation applied. Panics from broken
// decoders are turned into errors.
func decodeImage(rd io.Reader) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	return imaging.Decode(rd, imaging.AutoOrientation(true))
}

func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") && len(ref) > 48 {
		return ref[:48] + "…"
	}
	return ref
}

// PhotoHandle is the temporary reference to the issue photo held by one pass.
// Release closes it exactly once.
type PhotoHandle struct {
	rc      io.ReadCloser
	openErr *LoadError

	once     sync.Once
	released int
	mu       sync.Mutex
}

// AcquireIssuePhoto opens blob for decoding. A nil blob yields a handle whose
// Decode reports ErrNoIssuePhoto.
func (r *Resolver) AcquireIssuePhoto(blob certificate.Blob) *PhotoHandle {
	if blob == nil {
		return &PhotoHandle{openErr: &LoadError{Ref: "issue-photo", Kind: FailEmpty, Err: ErrNoIssuePhoto}}
	}
	rc, err := openBlob(blob)
	if err != nil {
		r.log.Warn("issue photo unavailable", zap.Error(err))
		return &PhotoHandle{openErr: &LoadError{Ref: "issue-photo", Kind: FailNotFound, Err: err}}
	}
	return &PhotoHandle{rc: rc}
}

// openBlob turns a panicking Open into an error.
func openBlob(blob certificate.Blob) (rc io.ReadCloser, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rc, err = nil, fmt.Errorf("open issue photo: panic: %v", rec)
		}
	}()
	return blob.Open()
}

// Decode reads the photo, giving up after timeout. A timeout is reported like
// any other decode failure.
func (h *PhotoHandle) Decode(ctx context.Context, timeout time.Duration) Asset {
	if h.openErr != nil {
		return Asset{Err: h.openErr}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := decodeImage(h.rc)
		done <- result{img: img, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return failed("issue-photo", FailDecode, res.err)
		}
		return Asset{Image: res.img}
	case <-ctx.Done():
		// Release closes the reader, which unblocks the decoder goroutine.
		return failed("issue-photo", FailTimeout, ctx.Err())
	}
}

func (h *PhotoHandle) Release() {
	h.once.Do(func() {
		h.mu.Lock()
		h.released++
		h.mu.Unlock()
		if h.rc != nil {
			_ = h.rc.Close()
		}
	})
}

// Released reports how many times the underlying reference was closed.
func (h *PhotoHandle) Released() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
