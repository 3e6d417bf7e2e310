package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/certificate"
)

var ErrRenderPanic = errors.New("render pass panicked")

// Observer receives render outcomes, e.g. for metrics.
type Observer interface {
	PassFinished(outcome string, d time.Duration)
	AssetFallback(asset string, kind FailureKind)
}

type nopObserver struct{}

func (nopObserver) PassFinished(string, time.Duration) {}
func (nopObserver) AssetFallback(string, FailureKind)  {}

const (
	OutcomeRendered = "rendered"
	OutcomeFailed   = "failed"
)

// Result is what one render pass produces: a complete PNG, or Err and no
// image at all.
type Result struct {
	PNG      []byte
	Manifest *Manifest
	Err      error
}

func (r Result) Ok() bool { return r.Err == nil && len(r.PNG) > 0 }

// Options are the per-pass inputs besides the certificate itself.
type Options struct {
	// Scale multiplies the seal base size. Zero selects the style default.
	Scale float64
	// Texts overrides the renderer's catalog for this pass.
	Texts *certificate.Texts
}

type Renderer struct {
	layout   Layout
	fonts    *FontSet
	resolver *Resolver
	qr       QREncoder
	texts    certificate.Texts
	log      *zap.Logger
	observer Observer
	tracer   trace.Tracer
}

type RendererOption func(*Renderer)

func WithQREncoder(e QREncoder) RendererOption {
	return func(r *Renderer) { r.qr = e }
}

func WithObserver(o Observer) RendererOption {
	return func(r *Renderer) { r.observer = o }
}

func WithTexts(t certificate.Texts) RendererOption {
	return func(r *Renderer) { r.texts = t.Merge(certificate.DefaultTexts()) }
}

func WithLogger(log *zap.Logger) RendererOption {
	return func(r *Renderer) { r.log = log }
}

func NewRenderer(style Style, fonts *FontSet, resolver *Resolver, opts ...RendererOption) *Renderer {
	r := &Renderer{
		layout:   NewLayout(style),
		fonts:    fonts,
		resolver: resolver,
		qr:       SkipQREncoder{Level: qrcode.Medium},
		texts:    certificate.DefaultTexts(),
		log:      zap.NewNop(),
		observer: nopObserver{},
		tracer:   otel.Tracer("github.com/youruser/civiccert/internal/image"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.resolver == nil {
		r.resolver = NewResolver(ResolverOptions{}, r.log)
	}
	if r.fonts == nil {
		// the embedded Go fonts always parse
		r.fonts, _ = DefaultFontSet()
	}
	return r
}

func (r *Renderer) Layout() Layout { return r.layout }

// Render runs one complete pass. Individual asset failures become
// placeholders; anything else, including a panic, yields a Result with Err
// set and no image. The issue photo reference is released on every path.
func (r *Renderer) Render(ctx context.Context, data certificate.Data, opts Options) (res Result) {
	ctx, span := r.tracer.Start(ctx, "certificate.render", trace.WithAttributes(
		attribute.String("certificate.id", data.ID),
		attribute.String("certificate.issue_type", string(data.IssueType)),
		attribute.Int("certificate.leaders", len(data.TopLeaderImageURLs)),
	))
	defer span.End()
	start := time.Now()
	log := r.log.With(zap.String("certificate_id", data.ID))

	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Err: fmt.Errorf("%w: %v", ErrRenderPanic, rec)}
		}
		d := time.Since(start)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			log.Error("certificate render failed", zap.Duration("duration", d), zap.Error(res.Err))
			r.observer.PassFinished(OutcomeFailed, d)
			return
		}
		log.Info("certificate rendered",
			zap.Duration("duration", d),
			zap.Int("bytes", len(res.PNG)),
			zap.Int("fallbacks", len(res.Manifest.Fallbacks())),
		)
		r.observer.PassFinished(OutcomeRendered, d)
	}()

	// released before the outcome above is reported
	photo := r.resolver.AcquireIssuePhoto(data.IssueImage)
	defer photo.Release()

	texts := r.texts
	if opts.Texts != nil {
		texts = opts.Texts.Merge(r.texts)
	}
	s := r.layout.Style()
	faces := newFaceCache(r.fonts)
	defer faces.Close()

	p := &pass{
		ctx:      ctx,
		l:        r.layout,
		s:        s,
		dc:       gg.NewContext(s.Width, s.Height),
		faces:    faces,
		texts:    texts,
		data:     data,
		scale:    opts.Scale,
		resolver: r.resolver,
		qr:       r.qr,
		log:      log,
		observer: r.observer,
		m:        &Manifest{},
	}
	if err := p.draw(photo); err != nil {
		return Result{Err: fmt.Errorf("draw: %w", err)}
	}

	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return Result{Err: fmt.Errorf("export png: %w", err)}
	}
	return Result{PNG: buf.Bytes(), Manifest: p.m}
}
