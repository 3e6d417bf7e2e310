package imagepkg

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/certificate"
)

// pass draws one certificate onto its own surface. Steps run strictly in
// order: later steps paint over earlier ones and depend on offsets computed
// before them.
type pass struct {
	ctx      context.Context
	l        Layout
	s        Style
	dc       *gg.Context
	faces    *faceCache
	texts    certificate.Texts
	data     certificate.Data
	scale    float64
	resolver *Resolver
	qr       QREncoder
	log      *zap.Logger
	observer Observer
	m        *Manifest
}

func (p *pass) draw(photo *PhotoHandle) error {
	p.drawFrame()
	if err := p.drawHeader(); err != nil {
		return err
	}
	row := p.l.LeaderRow(len(p.data.TopLeaderImageURLs))
	if dropped := len(p.data.TopLeaderImageURLs) - len(row); dropped > 0 {
		p.log.Debug("leader row full, dropping entries", zap.Int("dropped", dropped))
	}
	if err := p.drawTitle(row); err != nil {
		return err
	}
	if err := p.drawLeaders(row); err != nil {
		return err
	}
	if err := p.drawMeta(row); err != nil {
		return err
	}
	noteLines, err := p.drawIssue()
	if err != nil {
		return err
	}
	if err := p.drawSlogans(noteLines); err != nil {
		return err
	}
	if err := p.drawIssuePhoto(noteLines, photo); err != nil {
		return err
	}
	withCredit := p.data.HasCredit()
	if err := p.drawPrimary(p.l.FooterTop(withCredit) - 12); err != nil {
		return err
	}
	if err := p.drawQR(); err != nil {
		return err
	}
	return p.drawFooter(withCredit)
}

func (p *pass) drawFrame() {
	p.dc.SetColor(p.s.Background)
	p.dc.Clear()

	b := p.l.BorderBox()
	p.dc.SetColor(p.s.Border)
	p.dc.SetLineWidth(p.s.BorderWidth)
	p.dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	p.dc.Stroke()
	p.m.add(Element{Kind: KindBorder, Box: b})
}

func (p *pass) drawHeader() error {
	h := p.l.HeaderBox()
	p.dc.SetColor(p.s.Primary)
	p.dc.DrawRectangle(h.X, h.Y, h.W, h.H)
	p.dc.Fill()
	p.m.add(Element{Kind: KindHeader, Box: h})

	seal := p.l.SealBox(p.scale)
	cx, cy := seal.X+seal.W/2, seal.Y+seal.H/2
	r := p.l.BadgeRadius(seal)
	p.dc.SetRGBA(0, 0, 0, 0.08)
	p.dc.DrawCircle(cx, cy+2, r+3)
	p.dc.Fill()
	p.dc.SetColor(color.White)
	p.dc.DrawCircle(cx, cy, r)
	p.dc.Fill()

	if a := p.resolver.Resolve(p.ctx, p.s.SealImage); a.Ok() {
		p.drawImage(a.Image, seal)
		p.m.add(Element{Kind: KindSeal, Box: seal})
	} else if err := p.placeholder(KindSeal, seal, "Seal", a.Err); err != nil {
		return err
	}

	width := p.l.HeaderTextWidth(seal)
	y1, y2 := p.l.HeaderTextY()
	mid := h.X + h.W/2
	p.dc.SetColor(color.White)
	title, err := p.fit(Bold, 28, 16, p.texts.HeaderTitle, width)
	if err != nil {
		return err
	}
	p.textAnchored(KindHeaderTitle, title, mid, y1, 0.5, 0.5)
	sub, err := p.fit(Bold, 20, 14, p.texts.HeaderSubtitle, width)
	if err != nil {
		return err
	}
	p.textAnchored(KindHeaderTitle, sub, mid, y2, 0.5, 0.5)
	return nil
}

func (p *pass) drawTitle(row []Box) error {
	width := p.l.LeftColumnWidth(row)
	x := p.l.ContentLeft()
	p.dc.SetColor(p.s.Text)
	title, err := p.fit(Bold, 30, 20, p.texts.Title, width)
	if err != nil {
		return err
	}
	p.textAnchored(KindTitle, title, x, p.l.TitleY(), 0, 0)
	sub, err := p.fit(Bold, 22, 16, p.texts.Subtitle, width)
	if err != nil {
		return err
	}
	p.textAnchored(KindTitle, sub, x, p.l.SubtitleY(), 0, 0)
	return nil
}

func (p *pass) drawLeaders(row []Box) error {
	for i, box := range row {
		p.dc.SetColor(p.s.Border)
		p.dc.SetLineWidth(2)
		p.dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		p.dc.Stroke()

		inner := box.Inset(4)
		name := p.data.LeaderName(i)
		if a := p.resolver.Resolve(p.ctx, p.data.TopLeaderImageURLs[i]); a.Ok() {
			p.drawImage(a.Image, inner)
			p.m.add(Element{Kind: KindLeader, Box: box, Text: name})
		} else if err := p.placeholder(KindLeader, inner, "Leader", a.Err); err != nil {
			return err
		}

		if name == "" {
			continue
		}
		if err := p.setFont(Medium, 13); err != nil {
			return err
		}
		p.dc.SetColor(p.s.Text)
		caption := Ellipsize(name, box.W+p.s.LeaderGap-4, p.measure)
		p.textAnchored(KindLeaderCaption, caption, box.X+box.W/2, p.l.LeaderCaptionY(box), 0.5, 0)
	}
	return nil
}

func (p *pass) drawMeta(row []Box) error {
	if err := p.setFont(Medium, 16); err != nil {
		return err
	}
	width := p.l.LeftColumnWidth(row)
	x := p.l.ContentLeft()
	y1, y2 := p.l.MetaY()
	p.dc.SetColor(p.s.SubText)
	when := fmt.Sprintf("%s: %s", p.texts.DateTimeLabel, p.data.CapturedDisplay())
	where := fmt.Sprintf("%s: %s", p.texts.LocationLabel, p.data.Location())
	p.textAnchored(KindMeta, Ellipsize(when, width, p.measure), x, y1, 0, 0)
	p.textAnchored(KindMeta, Ellipsize(where, width, p.measure), x, y2, 0, 0)
	return nil
}

// drawIssue draws the issue line and the wrapped note, returning how many
// note lines were drawn.
func (p *pass) drawIssue() (int, error) {
	x := p.l.ContentLeft()
	width := p.l.ContentWidth()
	if err := p.setFont(Bold, 20); err != nil {
		return 0, err
	}
	p.dc.SetColor(p.s.Text)
	issue := fmt.Sprintf("%s: %s", p.texts.IssueLabel, p.data.IssueType)
	p.textAnchored(KindIssue, Ellipsize(issue, width, p.measure), x, p.l.IssueY(), 0, 0)

	if p.data.Note == "" {
		return 0, nil
	}
	if err := p.setFont(Medium, 16); err != nil {
		return 0, err
	}
	note := fmt.Sprintf("%s: %s", p.texts.NoteLabel, p.data.Note)
	lines := WrapLines(note, width, p.measure)
	lines = LimitLines(lines, p.s.MaxNoteLines, width, p.measure)
	y := p.l.NoteY()
	for _, line := range lines {
		p.textAnchored(KindNote, line, x, y, 0, 0)
		y += p.s.LineHeight
	}
	return len(lines), nil
}

func (p *pass) drawSlogans(noteLines int) error {
	y1, y2 := p.l.SloganY(noteLines)
	mid := float64(p.s.Width) / 2
	width := p.l.ContentWidth()

	if err := p.setFont(Bold, 18); err != nil {
		return err
	}
	p.dc.SetColor(p.s.Primary)
	p.textAnchored(KindSlogan, Ellipsize(p.texts.Slogan, width, p.measure), mid, y1, 0.5, 0)

	if err := p.setFont(Medium, 15); err != nil {
		return err
	}
	p.dc.SetColor(p.s.SubText)
	p.textAnchored(KindSlogan, Ellipsize(p.texts.ImpactText, width, p.measure), mid, y2, 0.5, 0)
	return nil
}

func (p *pass) drawIssuePhoto(noteLines int, photo *PhotoHandle) error {
	a := photo.Decode(p.ctx, p.s.IssuePhotoTimeout)

	var b Box
	if a.Ok() {
		bounds := a.Image.Bounds()
		b = p.l.PhotoBox(noteLines, bounds.Dx(), bounds.Dy())
	} else {
		b = p.l.PhotoFallbackBox(noteLines)
	}
	p.dc.SetColor(p.s.Border)
	p.dc.SetLineWidth(2)
	p.dc.DrawRectangle(b.X-1, b.Y-1, b.W+2, b.H+2)
	p.dc.Stroke()

	if a.Ok() {
		p.drawImage(a.Image, b)
		p.m.add(Element{Kind: KindIssuePhoto, Box: b})
	} else {
		// only a decode that ran out of time reads as unavailable
		label := "No issue photo provided"
		if a.Err != nil && a.Err.Kind == FailTimeout {
			label = "Issue photo unavailable"
		}
		if err := p.placeholder(KindIssuePhoto, b, label, a.Err); err != nil {
			return err
		}
	}

	y := p.l.DividerY(b)
	p.dc.SetColor(p.s.Border)
	p.dc.SetLineWidth(1)
	p.dc.DrawLine(p.l.ContentLeft(), y, p.l.ContentRight(), y)
	p.dc.Stroke()
	p.m.add(Element{Kind: KindDivider, Box: Box{X: p.l.ContentLeft(), Y: y, W: p.l.ContentWidth(), H: 1}})
	return nil
}

func (p *pass) drawPrimary(limitY float64) error {
	ref, ok := p.data.Primary.URL()
	if !ok {
		return nil
	}
	a := p.resolver.Resolve(p.ctx, ref)
	if !a.Ok() {
		return p.placeholder(KindPrimary, p.l.PrimaryFallbackBox(limitY), "Photo unavailable", a.Err)
	}
	bounds := a.Image.Bounds()
	b := p.l.PrimaryBox(bounds.Dx(), bounds.Dy(), limitY)
	p.drawImage(a.Image, b)
	p.m.add(Element{Kind: KindPrimary, Box: b})
	return nil
}

func (p *pass) drawQR() error {
	target, variant := p.data.QRTarget()
	p.m.QRTarget, p.m.QRVariant = target, variant

	box := p.l.QRBox()
	capBox := p.l.QRCaptionBox()
	inner := box.Inset(8)
	img, err := p.encodeQR(target, int(inner.W))
	if err == nil {
		p.dc.SetColor(color.White)
		p.dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		p.dc.Fill()
		p.dc.SetColor(p.s.Border)
		p.dc.SetLineWidth(2)
		p.dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		p.dc.Stroke()
		qr := imaging.Resize(img, int(inner.W), int(inner.H), imaging.NearestNeighbor)
		p.dc.DrawImage(qr, int(inner.X), int(inner.Y))
		p.m.add(Element{Kind: KindQR, Box: box, Text: target})
		p.m.QREncoded = true

		if err := p.setFont(Medium, 14); err != nil {
			return err
		}
		p.dc.SetColor(p.s.SubText)
		y := capBox.Y + 24
		for _, line := range p.texts.ScanCaption(variant) {
			p.textAnchored(KindQRCaption, Ellipsize(line, capBox.W, p.measure), capBox.Right(), y, 1, 0)
			y += p.s.LineHeight
		}
		if err := p.setFont(Medium, 11); err != nil {
			return err
		}
		p.textAnchored(KindQRCaption, Ellipsize(target, capBox.W, p.measure), capBox.Right(), y, 1, 0)
	} else {
		p.log.Warn("qr encode failed, drawing link text", zap.String("target", target), zap.Error(err))
		p.observer.AssetFallback("qr", FailDecode)
		if err := p.drawQRFallback(target, capBox, box); err != nil {
			return err
		}
	}

	// drawn on both paths
	if err := p.setFont(Medium, 11); err != nil {
		return err
	}
	p.dc.SetColor(p.s.SubText)
	disclaimer := Ellipsize(p.texts.QRDisclaimer, p.l.QRBlockWidth(), p.measure)
	p.textAnchored(KindDisclaimer, disclaimer, box.Right(), p.l.QRDisclaimerY(), 1, 0)
	return nil
}

func (p *pass) drawQRFallback(target string, capBox, box Box) error {
	region := Box{X: capBox.X, Y: box.Y, W: box.Right() - capBox.X, H: box.H}
	if err := p.setFont(Medium, 14); err != nil {
		return err
	}
	p.dc.SetColor(p.s.SubText)
	p.textAnchored(KindQRFallback, p.texts.LinkLabel, region.X, region.Y+24, 0, 0)

	lines := WrapLines(BreakLongWords(target, region.W, p.measure), region.W, p.measure)
	maxLines := int((region.H - 30) / p.s.LineHeight)
	lines = LimitLines(lines, maxLines, region.W, p.measure)
	y := region.Y + 24 + p.s.LineHeight
	for _, line := range lines {
		p.dc.DrawString(line, region.X, y)
		y += p.s.LineHeight
	}
	p.m.add(Element{Kind: KindQRFallback, Box: region, Text: target, Fallback: true})
	return nil
}

// encodeQR keeps encoder panics inside the QR fallback path.
func (p *pass) encodeQR(target string, size int) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("qr encoder panic: %v", rec)
		}
	}()
	return p.qr.Encode(target, size)
}

func (p *pass) drawFooter(withCredit bool) error {
	ys := p.l.FooterLines(withCredit)
	x := p.l.ContentLeft()
	width := p.l.ContentWidth()
	p.dc.SetColor(p.s.SubText)

	if withCredit {
		if err := p.setFont(Bold, 13); err != nil {
			return err
		}
		credit := fmt.Sprintf("%s: %s", p.texts.CreditLabel, p.data.FooterCreditName)
		p.textAnchored(KindCredit, Ellipsize(credit, width, p.measure), x, ys[0], 0, 0)
		ys = ys[1:]
	}
	if err := p.setFont(Medium, 13); err != nil {
		return err
	}
	p.textAnchored(KindFooter, Ellipsize(p.texts.FooterText, width, p.measure), x, ys[0], 0, 0)
	if err := p.setFont(Medium, 11); err != nil {
		return err
	}
	p.textAnchored(KindLegal, Ellipsize(p.texts.LegalLine1, width, p.measure), x, ys[1], 0, 0)
	p.textAnchored(KindLegal, Ellipsize(p.texts.LegalLine2, width, p.measure), x, ys[2], 0, 0)
	return nil
}

// placeholder fills slot with the neutral color and a short label so the
// geometry stays the same as if the asset had loaded.
func (p *pass) placeholder(kind ElementKind, slot Box, label string, cause *LoadError) error {
	p.dc.SetColor(p.s.Placeholder)
	p.dc.DrawRectangle(slot.X, slot.Y, slot.W, slot.H)
	p.dc.Fill()

	if err := p.setFont(Bold, 14); err != nil {
		return err
	}
	p.dc.SetColor(p.s.SubText)
	label = Ellipsize(label, slot.W-8, p.measure)
	p.dc.DrawStringAnchored(label, slot.X+slot.W/2, slot.Y+slot.H/2, 0.5, 0.5)
	p.m.add(Element{Kind: kind, Box: slot, Text: label, Fallback: true})

	failure := FailDecode
	if cause != nil {
		failure = cause.Kind
	}
	p.observer.AssetFallback(string(kind), failure)
	return nil
}

// drawImage scales img to cover dst, cropping the overflow around the center.
func (p *pass) drawImage(img image.Image, dst Box) {
	w, h := int(math.Round(dst.W)), int(math.Round(dst.H))
	if w < 1 || h < 1 {
		return
	}
	// the whole frame is scaled into the box, never cropped
	fitted := imaging.Resize(img, w, h, imaging.Lanczos)
	p.dc.DrawImage(fitted, int(math.Round(dst.X)), int(math.Round(dst.Y)))
}

func (p *pass) setFont(w Weight, size float64) error {
	f, err := p.faces.face(w, size)
	if err != nil {
		return err
	}
	p.dc.SetFontFace(f)
	return nil
}

func (p *pass) measure(s string) float64 {
	w, _ := p.dc.MeasureString(s)
	return w
}

// fit picks the largest size between max and min (in steps of 2) at which s
// fits width, ellipsizing at min as a last resort.
func (p *pass) fit(w Weight, max, min float64, s string, width float64) (string, error) {
	for size := max; size > min; size -= 2 {
		if err := p.setFont(w, size); err != nil {
			return "", err
		}
		if p.measure(s) <= width {
			return s, nil
		}
	}
	if err := p.setFont(w, min); err != nil {
		return "", err
	}
	return Ellipsize(s, width, p.measure), nil
}

// textAnchored draws s anchored at (x, y) like gg.DrawStringAnchored and
// records it in the manifest.
func (p *pass) textAnchored(kind ElementKind, s string, x, y, ax, ay float64) {
	if s == "" {
		return
	}
	w, h := p.dc.MeasureString(s)
	p.dc.DrawStringAnchored(s, x, y, ax, ay)
	baseline := y + ay*h
	p.m.add(Element{Kind: kind, Box: Box{X: x - ax*w, Y: baseline - h, W: w, H: h}, Text: s})
}
