package imagepkg

import "math"

// Box is an axis-aligned rectangle in canvas pixels.
type Box struct {
	X, Y, W, H float64
}

func (b Box) Right() float64  { return b.X + b.W }
func (b Box) Bottom() float64 { return b.Y + b.H }

// Overlaps reports whether the interiors of a and b intersect.
func (b Box) Overlaps(o Box) bool {
	return b.X < o.Right() && o.X < b.Right() && b.Y < o.Bottom() && o.Y < b.Bottom()
}

func (b Box) Inset(d float64) Box {
	return Box{X: b.X + d, Y: b.Y + d, W: b.W - 2*d, H: b.H - 2*d}
}

// aspectEpsilon keeps degenerate source images from dividing by zero.
const aspectEpsilon = 1e-6

// Layout computes geometry for one Style. All methods are pure.
type Layout struct {
	s Style
}

func NewLayout(s Style) Layout { return Layout{s: s.WithDefaults()} }

func (l Layout) Style() Style { return l.s }

// HeaderDelta is how far everything below the header moves relative to the
// legacy 80px header.
func (l Layout) HeaderDelta() float64 { return l.s.HeaderHeight - l.s.HeaderBaseline }

// below converts a legacy Y coordinate into its shifted canvas position.
func (l Layout) below(legacyY float64) float64 { return legacyY + l.HeaderDelta() }

func (l Layout) Canvas() Box {
	return Box{W: float64(l.s.Width), H: float64(l.s.Height)}
}

func (l Layout) BorderBox() Box {
	in := l.s.BorderInset
	return Box{X: in, Y: in, W: float64(l.s.Width) - 2*in, H: float64(l.s.Height) - 2*in}
}

func (l Layout) ContentLeft() float64  { return l.s.Margin }
func (l Layout) ContentRight() float64 { return float64(l.s.Width) - l.s.Margin }
func (l Layout) ContentWidth() float64 { return l.ContentRight() - l.ContentLeft() }

func (l Layout) HeaderBox() Box {
	in := l.s.BorderInset
	return Box{X: in, Y: in, W: float64(l.s.Width) - 2*in, H: l.s.HeaderHeight}
}

// SealBox places the seal left-aligned and vertically centered in the header.
// The seal never grows taller than the band.
func (l Layout) SealBox(scale float64) Box {
	if scale <= 0 {
		scale = l.s.SealScale
	}
	h := l.HeaderBox()
	size := math.Min(math.Round(l.s.SealBase*scale), h.H-16)
	if size < 1 {
		size = 1
	}
	return Box{X: h.X + 20, Y: h.Y + (h.H-size)/2, W: size, H: size}
}

// BadgeRadius is the radius of the white disc behind the seal.
func (l Layout) BadgeRadius(seal Box) float64 { return seal.W/2 + 10 }

// HeaderTextWidth is the centered width the header titles may use without
// running into the badge.
func (l Layout) HeaderTextWidth(seal Box) float64 {
	h := l.HeaderBox()
	badgeRight := seal.X + seal.W/2 + l.BadgeRadius(seal)
	w := h.W - 2*(badgeRight+16-h.X)
	return math.Max(w, 120)
}

// HeaderTextY returns the vertical centers of the two header lines.
func (l Layout) HeaderTextY() (float64, float64) {
	h := l.HeaderBox()
	y1 := h.Y + math.Floor(h.H/2) - 12
	return y1, y1 + 28
}

func (l Layout) TitleY() float64    { return l.below(140) }
func (l Layout) SubtitleY() float64 { return l.below(170) }

// minLeftColumn is the width always kept free for the title and meta text.
const minLeftColumn = 240

// MaxLeaders is how many leader boxes fit right of the reserved left column.
func (l Layout) MaxLeaders() int {
	step := l.s.LeaderBoxW + l.s.LeaderGap
	n := int(math.Floor((l.ContentWidth() - minLeftColumn) / step))
	if n < 1 {
		n = 1
	}
	return n
}

// LeaderRow returns the boxes for n leader photos, right-aligned against the
// content margin and laid out left to right. Entries that do not fit are
// dropped from the end.
func (l Layout) LeaderRow(n int) []Box {
	if n <= 0 {
		return nil
	}
	if m := l.MaxLeaders(); n > m {
		n = m
	}
	total := float64(n)*l.s.LeaderBoxW + float64(n-1)*l.s.LeaderGap
	x := l.ContentRight() - total
	y := l.below(110)
	boxes := make([]Box, n)
	for i := range boxes {
		boxes[i] = Box{X: x, Y: y, W: l.s.LeaderBoxW, H: l.s.LeaderBoxH}
		x += l.s.LeaderBoxW + l.s.LeaderGap
	}
	return boxes
}

// LeaderCaptionY is the baseline of the caption drawn under a leader box.
func (l Layout) LeaderCaptionY(box Box) float64 { return box.Bottom() + 18 }

// LeftColumnWidth is the width available to text left of the leader row.
func (l Layout) LeftColumnWidth(row []Box) float64 {
	if len(row) == 0 {
		return l.ContentWidth()
	}
	return row[0].X - l.s.LeaderGap - l.ContentLeft()
}

func (l Layout) MetaY() (float64, float64) { return l.below(210), l.below(235) }

func (l Layout) IssueY() float64 { return l.below(270) }
func (l Layout) NoteY() float64  { return l.below(298) }

// SloganY returns the baselines of the two slogan lines. They sit directly
// under the note when one was drawn, otherwise where the note would start.
func (l Layout) SloganY(noteLines int) (float64, float64) {
	y := l.NoteY()
	if noteLines > 0 {
		y += float64(noteLines)*l.s.LineHeight + 4
	}
	return y, y + 24
}

// PhotoTop is the top of the issue photo for the given drawn note lines.
func (l Layout) PhotoTop(noteLines int) float64 {
	_, y2 := l.SloganY(noteLines)
	return y2 + 20
}

func (l Layout) PhotoWidth() float64 { return l.ContentWidth() }

// PhotoHeight preserves the source aspect ratio across the full photo width
// and clamps to PhotoMaxHeight.
func (l Layout) PhotoHeight(srcW, srcH int) float64 {
	aspect := 0.0
	if srcH > 0 {
		aspect = float64(srcW) / float64(srcH)
	}
	h := math.Min(l.s.PhotoMaxHeight, math.Round(l.PhotoWidth()/math.Max(aspect, aspectEpsilon)))
	return math.Max(h, 1)
}

func (l Layout) PhotoBox(noteLines, srcW, srcH int) Box {
	return Box{X: l.ContentLeft(), Y: l.PhotoTop(noteLines), W: l.PhotoWidth(), H: l.PhotoHeight(srcW, srcH)}
}

// PhotoFallbackBox is the slot used when the issue photo is missing.
func (l Layout) PhotoFallbackBox(noteLines int) Box {
	return Box{X: l.ContentLeft(), Y: l.PhotoTop(noteLines), W: l.PhotoWidth(), H: l.s.PhotoFallbackHeight}
}

// DividerY is where the 1px rule under the photo goes.
func (l Layout) DividerY(photo Box) float64 { return photo.Bottom() + 12 }

func (l Layout) BottomY() float64 { return float64(l.s.Height) - l.s.BottomAnchor }

// QRBox is the fixed QR square, right-aligned at the bottom anchor.
func (l Layout) QRBox() Box {
	return Box{X: l.ContentRight() - l.s.QRSize, Y: l.BottomY(), W: l.s.QRSize, H: l.s.QRSize}
}

// QRCaptionBox is the caption area left of the QR square.
func (l Layout) QRCaptionBox() Box {
	q := l.QRBox()
	return Box{X: q.X - 12 - l.s.QRCaptionWidth, Y: q.Y, W: l.s.QRCaptionWidth, H: q.H}
}

// QRBlockWidth is the QR square plus its caption area.
func (l Layout) QRBlockWidth() float64 { return l.QRBox().Right() - l.QRCaptionBox().X }

func (l Layout) QRDisclaimerY() float64 { return l.QRBox().Bottom() + 16 }

// PrimaryWidth is the room left of the QR block for the primary photo.
func (l Layout) PrimaryWidth() float64 {
	return l.ContentRight() - l.QRBlockWidth() - l.s.ElementGap - l.ContentLeft()
}

// PrimaryBox fits the primary photo into the bottom-left slot preserving its
// aspect ratio. The height is clamped to PrimaryMaxHeight and to limitY, the
// top of whatever sits below.
func (l Layout) PrimaryBox(srcW, srcH int, limitY float64) Box {
	avail := l.PrimaryWidth()
	maxH := math.Min(l.s.PrimaryMaxHeight, limitY-l.BottomY())
	aspect := 0.0
	if srcH > 0 {
		aspect = float64(srcW) / float64(srcH)
	}
	aspect = math.Max(aspect, aspectEpsilon)
	h := math.Min(maxH, math.Round(avail/aspect))
	w := math.Min(avail, math.Round(h*aspect))
	return Box{X: l.ContentLeft(), Y: l.BottomY(), W: math.Max(w, 1), H: math.Max(h, 1)}
}

// PrimaryFallbackBox is the whole slot, used for the placeholder.
func (l Layout) PrimaryFallbackBox(limitY float64) Box {
	h := math.Min(l.s.PrimaryMaxHeight, limitY-l.BottomY())
	return Box{X: l.ContentLeft(), Y: l.BottomY(), W: l.PrimaryWidth(), H: math.Max(h, 1)}
}

// FooterLines returns baselines for the footer stack, top to bottom. The
// credit line is included only when withCredit is set.
func (l Layout) FooterLines(withCredit bool) []float64 {
	last := float64(l.s.Height) - l.s.BorderInset - 12
	legal1 := last - 15
	civic := legal1 - 17
	ys := []float64{civic, legal1, last}
	if withCredit {
		ys = append([]float64{civic - 17}, ys...)
	}
	return ys
}

// FooterTop is the highest pixel the footer may touch.
func (l Layout) FooterTop(withCredit bool) float64 {
	return l.FooterLines(withCredit)[0] - 13
}
