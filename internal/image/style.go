package imagepkg

import (
	"image/color"
	"time"
)

// Style holds every fixed visual constant of the certificate. A Style is
// passed by value into the renderer and never mutated during a pass.
type Style struct {
	Width  int
	Height int

	BorderInset float64
	BorderWidth float64
	Margin      float64

	HeaderHeight   float64
	HeaderBaseline float64

	Primary     color.NRGBA
	Text        color.NRGBA
	SubText     color.NRGBA
	Border      color.NRGBA
	Placeholder color.NRGBA
	Background  color.NRGBA

	SealImage string
	SealBase  float64
	SealScale float64

	LeaderBoxW float64
	LeaderBoxH float64
	LeaderGap  float64

	PhotoMaxHeight      float64
	PhotoFallbackHeight float64

	BottomAnchor     float64
	QRSize           float64
	QRCaptionWidth   float64
	ElementGap       float64
	PrimaryMaxHeight float64

	LineHeight   float64
	MaxNoteLines int

	IssuePhotoTimeout time.Duration
}

func DefaultStyle() Style {
	return Style{
		Width:               900,
		Height:              1273,
		BorderInset:         20,
		BorderWidth:         4,
		Margin:              40,
		HeaderHeight:        140,
		HeaderBaseline:      80,
		Primary:             color.NRGBA{R: 0x25, G: 0x63, B: 0xEB, A: 0xff},
		Text:                color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff},
		SubText:             color.NRGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff},
		Border:              color.NRGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xff},
		Placeholder:         color.NRGBA{R: 0xF3, G: 0xF4, B: 0xF6, A: 0xff},
		Background:          color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		SealImage:           "/images/gov-seal.png",
		SealBase:            56,
		SealScale:           2.2,
		LeaderBoxW:          110,
		LeaderBoxH:          120,
		LeaderGap:           24,
		PhotoMaxHeight:      420,
		PhotoFallbackHeight: 300,
		BottomAnchor:        360,
		QRSize:              160,
		QRCaptionWidth:      150,
		ElementGap:          24,
		PrimaryMaxHeight:    320,
		LineHeight:          22,
		MaxNoteLines:        2,
		IssuePhotoTimeout:   10 * time.Second,
	}
}

// WithDefaults fills zero fields from DefaultStyle.
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	if s.BorderInset <= 0 {
		s.BorderInset = d.BorderInset
	}
	if s.BorderWidth <= 0 {
		s.BorderWidth = d.BorderWidth
	}
	if s.Margin <= 0 {
		s.Margin = d.Margin
	}
	if s.HeaderHeight <= 0 {
		s.HeaderHeight = d.HeaderHeight
	}
	if s.HeaderBaseline <= 0 {
		s.HeaderBaseline = d.HeaderBaseline
	}
	if s.Primary.A == 0 {
		s.Primary = d.Primary
	}
	if s.Text.A == 0 {
		s.Text = d.Text
	}
	if s.SubText.A == 0 {
		s.SubText = d.SubText
	}
	if s.Border.A == 0 {
		s.Border = d.Border
	}
	if s.Placeholder.A == 0 {
		s.Placeholder = d.Placeholder
	}
	if s.Background.A == 0 {
		s.Background = d.Background
	}
	// the exported image must stay opaque
	s.Background.A = 0xff
	if s.SealImage == "" {
		s.SealImage = d.SealImage
	}
	if s.SealBase <= 0 {
		s.SealBase = d.SealBase
	}
	if s.SealScale <= 0 {
		s.SealScale = d.SealScale
	}
	if s.LeaderBoxW <= 0 {
		s.LeaderBoxW = d.LeaderBoxW
	}
	if s.LeaderBoxH <= 0 {
		s.LeaderBoxH = d.LeaderBoxH
	}
	if s.LeaderGap <= 0 {
		s.LeaderGap = d.LeaderGap
	}
	if s.PhotoMaxHeight <= 0 {
		s.PhotoMaxHeight = d.PhotoMaxHeight
	}
	if s.PhotoFallbackHeight <= 0 {
		s.PhotoFallbackHeight = d.PhotoFallbackHeight
	}
	if s.BottomAnchor <= 0 {
		s.BottomAnchor = d.BottomAnchor
	}
	if s.QRSize <= 0 {
		s.QRSize = d.QRSize
	}
	if s.QRCaptionWidth <= 0 {
		s.QRCaptionWidth = d.QRCaptionWidth
	}
	if s.ElementGap <= 0 {
		s.ElementGap = d.ElementGap
	}
	if s.PrimaryMaxHeight <= 0 {
		s.PrimaryMaxHeight = d.PrimaryMaxHeight
	}
	if s.LineHeight <= 0 {
		s.LineHeight = d.LineHeight
	}
	if s.MaxNoteLines <= 0 {
		s.MaxNoteLines = d.MaxNoteLines
	}
	if s.IssuePhotoTimeout <= 0 {
		s.IssuePhotoTimeout = d.IssuePhotoTimeout
	}
	return s
}
