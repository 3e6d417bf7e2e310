package imagepkg

import (
	"fmt"
	"image"
	"os"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

type Weight int

const (
	Medium Weight = iota
	Bold
)

// FontSet holds parsed fonts. Parsed fonts are safe to share between passes;
// faces are not and are created per pass.
//
// Fallbacks cover scripts the primary fonts lack, e.g. Devanagari for the
// Hindi lines of the text catalog. Each rune is drawn with the first font
// that has a glyph for it.
type FontSet struct {
	medium    *opentype.Font
	bold      *opentype.Font
	fallbacks []*opentype.Font
}

// DefaultFontSet uses the embedded Go fonts.
func DefaultFontSet() (*FontSet, error) {
	return LoadFontSet("", "")
}

// LoadFontSet parses TTF/OTF files. An empty path selects the embedded Go
// font for that weight. Fallback fonts are used for both weights.
func LoadFontSet(mediumPath, boldPath string, fallbackPaths ...string) (*FontSet, error) {
	medium, err := parseFont(mediumPath, gomedium.TTF)
	if err != nil {
		return nil, fmt.Errorf("medium font: %w", err)
	}
	bold, err := parseFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	fs := &FontSet{medium: medium, bold: bold}
	for _, p := range fallbackPaths {
		if p == "" {
			continue
		}
		f, err := parseFont(p, nil)
		if err != nil {
			return nil, fmt.Errorf("fallback font: %w", err)
		}
		fs.fallbacks = append(fs.fallbacks, f)
	}
	return fs, nil
}

// WithFallback returns a copy of fs that also draws with f.
func (fs *FontSet) WithFallback(f *opentype.Font) *FontSet {
	out := *fs
	out.fallbacks = append(append([]*opentype.Font(nil), fs.fallbacks...), f)
	return &out
}

// Missing returns the distinct runes of s that no font in the set can draw.
// Spaces and control characters are ignored.
func (fs *FontSet) Missing(s string) []rune {
	var (
		buf  sfnt.Buffer
		seen = make(map[rune]bool)
		out  []rune
	)
	fonts := append([]*opentype.Font{fs.medium}, fs.fallbacks...)
	for _, r := range s {
		if seen[r] || unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		seen[r] = true
		covered := false
		for _, f := range fonts {
			if idx, err := f.GlyphIndex(&buf, r); err == nil && idx != 0 {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, r)
		}
	}
	return out
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return f, nil
}

type faceKey struct {
	weight Weight
	size   float64
}

// faceCache creates faces lazily for one pass and closes them afterwards.
type faceCache struct {
	fonts *FontSet
	faces map[faceKey]font.Face
}

func newFaceCache(fonts *FontSet) *faceCache {
	return &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(w Weight, size float64) (font.Face, error) {
	k := faceKey{weight: w, size: size}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	src := c.fonts.medium
	if w == Bold {
		src = c.fonts.bold
	}
	chain := make(chainFace, 0, 1+len(c.fonts.fallbacks))
	for _, ot := range append([]*opentype.Font{src}, c.fonts.fallbacks...) {
		f, err := newFace(ot, size)
		if err != nil {
			chain.Close()
			return nil, fmt.Errorf("font face %v/%g: %w", w, size, err)
		}
		chain = append(chain, f)
	}
	var f font.Face = chain
	if len(chain) == 1 {
		f = chain[0]
	}
	c.faces[k] = f
	return f, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (c *faceCache) Close() {
	for k, f := range c.faces {
		_ = f.Close()
		delete(c.faces, k)
	}
}

// chainFace draws each rune with the first face that has a glyph for it.
// Metrics come from the first face so line positions do not depend on the
// script of the text.
type chainFace []font.Face

func (c chainFace) pick(r rune) font.Face {
	for _, f := range c {
		if _, ok := f.GlyphAdvance(r); ok {
			return f
		}
	}
	return c[0]
}

func (c chainFace) Close() error {
	var first error
	for _, f := range c {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c chainFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	return c.pick(r).Glyph(dot, r)
}

func (c chainFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return c.pick(r).GlyphBounds(r)
}

func (c chainFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	return c.pick(r).GlyphAdvance(r)
}

// Kern only applies between runes drawn with the same face.
func (c chainFace) Kern(r0, r1 rune) fixed.Int26_6 {
	f := c.pick(r1)
	if c.pick(r0) != f {
		return 0
	}
	return f.Kern(r0, r1)
}

func (c chainFace) Metrics() font.Metrics { return c[0].Metrics() }
