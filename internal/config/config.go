package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/youruser/civiccert/internal/certificate"
	imagepkg "github.com/youruser/civiccert/internal/image"
)

type Config struct {
	Server  ServerConfig      `yaml:"server"`
	Assets  AssetsConfig      `yaml:"assets"`
	Fonts   FontsConfig       `yaml:"fonts"`
	Style   StyleConfig       `yaml:"style"`
	Texts   certificate.Texts `yaml:"texts"`
	Leaders LeadersConfig     `yaml:"leaders"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// PublicBaseURL prefixes generated report links.
	PublicBaseURL  string `yaml:"publicBaseURL"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

type AssetsConfig struct {
	Dir  string `yaml:"dir"`
	Seal string `yaml:"seal"`
	// FetchTimeout bounds remote leader and primary photo downloads.
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	MaxBytes     int64         `yaml:"maxBytes"`
	// AllowedHosts may be fetched even when they resolve to loopback or
	// private addresses, e.g. an internal CDN.
	AllowedHosts []string `yaml:"allowedHosts"`
}

type FontsConfig struct {
	Medium string `yaml:"medium"`
	Bold   string `yaml:"bold"`
	// Fallbacks draw runes the primary fonts lack. Relative paths are
	// resolved under the assets directory.
	Fallbacks []string `yaml:"fallbacks"`
}

// DefaultDevanagariFont is where deployments place the font for the Hindi
// catalog lines.
const DefaultDevanagariFont = "fonts/NotoSansDevanagari-Regular.ttf"

// StyleConfig overrides parts of the certificate style. Colors are hex
// strings like "#2563EB".
type StyleConfig struct {
	Primary           string        `yaml:"primary"`
	Text              string        `yaml:"text"`
	SubText           string        `yaml:"subText"`
	Border            string        `yaml:"border"`
	Placeholder       string        `yaml:"placeholder"`
	Background        string        `yaml:"background"`
	SealScale         float64       `yaml:"sealScale"`
	IssuePhotoTimeout time.Duration `yaml:"issuePhotoTimeout"`
}

type LeadersConfig struct {
	DataDir string `yaml:"dataDir"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			PublicBaseURL:  "http://localhost:8080",
			MaxUploadBytes: 20 << 20,
		},
		Assets: AssetsConfig{
			Dir:          "./web",
			Seal:         "/images/gov-seal.png",
			FetchTimeout: 12 * time.Second,
			MaxBytes:     20 << 20,
		},
		Fonts: FontsConfig{
			Fallbacks: []string{DefaultDevanagariFont},
		},
		Style: StyleConfig{
			SealScale:         2.2,
			IssuePhotoTimeout: 10 * time.Second,
		},
		Leaders: LeadersConfig{DataDir: "./data"},
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = defaults.Server.PublicBaseURL
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaults.Server.MaxUploadBytes
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = defaults.Assets.Dir
	}
	if c.Assets.Seal == "" {
		c.Assets.Seal = defaults.Assets.Seal
	}
	if c.Assets.FetchTimeout <= 0 {
		c.Assets.FetchTimeout = defaults.Assets.FetchTimeout
	}
	if c.Assets.MaxBytes <= 0 {
		c.Assets.MaxBytes = defaults.Assets.MaxBytes
	}
	if c.Style.SealScale <= 0 {
		c.Style.SealScale = defaults.Style.SealScale
	}
	if c.Style.IssuePhotoTimeout <= 0 {
		c.Style.IssuePhotoTimeout = defaults.Style.IssuePhotoTimeout
	}
	if c.Leaders.DataDir == "" {
		c.Leaders.DataDir = defaults.Leaders.DataDir
	}
	c.Texts = c.Texts.Merge(certificate.DefaultTexts())
	return c
}

// FallbackFonts resolves the fallback font paths and splits them into the
// files that exist and the ones that do not.
func (c Config) FallbackFonts() (present, absent []string) {
	for _, p := range c.Fonts.Fallbacks {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Assets.Dir, filepath.FromSlash(p))
		}
		if _, err := os.Stat(p); err != nil {
			absent = append(absent, p)
			continue
		}
		present = append(present, p)
	}
	return present, absent
}

// ApplyEnv applies environment overrides. PORT replaces the listen address.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.Server.Addr = ":" + port
	}
	return c
}

// ImageStyle builds the renderer style from the configured overrides.
func (c Config) ImageStyle() (imagepkg.Style, error) {
	s := imagepkg.DefaultStyle()
	colors := []struct {
		name string
		hex  string
		dst  *color.NRGBA
	}{
		{"primary", c.Style.Primary, &s.Primary},
		{"text", c.Style.Text, &s.Text},
		{"subText", c.Style.SubText, &s.SubText},
		{"border", c.Style.Border, &s.Border},
		{"placeholder", c.Style.Placeholder, &s.Placeholder},
		{"background", c.Style.Background, &s.Background},
	}
	for _, col := range colors {
		if col.hex == "" {
			continue
		}
		v, err := ParseHexColor(col.hex)
		if err != nil {
			return imagepkg.Style{}, fmt.Errorf("style.%s: %w", col.name, err)
		}
		*col.dst = v
	}
	if c.Assets.Seal != "" {
		s.SealImage = c.Assets.Seal
	}
	if c.Style.SealScale > 0 {
		s.SealScale = c.Style.SealScale
	}
	if c.Style.IssuePhotoTimeout > 0 {
		s.IssuePhotoTimeout = c.Style.IssuePhotoTimeout
	}
	return s.WithDefaults(), nil
}

// ParseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
