package imagepkg

import (
	"bytes"
	"image/png"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

func TestGenerateQRPNG(t *testing.T) {
	data, err := GenerateQRPNG("https://reportcard.example/report/abc", 256)
	if err != nil {
		t.Fatalf("GenerateQRPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("expected 256x256, got %v", b)
	}
	if _, err := GenerateQRPNG("", 256); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestSkipQREncoder(t *testing.T) {
	e := SkipQREncoder{Level: qrcode.Medium}
	img, err := e.Encode("https://maps.example/x", 144)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if img.Bounds().Dx() == 0 {
		t.Fatalf("expected a non-empty image")
	}
	if _, err := e.Encode("", 144); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
