package imagepkg

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

var errEmptyQRText = errors.New("qr: empty text")

// QREncoder turns a URL into a scannable image of roughly size×size pixels.
type QREncoder interface {
	Encode(text string, size int) (image.Image, error)
}

// SkipQREncoder encodes with github.com/skip2/go-qrcode without a quiet
// zone; the certificate draws its own white backing.
type SkipQREncoder struct {
	Level qrcode.RecoveryLevel
}

func (e SkipQREncoder) Encode(text string, size int) (image.Image, error) {
	if text == "" {
		return nil, errEmptyQRText
	}
	q, err := qrcode.New(text, e.Level)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.Image(size), nil
}

// GenerateQRPNG returns PNG bytes of a QR code for the given text.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	if text == "" {
		return nil, errEmptyQRText
	}
	pngBytes, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	// validate png decode
	_, err = png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}
	return pngBytes, nil
}
