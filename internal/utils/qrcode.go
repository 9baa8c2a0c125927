package utils

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// qrSize is the edge length of generated QR images in pixels.
const qrSize = 256

// QRCodePNG encodes content as a PNG QR code held entirely in memory.
func QRCodePNG(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
