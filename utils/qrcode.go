package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 512

// RenderQRCode renders the given payload as a PNG image suitable for the
// ticket file field.
func RenderQRCode(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
