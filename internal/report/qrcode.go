// Package report renders shareable artefacts: drink QR codes and dashboard spreadsheets.
package report

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of generated QR codes.
const QRSize = 256

// QRGenerator renders QR codes linking to a drink's rating page.
type QRGenerator interface {
	Generate(drinkID int64) ([]byte, error)
}

// DefaultQRGenerator points QR codes at the web client under BaseURL.
type DefaultQRGenerator struct {
	BaseURL string
}

// DrinkURL returns the client URL encoded into a drink's QR code.
func (g DefaultQRGenerator) DrinkURL(drinkID int64) string {
	return fmt.Sprintf("%s/drink/%d", strings.TrimRight(g.BaseURL, "/"), drinkID)
}

// Generate returns a PNG QR code for the drink.
func (g DefaultQRGenerator) Generate(drinkID int64) ([]byte, error) {
	png, err := qrcode.Encode(g.DrinkURL(drinkID), qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
