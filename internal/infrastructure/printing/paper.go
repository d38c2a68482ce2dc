package printing

import "strings"

// PaperSize is the page format reports are printed on
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"     // 210mm x 297mm
	PaperSizeA3     PaperSize = "A3"     // 297mm x 420mm
	PaperSizeLetter PaperSize = "LETTER" // 216mm x 279mm
	PaperSizeLegal  PaperSize = "LEGAL"  // 216mm x 356mm
)

// ParsePaperSize returns the paper size for a case-insensitive name, defaulting to A4
func ParsePaperSize(s string) PaperSize {
	p := PaperSize(strings.ToUpper(strings.TrimSpace(s)))
	if p.IsValid() {
		return p
	}
	return PaperSizeA4
}

// IsValid checks if the PaperSize is a supported value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA3, PaperSizeLetter, PaperSizeLegal:
		return true
	}
	return false
}

// Dimensions returns the portrait paper dimensions in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA3:
		return 297, 420
	case PaperSizeLetter:
		return 216, 279
	case PaperSizeLegal:
		return 216, 356
	default:
		return 210, 297
	}
}

// Margins in millimeters
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// DefaultMargins returns the margins used for report pages
func DefaultMargins() Margins {
	return Margins{Top: 12, Right: 10, Bottom: 14, Left: 10}
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}
