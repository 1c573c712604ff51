package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// textLayerCap bounds how much embedded text is carried into extraction.
// Scanned registries rarely have more than a page of real text; anything
// beyond the cap is OCR noise or vector junk.
const textLayerCap = 64 * 1024

// TextLayer extracts the embedded text layer from PDF bytes. Documents that
// are pure raster scans return an empty string without error.
func TextLayer(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "extract: open pdf for text layer")
	}

	var b strings.Builder
	for n := 1; n <= pdfReader.NumPage(); n++ {
		page := pdfReader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		if b.Len() > textLayerCap {
			break
		}
	}

	text := strings.TrimSpace(b.String())
	if len(text) > textLayerCap {
		text = text[:textLayerCap]
	}
	return text, nil
}
