// Package extract turns scanned registry documents into field sets. The
// extraction backend is pluggable; the engine only sees the Extractor
// interface and a provider name in configuration.
package extract

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/docupipe/registrofill/internal/config"
	"github.com/docupipe/registrofill/internal/fields"
)

// Document is one scanned input handed to an extractor. Text carries the
// embedded text layer when the source PDF has one; it may be empty.
type Document struct {
	Path string
	Data []byte
	Text string
}

// Extractor pulls registry fields out of a scanned document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (*fields.Set, error)
}

// NewExtractor builds the extractor selected by configuration.
func NewExtractor(cfg config.ExtractionConfig) (Extractor, error) {
	switch cfg.Provider {
	case "anthropic", "":
		if cfg.AnthropicKey == "" {
			return nil, eris.New("extract: anthropic provider requires an API key")
		}
		return NewAnthropicExtractor(cfg.AnthropicKey, cfg.AnthropicModel), nil
	default:
		return nil, eris.Errorf("extract: unknown provider %q", cfg.Provider)
	}
}
