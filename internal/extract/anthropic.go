package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/docupipe/registrofill/internal/fields"
)

// DefaultModel is used when configuration does not pin a model.
const DefaultModel = "claude-sonnet-4-20250514"

const extractionMaxTokens = 4096

// extractionSystemPrompt constrains the model to the canonical key
// vocabulary. Keys it cannot read from the document must be omitted, never
// guessed; downstream reconciliation depends on absence meaning absence.
const extractionSystemPrompt = `You extract fields from scanned Colombian civil registry documents (registro civil de nacimiento).

Return ONLY a JSON object. Use these keys, omitting any key you cannot read from the document:
  nuip_top, nuip_bottom, nuip, indicativo_serial,
  nombres, apellidos, sexo, grupo_sanguineo,
  fecha_nacimiento, pais_nacimiento, departamento_nacimiento, municipio_nacimiento, lugar_nacimiento,
  fecha_registro, departamento_registro, municipio_registro, oficina_registro,
  nombres_padre, apellidos_padre, nombres_madre, apellidos_madre,
  notas

Rules:
- Transcribe values exactly as printed. Never invent, infer, or complete a value.
- Dates stay in the format printed on the document.
- notas holds the full text of the notes/anotaciones area, one note per line.
- If a field is blank or illegible, omit its key entirely.`

// AnthropicExtractor reads registry fields with the Anthropic vision API.
type AnthropicExtractor struct {
	client sdk.Client
	model  string
}

// NewAnthropicExtractor builds an extractor over the given credentials.
func NewAnthropicExtractor(apiKey, model string) *AnthropicExtractor {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicExtractor{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Extract sends the document to the model and parses the returned JSON into
// a field set. The scanned bytes go as a document block; any embedded text
// layer rides along as supporting context.
func (e *AnthropicExtractor) Extract(ctx context.Context, doc Document) (*fields.Set, error) {
	blocks := []sdk.ContentBlockParamUnion{
		sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{
			Data: base64.StdEncoding.EncodeToString(doc.Data),
		}),
	}
	prompt := "Extract the registry fields from this document."
	if doc.Text != "" {
		prompt += "\n\nEmbedded text layer (may contain OCR noise):\n" + doc.Text
	}
	blocks = append(blocks, sdk.NewTextBlock(prompt))

	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: extractionMaxTokens,
		System: []sdk.TextBlockParam{
			{Text: extractionSystemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: anthropic request")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return parseFieldJSON(text.String())
}

// parseFieldJSON pulls the outermost JSON object from model output, which may
// be wrapped in prose or code fences, and coerces it into a field set.
func parseFieldJSON(raw string) (*fields.Set, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, eris.New("extract: response contains no JSON object")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, eris.Wrap(err, "extract: parse field JSON")
	}
	return fields.FromAny(payload), nil
}
