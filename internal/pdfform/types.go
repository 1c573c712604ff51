package pdfform

// FieldType classifies an AcroForm field.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeSelect    FieldType = "select"
	FieldTypeButton    FieldType = "button"
	FieldTypeSignature FieldType = "signature"
	FieldTypeUnknown   FieldType = "unknown"
)

// Field is one interactive form field: its literal name, its type, and its
// current text value (empty for non-text fields or unfilled fields).
type Field struct {
	Name  string    `json:"name"`
	Type  FieldType `json:"type"`
	Value string    `json:"value,omitempty"`
}
