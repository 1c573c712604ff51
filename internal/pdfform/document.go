// Package pdfform loads interactive PDF forms from memory, exposes their
// field vocabulary, and writes text values back into them. The form field
// names discovered here are the authoritative vocabulary that every mapping
// converges toward; nothing in this package hardcodes a template.
package pdfform

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rotisserie/eris"
)

// DefaultFontSize is forced onto every written field for visual consistency.
const DefaultFontSize = 10.0

// Document is a loaded PDF form held in memory. One Document belongs to one
// generation run; it is not safe for concurrent use and never shared.
type Document struct {
	// FontSize is applied to each field written via SetText. A field whose
	// appearance string cannot be rewritten keeps its default size.
	FontSize float64

	ctx      *model.Context
	acroForm types.Dict
	fields   []*fieldRef
	byName   map[string]*fieldRef
}

type fieldRef struct {
	name string
	typ  FieldType
	dict types.Dict
}

// Load parses PDF bytes into a Document. It fails only when the bytes are
// not a readable PDF; a document without form fields loads successfully and
// reports an empty vocabulary.
func Load(data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, eris.Wrap(err, "pdfform: read context")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, eris.Wrap(err, "pdfform: ensure page count")
	}

	doc := &Document{
		FontSize: DefaultFontSize,
		ctx:      ctx,
		byName:   make(map[string]*fieldRef),
	}
	if err := doc.loadFields(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Document) loadFields() error {
	rootDict, err := d.ctx.Catalog()
	if err != nil {
		return eris.Wrap(err, "pdfform: catalog")
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil
	}
	acroFormDict, err := d.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return eris.Wrap(err, "pdfform: dereference AcroForm")
	}
	if acroFormDict == nil {
		return nil
	}
	d.acroForm = acroFormDict

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil
	}
	fieldsArray, err := d.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return eris.Wrap(err, "pdfform: dereference Fields array")
	}

	for _, fieldObj := range fieldsArray {
		d.walkField(fieldObj, "")
	}
	return nil
}

// walkField collects terminal fields, descending into Kids that carry their
// own name. Kids without a T entry are widget annotations of the parent and
// do not form fields of their own.
func (d *Document) walkField(obj types.Object, parentName string) {
	dict, err := d.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	name := parentName
	if nameObj, found := dict.Find("T"); found {
		if part, err := d.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && part != "" {
			if name != "" {
				name = name + "." + part
			} else {
				name = part
			}
		}
	}

	if kidsObj, found := dict.Find("Kids"); found {
		if kidsArray, err := d.ctx.DereferenceArray(kidsObj); err == nil {
			descended := false
			for _, kid := range kidsArray {
				kidDict, err := d.ctx.DereferenceDict(kid)
				if err != nil || kidDict == nil {
					continue
				}
				if _, named := kidDict.Find("T"); named {
					d.walkField(kid, name)
					descended = true
				}
			}
			if descended {
				return
			}
		}
	}

	if name == "" {
		return
	}
	ref := &fieldRef{name: name, typ: d.fieldType(dict), dict: dict}
	if _, dup := d.byName[name]; dup {
		return
	}
	d.fields = append(d.fields, ref)
	d.byName[name] = ref
}

// fieldType determines the field type from the FT entry, following Parent
// for inherited types and the button flags for checkbox/radio/pushbutton.
func (d *Document) fieldType(dict types.Dict) FieldType {
	ftObj, found := dict.Find("FT")
	if !found {
		if parentObj, found := dict.Find("Parent"); found {
			if parentDict, err := d.ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return d.fieldType(parentDict)
			}
		}
		return FieldTypeUnknown
	}

	ftName, err := d.ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FieldTypeUnknown
	}

	switch ftName {
	case "Btn":
		if flagsObj, found := dict.Find("Ff"); found {
			if flags, err := d.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				flagValue := *flags
				if (flagValue & (1 << 15)) != 0 {
					return FieldTypeRadio
				}
				if (flagValue & (1 << 16)) != 0 {
					return FieldTypeButton
				}
			}
		}
		return FieldTypeCheckbox
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeSelect
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

// FieldNames returns every field name in template order.
func (d *Document) FieldNames() []string {
	names := make([]string, len(d.fields))
	for i, ref := range d.fields {
		names[i] = ref.name
	}
	return names
}

// Fields returns every field with its type and current value.
func (d *Document) Fields() []Field {
	out := make([]Field, len(d.fields))
	for i, ref := range d.fields {
		out[i] = Field{Name: ref.name, Type: ref.typ, Value: d.fieldValue(ref)}
	}
	return out
}

// HasField reports whether the template exposes the exact field name.
func (d *Document) HasField(name string) bool {
	_, ok := d.byName[name]
	return ok
}

func (d *Document) fieldValue(ref *fieldRef) string {
	valueObj, found := ref.dict.Find("V")
	if !found {
		return ""
	}
	if val, err := d.ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
		return val
	}
	if name, err := d.ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
		return string(name)
	}
	return ""
}

// SetText writes value into the named text field, forcing the document's
// font size onto the field's appearance string when one is present. The
// write is rejected for unknown names and non-text field types.
func (d *Document) SetText(name, value string) error {
	ref, ok := d.byName[name]
	if !ok {
		return eris.Errorf("pdfform: no field named %q", name)
	}
	if ref.typ != FieldTypeText && ref.typ != FieldTypeUnknown {
		return eris.Errorf("pdfform: field %q is %s, not text", name, ref.typ)
	}

	ref.dict["V"] = types.StringLiteral(escapeString(value))

	// Drop any cached appearance stream and ask the viewer to regenerate,
	// otherwise the old rendering shadows the new value.
	delete(ref.dict, "AP")
	if d.acroForm != nil {
		d.acroForm["NeedAppearances"] = types.Boolean(true)
	}

	if daObj, found := ref.dict.Find("DA"); found {
		if da, err := d.ctx.DereferenceStringOrHexLiteral(daObj, model.V10, nil); err == nil && da != "" {
			ref.dict["DA"] = types.StringLiteral(rewriteFontSize(da, d.FontSize))
		}
	}
	return nil
}

// Bytes serializes the document, with all writes applied, back to PDF bytes.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "pdfform: write context")
	}
	return buf.Bytes(), nil
}

// escapeString escapes value for embedding in a PDF literal string.
func escapeString(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '(':
			b.WriteString(`\(`)
		case ')':
			b.WriteString(`\)`)
		case '\r':
			// normalized away; \n is a legal literal-string byte
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// rewriteFontSize replaces the size operand of every Tf operator in a
// default-appearance string, e.g. "/Helv 0 Tf 0 g" -> "/Helv 10 Tf 0 g".
func rewriteFontSize(da string, size float64) string {
	parts := strings.Fields(da)
	for i, part := range parts {
		if part == "Tf" && i >= 1 {
			parts[i-1] = strconv.FormatFloat(size, 'f', -1, 64)
		}
	}
	return strings.Join(parts, " ")
}
