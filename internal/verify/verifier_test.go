package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupipe/registrofill/internal/fields"
	"github.com/docupipe/registrofill/internal/pdfform"
)

func pdfField(name, value string) pdfform.Field {
	return pdfform.Field{Name: name, Type: pdfform.FieldTypeText, Value: value}
}

func TestVerifyEveryKeyInExactlyOneBucket(t *testing.T) {
	data := fields.FromMap(map[string]string{
		"nombres":   "MARIA JOSE",
		"apellidos": "GARCIA",
		"sexo":      "F",
	})
	pdfFields := []pdfform.Field{
		pdfField("nombres", "MARIA JOSE"),
		pdfField("apellidos", "LOPEZ"),
	}

	report := Verify(data, pdfFields)

	assert.Equal(t, 1, report.MatchCount)
	assert.Equal(t, 1, report.MismatchCount)
	assert.Equal(t, 1, report.UnmappedCount)
	total := report.MatchCount + report.MismatchCount + report.UnmappedCount
	assert.Equal(t, 3, total)
	assert.False(t, report.Clean())
}

func TestVerifyMatchByContainment(t *testing.T) {
	data := fields.FromMap(map[string]string{"municipio_registro": "CALI"})
	pdfFields := []pdfform.Field{
		pdfField("Registry Office", "VALLE DEL CAUCA - CALI - NOTARIA PRIMERA"),
	}

	report := Verify(data, pdfFields)

	require.Len(t, report.Matches, 1)
	assert.Equal(t, "municipio_registro", report.Matches[0].ExtractedKey)
	assert.Equal(t, "Registry Office", report.Matches[0].PDFField)
	assert.Equal(t, 0, report.UnmappedCount)
}

func TestVerifyMatchWhenFieldHoldsTruncatedValue(t *testing.T) {
	// A field holding only part of the expected value still counts as a
	// match: containment works in both directions.
	data := fields.FromMap(map[string]string{"nombres": "MARIA JOSE GARCIA"})
	pdfFields := []pdfform.Field{pdfField("reg_names", "MARIA JOSE")}

	report := Verify(data, pdfFields)

	require.Len(t, report.Matches, 1)
	assert.Equal(t, "nombres", report.Matches[0].ExtractedKey)
	assert.Equal(t, "reg_names", report.Matches[0].PDFField)
	assert.Equal(t, 0, report.MismatchCount)
	assert.Equal(t, 0, report.UnmappedCount)
}

func TestVerifyWhitespaceInsensitive(t *testing.T) {
	data := fields.FromMap(map[string]string{"notas": "LINE A LINE B"})
	pdfFields := []pdfform.Field{pdfField("notes", "line a\nline b")}

	report := Verify(data, pdfFields)

	assert.Equal(t, 1, report.MatchCount)
	assert.Equal(t, 0, report.MismatchCount)
}

func TestVerifySkipsDerivedKeys(t *testing.T) {
	data := fields.FromMap(map[string]string{
		"nuip_resolved":        "V2A0001156",
		"nuip_top":             "V2A0001156",
		"birth_place_combined": "COLOMBIA - CALI",
		"notes_line1":          "NUIP NUEVO",
		"nombres":              "MARIA",
	})

	report := Verify(data, nil)

	// Only nombres survives the derived-key filter; everything else is
	// accounted for through its source keys.
	assert.Equal(t, 1, report.UnmappedCount)
	require.Len(t, report.Unmapped, 1)
	assert.Equal(t, "nombres", report.Unmapped[0].ExtractedKey)
}

func TestVerifyMismatchByFieldName(t *testing.T) {
	data := fields.FromMap(map[string]string{"sexo": "F"})
	pdfFields := []pdfform.Field{pdfField("Sexo", "M")}

	report := Verify(data, pdfFields)

	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "sexo", report.Mismatches[0].ExtractedKey)
	assert.Equal(t, "F", report.Mismatches[0].ExpectedValue)
	assert.Equal(t, "Sexo", report.Mismatches[0].PDFField)
	assert.Equal(t, "M", report.Mismatches[0].ActualValue)
}

func TestVerifyBlankValuesIgnored(t *testing.T) {
	data := fields.FromMap(map[string]string{"nombres": "   "})
	report := Verify(data, nil)

	assert.Equal(t, 0, report.MatchCount+report.MismatchCount+report.UnmappedCount)
	assert.True(t, report.Clean())
}

func TestVerifyEmptyPDFAllUnmapped(t *testing.T) {
	data := fields.FromMap(map[string]string{
		"nombres": "MARIA",
		"sexo":    "F",
	})

	report := Verify(data, []pdfform.Field{pdfField("other", "")})

	assert.Equal(t, 2, report.UnmappedCount)
}
