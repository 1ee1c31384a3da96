package pdf_test

import (
	"bytes"
	"fmt"
	"testing"

	gofpdf "github.com/lvillar/gofpdf"
	"github.com/lvillar/gofpdf/form"
	"github.com/lvillar/gofpdf/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elysium/internal/model"
	"elysium/internal/pdf"
	"elysium/internal/sheet"
)

// buildTemplate synthesizes a small form-bearing PDF with a name text field
// and the discipline slot 1 widgets (label + dots 313..320 + the 320a
// suffix), mirroring a cut-down corner of the real sheet.
func buildTemplate(t *testing.T) []byte {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Text(10, 10, "Sheet template fixture")

	fb := form.NewFormBuilder(doc)
	fb.AddTextField("name", 1, 40, 5, 80, 8)
	fb.AddTextField("disciplines1", 1, 40, 20, 60, 8)
	for i := 0; i < 8; i++ {
		fb.AddCheckbox(fmt.Sprintf("dot%d", 313+i), 1, 110+float64(i)*6, 20, 4)
	}
	fb.AddCheckbox("dot320a", 1, 160, 20, 4)
	for i := 1; i <= 10; i++ {
		fb.AddCheckbox(fmt.Sprintf("willdot%d", i), 1, 40+float64(i)*6, 40, 4)
	}
	require.NoError(t, fb.Build())

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func fieldValue(t *testing.T, data []byte, name string) string {
	t.Helper()
	doc, err := reader.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	f, err := doc.FormField(name)
	require.NoError(t, err)
	require.NotNil(t, f, "field %q not found in output", name)
	return f.Value
}

func TestFill_EndToEnd(t *testing.T) {
	template := buildTemplate(t)

	mapper := sheet.NewMapper(sheet.V20Schema())
	mapping, err := mapper.Map(model.CharacterSheet{
		Name:        "Lucian",
		Clan:        &model.Ref{Name: "Ventrue"},
		Disciplines: map[string]int{"dominate": 3},
	})
	require.NoError(t, err)

	out, missing, err := pdf.Fill(template, mapping)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// The fixture only carries a corner of the sheet; everything else in the
	// mapping is reported missing, never fatal.
	assert.NotEmpty(t, missing)
	assert.NotContains(t, missing, "name")
	assert.NotContains(t, missing, "dot313")
	assert.Contains(t, missing, "Clan")

	assert.Equal(t, "Lucian", fieldValue(t, out, "name"))
	assert.Equal(t, "Dominate", fieldValue(t, out, "disciplines1"))
	for i := 313; i <= 315; i++ {
		assert.Equal(t, "Yes", fieldValue(t, out, fmt.Sprintf("dot%d", i)), "dot%d", i)
	}
	for i := 316; i <= 320; i++ {
		assert.Equal(t, "Off", fieldValue(t, out, fmt.Sprintf("dot%d", i)), "dot%d", i)
	}
	assert.Equal(t, "Off", fieldValue(t, out, "dot320a"))

	assert.True(t, bytes.Contains(out, []byte("/NeedAppearances true")),
		"filled output must request appearance regeneration")
}

func TestFill_CheckboxValues(t *testing.T) {
	template := buildTemplate(t)

	out, missing, err := pdf.Fill(template, sheet.FieldMapping{
		"willdot1": sheet.Checkbox(true),
		"willdot2": sheet.Checkbox(false),
		"dot313":   sheet.Choice("Yes"),
		"dot314":   sheet.Choice("Off"),
	})
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, "Yes", fieldValue(t, out, "willdot1"))
	assert.Equal(t, "Off", fieldValue(t, out, "willdot2"))
	assert.Equal(t, "Yes", fieldValue(t, out, "dot313"))
	assert.Equal(t, "Off", fieldValue(t, out, "dot314"))
}

func TestFill_MissingFieldTolerance(t *testing.T) {
	template := buildTemplate(t)

	out, missing, err := pdf.Fill(template, sheet.FieldMapping{
		"name":         sheet.Text("Theo Bell"),
		"no_such_field": sheet.Text("ignored"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"no_such_field"}, missing)
	assert.Equal(t, "Theo Bell", fieldValue(t, out, "name"))

	// Output stays a complete, parseable document.
	doc, err := reader.ReadFrom(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.NumPages())
}

func TestFill_Idempotent(t *testing.T) {
	template := buildTemplate(t)
	mapping := sheet.FieldMapping{
		"name":     sheet.Text("Lucian"),
		"dot313":   sheet.Checkbox(true),
		"willdot1": sheet.Checkbox(true),
	}

	first, _, err := pdf.Fill(template, mapping)
	require.NoError(t, err)
	second, _, err := pdf.Fill(template, mapping)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same template and mapping must serialize identically")
}

func TestFill_CorruptTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template []byte
	}{
		{name: "not a pdf", template: []byte("definitely not a pdf")},
		{name: "empty", template: nil},
		{name: "truncated", template: buildTemplate(t)[:64]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := pdf.Fill(tt.template, sheet.FieldMapping{"name": sheet.Text("x")})
			assert.ErrorIs(t, err, pdf.ErrTemplateLoad)
			assert.Nil(t, out, "no bytes may escape a failed load")
		})
	}
}

func TestFill_NoFormTemplate(t *testing.T) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Text(10, 10, "no fields here")
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	out, _, err := pdf.Fill(buf.Bytes(), sheet.FieldMapping{"name": sheet.Text("x")})
	assert.ErrorIs(t, err, pdf.ErrTemplateLoad)
	assert.Nil(t, out)
}

func TestInspect(t *testing.T) {
	template := buildTemplate(t)

	n, err := pdf.Inspect(template)
	require.NoError(t, err)
	// name + disciplines1 + 8 dots + suffix + 10 tracker boxes
	assert.Equal(t, 21, n)

	_, err = pdf.Inspect([]byte("junk"))
	assert.ErrorIs(t, err, pdf.ErrTemplateLoad)
}
