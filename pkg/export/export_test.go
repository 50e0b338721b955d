package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"№", "ФИО", "Группа"},
		Rows: []map[string]string{
			{"№": "1", "ФИО": "Иванов Иван", "Группа": "ИС-21"},
			{"№": "2", "ФИО": "Petrov, Petr", "Группа": ""},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "№,ФИО,Группа\n1,Иванов Иван,ИС-21\n2,\"Petrov, Petr\",\n", string(out[len(utf8BOM):]))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Журнал")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Журнал")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"№", "ФИО", "Группа"}, rows[0])
	assert.Equal(t, []string{"1", "Иванов Иван", "ИС-21"}, rows[1])
	assert.Equal(t, "Petrov, Petr", rows[2][1])
}

func TestPDFExporterRenderTable(t *testing.T) {
	exporter := &PDFExporter{coreFont: true}
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"№": "x", "ФИО": "Long name that needs wrapping across several lines of the narrow column"})
	}

	out, err := exporter.RenderTable(TableDocument{
		Title:     "Journal",
		Subtitle:  []string{"Generated"},
		Data:      data,
		Widths:    []float64{1, 6, 2},
		Footer:    []string{"Signature: ______"},
		Landscape: true,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = exporter.RenderTable(TableDocument{})
	assert.Error(t, err)
}

func TestPDFExporterRenderCardWithPhoto(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	photo := &bytes.Buffer{}
	require.NoError(t, png.Encode(photo, img))

	out, err := (&PDFExporter{coreFont: true}).RenderCard(Card{
		Header:    []string{"Student card"},
		Photo:     photo,
		PhotoType: "PNG",
		Sections: []CardSection{
			{Title: "Basic", Rows: []CardRow{{Label: "Name", Value: "Ivanov"}, {Label: "Phone", Value: ""}}},
		},
		Footer: []string{"Date: 01.01.2024"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterMissingFont(t *testing.T) {
	_, err := NewPDFExporter(filepath.Join(t.TempDir(), "missing.ttf")).RenderCard(Card{Header: []string{"x"}})
	assert.Error(t, err)
}

func TestPDFExporterRequiresFont(t *testing.T) {
	exporter := NewPDFExporter("")

	_, err := exporter.RenderTable(TableDocument{Data: sampleDataset()})
	assert.ErrorIs(t, err, ErrFontRequired)
	_, err = exporter.RenderCard(Card{Header: []string{"Карточка"}})
	assert.ErrorIs(t, err, ErrFontRequired)
}

func TestCheckFont(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "body.ttf")
	require.NoError(t, os.WriteFile(font, []byte("ttf"), 0o644))

	assert.ErrorIs(t, CheckFont(""), ErrFontRequired)
	assert.Error(t, CheckFont(filepath.Join(dir, "missing.ttf")))
	assert.Error(t, CheckFont(dir))
	assert.NoError(t, CheckFont(font))
}
