package render

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"factsheet/pkg/contracts/domain"
)

func writeTemplate(t *testing.T, path string, cells map[string]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, value := range cells {
		require.NoError(t, f.SetCellStr("Sheet1", cell, value))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestRenderFillsPlaceholders(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.xlsx")
	writeTemplate(t, tmpl, map[string]string{
		"A1":  "{{ fundname }}",
		"A2":  "Fund: {{fundname}}",
		"B1":  "{{ fund_return }}",
		"A3":  "{{ intro }}",
		"A5":  "{{ sectors }}",
		"D1":  "{{ qrcode }}",
		"A10": "{{ history | chart }}",
		"H1":  "static text",
	})

	out := filepath.Join(dir, "out", "Fund A.xlsx")
	wb, err := NewTemplateRenderer("#15a43a", nil).Render(context.Background(), RenderRequest{
		TemplatePath: tmpl,
		OutputPath:   out,
		Values:       sampleBundle(t, dir).Values(),
	})
	require.NoError(t, err)
	assert.Equal(t, out, wb.Path())
	require.Len(t, wb.Charts(), 1)
	assert.Equal(t, "A10", wb.Charts()[0].Cell)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Fund A", get("A1"))
	assert.Equal(t, "Fund: Fund A", get("A2"))
	assert.Equal(t, "0.21", get("B1"))
	assert.Equal(t, "static text", get("H1"))
	assert.Equal(t, "Industry", get("A5"))
	assert.Equal(t, "Health Care", get("A6"))
	assert.Equal(t, "Technology", get("A7"))
	assert.Equal(t, "", get("A10"))

	runs, err := f.GetCellRichText("Sheet1", "A3")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Intro", runs[0].Text)
	require.NotNil(t, runs[0].Font)
	assert.True(t, runs[0].Font.Bold)

	pics, err := f.GetPictureCells("Sheet1")
	require.NoError(t, err)
	assert.Contains(t, pics, "D1")

	assert.Contains(t, f.GetSheetList(), "data_history")
	visible, err := f.GetSheetVisible("data_history")
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestRenderErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown value":      {"A1": "{{ nope }}"},
		"unknown inline":     {"A1": "x {{ nope }} y"},
		"unknown filter":     {"A1": "{{ history | pie }}"},
		"chart of non table": {"A1": "{{ fundname | chart }}"},
		"chart of non dates": {"A1": "{{ sectors | chart }}"},
	}
	for name, cells := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			tmpl := filepath.Join(dir, "template.xlsx")
			writeTemplate(t, tmpl, cells)

			_, err := NewTemplateRenderer("#15a43a", nil).Render(context.Background(), RenderRequest{
				TemplatePath: tmpl,
				OutputPath:   filepath.Join(dir, "out.xlsx"),
				Values:       sampleBundle(t, dir).Values(),
			})
			assert.Error(t, err)
		})
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	_, err := NewTemplateRenderer("", nil).Render(context.Background(), RenderRequest{
		TemplatePath: filepath.Join(dir, "missing.xlsx"),
		OutputPath:   filepath.Join(dir, "out.xlsx"),
	})
	assert.Error(t, err)
}

func TestDefaultTemplateRenders(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template", "template.xlsx")
	require.NoError(t, WriteDefaultTemplate(tmpl, "#15a43a"))

	wb, err := NewTemplateRenderer("#15a43a", nil).Render(context.Background(), RenderRequest{
		TemplatePath: tmpl,
		OutputPath:   filepath.Join(dir, "Fund A.xlsx"),
		Values:       sampleBundle(t, dir).Values(),
	})
	require.NoError(t, err)
	assert.Len(t, wb.Charts(), 1)

	f, err := excelize.OpenFile(wb.Path())
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(DefaultSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Fund A", title)

	asOf, err := f.GetCellValue(DefaultSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "As of 2022-01-15 09:30", asOf)

	holdings, err := f.GetCellValue(DefaultSheet, "A37")
	require.NoError(t, err)
	assert.Equal(t, "Apple", holdings)
}

func TestFormatInline(t *testing.T) {
	assert.Equal(t, "", formatInline(nil))
	assert.Equal(t, "Fund A", formatInline(domain.FundID("Fund A")))
	assert.Equal(t, "https://x", formatInline(domain.LinkArtifact{URL: "https://x"}))
}
