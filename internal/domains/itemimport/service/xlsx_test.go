package service

import (
	"bytes"
	"context"
	"testing"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		file    string
		want    string
		wantErr error
	}{
		{"items.csv", FormatCSV, nil},
		{"ITEMS.XLSX", FormatXLSX, nil},
		{"export.txt", FormatCSV, nil},
		{"old.xls", "", model.ErrLegacyExcel},
		{"photo.png", "", model.ErrUnsupportedFile},
		{"noext", "", model.ErrUnsupportedFile},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := DetectFormat(tt.file)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestXLSXToCSV_PadsShortRows(t *testing.T) {
	src := buildWorkbook(t, [][]interface{}{
		{"Barcode", "Name", "Category", "Supplier"},
		{"100", "Lamp", "Lighting"},
		{"101", "Bulb, LED", "Lighting", "Philips"},
	})

	out, err := XLSXToCSV(src)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(out)
	require.NoError(t, err)
	assert.Equal(t,
		"Barcode,Name,Category,Supplier\n100,Lamp,Lighting,\n101,\"Bulb, LED\",Lighting,Philips\n",
		buf.String())
}

func TestXLSXToCSV_RunsThroughEngine(t *testing.T) {
	src := buildWorkbook(t, [][]interface{}{
		{"Código", "Produto", "Quantidade"},
		{"200", "Cabo", 12},
	})
	converted, err := XLSXToCSV(src)
	require.NoError(t, err)

	store := newMemStore()
	report, err := newTestEngine(store).Run(context.Background(), converted, model.DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 1, report.ImportedCount)
	assert.Equal(t, 12, store.items["200"].Quantity)
}

func TestXLSXToCSV_NotAWorkbook(t *testing.T) {
	_, err := XLSXToCSV(bytes.NewReader([]byte("barcode,name\n")))
	assert.ErrorIs(t, err, model.ErrIngestFailure)
}
