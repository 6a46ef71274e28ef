package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

var hcm = time.FixedZone("ICT", 7*60*60)

var testHeader = []any{
	"Nhóm hàng", "Tên sản phẩm", "Số lượng", "Giá bán_1", "Trạng thái hủy", "Ngày tạo",
}

func writeWorkbook(t *testing.T, sheet string, rows ...[]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadExcel(t *testing.T) {
	path := writeWorkbook(t, "Sheet1",
		testHeader,
		[]any{"P1", "Galaxy A55", 2, 1000000, "Chưa hủy", "10/05/2024 09:30:00"},
		[]any{"P2", "Bảo hiểm rơi vỡ", 1, 200000.5, "Chưa hủy", 45422.5},
		[]any{"", " "},
		[]any{"P1", "Galaxy A55", 2, 1000000, "Chưa hủy", "10/05/2024 09:30:00"},
		[]any{" P3 ", "Tai nghe", 1, 150000, "Đã hủy", ""},
	)

	rows, stats, err := LoadExcel(context.Background(), path, Options{Location: hcm})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Stats{Rows: 3, Skipped: 1, Duplicates: 1}, stats)

	first := rows[0]
	assert.Equal(t, "P1", first.Text(models.ColProductCode))
	assert.Equal(t, "2", first.Text(models.ColQuantity))
	assert.Equal(t, "1000000", first.Text(models.ColPrice))
	assert.WithinDuration(t, time.Date(2024, 5, 10, 9, 30, 0, 0, hcm), first.Date, 0)

	assert.Equal(t, "200000.5", rows[1].Text(models.ColPrice))
	assert.WithinDuration(t, time.Date(2024, 5, 10, 12, 0, 0, 0, hcm), rows[1].Date, time.Second)

	assert.Equal(t, "P3", rows[2].Text(models.ColProductCode), "cells are trimmed")
	assert.True(t, rows[2].Date.IsZero())
}

func TestReadExcel_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Data",
		testHeader,
		[]any{"P1", "Galaxy A55", 1, 100, "Chưa hủy", "2024-05-10"},
	)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, _, err := ReadExcel(context.Background(), bytes.NewReader(raw), Options{Sheet: "Data", Location: hcm})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, _, err = ReadExcel(context.Background(), bytes.NewReader(raw), Options{Sheet: "Missing"})
	assert.ErrorIs(t, err, ErrNoSheet)
}

func TestLoadExcel_ShortRows(t *testing.T) {
	path := writeWorkbook(t, "Sheet1",
		testHeader,
		[]any{"P1", "Galaxy A55", 1, 100},
	)

	rows, _, err := LoadExcel(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	v, present := rows[0].Fields["Trạng thái hủy"]
	assert.True(t, present, "missing trailing cells are stored empty")
	assert.Empty(t, v)
	_, ok := rows[0].Value(models.ColCancelStatus)
	assert.False(t, ok, "blank cells do not count as a value")
}

func TestLoadExcel_BlankAliasFallsThrough(t *testing.T) {
	path := writeWorkbook(t, "Sheet1",
		[]any{"Nhóm hàng", "Số lượng", "Ngày tạo", "Thời gian tạo", "Giá bán_1", "Giá bán"},
		[]any{"P1", 1, "", "10/05/2024 09:00:00", "", 500000},
	)

	rows, _, err := LoadExcel(context.Background(), path, Options{Location: hcm})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.True(t, rows[0].Date.Equal(time.Date(2024, 5, 10, 9, 0, 0, 0, hcm)), "date = %v", rows[0].Date)
	price, ok := rows[0].Value(models.ColPrice)
	assert.True(t, ok)
	assert.Equal(t, "500000", price)
}

func TestLoadExcel_Errors(t *testing.T) {
	ctx := context.Background()

	missing := writeWorkbook(t, "Sheet1", []any{"Nhóm hàng", "Số lượng"}, []any{"P1", 1})
	_, _, err := LoadExcel(ctx, missing, Options{})
	assert.ErrorIs(t, err, ErrMissingHeader)

	headerOnly := writeWorkbook(t, "Sheet1", testHeader)
	_, _, err = LoadExcel(ctx, headerOnly, Options{})
	assert.ErrorIs(t, err, ErrNoRows)

	empty := writeWorkbook(t, "Sheet1")
	_, _, err = LoadExcel(ctx, empty, Options{})
	assert.ErrorIs(t, err, ErrNoRows)

	_, _, err = LoadExcel(ctx, filepath.Join(t.TempDir(), "nope.xlsx"), Options{})
	assert.Error(t, err)
}

func TestLoadExcel_ManyRowsKeepOrder(t *testing.T) {
	n := batchSize + 123
	rows := [][]any{testHeader}
	for i := range n {
		rows = append(rows, []any{fmt.Sprintf("P%d", i), "x", 1, i, "Chưa hủy", ""})
	}
	path := writeWorkbook(t, "Sheet1", rows...)

	got, stats, err := LoadExcel(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, got, n)
	assert.Equal(t, n, stats.Rows)
	for i := 0; i < n; i += 997 {
		assert.Equal(t, fmt.Sprintf("P%d", i), got[i].Text(models.ColProductCode))
	}
}

func TestLoadExcel_Cancelled(t *testing.T) {
	path := writeWorkbook(t, "Sheet1",
		testHeader,
		[]any{"P1", "Galaxy A55", 1, 100, "Chưa hủy", ""},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadExcel(ctx, path, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"10/05/2024 09:30:00", time.Date(2024, 5, 10, 9, 30, 0, 0, hcm)},
		{"10/05/2024 09:30", time.Date(2024, 5, 10, 9, 30, 0, 0, hcm)},
		{"10/05/2024", time.Date(2024, 5, 10, 0, 0, 0, 0, hcm)},
		{"2024-05-10 23:59:59", time.Date(2024, 5, 10, 23, 59, 59, 0, hcm)},
		{"2024-05-10", time.Date(2024, 5, 10, 0, 0, 0, 0, hcm)},
		{"45422", time.Date(2024, 5, 10, 0, 0, 0, 0, hcm)},
		{"45422.75", time.Date(2024, 5, 10, 18, 0, 0, 0, hcm)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, hcm)
			require.NoError(t, err)
			assert.WithinDuration(t, tt.want, got, time.Second)
		})
	}

	rfc, err := ParseDate("2024-05-10T02:30:00Z", hcm)
	require.NoError(t, err)
	assert.Equal(t, 9, rfc.Hour())

	for _, bad := range []string{"", "yesterday", "-5", "31/02/2024"} {
		_, err := ParseDate(bad, hcm)
		assert.Error(t, err, bad)
	}
}
