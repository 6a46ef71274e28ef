package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize  = 5000
	maxWorkers = 8
)

var (
	ErrNoSheet       = errors.New("sheet not found")
	ErrMissingHeader = errors.New("required column missing")
	ErrNoRows        = errors.New("no data rows found")
)

// requiredColumns must each be present under one of their aliases.
var requiredColumns = [][]string{
	models.ColProductCode,
	models.ColQuantity,
	models.ColPrice,
}

type Options struct {
	// Sheet defaults to the first sheet of the workbook.
	Sheet string
	// Location is the zone creation dates are read in. Defaults to Local.
	Location *time.Location
}

type Stats struct {
	Rows       int `json:"rows"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

func LoadExcel(ctx context.Context, path string, opts Options) ([]models.Transaction, Stats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return read(ctx, f, opts)
}

func ReadExcel(ctx context.Context, r io.Reader, opts Options) ([]models.Transaction, Stats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return read(ctx, f, opts)
}

func read(ctx context.Context, f *excelize.File, opts Options) ([]models.Transaction, Stats, error) {
	var stats Stats
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	sheet := opts.Sheet
	if sheet == "" {
		if list := f.GetSheetList(); len(list) > 0 {
			sheet = list[0]
		}
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, stats, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, stats, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	for header == nil && rows.Next() {
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, stats, fmt.Errorf("read header: %w", err)
		}
		if !blank(cells) {
			header = trimAll(cells)
		}
	}
	if header == nil {
		return nil, stats, ErrNoRows
	}
	if err := checkHeader(header); err != nil {
		return nil, stats, err
	}

	var out []models.Transaction
	seen := make(map[string]struct{})
	batch := make([][]string, 0, batchSize)

	flush := func() error {
		txs, err := convertBatch(ctx, header, batch, loc)
		if err != nil {
			return err
		}
		for i, tx := range txs {
			key := strings.Join(batch[i], "\x1f")
			if _, dup := seen[key]; dup {
				stats.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tx)
		}
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, stats, fmt.Errorf("read row: %w", err)
		}
		if blank(cells) {
			stats.Skipped++
			continue
		}
		batch = append(batch, trimAll(cells))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, stats, err
			}
		}
	}
	if err := rows.Error(); err != nil {
		return nil, stats, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, stats, err
		}
	}

	if len(out) == 0 {
		return nil, stats, ErrNoRows
	}
	stats.Rows = len(out)
	return out, stats, nil
}

// convertBatch builds transactions for a batch in parallel. Results keep the
// batch order.
func convertBatch(ctx context.Context, header []string, batch [][]string, loc *time.Location) ([]models.Transaction, error) {
	out := make([]models.Transaction, len(batch))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers
	for start := 0; start < len(batch); start += chunk {
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = toTransaction(header, batch[i], loc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func toTransaction(header, cells []string, loc *time.Location) models.Transaction {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := fields[name]; dup {
			continue
		}
		if i < len(cells) {
			fields[name] = cells[i]
		} else {
			fields[name] = ""
		}
	}
	tx := models.Transaction{Fields: fields}
	if raw, ok := tx.Value(models.ColCreatedAt); ok {
		tx.Date, _ = ParseDate(raw, loc)
	}
	return tx
}

func checkHeader(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	for _, aliases := range requiredColumns {
		found := false
		for _, a := range aliases {
			if _, ok := present[a]; ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrMissingHeader, aliases[0])
		}
	}
	return nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
