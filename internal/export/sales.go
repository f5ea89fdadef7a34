// Package export turns a day's group message log into an Excel sales summary.
// Log lines look like "2026-08-31 14:05:01 Maria: vendida talla 38 en 120".
package export

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Numeric classification ranges. A token can land in both.
const (
	MaxSize  = 46
	MinPrice = 70
	MaxPrice = 5000
)

// Token kinds in the expanded sheet.
const (
	KindSize  = "talla"
	KindPrice = "precio"
	KindMedia = "archivo"
)

var (
	linePattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}:\d{2}) (.*?): (.*)$`)
	mediaPattern = regexp.MustCompile(`(?i)\[.*?archivo guardado[:\s]*([0-9]+)\.\w+\]`)
	numberToken  = regexp.MustCompile(`\b\d+\b`)
)

// Record is one parsed log line.
type Record struct {
	Date    string
	Time    string
	User    string
	Message string
	Sizes   []int
	Prices  []int
	MediaAt *time.Time
}

// Token is one classified numeric mention, one row of the expanded sheet.
type Token struct {
	Date    string
	Time    string
	User    string
	Kind    string
	Value   int
	Message string
}

// UserTotal aggregates price mentions for one user.
type UserTotal struct {
	User  string
	Total int
}

// SizeCount is the mention count of one size.
type SizeCount struct {
	Size  int
	Count int
}

// ParseLog reads a message log, keeping only lines that match the expected
// shape. Numbers are classified by range; the stored-media marker, when
// present, yields the original capture time from the epoch-millis file name.
func ParseLog(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		rec := Record{
			Date:    m[1],
			Time:    m[2],
			User:    m[3],
			Message: m[4],
		}

		if mm := mediaPattern.FindStringSubmatch(rec.Message); mm != nil {
			if millis, err := strconv.ParseInt(mm[1], 10, 64); err == nil {
				t := time.UnixMilli(millis)
				rec.MediaAt = &t
			}
		}

		for _, tok := range numberToken.FindAllString(rec.Message, -1) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			if n >= 0 && n <= MaxSize {
				rec.Sizes = append(rec.Sizes, n)
			}
			if n >= MinPrice && n <= MaxPrice {
				rec.Prices = append(rec.Prices, n)
			}
		}

		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	return records, nil
}

// Expand flattens records into one token per classified number, plus one
// marker row per stored media file.
func Expand(records []Record) []Token {
	var tokens []Token
	for _, rec := range records {
		for _, s := range rec.Sizes {
			tokens = append(tokens, Token{rec.Date, rec.Time, rec.User, KindSize, s, rec.Message})
		}
		for _, p := range rec.Prices {
			tokens = append(tokens, Token{rec.Date, rec.Time, rec.User, KindPrice, p, rec.Message})
		}
		if rec.MediaAt != nil {
			tokens = append(tokens, Token{rec.Date, rec.Time, rec.User, KindMedia, 0, rec.Message})
		}
	}
	return tokens
}

// UserTotals sums price tokens per user, sorted by user name, with a
// trailing TOTAL row.
func UserTotals(tokens []Token) []UserTotal {
	byUser := make(map[string]int)
	for _, t := range tokens {
		if t.Kind == KindPrice {
			byUser[t.User] += t.Value
		}
	}
	if len(byUser) == 0 {
		return nil
	}

	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	totals := make([]UserTotal, 0, len(users)+1)
	grand := 0
	for _, u := range users {
		totals = append(totals, UserTotal{User: u, Total: byUser[u]})
		grand += byUser[u]
	}
	totals = append(totals, UserTotal{User: "TOTAL", Total: grand})
	return totals
}

// SizeCounts counts size mentions, sorted ascending by size.
func SizeCounts(tokens []Token) []SizeCount {
	bySize := make(map[int]int)
	for _, t := range tokens {
		if t.Kind == KindSize {
			bySize[t.Value]++
		}
	}

	sizes := make([]int, 0, len(bySize))
	for s := range bySize {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)

	counts := make([]SizeCount, 0, len(sizes))
	for _, s := range sizes {
		counts = append(counts, SizeCount{Size: s, Count: bySize[s]})
	}
	return counts
}

// Writer produces the .xlsx sales summary.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a workbook writer.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

const (
	sheetSales = "Ventas_y_Totales"
	sheetSizes = "Conteo_tallas"
)

// Write builds the workbook: the expanded token rows followed by per-user
// totals on one sheet, the size mention counts on another.
func (w *Writer) Write(outputPath string, tokens []Token) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetSales); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSizes); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	w.setRow(f, sheetSales, 1, []interface{}{"fecha", "hora", "usuario", "tipo", "valor", "mensaje"})
	row := 2
	for _, t := range tokens {
		value := interface{}(t.Value)
		if t.Kind == KindMedia {
			value = ""
		}
		w.setRow(f, sheetSales, row, []interface{}{t.Date, t.Time, t.User, t.Kind, value, t.Message})
		row++
	}

	// Blank separator, then per-user price totals.
	row++
	for _, total := range UserTotals(tokens) {
		w.setRow(f, sheetSales, row, []interface{}{"", "", total.User, "TOTAL_USUARIO", total.Total, ""})
		row++
	}

	w.setRow(f, sheetSizes, 1, []interface{}{"talla", "cantidad_menciones"})
	for i, count := range SizeCounts(tokens) {
		w.setRow(f, sheetSizes, i+2, []interface{}{count.Size, count.Count})
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Sales summary written",
		zap.String("output_path", outputPath),
		zap.Int("tokens", len(tokens)))
	return nil
}

func (w *Writer) setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			w.logger.Warn("Failed to set cell value",
				zap.String("sheet", sheet),
				zap.String("cell", cell),
				zap.Error(err))
		}
	}
}
