package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/xuri/excelize/v2"
)

var ErrNoSheet = errors.New("workbook has no sheets")

// ExcelReader decodes .xlsx/.xlsm workbooks. Cell values are read raw, so
// dates arrive as serial day numbers and numbers without display formatting.
type ExcelReader struct{}

func NewExcelReader() *ExcelReader {
	return &ExcelReader{}
}

func (r *ExcelReader) ReadFirstSheet(data []byte) (domain.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Sheet{}, ErrNoSheet
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("read sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return domain.Sheet{Name: name}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, label := range rows[0] {
		headers[i] = strings.TrimSpace(label)
	}

	sheet := domain.Sheet{
		Name:    name,
		Headers: trimTrailingBlank(headers),
		Rows:    make([]domain.SheetRow, 0, len(rows)-1),
	}
	for _, cells := range rows[1:] {
		sheet.Rows = append(sheet.Rows, toSheetRow(headers, cells))
	}

	return sheet, nil
}

// toSheetRow keys cells by header label. Columns without a label are
// dropped and the first of two identical labels wins.
func toSheetRow(headers, cells []string) domain.SheetRow {
	row := make(domain.SheetRow, len(headers))
	for i, label := range headers {
		if label == "" || i >= len(cells) {
			continue
		}
		if _, seen := row[label]; seen {
			continue
		}
		row[label] = cells[i]
	}
	return row
}

func trimTrailingBlank(headers []string) []string {
	end := len(headers)
	for end > 0 && headers[end-1] == "" {
		end--
	}
	return headers[:end]
}
