package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/duchph/approvebot/internal/core/domain"
)

// Source describes where the input records live.
type Source struct {
	Path       string `yaml:"path"`
	Sheet      string `yaml:"sheet"`
	IDColumn   string `yaml:"id_column"`
	NameColumn string `yaml:"name_column"`
}

// LoadRecords reads the workbook and returns one record per data row, in
// sheet order. Rows with an empty OU id are skipped. The identifying columns
// are resolved by header name; a missing column is a configuration error
// that lists what the sheet actually has.
func LoadRecords(src Source) ([]domain.Record, error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", src.Path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := f.GetRows(src.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", src.Sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", src.Sheet)
	}

	header := rows[0]
	idCol, err := findColumn(header, src.IDColumn)
	if err != nil {
		return nil, err
	}
	nameCol, err := findColumn(header, src.NameColumn)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for i, row := range rows[1:] {
		ouID := strings.TrimSpace(cell(row, idCol))
		if ouID == "" {
			continue
		}
		records = append(records, domain.Record{
			Row:         i + 2, // 1-based, header is row 1
			OUID:        ouID,
			AccountName: strings.TrimSpace(cell(row, nameCol)),
		})
	}
	return records, nil
}

func findColumn(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found; available columns: %v", name, header)
}

// cell returns row[idx] tolerating the ragged rows excelize produces when
// trailing cells are empty.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
