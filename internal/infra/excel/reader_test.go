package excel

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	for r, row := range rows {
		for c, v := range row {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cellName, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "accounts.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRecords(t *testing.T) {
	path := writeWorkbook(t, "Accounts", [][]string{
		{"id", "Account name", "notes"},
		{"100", "Acme", "x"},
		{"", "No ID Corp"},
		{"200", "Globex"},
	})

	records, err := LoadRecords(Source{
		Path:       path,
		Sheet:      "Accounts",
		IDColumn:   "id",
		NameColumn: "Account name",
	})
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records (empty-id row skipped), got %d", len(records))
	}
	if records[0].OUID != "100" || records[0].AccountName != "Acme" || records[0].Row != 2 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].OUID != "200" || records[1].Row != 4 {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestLoadRecords_MissingColumn(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{
		{"id", "Something else"},
		{"100", "Acme"},
	})

	_, err := LoadRecords(Source{
		Path:       path,
		Sheet:      "Sheet1",
		IDColumn:   "id",
		NameColumn: "Account name",
	})
	if err == nil {
		t.Fatal("expected error for missing column")
	}
	if !strings.Contains(err.Error(), "Account name") || !strings.Contains(err.Error(), "available columns") {
		t.Errorf("error should name the column and list available ones, got: %v", err)
	}
}

func TestLoadRecords_HeaderCaseInsensitive(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{
		{"ID", "ACCOUNT NAME"},
		{"100", "Acme"},
	})

	records, err := LoadRecords(Source{
		Path:       path,
		Sheet:      "Sheet1",
		IDColumn:   "id",
		NameColumn: "Account name",
	})
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}
