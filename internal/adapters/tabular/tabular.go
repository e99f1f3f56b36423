// Package tabular reads import spreadsheets. Only the first sheet of a
// workbook is read and the first row is treated as a header.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"shelfsync/internal/domain"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported import format")

// ReadFile returns the data rows of a .csv or .xlsx file
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV returns the data rows of a CSV document
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return skipHeader(rows), nil
}

// ReadXLSX returns the data rows of the first sheet of a workbook
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return skipHeader(rows), nil
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

// Books maps rows laid out as bookNo, bookName, author, publisher.
// Missing cells read as empty.
func Books(rows [][]string) []domain.Book {
	out := make([]domain.Book, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Book{
			BookNo:    cell(row, 0),
			BookName:  cell(row, 1),
			Author:    cell(row, 2),
			Publisher: cell(row, 3),
		})
	}
	return out
}

// Members maps rows laid out as name, registerNumber
func Members(rows [][]string) []domain.Member {
	out := make([]domain.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Member{
			Name:           cell(row, 0),
			RegisterNumber: cell(row, 1),
		})
	}
	return out
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
