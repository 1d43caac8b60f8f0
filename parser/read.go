package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	customerrors "fieldops-forecast/errors"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Separator is the field delimiter used by every exchanged CSV file.
const Separator = ';'

// InputExtensions are tried in order when locating an export by base name.
var InputExtensions = []string{".csv", ".xlsx"}

// FindInput returns the path of base inside dir, trying each known extension.
func FindInput(dir, base string) (string, error) {
	for _, ext := range InputExtensions {
		p := filepath.Join(dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", &customerrors.MissingInputError{Path: filepath.Join(dir, base+InputExtensions[0])}
}

// ReadFile loads a table from a .csv or .xlsx file.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &customerrors.MissingInputError{Path: path}
		}
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(name, f)
	case ".xlsx":
		return ReadXLSX(name, f)
	default:
		return nil, fmt.Errorf("%w: %s", customerrors.ErrUnsupportedFormat, path)
	}
}

// ReadCSV reads a ';'-delimited table. A leading UTF-8 byte order mark is
// dropped and invalid byte sequences are replaced rather than rejected.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		header []string
		rows   [][]string
	)
	lineNum := 0
	for {
		record, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &customerrors.ParseError{Table: name, Line: lineNum, Record: record, Err: err}
		}
		if header == nil {
			header = record
			continue
		}
		if blank(record) {
			continue
		}
		rows = append(rows, record)
	}
	if header == nil {
		return nil, fmt.Errorf("%s: %w", name, customerrors.ErrEmptyTable)
	}
	return NewTable(name, header, rows), nil
}

// ReadXLSX reads the first sheet of a workbook. Cells are read raw so date
// cells arrive as Excel serial numbers, which ParseTimestamp understands.
func ReadXLSX(name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", name, customerrors.ErrEmptyTable)
	}
	all, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s of %s: %w", sheets[0], name, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", name, customerrors.ErrEmptyTable)
	}

	rows := make([][]string, 0, len(all)-1)
	for _, row := range all[1:] {
		if blank(row) {
			continue
		}
		rows = append(rows, row)
	}
	return NewTable(name, all[0], rows), nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
