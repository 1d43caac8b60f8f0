package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"fieldops-forecast/ml"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Separator is the field separator of every dataset the pipeline writes.
const Separator = ';'

// WriteCSV writes the named columns of f as ';'-separated UTF-8 with a byte
// order mark. Floats get two decimals, integer columns none, and NaN is
// left empty.
func WriteCSV(w io.Writer, f *ml.Frame, columns []string) error {
	cols := make([]*ml.Column, len(columns))
	for j, name := range columns {
		c, err := f.Column(name)
		if err != nil {
			return err
		}
		cols[j] = c
	}

	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	cw.Comma = Separator

	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for i := 0; i < f.Len(); i++ {
		for j, c := range cols {
			record[j] = formatCell(c, i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Close()
}

func formatCell(c *ml.Column, i int) string {
	if c.Kind == ml.Categorical {
		return c.Cat[i]
	}
	v := c.Num[i]
	switch {
	case math.IsNaN(v):
		return ""
	case c.Integer:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// WriteFile writes the dataset to path, replacing any existing file.
func WriteFile(path string, f *ml.Frame, columns []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(file, f, columns); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}
