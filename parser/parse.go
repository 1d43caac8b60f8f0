package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/models"

	"github.com/xuri/excelize/v2"
)

// timestampLayouts are tried in order for text timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02/01/2006",
}

// suffixedMunicipalities get " - GO" appended so they match the lookup table.
var suffixedMunicipalities = map[string]bool{
	"CALDAS NOVAS": true,
	"CATALAO":      true,
	"ITUMBIARA":    true,
	"MORRINHOS":    true,
	"RIO VERDE":    true,
	"PIRES DO RIO": true,
}

// ParseOrders maps the rows of a service-line export onto WorkOrders.
// Rows whose anchor (request) timestamp is missing or unparseable cannot be
// repaired; they are skipped and counted in the returned warning, which is
// nil when nothing was skipped. A missing required column is a SchemaError.
func ParseOrders(t *Table, schema models.SourceSchema) ([]models.WorkOrder, *customerrors.SkippedRowsWarning, error) {
	cols := make(map[string]int, 11)
	for _, name := range schema.Columns() {
		i, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		cols[name] = i
	}

	orders := make([]models.WorkOrder, 0, t.Len())
	skipped := 0
	for r := range t.Rows {
		cell := func(name string) string { return t.Cell(r, cols[name]) }

		requested, ok := ParseTimestamp(cell(schema.RequestedAt))
		if !ok {
			skipped++
			continue
		}

		order := models.WorkOrder{
			Prefix:        cell(schema.Prefix),
			OrderNumber:   cell(schema.OrderNumber),
			Municipality:  NormalizeMunicipality(cell(schema.Municipality)),
			OrderType:     cell(schema.OrderType),
			OrderSubtype:  cell(schema.OrderSubtype),
			Effectiveness: cell(schema.Effectiveness),
			Status:        schema.Status,
		}
		if schema.OrderNumberSuffixed {
			order.OrderNumber = strconv.Itoa(leadingNumber(order.OrderNumber))
		}

		order.RequestedAt = requested
		order.TravelStart, _ = ParseTimestamp(cell(schema.TravelStart))
		order.TravelEnd, _ = ParseTimestamp(cell(schema.TravelEnd))
		order.ExecStart, _ = ParseTimestamp(cell(schema.ExecStart))
		order.ExecEnd, _ = ParseTimestamp(cell(schema.ExecEnd))

		orders = append(orders, order)
	}

	if skipped > 0 {
		return orders, &customerrors.SkippedRowsWarning{
			Table:  t.Name,
			Reason: "missing or invalid " + schema.RequestedAt,
			Count:  skipped,
		}, nil
	}
	return orders, nil, nil
}

// ParseLookups reads the paired ("ID X", "X") columns of the IDs table for
// every dimension in names. Blank labels are skipped; an id that is not a
// number is stored as 0.
func ParseLookups(t *Table, names []string) (models.Lookups, error) {
	lookups := make(models.Lookups, len(names))
	for _, name := range names {
		labelCol, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		idCol, err := t.Column("ID " + name)
		if err != nil {
			return nil, err
		}

		dim := models.NewLookupDimension(name)
		for r := range t.Rows {
			label := t.Cell(r, labelCol)
			if label == "" {
				continue
			}
			dim.Add(label, ParseInt(t.Cell(r, idCol)))
		}
		lookups[name] = dim
	}
	return lookups, nil
}

// ParseTimestamp parses a text timestamp or an Excel serial date.
// It reports false for empty or unparseable values.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Round(time.Second), true
		}
	}
	return time.Time{}, false
}

// ParseInt converts an id cell to an int, accepting "12" and "12.0".
// Anything else, including NaN, infinities and out of range values, yields 0.
func ParseInt(value string) int {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0
	}
	return int(f)
}

// NormalizeMunicipality appends the state suffix to the municipalities the
// IDs table lists as "<NAME> - GO".
func NormalizeMunicipality(name string) string {
	if suffixedMunicipalities[name] {
		return name + " - GO"
	}
	return name
}

// leadingNumber returns the integer before the first '-' in value, or 0.
func leadingNumber(value string) int {
	head, _, _ := strings.Cut(value, "-")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return n
}
