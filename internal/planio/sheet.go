package planio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/rollcut/internal/cutting"
)

var headerAliases = map[string][]string{
	"quantity": {"quantity", "qty", "count", "pieces"},
	"length":   {"length", "len", "size", "width"},
}

// ReadDemandsXLSX reads demands from the first sheet of a workbook. Columns
// are located by header, or taken as quantity then length when there is none.
func ReadDemandsXLSX(r io.Reader) ([]cutting.Demand, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedSheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return demandsFromRows(rows)
}

// ReadDemandsCSV reads demands from comma separated rows with the same
// column rules as ReadDemandsXLSX.
func ReadDemandsCSV(r io.Reader) ([]cutting.Demand, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}
	return demandsFromRows(rows)
}

func demandsFromRows(rows [][]string) ([]cutting.Demand, error) {
	rows = dropEmptyRows(rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedSheet)
	}

	quantityCol, lengthCol, isHeader := detectColumns(rows[0])
	if isHeader {
		if quantityCol < 0 || lengthCol < 0 {
			return nil, fmt.Errorf("%w: header %v", ErrMalformedSheet, rows[0])
		}
		rows = rows[1:]
	}

	demands := make([]cutting.Demand, 0, len(rows))
	for _, row := range rows {
		quantity, err := positiveInt(cell(row, quantityCol))
		if err != nil {
			return nil, fmt.Errorf("%w: row %v: quantity %v", ErrMalformedSheet, row, err)
		}
		length, err := positiveInt(cell(row, lengthCol))
		if err != nil {
			return nil, fmt.Errorf("%w: row %v: length %v", ErrMalformedSheet, row, err)
		}
		demands = append(demands, cutting.Demand{Quantity: quantity, Length: length})
	}
	if len(demands) == 0 {
		return nil, fmt.Errorf("%w: no demand rows", ErrMalformedSheet)
	}
	return demands, nil
}

func detectColumns(row []string) (quantityCol, lengthCol int, isHeader bool) {
	quantityCol, lengthCol = -1, -1
	for i, value := range row {
		normalized := strings.ToLower(strings.TrimSpace(value))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch {
				case role == "quantity" && quantityCol == -1:
					quantityCol = i
				case role == "length" && lengthCol == -1:
					lengthCol = i
				}
			}
		}
	}
	if !isHeader {
		return 0, 1, false
	}
	return quantityCol, lengthCol, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, value := range row {
			if strings.TrimSpace(value) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
