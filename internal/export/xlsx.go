package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	planSheet    = "Plan"
	summarySheet = "Summary"
	demandSheet  = "Demands"
)

// WriteXLSX writes a workbook with the plan, a summary and the demands.
func WriteXLSX(w io.Writer, doc Document) error {
	if err := doc.validate(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), planSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{summarySheet, demandSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	planRows := [][]any{{"Roll", "Pieces", "Piece count", "Used", "Waste"}}
	for i, roll := range doc.Result.Plan.Rolls {
		planRows = append(planRows, []any{i + 1, joinInts(roll.Pieces), len(roll.Pieces), roll.Used(), roll.Waste})
	}

	summaryRows := [][]any{
		{"Field", "Value"},
		{"Plan", doc.ID},
		{"Status", doc.Result.Status.String()},
		{"Variant", doc.Result.Variant.String()},
		{"Stock length", doc.StockLength},
		{"Rolls used", doc.Result.NumRollsUsed},
		{"Min rolls", doc.Result.Bounds.MinRolls},
		{"Max rolls", doc.Result.Bounds.MaxRolls},
		{"Total waste", doc.Result.Plan.TotalWaste()},
		{"Efficiency %", strconv.FormatFloat(doc.Efficiency(), 'f', 1, 64)},
		{"Attempts", doc.Result.Attempts},
		{"Solve time ms", doc.Result.WallTime.Milliseconds()},
	}

	demandRows := [][]any{{"Quantity", "Length"}}
	for _, d := range doc.Demands {
		demandRows = append(demandRows, []any{d.Quantity, d.Length})
	}

	for sheet, rows := range map[string][][]any{planSheet: planRows, summarySheet: summaryRows, demandSheet: demandRows} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		for j, value := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, ref, value); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, ref, err)
			}
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
