package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"szews/internal/pipeline"
)

const finalSheetName = "SZEWS"

// WriteFinalExcel writes the final table as an Excel workbook for offline
// review. Same column contract as the CSV; the workbook adds a styled header
// and an auto-filter, nothing more.
func WriteFinalExcel(path string, records []pipeline.RegionMonth) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", finalSheetName)

	sw, err := f.NewStreamWriter(finalSheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := make([]interface{}, len(FinalTableHeader))
	for i, name := range FinalTableHeader {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, rm := range records {
		row := excelRow(rm)
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell reference for row %d: %w", i+2, err)
		}
		if err := sw.SetRow(cellRef, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(FinalTableHeader))
	if err == nil {
		rangeRef := fmt.Sprintf("A1:%s%d", lastCol, len(records)+1)
		// Best effort; the filter is a convenience, not part of the contract.
		_ = f.AutoFilter(finalSheetName, rangeRef, nil)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func excelRow(rm pipeline.RegionMonth) []interface{} {
	var baseline interface{}
	if rm.BaselineDefined {
		baseline = rm.Baseline
	} else {
		baseline = ""
	}
	return []interface{}{
		rm.YYYYMM(),
		rm.State,
		rm.District,
		rm.PINCode,
		rm.RegionID,
		rm.EnrolActivity,
		rm.DemoActivity,
		rm.BioActivity,
		rm.TotalActivity,
		baseline,
		rm.SuppressionRatio,
		rm.SuppressionDepth,
		rm.ModerateRun,
		rm.SevereRun,
		rm.SilenceDuration,
		rm.SZI,
		rm.SilenceState.String(),
		rm.AlertFlag,
		rm.Recommendation,
	}
}
