// Package exporter owns the serialization of the final region-month table.
// The column names and order are the contract the reporting layer depends on;
// they must remain stable.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"szews/internal/pipeline"
)

// FinalTableHeader is the stable column contract of the final table.
var FinalTableHeader = []string{
	"yyyymm",
	"state",
	"district",
	"pin_code",
	"region_id",
	"enrol_activity",
	"demo_activity",
	"bio_activity",
	"total_activity",
	"baseline_total_ma6",
	"suppression_ratio",
	"suppression_depth_pct",
	"moderate_run",
	"severe_run",
	"silence_duration_months",
	"SZI",
	"silence_state",
	"alert_flag",
	"recommendation",
}

// WriteFinalCSV writes the final table. An undefined baseline serializes as
// an empty cell; every other numeric column always has a value.
func WriteFinalCSV(path string, records []pipeline.RegionMonth) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create final table: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(FinalTableHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rm := range records {
		if err := writer.Write(finalRecord(rm)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

func finalRecord(rm pipeline.RegionMonth) []string {
	baseline := ""
	if rm.BaselineDefined {
		baseline = formatFloat(rm.Baseline)
	}
	return []string{
		rm.YYYYMM(),
		rm.State,
		rm.District,
		rm.PINCode,
		rm.RegionID,
		formatFloat(rm.EnrolActivity),
		formatFloat(rm.DemoActivity),
		formatFloat(rm.BioActivity),
		formatFloat(rm.TotalActivity),
		baseline,
		formatFloat(rm.SuppressionRatio),
		formatFloat(rm.SuppressionDepth),
		strconv.Itoa(rm.ModerateRun),
		strconv.Itoa(rm.SevereRun),
		strconv.Itoa(rm.SilenceDuration),
		formatFloat(rm.SZI),
		rm.SilenceState.String(),
		strconv.Itoa(rm.AlertFlag),
		rm.Recommendation,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadFinalCSV loads a final table written by WriteFinalCSV. Rows whose
// region key or SZI cannot be read are dropped; the dropped count is returned
// so the caller can surface it as a data-quality warning.
func ReadFinalCSV(path string) (records []pipeline.RegionMonth, dropped int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open final table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(FinalTableHeader)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read final table: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("final table is empty: %s", path)
	}

	for _, row := range rows[1:] {
		rm, ok := parseFinalRecord(row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rm)
	}

	return records, dropped, nil
}

func parseFinalRecord(row []string) (pipeline.RegionMonth, bool) {
	month, err := time.Parse("2006-01", row[0])
	if err != nil {
		return pipeline.RegionMonth{}, false
	}
	if row[4] == "" {
		return pipeline.RegionMonth{}, false
	}
	szi, err := strconv.ParseFloat(row[15], 64)
	if err != nil {
		return pipeline.RegionMonth{}, false
	}
	state, err := pipeline.ParseSilenceState(row[16])
	if err != nil {
		return pipeline.RegionMonth{}, false
	}

	rm := pipeline.RegionMonth{
		Month:            month,
		State:            row[1],
		District:         row[2],
		PINCode:          row[3],
		RegionID:         row[4],
		EnrolActivity:    parseFloatOrZero(row[5]),
		DemoActivity:     parseFloatOrZero(row[6]),
		BioActivity:      parseFloatOrZero(row[7]),
		TotalActivity:    parseFloatOrZero(row[8]),
		SuppressionRatio: parseFloatOrZero(row[10]),
		SuppressionDepth: parseFloatOrZero(row[11]),
		ModerateRun:      parseIntOrZero(row[12]),
		SevereRun:        parseIntOrZero(row[13]),
		SilenceDuration:  parseIntOrZero(row[14]),
		SZI:              szi,
		SilenceState:     state,
		AlertFlag:        parseIntOrZero(row[17]),
		Recommendation:   row[18],
	}
	if row[9] != "" {
		rm.Baseline = parseFloatOrZero(row[9])
		rm.BaselineDefined = true
	}
	return rm, true
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
