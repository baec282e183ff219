package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig centralizes every file-system location the system touches.
// Nothing else in the codebase hard-codes a data path; the pipeline entry
// points receive these values explicitly.
type PathsConfig struct {
	// BaseDir anchors all relative paths; defaults to the working directory.
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
	// DataDir holds raw and processed data, relative to BaseDir.
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
}

// resolve anchors DataDir under BaseDir.
func (p *PathsConfig) resolve() {
	if p.BaseDir == "" {
		p.BaseDir = "."
	}
	if p.DataDir == "" {
		p.DataDir = "data"
	}
	if !filepath.IsAbs(p.DataDir) {
		p.DataDir = filepath.Join(p.BaseDir, p.DataDir)
	}
}

// RawDir is where per-source shard directories live
// (raw/enrolment, raw/demographic, raw/biometric).
func (p PathsConfig) RawDir() string {
	return filepath.Join(p.DataDir, "raw")
}

// RawSourceDir is the shard directory for one source feed.
func (p PathsConfig) RawSourceDir(source string) string {
	return filepath.Join(p.RawDir(), source)
}

// ProcessedDir holds merged feeds and pipeline outputs.
func (p PathsConfig) ProcessedDir() string {
	return filepath.Join(p.DataDir, "processed")
}

// FeedPath is the merged feed file for one source.
func (p PathsConfig) FeedPath(source string) string {
	return filepath.Join(p.ProcessedDir(), fmt.Sprintf("%s_all.csv", source))
}

// FinalTablePath is the flat output table the reporting layer consumes.
func (p PathsConfig) FinalTablePath() string {
	return filepath.Join(p.ProcessedDir(), "szews_final.csv")
}

// ExcelReportPath is the Excel rendering of the final table.
func (p PathsConfig) ExcelReportPath() string {
	return filepath.Join(p.ProcessedDir(), "szews_final.xlsx")
}

// EnsureDirs creates the directories the pipeline writes into.
func (p PathsConfig) EnsureDirs() error {
	for _, dir := range []string{p.RawDir(), p.ProcessedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
