package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

//Report summarizes one pipeline run, one entry per discovered sequence
type Report struct {
	RunID    string         `yaml:"run_id" json:"run_id"`
	Started  time.Time      `yaml:"started" json:"started"`
	Finished time.Time      `yaml:"finished" json:"finished"`
	Folders  []FolderReport `yaml:"folders" json:"folders"`
	Failed   int            `yaml:"failed" json:"failed"`
}

type FolderReport struct {
	Dir            string  `yaml:"dir" json:"dir"`
	Side           string  `yaml:"side" json:"side"`
	Status         string  `yaml:"status" json:"status"`
	Error          string  `yaml:"error,omitempty" json:"error,omitempty"`
	Frames         int     `yaml:"frames" json:"frames"`
	Annotated      int     `yaml:"annotated" json:"annotated"`
	NoDetection    int     `yaml:"no_detection" json:"no_detection"`
	MultiDetection int     `yaml:"multi_detection" json:"multi_detection"`
	Unreadable     int     `yaml:"unreadable" json:"unreadable"`
	Table          string  `yaml:"table,omitempty" json:"table,omitempty"`
	Rows           int     `yaml:"rows" json:"rows"`
	Missing        int     `yaml:"missing" json:"missing"`
	Malformed      int     `yaml:"malformed" json:"malformed"`
	Seconds        float64 `yaml:"seconds" json:"seconds"`
}

//NewReport builds the report of a run that started at given time
func NewReport(started time.Time, results []FolderResult) *Report {
	report := &Report{
		RunID:    uuid.NewString(),
		Started:  started,
		Finished: time.Now(),
		Folders:  make([]FolderReport, 0, len(results)),
	}

	for _, r := range results {
		folder := FolderReport{Dir: r.Sequence.Dir, Side: r.Sequence.Side.String(), Status: StatusOK}
		if res := r.Result; res != nil {
			folder.Frames = res.Frames
			folder.Annotated = res.Annotated
			folder.NoDetection = res.NoDetection
			folder.MultiDetection = res.MultiDetection
			folder.Unreadable = res.Unreadable
			folder.Seconds = res.Duration.Seconds()
			if res.Table != nil {
				folder.Table = res.Table.TablePath
				folder.Rows = len(res.Table.Rows)
				folder.Missing = res.Table.Missing
				folder.Malformed = res.Table.Malformed
			} else {
				folder.Status = StatusEmpty
			}
		}
		if r.Err != nil {
			folder.Status = StatusFailed
			folder.Error = r.Err.Error()
			report.Failed++
		}
		report.Folders = append(report.Folders, folder)
	}

	return report
}

//WriteReport writes report to path as YAML, creating parent directories
func WriteReport(path string, report *Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("WriteReport: Error encoding report, got '%w'", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("WriteReport: Error creating '%v', got '%w'", filepath.Dir(path), err)
	}

	return os.WriteFile(path, data, 0644)
}

//ReadReport loads a report written by WriteReport
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("ReadReport: Error decoding '%v', got '%w'", path, err)
	}

	return &report, nil
}
