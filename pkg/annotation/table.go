package annotation

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Row is one line of an annotation table. Column names are a stable contract
// with the split and draw tools and with the trajectory model loader.
type Row struct {
	Frame      int    `csv:"Frame" json:"frame"`
	Visibility int    `csv:"Visibility" json:"visibility"`
	X          int    `csv:"X" json:"x"`
	Y          int    `csv:"Y" json:"y"`
	W          int    `csv:"W" json:"w"`
	H          int    `csv:"H" json:"h"`
	Path       string `csv:"path" json:"path"`
}

// NotVisible returns the placeholder row for a frame without a usable box.
func NotVisible(frame int, path string) Row {
	return Row{Frame: frame, Path: path}
}

// Visible returns the row of a frame with one box.
func Visible(frame int, box CenterBox, path string) Row {
	return Row{Frame: frame, Visibility: 1, X: box.X, Y: box.Y, W: box.W, H: box.H, Path: path}
}

// consumerRow accepts both the W/H columns and the Width/Height variant.
type consumerRow struct {
	Row
	Width  int `csv:"Width"`
	Height int `csv:"Height"`
}

// WriteTable writes rows to path, replacing any existing file.
func WriteTable(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write table %s: %w", path, err)
	}
	return f.Close()
}

// ReadTable reads a table written by WriteTable or by a tool using the
// Width/Height column names.
func ReadTable(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	defer f.Close()

	var raw []consumerRow
	if err := gocsv.UnmarshalFile(f, &raw); err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := r.Row
		if row.W == 0 && r.Width != 0 {
			row.W = r.Width
		}
		if row.H == 0 && r.Height != 0 {
			row.H = r.Height
		}
		rows = append(rows, row)
	}
	return rows, nil
}
