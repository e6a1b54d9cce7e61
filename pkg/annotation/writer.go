package annotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chenBenjamin97/ballannotate/pkg/utils"
)

//Writer persists one annotation file per frame that has exactly one detection.
//It owns its directory exclusively: Reset wipes whatever a previous run left there.
type Writer struct {
	dir   string
	label StorageLabel
}

func NewWriter(dir string, label StorageLabel) *Writer {
	return &Writer{dir: dir, label: label}
}

//Dir returns the directory annotation files are written to
func (w *Writer) Dir() string {
	return w.dir
}

//Label returns the storage label used for image references
func (w *Writer) Label() StorageLabel {
	return w.label
}

//Reset empties and recreates the output directory
func (w *Writer) Reset() error {
	return utils.ResetDir(w.dir)
}

//Write stores the annotation of frameName ('000042.jpg') as '<dir>/000042.json' and returns the written path.
//frameW and frameH are the pixel dimensions of the frame the box was found on.
func (w *Writer) Write(frameName string, box PixelBox, frameW, frameH int) (string, error) {
	if frameW <= 0 || frameH <= 0 {
		return "", fmt.Errorf("Write: Invalid frame size %dx%d for '%s'", frameW, frameH, frameName)
	}

	tasks := NewBallTask(w.label.URI(frameName), box, frameW, frameH)
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Write: Could not encode annotation of '%s', got '%w'", frameName, err)
	}

	outPath := filepath.Join(w.dir, utils.Stem(frameName)+".json")
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("Write: Could not write '%s', got '%w'", outPath, err)
	}

	return outPath, nil
}
