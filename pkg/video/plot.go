package video

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"gocv.io/x/gocv"
)

var ballColor = color.RGBA{0, 255, 0, 0}

//SplitTableSuffix ends the name of tables produced by a frame-range split, the rest of the name is the frame folder
const SplitTableSuffix = "_ball"

//plotBall draws an accepted ball box on given frame
func plotBall(frame *gocv.Mat, box image.Rectangle, plotColor color.RGBA, thickness int) {
	gocv.Rectangle(frame, box, plotColor, thickness)
}

//centerRect converts a table row (center + size) back to the rectangle it describes
func centerRect(row annotation.Row) image.Rectangle {
	halfW, halfH := float64(row.W)/2, float64(row.H)/2
	cx, cy := float64(row.X), float64(row.Y)
	return image.Rect(int(cx-halfW), int(cy-halfH), int(cx+halfW), int(cy+halfH))
}

//DrawTable plots every visible row of an annotation table on its frame and saves the result in outDir.
//Frames are looked up as '<Frame>.png' then '<Frame>.jpg' inside frameDir (the layout Split produces);
//when frameDir is empty the row's own path column is used.
//Returns how many frames were drawn.
func DrawTable(tablePath, frameDir, outDir string) (int, error) {
	rows, err := annotation.ReadTable(tablePath)
	if err != nil {
		return 0, fmt.Errorf("DrawTable: Error reading table '%v', got '%w'", tablePath, err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("DrawTable: Error creating '%v', got '%w'", outDir, err)
	}

	drawn := 0
	for _, row := range rows {
		if row.Visibility == 0 {
			continue
		}

		src := tableFramePath(row, frameDir)
		if src == "" {
			continue
		}

		frame := gocv.IMRead(src, gocv.IMReadColor)
		if frame.Empty() {
			frame.Close()
			continue
		}

		plotBall(&frame, centerRect(row), ballColor, 2)
		ok := gocv.IMWrite(filepath.Join(outDir, filepath.Base(src)), frame)
		frame.Close()
		if !ok {
			return drawn, fmt.Errorf("DrawTable: Could not write overlay for frame %d", row.Frame)
		}
		drawn++
	}

	return drawn, nil
}

func tableFramePath(row annotation.Row, frameDir string) string {
	if frameDir == "" {
		return row.Path
	}

	for _, ext := range []string{".png", ".jpg"} {
		candidate := filepath.Join(frameDir, fmt.Sprintf("%d%s", row.Frame, ext))
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	//fall back to the zero padded name the pipeline itself reads
	candidate := filepath.Join(frameDir, utils.FrameName(row.Frame, ".jpg"))
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

//DrawDir runs DrawTable for every split table ('<folder>_ball.csv') in tableDir, reading frames from
//'<frameRoot>/<folder>' and writing overlays to '<outRoot>/<folder>'. Tables without a frame folder are skipped.
func DrawDir(tableDir, frameRoot, outRoot string) (map[string]int, error) {
	names, err := utils.ListDir(tableDir)
	if err != nil {
		return nil, err
	}

	drawn := make(map[string]int)
	for _, name := range names {
		if filepath.Ext(name) != ".csv" {
			continue
		}

		folder := strings.TrimSuffix(utils.Stem(name), SplitTableSuffix)
		frameDir := filepath.Join(frameRoot, folder)
		if info, err := os.Stat(frameDir); err != nil || !info.IsDir() {
			continue
		}

		n, err := DrawTable(filepath.Join(tableDir, name), frameDir, filepath.Join(outRoot, folder))
		if err != nil {
			return drawn, err
		}
		drawn[name] = n
	}

	return drawn, nil
}
