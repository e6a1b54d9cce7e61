package video

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var white = color.RGBA{255, 255, 255, 0}

//shadowGray is the value MOG2 uses to mark shadow pixels
var shadowGray = color.RGBA{127, 127, 127, 0}

//blankMat returns a black image of given size and type
func blankMat(rows, cols int, mt gocv.MatType) gocv.Mat {
	m := gocv.NewMatWithSize(rows, cols, mt)
	m.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return m
}

//syntheticFrame builds a 160x120 black BGR frame with a filled white square for every given rect
func syntheticFrame(blobs ...image.Rectangle) gocv.Mat {
	frame := blankMat(120, 160, gocv.MatTypeCV8UC3)
	for _, r := range blobs {
		gocv.Rectangle(&frame, r, white, -1)
	}
	return frame
}

//writeFrames stores one png per entry of blobs, named by its index
func writeFrames(t *testing.T, dir string, blobs [][]image.Rectangle) {
	t.Helper()
	for i, rects := range blobs {
		frame := syntheticFrame(rects...)
		ok := gocv.IMWrite(filepath.Join(dir, utils.FrameName(i, ".png")), frame)
		frame.Close()
		require.True(t, ok)
	}
}

func ballAt(x, y int) []image.Rectangle {
	return []image.Rectangle{image.Rect(x, y, x+10, y+10)}
}

