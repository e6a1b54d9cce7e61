package video

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocv.io/x/gocv"
)

func newTestSequence(t *testing.T) Sequence {
	root := t.TempDir()
	dir := filepath.Join(root, "match1", "cam", "left")
	require.NoError(t, os.MkdirAll(dir, 0755))
	return Sequence{
		Dir:           dir,
		Side:          utils.SideLeft,
		Relative:      "match1/cam/left",
		AnnotationDir: dir + utils.AnnotationDirSuffix,
		OverlayDir:    dir + utils.OverlayDirSuffix,
		MaskDir:       dir + utils.MaskDirSuffix,
	}
}

func newTestProcessor(t *testing.T, tableDir string) *Processor {
	return NewProcessor(ProcessorConfig{
		Background: DefaultBackgroundConfig(),
		Blob:       DefaultBlobConfig(),
		Storage:    annotation.StorageLabel{Scheme: "s3", Bucket: "frames", Prefix: "raw"},
		TableDir:   tableDir,
	}, zaptest.NewLogger(t))
}

func TestProcessSingleMovingBall(t *testing.T) {
	seq := newTestSequence(t)
	writeFrames(t, seq.Dir, [][]image.Rectangle{nil, nil, ballAt(50, 50), nil, nil})
	tableDir := filepath.Join(t.TempDir(), "tables")

	res, err := newTestProcessor(t, tableDir).Process(context.Background(), seq)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Frames)
	assert.Equal(t, 1, res.Annotated)
	assert.Equal(t, 4, res.NoDetection)
	assert.Zero(t, res.MultiDetection)
	assert.Zero(t, res.Unreadable)

	written, err := utils.ListDir(seq.AnnotationDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002.json"}, written)
	assert.FileExists(t, filepath.Join(seq.OverlayDir, "000002.png"))
	assert.FileExists(t, filepath.Join(seq.MaskDir, "000000.png"))

	require.NotNil(t, res.Table)
	assert.Equal(t, filepath.Join(tableDir, "match1_cam_left_json.csv"), res.Table.TablePath)

	rows, err := annotation.ReadTable(res.Table.TablePath)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, i, row.Frame)
		assert.Equal(t, filepath.Join(seq.Dir, utils.FrameName(i, ".png")), row.Path)
		if i != 2 {
			assert.Equal(t, 0, row.Visibility, "frame %d", i)
			continue
		}
		assert.Equal(t, 1, row.Visibility)
		assert.InDelta(t, 55, row.X, 1)
		assert.InDelta(t, 55, row.Y, 1)
		assert.True(t, row.W >= 15 && row.W <= 18, "W = %d", row.W)
		assert.True(t, row.H >= 15 && row.H <= 18, "H = %d", row.H)
	}
}

func TestProcessSkipsAmbiguousFrames(t *testing.T) {
	seq := newTestSequence(t)
	twoBalls := append(ballAt(20, 20), ballAt(110, 80)...)
	writeFrames(t, seq.Dir, [][]image.Rectangle{nil, nil, twoBalls, nil})

	res, err := newTestProcessor(t, t.TempDir()).Process(context.Background(), seq)
	require.NoError(t, err)

	assert.Equal(t, 1, res.MultiDetection)
	assert.Zero(t, res.Annotated)
	assert.Nil(t, res.Table)

	written, err := utils.ListDir(seq.AnnotationDir)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestProcessSkipsUnreadableFrames(t *testing.T) {
	seq := newTestSequence(t)
	writeFrames(t, seq.Dir, [][]image.Rectangle{nil, nil, ballAt(70, 40)})
	require.NoError(t, os.WriteFile(filepath.Join(seq.Dir, "000003.png"), []byte("not an image"), 0644))

	res, err := newTestProcessor(t, t.TempDir()).Process(context.Background(), seq)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Frames)
	assert.Equal(t, 1, res.Unreadable)
	assert.Equal(t, 1, res.Annotated)
	require.NotNil(t, res.Table)
	assert.Len(t, res.Table.Rows, 4)
}

func TestProcessResetsOutputDirs(t *testing.T) {
	seq := newTestSequence(t)
	writeFrames(t, seq.Dir, [][]image.Rectangle{nil, nil})
	require.NoError(t, os.MkdirAll(seq.AnnotationDir, 0755))
	stale := filepath.Join(seq.AnnotationDir, "000001.json")
	require.NoError(t, os.WriteFile(stale, []byte("[]"), 0644))

	res, err := newTestProcessor(t, t.TempDir()).Process(context.Background(), seq)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.Nil(t, res.Table)
}

func TestProcessStopsOnCancel(t *testing.T) {
	seq := newTestSequence(t)
	writeFrames(t, seq.Dir, [][]image.Rectangle{nil, nil, nil})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestProcessor(t, t.TempDir()).Process(ctx, seq)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Frames)
}

func TestProcessMissingDir(t *testing.T) {
	seq := newTestSequence(t)
	seq.Dir = filepath.Join(seq.Dir, "nope")

	_, err := newTestProcessor(t, t.TempDir()).Process(context.Background(), seq)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackgroundModelClearsFirstMask(t *testing.T) {
	model := NewBackgroundModel(utils.SideRight, DefaultBackgroundConfig())
	defer model.Close()

	frame := syntheticFrame(ballAt(10, 10)...)
	defer frame.Close()
	mask := blankMat(120, 160, gocv.MatTypeCV8U)
	defer mask.Close()

	require.NoError(t, model.Apply(frame, &mask))
	assert.Equal(t, 1, model.Frames())
	assert.Equal(t, utils.SideRight, model.Side())
	assert.Zero(t, gocv.CountNonZero(mask))
}
