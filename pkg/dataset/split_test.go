package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//writeSequenceTable writes a table of frames 0..n-1 with an image file per frame, odd frames visible
func writeSequenceTable(t *testing.T, dir, name string, n int) string {
	frames := filepath.Join(dir, "frames", name)
	require.NoError(t, os.MkdirAll(frames, 0755))

	rows := make([]annotation.Row, 0, n)
	for i := 0; i < n; i++ {
		img := filepath.Join(frames, utils.FrameName(i, ".jpg"))
		require.NoError(t, os.WriteFile(img, []byte{byte(i)}, 0644))
		if i%2 == 1 {
			rows = append(rows, annotation.Visible(i, annotation.CenterBox{X: 10 + i, Y: 20, W: 6, H: 6}, img))
		} else {
			rows = append(rows, annotation.NotVisible(i, img))
		}
	}

	table := filepath.Join(dir, name+".csv")
	require.NoError(t, annotation.WriteTable(table, rows))
	return table
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	table := writeSequenceTable(t, dir, "match_left_json", 10)
	out := filepath.Join(dir, "output")

	res, err := Split(SplitOptions{TablePath: table, Side: utils.SideLeft, Name: "match", Start: 3, End: 6, OutDir: out})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "left", "csv", "match_000003_000006_ball.csv"), res.TablePath)
	assert.Equal(t, filepath.Join(out, "left", "frame", "match_000003_000006"), res.FrameDir)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, 4, res.Copied)

	rows, err := annotation.ReadTable(res.TablePath)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, i, row.Frame)
		assert.Equal(t, (i+3)%2, row.Visibility)

		data, err := os.ReadFile(filepath.Join(res.FrameDir, itoa(i)+".jpg"))
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i + 3)}, data)
	}
	assert.Equal(t, 13, rows[0].X)
}

func TestSplitRecreatesFrameDir(t *testing.T) {
	dir := t.TempDir()
	table := writeSequenceTable(t, dir, "m", 5)
	out := filepath.Join(dir, "output")

	_, err := Split(SplitOptions{TablePath: table, Side: utils.SideRight, Name: "m", Start: 0, End: 4, OutDir: out})
	require.NoError(t, err)
	res, err := Split(SplitOptions{TablePath: table, Side: utils.SideRight, Name: "m", Start: 0, End: 4, OutDir: out})
	require.NoError(t, err)

	names, err := utils.ListDir(res.FrameDir)
	require.NoError(t, err)
	assert.Len(t, names, 5)
}

func TestSplitInvalidRange(t *testing.T) {
	_, err := Split(SplitOptions{Start: 5, End: 2})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSplitDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "20250928_075419")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeSequenceTable(t, dir, "0928mv_20250928_075419_left_json", 6)
	writeSequenceTable(t, dir, "0928mv_20250928_075419_right_json", 6)
	out := filepath.Join(dir, "output")

	results, err := SplitDir(dir, 1, 2, out, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.FileExists(t, filepath.Join(out, "left", "csv", "20250928_075419_000001_000002_ball.csv"))
	assert.FileExists(t, filepath.Join(out, "right", "frame", "20250928_075419_000001_000002", "1.jpg"))
}

func TestFindTablesAmbiguous(t *testing.T) {
	dir := t.TempDir()
	writeSequenceTable(t, dir, "a_left_json", 2)
	writeSequenceTable(t, dir, "b_left_json", 2)
	writeSequenceTable(t, dir, "a_right_json", 2)

	_, err := FindTables(dir)
	assert.ErrorIs(t, err, ErrAmbiguousTables)
}

func itoa(i int) string {
	return string(rune('0' + i))
}
