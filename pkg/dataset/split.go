package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/chenBenjamin97/ballannotate/pkg/video"
	"go.uber.org/zap"
)

var (
	ErrInvalidRange    = errors.New("invalid frame range")
	ErrAmbiguousTables = errors.New("expected exactly one table per camera side")
)

const (
	FrameDirName = "frame"
	CSVDirName   = "csv"
)

//SplitOptions selects a closed frame range [Start, End] of one table
type SplitOptions struct {
	TablePath string
	Side      utils.Side
	Name      string //clip base name
	Start     int
	End       int
	OutDir    string
	Log       *zap.Logger
}

type SplitResult struct {
	TablePath string //written clip table
	FrameDir  string //copied frames, '<n>.jpg' with n counted from 0
	Rows      int
	Copied    int
}

//ClipName is the folder and table base name of a clip
func ClipName(name string, start, end int) string {
	return fmt.Sprintf("%s_%0*d_%0*d", name, utils.FrameIndexDigits, start, utils.FrameIndexDigits, end)
}

//Split extracts the rows of opts.Start..opts.End from a sequence table into a self contained clip:
//frames are renumbered from 0, each row's image is copied next to it and the table's path column
//is kept pointing at the source frame. The clip frame directory is recreated on every call.
func Split(opts SplitOptions) (*SplitResult, error) {
	if opts.Start > opts.End || opts.Start < 0 {
		return nil, fmt.Errorf("Split: [%d, %d]: %w", opts.Start, opts.End, ErrInvalidRange)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	rows, err := annotation.ReadTable(opts.TablePath)
	if err != nil {
		return nil, fmt.Errorf("Split: Error reading '%v', got '%w'", opts.TablePath, err)
	}

	clip := ClipName(opts.Name, opts.Start, opts.End)
	sideDir := filepath.Join(opts.OutDir, opts.Side.String())
	res := &SplitResult{
		TablePath: filepath.Join(sideDir, CSVDirName, clip+video.SplitTableSuffix+".csv"),
		FrameDir:  filepath.Join(sideDir, FrameDirName, clip),
	}

	if err := utils.ResetDir(res.FrameDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(res.TablePath), 0755); err != nil {
		return nil, fmt.Errorf("Split: Error creating '%v', got '%w'", filepath.Dir(res.TablePath), err)
	}

	selected := make([]annotation.Row, 0)
	for _, row := range rows {
		if row.Frame < opts.Start || row.Frame > opts.End {
			continue
		}

		row.Frame = len(selected)
		dst := filepath.Join(res.FrameDir, fmt.Sprintf("%d.jpg", row.Frame))
		if err := copyFile(row.Path, dst); err != nil {
			log.Warn("Frame not copied", zap.String("path", row.Path), zap.Error(err))
		} else {
			res.Copied++
		}
		selected = append(selected, row)
	}
	res.Rows = len(selected)

	if err := annotation.WriteTable(res.TablePath, selected); err != nil {
		return nil, err
	}

	log.Info("Clip written",
		zap.String("table", res.TablePath),
		zap.Int("rows", res.Rows),
		zap.Int("copied", res.Copied),
	)
	return res, nil
}

//FindTables returns the table of each camera side in dir. Exactly one '.csv' per side must be present,
//a side is recognized by its name appearing in the file name.
func FindTables(dir string) (map[utils.Side]string, error) {
	names, err := utils.ListDir(dir)
	if err != nil {
		return nil, err
	}

	found := make(map[utils.Side][]string)
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		for _, side := range utils.Sides {
			if strings.Contains(strings.ToLower(name), side.String()) {
				found[side] = append(found[side], filepath.Join(dir, name))
			}
		}
	}

	tables := make(map[utils.Side]string)
	for _, side := range utils.Sides {
		if len(found[side]) != 1 {
			return nil, fmt.Errorf("FindTables: %d %s tables in '%v': %w", len(found[side]), side, dir, ErrAmbiguousTables)
		}
		tables[side] = found[side][0]
	}
	return tables, nil
}

//SplitDir splits both side tables found in dir with the same range, the clip name is the base name of dir
func SplitDir(dir string, start, end int, outDir string, log *zap.Logger) ([]*SplitResult, error) {
	tables, err := FindTables(dir)
	if err != nil {
		return nil, err
	}

	results := make([]*SplitResult, 0, len(tables))
	for _, side := range utils.Sides {
		res, err := Split(SplitOptions{
			TablePath: tables[side],
			Side:      side,
			Name:      filepath.Base(dir),
			Start:     start,
			End:       end,
			OutDir:    outDir,
			Log:       log,
		})
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
