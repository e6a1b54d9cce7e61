package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/ballannotate/pkg/metrics"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoFrames is returned when an annotation directory holds no file with a frame index.
var ErrNoFrames = errors.New("no annotated frames")

// TableNameSegments is how many trailing path segments of the annotation
// directory make up the table file name.
const TableNameSegments = 3

type AggregateOptions struct {
	AnnotationDir string // per-frame JSON files, named by frame index
	ImageDir      string // source frames, used for the path column
	TableDir      string // where the CSV is written
	// CoverImages widens the row range to every frame found in ImageDir,
	// so frames before the first and after the last annotation get rows too.
	CoverImages bool
	Log         *zap.Logger
}

type AggregateResult struct {
	TablePath string
	Rows      []Row
	First     int
	Last      int
	Visible   int
	Missing   int // no file for the index
	Malformed int // file present but unreadable or without a box
}

// Aggregate rebuilds the dense annotation table of one sequence. Every index
// in [min, max] of the files present gets exactly one row; a missing or
// malformed file becomes a not-visible row. Causes are only counted.
func Aggregate(opts AggregateOptions) (*AggregateResult, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	names, err := utils.ListDir(opts.AnnotationDir)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}

	indices := make([]int, 0, len(names))
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		if idx, ok := utils.FrameIndex(name); ok {
			indices = append(indices, idx)
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("%s: %w", opts.AnnotationDir, ErrNoFrames)
	}

	images := imageNames(opts.ImageDir)
	if opts.CoverImages {
		for idx := range images {
			indices = append(indices, idx)
		}
	}
	first, last, _ := utils.FrameRange(indices)
	res := &AggregateResult{First: first, Last: last, Rows: make([]Row, 0, last-first+1)}

	for frame := first; frame <= last; frame++ {
		imagePath := filepath.Join(opts.ImageDir, imageName(images, frame))
		jsonPath := filepath.Join(opts.AnnotationDir, utils.FrameName(frame, ".json"))

		box, err := readBox(jsonPath)
		switch {
		case err == nil:
			res.Rows = append(res.Rows, Visible(frame, box, imagePath))
			res.Visible++
		case errors.Is(err, os.ErrNotExist):
			res.Rows = append(res.Rows, NotVisible(frame, imagePath))
			res.Missing++
		default:
			log.Warn("malformed annotation, using placeholder", zap.String("file", jsonPath), zap.Error(err))
			res.Rows = append(res.Rows, NotVisible(frame, imagePath))
			res.Malformed++
		}
	}

	if err := os.MkdirAll(opts.TableDir, 0755); err != nil {
		return nil, fmt.Errorf("create table dir: %w", err)
	}
	res.TablePath = filepath.Join(opts.TableDir, utils.TailName(opts.AnnotationDir, TableNameSegments)+".csv")
	if err := WriteTable(res.TablePath, res.Rows); err != nil {
		return nil, err
	}

	metrics.TableRowsTotal.WithLabelValues(metrics.VisibilityVisible).Add(float64(res.Visible))
	metrics.TableRowsTotal.WithLabelValues(metrics.VisibilityNotVisible).Add(float64(res.Missing + res.Malformed))
	metrics.PlaceholdersTotal.WithLabelValues(metrics.PlaceholderMissing).Add(float64(res.Missing))
	metrics.PlaceholdersTotal.WithLabelValues(metrics.PlaceholderMalformed).Add(float64(res.Malformed))

	log.Info("annotation table written",
		zap.String("table", res.TablePath),
		zap.Int("first", first),
		zap.Int("last", last),
		zap.Int("visible", res.Visible),
		zap.Int("missing", res.Missing),
		zap.Int("malformed", res.Malformed),
	)

	return res, nil
}

// readBox loads one annotation file. A missing file keeps its os.ErrNotExist
// so the caller can count it apart from malformed content.
func readBox(path string) (CenterBox, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CenterBox{}, err
	}

	var tasks []rawTask
	if err := json.Unmarshal(data, &tasks); err != nil {
		return CenterBox{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	pct, ow, oh, err := firstBox(tasks)
	if err != nil {
		return CenterBox{}, err
	}
	return ToPixels(pct, ow, oh), nil
}

// imageNames maps frame index to the image file name found in dir. An
// unreadable dir yields an empty map.
func imageNames(dir string) map[int]string {
	names := make(map[int]string)
	if dir == "" {
		return names
	}
	entries, err := utils.ListDir(dir)
	if err != nil {
		return names
	}
	for _, name := range entries {
		if !utils.IsImageFile(name) {
			continue
		}
		if idx, ok := utils.FrameIndex(name); ok {
			if _, seen := names[idx]; !seen {
				names[idx] = name
			}
		}
	}
	return names
}

func imageName(images map[int]string, frame int) string {
	if name, ok := images[frame]; ok {
		return name
	}
	return utils.FrameName(frame, ".jpg")
}
