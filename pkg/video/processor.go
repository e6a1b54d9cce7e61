package video

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/metrics"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

//ProcessorConfig holds everything a Processor needs besides the sequence itself
type ProcessorConfig struct {
	Background BackgroundConfig
	Blob       BlobConfig
	Storage    annotation.StorageLabel //Relative is filled per sequence
	TableDir   string                  //where aggregated tables go
}

//Processor annotates camera-side sequences. A Processor holds no per-sequence state and can be shared
//between workers; every Process call builds its own background model and blob extractor.
type Processor struct {
	cfg ProcessorConfig
	log *zap.Logger
}

func NewProcessor(cfg ProcessorConfig, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{cfg: cfg, log: log}
}

//sequenceRun is the state of one Process call
type sequenceRun struct {
	seq    Sequence
	log    *zap.Logger
	model  *BackgroundModel
	blobs  *BlobExtractor
	writer *annotation.Writer
	mask   gocv.Mat
	res    *SequenceResult
}

//Process runs every frame of seq through background subtraction and blob extraction, writes one annotation
//per frame holding exactly one candidate, then aggregates the annotations into the sequence table.
//Output directories of seq are wiped first. A cancelled ctx stops the run between frames.
func (p *Processor) Process(ctx context.Context, seq Sequence) (res *SequenceResult, err error) {
	start := time.Now()
	log := p.log.With(zap.String("sequence", seq.Dir), zap.Stringer("side", seq.Side))
	res = &SequenceResult{Sequence: seq}

	defer func() {
		res.Duration = time.Since(start)
		metrics.SequenceDuration.WithLabelValues(seq.Side.String()).Observe(res.Duration.Seconds())
		switch {
		case err != nil:
			metrics.SequencesTotal.WithLabelValues(metrics.SequenceStatusFailed).Inc()
		case res.Table == nil:
			metrics.SequencesTotal.WithLabelValues(metrics.SequenceStatusEmpty).Inc()
		default:
			metrics.SequencesTotal.WithLabelValues(metrics.SequenceStatusOK).Inc()
		}
	}()

	frames, err := listFrames(seq.Dir)
	if err != nil {
		return res, err
	}

	label := p.cfg.Storage
	label.Relative = seq.Relative
	run := &sequenceRun{
		seq:    seq,
		log:    log,
		model:  NewBackgroundModel(seq.Side, p.cfg.Background),
		blobs:  NewBlobExtractor(p.cfg.Blob),
		writer: annotation.NewWriter(seq.AnnotationDir, label),
		mask:   gocv.NewMat(),
		res:    res,
	}
	defer run.close()

	if err := run.writer.Reset(); err != nil {
		return res, err
	}
	for _, dir := range []string{seq.OverlayDir, seq.MaskDir} {
		if dir == "" {
			continue
		}
		if err := utils.ResetDir(dir); err != nil {
			return res, fmt.Errorf("Process: Error resetting '%v', got '%w'", dir, err)
		}
	}

	log.Info("Processing sequence", zap.Int("frames", len(frames)))

	for _, name := range frames {
		if err := ctx.Err(); err != nil {
			log.Warn("Sequence interrupted", zap.Int("processed", res.Frames))
			return res, err
		}

		outcome, err := run.frame(name)
		if err != nil {
			return res, err
		}
		res.Frames++
		metrics.FramesTotal.WithLabelValues(seq.Side.String(), outcome).Inc()
	}

	table, err := annotation.Aggregate(annotation.AggregateOptions{
		AnnotationDir: seq.AnnotationDir,
		ImageDir:      seq.Dir,
		TableDir:      p.cfg.TableDir,
		CoverImages:   true,
		Log:           log,
	})
	switch {
	case errors.Is(err, annotation.ErrNoFrames):
		log.Info("No frame was annotated, no table written")
	case err != nil:
		return res, fmt.Errorf("Process: Error aggregating '%v', got '%w'", seq.AnnotationDir, err)
	default:
		res.Table = table
	}

	log.Info("Sequence done",
		zap.Int("frames", res.Frames),
		zap.Int("annotated", res.Annotated),
		zap.Int("no_detection", res.NoDetection),
		zap.Int("multi_detection", res.MultiDetection),
		zap.Int("unreadable", res.Unreadable),
	)

	return res, nil
}

//frame handles a single frame and returns its outcome label. Only failures that make the rest of the
//sequence meaningless are returned as errors.
func (r *sequenceRun) frame(name string) (string, error) {
	frame := gocv.IMRead(filepath.Join(r.seq.Dir, name), gocv.IMReadColor)
	defer frame.Close()

	if frame.Empty() {
		r.log.Warn("Skipping unreadable frame", zap.String("frame", name))
		r.res.Unreadable++
		return metrics.OutcomeUnreadable, nil
	}

	if err := r.model.Apply(frame, &r.mask); err != nil {
		return "", err
	}

	boxes, err := r.blobs.Extract(r.mask)
	if err != nil {
		return "", err
	}

	if r.seq.MaskDir != "" {
		if !gocv.IMWrite(filepath.Join(r.seq.MaskDir, name), r.blobs.Cleaned()) {
			r.log.Warn("Could not save mask", zap.String("frame", name))
		}
	}

	switch len(boxes) {
	case 0:
		r.log.Debug("No candidate", zap.String("frame", name))
		r.res.NoDetection++
		return metrics.OutcomeNoDetection, nil
	case 1:
	default:
		r.log.Debug("Ambiguous frame", zap.String("frame", name), zap.Int("candidates", len(boxes)))
		r.res.MultiDetection++
		return metrics.OutcomeMultiDetection, nil
	}

	if _, err := r.writer.Write(name, boxes[0], frame.Cols(), frame.Rows()); err != nil {
		return "", err
	}
	r.res.Annotated++

	if r.seq.OverlayDir != "" {
		plotBall(&frame, boxes[0].Rect(), ballColor, 1)
		if !gocv.IMWrite(filepath.Join(r.seq.OverlayDir, name), frame) {
			r.log.Warn("Could not save overlay", zap.String("frame", name))
		}
	}

	return metrics.OutcomeAnnotated, nil
}

func (r *sequenceRun) close() {
	r.model.Close()
	r.blobs.Close()
	r.mask.Close()
}

//listFrames returns the image files of dir ordered by frame index
func listFrames(dir string) ([]string, error) {
	names, err := utils.ListDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listFrames: Error reading '%v', got '%w'", dir, err)
	}

	frames := make([]string, 0, len(names))
	for _, name := range names {
		if utils.IsImageFile(name) {
			frames = append(frames, name)
		}
	}
	utils.SortFrames(frames)

	return frames, nil
}
