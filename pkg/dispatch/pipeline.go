package dispatch

import (
	"context"
	"time"

	"github.com/chenBenjamin97/ballannotate/pkg/storage"
	"github.com/chenBenjamin97/ballannotate/pkg/video"
	"go.uber.org/zap"
)

//Options describes one full pipeline run
type Options struct {
	InputDir   string
	Discover   DiscoverOptions
	Workers    int
	Processor  video.ProcessorConfig
	Publisher  storage.Publisher //nil disables publishing
	Prefix     string            //key prefix for published objects
	ReportPath string            //report is not written when empty
}

//Pipeline processes a sequence and publishes what it produced
type Pipeline struct {
	proc   *video.Processor
	pub    storage.Publisher
	prefix string
	log    *zap.Logger
}

func NewPipeline(proc *video.Processor, pub storage.Publisher, prefix string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{proc: proc, pub: pub, prefix: prefix, log: log}
}

//Run satisfies Runner
func (p *Pipeline) Run(ctx context.Context, seq video.Sequence) (*video.SequenceResult, error) {
	res, err := p.proc.Process(ctx, seq)
	if err != nil {
		return nil, err
	}

	n, err := storage.PublishSequence(ctx, p.pub, p.prefix, res)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		p.log.Info("Sequence published", zap.String("sequence", seq.Dir), zap.Int("objects", n))
	}

	return res, nil
}

//Execute discovers every sequence under opts.InputDir, processes them in parallel and returns the run report.
//Only a missing input directory is returned as an error, folder failures live in the report.
func Execute(ctx context.Context, opts Options, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	started := time.Now()

	seqs, err := Discover(opts.InputDir, opts.Discover)
	if err != nil {
		return nil, err
	}
	log.Info("Sequences discovered", zap.String("input", opts.InputDir), zap.Int("sequences", len(seqs)), zap.Int("workers", opts.Workers))

	pipeline := NewPipeline(video.NewProcessor(opts.Processor, log), opts.Publisher, opts.Prefix, log)
	results := Run(ctx, seqs, opts.Workers, pipeline.Run, log)

	report := NewReport(started, results)
	log.Info("Run finished", zap.String("run_id", report.RunID), zap.Int("sequences", len(results)), zap.Int("failed", report.Failed))

	if opts.ReportPath != "" {
		if err := WriteReport(opts.ReportPath, report); err != nil {
			log.Error("Could not write run report", zap.String("path", opts.ReportPath), zap.Error(err))
		}
	}

	return report, nil
}
