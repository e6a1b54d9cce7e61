package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/chenBenjamin97/ballannotate/pkg/video"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//Runner processes a single sequence. video.Processor.Process satisfies it.
type Runner func(ctx context.Context, seq video.Sequence) (*video.SequenceResult, error)

//FolderResult is the outcome of one sequence. Exactly one of Result and Err is meaningful.
type FolderResult struct {
	Sequence video.Sequence
	Result   *video.SequenceResult
	Err      error
}

//Run processes seqs with at most workers sequences in flight. A failing or panicking sequence is
//recorded in its own FolderResult and never stops the others. Results keep the order of seqs.
func Run(ctx context.Context, seqs []video.Sequence, workers int, run Runner, log *zap.Logger) []FolderResult {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]FolderResult, len(seqs))
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, seq := range seqs {
		g.Go(func() error {
			results[i] = runOne(ctx, seq, run)
			if err := results[i].Err; err != nil {
				log.Error("Sequence failed", zap.String("sequence", seq.Dir), zap.Stringer("side", seq.Side), zap.Error(err))
			}
			return nil
		})
	}
	g.Wait()

	return results
}

func runOne(ctx context.Context, seq video.Sequence, run Runner) (res FolderResult) {
	res.Sequence = seq
	defer func() {
		if r := recover(); r != nil {
			res.Result = nil
			res.Err = fmt.Errorf("runOne: Panic while processing '%v': %v\n%s", seq.Dir, r, debug.Stack())
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Result, res.Err = run(ctx, seq)
	return res
}

//Failed returns the results that carry an error
func Failed(results []FolderResult) []FolderResult {
	failed := make([]FolderResult, 0)
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
