package video

import (
	"time"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
)

//Sequence is one camera-side folder of frames together with the output directories it owns.
//Side is resolved once, when the folder is discovered.
type Sequence struct {
	Dir           string     //source frames, named by zero padded frame index
	Side          utils.Side //camera the frames come from
	Relative      string     //path of Dir relative to the storage root, used in image references
	AnnotationDir string     //per-frame JSON output, reset on every run
	OverlayDir    string     //QA overlays, disabled when empty
	MaskDir       string     //cleaned foreground masks for debugging, disabled when empty
}

//SequenceResult summarizes one processed sequence
type SequenceResult struct {
	Sequence       Sequence
	Frames         int
	Annotated      int
	NoDetection    int
	MultiDetection int
	Unreadable     int
	Table          *annotation.AggregateResult //nil when the sequence produced no annotation at all
	Duration       time.Duration
}
