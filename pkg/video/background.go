package video

import (
	"fmt"

	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"gocv.io/x/gocv"
)

//BackgroundConfig holds the MOG2 parameters of a background model
type BackgroundConfig struct {
	History       int     //frames the model needs to adapt to a changed scene
	VarThreshold  float64 //squared Mahalanobis distance deciding foreground vs background, lower is more sensitive
	DetectShadows bool    //shadows are marked 127 in the mask and dropped later by binarization
}

//DefaultBackgroundConfig returns the parameters tuned for small fast balls on a static court
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{History: 100, VarThreshold: 6, DetectShadows: true}
}

//BackgroundModel is the adaptive scene model of one camera side.
//Every Apply call updates the model, so frames must be given in ascending order and
//a model must never be shared between goroutines or sequences.
type BackgroundModel struct {
	side   utils.Side
	mog2   gocv.BackgroundSubtractorMOG2
	frames int
}

//NewBackgroundModel creates a fresh model for one sequence of given camera side
func NewBackgroundModel(side utils.Side, cfg BackgroundConfig) *BackgroundModel {
	return &BackgroundModel{
		side: side,
		mog2: gocv.NewBackgroundSubtractorMOG2WithParams(cfg.History, cfg.VarThreshold, cfg.DetectShadows),
	}
}

//Side returns the camera side this model belongs to
func (m *BackgroundModel) Side() utils.Side {
	return m.side
}

//Frames returns how many frames the model has seen
func (m *BackgroundModel) Frames() int {
	return m.frames
}

//Apply feeds the next frame into the model and writes its foreground mask (255 foreground, 127 shadow, 0 background).
//The first frame only seeds the model: with no background to compare against, its mask is left empty.
func (m *BackgroundModel) Apply(frame gocv.Mat, mask *gocv.Mat) error {
	if err := m.mog2.Apply(frame, mask); err != nil {
		return fmt.Errorf("Apply: %s background model failed on frame %d, got '%w'", m.side, m.frames, err)
	}

	m.frames++
	if m.frames == 1 {
		mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
	}

	return nil
}

//Close releases the native model
func (m *BackgroundModel) Close() {
	m.mog2.Close()
}
