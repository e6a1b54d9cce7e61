package annotation

import (
	"errors"
	"fmt"

	"github.com/chenBenjamin97/ballannotate/pkg/utils"
)

// Fixed fields of the rectangle results the pipeline emits.
const (
	ModelVersion   = "one"
	Score          = 0.5
	ResultType     = "rectanglelabels"
	ResultFromName = "label"
	ResultToName   = "image"
	FirstResultID  = "1"
	annotationsKey = "annotations"
	resultKey      = "result"
	valueKey       = "value"
)

// Task is one per-frame annotation document. Files hold a JSON array with a single Task.
type Task struct {
	Data        TaskData     `json:"data"`
	Annotations []Annotation `json:"annotations"`
	Predictions []Annotation `json:"predictions"`
}

type TaskData struct {
	Image string `json:"image"`
}

type Annotation struct {
	ModelVersion string   `json:"model_version"`
	Score        float64  `json:"score"`
	Result       []Result `json:"result"`
}

type Result struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	FromName       string    `json:"from_name"`
	ToName         string    `json:"to_name"`
	OriginalWidth  int       `json:"original_width"`
	OriginalHeight int       `json:"original_height"`
	ImageRotation  int       `json:"image_rotation"`
	Value          RectValue `json:"value"`
}

type RectValue struct {
	Rotation        int      `json:"rotation"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	RectangleLabels []string `json:"rectanglelabels"`
}

// NewBallTask builds the task for a single ball box on a w x h frame.
func NewBallTask(imageURI string, box PixelBox, w, h int) []Task {
	pct := ToPercent(box, w, h)
	result := []Result{{
		ID:             FirstResultID,
		Type:           ResultType,
		FromName:       ResultFromName,
		ToName:         ResultToName,
		OriginalWidth:  w,
		OriginalHeight: h,
		Value: RectValue{
			X:               pct.X,
			Y:               pct.Y,
			Width:           pct.Width,
			Height:          pct.Height,
			RectangleLabels: []string{utils.BallLabel},
		},
	}}

	return []Task{{
		Data:        TaskData{Image: imageURI},
		Annotations: []Annotation{{ModelVersion: ModelVersion, Score: Score, Result: result}},
		Predictions: []Annotation{{ModelVersion: ModelVersion, Score: Score, Result: result}},
	}}
}

// ErrMalformed marks an annotation file that exists but cannot be turned into a box.
var ErrMalformed = errors.New("malformed annotation")

// The decode side uses pointers so absent keys can be told apart from zeros.
type rawTask struct {
	Annotations *[]rawAnnotation `json:"annotations"`
}

type rawAnnotation struct {
	Result *[]rawResult `json:"result"`
}

type rawResult struct {
	OriginalWidth  *int      `json:"original_width"`
	OriginalHeight *int      `json:"original_height"`
	Value          *rawValue `json:"value"`
}

type rawValue struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// firstBox extracts the first result box from decoded tasks.
func firstBox(tasks []rawTask) (PercentBox, int, int, error) {
	if len(tasks) == 0 {
		return PercentBox{}, 0, 0, fmt.Errorf("%w: empty task list", ErrMalformed)
	}
	if tasks[0].Annotations == nil || len(*tasks[0].Annotations) == 0 {
		return PercentBox{}, 0, 0, fmt.Errorf("%w: no %s", ErrMalformed, annotationsKey)
	}
	ann := (*tasks[0].Annotations)[0]
	if ann.Result == nil || len(*ann.Result) == 0 {
		return PercentBox{}, 0, 0, fmt.Errorf("%w: no %s", ErrMalformed, resultKey)
	}
	res := (*ann.Result)[0]
	if res.Value == nil {
		return PercentBox{}, 0, 0, fmt.Errorf("%w: no %s", ErrMalformed, valueKey)
	}
	v := res.Value
	if v.X == nil || v.Y == nil || v.Width == nil || v.Height == nil {
		return PercentBox{}, 0, 0, fmt.Errorf("%w: incomplete box", ErrMalformed)
	}
	if res.OriginalWidth == nil || res.OriginalHeight == nil || *res.OriginalWidth <= 0 || *res.OriginalHeight <= 0 {
		return PercentBox{}, 0, 0, fmt.Errorf("%w: missing original size", ErrMalformed)
	}

	return PercentBox{X: *v.X, Y: *v.Y, Width: *v.Width, Height: *v.Height}, *res.OriginalWidth, *res.OriginalHeight, nil
}
