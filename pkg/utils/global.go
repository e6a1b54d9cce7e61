package utils

import "fmt"

//Side identifies one camera of the stereo rig. Each side owns an independent background model.
type Side int

const (
	//SideLeft is the left camera
	SideLeft Side = iota
	//SideRight is the right camera
	SideRight
)

//Sides lists every camera side, in the order folders are named on disk
var Sides = []Side{SideLeft, SideRight}

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

//ParseSide resolves a folder name to a camera side. Only exact names are accepted.
func ParseSide(name string) (Side, bool) {
	for _, s := range Sides {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

//ImageExtensions are the frame file extensions the pipeline reads
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

//Sibling output directory suffixes, created next to every processed sequence
const (
	AnnotationDirSuffix = "_json"
	OverlayDirSuffix    = "_test"
	MaskDirSuffix       = "_mask"
	OutputDirSuffix     = "_output"
)

//FrameIndexDigits is the zero padded width of the frame index encoded in file names
const FrameIndexDigits = 6

//BallLabel is the only rectangle label the pipeline emits
const BallLabel = "ball"
