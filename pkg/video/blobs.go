package video

import (
	"fmt"
	"image"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"gocv.io/x/gocv"
)

//BlobConfig controls mask cleanup and candidate filtering
type BlobConfig struct {
	MinArea         float64 //contours below this area (px²) are noise
	Padding         float64 //total padding added to each box, half on every side
	BinaryThreshold float32 //mask values above it become foreground, shadow gray is dropped
}

//DefaultBlobConfig returns the settings used for ball annotation
func DefaultBlobConfig() BlobConfig {
	return BlobConfig{MinArea: 2, Padding: 5, BinaryThreshold: 128}
}

//BlobExtractor turns a raw foreground mask into padded candidate boxes.
//It keeps its kernels and working mask between frames; not safe for concurrent use.
type BlobExtractor struct {
	cfg     BlobConfig
	small   gocv.Mat
	large   gocv.Mat
	cleaned gocv.Mat
}

func NewBlobExtractor(cfg BlobConfig) *BlobExtractor {
	return &BlobExtractor{
		cfg:     cfg,
		small:   gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
		large:   gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5)),
		cleaned: gocv.NewMat(),
	}
}

type morphStep struct {
	op     func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) error
	kernel gocv.Mat
}

//Clean runs the cleanup pipeline on mask. Order matters:
//opening twice (erode, erode, dilate, dilate) drops isolated pixels, one more erosion shrinks
//what survived, a 5x5 dilation restores blob size and closes gaps, then the mask is binarized.
func (b *BlobExtractor) Clean(mask gocv.Mat) error {
	steps := []morphStep{
		{gocv.Erode, b.small},
		{gocv.Erode, b.small},
		{gocv.Dilate, b.small},
		{gocv.Dilate, b.small},
		{gocv.Erode, b.small},
		{gocv.Dilate, b.large},
	}

	src := mask
	for i, s := range steps {
		if err := s.op(src, &b.cleaned, s.kernel); err != nil {
			return fmt.Errorf("Clean: Morphology step %d failed, got '%w'", i, err)
		}
		src = b.cleaned
	}

	gocv.Threshold(b.cleaned, &b.cleaned, b.cfg.BinaryThreshold, 255, gocv.ThresholdBinary)
	return nil
}

//Cleaned returns the binary mask produced by the last Clean call. It stays owned by the extractor.
func (b *BlobExtractor) Cleaned() gocv.Mat {
	return b.cleaned
}

//Extract cleans mask and returns one padded box per external contour of at least MinArea, in extraction order
func (b *BlobExtractor) Extract(mask gocv.Mat) ([]annotation.PixelBox, error) {
	if err := b.Clean(mask); err != nil {
		return nil, err
	}

	contours := gocv.FindContours(b.cleaned, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]annotation.PixelBox, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < b.cfg.MinArea {
			continue
		}
		boxes = append(boxes, annotation.FromRect(gocv.BoundingRect(contour)).Pad(b.cfg.Padding))
	}

	return boxes, nil
}

//Close releases kernels and the working mask
func (b *BlobExtractor) Close() {
	b.small.Close()
	b.large.Close()
	b.cleaned.Close()
}
