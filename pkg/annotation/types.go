package annotation

import (
	"image"
	"path"
)

//PixelBox is a bounding box in pixel units. Padding may push X/Y below zero, nothing is clamped.
type PixelBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

//FromRect converts an integer rectangle to a PixelBox
func FromRect(r image.Rectangle) PixelBox {
	return PixelBox{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

//Pad grows the box by given total padding, split evenly between opposite sides
func (b PixelBox) Pad(padding float64) PixelBox {
	return PixelBox{
		X:      b.X - padding/2,
		Y:      b.Y - padding/2,
		Width:  b.Width + padding,
		Height: b.Height + padding,
	}
}

//Rect truncates the box to integer pixel corners, the way overlays are drawn
func (b PixelBox) Rect() image.Rectangle {
	return image.Rect(int(b.X), int(b.Y), int(b.X+b.Width), int(b.Y+b.Height))
}

//Area returns Width*Height
func (b PixelBox) Area() float64 {
	return b.Width * b.Height
}

//PercentBox is a bounding box expressed in percent (0-100) of the frame width/ height, rounded to 2 decimals
type PercentBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

//CenterBox is the table representation of a box: integer center point and size in pixels
type CenterBox struct {
	X int
	Y int
	W int
	H int
}

//StorageLabel builds the storage-location-independent image reference written into annotation files,
//in the form '<scheme>://<bucket>/<prefix>/<relative>/<frame name>'
type StorageLabel struct {
	Scheme   string
	Bucket   string
	Prefix   string
	Relative string
}

//Key returns the object key of given file name, without scheme and bucket
func (l StorageLabel) Key(name string) string {
	return path.Join(l.Prefix, l.Relative, name)
}

//URI returns the full image reference of given frame file name
func (l StorageLabel) URI(name string) string {
	return l.Scheme + "://" + l.Bucket + "/" + l.Key(name)
}
