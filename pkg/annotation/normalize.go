package annotation

import "math"

// Rounding is half-to-even everywhere, both for the 2 decimal percentages and
// for the integer pixels recovered from them.

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func roundPixel(v float64) int {
	return int(math.RoundToEven(v))
}

// ToPercent converts a pixel box to percentages of a w x h frame.
func ToPercent(b PixelBox, w, h int) PercentBox {
	return PercentBox{
		X:      round2(b.X / float64(w) * 100),
		Y:      round2(b.Y / float64(h) * 100),
		Width:  round2(b.Width / float64(w) * 100),
		Height: round2(b.Height / float64(h) * 100),
	}
}

// ToPixels recovers the center and size of a percent box on a frame of
// originalW x originalH pixels.
func ToPixels(p PercentBox, originalW, originalH int) CenterBox {
	ow, oh := float64(originalW), float64(originalH)
	return CenterBox{
		X: roundPixel((p.X + p.Width/2) * ow / 100),
		Y: roundPixel((p.Y + p.Height/2) * oh / 100),
		W: roundPixel(p.Width * ow / 100),
		H: roundPixel(p.Height * oh / 100),
	}
}

// ToPixelBox is the inverse of ToPercent, without rounding.
func ToPixelBox(p PercentBox, w, h int) PixelBox {
	return PixelBox{
		X:      p.X * float64(w) / 100,
		Y:      p.Y * float64(h) / 100,
		Width:  p.Width * float64(w) / 100,
		Height: p.Height * float64(h) / 100,
	}
}
