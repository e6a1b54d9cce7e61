package utils

import "sort"

//FrameRange returns the closed range [min, max] covered by given frame indices.
//ok is false when there are no indices at all.
func FrameRange(indices []int) (min, max int, ok bool) {
	if len(indices) == 0 {
		return 0, 0, false
	}

	min, max = indices[0], indices[0]
	for _, i := range indices[1:] {
		if i < min {
			min = i
		}
		if i > max {
			max = i
		}
	}

	return min, max, true
}

//SortFrames orders file names by their frame index. Names without an index keep lexical order, after indexed ones.
func SortFrames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := FrameIndex(names[i])
		b, bok := FrameIndex(names[j])
		switch {
		case aok && bok:
			if a != b {
				return a < b
			}
			return names[i] < names[j]
		case aok != bok:
			return aok
		default:
			return names[i] < names[j]
		}
	})
}
