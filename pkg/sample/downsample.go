package sample

// Downsample reduces items to at most maxPoints by simple decimation, for
// display. Destination-based: dst is reused if it has sufficient capacity,
// otherwise a new slice is allocated. When len(items) <= maxPoints all items
// are copied.
func Downsample[T any](dst []T, items []T, maxPoints int) []T {
	if len(items) <= maxPoints {
		if cap(dst) >= len(items) {
			dst = dst[:len(items)]
			copy(dst, items)
			return dst
		}
		result := make([]T, len(items))
		copy(result, items)
		return result
	}
	if maxPoints <= 0 {
		return dst[:0]
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(items)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(items) {
			dst = append(dst, items[idx])
		}
	}
	return dst
}
