// Package ordering keeps sibling sequences numbered 0..n-1 in display order.
//
// Every function returns a fresh slice; inputs are never written to.
// Out-of-range indices clamp instead of failing.
package ordering

// Positioned is an element that can be identified and renumbered by value.
type Positioned[T any] interface {
	Key() string
	Pos() int
	WithPosition(int) T
}

// Renumber returns a copy of seq with positions set to the element indexes.
func Renumber[T Positioned[T]](seq []T) []T {
	out := make([]T, len(seq))
	for i, item := range seq {
		out[i] = item.WithPosition(i)
	}
	return out
}

// IndexOf returns the index of the element keyed id, or -1.
func IndexOf[T Positioned[T]](seq []T, id string) int {
	for i, item := range seq {
		if item.Key() == id {
			return i
		}
	}
	return -1
}

// InsertAt inserts item at index clamped to [0, len(seq)].
func InsertAt[T Positioned[T]](seq []T, index int, item T) []T {
	index = clamp(index, 0, len(seq))
	out := make([]T, 0, len(seq)+1)
	out = append(out, seq[:index]...)
	out = append(out, item)
	out = append(out, seq[index:]...)
	return Renumber(out)
}

// RemoveAt drops the element at index. An out-of-range index removes nothing.
func RemoveAt[T Positioned[T]](seq []T, index int) []T {
	if index < 0 || index >= len(seq) {
		return Renumber(seq)
	}
	out := make([]T, 0, len(seq)-1)
	out = append(out, seq[:index]...)
	out = append(out, seq[index+1:]...)
	return Renumber(out)
}

// RemoveByID drops the element keyed id and reports whether it was present.
func RemoveByID[T Positioned[T]](seq []T, id string) ([]T, bool) {
	i := IndexOf(seq, id)
	if i < 0 {
		return Renumber(seq), false
	}
	return RemoveAt(seq, i), true
}

// Move reorders one sequence. Both indices clamp to [0, len(seq)-1]; the
// destination is read against the sequence after removal.
func Move[T Positioned[T]](seq []T, from, to int) []T {
	if len(seq) == 0 {
		return Renumber(seq)
	}
	from = clamp(from, 0, len(seq)-1)
	to = clamp(to, 0, len(seq)-1)
	item := seq[from]
	return InsertAt(RemoveAt(seq, from), to, item)
}

// MoveBetween takes the element keyed id out of src and inserts it into dst at
// destIndex. When src and dst are the same sequence the result is a single
// reorder and both return values hold it. ok is false when id is not in src.
func MoveBetween[T Positioned[T]](src, dst []T, id string, destIndex int) (newSrc, newDst []T, ok bool) {
	from := IndexOf(src, id)
	if from < 0 {
		return Renumber(src), Renumber(dst), false
	}
	if sameSequence(src, dst) {
		moved := Move(src, from, destIndex)
		return moved, moved, true
	}
	item := src[from]
	return RemoveAt(src, from), InsertAt(dst, destIndex, item), true
}

// Contiguous reports whether positions are exactly 0..n-1 in order.
func Contiguous[T Positioned[T]](seq []T) bool {
	for i, item := range seq {
		if item.Pos() != i {
			return false
		}
	}
	return true
}

func sameSequence[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
