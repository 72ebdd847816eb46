package week

import "github.com/julianstephens/weekplan/internal/constants"

// Buckets holds a window's items grouped per day, in window order.
type Buckets[T any] struct {
	Window Window
	Days   [constants.DaysPerWeek][]T
}

// Bucket places each item on the window day matching dateOf(item). Items
// whose date is empty, malformed or outside the window are left out. Within a
// day, items keep their input order.
func Bucket[T any](items []T, w Window, dateOf func(T) string) Buckets[T] {
	b := Buckets[T]{Window: w}
	keys := w.Keys()
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k] = i
	}
	for _, it := range items {
		key, ok := NormalizeDate(dateOf(it))
		if !ok {
			continue
		}
		if i, in := pos[key]; in {
			b.Days[i] = append(b.Days[i], it)
		}
	}
	return b
}

// ForDay returns the items bucketed on day i (0 = Monday).
func (b Buckets[T]) ForDay(i int) []T {
	if i < 0 || i >= len(b.Days) {
		return nil
	}
	return b.Days[i]
}

// ForDate returns the items on the given YYYY-MM-DD date, or nil when the
// date is outside the window.
func (b Buckets[T]) ForDate(key string) []T {
	return b.ForDay(b.Window.index(key))
}

// Total counts all bucketed items.
func (b Buckets[T]) Total() int {
	n := 0
	for _, d := range b.Days {
		n += len(d)
	}
	return n
}
