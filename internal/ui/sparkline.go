package ui

import "strings"

// sparkGlyphs are the eight block levels a sample can land on.
const sparkGlyphs = "▁▂▃▄▅▆▇█"

// RingBuffer keeps the most recent values of a series, oldest first
// when read back. Used for the CPU history sparkline.
type RingBuffer struct {
	data []float64
	next int
	full bool
}

// NewRingBuffer returns a buffer holding up to capacity values.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{data: make([]float64, capacity)}
}

// Push appends a value, evicting the oldest once full.
func (r *RingBuffer) Push(v float64) {
	r.data[r.next] = v
	r.next++
	if r.next == len(r.data) {
		r.next = 0
		r.full = true
	}
}

// Len reports how many values are held.
func (r *RingBuffer) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.next
}

// Last returns the most recent value, zero when empty.
func (r *RingBuffer) Last() float64 {
	if r.Len() == 0 {
		return 0
	}
	idx := r.next - 1
	if idx < 0 {
		idx = len(r.data) - 1
	}
	return r.data[idx]
}

// Slice returns the held values in arrival order.
func (r *RingBuffer) Slice() []float64 {
	if !r.full {
		out := make([]float64, r.next)
		copy(out, r.data[:r.next])
		return out
	}
	out := make([]float64, 0, len(r.data))
	out = append(out, r.data[r.next:]...)
	out = append(out, r.data[:r.next]...)
	return out
}

// RenderSparkline draws values on a fixed 0..100 scale, right aligned
// in a field of width runes so the line never jumps as history fills.
func RenderSparkline(vals []float64, width int) string {
	if width < 1 {
		return ""
	}
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	glyphs := []rune(sparkGlyphs)
	var b strings.Builder
	b.Grow(width)
	b.WriteString(strings.Repeat(" ", width-len(vals)))
	for _, v := range vals {
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		idx := int(v / 100 * float64(len(glyphs)-1))
		b.WriteRune(glyphs[idx])
	}
	return b.String()
}
