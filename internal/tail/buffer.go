package tail

import "github.com/five82/livelog/internal/livelog"

// Buffer holds the lines received for one file and the cursor, the highest
// line position seen so far. It is not safe for concurrent use; the Poller
// guards it.
type Buffer struct {
	lines     []livelog.LogLine
	cursor    int64
	hasCursor bool
	limit     int
}

// NewBuffer returns an empty buffer keeping at most limit lines. A limit of
// zero or less keeps everything.
func NewBuffer(limit int) *Buffer {
	if limit < 0 {
		limit = 0
	}
	return &Buffer{limit: limit}
}

// Append adds batch in arrival order and moves the cursor to the highest line
// in it. It returns the number of lines appended. Trimming old lines never
// moves the cursor back.
func (b *Buffer) Append(batch []livelog.LogLine) int {
	if len(batch) == 0 {
		return 0
	}
	for _, line := range batch {
		if !b.hasCursor || line.Line > b.cursor {
			b.cursor = line.Line
			b.hasCursor = true
		}
	}
	b.lines = append(b.lines, batch...)
	b.trim()
	return len(batch)
}

func (b *Buffer) trim() {
	if b.limit <= 0 || len(b.lines) <= b.limit {
		return
	}
	drop := len(b.lines) - b.limit
	kept := make([]livelog.LogLine, b.limit)
	copy(kept, b.lines[drop:])
	b.lines = kept
}

// Cursor returns the highest line seen and whether any line was seen.
func (b *Buffer) Cursor() (int64, bool) {
	return b.cursor, b.hasCursor
}

// Next returns the first line position to request, or nil to read from the
// beginning of the file.
func (b *Buffer) Next() *int64 {
	if !b.hasCursor {
		return nil
	}
	next := b.cursor + 1
	return &next
}

// Reset discards all lines and unsets the cursor.
func (b *Buffer) Reset() {
	b.lines = nil
	b.cursor = 0
	b.hasCursor = false
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Lines returns a copy of the buffered lines.
func (b *Buffer) Lines() []livelog.LogLine {
	if len(b.lines) == 0 {
		return nil
	}
	dup := make([]livelog.LogLine, len(b.lines))
	copy(dup, b.lines)
	return dup
}
