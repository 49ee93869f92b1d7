package text

// ByteSource gives read access to document bytes.
type ByteSource interface {
	Bytes(r ByteRange) []byte
	Len() int
}

// Buffer stores the document as UTF-8 bytes.
//
// Replace never writes into a slice that was handed out earlier; it builds a
// new backing array instead. A reader that captured All() keeps a consistent
// view while the owner continues editing.
type Buffer struct {
	data []byte
}

// NewBuffer returns a buffer holding s.
func NewBuffer(s string) *Buffer {
	return &Buffer{data: []byte(s)}
}

// Len returns the byte length of the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// All returns the current contents. The slice must not be modified.
func (b *Buffer) All() []byte { return b.data }

// String returns the contents as a string.
func (b *Buffer) String() string { return string(b.data) }

// Bytes returns the bytes in r, clamped to the buffer.
func (b *Buffer) Bytes(r ByteRange) []byte {
	start := min(max(r.Start, 0), len(b.data))
	end := min(max(r.End, start), len(b.data))
	return b.data[start:end]
}

// Replace substitutes the bytes in r with s.
func (b *Buffer) Replace(r ByteRange, s string) {
	next := make([]byte, 0, len(b.data)-r.Len()+len(s))
	next = append(next, b.data[:r.Start]...)
	next = append(next, s...)
	next = append(next, b.data[r.End:]...)
	b.data = next
}
