// Package arena provides a fixed-capacity byte arena used to hold the
// credential and identity strings a device client derives at runtime.
//
// The arena never allocates. All regions are carved out of a single
// caller-supplied buffer, and every allocation either succeeds in full or
// fails with ErrBufferTooSmall, leaving the arena unchanged. Regions handed
// out by an arena stay valid until Reset is called.
package arena

import "errors"

// ErrBufferTooSmall is returned when an allocation does not fit in the
// remaining capacity of the arena.
var ErrBufferTooSmall = errors.New("arena: buffer too small")

// Arena is a bump allocator over a fixed byte buffer.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	buf  []byte
	used int
}

// New returns an arena backed by buf. The arena takes ownership of buf;
// the caller must not read or write it directly afterwards.
func New(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Alloc reserves n bytes and returns them as a slice of length n.
// The returned region is not zeroed.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 || n > len(a.buf)-a.used {
		return nil, ErrBufferTooSmall
	}
	region := a.buf[a.used : a.used+n : a.used+n]
	a.used += n
	return region, nil
}

// Copy reserves len(src) bytes and fills them with a copy of src.
func (a *Arena) Copy(src []byte) ([]byte, error) {
	region, err := a.Alloc(len(src))
	if err != nil {
		return nil, err
	}
	copy(region, src)
	return region, nil
}

// CopyString reserves len(s) bytes and fills them with s. The returned
// slice is commonly converted back with string() at the use site.
func (a *Arena) CopyString(s string) ([]byte, error) {
	region, err := a.Alloc(len(s))
	if err != nil {
		return nil, err
	}
	copy(region, s)
	return region, nil
}

// Reset discards all regions handed out so far. Slices previously returned
// by Alloc or Copy must not be used after Reset.
func (a *Arena) Reset() {
	a.used = 0
}

// Mark returns a checkpoint of the current allocation position.
func (a *Arena) Mark() int {
	return a.used
}

// ResetTo discards all regions allocated after mark. Regions allocated
// before the mark stay valid. A mark outside the allocated range is
// ignored.
func (a *Arena) ResetTo(mark int) {
	if mark >= 0 && mark <= a.used {
		a.used = mark
	}
}

// Used reports the number of bytes currently allocated.
func (a *Arena) Used() int {
	return a.used
}

// Cap reports the total capacity of the arena.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Remaining reports the number of bytes still available.
func (a *Arena) Remaining() int {
	return len(a.buf) - a.used
}
