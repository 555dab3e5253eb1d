package deflate

import (
	"io"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/internal/bitio"
)

// history is the circular window of the DEFLATE decoder. Bytes are written
// at index c and read by flush at index r. Back references may reach back
// up to limit bytes.
type history struct {
	data []byte
	// current index
	c int
	// reader index
	r int
	// bytes written but not flushed
	pending int
	// number of bytes available for back references
	limit int
}

// newHistory creates a window of the given size.
func newHistory(size int) *history {
	return &history{data: make([]byte, size)}
}

// Size returns the size of the window.
func (h *history) Size() int { return len(h.data) }

// Pending returns the number of bytes that haven't been flushed.
func (h *history) Pending() int { return h.pending }

// reset removes all pending bytes. If keep is set the back references into
// the old data stay valid.
func (h *history) reset(keep bool) {
	if keep {
		h.r = h.c
		h.pending = 0
		return
	}
	*h = history{data: h.data}
}

// advance accounts for n bytes written at the current index.
func (h *history) advance(n int) {
	h.c += n
	if h.c == len(h.data) {
		h.c = 0
	}
	h.pending += n
	h.limit += n
	if h.limit > len(h.data) {
		h.limit = len(h.data)
	}
}

func (h *history) putByte(b byte) {
	h.data[h.c] = b
	h.advance(1)
}

// putBytes reads n bytes directly from the input into the window.
func (h *history) putBytes(src io.Reader, bd *bitio.Decoder, n int) error {
	for n > 0 {
		k := len(h.data) - h.c
		if k > n {
			k = n
		}
		k, err := bd.ReadBytes(src, h.data[h.c:h.c+k])
		h.advance(k)
		if err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// copyBlock copies n bytes starting dist+1 bytes before the current index.
// The copy may overlap with the bytes written.
func (h *history) copyBlock(dist, n int) error {
	if dist >= h.limit {
		return unpack.InvalidData("deflate",
			"distance %d beyond window of %d bytes", dist+1, h.limit)
	}
	i := h.c - dist - 1
	if i < 0 {
		i += len(h.data)
	}
	for ; n > 0; n-- {
		h.data[h.c] = h.data[i]
		h.advance(1)
		if i++; i == len(h.data) {
			i = 0
		}
	}
	return nil
}

// flush copies pending bytes into p.
func (h *history) flush(p []byte) int {
	n := 0
	for h.pending > 0 && n < len(p) {
		end := h.r + h.pending
		if end > len(h.data) {
			end = len(h.data)
		}
		k := copy(p[n:], h.data[h.r:end])
		n += k
		h.pending -= k
		if h.r += k; h.r == len(h.data) {
			h.r = 0
		}
	}
	return n
}
