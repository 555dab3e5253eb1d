package unpack

import (
	"io"
	"sync"
	"time"

	"github.com/ulikunitz/unpack/internal/stream"
)

// Stats wraps a decoder and records the processing time and the number of
// bytes read and produced. The statistics may be queried concurrently to the
// Decode calls.
type Stats struct {
	d Decoder
	c stream.Counter

	mu       sync.Mutex
	elapsed  time.Duration
	totalIn  int64
	totalOut int64
}

// NewStats wraps the decoder.
func NewStats(d Decoder) *Stats {
	return &Stats{d: d}
}

// Name returns the name of the wrapped decoder.
func (s *Stats) Name() string { return s.d.Name() }

// Properties returns the properties of the wrapped decoder.
func (s *Stats) Properties() *Properties { return s.d.Properties() }

// Reset resets the wrapped decoder and all statistics.
func (s *Stats) Reset() {
	s.d.Reset()
	s.c.Reset()
	s.mu.Lock()
	s.elapsed = 0
	s.totalIn = 0
	s.totalOut = 0
	s.mu.Unlock()
}

// Decode calls the Decode method of the wrapped decoder.
func (s *Stats) Decode(dst []byte, src io.Reader) (n int, err error) {
	s.c.SetReader(src)
	start := time.Now()
	n, err = s.d.Decode(dst, &s.c)
	d := time.Since(start)
	s.c.SetReader(nil)
	s.mu.Lock()
	s.elapsed += d
	s.totalIn = s.c.Offset()
	s.totalOut += int64(n)
	s.mu.Unlock()
	return n, err
}

// ProcessingTime returns the time spent in Decode.
func (s *Stats) ProcessingTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// TotalIn returns the number of bytes read from the sources.
func (s *Stats) TotalIn() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalIn
}

// TotalOut returns the number of bytes decoded.
func (s *Stats) TotalOut() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalOut
}

// rate computes bytes per second.
func rate(n int64, d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(float64(n) / d.Seconds())
}

// RateIn returns the input rate in bytes per second.
func (s *Stats) RateIn() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rate(s.totalIn, s.elapsed)
}

// RateOut returns the output rate in bytes per second.
func (s *Stats) RateOut() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rate(s.totalOut, s.elapsed)
}
