package deflate

import (
	"bytes"
	stdflate "compress/flate"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/ulikunitz/unpack"
)

// bitWriter writes DEFLATE bit streams.
type bitWriter struct {
	buf  []byte
	acc  uint64
	nacc uint
}

// writeBits writes the n bits of v with the least-significant bit first.
func (w *bitWriter) writeBits(v uint32, n uint) {
	w.acc |= uint64(v) & (1<<n - 1) << w.nacc
	w.nacc += n
	for w.nacc >= 8 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc >>= 8
		w.nacc -= 8
	}
}

// writeCode writes a prefix code with its most-significant bit first.
func (w *bitWriter) writeCode(code uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.writeBits(code>>uint(i), 1)
	}
}

func (w *bitWriter) align() {
	if w.nacc > 0 {
		w.writeBits(0, 8-w.nacc)
	}
}

func (w *bitWriter) bytes() []byte {
	w.align()
	return w.buf
}

// writeFixedSymbol writes a symbol using the fixed literal/length code.
func (w *bitWriter) writeFixedSymbol(sym int) {
	switch {
	case sym < 144:
		w.writeCode(0x30+uint32(sym), 8)
	case sym < 256:
		w.writeCode(0x190+uint32(sym-144), 9)
	case sym < 280:
		w.writeCode(uint32(sym-256), 7)
	default:
		w.writeCode(0xc0+uint32(sym-280), 8)
	}
}

// writeFixedMatch writes a match using the fixed codes. The distance is one
// based.
func (w *bitWriter) writeFixedMatch(n, dist int, t *lengthTable) {
	for i := len(t.start) - 1; i >= 0; i-- {
		base := int(t.start[i]) + minMatchLen
		if n >= base && n-base < 1<<t.bits[i] {
			w.writeFixedSymbol(firstLength + i)
			w.writeBits(uint32(n-base), uint(t.bits[i]))
			break
		}
	}
	d := uint32(dist - 1)
	for i := len(distStart) - 1; i >= 0; i-- {
		if d >= distStart[i] {
			w.writeCode(uint32(i), 5)
			w.writeBits(d-distStart[i], uint(distBits[i]))
			break
		}
	}
}

func (w *bitWriter) writeStored(p []byte, final bool, nsis bool) {
	var f uint32
	if final {
		f = 1
	}
	w.writeBits(f, 3)
	w.align()
	w.writeBits(uint32(len(p)), 16)
	if !nsis {
		w.writeBits(^uint32(len(p)), 16)
	}
	w.buf = append(w.buf, p...)
}

// decodeAll decodes the complete stream using an output buffer of the given
// size.
func decodeAll(d unpack.Decoder, src io.Reader, bufSize int) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, bufSize)
	for {
		n, err := d.Decode(buf, src)
		out.Write(buf[:n])
		if err != nil {
			if err == io.EOF {
				return out.Bytes(), nil
			}
			return out.Bytes(), err
		}
	}
}

func TestFixedLiterals(t *testing.T) {
	data := []byte{0x73, 0x74, 0x74, 0x74, 0x04, 0x00}
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	for i := 0; i < 4; i++ {
		w.writeFixedSymbol('A')
	}
	w.writeFixedSymbol(endOfBlock)
	if !bytes.Equal(w.bytes(), data) {
		t.Fatalf("bitWriter created % x; want % x", w.bytes(), data)
	}

	d := NewDecoder()
	buf := make([]byte, 64)
	n, err := d.Decode(buf, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("d.Decode error %s", err)
	}
	if string(buf[:n]) != "AAAA" {
		t.Fatalf("d.Decode returned %q; want %q", buf[:n], "AAAA")
	}
	if r := d.BlockRemaining(); r != -1 {
		t.Fatalf("d.BlockRemaining() = %d; want %d", r, -1)
	}
	if n, err = d.Decode(buf, bytes.NewReader(nil)); n != 0 || err != io.EOF {
		t.Fatalf("d.Decode returned (%d, %v); want (0, io.EOF)", n, err)
	}
}

func readTestFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("ReadFile error %s", err)
	}
	return data
}

func testInputs(t *testing.T) map[string][]byte {
	inputs := map[string][]byte{
		"empty":      nil,
		"gettysburg": readTestFile(t, "gettysburg.txt"),
		"e":          readTestFile(t, "e.txt"),
		"pi":         readTestFile(t, "pi.txt"),
		"repeat":     bytes.Repeat([]byte("abcdefgh"), 20000),
	}
	r := rand.New(rand.NewSource(1))
	random := make([]byte, 70000)
	r.Read(random)
	inputs["random"] = random
	return inputs
}

func compressStd(t *testing.T, data []byte, level int) []byte {
	var buf bytes.Buffer
	w, err := stdflate.NewWriter(&buf, level)
	if err != nil {
		t.Fatalf("flate.NewWriter error %s", err)
	}
	if _, err = w.Write(data); err != nil {
		t.Fatalf("w.Write error %s", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("w.Close error %s", err)
	}
	return buf.Bytes()
}

func TestDecodeStdlib(t *testing.T) {
	for name, data := range testInputs(t) {
		for _, level := range []int{
			stdflate.HuffmanOnly, stdflate.NoCompression,
			stdflate.BestSpeed, stdflate.DefaultCompression,
			stdflate.BestCompression,
		} {
			c := compressStd(t, data, level)
			got, err := decodeAll(NewDecoder(), bytes.NewReader(c), 4096)
			if err != nil {
				t.Fatalf("%s level %d: decode error %s", name, level,
					err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("%s level %d: decoded data differs",
					name, level)
			}
		}
	}
}

func TestDecodeKlauspost(t *testing.T) {
	for name, data := range testInputs(t) {
		for _, level := range []int{flate.BestSpeed, 5, flate.BestCompression} {
			var buf bytes.Buffer
			w, err := flate.NewWriter(&buf, level)
			if err != nil {
				t.Fatalf("flate.NewWriter error %s", err)
			}
			if _, err = w.Write(data); err != nil {
				t.Fatalf("w.Write error %s", err)
			}
			if err = w.Close(); err != nil {
				t.Fatalf("w.Close error %s", err)
			}
			got, err := decodeAll(NewDecoder(),
				iotest.HalfReader(bytes.NewReader(buf.Bytes())), 1000)
			if err != nil {
				t.Fatalf("%s level %d: decode error %s", name, level,
					err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("%s level %d: decoded data differs",
					name, level)
			}
		}
	}
}

func compressZLIB(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("w.Write error %s", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("w.Close error %s", err)
	}
	return buf.Bytes()
}

func TestDecodeZLIB(t *testing.T) {
	data := readTestFile(t, "gettysburg.txt")
	c := compressZLIB(t, data)
	d, err := Config{Format: ZLIB}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	got, err := decodeAll(d, bytes.NewReader(c), 100)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded data differs")
	}
	if d.TotalIn() != int64(len(c)) {
		t.Fatalf("d.TotalIn() = %d; want %d", d.TotalIn(), len(c))
	}

	c[1]++
	d.Reset()
	_, err = decodeAll(d, bytes.NewReader(c), 100)
	if !errors.Is(err, unpack.ErrInvalidData) {
		t.Fatalf("decoding with wrong header returned %v; want %v",
			err, unpack.ErrInvalidData)
	}
}

func TestResumability(t *testing.T) {
	data := bytes.Repeat(readTestFile(t, "gettysburg.txt"), 30)
	c := compressStd(t, data, stdflate.BestCompression)
	ref, err := decodeAll(NewDecoder(), bytes.NewReader(c), 64*1024)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	got, err := decodeAll(NewDecoder(), bytes.NewReader(c), 1)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, ref) {
		t.Fatalf("output with single byte buffer differs")
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded data differs")
	}
}

func TestReaders(t *testing.T) {
	data := readTestFile(t, "e.txt")
	c := compressStd(t, data, stdflate.DefaultCompression)
	wrappers := []struct {
		name string
		wrap func(io.Reader) io.Reader
	}{
		{"OneByteReader", iotest.OneByteReader},
		{"HalfReader", iotest.HalfReader},
		{"DataErrReader", iotest.DataErrReader},
	}
	for _, w := range wrappers {
		r := unpack.NewReader(NewDecoder(), w.wrap(bytes.NewReader(c)))
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("%s: ReadAll error %s", w.name, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("%s: decoded data differs", w.name)
		}
	}

	r := unpack.NewReader(NewDecoder(),
		iotest.TimeoutReader(bytes.NewReader(c)))
	if _, err := io.ReadAll(r); !errors.Is(err, iotest.ErrTimeout) {
		t.Fatalf("TimeoutReader: ReadAll returned %v; want %v", err,
			iotest.ErrTimeout)
	}
}

func TestHistory64(t *testing.T) {
	r := rand.New(rand.NewSource(64))
	data := make([]byte, 40000)
	r.Read(data)
	// a stored block followed by a fixed block with a distance beyond
	// 32 KiB
	stream := func(n int, lt *lengthTable) []byte {
		var w bitWriter
		w.writeStored(data, false, false)
		w.writeBits(1, 1)
		w.writeBits(1, 2)
		w.writeFixedMatch(n, len(data), lt)
		w.writeFixedSymbol(endOfBlock)
		return w.bytes()
	}

	// the length requires the 64 KiB length table
	want := append(append([]byte{}, data...), data[:3000]...)
	d, err := Config{History64: true}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	got, err := decodeAll(d, bytes.NewReader(stream(3000, &lengths64)), 777)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decoded data differs")
	}

	_, err = decodeAll(NewDecoder(), bytes.NewReader(stream(10, &lengths32)),
		777)
	if !errors.Is(err, unpack.ErrInvalidData) {
		t.Fatalf("32 KiB decoder returned %v; want %v", err,
			unpack.ErrInvalidData)
	}
}

func TestNSIS(t *testing.T) {
	var w bitWriter
	w.writeStored([]byte("nullsoft"), true, true)
	d, err := Config{Format: NSIS}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	got, err := decodeAll(d, bytes.NewReader(w.bytes()), 3)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if string(got) != "nullsoft" {
		t.Fatalf("decoded %q; want %q", got, "nullsoft")
	}
}

func TestRestartAfterEOS(t *testing.T) {
	var w bitWriter
	w.writeStored([]byte("hello world"), true, false)
	// second stream references the first
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	w.writeFixedMatch(5, 11, &lengths32)
	w.writeFixedSymbol('!')
	w.writeFixedSymbol(endOfBlock)
	c := w.bytes()

	d, err := Config{RestartAfterEOS: true, KeepHistory: true}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	src := bytes.NewReader(c)
	for _, want := range []string{"hello world", "hello!"} {
		got, err := decodeAll(d, src, 4)
		if err != nil {
			t.Fatalf("decode error %s", err)
		}
		if string(got) != want {
			t.Fatalf("decoded %q; want %q", got, want)
		}
	}
	n, err := d.Decode(make([]byte, 4), src)
	if n != 0 || err != io.EOF {
		t.Fatalf("d.Decode returned (%d, %v); want (0, io.EOF)", n, err)
	}

	d, err = Config{RestartAfterEOS: true}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	src = bytes.NewReader(c)
	if _, err = decodeAll(d, src, 4); err != nil {
		t.Fatalf("decode error %s", err)
	}
	_, err = decodeAll(d, src, 4)
	if !errors.Is(err, unpack.ErrInvalidData) {
		t.Fatalf("decode without history returned %v; want %v",
			err, unpack.ErrInvalidData)
	}
}

func TestRestartZLIB(t *testing.T) {
	a := []byte("first stream")
	b := readTestFile(t, "gettysburg.txt")
	c := append(compressZLIB(t, a), compressZLIB(t, b)...)
	d, err := Config{Format: ZLIB, RestartAfterEOS: true}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	src := bytes.NewReader(c)
	for _, want := range [][]byte{a, b} {
		got, err := decodeAll(d, src, 512)
		if err != nil {
			t.Fatalf("decode error %s", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("decoded %q; want %q", got, want)
		}
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"block type 3", []byte{0x07, 0, 0, 0}},
		{"stored length complement", []byte{0x01, 0x02, 0x00, 0x00,
			0x00, 'a', 'b'}},
		{"distance beyond window", func() []byte {
			var w bitWriter
			w.writeBits(1, 1)
			w.writeBits(1, 2)
			w.writeFixedSymbol('a')
			w.writeFixedMatch(3, 2, &lengths32)
			w.writeFixedSymbol(endOfBlock)
			return w.bytes()
		}()},
		{"length symbol 286", func() []byte {
			var w bitWriter
			w.writeBits(1, 1)
			w.writeBits(1, 2)
			w.writeFixedSymbol('a')
			w.writeFixedSymbol(286)
			return w.bytes()
		}()},
	}
	for _, tc := range tests {
		_, err := decodeAll(NewDecoder(), bytes.NewReader(tc.data), 64)
		if !errors.Is(err, unpack.ErrInvalidData) {
			t.Fatalf("%s: decode returned %v; want %v", tc.name, err,
				unpack.ErrInvalidData)
		}
	}
}

func TestTruncated(t *testing.T) {
	data := readTestFile(t, "gettysburg.txt")
	c := compressStd(t, data, stdflate.NoCompression)
	_, err := decodeAll(NewDecoder(), bytes.NewReader(c[:len(c)/2]), 64)
	if !errors.Is(err, unpack.ErrInsufficientData) {
		t.Fatalf("decode returned %v; want %v", err,
			unpack.ErrInsufficientData)
	}

	c = compressStd(t, data, stdflate.BestCompression)
	_, err = decodeAll(NewDecoder(), bytes.NewReader(c[:len(c)/2]), 64)
	if !errors.Is(err, unpack.ErrInsufficientData) &&
		!errors.Is(err, unpack.ErrInvalidData) {
		t.Fatalf("decode of truncated stream returned %v", err)
	}
}

func TestFactory(t *testing.T) {
	f, err := unpack.Lookup(Name)
	if err != nil {
		t.Fatalf("unpack.Lookup error %s", err)
	}
	p := f.DefaultProperties()
	if err = p.Set(FormatProperty, ZLIB); err != nil {
		t.Fatalf("p.Set error %s", err)
	}
	if err = p.Parse(History64Property.Key, "false"); err != nil {
		t.Fatalf("p.Parse error %s", err)
	}
	d, err := f.NewDecoder(p)
	if err != nil {
		t.Fatalf("f.NewDecoder error %s", err)
	}
	if got := d.Properties().Enum(FormatProperty); got != ZLIB {
		t.Fatalf("format property %v; want %v", got, ZLIB)
	}
	data := []byte("factory made")
	got, err := decodeAll(d, bytes.NewReader(compressZLIB(t, data)), 5)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded %q; want %q", got, data)
	}
}
