package bzip2

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/iotest"

	dsbzip2 "github.com/dsnet/compress/bzip2"

	"github.com/ulikunitz/unpack"
)

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

func readTestFile(t *testing.T, name string) []byte {
	t.Helper()
	p, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("ReadFile error %s", err)
	}
	return p
}

func mustDecodeHex(s string) []byte {
	p, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return p
}

const (
	helloWorld = "425a68393141592653594eece83600000251800010400006449080200031064c" +
		"4101a7a9a580bb9431f8bb9229c28482776741b0"
	zeros32 = "425a6839314159265359b5aa5098000000600040000004200021008283177245" +
		"385090b5aa5098"
)

func compress(t *testing.T, data []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := dsbzip2.NewWriter(&buf, &dsbzip2.WriterConfig{Level: level})
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	if _, err = w.Write(data); err != nil {
		t.Fatalf("w.Write error %s", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("w.Close error %s", err)
	}
	return buf.Bytes()
}

func TestVectors(t *testing.T) {
	tests := []struct {
		desc   string
		input  []byte
		output []byte
	}{
		{
			desc:   "hello world",
			input:  mustDecodeHex(helloWorld),
			output: []byte("hello world\n"),
		},
		{
			desc:   "concatenated streams",
			input:  mustDecodeHex(helloWorld + helloWorld),
			output: []byte("hello world\nhello world\n"),
		},
		{
			desc:   "32 zeros",
			input:  mustDecodeHex(zeros32),
			output: make([]byte, 32),
		},
		{
			desc: "1 MiB zeros",
			input: mustDecodeHex("" +
				"425a683931415926535938571ce50008084000c0040008200030cc0529a60806" +
				"c4201e2ee48a70a12070ae39ca"),
			output: make([]byte, 1<<20),
		},
		{
			desc: "first stage run-length encoding",
			input: mustDecodeHex("" +
				"425a6839314159265359d992d0f60000137dfe84020310091c1e280e100e0428" +
				"01099210094806c0110002e70806402000546034000034000000f28300000320" +
				"00d3403264049270eb7a9280d308ca06ad28f6981bee1bf8160727c7364510d7" +
				"3a1e123083421b63f031f63993a0f40051fbf177245385090d992d0f60"),
			output: mustDecodeHex("" +
				"92d5652616ac444a4a04af1a8a3964aca0450d43d6cf233bd03233f4ba92f871" +
				"9e6c2a2bd4f5f88db07ecd0da3a33b263483db9b2c158786ad6363be35d17335" +
				"ba"),
		},
	}
	for _, tc := range tests {
		d := NewDecoder()
		got, err := decodeAll(d, bytes.NewReader(tc.input), 100)
		if err != nil {
			t.Fatalf("%s: decode error %s", tc.desc, err)
		}
		if !bytes.Equal(got, tc.output) {
			t.Fatalf("%s: got %q; want %q", tc.desc, got, tc.output)
		}
		if !d.CRCCheckPassed() {
			t.Fatalf("%s: CRC check failed", tc.desc)
		}
	}
}

func TestFiles(t *testing.T) {
	sawtooth := make([]byte, 1<<20)
	for i := range sawtooth {
		sawtooth[i] = byte(i)
	}
	tests := []struct {
		name string
		want []byte
	}{
		{"e.txt.bz2", readTestFile(t, "e.txt")},
		{"pass-random1.bz2", readTestFile(t, "pass-random1.bin")},
		{"pass-random2.bz2", readTestFile(t, "pass-random2.bin")},
		{"pass-sawtooth.bz2", sawtooth},
	}
	for _, tc := range tests {
		d := NewDecoder()
		f, err := os.Open(filepath.Join("testdata", tc.name))
		if err != nil {
			t.Fatalf("Open error %s", err)
		}
		got, err := io.ReadAll(unpack.NewReader(d, f))
		f.Close()
		if err != nil {
			t.Fatalf("%s: ReadAll error %s", tc.name, err)
		}
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("%s: decoded data differs", tc.name)
		}
		if !d.CRCCheckPassed() {
			t.Fatalf("%s: CRC check failed", tc.name)
		}
	}
}

func TestDecodeDsnet(t *testing.T) {
	inputs := map[string][]byte{
		"empty":  {},
		"byte":   {'x'},
		"runs":   bytes.Repeat([]byte("aaaaaaabbbbbbbbbbbbbbbbbbbbbbbbbbbbc"), 5000),
		"e":      readTestFile(t, "e.txt"),
		"random": readTestFile(t, "pass-random1.bin"),
	}
	for name, data := range inputs {
		for _, level := range []int{1, 9} {
			c := compress(t, data, level)
			got, err := decodeAll(NewDecoder(), bytes.NewReader(c), 4096)
			if err != nil {
				t.Fatalf("%s level %d: decode error %s", name, level,
					err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("%s level %d: decoded data differs", name,
					level)
			}
		}
	}
}

func TestResumability(t *testing.T) {
	data := bytes.Repeat([]byte("Fourscore and seven years ago"), 2000)
	c := compress(t, data, 1)
	got, err := decodeAll(NewDecoder(), bytes.NewReader(c), 1)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("output with single byte buffer differs")
	}
}

func TestReaders(t *testing.T) {
	data := readTestFile(t, "e.txt")
	c := readTestFile(t, "e.txt.bz2")
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

func TestRaw(t *testing.T) {
	data := []byte("raw blocks are handed over by containers\n")
	c := compress(t, data, 3)
	d, err := Config{Format: Raw, BlockSize: 3}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	got, err := decodeAll(d, bytes.NewReader(c[4:]), 7)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded %q; want %q", got, data)
	}

	d, err = Config{Format: Raw}.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	if _, err = decodeAll(d, bytes.NewReader(c), 7); !errors.Is(err,
		unpack.ErrInvalidData) {
		t.Fatalf("raw decoder on stream header returned %v; want %v",
			err, unpack.ErrInvalidData)
	}
}

func TestCRCMismatch(t *testing.T) {
	c := mustDecodeHex(helloWorld)
	// block CRC starts after header and block magic
	c[10] ^= 0x01
	d := NewDecoder()
	got, err := decodeAll(d, bytes.NewReader(c), 64)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if string(got) != "hello world\n" {
		t.Fatalf("decoded %q; want %q", got, "hello world\n")
	}
	if d.CRCCheckPassed() {
		t.Fatalf("CRCCheckPassed returned true for corrupted CRC")
	}
	d.Reset()
	if !d.CRCCheckPassed() {
		t.Fatalf("CRCCheckPassed returned false after Reset")
	}
	if _, err = decodeAll(d, bytes.NewReader(mustDecodeHex(helloWorld)),
		64); err != nil {
		t.Fatalf("decode after Reset error %s", err)
	}
	if !d.CRCCheckPassed() {
		t.Fatalf("CRC check failed after Reset")
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		desc  string
		input []byte
		err   error
	}{
		{
			desc:  "second stage run overflow",
			input: readTestFile(t, "fail-issue5747.bz2"),
			err:   unpack.ErrInvalidData,
		},
		{
			desc: "block larger than block size",
			input: mustDecodeHex("" +
				"425a683131415926535936dc55330063ffc0006000200020a40830008b0008b8" +
				"bb9229c28481b6e2a998"),
			err: unpack.ErrInvalidData,
		},
		{
			desc: "code length out of range",
			input: mustDecodeHex("" +
				"425a6836314159265359b1f7404b000000400040002000217d184682ee48a70a" +
				"12163ee80960"),
			err: unpack.ErrInvalidData,
		},
		{
			desc:  "no stream header",
			input: []byte("BZX9"),
			err:   unpack.ErrInvalidData,
		},
		{
			desc:  "short input with bad block magic",
			input: []byte("BZh9garbage"),
			err:   unpack.ErrInvalidData,
		},
		{
			desc:  "block CRC missing",
			input: mustDecodeHex("425a683931415926535900"),
			err:   unpack.ErrInsufficientData,
		},
		{
			desc:  "block size digit",
			input: []byte("BZh0"),
			err:   unpack.ErrInvalidData,
		},
		{
			desc:  "garbage after stream",
			input: append(mustDecodeHex(zeros32), "garbage"...),
			err:   unpack.ErrInvalidData,
		},
		{
			desc: "truncated end of stream",
			input: mustDecodeHex("" +
				"425a68393141592653594eece83600000251800010400006449080200031064c" +
				"4101a7a9a580bb943117724538509000000000"),
			err: unpack.ErrInsufficientData,
		},
	}
	for _, tc := range tests {
		_, err := decodeAll(NewDecoder(), bytes.NewReader(tc.input), 512)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: got error %v; want %v", tc.desc, err, tc.err)
		}
	}
}

func TestTruncated(t *testing.T) {
	c := readTestFile(t, "pass-random1.bz2")
	for _, n := range []int{0, 3, 10, 100, len(c) - 1} {
		_, err := decodeAll(NewDecoder(), bytes.NewReader(c[:n]), 512)
		if !errors.Is(err, unpack.ErrInsufficientData) {
			t.Fatalf("truncated at %d: got error %v; want %v", n, err,
				unpack.ErrInsufficientData)
		}
	}
}

func TestStickyError(t *testing.T) {
	d := NewDecoder()
	src := bytes.NewReader([]byte("BZX9"))
	_, err := decodeAll(d, src, 16)
	if !errors.Is(err, unpack.ErrInvalidData) {
		t.Fatalf("got error %v; want %v", err, unpack.ErrInvalidData)
	}
	n, err2 := d.Decode(make([]byte, 16), bytes.NewReader(
		mustDecodeHex(zeros32)))
	if n != 0 || err2 != err {
		t.Fatalf("Decode after error returned %d, %v; want 0, %v",
			n, err2, err)
	}
}

// bwt computes the last column of the sorted rotations of s and the index
// of s among them.
func bwt(s []byte) (last []byte, origPtr int) {
	n := len(s)
	rots := make([]int, n)
	for i := range rots {
		rots[i] = i
	}
	rot := func(i int) []byte {
		return append(append([]byte{}, s[i:]...), s[:i]...)
	}
	sort.Slice(rots, func(a, b int) bool {
		return bytes.Compare(rot(rots[a]), rot(rots[b])) < 0
	})
	last = make([]byte, n)
	for k, i := range rots {
		last[k] = s[(i+n-1)%n]
		if i == 0 {
			origPtr = k
		}
	}
	return last, origPtr
}

func TestBWT(t *testing.T) {
	tests := []struct {
		last    string
		origPtr int
		want    string
	}{
		{"caab", 1, "abca"},
		{"nnbaaa", 3, "banana"},
		{"rdarcaaaabb", 2, "abracadabra"},
		{"bcda", 3, "dcba"},
	}
	for _, tc := range tests {
		last, origPtr := bwt([]byte(tc.want))
		if string(last) != tc.last || origPtr != tc.origPtr {
			t.Fatalf("bwt(%q) = %q, %d; want %q, %d", tc.want,
				last, origPtr, tc.last, tc.origPtr)
		}
		got := emitBlock(t, []byte(tc.last), tc.origPtr, false)
		if string(got) != tc.want {
			t.Fatalf("inverse of %q = %q; want %q", tc.last, got,
				tc.want)
		}
	}
}

// emitBlock runs the emission of a block with the given last column.
func emitBlock(t *testing.T, last []byte, origPtr int, randomized bool,
) []byte {
	t.Helper()
	d := NewDecoder()
	var counts [256]int
	for i, b := range last {
		d.tt[i] = uint32(b)
		counts[b]++
	}
	inverseBWT(d.tt[:len(last)], &counts)
	d.origPtr = origPtr
	d.blockLen = len(last)
	d.randomized = randomized
	d.crc = 0xffffffff
	d.state = stateDecodeA
	var out []byte
	p := make([]byte, 7)
	for d.state != stateBlockBegin {
		n := d.emit(p)
		out = append(out, p[:n]...)
	}
	return out
}

func TestRandomized(t *testing.T) {
	want := make([]byte, 1400)
	for i := range want {
		want[i] = byte('a' + i%26)
	}
	// positions inverted by the first two entries of the table
	s := append([]byte{}, want...)
	s[617] ^= 1
	s[1337] ^= 1
	last, origPtr := bwt(s)
	got := emitBlock(t, last, origPtr, true)
	if !bytes.Equal(got, want) {
		t.Fatalf("randomized block decoded incorrectly")
	}
	got = emitBlock(t, last, origPtr, false)
	if !bytes.Equal(got, s) {
		t.Fatalf("block decoded incorrectly")
	}
}

func TestRunLengthStage(t *testing.T) {
	// four equal bytes are followed by the number of repetitions
	want := "xaaaaaaaaaay"
	s := []byte{'x', 'a', 'a', 'a', 'a', 6, 'y'}
	last, origPtr := bwt(s)
	got := emitBlock(t, last, origPtr, false)
	if string(got) != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}

func TestFactory(t *testing.T) {
	f, err := unpack.Lookup(Name)
	if err != nil {
		t.Fatalf("unpack.Lookup error %s", err)
	}
	p := unpack.NewProperties()
	p.Register(FormatProperty, Stream)
	if err = p.Parse(FormatProperty.Key, "raw"); err != nil {
		t.Fatalf("p.Parse error %s", err)
	}
	d, err := f.NewDecoder(p)
	if err != nil {
		t.Fatalf("f.NewDecoder error %s", err)
	}
	q := d.Properties()
	if got := q.Enum(FormatProperty); got != Raw {
		t.Fatalf("format property %v; want %v", got, Raw)
	}
	if got := q.Byte(BlockSizeProperty); got != 0 {
		t.Fatalf("block size property %d; want 0", got)
	}
	got, err := decodeAll(d, bytes.NewReader(mustDecodeHex(zeros32)[4:]), 5)
	if err != nil {
		t.Fatalf("decode error %s", err)
	}
	if !bytes.Equal(got, make([]byte, 32)) {
		t.Fatalf("decoded %q; want 32 zeros", got)
	}

	p = f.DefaultProperties()
	if err = p.Set(BlockSizeProperty, byte(10)); err != nil {
		t.Fatalf("p.Set error %s", err)
	}
	if _, err = f.NewDecoder(p); err == nil {
		t.Fatalf("f.NewDecoder accepted block size class 10")
	}
}
