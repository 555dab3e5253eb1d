// Package randtxt provides a reader generating pseudo-random English text.
// The text is well compressible and is used as test input for the
// decoders.
package randtxt

import (
	"math/rand"
	"sort"
)

type prob struct {
	s string
	p float64
}

// probs is a cumulative distribution function.
type probs []prob

func (s probs) SearchProb(p float64) int {
	return sort.Search(len(s), func(k int) bool { return s[k].p >= p })
}

type byProb struct {
	probs
}

func (s byProb) Len() int           { return len(s.probs) }
func (s byProb) Swap(i, j int)      { s.probs[i], s.probs[j] = s.probs[j], s.probs[i] }
func (s byProb) Less(i, j int) bool { return s.probs[i].p < s.probs[j].p }

func cdf(n int, p func(i int) prob) probs {
	prs := make(probs, n)
	sum := 0.0
	for i := range prs {
		pr := p(i)
		sum += pr.p
		prs[i] = pr
	}
	q := 1.0 / sum
	x := 0.0
	for i, pr := range prs {
		x += pr.p * q
		if x > 1.0 {
			x = 1.0
		}
		prs[i].p = x
	}
	prs[n-1].p = 1.0
	if !sort.IsSorted(byProb{prs}) {
		panic("cdf not sorted")
	}
	return prs
}

// words lists frequent English words with their frequency per 1000 words.
var words = []struct {
	w string
	f float64
}{
	{"the", 56}, {"of", 31}, {"and", 29}, {"to", 26}, {"a", 22},
	{"in", 18}, {"is", 10}, {"that", 10}, {"for", 9}, {"it", 9},
	{"as", 7}, {"was", 7}, {"with", 7}, {"be", 6}, {"by", 6},
	{"on", 6}, {"not", 5}, {"he", 5}, {"this", 5}, {"are", 4},
	{"or", 4}, {"his", 4}, {"from", 4}, {"at", 4}, {"which", 4},
	{"but", 4}, {"have", 3}, {"an", 3}, {"had", 3}, {"they", 3},
	{"you", 3}, {"were", 3}, {"their", 3}, {"one", 3}, {"all", 3},
	{"we", 3}, {"can", 2}, {"her", 2}, {"has", 2}, {"there", 2},
	{"been", 2}, {"if", 2}, {"more", 2}, {"when", 2}, {"will", 2},
	{"would", 2}, {"who", 2}, {"so", 2}, {"no", 2}, {"window", 1},
	{"stream", 1}, {"block", 1}, {"decoder", 1}, {"history", 1},
	{"symbol", 1}, {"length", 1}, {"distance", 1}, {"literal", 1},
	{"range", 1}, {"probability", 1}, {"huffman", 1}, {"table", 1},
}

var wcdf = cdf(len(words), func(i int) prob {
	return prob{words[i].w, words[i].f}
})

// Reader produces an endless stream of text. Lines have about 70
// characters.
type Reader struct {
	rnd  *rand.Rand
	buf  []byte
	line int
}

// NewReader creates a reader using the random source.
func NewReader(src rand.Source) *Reader {
	return &Reader{rnd: rand.New(src)}
}

// word returns the next word followed by a separator.
func (r *Reader) word() string {
	i := wcdf.SearchProb(r.rnd.Float64())
	w := wcdf[i].s
	r.line += len(w) + 1
	if r.line >= 70 {
		r.line = 0
		return w + "\n"
	}
	return w + " "
}

// Read fills p completely.
func (r *Reader) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if len(r.buf) == 0 {
			r.buf = append(r.buf[:0], r.word()...)
		}
		k := copy(p[n:], r.buf)
		r.buf = r.buf[k:]
		n += k
	}
	return n, nil
}

// Bytes returns n bytes of text generated with the given seed.
func Bytes(seed int64, n int) []byte {
	p := make([]byte, n)
	NewReader(rand.NewSource(seed)).Read(p)
	return p
}
