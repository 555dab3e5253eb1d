package deflate

const (
	// minimum match length
	minMatchLen = 3

	endOfBlock  = 256
	firstLength = 257

	// sizes of the code tables
	mainTableSize  = 288
	distTableSize  = 32
	levelTableSize = 19
	maxCodeBits    = 15

	// number of distance codes for the 32 KiB and 64 KiB windows
	numDist32 = 30
	numDist64 = 32

	historySize32 = 1 << 15
	historySize64 = 1 << 16
)

// lengthTable describes the lengths of the length symbols starting at 257.
type lengthTable struct {
	start [29]uint16
	bits  [29]uint8
}

// lengths32 is the length table of RFC 1951.
var lengths32 = lengthTable{
	start: [29]uint16{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 14, 16, 20, 24, 28, 32,
		40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 255},
	bits: [29]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3,
		3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0},
}

// lengths64 is the length table of the 64 KiB variant, which uses symbol
// 285 for lengths of up to 65538 bytes.
var lengths64 = lengthTable{
	start: [29]uint16{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 14, 16, 20, 24, 28, 32,
		40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 0},
	bits: [29]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3,
		3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 16},
}

// distStart gives the zero-based base distances of the distance symbols.
var distStart = [distTableSize]uint32{
	0, 1, 2, 3, 4, 6, 8, 12, 16, 24, 32, 48, 64, 96, 128, 192, 256,
	384, 512, 768, 1024, 1536, 2048, 3072, 4096, 6144, 8192, 12288,
	16384, 24576, 32768, 49152}

var distBits = [distTableSize]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14}

// levelOrder is the order of the code length code lengths.
var levelOrder = [levelTableSize]uint8{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// levels holds the code lengths for the main and the distance table.
type levels struct {
	main [mainTableSize]byte
	dist [distTableSize]byte
}

// setFixed sets the code lengths of the fixed Huffman codes.
func (l *levels) setFixed() {
	i := 0
	for ; i < 144; i++ {
		l.main[i] = 8
	}
	for ; i < 256; i++ {
		l.main[i] = 9
	}
	for ; i < 280; i++ {
		l.main[i] = 7
	}
	for ; i < mainTableSize; i++ {
		l.main[i] = 8
	}
	for i := range l.dist {
		l.dist[i] = 5
	}
}

// set distributes the decoded code lengths to the tables. Missing lengths
// are zero.
func (l *levels) set(lens []byte, numMain int) {
	*l = levels{}
	copy(l.main[:], lens[:numMain])
	copy(l.dist[:], lens[numMain:])
}
