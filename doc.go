// Package unpack provides the common interface of the decoders for the
// DEFLATE, bzip2 and LZMA compression formats.
//
// A Decoder is a resumable state machine. Every call of Decode pulls as many
// bytes from the source as required and writes decoded data into the
// destination slice. A call may return fewer bytes than the slice could hold,
// even zero bytes; the caller simply calls again. The end of the stream is
// signalled by io.EOF with n == 0.
//
// The format packages register factories under their compression names,
// which allows the creation of decoders by name:
//
//	d, err := unpack.NewDecoder("Deflate compression", nil)
//	if err != nil {
//		return err
//	}
//	r := unpack.NewReader(d, f)
//
// Decoders are not safe for concurrent use.
package unpack
