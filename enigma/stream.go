package enigma

import (
	"io"

	"enigma/util"
)

// Writer enciphers everything written to it before passing it on.
// ASCII letters are enciphered; every other byte, including each byte
// of a multi-byte UTF-8 sequence, goes through untouched.
type Writer struct {
	w io.Writer
	m *Machine
}

// NewWriter returns a Writer that drives m for every letter written.
func NewWriter(w io.Writer, m *Machine) *Writer {
	return &Writer{w: w, m: m}
}

// Write enciphers p into a pooled buffer and writes it to the
// underlying writer.  p itself is not modified.
func (cw *Writer) Write(p []byte) (int, error) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	written := 0
	for len(p) > 0 {
		n := copy(*buf, p)
		chunk := (*buf)[:n]
		for i, c := range chunk {
			chunk[i] = cw.m.EncryptByte(c)
		}
		m, err := cw.w.Write(chunk)
		written += m
		if err != nil {
			return written, err
		}
		if m < n {
			return written, io.ErrShortWrite
		}
		p = p[n:]
	}
	return written, nil
}

// Reader enciphers bytes as they are read from an underlying reader.
type Reader struct {
	r io.Reader
	m *Machine
}

// NewReader returns a Reader that drives m for every letter read.
func NewReader(r io.Reader, m *Machine) *Reader {
	return &Reader{r: r, m: m}
}

func (cr *Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] = cr.m.EncryptByte(p[i])
	}
	return n, err
}
