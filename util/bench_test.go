package util

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
)

// BenchmarkBidirectionalCopy measures the client relay against a local
// echo peer, the same shape as a session with the cipher service.
func BenchmarkBidirectionalCopy(b *testing.B) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		b.Fatal(err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				io.Copy(c, c) //nolint:errcheck
			}(conn)
		}
	}()

	payload := bytes.Repeat([]byte("ATTACKATDAWN"), DefaultBufSize/12)

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			b.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		BidirectionalCopy(ctx, conn, bytes.NewReader(payload), io.Discard) //nolint:errcheck
		cancel()
	}
}

// BenchmarkPooledCopy measures pooled-buffer copying against plain
// io.Copy.
func BenchmarkPooledCopy(b *testing.B) {
	payload := bytes.Repeat([]byte("X"), 4*DefaultBufSize)
	b.Run("pooled", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			pooledCopy(io.Discard, bytes.NewReader(payload)) //nolint:errcheck
		}
	})
	b.Run("io.Copy", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			io.Copy(io.Discard, onlyReader{bytes.NewReader(payload)}) //nolint:errcheck
		}
	})
}

// onlyReader hides WriterTo so io.Copy allocates its own buffer.
type onlyReader struct{ r io.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }
