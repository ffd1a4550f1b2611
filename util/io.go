package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// DefaultBufSize is the standard buffer size for stream I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// CopyStats reports how much data a relay moved in each direction.
type CopyStats struct {
	Sent     int64 // reader → connection
	Received int64 // connection → writer
}

// BidirectionalCopy shuffles data between a network connection and an
// arbitrary reader/writer pair (typically stdin/stdout) until the
// remote side closes or the context is cancelled.  Reaching EOF on r
// half-closes the connection and keeps draining the remote's reply.
func BidirectionalCopy(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) (CopyStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var sent, received atomic.Int64
	errCh := make(chan error, 2)

	// network → writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := pooledCopy(w, conn)
		received.Add(n)
		errCh <- err
		cancel()
	}()

	// reader → network
	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := pooledCopy(conn, r)
		sent.Add(n)
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			cw.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		// A clean EOF on the local side must not tear the connection
		// down before the remote has finished answering.
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock any pending reads/writes
	wg.Wait()
	close(errCh)

	stats := CopyStats{Sent: sent.Load(), Received: received.Load()}
	for err := range errCh {
		if err != nil && !IsHarmless(err) {
			return stats, err
		}
	}
	return stats, nil
}

func pooledCopy(dst io.Writer, src io.Reader) (int64, error) {
	buf := GetBuf()
	defer PutBuf(buf)
	return io.CopyBuffer(dst, src, *buf)
}

// IsHarmless returns true for errors that are expected when one side
// of a stream shuts down.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
