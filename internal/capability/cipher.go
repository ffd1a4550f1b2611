package capability

import (
	"context"
	"fmt"

	"enigma/enigma"
	"enigma/internal/metrics"
	"enigma/internal/session"
	"enigma/util"
)

// Cipher enciphers everything the peer sends with the session's
// machine and writes the result straight back.  Letters step the
// machine; every other byte is echoed unchanged.
type Cipher struct {
	Metrics *metrics.Collector // optional
}

// Handle runs until the peer closes its side or ctx is cancelled.
func (c *Cipher) Handle(ctx context.Context, sess *session.Session) error {
	if sess.Machine == nil {
		return fmt.Errorf("cipher: session %s has no machine", session.ShortID(sess.ID))
	}

	// Unblock the read loop on shutdown.
	stop := context.AfterFunc(ctx, func() { sess.Conn.Close() })
	defer stop()

	out := enigma.NewWriter(sess.Conn, sess.Machine)
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	var letters int64
	for {
		n, rerr := sess.Conn.Read(*buf)
		if n > 0 {
			chunk := (*buf)[:n]
			c.Metrics.BytesReceived(int64(n))
			if _, err := out.Write(chunk); err != nil {
				if ctx.Err() != nil || util.IsHarmless(err) {
					return nil
				}
				return fmt.Errorf("cipher: write: %w", err)
			}
			k := countLetters(chunk)
			letters += k
			c.Metrics.BytesSent(int64(n))
			c.Metrics.LettersEnciphered(k)
			sess.Logger.Debug("enciphered %d bytes, window now %s", n, sess.Machine.Window())
		}
		if rerr != nil {
			sess.Logger.Verbose("peer done after %d letters", letters)
			if ctx.Err() != nil || util.IsHarmless(rerr) {
				return nil
			}
			return fmt.Errorf("cipher: read: %w", rerr)
		}
	}
}

func countLetters(p []byte) int64 {
	var n int64
	for _, b := range p {
		if _, ok := enigma.Index(rune(b)); ok {
			n++
		}
	}
	return n
}
