package util

import "sync"

// BufPool provides reusable byte buffers for the cipher stream and the
// relay loops, so long sessions do not allocate per write.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a DefaultBufSize buffer from the pool.  Callers must
// return it with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool.  Buffers of any other length are
// dropped so GetBuf always hands out full-size ones.
func PutBuf(buf *[]byte) {
	if buf == nil || len(*buf) != DefaultBufSize {
		return
	}
	BufPool.Put(buf)
}
