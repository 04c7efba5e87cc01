package util

import "sync"

// ReadBufSize is the default size of a socket read chunk.
const ReadBufSize = 8 * 1024

// readBufPool holds the chunks the connection's read pump fills.  A
// chunk is returned once the event loop has fed it to the framer.
var readBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadBufSize)
		return &buf
	},
}

// GetBuf retrieves a read chunk from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return readBufPool.Get().(*[]byte)
}

// PutBuf returns a chunk to the pool, restoring its full length.
func PutBuf(buf *[]byte) {
	if buf == nil || cap(*buf) < ReadBufSize {
		return
	}
	*buf = (*buf)[:ReadBufSize]
	readBufPool.Put(buf)
}
