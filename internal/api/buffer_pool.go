package api

import (
	"bytes"
	"sync"
)

// maxPooledBuffer caps the size of buffers returned to the pool
const maxPooledBuffer = 64 * 1024

// bufferPool reuses byte buffers for request bodies. Prompts embed whole
// stories, so bodies are a few kilobytes each.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// getBuffer retrieves an empty buffer from the pool.
// Caller must call putBuffer() when done.
func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns a buffer to the pool unless it grew past maxPooledBuffer
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxPooledBuffer {
		bufferPool.Put(buf)
	}
}
