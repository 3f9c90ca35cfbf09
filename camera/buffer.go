// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"bytes"
	"sync/atomic"
)

// Buffer is an encoded image owned by whoever received it from an Encoder.
//
// It implements io.Writer so encoders can write into it directly.
type Buffer struct {
	b     bytes.Buffer
	pool  *BufferPool
	freed bool
}

// Write appends p to the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.b.Write(p)
}

// Bytes returns the content. It is only valid until Free is called.
func (b *Buffer) Bytes() []byte {
	return b.b.Bytes()
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return b.b.Len()
}

// Free hands the buffer back to its pool. Freeing twice panics.
func (b *Buffer) Free() {
	if b.freed {
		panic("camera: Buffer freed twice")
	}
	b.freed = true
	b.b.Reset()
	if b.pool != nil {
		b.pool.done(b)
	}
}

// BufferPool recycles Buffers so the steady state of a stream doesn't
// allocate.
type BufferPool struct {
	c           chan *Buffer
	outstanding int64
}

// NewBufferPool returns a pool keeping at most size idle buffers.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{c: make(chan *Buffer, size)}
}

// Get returns an empty buffer.
func (p *BufferPool) Get() *Buffer {
	atomic.AddInt64(&p.outstanding, 1)
	select {
	case b := <-p.c:
		b.freed = false
		return b
	default:
		return &Buffer{pool: p}
	}
}

// Outstanding returns the number of buffers handed out and not yet freed.
func (p *BufferPool) Outstanding() int {
	return int(atomic.LoadInt64(&p.outstanding))
}

func (p *BufferPool) done(b *Buffer) {
	atomic.AddInt64(&p.outstanding, -1)
	select {
	case p.c <- b:
	default:
		// Pool is full, let the GC have it.
	}
}
