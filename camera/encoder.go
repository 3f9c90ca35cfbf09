// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"image/jpeg"
)

// DefaultQuality is the JPEG quality used for raw frames.
const DefaultQuality = 80

// JPEGEncoder encodes raw frames with image/jpeg.
type JPEGEncoder struct {
	pool *BufferPool
}

// NewJPEGEncoder returns an encoder drawing its output buffers from pool.
//
// pool may be nil, in which case every buffer is freshly allocated.
func NewJPEGEncoder(pool *BufferPool) *JPEGEncoder {
	if pool == nil {
		pool = NewBufferPool(0)
	}
	return &JPEGEncoder{pool: pool}
}

// EncodeJPEG implements Encoder.
func (e *JPEGEncoder) EncodeJPEG(f *Frame, quality int) (*Buffer, error) {
	img, err := f.Image()
	if err != nil {
		return nil, err
	}
	b := e.pool.Get()
	if err := jpeg.Encode(b, img, &jpeg.Options{Quality: quality}); err != nil {
		b.Free()
		return nil, err
	}
	return b, nil
}

// Pool returns the pool backing the encoder's buffers.
func (e *JPEGEncoder) Pool() *BufferPool {
	return e.pool
}
