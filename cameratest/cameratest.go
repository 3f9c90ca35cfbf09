// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cameratest implements a fake camera.
package cameratest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"sync"
	"time"

	"github.com/maruel/camstream/camera"
)

// ErrClosed is returned by Acquire once the camera is closed.
var ErrClosed = errors.New("cameratest: camera closed")

// Camera is a fake camera.Camera rendering slowly moving blobs.
//
// It tracks the frames it handed out and panics on a release of a frame it
// doesn't own, which catches double releases in tests.
type Camera struct {
	format camera.PixelFormat
	width  int
	height int
	period time.Duration
	start  time.Time

	mu          sync.Mutex
	noise       *noise
	pool        chan []byte
	outstanding map[*camera.Frame]struct{}
	next        time.Time
	closed      bool
	acquired    int
	released    int
}

// New returns a fake camera producing frames of the given format at fps
// frames per second. fps <= 0 means as fast as requested.
func New(format camera.PixelFormat, width, height, fps int) *Camera {
	c := &Camera{
		format:      format,
		width:       width,
		height:      height,
		start:       time.Now(),
		noise:       makeNoise(width, height),
		pool:        make(chan []byte, 4),
		outstanding: map[*camera.Frame]struct{}{},
	}
	if fps > 0 {
		c.period = time.Second / time.Duration(fps)
	}
	c.next = c.start
	return c
}

// Acquire implements camera.Camera.
func (c *Camera) Acquire(ctx context.Context) (*camera.Frame, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	wait := time.Until(c.next)
	c.next = c.next.Add(c.period)
	if now := time.Now(); c.next.Before(now) {
		// Consumer is slower than the sensor; skip frames.
		c.next = now
	}
	c.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	f := &camera.Frame{
		Width:     c.width,
		Height:    c.height,
		Format:    c.format,
		Timestamp: camera.TimestampFromDuration(time.Since(c.start)),
	}
	c.noise.update()
	var err error
	if f.Buf, err = c.render(c.get()); err != nil {
		return nil, err
	}
	c.outstanding[f] = struct{}{}
	c.acquired++
	return f, nil
}

// Release implements camera.Camera.
func (c *Camera) Release(f *camera.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.outstanding[f]; !ok {
		panic("cameratest: releasing a frame not owned by the camera")
	}
	delete(c.outstanding, f)
	c.released++
	select {
	case c.pool <- f.Buf[:0]:
	default:
	}
	f.Buf = nil
}

// Close makes pending and future Acquire calls fail.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Stats returns the number of frames acquired and released so far.
func (c *Camera) Stats() (acquired, released int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired, c.released
}

// Outstanding returns the number of frames not yet released.
func (c *Camera) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outstanding)
}

func (c *Camera) get() []byte {
	select {
	case b := <-c.pool:
		return b
	default:
		return nil
	}
}

// render converts the intensity field to the camera's pixel format.
func (c *Camera) render(dst []byte) ([]byte, error) {
	n := c.width * c.height
	switch c.format {
	case camera.Grayscale:
		for i := 0; i < n; i++ {
			dst = append(dst, c.noise.pix[i])
		}
	case camera.RGB888:
		for i := 0; i < n; i++ {
			p := falseColor(c.noise.pix[i])
			dst = append(dst, p.R, p.G, p.B)
		}
	case camera.RGB565:
		var b [2]byte
		for i := 0; i < n; i++ {
			camera.PutRGB565(b[:], falseColor(c.noise.pix[i]))
			dst = append(dst, b[0], b[1])
		}
	case camera.YUV422:
		for i := 0; i+1 < n; i += 2 {
			dst = append(dst, c.noise.pix[i], 128, c.noise.pix[i+1], 128)
		}
	default:
		img := &image.Gray{Pix: c.noise.pix, Stride: c.width, Rect: image.Rect(0, 0, c.width, c.height)}
		buf := bytes.NewBuffer(dst)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: camera.DefaultQuality}); err != nil {
			return nil, err
		}
		dst = buf.Bytes()
	}
	return dst, nil
}

// falseColor maps an intensity to a blue to red palette.
func falseColor(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255}
}

//

type vector struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
type noise struct {
	rand    *rand.Rand
	vectors []vector
	width   int
	height  int
	pix     []uint8
}

func makeNoise(width, height int) *noise {
	n := &noise{rand: rand.New(rand.NewSource(0)), width: width, height: height, pix: make([]uint8, width*height)}
	n.vectors = make([]vector, 10)
	for i := range n.vectors {
		n.vectors[i].intensity = n.rand.NormFloat64() * 400
		n.vectors[i].x = n.rand.NormFloat64()*float64(width)/6 + float64(width)/2
		n.vectors[i].y = n.rand.NormFloat64()*float64(height)/6 + float64(height)/2
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity += n.rand.NormFloat64() * 4
		n.vectors[i].x += n.rand.NormFloat64()
		n.vectors[i].y += n.rand.NormFloat64()
	}
	for y := 0; y < n.height; y++ {
		fy := float64(y)
		for x := 0; x < n.width; x++ {
			fx := float64(x)
			value := 128.
			for _, v := range n.vectors {
				distance := (v.x-fx)*(v.x-fx) + (v.y-fy)*(v.y-fy) + 1
				value += v.intensity / distance
			}
			if value > 255 {
				value = 255
			}
			if value < 0 {
				value = 0
			}
			n.pix[y*n.width+x] = uint8(value)
		}
	}
}
