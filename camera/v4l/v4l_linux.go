// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package v4l

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/blackjack/webcam"
	"github.com/maruel/camstream/camera"
)

// device is the part of *webcam.Webcam used after Open.
type device interface {
	WaitForFrame(timeout uint32) error
	GetFrame() ([]byte, uint32, error)
	ReleaseFrame(index uint32) error
	StopStreaming() error
	Close() error
}

var errClosed = errors.New("v4l: closed")

// Camera is a V4L2 capture device. It implements camera.Camera.
type Camera struct {
	format camera.PixelFormat
	width  int
	height int
	start  time.Time

	captureMu sync.Mutex // Serializes WaitForFrame and GetFrame.

	mu          sync.Mutex // Guards dev and outstanding. Never held while waiting.
	dev         device
	outstanding map[*camera.Frame]uint32
}

// Open opens the device and starts streaming.
func Open(cfg Config) (*Camera, error) {
	cfg.defaults()
	want, err := fourccFor(cfg.Format)
	if err != nil {
		return nil, err
	}
	dev, err := webcam.Open(cfg.Device)
	if err != nil {
		return nil, err
	}
	if _, ok := dev.GetSupportedFormats()[webcam.PixelFormat(want)]; !ok {
		dev.Close()
		return nil, fmt.Errorf("%w: %s does not support %s", ErrUnsupported, cfg.Device, fourccString(want))
	}
	pf, w, h, err := dev.SetImageFormat(webcam.PixelFormat(want), uint32(cfg.Width), uint32(cfg.Height))
	if err != nil {
		dev.Close()
		return nil, err
	}
	if uint32(pf) != want {
		dev.Close()
		return nil, fmt.Errorf("%w: %s selected %s", ErrUnsupported, cfg.Device, fourccString(uint32(pf)))
	}
	if err := dev.SetBufferCount(uint32(cfg.Buffers)); err != nil {
		dev.Close()
		return nil, err
	}
	if err := dev.StartStreaming(); err != nil {
		dev.Close()
		return nil, err
	}
	log.Printf("v4l: %s streaming %s %dx%d", cfg.Device, cfg.Format, w, h)
	return newCamera(dev, cfg.Format, int(w), int(h)), nil
}

func newCamera(dev device, format camera.PixelFormat, width, height int) *Camera {
	return &Camera{
		format:      format,
		width:       width,
		height:      height,
		start:       time.Now(),
		dev:         dev,
		outstanding: map[*camera.Frame]uint32{},
	}
}

// Acquire waits for the next frame. The frame references the driver's
// buffer until Release.
func (c *Camera) Acquire(ctx context.Context) (*camera.Frame, error) {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// dev only changes with captureMu held.
		c.mu.Lock()
		dev := c.dev
		c.mu.Unlock()
		if dev == nil {
			return nil, errClosed
		}
		// The timeout is in seconds; it bounds how long a canceled ctx goes
		// unnoticed.
		err := dev.WaitForFrame(1)
		var to *webcam.Timeout
		if errors.As(err, &to) {
			continue
		}
		if err != nil {
			return nil, err
		}
		buf, idx, err := dev.GetFrame()
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			// Some drivers dequeue empty buffers while the sensor warms up.
			c.mu.Lock()
			err = dev.ReleaseFrame(idx)
			c.mu.Unlock()
			if err != nil {
				return nil, err
			}
			continue
		}
		f := &camera.Frame{
			Buf:       buf,
			Width:     c.width,
			Height:    c.height,
			Format:    c.format,
			Timestamp: camera.TimestampFromDuration(time.Since(c.start)),
		}
		c.mu.Lock()
		c.outstanding[f] = idx
		c.mu.Unlock()
		return f, nil
	}
}

// Release hands the buffer back to the driver.
func (c *Camera) Release(f *camera.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.outstanding[f]
	if !ok {
		panic("v4l: releasing an unknown frame")
	}
	delete(c.outstanding, f)
	f.Buf = nil
	if c.dev == nil {
		return
	}
	if err := c.dev.ReleaseFrame(idx); err != nil {
		log.Printf("v4l: release %d: %v", idx, err)
	}
}

// Close stops streaming and closes the device. It waits for a pending
// Acquire to return.
func (c *Camera) Close() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		return nil
	}
	err := c.dev.StopStreaming()
	if err2 := c.dev.Close(); err == nil {
		err = err2
	}
	c.dev = nil
	return err
}
