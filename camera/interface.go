// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package camera defines the frame type and the capture and encoding
// contracts consumed by the stream pump.
package camera

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Camera hands out frames from a pool owned by the driver.
//
// A frame returned by Acquire stays owned by the driver: its buffer is only
// valid until it is handed back with Release. Every acquired frame must be
// released exactly once. This interface can be mocked.
type Camera interface {
	// Acquire blocks until the next frame is available.
	Acquire(ctx context.Context) (*Frame, error)
	// Release returns a frame to the driver.
	Release(f *Frame)
}

// Encoder converts raw frames to JPEG.
//
// The returned Buffer is owned by the caller and must be freed with
// Buffer.Free. The frame is not retained.
type Encoder interface {
	EncodeJPEG(f *Frame, quality int) (*Buffer, error)
}

// PixelFormat is the layout of Frame.Buf.
type PixelFormat uint8

// Valid values for PixelFormat.
const (
	JPEG      PixelFormat = 0
	Grayscale PixelFormat = 1 // 1 byte per pixel.
	RGB565    PixelFormat = 2 // 2 bytes per pixel, big endian.
	RGB888    PixelFormat = 3 // 3 bytes per pixel.
	YUV422    PixelFormat = 4 // YUYV, 2 bytes per pixel.
)

func (p PixelFormat) String() string {
	switch p {
	case JPEG:
		return "JPEG"
	case Grayscale:
		return "Grayscale"
	case RGB565:
		return "RGB565"
	case RGB888:
		return "RGB888"
	case YUV422:
		return "YUV422"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(p))
	}
}

var pixelFormatAliases = map[string]PixelFormat{
	"mjpg":  JPEG,
	"jpg":   JPEG,
	"gray":  Grayscale,
	"grey":  Grayscale,
	"y8":    Grayscale,
	"rgb":   RGB888,
	"rgb24": RGB888,
	"yuyv":  YUV422,
}

// ParsePixelFormat is the reverse of PixelFormat.String. It is case
// insensitive and also accepts common aliases like "gray" and "yuyv".
func ParsePixelFormat(s string) (PixelFormat, error) {
	l := strings.ToLower(s)
	for p := JPEG; p <= YUV422; p++ {
		if strings.ToLower(p.String()) == l {
			return p, nil
		}
	}
	if p, ok := pixelFormatAliases[l]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("camera: unknown pixel format %q", s)
}

// Timestamp is a capture time split in seconds and microseconds.
//
// The epoch is driver specific, usually the start of capture.
type Timestamp struct {
	Sec  int64
	Usec int64 // [0, 999999]
}

// TimestampFromDuration converts a duration since the driver's epoch.
func TimestampFromDuration(d time.Duration) Timestamp {
	return Timestamp{Sec: int64(d / time.Second), Usec: int64(d % time.Second / time.Microsecond)}
}

// Duration is the reverse of TimestampFromDuration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Usec)*time.Microsecond
}

// String returns "<sec>.<usec>" with the microseconds zero padded to 6 digits.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%06d", t.Sec, t.Usec)
}

// ErrFormat is returned when a frame buffer doesn't match its declared
// format and dimensions.
var ErrFormat = errors.New("camera: invalid frame buffer")
