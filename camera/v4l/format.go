// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package v4l captures frames from a Video4Linux2 device.
//
// Frames are the driver's mmap buffers; they must be returned with Release
// before the driver can reuse them.
package v4l

import (
	"errors"
	"fmt"

	"github.com/maruel/camstream/camera"
)

// ErrUnsupported is returned when neither the device nor this package
// supports the requested format.
var ErrUnsupported = errors.New("v4l: unsupported format")

// Config describes the capture to open.
type Config struct {
	Device  string             // Defaults to /dev/video0.
	Format  camera.PixelFormat // JPEG or YUV422.
	Width   int
	Height  int
	Buffers int // Number of mmap buffers; bounds the frames outstanding at once.
}

func (c *Config) defaults() {
	if c.Device == "" {
		c.Device = "/dev/video0"
	}
	if c.Width == 0 || c.Height == 0 {
		c.Width, c.Height = 640, 480
	}
	if c.Buffers <= 0 {
		c.Buffers = 4
	}
}

func fourcc(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

var (
	fourccMJPG = fourcc("MJPG")
	fourccYUYV = fourcc("YUYV")
)

// fourccFor maps a camera format to the V4L2 pixel format.
func fourccFor(f camera.PixelFormat) (uint32, error) {
	switch f {
	case camera.JPEG:
		return fourccMJPG, nil
	case camera.YUV422:
		return fourccYUYV, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
}

// fourccString renders a V4L2 pixel format for error messages.
func fourccString(f uint32) string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}
