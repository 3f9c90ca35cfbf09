// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package v4l

import (
	"context"
	"errors"

	"github.com/maruel/camstream/camera"
)

var errNotLinux = errors.New("v4l: only supported on linux")

// Camera is a V4L2 capture device. It is only functional on linux.
type Camera struct{}

// Open always fails on this OS.
func Open(cfg Config) (*Camera, error) {
	return nil, errNotLinux
}

// Acquire implements camera.Camera.
func (c *Camera) Acquire(ctx context.Context) (*camera.Frame, error) {
	return nil, errNotLinux
}

// Release implements camera.Camera.
func (c *Camera) Release(f *camera.Frame) {}

// Close is a no-op.
func (c *Camera) Close() error {
	return nil
}
