// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cameratest

import (
	"bytes"
	"context"
	"image/jpeg"
	"testing"
	"time"

	"github.com/maruel/camstream/camera"
)

func TestCamera_formats(t *testing.T) {
	enc := camera.NewJPEGEncoder(nil)
	for _, format := range []camera.PixelFormat{camera.JPEG, camera.Grayscale, camera.RGB565, camera.RGB888, camera.YUV422} {
		c := New(format, 32, 24, 0)
		f, err := c.Acquire(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if f.Format != format {
			t.Fatalf("%s: got %s", format, f.Format)
		}
		if format == camera.JPEG {
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(f.Buf))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Width != 32 || cfg.Height != 24 {
				t.Fatalf("%dx%d", cfg.Width, cfg.Height)
			}
		} else {
			b, err := enc.EncodeJPEG(f, camera.DefaultQuality)
			if err != nil {
				t.Fatalf("%s: %v", format, err)
			}
			b.Free()
		}
		c.Release(f)
		if acquired, released := c.Stats(); acquired != 1 || released != 1 {
			t.Fatalf("%s: %d acquired %d released", format, acquired, released)
		}
		if c.Outstanding() != 0 {
			t.Fatal(c.Outstanding())
		}
	}
}

func TestCamera_timestamps(t *testing.T) {
	c := New(camera.Grayscale, 8, 8, 0)
	var last time.Duration
	for i := 0; i < 5; i++ {
		f, err := c.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		d := f.Timestamp.Duration()
		if d < last {
			t.Fatalf("timestamp went backward: %s < %s", d, last)
		}
		last = d
		c.Release(f)
	}
}

func TestCamera_rate(t *testing.T) {
	c := New(camera.Grayscale, 8, 8, 100)
	start := time.Now()
	for i := 0; i < 4; i++ {
		f, err := c.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		c.Release(f)
	}
	// First frame is immediate, then 3 periods of 10ms.
	if d := time.Since(start); d < 25*time.Millisecond {
		t.Fatalf("too fast: %s", d)
	}
}

func TestCamera_cancel(t *testing.T) {
	c := New(camera.Grayscale, 8, 8, 1)
	f, err := c.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	c.Release(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Acquire(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCamera_closed(t *testing.T) {
	c := New(camera.Grayscale, 8, 8, 0)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Acquire(context.Background()); err != ErrClosed {
		t.Fatal(err)
	}
}

func TestCamera_doubleRelease(t *testing.T) {
	c := New(camera.Grayscale, 8, 8, 0)
	f, err := c.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	c.Release(f)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	c.Release(f)
}
