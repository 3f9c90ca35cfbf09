// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package v4l

import (
	"errors"
	"testing"

	"github.com/maruel/camstream/camera"
)

func TestFourccFor(t *testing.T) {
	data := []struct {
		f    camera.PixelFormat
		want string
	}{
		{camera.JPEG, "MJPG"},
		{camera.YUV422, "YUYV"},
	}
	for i, line := range data {
		got, err := fourccFor(line.f)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if s := fourccString(got); s != line.want {
			t.Fatalf("#%d: %q != %q", i, s, line.want)
		}
	}
	// V4L2 defines MJPG as 0x47504a4d.
	if fourccMJPG != 0x47504a4d {
		t.Fatalf("%#x", fourccMJPG)
	}
	for _, f := range []camera.PixelFormat{camera.Grayscale, camera.RGB565, camera.RGB888} {
		if _, err := fourccFor(f); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("%s: %v", f, err)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}
	c.defaults()
	if c.Device != "/dev/video0" || c.Width != 640 || c.Height != 480 || c.Buffers != 4 {
		t.Fatalf("%+v", c)
	}
	c = Config{Device: "/dev/video2", Width: 320, Height: 240, Buffers: 2}
	c.defaults()
	if c.Device != "/dev/video2" || c.Width != 320 || c.Height != 240 || c.Buffers != 2 {
		t.Fatalf("%+v", c)
	}
}
