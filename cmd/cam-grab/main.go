// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// cam-grab captures a single image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/maruel/camstream/camera"
	"github.com/maruel/camstream/camera/v4l"
	"github.com/maruel/camstream/cameratest"
)

type closingCamera interface {
	camera.Camera
	io.Closer
}

func grab(ctx context.Context, cam camera.Camera, quality int, w io.Writer) error {
	f, err := cam.Acquire(ctx)
	if err != nil {
		return err
	}
	defer cam.Release(f)
	log.Printf("frame %s %dx%d at %s", f.Format, f.Width, f.Height, f.Timestamp)
	if f.IsJPEG() {
		_, err = w.Write(f.Buf)
		return err
	}
	b, err := camera.NewJPEGEncoder(nil).EncodeJPEG(f, quality)
	if err != nil {
		return err
	}
	defer b.Free()
	_, err = w.Write(b.Bytes())
	return err
}

func openCamera(fake bool, device, format string, width, height int) (closingCamera, error) {
	pf, err := camera.ParsePixelFormat(format)
	if err != nil {
		return nil, err
	}
	if fake {
		return cameratest.New(pf, width, height, 0), nil
	}
	c, err := v4l.Open(v4l.Config{Device: device, Format: pf, Width: width, Height: height, Buffers: 2})
	if err != nil {
		return nil, fmt.Errorf("%s\nIf testing without hardware, use -fake to simulate a camera", err)
	}
	return c, nil
}

func mainImpl() error {
	fake := flag.Bool("fake", false, "use a simulated camera")
	device := flag.String("device", "/dev/video0", "V4L2 device")
	format := flag.String("format", "jpeg", "capture format: jpeg, yuv422 (fake: gray, rgb565, rgb888)")
	width := flag.Int("width", 640, "capture width")
	height := flag.Int("height", 480, "capture height")
	quality := flag.Int("quality", camera.DefaultQuality, "JPEG quality for raw frames")
	timeout := flag.Duration("timeout", 10*time.Second, "maximum time to wait for a frame")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if flag.NArg() != 1 {
		return errors.New("supply path to JPEG to save")
	}
	cam, err := openCamera(*fake, *device, *format, *width, *height)
	if err != nil {
		return err
	}
	defer cam.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	f, err := os.Create(flag.Arg(0))
	if err != nil {
		return err
	}
	if err := grab(ctx, cam, *quality, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ncam-grab: %s.\n", err)
		os.Exit(1)
	}
}
