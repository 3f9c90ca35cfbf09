// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"
)

func TestTimestamp_String(t *testing.T) {
	data := []struct {
		ts   Timestamp
		want string
	}{
		{Timestamp{0, 0}, "0.000000"},
		{Timestamp{1, 5}, "1.000005"},
		{Timestamp{12, 999999}, "12.999999"},
		{Timestamp{1700000000, 123456}, "1700000000.123456"},
		{Timestamp{3, 40}, "3.000040"},
	}
	for _, line := range data {
		if got := line.ts.String(); got != line.want {
			t.Fatalf("%#v: got %q; want %q", line.ts, got, line.want)
		}
	}
}

func TestTimestamp_padding(t *testing.T) {
	for usec := int64(0); usec < 1000000; usec += 997 {
		s := Timestamp{Sec: 7, Usec: usec}.String()
		if len(s) != len("7.")+6 {
			t.Fatalf("%d: %q", usec, s)
		}
	}
	if s := (Timestamp{Sec: 7, Usec: 999999}).String(); s != "7.999999" {
		t.Fatal(s)
	}
}

func TestTimestampFromDuration(t *testing.T) {
	d := 3*time.Second + 42*time.Microsecond + 999*time.Nanosecond
	ts := TimestampFromDuration(d)
	if ts != (Timestamp{3, 42}) {
		t.Fatalf("%#v", ts)
	}
	if ts.Duration() != 3*time.Second+42*time.Microsecond {
		t.Fatal(ts.Duration())
	}
}

func TestParsePixelFormat(t *testing.T) {
	for p := JPEG; p <= YUV422; p++ {
		got, err := ParsePixelFormat(p.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != p {
			t.Fatalf("%s != %s", got, p)
		}
	}
	aliases := []struct {
		s    string
		want PixelFormat
	}{
		{"jpeg", JPEG},
		{"MJPG", JPEG},
		{"gray", Grayscale},
		{"grayscale", Grayscale},
		{"rgb565", RGB565},
		{"rgb888", RGB888},
		{"yuv422", YUV422},
		{"yuyv", YUV422},
	}
	for i, line := range aliases {
		got, err := ParsePixelFormat(line.s)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if got != line.want {
			t.Fatalf("#%d: %s != %s", i, got, line.want)
		}
	}
	if _, err := ParsePixelFormat("BGR"); err == nil {
		t.Fatal("expected failure")
	}
	if s := PixelFormat(42).String(); s != "PixelFormat(42)" {
		t.Fatal(s)
	}
}

func TestFrame_Image(t *testing.T) {
	px := color.RGBA{R: 0xF8, G: 0xFC, B: 0x08, A: 0xFF}
	rgb565 := make([]byte, 4*2*2)
	for i := 0; i < len(rgb565); i += 2 {
		PutRGB565(rgb565[i:], px)
	}
	data := []struct {
		f    Frame
		want color.RGBA
	}{
		{Frame{Buf: bytes.Repeat([]byte{0x80}, 8), Width: 4, Height: 2, Format: Grayscale}, color.RGBA{0x80, 0x80, 0x80, 0xFF}},
		{Frame{Buf: bytes.Repeat([]byte{1, 2, 3}, 8), Width: 4, Height: 2, Format: RGB888}, color.RGBA{1, 2, 3, 0xFF}},
		{Frame{Buf: rgb565, Width: 4, Height: 2, Format: RGB565}, color.RGBA{0xFF, 0xFF, 0x08, 0xFF}},
		// Y=128, Cb=Cr=128 is mid gray.
		{Frame{Buf: bytes.Repeat([]byte{128, 128, 128, 128}, 4), Width: 4, Height: 2, Format: YUV422}, color.RGBA{128, 128, 128, 0xFF}},
	}
	for i, line := range data {
		img, err := line.f.Image()
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if b := img.Bounds(); b != image.Rect(0, 0, 4, 2) {
			t.Fatalf("#%d: %v", i, b)
		}
		got := color.RGBAModel.Convert(img.At(3, 1)).(color.RGBA)
		if got != line.want {
			t.Fatalf("#%d %s: got %v; want %v", i, line.f.Format, got, line.want)
		}
	}
}

func TestFrame_Image_fail(t *testing.T) {
	data := []Frame{
		{Buf: make([]byte, 7), Width: 4, Height: 2, Format: Grayscale},
		{Buf: make([]byte, 16), Width: 4, Height: 2, Format: RGB888},
		{Buf: make([]byte, 12), Width: 3, Height: 2, Format: YUV422},
		{Buf: nil, Width: 0, Height: 0, Format: RGB565},
		{Buf: make([]byte, 8), Width: 4, Height: 2, Format: PixelFormat(9)},
	}
	for i, f := range data {
		if _, err := f.Image(); !errors.Is(err, ErrFormat) {
			t.Fatalf("#%d: expected ErrFormat, got %v", i, err)
		}
	}
	f := Frame{Buf: []byte("not a jpeg"), Format: JPEG}
	if _, err := f.Image(); err == nil {
		t.Fatal("expected decode failure")
	}
}

func TestJPEGEncoder(t *testing.T) {
	pool := NewBufferPool(2)
	e := NewJPEGEncoder(pool)
	f := &Frame{Buf: bytes.Repeat([]byte{0x40}, 16*8), Width: 16, Height: 8, Format: Grayscale}
	b, err := e.EncodeJPEG(f, DefaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	if pool.Outstanding() != 1 {
		t.Fatal(pool.Outstanding())
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Fatalf("%dx%d", cfg.Width, cfg.Height)
	}
	b.Free()
	if pool.Outstanding() != 0 {
		t.Fatal(pool.Outstanding())
	}
	// The buffer is recycled.
	if b2 := pool.Get(); b2 != b || b2.Len() != 0 {
		t.Fatal("expected recycled empty buffer")
	}
}

func TestJPEGEncoder_fail(t *testing.T) {
	e := NewJPEGEncoder(nil)
	f := &Frame{Buf: make([]byte, 3), Width: 16, Height: 8, Format: RGB565}
	if _, err := e.EncodeJPEG(f, DefaultQuality); !errors.Is(err, ErrFormat) {
		t.Fatal(err)
	}
	if e.Pool().Outstanding() != 0 {
		t.Fatal("leaked buffer")
	}
}

func TestBuffer_doubleFree(t *testing.T) {
	b := NewBufferPool(1).Get()
	b.Free()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	b.Free()
}
