// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// Frame is one captured image.
type Frame struct {
	Buf       []byte      // Owned by the driver until released.
	Width     int         //
	Height    int         //
	Format    PixelFormat //
	Timestamp Timestamp   // Capture time.
}

// IsJPEG returns true if Buf can be sent as is.
func (f *Frame) IsJPEG() bool {
	return f.Format == JPEG
}

// Image returns a view of the frame usable by an image encoder.
//
// Grayscale and YUV422 frames are wrapped without copying, so the returned
// image is only valid until the frame is released.
func (f *Frame) Image() (image.Image, error) {
	w, h := f.Width, f.Height
	r := image.Rect(0, 0, w, h)
	switch f.Format {
	case JPEG:
		return jpeg.Decode(bytes.NewReader(f.Buf))
	case Grayscale:
		if err := f.checkSize(1); err != nil {
			return nil, err
		}
		return &image.Gray{Pix: f.Buf, Stride: w, Rect: r}, nil
	case RGB888:
		if err := f.checkSize(3); err != nil {
			return nil, err
		}
		dst := image.NewRGBA(r)
		for i, j := 0, 0; i < len(f.Buf); i, j = i+3, j+4 {
			dst.Pix[j] = f.Buf[i]
			dst.Pix[j+1] = f.Buf[i+1]
			dst.Pix[j+2] = f.Buf[i+2]
			dst.Pix[j+3] = 0xFF
		}
		return dst, nil
	case RGB565:
		if err := f.checkSize(2); err != nil {
			return nil, err
		}
		dst := image.NewRGBA(r)
		for i, j := 0, 0; i < len(f.Buf); i, j = i+2, j+4 {
			c := RGB565At(f.Buf[i:])
			dst.Pix[j] = c.R
			dst.Pix[j+1] = c.G
			dst.Pix[j+2] = c.B
			dst.Pix[j+3] = 0xFF
		}
		return dst, nil
	case YUV422:
		if w%2 != 0 {
			return nil, fmt.Errorf("%w: odd width %d for %s", ErrFormat, w, f.Format)
		}
		if err := f.checkSize(2); err != nil {
			return nil, err
		}
		dst := image.NewYCbCr(r, image.YCbCrSubsampleRatio422)
		for y := 0; y < h; y++ {
			src := f.Buf[y*w*2 : (y+1)*w*2]
			for x := 0; x < w; x += 2 {
				s := src[x*2 : x*2+4]
				dst.Y[y*dst.YStride+x] = s[0]
				dst.Y[y*dst.YStride+x+1] = s[2]
				dst.Cb[y*dst.CStride+x/2] = s[1]
				dst.Cr[y*dst.CStride+x/2] = s[3]
			}
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: unsupported %s", ErrFormat, f.Format)
	}
}

func (f *Frame) checkSize(bpp int) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFormat, f.Width, f.Height)
	}
	if want := f.Width * f.Height * bpp; len(f.Buf) != want {
		return fmt.Errorf("%w: %s %dx%d needs %d bytes, got %d", ErrFormat, f.Format, f.Width, f.Height, want, len(f.Buf))
	}
	return nil
}

// RGB565At decodes the big endian RGB565 pixel at the start of b.
func RGB565At(b []byte) color.RGBA {
	v := uint16(b[0])<<8 | uint16(b[1])
	r := uint8(v>>11) & 0x1F
	g := uint8(v>>5) & 0x3F
	bl := uint8(v) & 0x1F
	return color.RGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: bl<<3 | bl>>2, A: 0xFF}
}

// PutRGB565 encodes c as a big endian RGB565 pixel at the start of b.
func PutRGB565(b []byte, c color.RGBA) {
	v := uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
	b[0] = uint8(v >> 8)
	b[1] = uint8(v)
}
