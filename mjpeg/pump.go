// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mjpeg streams camera frames as a multipart/x-mixed-replace HTTP
// response.
//
// Each connection runs its own Pump.Serve loop: acquire a frame, make sure it
// is JPEG, write the boundary, the part header and the payload as separate
// chunks, hand the buffer back, then measure the frame time. The first
// failure of any kind ends the connection; a chunked multipart response
// cannot be resumed mid-part.
package mjpeg

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/camstream/camera"
	"github.com/maruel/camstream/ravg"
)

// Boundary separates the parts of the stream.
const Boundary = "123456789000000000000987654321"

// ContentType is the response content type.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// Framerate is advertised in the X-Framerate response header.
const Framerate = "60"

const partHeader = "Content-Type: image/jpeg\r\nContent-Length: %d\r\nX-Timestamp: %s\r\n\r\n"

var boundaryChunk = []byte("\r\n--" + Boundary + "\r\n")

// Failure classes. Serve wraps the underlying cause with one of these; use
// errors.Is to tell them apart.
var (
	ErrCapture   = errors.New("camera capture failed")
	ErrEncode    = errors.New("JPEG compression failed")
	ErrTransport = errors.New("stream sending failed")
)

var errNoFrame = errors.New("no frame")

// ResponseWriter is the transport of one stream connection.
type ResponseWriter interface {
	// SetContentType sets the response content type. It fails if the
	// response was already committed.
	SetContentType(ct string) error
	// SetHeader sets a response header.
	SetHeader(key, value string)
	// WriteChunk sends p as one chunk. A zero length chunk ends the response.
	// It fails once the client is gone.
	WriteChunk(p []byte) error
}

// Clock returns a monotonic time.
type Clock interface {
	Now() time.Duration
}

type monotonic struct {
	start time.Time
}

func (m monotonic) Now() time.Duration {
	return time.Since(m.start)
}

// Pump streams frames from a camera.
type Pump struct {
	// Quality is the JPEG quality used for frames that are not already JPEG.
	Quality int
	// Clock measures the frame time. Defaults to the process monotonic clock.
	Clock Clock
	// Stats, if set, is updated for every frame and failure.
	Stats *Stats

	cam       camera.Camera
	enc       camera.Encoder
	newFilter func() ravg.Averager
}

// NewSharedPump returns a pump where every connection feeds the same frame
// time filter.
//
// This is how a single-stream device behaves. With concurrent connections f
// is accessed concurrently: pass a *ravg.Locked to guard it, or a
// *ravg.Filter to accept the race.
func NewSharedPump(cam camera.Camera, enc camera.Encoder, f ravg.Averager) *Pump {
	return newPump(cam, enc, func() ravg.Averager { return f })
}

// NewPerConnPump returns a pump where each connection smooths its own frame
// time over window samples.
func NewPerConnPump(cam camera.Camera, enc camera.Encoder, window int) *Pump {
	return newPump(cam, enc, func() ravg.Averager {
		f, err := ravg.New(window)
		if err != nil {
			log.Printf("mjpeg: %v; frame time is not smoothed", err)
		}
		return f
	})
}

func newPump(cam camera.Camera, enc camera.Encoder, newFilter func() ravg.Averager) *Pump {
	return &Pump{
		Quality:   camera.DefaultQuality,
		Clock:     monotonic{start: time.Now()},
		cam:       cam,
		enc:       enc,
		newFilter: newFilter,
	}
}

// Serve streams frames to w until a capture, encode or send failure, which
// is returned.
//
// A failure to set the content type is returned as is, before any frame is
// acquired.
func (p *Pump) Serve(ctx context.Context, w ResponseWriter) error {
	if err := w.SetContentType(ContentType); err != nil {
		return err
	}
	w.SetHeader("Access-Control-Allow-Origin", "*")
	w.SetHeader("X-Framerate", Framerate)

	id := uuid.NewString()
	filter := p.newFilter()
	p.Stats.open(id)
	defer p.Stats.close(id)
	log.Printf("stream %s: start", id)

	var hdr []byte
	var last time.Duration
	hasLast := false
	for {
		n, err := p.sendFrame(ctx, w, &hdr)
		if err != nil {
			p.Stats.fail(err)
			log.Printf("stream %s: %v, exiting stream handler", id, err)
			return err
		}
		now := p.Clock.Now()
		if !hasLast {
			last = now
			hasLast = true
		}
		frameTime := int((now - last) / time.Millisecond)
		last = now
		p.Stats.frame(id, n, filter.Run(frameTime))
	}
}

// sendFrame sends one frame and returns the payload size.
//
// Exactly one of the borrowed frame or the owned JPEG buffer is released,
// whatever step fails.
func (p *Pump) sendFrame(ctx context.Context, w ResponseWriter, hdr *[]byte) (int, error) {
	f, err := p.cam.Acquire(ctx)
	if err == nil && f == nil {
		err = errNoFrame
	}
	if err != nil {
		if ctx.Err() != nil {
			// The client left while waiting for the camera.
			return 0, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	ts := f.Timestamp
	var pl payload
	if f.IsJPEG() {
		pl = borrowed{f: f, cam: p.cam}
	} else {
		b, err := p.enc.EncodeJPEG(f, p.Quality)
		p.cam.Release(f)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		pl = owned{b: b}
	}
	defer pl.release()

	data := pl.bytes()
	if err := w.WriteChunk(boundaryChunk); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	*hdr = fmt.Appendf((*hdr)[:0], partHeader, len(data), ts)
	if err := w.WriteChunk(*hdr); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if err := w.WriteChunk(data); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return len(data), nil
}

// payload is the JPEG being sent, either borrowed from the camera or owned
// by the pump.
type payload interface {
	bytes() []byte
	release()
}

type borrowed struct {
	f   *camera.Frame
	cam camera.Camera
}

func (b borrowed) bytes() []byte {
	return b.f.Buf
}

func (b borrowed) release() {
	b.cam.Release(b.f)
}

type owned struct {
	b *camera.Buffer
}

func (o owned) bytes() []byte {
	return o.b.Bytes()
}

func (o owned) release() {
	o.b.Free()
}
