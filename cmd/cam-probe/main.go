// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// cam-probe connects to an MJPEG stream and prints each frame's size and
// dimensions.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/maruel/interrupt"
	"github.com/mattn/go-mjpeg"
)

// frameDecoder is implemented by *mjpeg.Decoder.
type frameDecoder interface {
	DecodeRaw() ([]byte, error)
}

func probe(dec frameDecoder, n int, w io.Writer) error {
	start := time.Now()
	last := start
	for i := 0; (n <= 0 || i < n) && !interrupt.IsSet(); i++ {
		b, err := dec.DecodeRaw()
		if err != nil {
			return err
		}
		now := time.Now()
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(b))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		fmt.Fprintf(w, "%5d %7db %4dx%-4d %6s\n", i, len(b), cfg.Width, cfg.Height, now.Sub(last).Round(time.Millisecond))
		last = now
	}
	return nil
}

func mainImpl() error {
	url := flag.String("url", "http://localhost:8082/stream", "stream URL")
	n := flag.Int("n", 0, "number of frames to read; 0 means until Ctrl-C")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	interrupt.HandleCtrlC()
	resp, err := http.Get(*url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	dec, err := mjpeg.NewDecoderFromResponse(resp)
	if err != nil {
		return err
	}
	return probe(dec, *n, os.Stdout)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ncam-probe: %s.\n", err)
		os.Exit(1)
	}
}
