// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// camstream serves a camera as an MJPEG stream along with a thermistor
// temperature feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/maruel/camstream/camera"
	"github.com/maruel/camstream/mjpeg"
	"github.com/maruel/camstream/ravg"
	"github.com/maruel/camstream/thermistor"
	"github.com/maruel/interrupt"
)

var errExecutableChanged = errors.New("executable changed, restarting")

func newPump(c *Config, cam camera.Camera, enc camera.Encoder) *mjpeg.Pump {
	var p *mjpeg.Pump
	if c.PerConn {
		p = mjpeg.NewPerConnPump(cam, enc, c.Window)
	} else {
		f, err := ravg.NewLocked(c.Window)
		if err != nil {
			log.Printf("%v; frame time is not smoothed", err)
		}
		p = mjpeg.NewSharedPump(cam, enc, f)
	}
	p.Quality = c.Quality
	return p
}

// newWebServer wires the handlers. Temperature feeds end on Ctrl-C.
func newWebServer(c *Config, cam camera.Camera, adc thermistor.Reader, stats *mjpeg.Stats) *WebServer {
	pump := newPump(c, cam, camera.NewJPEGEncoder(camera.NewBufferPool(8)))
	pump.Stats = stats
	return &WebServer{
		Port:   c.Port,
		Rotate: c.Rotate,
		Pump:   pump,
		Feed:   &thermistor.Feed{Sensor: thermistor.New(adc), Done: interrupt.Channel},
		Stats:  stats,
	}
}

func mainImpl() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg := defaultConfig()
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := loadConfig(path, &cfg); err != nil {
		return err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return err
	}
	cfg.registerFlags(flag.CommandLine)
	watch := flag.Bool("watch", false, "exit when the executable is updated")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	interrupt.HandleCtrlC()

	cam, err := openCamera(&cfg)
	if err != nil {
		return err
	}
	defer cam.Close()
	adc, halt, err := openADC(&cfg)
	if err != nil {
		return err
	}
	defer halt()

	stats, err := mjpeg.NewStats()
	if err != nil {
		return err
	}
	defer stats.Close()
	s := newWebServer(&cfg, cam, adc, stats)

	// Canceling ctx ends the streams so Shutdown doesn't wait on them.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 4)
	var servers []*http.Server
	for i, h := range []http.Handler{s.Index(), s.Stream(), s.Temperature()} {
		srv := &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.Port+i+1),
			Handler:     h,
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		servers = append(servers, srv)
		fmt.Printf("Listening on %d\n", cfg.Port+i+1)
		go func() {
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				errc <- err
			}
		}()
	}
	if *watch {
		go func() {
			if err := watchExecutable(interrupt.Channel); err != nil {
				errc <- err
			}
		}()
	}

	t := time.NewTicker(time.Second)
	defer t.Stop()
loop:
	for !interrupt.IsSet() {
		select {
		case err = <-errc:
			break loop
		case <-interrupt.Channel:
		case <-t.C:
			st := stats.Snapshot()
			fmt.Printf("\r%d streams %d frames %5.1fkB/s %3dms %d capture %d encode %d transport", st.Sessions, st.Frames, st.BytesPerSecond/1024, st.FrameTimeMS, st.CaptureFailures, st.EncodeFailures, st.TransportFailures)
		}
	}
	fmt.Print("\n")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	for _, srv := range servers {
		if err2 := srv.Shutdown(shutdownCtx); err == nil {
			err = err2
		}
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ncamstream: %s.\n", err)
		os.Exit(1)
	}
}
