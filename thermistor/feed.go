// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermistor

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
	"periph.io/x/periph/conn/physic"
)

// TempReader is implemented by Sensor.
type TempReader interface {
	Read() (physic.Temperature, error)
}

// Reading is the JSON message sent over the websocket feed.
type Reading struct {
	Temperature float64 `json:"temperature"`
}

// Feed streams temperature readings to HTTP clients, either as Server-Sent
// Events or as websocket messages.
type Feed struct {
	Sensor TempReader
	Period time.Duration // Defaults to 100ms.
	Done   <-chan bool   // Optional, e.g. interrupt.Channel; closing it ends every stream.

	mu    sync.Mutex
	last  physic.Temperature
	valid bool
}

// Last returns the most recent successful reading.
func (f *Feed) Last() (physic.Temperature, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.valid
}

// ServeHTTP sends one `data: {"temperature": 23.45}` event per period until
// the client goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	rc := http.NewResponseController(w)
	err := f.loop(r.Context().Done(), func(c float64) error {
		if _, err := fmt.Fprintf(w, "data: {\"temperature\": %.2f}\n\n", c); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil {
		log.Printf("thermistor: sse %s: %v", r.RemoteAddr, err)
	}
	// Empty final flush terminates the chunked body.
	_ = rc.Flush()
}

// ServeWebSocket sends the readings as JSON websocket messages. Use it with
// websocket.Handler.
func (f *Feed) ServeWebSocket(ws *websocket.Conn) {
	defer ws.Close()
	err := f.loop(ws.Request().Context().Done(), func(c float64) error {
		return websocket.JSON.Send(ws, Reading{Temperature: c})
	})
	if err != nil {
		log.Printf("thermistor: websocket %s: %v", ws.Request().RemoteAddr, err)
	}
}

func (f *Feed) loop(gone <-chan struct{}, send func(c float64) error) error {
	period := f.Period
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		if temp, err := f.Sensor.Read(); err != nil {
			log.Printf("thermistor: %v", err)
		} else {
			f.mu.Lock()
			f.last = temp
			f.valid = true
			f.mu.Unlock()
			if err := send(round2(Celsius(temp))); err != nil {
				return err
			}
		}
		select {
		case <-gone:
			return nil
		case <-f.Done:
			return nil
		case <-t.C:
		}
	}
}

func round2(c float64) float64 {
	return math.Round(c*100) / 100
}
