// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mjpeg

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prep/average"
)

const rateWindow = 10 * time.Second

// Stats accumulates counters over all the connections of a Pump.
//
// All methods are safe to call on a nil *Stats. The zero value works but
// doesn't track BytesPerSecond.
type Stats struct {
	mu     sync.Mutex
	s      Snapshot
	active map[string]*Session
	rate   *average.SlidingWindow
}

// Session describes one streaming connection.
type Session struct {
	ID     string    // Random UUID, also used in the logs.
	Start  time.Time //
	Frames int64     //
	Bytes  int64     //
}

// Snapshot is a copy of the counters.
type Snapshot struct {
	Sessions          int       // Currently streaming connections.
	Frames            int64     //
	Bytes             int64     // JPEG payload bytes sent.
	BytesPerSecond    float64   // Over the last 10 seconds.
	FrameTimeMS       int       // Last smoothed frame time.
	CaptureFailures   int       //
	EncodeFailures    int       //
	TransportFailures int       //
	Active            []Session // Streaming connections, oldest first.
}

// NewStats returns an empty Stats. Call Close to stop its background timer.
func NewStats() (*Stats, error) {
	rate, err := average.New(rateWindow, time.Second)
	if err != nil {
		return nil, err
	}
	return &Stats{rate: rate}, nil
}

// Close stops the sliding window.
func (s *Stats) Close() error {
	if s != nil && s.rate != nil {
		s.rate.Stop()
	}
	return nil
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	var total int64
	if s.rate != nil {
		total, _ = s.rate.Total(rateWindow)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.s
	out.BytesPerSecond = float64(total) / rateWindow.Seconds()
	out.Active = make([]Session, 0, len(s.active))
	for _, a := range s.active {
		out.Active = append(out.Active, *a)
	}
	sort.Slice(out.Active, func(i, j int) bool {
		if !out.Active[i].Start.Equal(out.Active[j].Start) {
			return out.Active[i].Start.Before(out.Active[j].Start)
		}
		return out.Active[i].ID < out.Active[j].ID
	})
	return out
}

func (s *Stats) open(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = map[string]*Session{}
	}
	s.active[id] = &Session{ID: id, Start: time.Now()}
	s.s.Sessions++
}

func (s *Stats) close(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	s.s.Sessions--
}

func (s *Stats) frame(id string, size, frameTimeMS int) {
	if s == nil {
		return
	}
	if s.rate != nil {
		s.rate.Add(int64(size))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Frames++
	s.s.Bytes += int64(size)
	s.s.FrameTimeMS = frameTimeMS
	if a := s.active[id]; a != nil {
		a.Frames++
		a.Bytes += int64(size)
	}
}

func (s *Stats) fail(err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, ErrCapture):
		s.s.CaptureFailures++
	case errors.Is(err, ErrEncode):
		s.s.EncodeFailures++
	default:
		s.s.TransportFailures++
	}
}
