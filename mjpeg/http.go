// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mjpeg

import (
	"errors"
	"net/http"
)

var errCommitted = errors.New("mjpeg: response already committed")

// ServeHTTP streams to a GET request until the client disconnects.
func (p *Pump) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	// Errors are logged by Serve.
	_ = p.Serve(r.Context(), NewResponseWriter(w))
}

// NewResponseWriter adapts an http.ResponseWriter. Each chunk is flushed to
// the client as soon as it is written.
//
// w must support flushing, directly or through an Unwrap method.
func NewResponseWriter(w http.ResponseWriter) ResponseWriter {
	return &httpResponse{w: w, rc: http.NewResponseController(w)}
}

type httpResponse struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	committed bool
}

func (h *httpResponse) SetContentType(ct string) error {
	if h.committed {
		return errCommitted
	}
	h.w.Header().Set("Content-Type", ct)
	return nil
}

func (h *httpResponse) SetHeader(key, value string) {
	h.w.Header().Set(key, value)
}

func (h *httpResponse) WriteChunk(p []byte) error {
	h.committed = true
	if len(p) != 0 {
		if _, err := h.w.Write(p); err != nil {
			return err
		}
	}
	return h.rc.Flush()
}
