// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"html/template"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/maruel/camstream/mjpeg"
	"github.com/maruel/camstream/thermistor"
	"github.com/maruel/serve-dir/loghttp"
	"golang.org/x/net/websocket"
)

// WebServer holds the handlers of the three listeners.
type WebServer struct {
	Port   int
	Rotate bool
	Pump   *mjpeg.Pump
	Feed   *thermistor.Feed
	Stats  *mjpeg.Stats
}

// Index serves the page and /stats.
func (s *WebServer) Index() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/stats", s.stats)
	return &loghttp.Handler{Handler: mux}
}

// Stream serves the MJPEG stream.
func (s *WebServer) Stream() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/stream", s.Pump)
	return loggingHandler{mux}
}

// Temperature serves the temperature feed as SSE and as a websocket.
func (s *WebServer) Temperature() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/temperature", s.Feed)
	mux.Handle("/temperature/ws", websocket.Handler(s.Feed.ServeWebSocket))
	return loggingHandler{mux}
}

var rootTmpl = template.Must(template.New("root").Parse(`<html>
<head>
	<title>camstream</title>
	<script>
	var temp = new EventSource("http://{{.Host}}:{{.TempPort}}/temperature");
	temp.onmessage = function(event) {
		try {
			var data = JSON.parse(event.data);
			document.getElementById("temp").innerText = "Temperature: " + data.temperature + " °C";
		} catch (e) {
			console.error("bad temperature data:", e);
		}
	};
	temp.onerror = function(err) {
		console.error("temperature feed failed:", err);
		temp.close();
	};
	</script>
</head>
<body>
	<h1>Camera Stream</h1>
	<img src="http://{{.Host}}:{{.StreamPort}}/stream" style="{{if .Rotate}}transform:rotate(180deg); {{end}}width:100%; max-width:800px;">
	<h2>Temperature Reading</h2>
	<div id="temp">Loading temperature...</div>
</body>
</html>
`))

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}
	w.Header().Set("Content-Type", "text/html")
	data := struct {
		Host       string
		StreamPort int
		TempPort   int
		Rotate     bool
	}{host, s.Port + 2, s.Port + 3, s.Rotate}
	if err := rootTmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// statsResponse is the /stats payload.
type statsResponse struct {
	Stream       mjpeg.Snapshot `json:"stream"`
	TemperatureC *float64       `json:"temperature_c,omitempty"`
}

func (s *WebServer) stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Stream: s.Stats.Snapshot()}
	if t, ok := s.Feed.Last(); ok {
		c := thermistor.Celsius(t)
		resp.TemperatureC = &c
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		log.Printf("stats: %v", err)
	}
}

// Private details.

type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (size int, err error) {
	if l.status == 0 {
		l.status = http.StatusOK
	}
	size, err = l.ResponseWriter.Write(data)
	l.length += size
	return
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// FlushError is needed for the streams to notice a closed connection.
func (l *loggingResponseWriter) FlushError() error {
	return http.NewResponseController(l.ResponseWriter).Flush()
}

func (l *loggingResponseWriter) Flush() {
	_ = l.FlushError()
}

// Hijack is needed for websocket.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(l.ResponseWriter).Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (l *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return l.ResponseWriter
}

// ServeHTTP logs each HTTP request if -v is passed.
func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w}
	start := time.Now()
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s (%s)\n", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI, time.Since(start).Round(time.Millisecond))
}
