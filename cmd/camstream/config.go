// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the server configuration.
//
// Precedence is: defaults, then the JSON file, then CAMSTREAM_* environment
// variables, then command line flags.
type Config struct {
	Port       int    // Base port; index, stream and temperature listen on Port+1, +2, +3.
	Fake       bool   // Use a simulated camera and ADC.
	Device     string // V4L2 device.
	Format     string // Capture format: jpeg or yuv422; fake also supports gray, rgb565, rgb888.
	Width      int
	Height     int
	FPS        int // Only used by the fake camera.
	Quality    int // JPEG quality for frames that are not captured as JPEG.
	Window     int // Frame time smoothing window.
	PerConn    bool
	I2C        string // I²C bus of the ADS1115 ADC.
	ADCChannel int
	Rotate     bool // Rotate the picture by 180° on the index page.
}

func defaultConfig() Config {
	return Config{
		Port:    8080,
		Device:  "/dev/video0",
		Format:  "jpeg",
		Width:   640,
		Height:  480,
		FPS:     25,
		Quality: 80,
		Window:  20,
		Rotate:  true,
	}
}

// configPath returns ~/.config/camstream/camstream.json unless overridden by
// CAMSTREAM_CONFIG.
func configPath() (string, error) {
	if p := os.Getenv("CAMSTREAM_CONFIG"); p != "" {
		return p, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, ".config", "camstream", "camstream.json"), nil
}

// loadConfig overlays the file at path on c, then rewrites the file in its
// normalized form if it differs, so new fields show up with their defaults.
func loadConfig(path string, c *Config) error {
	src, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(src) != 0 {
		if err := json.Unmarshal(src, c); err != nil {
			return fmt.Errorf("%s is invalid json: %w", path, err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if bytes.Equal(src, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyEnv overlays CAMSTREAM_<FIELD> variables on c.
func (c *Config) applyEnv(getenv func(string) string) error {
	for _, v := range c.vars() {
		s := getenv("CAMSTREAM_" + strings.ToUpper(v.name))
		if s == "" {
			continue
		}
		if err := v.set(s); err != nil {
			return fmt.Errorf("CAMSTREAM_%s: %w", strings.ToUpper(v.name), err)
		}
	}
	return nil
}

// registerFlags adds one flag per field, defaulting to the current value.
func (c *Config) registerFlags(f *flag.FlagSet) {
	f.IntVar(&c.Port, "port", c.Port, "base port; listens on port+1 (index), port+2 (stream), port+3 (temperature)")
	f.BoolVar(&c.Fake, "fake", c.Fake, "use a simulated camera and thermistor")
	f.StringVar(&c.Device, "device", c.Device, "V4L2 device")
	f.StringVar(&c.Format, "format", c.Format, "capture format: jpeg, yuv422 (fake: gray, rgb565, rgb888)")
	f.IntVar(&c.Width, "width", c.Width, "capture width")
	f.IntVar(&c.Height, "height", c.Height, "capture height")
	f.IntVar(&c.FPS, "fps", c.FPS, "frame rate of the fake camera")
	f.IntVar(&c.Quality, "quality", c.Quality, "JPEG quality for raw frames")
	f.IntVar(&c.Window, "window", c.Window, "frame time smoothing window")
	f.BoolVar(&c.PerConn, "perconn", c.PerConn, "smooth the frame time per connection instead of process wide")
	f.StringVar(&c.I2C, "i2c", c.I2C, "I²C bus of the ADS1115")
	f.IntVar(&c.ADCChannel, "adc-channel", c.ADCChannel, "ADS1115 channel the thermistor divider is wired to")
	f.BoolVar(&c.Rotate, "rotate", c.Rotate, "rotate the picture by 180° on the index page")
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65532 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("invalid quality %d", c.Quality)
	}
	if c.ADCChannel < 0 || c.ADCChannel > 3 {
		return fmt.Errorf("invalid ADC channel %d", c.ADCChannel)
	}
	return nil
}

type configVar struct {
	name string
	set  func(s string) error
}

func (c *Config) vars() []configVar {
	return []configVar{
		intVar("port", &c.Port),
		boolVar("fake", &c.Fake),
		stringVar("device", &c.Device),
		stringVar("format", &c.Format),
		intVar("width", &c.Width),
		intVar("height", &c.Height),
		intVar("fps", &c.FPS),
		intVar("quality", &c.Quality),
		intVar("window", &c.Window),
		boolVar("perconn", &c.PerConn),
		stringVar("i2c", &c.I2C),
		intVar("adc_channel", &c.ADCChannel),
		boolVar("rotate", &c.Rotate),
	}
}

func intVar(name string, p *int) configVar {
	return configVar{name, func(s string) error {
		i, err := strconv.Atoi(s)
		if err == nil {
			*p = i
		}
		return err
	}}
}

func boolVar(name string, p *bool) configVar {
	return configVar{name, func(s string) error {
		b, err := strconv.ParseBool(s)
		if err == nil {
			*p = b
		}
		return err
	}}
}

func stringVar(name string, p *string) configVar {
	return configVar{name, func(s string) error {
		*p = s
		return nil
	}}
}
