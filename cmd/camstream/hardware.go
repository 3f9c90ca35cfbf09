// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/maruel/camstream/camera"
	"github.com/maruel/camstream/camera/v4l"
	"github.com/maruel/camstream/cameratest"
	"github.com/maruel/camstream/thermistor"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/devices/ads1x15"
	"periph.io/x/periph/host"
)

type closingCamera interface {
	camera.Camera
	io.Closer
}

func openCamera(c *Config) (closingCamera, error) {
	format, err := camera.ParsePixelFormat(c.Format)
	if err != nil {
		return nil, err
	}
	if c.Fake {
		return cameratest.New(format, c.Width, c.Height, c.FPS), nil
	}
	cam, err := v4l.Open(v4l.Config{Device: c.Device, Format: format, Width: c.Width, Height: c.Height})
	if err != nil {
		return nil, fmt.Errorf("%w\nIf testing without hardware, use -fake to simulate a camera", err)
	}
	return cam, nil
}

type haltFunc func() error

// openADC returns the ADC the thermistor divider is wired to.
func openADC(c *Config) (thermistor.Reader, haltFunc, error) {
	if c.Fake {
		return thermistor.NewFakeADC(), func() error { return nil }, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	bus, err := i2creg.Open(c.I2C)
	if err != nil {
		return nil, nil, err
	}
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	channels := []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}
	pin, err := adc.PinForChannel(channels[c.ADCChannel], 4096*physic.MilliVolt, 16*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	return pin, func() error {
		err := pin.Halt()
		if err2 := bus.Close(); err == nil {
			err = err2
		}
		return err
	}, nil
}
