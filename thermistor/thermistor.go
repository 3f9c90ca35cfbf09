// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermistor reads an NTC thermistor wired as the high side of a
// voltage divider, the ADC measuring across the fixed resistor, and converts
// it with the Beta equation.
package thermistor

import (
	"errors"
	"fmt"
	"math"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/conn/analog"
)

// ErrOutOfRange is returned when the measured voltage is at or beyond the
// rails, which means the thermistor is shorted or disconnected.
var ErrOutOfRange = errors.New("thermistor: voltage out of range")

// Reader reads an ADC channel. analog.PinADC implements it.
type Reader interface {
	Read() (analog.Sample, error)
}

// Sensor converts ADC readings to temperatures.
type Sensor struct {
	ADC     Reader
	VSupply physic.ElectricPotential // Divider supply, also the ADC reference.
	RFixed  float64                  // Fixed resistor, in Ω.
	R0      float64                  // Thermistor resistance at T0, in Ω.
	T0      physic.Temperature       //
	Beta    float64                  // Beta coefficient, in K.
}

// New returns a Sensor for a 100kΩ B3950 thermistor on a 3.3V divider with a
// 100kΩ fixed resistor.
func New(adc Reader) *Sensor {
	return &Sensor{
		ADC:     adc,
		VSupply: 3300 * physic.MilliVolt,
		RFixed:  100000,
		R0:      100000,
		T0:      physic.ZeroCelsius + 25*physic.Celsius,
		Beta:    3950,
	}
}

// Read samples the ADC once.
func (s *Sensor) Read() (physic.Temperature, error) {
	sample, err := s.ADC.Read()
	if err != nil {
		return 0, err
	}
	return s.Convert(sample.V)
}

// Convert returns the temperature for a divider output voltage v.
func (s *Sensor) Convert(v physic.ElectricPotential) (physic.Temperature, error) {
	if v <= 0 || v >= s.VSupply {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, v)
	}
	r := s.RFixed * (float64(s.VSupply)/float64(v) - 1)
	t0 := float64(s.T0) / float64(physic.Kelvin)
	k := 1 / (1/t0 + math.Log(r/s.R0)/s.Beta)
	return physic.Temperature(k * float64(physic.Kelvin)), nil
}

// Celsius returns t in °C.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}
