// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermistor

import (
	"math"
	"time"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/conn/analog"
)

// FakeADC is a 12 bits ADC slowly oscillating around mid scale, which is
// room temperature for the default Sensor.
type FakeADC struct {
	VRef  physic.ElectricPotential
	start time.Time
}

// NewFakeADC returns a FakeADC with a 3.3V reference.
func NewFakeADC() *FakeADC {
	return &FakeADC{VRef: 3300 * physic.MilliVolt, start: time.Now()}
}

// Read implements Reader.
func (f *FakeADC) Read() (analog.Sample, error) {
	const fullScale = 4095
	phase := time.Since(f.start).Seconds() * 2 * math.Pi / 60
	raw := int32(fullScale/2 + fullScale/16*math.Sin(phase))
	v := physic.ElectricPotential(float64(raw) / fullScale * float64(f.VRef))
	return analog.Sample{V: v, Raw: raw}, nil
}
