// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ravg implements a fixed window running average over integer
// samples.
//
// Each new sample costs O(1): the running sum is adjusted by the sample that
// falls out of the window instead of being recomputed.
package ravg

import (
	"errors"
	"sync"
)

// ErrAllocation is returned by New when no storage can be set up for the
// requested window.
var ErrAllocation = errors.New("ravg: cannot allocate sample window")

// Averager is implemented by Filter and Locked.
type Averager interface {
	// Run adds a sample and returns the smoothed value.
	Run(sample int) int
	// Average returns the current smoothed value without adding a sample.
	Average() int
}

// Filter is a running average over the last Cap() samples.
//
// The zero value is a filter that was never initialized: Run returns its
// input unmodified. Filter is not safe for concurrent use, see Locked.
type Filter struct {
	values []int // nil when never initialized.
	index  int   // next slot to overwrite.
	count  int   // number of valid samples, saturates at len(values).
	sum    int
}

// New returns a filter over a window of capacity samples.
//
// On failure the returned filter is still usable and passes samples through.
func New(capacity int) (*Filter, error) {
	f := &Filter{}
	if err := f.Init(capacity); err != nil {
		return f, err
	}
	return f, nil
}

// Init (re)allocates the window and resets the filter.
func (f *Filter) Init(capacity int) error {
	*f = Filter{}
	if capacity <= 0 {
		return ErrAllocation
	}
	f.values = make([]int, capacity)
	return nil
}

// Run adds sample to the window and returns the truncated integer average of
// the valid samples.
func (f *Filter) Run(sample int) int {
	if f.values == nil {
		return sample
	}
	f.sum -= f.values[f.index]
	f.values[f.index] = sample
	f.sum += sample
	f.index = (f.index + 1) % len(f.values)
	if f.count < len(f.values) {
		f.count++
	}
	return f.sum / f.count
}

// Average returns the truncated average of the valid samples, 0 if there is
// none.
func (f *Filter) Average() int {
	if f.count == 0 {
		return 0
	}
	return f.sum / f.count
}

// Len returns the number of valid samples.
func (f *Filter) Len() int {
	return f.count
}

// Cap returns the window size, 0 for a pass-through filter.
func (f *Filter) Cap() int {
	return len(f.values)
}

// Locked is a Filter guarded by a mutex, for a window shared by concurrent
// streams.
type Locked struct {
	mu sync.Mutex
	f  Filter
}

// NewLocked returns a mutex guarded filter over capacity samples.
func NewLocked(capacity int) (*Locked, error) {
	l := &Locked{}
	return l, l.f.Init(capacity)
}

// Run is Filter.Run under the lock.
func (l *Locked) Run(sample int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Run(sample)
}

// Average is Filter.Average under the lock.
func (l *Locked) Average() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Average()
}

// Len is Filter.Len under the lock.
func (l *Locked) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Len()
}

// Cap is Filter.Cap under the lock.
func (l *Locked) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Cap()
}
