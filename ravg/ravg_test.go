// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ravg

import (
	"math/rand"
	"sync"
	"testing"
)

func TestRun(t *testing.T) {
	f, err := New(5)
	if err != nil {
		t.Fatal(err)
	}
	data := []struct {
		in   int
		want int
	}{
		{33, 33},
		{34, 33},
		{32, 33},
		{33, 33},
		{34, 33},
	}
	for i, line := range data {
		if got := f.Run(line.in); got != line.want {
			t.Fatalf("#%d: Run(%d) = %d; want %d", i, line.in, got, line.want)
		}
	}
	if f.Len() != 5 || f.Cap() != 5 {
		t.Fatalf("Len() = %d, Cap() = %d", f.Len(), f.Cap())
	}
}

func TestRun_truncate(t *testing.T) {
	f, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Run(1); got != 1 {
		t.Fatal(got)
	}
	// (1+2)/2 = 1.5
	if got := f.Run(2); got != 1 {
		t.Fatal(got)
	}
	// (1+2+2)/3 = 1.66
	if got := f.Run(2); got != 1 {
		t.Fatal(got)
	}
	// Window is now {2,2,10}.
	if got := f.Run(10); got != 4 {
		t.Fatal(got)
	}
	if got := f.Average(); got != 4 {
		t.Fatal(got)
	}
}

func TestRun_window(t *testing.T) {
	const capacity = 20
	f, err := New(capacity)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(0))
	var samples []int
	for i := 0; i < 500; i++ {
		v := r.Intn(1000)
		samples = append(samples, v)
		got := f.Run(v)
		start := len(samples) - capacity
		if start < 0 {
			start = 0
		}
		sum := 0
		for _, s := range samples[start:] {
			sum += s
		}
		if want := sum / len(samples[start:]); got != want {
			t.Fatalf("#%d: got %d; want %d", i, got, want)
		}
		if f.sum != sum {
			t.Fatalf("#%d: sum %d; want %d", i, f.sum, sum)
		}
	}
	if f.Len() != capacity {
		t.Fatal(f.Len())
	}
}

func TestPassThrough(t *testing.T) {
	f, err := New(0)
	if err != ErrAllocation {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	var zero Filter
	for _, v := range []int{0, 1, -7, 1 << 40, 33} {
		if got := f.Run(v); got != v {
			t.Fatalf("Run(%d) = %d", v, got)
		}
		if got := zero.Run(v); got != v {
			t.Fatalf("zero.Run(%d) = %d", v, got)
		}
	}
	if f.Average() != 0 || f.Cap() != 0 || f.Len() != 0 {
		t.Fatal("pass-through filter must stay empty")
	}
	if _, err := New(-1); err == nil {
		t.Fatal("negative capacity")
	}
}

func TestLocked(t *testing.T) {
	l, err := NewLocked(4)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Run(10)
			}
		}()
	}
	wg.Wait()
	if got := l.Average(); got != 10 {
		t.Fatal(got)
	}
	if l.Len() != 4 || l.Cap() != 4 {
		t.Fatalf("Len() = %d, Cap() = %d", l.Len(), l.Cap())
	}
}
