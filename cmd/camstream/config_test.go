// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_create(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "camstream.json")
	c := defaultConfig()
	if err := loadConfig(path, &c); err != nil {
		t.Fatal(err)
	}
	if c != defaultConfig() {
		t.Fatalf("%+v", c)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Port": 8080`) || !strings.HasSuffix(string(data), "}\n") {
		t.Fatalf("%s", data)
	}
}

func TestLoadConfig_normalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camstream.json")
	if err := os.WriteFile(path, []byte(`{"Port":9000,"Fake":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	c := defaultConfig()
	if err := loadConfig(path, &c); err != nil {
		t.Fatal(err)
	}
	want := defaultConfig()
	want.Port = 9000
	want.Fake = true
	if c != want {
		t.Fatalf("%+v", c)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Window": 20`) {
		t.Fatalf("not normalized: %s", data)
	}
	// A normalized file is left alone.
	fi0, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	c = defaultConfig()
	if err := loadConfig(path, &c); err != nil {
		t.Fatal(err)
	}
	if c != want {
		t.Fatalf("%+v", c)
	}
	fi1, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !fi0.ModTime().Equal(fi1.ModTime()) {
		t.Fatal("rewritten")
	}
}

func TestLoadConfig_invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camstream.json")
	if err := os.WriteFile(path, []byte(`{"Port":`), 0o600); err != nil {
		t.Fatal(err)
	}
	c := defaultConfig()
	if err := loadConfig(path, &c); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CAMSTREAM_PORT":        "80",
		"CAMSTREAM_FAKE":        "true",
		"CAMSTREAM_FORMAT":      "yuv422",
		"CAMSTREAM_ADC_CHANNEL": "2",
	}
	c := defaultConfig()
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	want := defaultConfig()
	want.Port = 80
	want.Fake = true
	want.Format = "yuv422"
	want.ADCChannel = 2
	if c != want {
		t.Fatalf("%+v", c)
	}

	env = map[string]string{"CAMSTREAM_WIDTH": "wide"}
	if err := c.applyEnv(func(k string) string { return env[k] }); err == nil || !strings.Contains(err.Error(), "CAMSTREAM_WIDTH") {
		t.Fatal(err)
	}
}

func TestRegisterFlags(t *testing.T) {
	c := defaultConfig()
	c.Port = 9000
	f := flag.NewFlagSet("camstream", flag.ContinueOnError)
	c.registerFlags(f)
	if err := f.Parse([]string{"-perconn", "-window", "5"}); err != nil {
		t.Fatal(err)
	}
	if c.Port != 9000 || !c.PerConn || c.Window != 5 {
		t.Fatalf("%+v", c)
	}
}

func TestValidate(t *testing.T) {
	data := []func(c *Config){
		func(c *Config) { c.Port = -1 },
		func(c *Config) { c.Port = 65533 },
		func(c *Config) { c.Width = 0 },
		func(c *Config) { c.Quality = 101 },
		func(c *Config) { c.ADCChannel = 4 },
	}
	c := defaultConfig()
	if err := c.validate(); err != nil {
		t.Fatal(err)
	}
	for i, mod := range data {
		c := defaultConfig()
		mod(&c)
		if err := c.validate(); err == nil {
			t.Fatalf("#%d: expected error", i)
		}
	}
}
