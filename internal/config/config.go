// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads the handful of numbers a VM needs at construction time
// from an optional TOML file, falling back to the documented defaults (§6)
// when no file is given — the same loading convention the reference engine's
// node configuration uses, pared down to four fields.
package config

import (
	"os"

	"github.com/naoina/toml"

	"github.com/probescript/probescript/internal/gc"
)

// Config is the on-disk shape of a VM's construction options.
type Config struct {
	MinHeapSize     uint64  `toml:"min_heap_size"`
	InitialHeapSize uint64  `toml:"initial_heap_size"`
	GrowthFactor    float64 `toml:"growth_factor"`
	Verbose         bool    `toml:"verbose"`
}

// Default returns the documented constructor defaults: a 1 MiB floor, a 5 MiB
// initial budget, 0.5 additive growth, and verbose logging off.
func Default() Config {
	d := gc.DefaultConfig()
	return Config{
		MinHeapSize:     d.MinHeapSize,
		InitialHeapSize: d.InitialHeapSize,
		GrowthFactor:    d.GrowthFactor,
		Verbose:         false,
	}
}

// Load reads path as TOML and overlays it onto Default(); a missing file is
// not an error — the caller gets the defaults back unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Heap adapts cfg to the gc package's own Config shape.
func (c Config) Heap() gc.Config {
	return gc.Config{
		MinHeapSize:     c.MinHeapSize,
		InitialHeapSize: c.InitialHeapSize,
		GrowthFactor:    c.GrowthFactor,
	}
}
