// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildconfig loads the TOML file that drives one invocation
// of the artifact builder: the alphabet, the TSV input glob, and the
// handful of tuning flags the teacher's cindex took as command-line
// flags instead. Grounded on standardbeagle-lci's build_artifact_detector.go,
// which reads TOML/JSON manifests via toml.Unmarshal into a plain
// struct rather than a bespoke parser.
package buildconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk shape of a builder manifest, e.g.:
//
//	alphabet = "abcdefghijklmnopqrstuvwxyzáéíóúýþæöð "
//	input_base = "."
//	input_glob = "corpus/*.tsv"
//	add_all_bigrams = false
//	enable_bloom = true
//	output_path = "out/icegrams.bin"
type Config struct {
	Alphabet      string `toml:"alphabet"`
	InputBase     string `toml:"input_base"`
	InputGlob     string `toml:"input_glob"`
	AddAllBigrams bool   `toml:"add_all_bigrams"`
	EnableBloom   bool   `toml:"enable_bloom"`
	OutputPath    string `toml:"output_path"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buildconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("buildconfig: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("buildconfig: %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Alphabet == "" {
		return fmt.Errorf("alphabet must be non-empty")
	}
	if c.InputGlob == "" {
		return fmt.Errorf("input_glob must be non-empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output_path must be non-empty")
	}
	return nil
}
