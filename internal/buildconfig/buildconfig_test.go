// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeManifest(t, `
alphabet = "ab "
input_base = "corpus"
input_glob = "*.tsv"
add_all_bigrams = true
enable_bloom = true
output_path = "out/icegrams.bin"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alphabet != "ab " {
		t.Errorf("Alphabet = %q, want %q", cfg.Alphabet, "ab ")
	}
	if cfg.InputGlob != "*.tsv" {
		t.Errorf("InputGlob = %q, want %q", cfg.InputGlob, "*.tsv")
	}
	if !cfg.AddAllBigrams || !cfg.EnableBloom {
		t.Errorf("AddAllBigrams/EnableBloom = %v/%v, want true/true", cfg.AddAllBigrams, cfg.EnableBloom)
	}
	if cfg.OutputPath != "out/icegrams.bin" {
		t.Errorf("OutputPath = %q, want %q", cfg.OutputPath, "out/icegrams.bin")
	}
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeManifest(t, `
input_glob = "*.tsv"
output_path = "out/icegrams.bin"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded despite a missing alphabet")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("Load succeeded despite a nonexistent path")
	}
}
