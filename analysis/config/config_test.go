// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
value-domain: sign
widening-threshold: 3
narrowing-steps: 2
working-set: lifo
context-sensitivity: call-sites
context-k: 2
open-call-policy: bottom
optimize: true
analysis-graphs: dot
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ValueDomain != DomainSign || cfg.WideningThreshold != 3 || cfg.NarrowingSteps != 2 {
		t.Errorf("numeric options not loaded: %+v", cfg)
	}
	if cfg.WorkingSet != WorkingSetLIFO || cfg.ContextK != 2 || cfg.OpenCallPolicy != OpenCallBottom {
		t.Errorf("enumerated options not loaded: %+v", cfg)
	}
	if !cfg.Optimize || cfg.AnalysisGraphs != GraphsDot {
		t.Errorf("flags not loaded: %+v", cfg)
	}
	if cfg.SourceFile() != path {
		t.Errorf("source file not recorded")
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "value-domain: constants\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := NewDefault()
	if cfg.WideningThreshold != def.WideningThreshold || cfg.WorkingSet != def.WorkingSet {
		t.Errorf("unspecified options should keep their defaults: %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "widening threshold zero", mutate: func(c *Config) { c.WideningThreshold = 0 }},
		{name: "negative narrowing", mutate: func(c *Config) { c.NarrowingSteps = -1 }},
		{name: "bad working set", mutate: func(c *Config) { c.WorkingSet = "stack" }},
		{name: "bad policy", mutate: func(c *Config) { c.OpenCallPolicy = "panic" }},
		{name: "bad graphs", mutate: func(c *Config) { c.AnalysisGraphs = "svg" }},
		{name: "bad domain", mutate: func(c *Config) { c.ValueDomain = "octagons" }},
		{name: "k too small", mutate: func(c *Config) { c.ContextK = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			var setupErr *SetupError
			if !errors.As(err, &setupErr) {
				t.Errorf("Validate should fail with a SetupError, got %v", err)
			}
		})
	}
}

func TestMissingFileIsSetupError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Errorf("missing file should be a SetupError, got %v", err)
	}
}
