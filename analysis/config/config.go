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

// Package config holds the analysis configuration loaded from YAML and the leveled
// logging the engine phases share.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SetupError reports a misconfiguration or an unresolvable instantiation detected before
// the fixpoint starts. It aborts the entire run.
type SetupError struct {
	Msg string
}

func (e *SetupError) Error() string { return "setup: " + e.Msg }

// Setupf builds a SetupError with a formatted message.
func Setupf(format string, args ...any) error {
	return &SetupError{Msg: fmt.Sprintf(format, args...)}
}

// Enumerated option values. Validate rejects anything else.
const (
	WorkingSetFIFO      = "fifo"
	WorkingSetLIFO      = "lifo"
	WorkingSetDedupFIFO = "dedup-fifo"
	WorkingSetDedupLIFO = "dedup-lifo"

	ContextInsensitive = "insensitive"
	ContextCallSites   = "call-sites"

	OpenCallTop    = "top"
	OpenCallBottom = "bottom"
	OpenCallFail   = "fail"

	GraphsNone            = "none"
	GraphsDot             = "dot"
	GraphsGraphML         = "graphml"
	GraphsGraphMLSubnodes = "graphml-subnodes"
	GraphsHTML            = "html"
	GraphsHTMLSubnodes    = "html-subnodes"

	DomainIntervals = "intervals"
	DomainSign      = "sign"
	DomainConstants = "constants"
	DomainReachDefs = "reaching-definitions"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename.
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig.
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config collects every tunable of an analysis run. NewDefault fills the defaults the
// engine expects; Load starts from them, so fields not present in the YAML file keep
// their default values.
type Config struct {
	sourceFile string

	// LogLevel controls the verbosity of the LogGroup built from this config
	LogLevel int `yaml:"log-level"`

	// ValueDomain selects the value abstraction: intervals, sign, constants or
	// reaching-definitions
	ValueDomain string `yaml:"value-domain"`

	// WideningThreshold is the number of visits of a CFG node before joins turn into
	// widenings. It must be >= 1.
	WideningThreshold int `yaml:"widening-threshold"`

	// NarrowingSteps bounds the descending phase after the ascending fixpoint; 0
	// disables it
	NarrowingSteps int `yaml:"narrowing-steps"`

	// WorkingSet selects the fixpoint scheduling: fifo, lifo, dedup-fifo or dedup-lifo
	WorkingSet string `yaml:"working-set"`

	// ContextSensitivity selects the call-stack abstraction: insensitive or call-sites
	ContextSensitivity string `yaml:"context-sensitivity"`

	// ContextK is the depth of the call-sites abstraction
	ContextK int `yaml:"context-k"`

	// OpenCallPolicy decides what an unresolved call returns: top, bottom or fail
	OpenCallPolicy string `yaml:"open-call-policy"`

	// Optimize stores only basic-block-head and exit states during CFG fixpoints and
	// rebuilds the remaining states on demand
	Optimize bool `yaml:"optimize"`

	// DumpForcesUnwinding makes graph dumps materialize per-statement states even under
	// Optimize
	DumpForcesUnwinding bool `yaml:"dump-forces-unwinding"`

	// SerializeInputs dumps the input CFGs before the analysis runs
	SerializeInputs bool `yaml:"serialize-inputs"`

	// SerializeResults dumps the analyzed CFGs with their states
	SerializeResults bool `yaml:"serialize-results"`

	// AnalysisGraphs selects the dump format: none, dot, graphml, graphml-subnodes,
	// html or html-subnodes
	AnalysisGraphs string `yaml:"analysis-graphs"`

	// ReportsDir is the directory dumps and reports are written to
	ReportsDir string `yaml:"reports-dir"`
}

// NewDefault returns the configuration the engine uses when no file is given.
func NewDefault() *Config {
	return &Config{
		LogLevel:           int(InfoLevel),
		ValueDomain:        DomainIntervals,
		WideningThreshold:  5,
		NarrowingSteps:     1,
		WorkingSet:         WorkingSetDedupFIFO,
		ContextSensitivity: ContextCallSites,
		ContextK:           1,
		OpenCallPolicy:     OpenCallTop,
		AnalysisGraphs:     GraphsNone,
	}
}

// Load reads and validates a config from a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, Setupf("could not read config file %s: %v", filename, err)
	}
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, Setupf("could not parse config file %s: %v", filename, err)
	}
	cfg.sourceFile = filename
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SourceFile returns the file the config was loaded from, if any.
func (c *Config) SourceFile() string { return c.sourceFile }

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks every enumerated and numeric option, returning a SetupError on the
// first violation.
func (c *Config) Validate() error {
	if c.WideningThreshold < 1 {
		return Setupf("widening-threshold must be >= 1, got %d", c.WideningThreshold)
	}
	if c.NarrowingSteps < 0 {
		return Setupf("narrowing-steps must be >= 0, got %d", c.NarrowingSteps)
	}
	if !oneOf(c.WorkingSet, WorkingSetFIFO, WorkingSetLIFO, WorkingSetDedupFIFO, WorkingSetDedupLIFO) {
		return Setupf("unknown working-set %q", c.WorkingSet)
	}
	if !oneOf(c.ContextSensitivity, ContextInsensitive, ContextCallSites) {
		return Setupf("unknown context-sensitivity %q", c.ContextSensitivity)
	}
	if c.ContextSensitivity == ContextCallSites && c.ContextK < 1 {
		return Setupf("context-k must be >= 1 for call-sites sensitivity, got %d", c.ContextK)
	}
	if !oneOf(c.OpenCallPolicy, OpenCallTop, OpenCallBottom, OpenCallFail) {
		return Setupf("unknown open-call-policy %q", c.OpenCallPolicy)
	}
	if !oneOf(c.AnalysisGraphs, GraphsNone, GraphsDot, GraphsGraphML, GraphsGraphMLSubnodes,
		GraphsHTML, GraphsHTMLSubnodes) {
		return Setupf("unknown analysis-graphs %q", c.AnalysisGraphs)
	}
	if !oneOf(c.ValueDomain, DomainIntervals, DomainSign, DomainConstants, DomainReachDefs) {
		return Setupf("unknown value-domain %q", c.ValueDomain)
	}
	if c.LogLevel < int(ErrLevel) || c.LogLevel > int(TraceLevel) {
		return Setupf("log-level must be between %d and %d, got %d", ErrLevel, TraceLevel, c.LogLevel)
	}
	return nil
}
