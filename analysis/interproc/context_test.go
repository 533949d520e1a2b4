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

package interproc

import (
	"testing"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/symbolic"
)

func callAt(g *cfg.Graph, line int) *cfg.Statement {
	return g.AddCall(nil, "f", nil, symbolic.Location{File: "t.go", Line: line})
}

func TestCallSitesTokenKLimit(t *testing.T) {
	g := cfg.NewGraph(cfg.Descriptor{Name: "caller"})
	s1 := callAt(g, 1)
	s2 := callAt(g, 2)
	s3 := callAt(g, 3)

	conf := config.NewDefault()
	conf.ContextSensitivity = config.ContextCallSites
	conf.ContextK = 2

	tok := StartingToken(conf)
	tok = tok.Push(s1)
	tok = tok.Push(s2)
	tok = tok.Push(s3)
	if tok.Key() != "t.go:2;t.go:3" {
		t.Errorf("k=2 token should keep the last two sites, got %q", tok.Key())
	}
}

func TestTokensDistinguishCallSites(t *testing.T) {
	g := cfg.NewGraph(cfg.Descriptor{Name: "caller"})
	s1 := callAt(g, 1)
	s2 := callAt(g, 2)

	conf := config.NewDefault()
	conf.ContextK = 1
	base := StartingToken(conf)
	if base.Push(s1).Key() == base.Push(s2).Key() {
		t.Errorf("different call sites must produce different k=1 tokens")
	}
	if base.Push(s1).Key() != base.Push(s1).Key() {
		t.Errorf("token keys must be deterministic")
	}
}

func TestInsensitiveToken(t *testing.T) {
	g := cfg.NewGraph(cfg.Descriptor{Name: "caller"})
	s1 := callAt(g, 1)
	conf := config.NewDefault()
	conf.ContextSensitivity = config.ContextInsensitive
	tok := StartingToken(conf)
	if tok.Push(s1).Key() != tok.Key() {
		t.Errorf("the insensitive token never changes")
	}
}
