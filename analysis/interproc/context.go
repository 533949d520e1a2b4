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

// Package interproc drives the whole-program analysis: it resolves calls through a call
// graph, keys summaries by context-sensitivity tokens, and stabilizes recursion with a
// nested fixpoint over the involved CFGs.
package interproc

import (
	"strings"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
)

// Token is a finite abstraction of the call stack. Equal keys share one summary-cache
// entry; the token set must be finite by construction for the analysis to terminate.
type Token interface {
	// Push returns the token of the callee invoked at the given call site
	Push(site *cfg.Statement) Token

	// Key is the cache key of the token; equal keys mean equal tokens
	Key() string

	String() string
}

// StartingToken returns the token of root entry points for the configured sensitivity.
func StartingToken(conf *config.Config) Token {
	if conf.ContextSensitivity == config.ContextInsensitive {
		return insensitive{}
	}
	return callSites{k: conf.ContextK}
}

// insensitive is the single token of the context-insensitive analysis.
type insensitive struct{}

func (insensitive) Push(*cfg.Statement) Token { return insensitive{} }
func (insensitive) Key() string               { return "" }
func (insensitive) String() string            { return "<any>" }

// callSites abstracts the call stack by its last k call-site locations.
type callSites struct {
	k     int
	sites []string
}

func (c callSites) Push(site *cfg.Statement) Token {
	sites := append(append([]string{}, c.sites...), site.Location().String())
	if len(sites) > c.k {
		sites = sites[len(sites)-c.k:]
	}
	return callSites{k: c.k, sites: sites}
}

func (c callSites) Key() string {
	return strings.Join(c.sites, ";")
}

func (c callSites) String() string {
	if len(c.sites) == 0 {
		return "<root>"
	}
	return "[" + c.Key() + "]"
}
