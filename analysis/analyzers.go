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

// Package analysis assembles and runs whole-program abstract interpretations: it
// instantiates the configured domains into a composite state, drives the
// interprocedural fixpoint, runs the registered checks and writes the requested dumps.
package analysis

import (
	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/checks"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/domains"
	"github.com/argus-static/argus/analysis/fixpoint"
	"github.com/argus-static/argus/analysis/heap"
	"github.com/argus-static/argus/analysis/interproc"
)

// Concrete composite states, one per shipped value domain: the point-based heap, the
// value domain and the static-types domain.
type (
	// IntervalState is the composite state over the interval value domain
	IntervalState = abstract.SimpleState[heap.PointBased, domains.Env[domains.Interval], domains.Env[domains.StaticTypes]]
	// SignState is the composite state over the sign value domain
	SignState = abstract.SimpleState[heap.PointBased, domains.Env[domains.Sign], domains.Env[domains.StaticTypes]]
	// ConstantState is the composite state over the constant-propagation value domain
	ConstantState = abstract.SimpleState[heap.PointBased, domains.Env[domains.ConstProp], domains.Env[domains.StaticTypes]]
	// ReachDefsState is the composite state over the reaching-definitions value domain
	ReachDefsState = abstract.SimpleState[heap.PointBased, domains.ReachDefs, domains.Env[domains.StaticTypes]]
)

// Report is the outcome of a run: the warnings emitted by checks, and the per-CFG
// failures that were recorded and skipped.
type Report struct {
	Warnings []checks.Warning
	Errors   []error
}

// Run analyzes the program with the configured value domain and the given syntactic
// checks. Semantic checks need the concrete state type; register them through RunWith.
func Run(conf *config.Config, prog *cfg.Program, syntactic []checks.SyntacticCheck) (*Report, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	switch conf.ValueDomain {
	case config.DomainSign:
		report, _, err := RunWith(conf, prog, domains.NewEnv(domains.Sign{}), syntactic, nil, nil)
		return report, err
	case config.DomainConstants:
		report, _, err := RunWith(conf, prog, domains.NewEnv(domains.ConstProp{}), syntactic, nil, nil)
		return report, err
	case config.DomainReachDefs:
		report, _, err := RunWith(conf, prog, domains.NewReachDefs(), syntactic, nil, nil)
		return report, err
	default:
		report, _, err := RunWith(conf, prog, domains.NewEnv(domains.Interval{}), syntactic, nil, nil)
		return report, err
	}
}

// RunWith analyzes the program with an explicit value domain instance, returning the
// driver for clients that inspect per-point states. The cancellation flag may be nil.
func RunWith[VD abstract.ValueDomain[VD]](conf *config.Config, prog *cfg.Program, valueDomain VD,
	syntactic []checks.SyntacticCheck,
	semantic []checks.SemanticCheck[abstract.SimpleState[heap.PointBased, VD, domains.Env[domains.StaticTypes]]],
	cancel *fixpoint.Cancellation,
) (*Report, *interproc.Analyzer[abstract.SimpleState[heap.PointBased, VD, domains.Env[domains.StaticTypes]]], error) {
	log := config.NewLogGroup(conf)
	initial := abstract.NewSimpleState(heap.New(), valueDomain, domains.NewEnv(domains.StaticTypes{}))

	analyzer, err := interproc.NewAnalyzer(prog, conf, log, cancel, initial)
	if err != nil {
		return nil, nil, err
	}

	tool := &checks.Tool{}
	checks.RunSyntactic(prog, syntactic, tool)

	if conf.SerializeInputs {
		if err := dumpInputs(conf, prog, log); err != nil {
			return nil, nil, err
		}
	}

	if err := analyzer.Fixpoint(); err != nil {
		return nil, nil, err
	}

	if err := checks.RunSemantic(prog, analyzer, semantic, tool); err != nil {
		return nil, nil, err
	}

	if err := dumpResults(conf, prog, analyzer, log); err != nil {
		return nil, nil, err
	}

	return &Report{Warnings: tool.Warnings(), Errors: analyzer.Errors()}, analyzer, nil
}
