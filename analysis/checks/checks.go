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

// Package checks runs user-provided syntactic and semantic checks over analyzed programs,
// collecting warnings. The engine treats checks as opaque visitors; execution follows
// registration order.
package checks

import (
	"fmt"

	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/interproc"
	"github.com/argus-static/argus/analysis/symbolic"
)

// Warning is a finding a check emitted at a source location.
type Warning struct {
	Loc     symbolic.Location
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Loc, w.Message)
}

// Tool collects the warnings of a run. Checks receive it as their only way to report.
type Tool struct {
	warnings []Warning
}

// Warn records a warning.
func (t *Tool) Warn(loc symbolic.Location, format string, args ...any) {
	t.warnings = append(t.warnings, Warning{Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the collected warnings in emission order.
func (t *Tool) Warnings() []Warning { return t.warnings }

// SyntacticCheck visits statements before any fixpoint runs.
type SyntacticCheck interface {
	Name() string
	Visit(t *Tool, g *cfg.Graph, st *cfg.Statement)
}

// SemanticCheck visits statements of analyzed CFGs with the abstract states computed
// after the statement, one per observed context.
type SemanticCheck[A abstract.AbstractState[A]] interface {
	Name() string
	Visit(t *Tool, g *cfg.Graph, st *cfg.Statement, states []abstract.AnalysisState[A])
}

// RunSyntactic dispatches every registered syntactic check over every statement of the
// program, in registration order.
func RunSyntactic(prog *cfg.Program, checks []SyntacticCheck, tool *Tool) {
	for _, c := range checks {
		for _, g := range prog.Graphs() {
			for _, st := range g.Nodes() {
				c.Visit(tool, g, st)
			}
		}
	}
}

// RunSemantic dispatches every registered semantic check over every statement of the
// analyzed program. The states passed to a check are the post-states of the statement
// under every observed context token.
func RunSemantic[A abstract.AbstractState[A]](prog *cfg.Program,
	analyzer *interproc.Analyzer[A], checks []SemanticCheck[A], tool *Tool) error {
	for _, c := range checks {
		for _, name := range prog.Names() {
			results := analyzer.ResultsOf(name)
			if len(results) == 0 {
				continue
			}
			g := results[0].Graph
			for _, st := range g.Nodes() {
				states := make([]abstract.AnalysisState[A], 0, len(results))
				for _, analyzed := range results {
					post, err := analyzed.Result.PostStateOf(st)
					if err != nil {
						return err
					}
					states = append(states, post)
				}
				c.Visit(tool, g, st, states)
			}
		}
	}
	return nil
}
