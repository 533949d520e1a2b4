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

// Package cfg defines the control-flow graphs the engine analyzes: statements addressed
// by stable ids inside an arena graph, typed edges, descriptors and whole programs.
// Frontends build graphs once; after finalization they are immutable.
package cfg

import (
	"fmt"
	"strings"

	"github.com/argus-static/argus/analysis/symbolic"
)

// Kind discriminates the statement variants.
type Kind int

const (
	// KindSkip is a no-op statement
	KindSkip Kind = iota
	// KindAssign assigns Expr to Target
	KindAssign
	// KindEval evaluates Expr for its effects
	KindEval
	// KindBranch evaluates the condition Expr; outgoing true/false edges assume it
	KindBranch
	// KindReturn returns Expr (possibly nil) from the enclosing CFG
	KindReturn
	// KindCall invokes Call, optionally assigning the result to Target
	KindCall
)

// CallSite describes a call to a named CFG with actual argument expressions.
type CallSite struct {
	Callee string
	Args   []symbolic.Expression
}

// Statement is a node of a CFG rooting one expression tree. Statements are the program
// points of the engine.
type Statement struct {
	id    int
	kind  Kind
	loc   symbolic.Location
	block int

	// Target is the assigned expression of assignments and result-binding calls
	Target symbolic.Expression

	// Expr is the rooted expression: the assigned value, the evaluated expression, the
	// branch condition or the returned value
	Expr symbolic.Expression

	// Call is the call site of call statements
	Call *CallSite
}

// ID returns the arena id of the statement within its graph.
func (s *Statement) ID() int { return s.id }

// Kind returns the statement variant.
func (s *Statement) Kind() Kind { return s.kind }

// Block returns the basic-block id assigned at finalization, or -1 before it.
func (s *Statement) Block() int { return s.block }

// Location implements symbolic.ProgramPoint.
func (s *Statement) Location() symbolic.Location { return s.loc }

func (s *Statement) String() string {
	switch s.kind {
	case KindSkip:
		return "skip"
	case KindAssign:
		return fmt.Sprintf("%s = %s", s.Target, s.Expr)
	case KindEval:
		return s.Expr.String()
	case KindBranch:
		return fmt.Sprintf("if %s", s.Expr)
	case KindReturn:
		if s.Expr == nil {
			return "return"
		}
		return fmt.Sprintf("return %s", s.Expr)
	case KindCall:
		var args []string
		for _, a := range s.Call.Args {
			args = append(args, a.String())
		}
		call := fmt.Sprintf("%s(%s)", s.Call.Callee, strings.Join(args, ", "))
		if s.Target != nil {
			return fmt.Sprintf("%s = %s", s.Target, call)
		}
		return call
	}
	return "?"
}

// EdgeKind discriminates sequential edges from the two branch edges.
type EdgeKind int

const (
	// EdgeSeq is an unconditional edge
	EdgeSeq EdgeKind = iota
	// EdgeTrue is taken when the source branch condition holds
	EdgeTrue
	// EdgeFalse is taken when the source branch condition does not hold
	EdgeFalse
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeTrue:
		return "true"
	case EdgeFalse:
		return "false"
	default:
		return "seq"
	}
}

// Edge is a typed edge between two statements, identified by arena ids.
type Edge struct {
	Src  int
	Dst  int
	Kind EdgeKind
}
