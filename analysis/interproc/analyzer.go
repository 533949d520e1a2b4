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
	"errors"
	"fmt"
	"strings"

	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/fixpoint"
	"github.com/argus-static/argus/analysis/symbolic"
	"github.com/argus-static/argus/internal/funcutil"
	"github.com/argus-static/argus/internal/graphutil"
)

// AnalyzedCFG is the result of one CFG fixpoint under one context token.
type AnalyzedCFG[A abstract.AbstractState[A]] struct {
	Graph  *cfg.Graph
	Token  string
	Result *fixpoint.Result[abstract.AnalysisState[A]]
}

// summary caches the analysis of a (cfg, token) pair. Entry states are compared with the
// lattice order: a lookup whose entry is below the cached one reuses the cached exit.
type summary[A abstract.AbstractState[A]] struct {
	entry      abstract.AnalysisState[A]
	exit       abstract.AnalysisState[A]
	result     *fixpoint.Result[abstract.AnalysisState[A]]
	active     bool
	seeded     bool
	iterations int
}

// Analyzer is the context-sensitive interprocedural driver: it runs CFG fixpoints on
// demand following the call graph, caches summaries per (cfg, token), and stabilizes
// recursive components with a nested widening fixpoint on the component head.
type Analyzer[A abstract.AbstractState[A]] struct {
	prog   *cfg.Program
	cg     *CallGraph
	conf   *config.Config
	log    *config.LogGroup
	cancel *fixpoint.Cancellation

	initial A

	summaries  map[string]*summary[A]
	results    map[string]map[string]*AnalyzedCFG[A]
	active     []string
	recursions map[string]*Recursion
	pending    map[string]bool // recursion heads whose summary must be re-iterated
	callTree   *graphutil.Tree[string]
	curNode    *graphutil.Tree[string]
	errs       []error
}

// NewAnalyzer builds a driver for the program with the given initial abstract state.
func NewAnalyzer[A abstract.AbstractState[A]](prog *cfg.Program, conf *config.Config,
	log *config.LogGroup, cancel *fixpoint.Cancellation, initial A) (*Analyzer[A], error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	for _, g := range prog.Graphs() {
		g.Finalize()
	}
	root := graphutil.NewTree("<root>")
	return &Analyzer[A]{
		prog:       prog,
		cg:         BuildCallGraph(prog, log),
		conf:       conf,
		log:        log,
		cancel:     cancel,
		initial:    initial,
		summaries:  map[string]*summary[A]{},
		results:    map[string]map[string]*AnalyzedCFG[A]{},
		recursions: map[string]*Recursion{},
		pending:    map[string]bool{},
		callTree:   root,
		curNode:    root,
	}, nil
}

// NeedsCallGraph reports that this driver resolves calls through a call graph.
func (a *Analyzer[A]) NeedsCallGraph() bool { return true }

// CallGraph returns the call graph the driver resolves against.
func (a *Analyzer[A]) CallGraph() *CallGraph { return a.cg }

// Errors returns the failures recorded while skipping CFGs.
func (a *Analyzer[A]) Errors() []error { return a.errs }

func summaryKey(name, tokenKey string) string { return name + "|" + tokenKey }

// Fixpoint analyzes every entry point of the program. Failures of one entry point are
// recorded and the remaining entry points still run; cancellation aborts everything,
// leaving partial summaries in place.
func (a *Analyzer[A]) Fixpoint() error {
	for _, name := range a.prog.EntryPoints() {
		g, _ := a.prog.Graph(name)
		tok := StartingToken(a.conf)
		entry := abstract.NewAnalysisState(a.initial)
		a.log.Infof("analyzing entry point %s", name)
		if _, err := a.analyzeCFG(g, tok, entry); err != nil {
			if errors.Is(err, fixpoint.ErrCancelled) {
				return err
			}
			a.log.Errorf("skipping entry point %s: %v", name, err)
			a.errs = append(a.errs, err)
		}
	}
	return nil
}

// ResultsOf returns the analyzed CFGs of the named graph, one per context token observed,
// sorted by token key.
func (a *Analyzer[A]) ResultsOf(name string) []*AnalyzedCFG[A] {
	byTok := a.results[name]
	out := make([]*AnalyzedCFG[A], 0, len(byTok))
	for _, k := range funcutil.SortedKeys(byTok) {
		out = append(out, byTok[k])
	}
	return out
}

// analyzeCFG returns the exit state of g analyzed from entry under tok, computing and
// caching the summary if needed. Recursive re-entries return the summary seed and mark
// the head for iteration.
func (a *Analyzer[A]) analyzeCFG(g *cfg.Graph, tok Token, entry abstract.AnalysisState[A]) (abstract.AnalysisState[A], error) {
	key := summaryKey(g.Descriptor().Name, tok.Key())
	sum, ok := a.summaries[key]
	if ok {
		if sum.active {
			// Recursive re-entry: delimit the component and hand back the seed.
			a.markRecursion(key, g, tok, entry)
			if !sum.seeded {
				sum.exit = entry.Bottom()
				sum.seeded = true
			}
			return sum.exit, nil
		}
		if entry.LessOrEqual(sum.entry) {
			return sum.exit, nil
		}
		entry = sum.entry.Lub(entry)
	} else {
		sum = &summary[A]{exit: entry.Bottom()}
		a.summaries[key] = sum
	}
	sum.entry = entry
	sum.active = true
	a.active = append(a.active, key)
	a.curNode = a.curNode.AddChild(key)
	defer func() {
		sum.active = false
		a.active = a.active[:len(a.active)-1]
		a.curNode = a.curNode.Parent
	}()

	for {
		trans := &transitions[A]{a: a, graph: g, token: tok}
		engine := &fixpoint.Engine[abstract.AnalysisState[A]]{
			Graph: g,
			Trans: trans,
			Conf: fixpoint.Config{
				WideningThreshold: a.conf.WideningThreshold,
				NarrowingSteps:    a.conf.NarrowingSteps,
				WorkingSet:        a.conf.WorkingSet,
				Optimize:          a.conf.Optimize,
				Cancel:            a.cancel,
			},
		}
		res, err := engine.Fixpoint(entry)
		if err != nil {
			return entry.Bottom(), a.inTrace(err)
		}
		exit, err := res.ExitState()
		if err != nil {
			return entry.Bottom(), a.inTrace(err)
		}

		if a.pending[key] {
			// This CFG is the head of a recursion: iterate until its summary
			// stabilizes, widening entry and exit after the threshold. Recursive
			// re-entries grew sum.entry while the engine ran; the next iteration
			// covers them.
			delete(a.pending, key)
			if exit.LessOrEqual(sum.exit) && sum.entry.LessOrEqual(entry) {
				sum.result = res
				break
			}
			sum.iterations++
			joined := sum.exit.Lub(exit)
			if sum.iterations >= a.conf.WideningThreshold {
				sum.exit = sum.exit.Widening(joined)
				entry = entry.Widening(sum.entry)
			} else {
				sum.exit = joined
				entry = sum.entry
			}
			sum.entry = entry
			a.invalidateMembers(key)
			a.log.Tracef("recursion head %s: iteration %d", key, sum.iterations)
			continue
		}

		sum.exit = exit
		sum.seeded = true
		sum.result = res
		break
	}

	name := g.Descriptor().Name
	if a.results[name] == nil {
		a.results[name] = map[string]*AnalyzedCFG[A]{}
	}
	a.results[name][tok.Key()] = &AnalyzedCFG[A]{Graph: g, Token: tok.Key(), Result: sum.result}
	a.log.Debugf("summary installed for %s under %s", name, tok)
	return sum.exit, nil
}

// inTrace wraps an error with the call chain the driver was analyzing when it occurred.
func (a *Analyzer[A]) inTrace(err error) error {
	chain := funcutil.Map(a.curNode.Ancestors(-1),
		func(t *graphutil.Tree[string]) string { return t.Label })
	if errors.Is(err, fixpoint.ErrCancelled) || len(chain) <= 1 {
		return err
	}
	return fmt.Errorf("in %s: %w", strings.Join(chain[1:], " -> "), err)
}

// markRecursion records the strongly connected group of active summaries between the
// head and the current frame, and schedules the head for re-iteration.
func (a *Analyzer[A]) markRecursion(headKey string, g *cfg.Graph, tok Token, entry abstract.AnalysisState[A]) {
	if sum := a.summaries[headKey]; sum != nil {
		sum.entry = sum.entry.Lub(entry)
	}
	rec, ok := a.recursions[headKey]
	if !ok {
		rec = &Recursion{
			Head:  g.Descriptor().Name,
			Token: tok.Key(),
		}
		a.recursions[headKey] = rec
	}
	for i := len(a.active) - 1; i >= 0; i-- {
		rec.addMember(a.active[i])
		if a.active[i] == headKey {
			break
		}
	}
	a.pending[headKey] = true
}

// invalidateMembers drops the cached summaries of the non-head members of a recursion so
// the next head iteration recomputes them against the new head summary.
func (a *Analyzer[A]) invalidateMembers(headKey string) {
	rec := a.recursions[headKey]
	if rec == nil {
		return
	}
	for _, m := range rec.Members() {
		if m == headKey {
			continue
		}
		if sum, ok := a.summaries[m]; ok && !sum.active {
			delete(a.summaries, m)
		}
	}
}

// Recursions returns the recursion records observed, keyed by head summary.
func (a *Analyzer[A]) Recursions() map[string]*Recursion { return a.recursions }

// ---------------------------------------------------------------------------
// Statement and edge semantics
// ---------------------------------------------------------------------------

// transitions implements the engine transitions of one (cfg, token) frame, escalating
// calls back to the analyzer.
type transitions[A abstract.AbstractState[A]] struct {
	a     *Analyzer[A]
	graph *cfg.Graph
	token Token
}

// StatementSemantics implements fixpoint.Transitions.
func (t *transitions[A]) StatementSemantics(st *cfg.Statement, pre abstract.AnalysisState[A]) (abstract.AnalysisState[A], error) {
	if pre.IsBottom() {
		return pre, nil
	}
	switch st.Kind() {
	case cfg.KindSkip:
		return pre.SmallStepSemantics(symbolic.Skip{}, st)
	case cfg.KindEval, cfg.KindBranch:
		return pre.SmallStepSemantics(st.Expr, st)
	case cfg.KindAssign:
		return t.assign(st, pre, st.Target, st.Expr)
	case cfg.KindReturn:
		if st.Expr == nil {
			return pre.SmallStepSemantics(symbolic.Skip{}, st)
		}
		return pre.Assign(t.graph.Descriptor().ReturnVariable(), st.Expr, st)
	case cfg.KindCall:
		return t.call(st, pre)
	}
	return pre, abstract.Semanticf("unknown statement kind %d", st.Kind())
}

// assign resolves the assignment target and assigns through every identifier it may
// denote, joining the outcomes. A target that already is an identifier rebinds directly;
// heap forms (field accesses, dereferences) rewrite to the heap identifiers they denote.
func (t *transitions[A]) assign(st *cfg.Statement, pre abstract.AnalysisState[A],
	target, rhs symbolic.Expression) (abstract.AnalysisState[A], error) {
	var ids []symbolic.Identifier
	if id, ok := target.(symbolic.Identifier); ok {
		ids = []symbolic.Identifier{id}
	} else {
		rewritten, err := pre.Rewrite(target, st)
		if err != nil {
			return pre, err
		}
		for _, e := range rewritten.Elements() {
			if id, ok := e.(symbolic.Identifier); ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return pre, abstract.Semanticf("rewriting %s did not yield an identifier", target)
	}
	acc := pre.Bottom()
	for _, id := range ids {
		s, err := pre.Assign(id, rhs, st)
		if err != nil {
			return pre, err
		}
		acc = acc.Lub(s)
	}
	return acc, nil
}

// EdgeSemantics implements fixpoint.Transitions: true and false edges assume the source
// branch condition (or its negation).
func (t *transitions[A]) EdgeSemantics(e cfg.Edge, src abstract.AnalysisState[A]) (abstract.AnalysisState[A], error) {
	if src.IsBottom() {
		return src, nil
	}
	srcNode := t.graph.Node(e.Src)
	dstNode := t.graph.Node(e.Dst)
	switch e.Kind {
	case cfg.EdgeTrue:
		return src.Assume(srcNode.Expr, srcNode, dstNode)
	case cfg.EdgeFalse:
		neg := symbolic.NewUnary(symbolic.Not, srcNode.Expr, symbolic.Types("bool"))
		return src.Assume(neg, srcNode, dstNode)
	default:
		return src, nil
	}
}

// call resolves the call site and joins the exit states of every callee, applying the
// open-call policy when resolution is empty.
func (t *transitions[A]) call(st *cfg.Statement, pre abstract.AnalysisState[A]) (abstract.AnalysisState[A], error) {
	callees, err := t.a.cg.Resolve(st)
	if err != nil {
		return pre, err
	}
	if len(callees) == 0 {
		return t.openCall(st, pre)
	}
	acc := pre.Bottom()
	for _, callee := range callees {
		s, err := t.doCall(st, pre, callee)
		if err != nil {
			return pre, err
		}
		acc = acc.Lub(s)
	}
	return acc, nil
}

// openCall applies the configured policy to a call with no resolved targets.
func (t *transitions[A]) openCall(st *cfg.Statement, pre abstract.AnalysisState[A]) (abstract.AnalysisState[A], error) {
	switch t.a.conf.OpenCallPolicy {
	case config.OpenCallBottom:
		return pre.Bottom(), nil
	case config.OpenCallFail:
		return pre, &CallGraphError{Site: st, Msg: "cannot resolve call to " + st.Call.Callee}
	default:
		// the call may return anything
		if st.Target != nil {
			return t.assign(st, pre, st.Target, symbolic.NewNondet(symbolic.AnyType))
		}
		return pre.SmallStepSemantics(symbolic.Skip{}, st)
	}
}

// doCall implements one resolved call: push the callee token and scope, bind formals to
// the rescoped actuals, analyze the callee, pop the scope and rebind the return value.
func (t *transitions[A]) doCall(st *cfg.Statement, pre abstract.AnalysisState[A],
	callee *cfg.Graph) (abstract.AnalysisState[A], error) {
	desc := callee.Descriptor()
	if len(st.Call.Args) != len(desc.Formals) {
		return pre, abstract.Semanticf("call to %s with %d arguments, expected %d",
			desc.Name, len(st.Call.Args), len(desc.Formals))
	}
	childTok := t.token.Push(st)
	scope := symbolic.NewScopeToken(desc.Name, st.Location())

	entry, err := pre.PushScope(scope)
	if err != nil {
		return pre, err
	}
	for i, formal := range desc.Formals {
		arg, err := st.Call.Args[i].PushScope(scope)
		if err != nil {
			return pre, err
		}
		entry, err = entry.Assign(formal, arg, st)
		if err != nil {
			return pre, err
		}
	}

	exit, err := t.a.analyzeCFG(callee, childTok, entry)
	if err != nil {
		return pre, err
	}

	back, err := exit.PopScope(scope)
	if err != nil {
		return pre, err
	}
	retVar := desc.ReturnVariable()
	if st.Target != nil && desc.ReturnsValue {
		out, err := t.assign(st, back, st.Target, retVar)
		if err != nil {
			return pre, err
		}
		return out.Forget(retVar)
	}
	return back.Forget(retVar)
}
