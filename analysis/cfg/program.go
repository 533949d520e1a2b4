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

package cfg

import "fmt"

// ValidationError reports a malformed program coming from a frontend.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "invalid program: " + e.Msg }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Program is a collection of CFGs keyed by name, with designated entry points. Iteration
// follows insertion order for deterministic analysis output.
type Program struct {
	names   []string
	cfgs    map[string]*Graph
	entries []string
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{cfgs: map[string]*Graph{}}
}

// AddGraph registers a CFG under its descriptor name. Re-registering a name replaces the
// previous graph.
func (p *Program) AddGraph(g *Graph) {
	name := g.Descriptor().Name
	if _, ok := p.cfgs[name]; !ok {
		p.names = append(p.names, name)
	}
	p.cfgs[name] = g
}

// Graph returns the CFG with the given name.
func (p *Program) Graph(name string) (*Graph, bool) {
	g, ok := p.cfgs[name]
	return g, ok
}

// Names returns the CFG names in insertion order.
func (p *Program) Names() []string { return p.names }

// Graphs returns the CFGs in insertion order.
func (p *Program) Graphs() []*Graph {
	out := make([]*Graph, len(p.names))
	for i, n := range p.names {
		out[i] = p.cfgs[n]
	}
	return out
}

// SetEntryPoints designates the root CFGs of the whole-program analysis.
func (p *Program) SetEntryPoints(names ...string) {
	p.entries = names
}

// EntryPoints returns the designated roots; when none were designated, every CFG is a
// root.
func (p *Program) EntryPoints() []string {
	if len(p.entries) > 0 {
		return p.entries
	}
	return p.names
}

// Validate checks the structural invariants frontends must guarantee and returns a
// ValidationError on the first violation.
func (p *Program) Validate() error {
	if len(p.names) == 0 {
		return Validationf("program has no CFGs")
	}
	for _, name := range p.names {
		g := p.cfgs[name]
		if g.Size() == 0 {
			return Validationf("cfg %s has no statements", name)
		}
		if len(g.Entries()) == 0 {
			return Validationf("cfg %s has no entry node", name)
		}
		for _, n := range g.Nodes() {
			if n.kind == KindBranch {
				var hasTrue, hasFalse bool
				for _, e := range g.Out(n.id) {
					hasTrue = hasTrue || e.Kind == EdgeTrue
					hasFalse = hasFalse || e.Kind == EdgeFalse
				}
				if !hasTrue || !hasFalse {
					return Validationf("branch %q in %s is missing a true or false edge", n, name)
				}
			}
			if n.kind == KindCall && n.Call == nil {
				return Validationf("call statement %d in %s has no call site", n.id, name)
			}
		}
	}
	for _, e := range p.EntryPoints() {
		if _, ok := p.cfgs[e]; !ok {
			return Validationf("entry point %s is not a CFG of the program", e)
		}
	}
	return nil
}
